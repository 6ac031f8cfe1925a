package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/liquidstake/ledger"
)

func TestWithdrawFromDelegation(t *testing.T) {
	t.Parallel()

	t.Run("it moves receipt into the free balance", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)

		// Act
		err := l.WithdrawFromDelegation("alice", "v1", units(300))

		// Assert
		require.NoError(t, err)
		assertPosition(t, l, "alice", "v1", 1_000, 700)
		b, err := l.GetReceiptBalance("alice")
		require.NoError(t, err)
		assertAmount(t, 300, b.Free)
		assertAmount(t, 700, b.Locked)
		assertAmount(t, 1_000, b.Total)
		assertAmount(t, 1_000, b.BaseValue)
		assertLedgerConsistent(t, l)
	})

	t.Run("it rejects more than the position holds", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)

		// Act
		err := l.WithdrawFromDelegation("alice", "v1", units(1_001))

		// Assert
		assert.ErrorIs(t, err, ledger.ErrInsufficientReceipt)
	})

	t.Run("it rejects a missing position", func(t *testing.T) {
		t.Parallel()

		// Arrange
		l := newTestLedger(createTestClock())

		// Act
		err := l.WithdrawFromDelegation("alice", "v1", units(1))

		// Assert
		assert.ErrorIs(t, err, ledger.ErrNoDelegation)
	})
}

func TestTransferReceipt(t *testing.T) {
	t.Parallel()

	t.Run("it moves free receipt between addresses", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		require.NoError(t, l.WithdrawFromDelegation("alice", "v1", units(500)))

		// Act
		err := l.TransferReceipt("alice", "bob", units(200))

		// Assert
		require.NoError(t, err)
		alice, _ := l.GetReceiptBalance("alice")
		bob, _ := l.GetReceiptBalance("bob")
		assertAmount(t, 300, alice.Free)
		assertAmount(t, 200, bob.Free)
		assertAmount(t, 0, bob.Locked)
		assertLedgerConsistent(t, l)
	})

	t.Run("it drops an emptied balance", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		require.NoError(t, l.WithdrawFromDelegation("alice", "v1", units(500)))

		// Act
		err := l.TransferReceipt("alice", "bob", units(500))

		// Assert
		require.NoError(t, err)
		for _, b := range l.Snapshot().FreeBalances {
			assert.NotEqual(t, "alice", b.Address)
		}
	})

	t.Run("it rejects locked receipt", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)

		// Act
		err := l.TransferReceipt("alice", "bob", units(1))

		// Assert
		require.ErrorIs(t, err, ledger.ErrInsufficientFreeBalance)
		assert.ErrorIs(t, err, ledger.ErrState)
	})

	t.Run("it treats a self transfer as a no-op", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		require.NoError(t, l.WithdrawFromDelegation("alice", "v1", units(10)))
		version := l.Version()

		// Act
		err := l.TransferReceipt("alice", "alice", units(10))

		// Assert
		require.NoError(t, err)
		b, _ := l.GetReceiptBalance("alice")
		assertAmount(t, 10, b.Free)
		assert.Equal(t, version, l.Version())
	})

	t.Run("it rejects a zero amount", func(t *testing.T) {
		t.Parallel()

		// Arrange
		l := newTestLedger(createTestClock())

		// Act
		err := l.TransferReceipt("alice", "bob", units(0))

		// Assert
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})
}
