package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/liquidstake/ledger"
)

func TestRequestUndelegate(t *testing.T) {
	t.Parallel()

	t.Run("it burns receipt and locks the base value for the cooldown", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)

		// Act
		r := requestUndelegate(t, l, "alice", "v1", 400)

		// Assert
		assert.Equal(t, "req-1", r.ID)
		assert.Equal(t, ledger.StatusPending, r.Status)
		assertAmount(t, 400, r.Amount)
		assertAmount(t, 400, r.ReceiptAmount)
		assert.Equal(t, genesis.Add(ledger.DefaultCooldown), r.AvailableAt)

		assertPosition(t, l, "alice", "v1", 600, 600)
		pool := l.GetExchangeRate()
		assertAmount(t, 600, pool.TotalReceiptSupply)
		assertAmount(t, 1_000, pool.TotalDelegated, "stake leaves the pool on completion")
		assertLedgerConsistent(t, l)
	})

	t.Run("it values the receipt at the current rate", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		distribute(t, l, "v1", 1_000) // rate 2.0

		// Act
		r := requestUndelegate(t, l, "alice", "v1", 250)

		// Assert
		assertAmount(t, 500, r.Amount)
		assertAmount(t, 500, r.PrincipalDeducted)
		assertPosition(t, l, "alice", "v1", 500, 750)
	})

	t.Run("it caps the principal deduction at the position", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		distribute(t, l, "v1", 1_000) // rate 2.0

		// Act
		r := requestUndelegate(t, l, "alice", "v1", 1_000)

		// Assert
		assertAmount(t, 2_000, r.Amount)
		assertAmount(t, 1_000, r.PrincipalDeducted)
		assertPosition(t, l, "alice", "v1", 0, 0)
	})

	t.Run("it rejects more receipt than the position holds", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)

		// Act
		_, err := l.RequestUndelegate("alice", "v1", units(1_001))

		// Assert
		require.ErrorIs(t, err, ledger.ErrInsufficientReceipt)
		assertPosition(t, l, "alice", "v1", 1_000, 1_000)
	})

	t.Run("it rejects a missing position", func(t *testing.T) {
		t.Parallel()

		// Arrange
		l := newTestLedger(createTestClock())

		// Act
		_, err := l.RequestUndelegate("alice", "v1", units(1))

		// Assert
		require.ErrorIs(t, err, ledger.ErrNoDelegation)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("it rejects a zero amount", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)

		// Act
		_, err := l.RequestUndelegate("alice", "v1", units(0))

		// Assert
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})
}

func TestCompleteUndelegate(t *testing.T) {
	t.Parallel()

	t.Run("it refuses to complete before the cooldown elapses", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		r := requestUndelegate(t, l, "alice", "v1", 1_000)
		clock.Advance(ledger.DefaultCooldown - time.Second)

		// Act
		_, err := l.CompleteUndelegate(r.ID)

		// Assert
		require.ErrorIs(t, err, ledger.ErrCooldownActive)
		assert.ErrorIs(t, err, ledger.ErrState)
		got, _ := l.GetUndelegationRequest(r.ID)
		assert.Equal(t, ledger.StatusPending, got.Status)
	})

	t.Run("it releases the stake and removes the emptied position", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		r := requestUndelegate(t, l, "alice", "v1", 1_000)
		clock.Advance(ledger.DefaultCooldown)

		// Act
		done, err := l.CompleteUndelegate(r.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusCompleted, done.Status)
		assert.Equal(t, genesis.Add(ledger.DefaultCooldown), done.ProcessedAt)
		assertNoPosition(t, l, "alice", "v1")

		p, _ := l.GetProfile("v1")
		assertAmount(t, 0, p.TotalDelegated)
		assert.Equal(t, uint64(0), p.DelegatorCount)

		pool := l.GetExchangeRate()
		assertAmount(t, 0, pool.TotalDelegated)
		assertAmount(t, 0, pool.TotalReceiptSupply)
		assertLedgerConsistent(t, l)
	})

	t.Run("it keeps a position that still has unclaimed rewards", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		distribute(t, l, "v1", 10)
		r := requestUndelegate(t, l, "alice", "v1", 1_000)
		clock.Advance(ledger.DefaultCooldown)

		// Act
		_, err := l.CompleteUndelegate(r.ID)
		require.NoError(t, err)

		// Assert
		assertPendingRewards(t, l, "alice", "v1", 10)
		claimed, err := l.ClaimRewards("alice", "v1")
		require.NoError(t, err)
		assertAmount(t, 10, claimed)
		assertNoPosition(t, l, "alice", "v1")
		assertLedgerConsistent(t, l)
	})

	t.Run("it completes a request only once", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		r := requestUndelegate(t, l, "alice", "v1", 500)
		clock.Advance(ledger.DefaultCooldown)
		_, err := l.CompleteUndelegate(r.ID)
		require.NoError(t, err)

		// Act
		_, err = l.CompleteUndelegate(r.ID)

		// Assert
		assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
	})

	t.Run("it reports unknown requests", func(t *testing.T) {
		t.Parallel()

		// Arrange
		l := newTestLedger(createTestClock())

		// Act
		_, err := l.CompleteUndelegate("missing")

		// Assert
		assert.ErrorIs(t, err, ledger.ErrRequestNotFound)
	})
}

func TestCancelUndelegate(t *testing.T) {
	t.Parallel()

	t.Run("it restores the exact position", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		distribute(t, l, "v1", 333)
		before, _ := l.GetDelegation("alice", "v1")
		poolBefore := l.GetExchangeRate()
		r := requestUndelegate(t, l, "alice", "v1", 777)

		// Act
		cancelled, err := l.CancelUndelegate(r.ID, "alice")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusCancelled, cancelled.Status)
		after, _ := l.GetDelegation("alice", "v1")
		assert.Equal(t, before, after)
		assert.Equal(t, poolBefore, l.GetExchangeRate())
		assertLedgerConsistent(t, l)
	})

	t.Run("it fails the second time", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		r := requestUndelegate(t, l, "alice", "v1", 100)
		_, err := l.CancelUndelegate(r.ID, "alice")
		require.NoError(t, err)

		// Act
		_, err = l.CancelUndelegate(r.ID, "alice")

		// Assert
		require.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
		assertPosition(t, l, "alice", "v1", 1_000, 1_000)
	})

	t.Run("it only lets the requester cancel", func(t *testing.T) {
		t.Parallel()

		// Arrange
		_, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		r := requestUndelegate(t, l, "alice", "v1", 100)

		// Act
		_, err := l.CancelUndelegate(r.ID, "mallory")

		// Assert
		require.ErrorIs(t, err, ledger.ErrUnauthorized)
		assert.ErrorIs(t, err, ledger.ErrAuthorization)
	})

	t.Run("it cannot cancel a completed request", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		r := requestUndelegate(t, l, "alice", "v1", 100)
		clock.Advance(ledger.DefaultCooldown)
		_, err := l.CompleteUndelegate(r.ID)
		require.NoError(t, err)

		// Act
		_, err = l.CancelUndelegate(r.ID, "alice")

		// Assert
		assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
	})

	t.Run("it reopens a position closed by another completion", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		first := requestUndelegate(t, l, "alice", "v1", 600)
		clock.Advance(time.Hour)
		second := requestUndelegate(t, l, "alice", "v1", 400)
		clock.Advance(ledger.DefaultCooldown - time.Hour)
		_, err := l.CompleteUndelegate(first.ID)
		require.NoError(t, err)
		assertNoPosition(t, l, "alice", "v1")

		// Act
		_, err = l.CancelUndelegate(second.ID, "alice")

		// Assert
		require.NoError(t, err)
		assertPosition(t, l, "alice", "v1", 400, 400)
		p, _ := l.GetProfile("v1")
		assert.Equal(t, uint64(1), p.DelegatorCount)
		assertLedgerConsistent(t, l)
	})
}

func TestSweepDue(t *testing.T) {
	t.Parallel()

	t.Run("it completes only requests past their cooldown", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		early := requestUndelegate(t, l, "alice", "v1", 100)
		clock.Advance(time.Hour)
		late := requestUndelegate(t, l, "alice", "v1", 100)
		clock.Advance(ledger.DefaultCooldown - time.Minute)

		// Act
		swept := l.SweepDue()

		// Assert
		require.Len(t, swept, 1)
		assert.Equal(t, early.ID, swept[0].ID)
		got, _ := l.GetUndelegationRequest(late.ID)
		assert.Equal(t, ledger.StatusPending, got.Status)
	})

	t.Run("it is idempotent", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		requestUndelegate(t, l, "alice", "v1", 100)
		clock.Advance(ledger.DefaultCooldown)
		first := l.SweepDue()
		poolAfterFirst := l.GetExchangeRate()
		version := l.Version()

		// Act
		second := l.SweepDue()

		// Assert
		assert.Len(t, first, 1)
		assert.Empty(t, second)
		assert.Equal(t, poolAfterFirst, l.GetExchangeRate())
		assert.Equal(t, version, l.Version())
	})

	t.Run("it lists a delegator's requests newest first", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock, l := ledgerWithValidator(t, "v1", 0)
		delegate(t, l, "alice", "v1", 1_000)
		first := requestUndelegate(t, l, "alice", "v1", 100)
		clock.Advance(time.Minute)
		second := requestUndelegate(t, l, "alice", "v1", 100)
		_, err := l.CancelUndelegate(first.ID, "alice")
		require.NoError(t, err)

		// Act
		all := l.GetUndelegationRequests("alice", "")
		pending := l.GetUndelegationRequests("alice", ledger.StatusPending)

		// Assert
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)
		assert.Equal(t, first.ID, all[1].ID)
		require.Len(t, pending, 1)
		assert.Equal(t, second.ID, pending[0].ID)
	})
}
