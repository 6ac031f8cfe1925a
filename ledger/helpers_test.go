package ledger_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/liquidstake/ledger"
)

// Test setup helpers

var genesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func createTestClock() *fakeClock {
	return &fakeClock{now: genesis, tick: make(chan time.Time, 10)}
}

func newTestLedger(clock *fakeClock, opts ...ledger.Option) *ledger.Ledger {
	defaults := []ledger.Option{
		ledger.WithClock(clock),
		ledger.WithMinDelegation(units(1)),
		ledger.WithIDGenerator(sequentialIDs()),
	}
	return ledger.New(append(defaults, opts...)...)
}

// Domain-specific test builders for expressing business scenarios

func units(n uint64) uint256.Int {
	return *uint256.NewInt(n)
}

func amount(dec string) uint256.Int {
	return *uint256.MustFromDecimal(dec)
}

func bps(n uint32) *uint32 {
	return &n
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("req-%d", n)
	}
}

func ledgerWithValidator(t *testing.T, validatorID string, commissionBps uint32) (*fakeClock, *ledger.Ledger) {
	t.Helper()

	clock := createTestClock()
	l := newTestLedger(clock)
	_, err := l.RegisterOrUpdate(validatorID, ledger.ProfileParams{CommissionRateBps: bps(commissionBps)})
	require.NoError(t, err)

	return clock, l
}

func delegate(t *testing.T, l *ledger.Ledger, delegatorID, validatorID string, amount uint64) ledger.DelegateResult {
	t.Helper()

	res, err := l.Delegate(delegatorID, validatorID, units(amount))
	require.NoError(t, err)

	return res
}

func requestUndelegate(t *testing.T, l *ledger.Ledger, delegatorID, validatorID string, receipt uint64) ledger.UndelegationRequest {
	t.Helper()

	r, err := l.RequestUndelegate(delegatorID, validatorID, units(receipt))
	require.NoError(t, err)

	return r
}

func distribute(t *testing.T, l *ledger.Ledger, validatorID string, rewards uint64) ledger.Distribution {
	t.Helper()

	d, err := l.DistributeRewards(validatorID, units(rewards))
	require.NoError(t, err)

	return d
}

// Domain-specific assertions

func assertAmount(t *testing.T, expected uint64, actual uint256.Int, msgAndArgs ...any) {
	t.Helper()
	want := units(expected)
	assert.Equal(t, want.Dec(), actual.Dec(), msgAndArgs...)
}

func assertPosition(t *testing.T, l *ledger.Ledger, delegatorID, validatorID string, amount, receipt uint64) {
	t.Helper()

	d, ok := l.GetDelegation(delegatorID, validatorID)
	require.True(t, ok, "expected a position for %s/%s", delegatorID, validatorID)
	assertAmount(t, amount, d.Amount, "principal")
	assertAmount(t, receipt, d.ReceiptBalance, "receipt balance")
}

func assertNoPosition(t *testing.T, l *ledger.Ledger, delegatorID, validatorID string) {
	t.Helper()

	_, ok := l.GetDelegation(delegatorID, validatorID)
	assert.False(t, ok, "expected no position for %s/%s", delegatorID, validatorID)
}

func assertPendingRewards(t *testing.T, l *ledger.Ledger, delegatorID, validatorID string, expected uint64) {
	t.Helper()

	d, ok := l.GetDelegation(delegatorID, validatorID)
	require.True(t, ok)
	assertAmount(t, expected, d.PendingRewards, "pending rewards")
}

func assertLedgerConsistent(t *testing.T, l *ledger.Ledger) {
	t.Helper()
	require.NoError(t, l.CheckInvariants())
}

// Mock implementations

// fakeClock implements Clock interface for deterministic testing
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	tick chan time.Time
}

func (f *fakeClock) After(_ time.Duration) <-chan time.Time {
	return f.tick
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// recordingPublisher captures published events in order
type recordingPublisher struct {
	mu     sync.Mutex
	events []ledger.Event
}

func (p *recordingPublisher) Publish(e ledger.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []ledger.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ledger.Event(nil), p.events...)
}
