// Package ledger implements a liquid staking delegation ledger.
//
// Delegators lock base tokens with validators and receive receipt tokens
// minted at the pool exchange rate. Rewards raise the exchange rate and are
// credited to delegators pro rata. Undelegations pass through a cooldown
// before the principal leaves the pool.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/screwyprof/liquidstake/pkg/clock"
)

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// Option configures the Ledger
// ----------------------------
type Option func(*Ledger)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithCooldown sets the undelegation cooldown
func WithCooldown(d time.Duration) Option {
	return func(l *Ledger) { l.cooldown = d }
}

// WithMinDelegation sets the minimum amount accepted by Delegate
func WithMinDelegation(amount uint256.Int) Option {
	return func(l *Ledger) { l.minDelegation = amount }
}

// WithDefaultCommission sets the commission of validators created implicitly by Delegate
func WithDefaultCommission(bps uint32) Option {
	return func(l *Ledger) { l.defaultCommission = bps }
}

// WithEligibility sets the validator eligibility oracle
func WithEligibility(o EligibilityOracle) Option {
	return func(l *Ledger) { l.eligibility = o }
}

// WithPublisher sets the sink for ledger events
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithIDGenerator overrides the undelegation request ID generator
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithSnapshot restores the ledger from a previously taken snapshot
func WithSnapshot(s Snapshot) Option {
	return func(l *Ledger) { l.restore(s) }
}

// Ledger is the in-memory delegation ledger.
//
// All mutations are serialised behind a single writer lock, so each operation
// observes and leaves a consistent state. Readers get copies.
type Ledger struct {
	mu sync.RWMutex

	clock             Clock
	eligibility       EligibilityOracle
	publisher         Publisher
	newID             func() string
	cooldown          time.Duration
	minDelegation     uint256.Int
	defaultCommission uint32

	profiles     map[string]*ValidatorProfile
	delegations  map[positionKey]*Delegation
	byDelegator  map[string]map[string]struct{}
	byValidator  map[string]map[string]struct{}
	requests     map[string]*UndelegationRequest
	requestsOf   map[string][]string
	pending      map[string]struct{}
	freeBalances map[string]uint256.Int
	pool         Pool
	version      uint64
}

// New constructs a Ledger with an empty pool at the initial exchange rate.
//
// By default, it uses a real clock, a 7 day cooldown, a minimum delegation of
// 1_000_000 base units, 10% default commission and accepts every validator.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		clock:             clock.SystemClock{},
		eligibility:       AllowAll{},
		publisher:         NopPublisher{},
		newID:             newRequestID,
		cooldown:          DefaultCooldown,
		minDelegation:     *uint256.NewInt(DefaultMinDelegation),
		defaultCommission: DefaultCommissionBps,
	}
	l.reset()

	for _, opt := range opts {
		opt(l)
	}

	if l.pool.LastExchangeRateUpdate.IsZero() {
		l.pool.LastExchangeRateUpdate = l.clock.Now()
	}

	return l
}

func newRequestID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (l *Ledger) reset() {
	l.profiles = make(map[string]*ValidatorProfile)
	l.delegations = make(map[positionKey]*Delegation)
	l.byDelegator = make(map[string]map[string]struct{})
	l.byValidator = make(map[string]map[string]struct{})
	l.requests = make(map[string]*UndelegationRequest)
	l.requestsOf = make(map[string][]string)
	l.pending = make(map[string]struct{})
	l.freeBalances = make(map[string]uint256.Int)
	l.pool = Pool{ExchangeRate: InitialRate()}
	l.version = 0
}

// mutate runs fn under the writer lock and publishes the events it returns
// once the lock is released. fn must not modify state before its last check.
func (l *Ledger) mutate(fn func(now time.Time) ([]Event, error)) error {
	l.mu.Lock()
	events, err := fn(l.clock.Now())
	if err == nil && len(events) > 0 {
		l.version++
	}
	l.mu.Unlock()

	if err != nil {
		return err
	}

	for _, e := range events {
		l.publisher.Publish(e)
	}

	return nil
}

// Version returns a counter that advances with every state change.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.version
}

func (l *Ledger) addPosition(d *Delegation) {
	key := positionKey{delegatorID: d.DelegatorID, validatorID: d.ValidatorID}
	l.delegations[key] = d

	if l.byDelegator[d.DelegatorID] == nil {
		l.byDelegator[d.DelegatorID] = make(map[string]struct{})
	}
	l.byDelegator[d.DelegatorID][d.ValidatorID] = struct{}{}

	if l.byValidator[d.ValidatorID] == nil {
		l.byValidator[d.ValidatorID] = make(map[string]struct{})
	}
	l.byValidator[d.ValidatorID][d.DelegatorID] = struct{}{}
}

func (l *Ledger) removePosition(d *Delegation) {
	delete(l.delegations, positionKey{delegatorID: d.DelegatorID, validatorID: d.ValidatorID})

	delete(l.byDelegator[d.DelegatorID], d.ValidatorID)
	if len(l.byDelegator[d.DelegatorID]) == 0 {
		delete(l.byDelegator, d.DelegatorID)
	}

	delete(l.byValidator[d.ValidatorID], d.DelegatorID)
	if len(l.byValidator[d.ValidatorID]) == 0 {
		delete(l.byValidator, d.ValidatorID)
	}

	if p, ok := l.profiles[d.ValidatorID]; ok && p.DelegatorCount > 0 {
		p.DelegatorCount--
	}
}

// collectIfEmpty drops a position holding nothing. It reports whether the
// position was removed.
func (l *Ledger) collectIfEmpty(d *Delegation) bool {
	if !d.Amount.IsZero() || !d.ReceiptBalance.IsZero() || !d.PendingRewards.IsZero() {
		return false
	}

	l.removePosition(d)

	return true
}

func (l *Ledger) position(delegatorID, validatorID string) (*Delegation, bool) {
	d, ok := l.delegations[positionKey{delegatorID: delegatorID, validatorID: validatorID}]
	return d, ok
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Snapshot returns a consistent deep copy of the ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Snapshot{
		Version:      l.version,
		Pool:         l.pool,
		Profiles:     make([]ValidatorProfile, 0, len(l.profiles)),
		Delegations:  make([]Delegation, 0, len(l.delegations)),
		Requests:     make([]UndelegationRequest, 0, len(l.requests)),
		FreeBalances: make([]FreeBalance, 0, len(l.freeBalances)),
	}

	for _, p := range l.profiles {
		s.Profiles = append(s.Profiles, *p)
	}
	sort.Slice(s.Profiles, func(i, j int) bool {
		return s.Profiles[i].ValidatorID < s.Profiles[j].ValidatorID
	})

	for _, d := range l.delegations {
		s.Delegations = append(s.Delegations, *d)
	}
	sort.Slice(s.Delegations, func(i, j int) bool {
		a, b := s.Delegations[i], s.Delegations[j]
		if a.DelegatorID != b.DelegatorID {
			return a.DelegatorID < b.DelegatorID
		}
		return a.ValidatorID < b.ValidatorID
	})

	for _, r := range l.requests {
		s.Requests = append(s.Requests, *r)
	}
	sort.Slice(s.Requests, func(i, j int) bool {
		a, b := s.Requests[i], s.Requests[j]
		if !a.RequestedAt.Equal(b.RequestedAt) {
			return a.RequestedAt.Before(b.RequestedAt)
		}
		return a.ID < b.ID
	})

	for addr, amount := range l.freeBalances {
		s.FreeBalances = append(s.FreeBalances, FreeBalance{Address: addr, Amount: amount})
	}
	sort.Slice(s.FreeBalances, func(i, j int) bool {
		return s.FreeBalances[i].Address < s.FreeBalances[j].Address
	})

	return s
}

func (l *Ledger) restore(s Snapshot) {
	l.reset()
	l.pool = s.Pool
	if l.pool.ExchangeRate.IsZero() {
		l.pool.ExchangeRate = InitialRate()
	}
	l.version = s.Version

	for _, p := range s.Profiles {
		l.profiles[p.ValidatorID] = &p
	}

	for _, d := range s.Delegations {
		l.addPosition(&d)
	}

	for _, r := range s.Requests {
		l.requests[r.ID] = &r
		l.requestsOf[r.DelegatorID] = append(l.requestsOf[r.DelegatorID], r.ID)
		if r.Status == StatusPending {
			l.pending[r.ID] = struct{}{}
		}
	}

	for _, b := range s.FreeBalances {
		if !b.Amount.IsZero() {
			l.freeBalances[b.Address] = b.Amount
		}
	}
}
