package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/screwyprof/liquidstake/pkg/clock"
)

// Sentinel errors for service failures
var (
	ErrSnapshotLoad = errors.New("snapshot load failed")
	ErrSnapshotSave = errors.New("snapshot save failed")
)

// DefaultShutdownSaveTimeout bounds the final snapshot written on shutdown.
const DefaultShutdownSaveTimeout = 10 * time.Second

// Store persists ledger snapshots
// -------------------------------
type Store interface {
	// LoadSnapshot returns the last saved snapshot, or an empty one if none was saved.
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	// SaveSnapshot atomically replaces the stored state.
	SaveSnapshot(ctx context.Context, s Snapshot) error
}

// Load restores a Ledger from the store.
func Load(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	s, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotLoad, err)
	}

	return New(append([]Option{WithSnapshot(s)}, opts...)...), nil
}

// ServiceOption configures the Service
// ------------------------------------
type ServiceOption func(*Service)

// WithServiceClock injects a custom Clock (e.g., for testing)
func WithServiceClock(c Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithSweepInterval sets how often due undelegations are completed
func WithSweepInterval(d time.Duration) ServiceOption {
	return func(s *Service) { s.sweepInterval = d }
}

// Service runs the undelegation sweeper and checkpoints the ledger
// ----------------------------------------------------------------
type Service struct {
	ledger        *Ledger
	store         Store
	clock         Clock
	sweepInterval time.Duration
	savedVersion  uint64
	events        chan Event
}

// NewService constructs a Service around a ledger. The store may be nil, in
// which case the ledger is never checkpointed.
//
// By default, it uses a real clock and a 60s sweep interval.
func NewService(l *Ledger, store Store, opts ...ServiceOption) *Service {
	s := &Service{
		ledger:        l,
		store:         store,
		clock:         clock.SystemClock{},
		sweepInterval: DefaultSweepInterval,
		savedVersion:  l.Version(),
		events:        make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sweeper and returns the events channel and done channel.
// The events channel must be drained, see NewSubscriber.
//
// Shutdown pattern:
//  1. Cancel context to request shutdown: cancel()
//  2. Service writes a final snapshot and closes events channel
//  3. Wait for complete shutdown: <-done
func (s *Service) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(s.events)
		defer close(done)
		s.run(ctx)
	}()
	return s.events, done
}

func (s *Service) run(ctx context.Context) {
	s.events <- ServiceStarted{SweepInterval: s.sweepInterval}

	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownSaveTimeout)
			s.checkpoint(saveCtx)
			cancel()

			s.events <- ServiceShutdown{Reason: ctx.Err()}
			return
		case <-s.clock.After(s.sweepInterval):
			s.sweep(ctx)
		}
	}
}

// sweep completes due undelegations and checkpoints the ledger if it changed.
func (s *Service) sweep(ctx context.Context) {
	completed := s.ledger.SweepDue()

	ids := make([]string, len(completed))
	for i, r := range completed {
		ids[i] = r.ID
	}

	// Always emit sweep completed event
	s.events <- SweepCompleted{Completed: len(completed), RequestIDs: ids}

	s.checkpoint(ctx)
}

func (s *Service) checkpoint(ctx context.Context) {
	if s.store == nil || s.ledger.Version() == s.savedVersion {
		return
	}

	snap := s.ledger.Snapshot()
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.events <- SnapshotError{Err: fmt.Errorf("%w: %w", ErrSnapshotSave, err)}
		return
	}

	s.savedVersion = snap.Version
	s.events <- SnapshotSaved{Version: snap.Version}
}
