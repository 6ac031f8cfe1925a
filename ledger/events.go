package ledger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
)

// Event represents a ledger or service event
// ------------------------------------------
type Event any

// Ledger events, published after the state change is committed.

type ValidatorRegistered struct {
	Profile ValidatorProfile
	Created bool
}

type Delegated struct {
	DelegatorID    string
	ValidatorID    string
	Amount         uint256.Int
	ReceiptMinted  uint256.Int
	SettledRewards uint256.Int
	ExchangeRate   uint256.Int
}

type UndelegationRequested struct {
	Request UndelegationRequest
}

type UndelegationCompleted struct {
	Request        UndelegationRequest
	PositionClosed bool
	Swept          bool
}

type UndelegationCancelled struct {
	Request          UndelegationRequest
	PositionReopened bool
}

type ReceiptWithdrawn struct {
	DelegatorID string
	ValidatorID string
	Amount      uint256.Int
}

type ReceiptTransferred struct {
	From   string
	To     string
	Amount uint256.Int
}

type RewardsDistributed struct {
	Distribution Distribution
}

type RewardsClaimed struct {
	DelegatorID string
	ValidatorID string // empty when claimed across all positions
	Amount      uint256.Int
}

// Service lifecycle events.

type ServiceStarted struct {
	SweepInterval time.Duration
}

type SweepCompleted struct {
	Completed  int
	RequestIDs []string
}

type SnapshotSaved struct {
	Version uint64
}

type SnapshotError struct {
	Err error
}

type ServiceShutdown struct {
	Reason error // Why shutdown occurred (ctx.Err())
}

// EventName returns a stable snake_case name for an event, used for logs and metrics.
func EventName(e Event) string {
	switch e.(type) {
	case ValidatorRegistered:
		return "validator_registered"
	case Delegated:
		return "delegated"
	case UndelegationRequested:
		return "undelegation_requested"
	case UndelegationCompleted:
		return "undelegation_completed"
	case UndelegationCancelled:
		return "undelegation_cancelled"
	case ReceiptWithdrawn:
		return "receipt_withdrawn"
	case ReceiptTransferred:
		return "receipt_transferred"
	case RewardsDistributed:
		return "rewards_distributed"
	case RewardsClaimed:
		return "rewards_claimed"
	case ServiceStarted:
		return "service_started"
	case SweepCompleted:
		return "sweep_completed"
	case SnapshotSaved:
		return "snapshot_saved"
	case SnapshotError:
		return "snapshot_error"
	case ServiceShutdown:
		return "service_shutdown"
	default:
		return "unknown"
	}
}

// Publisher receives ledger events. Publish must not block.
type Publisher interface {
	Publish(e Event)
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(Event) {}

// ChannelPublisher delivers events to a buffered channel and drops them when
// the buffer is full, so a slow consumer never stalls the ledger.
type ChannelPublisher struct {
	mu      sync.RWMutex
	events  chan Event
	closed  bool
	dropped atomic.Uint64
}

// NewChannelPublisher creates a publisher with the given buffer size.
func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{events: make(chan Event, buffer)}
}

// Publish enqueues e or counts it as dropped
func (p *ChannelPublisher) Publish(e Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		return
	}

	select {
	case p.events <- e:
	default:
		p.dropped.Add(1)
	}
}

// Events returns the delivery channel. It is closed by Close.
func (p *ChannelPublisher) Events() <-chan Event {
	return p.events
}

// Dropped returns the number of events lost to a full buffer or a closed publisher.
func (p *ChannelPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close stops delivery and closes the events channel.
func (p *ChannelPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.events)
	}
}
