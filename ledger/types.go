package ledger

import (
	"time"

	"github.com/holiman/uint256"
)

// Protocol defaults.
const (
	MaxCommissionBps     uint32 = 5_000
	DefaultCommissionBps uint32 = 1_000
	DefaultCooldown             = 7 * 24 * time.Hour
	DefaultSweepInterval        = 60 * time.Second
	DefaultMinDelegation uint64 = 1_000_000
)

// ValidatorProfile holds the per-validator configuration and aggregate stake.
type ValidatorProfile struct {
	ValidatorID        string
	CommissionRateBps  uint32
	TotalDelegated     uint256.Int
	DelegatorCount     uint64
	RewardsDistributed uint256.Int
	CommissionEarned   uint256.Int
	Description        string
	Website            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProfileParams carries the optional fields of a register-or-update call.
// Nil fields keep their current value (or the default on creation).
type ProfileParams struct {
	CommissionRateBps *uint32
	Description       *string
	Website           *string
}

// Delegation is one delegator's position with one validator.
type Delegation struct {
	DelegatorID     string
	ValidatorID     string
	Amount          uint256.Int
	ReceiptBalance  uint256.Int
	PendingRewards  uint256.Int
	DelegatedAt     time.Time
	LastRewardClaim time.Time
}

// UndelegationStatus is the lifecycle state of an undelegation request.
type UndelegationStatus string

const (
	StatusPending   UndelegationStatus = "pending"
	StatusCompleted UndelegationStatus = "completed"
	StatusCancelled UndelegationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s UndelegationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// UndelegationRequest is a time-locked withdrawal of receipt tokens.
//
// Amount is the base value fixed at request time. PrincipalDeducted is the part
// of the position's principal removed by the request, restored on cancel.
type UndelegationRequest struct {
	ID                string
	DelegatorID       string
	ValidatorID       string
	Amount            uint256.Int
	ReceiptAmount     uint256.Int
	PrincipalDeducted uint256.Int
	RequestedAt       time.Time
	AvailableAt       time.Time
	ProcessedAt       time.Time
	Status            UndelegationStatus
}

// Pool is the global liquid staking state.
type Pool struct {
	TotalDelegated         uint256.Int
	TotalReceiptSupply     uint256.Int
	ExchangeRate           uint256.Int
	RewardsAccumulated     uint256.Int
	LastExchangeRateUpdate time.Time
}

// FreeBalance is a transferable receipt balance not locked in a position.
type FreeBalance struct {
	Address string
	Amount  uint256.Int
}

// ReceiptBalance summarises the receipt holdings of an address.
type ReceiptBalance struct {
	Address   string
	Free      uint256.Int
	Locked    uint256.Int
	Total     uint256.Int
	BaseValue uint256.Int
}

// DelegateResult describes the effect of a delegation.
type DelegateResult struct {
	Delegation     Delegation
	ReceiptMinted  uint256.Int
	ExchangeRate   uint256.Int
	SettledRewards uint256.Int
	Created        bool
}

// Share is a single delegator's part of a reward distribution.
type Share struct {
	DelegatorID string
	Amount      uint256.Int
}

// Distribution describes the outcome of a reward distribution.
type Distribution struct {
	ValidatorID      string
	TotalRewards     uint256.Int
	Commission       uint256.Int
	DelegatorRewards uint256.Int
	Distributed      uint256.Int
	Dust             uint256.Int
	Shares           []Share
	PreviousRate     uint256.Int
	ExchangeRate     uint256.Int
}

// DelegationStats is a read-only aggregate view of the ledger.
type DelegationStats struct {
	Pool                 Pool
	ValidatorCount       int
	DelegationCount      int
	DelegatorCount       int
	PendingUndelegations int
	LockedReceipt        uint256.Int
	FreeReceipt          uint256.Int
	PendingReceipt       uint256.Int
}

// Snapshot is a consistent copy of the whole ledger state.
type Snapshot struct {
	Version      uint64
	Pool         Pool
	Profiles     []ValidatorProfile
	Delegations  []Delegation
	Requests     []UndelegationRequest
	FreeBalances []FreeBalance
}

type positionKey struct {
	delegatorID string
	validatorID string
}
