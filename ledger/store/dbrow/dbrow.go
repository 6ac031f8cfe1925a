// Package dbrow maps ledger state to and from database rows
package dbrow

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/screwyprof/liquidstake/ledger"
)

// Sentinel errors for row conversion
var (
	ErrNullAmount     = errors.New("amount is NULL")
	ErrInvalidAmount  = errors.New("amount is not a non-negative integer")
	ErrAmountOverflow = errors.New("amount exceeds 256 bits")
	ErrInvalidStatus  = errors.New("unknown undelegation status")
)

// Validator represents a validators row
type Validator struct {
	ValidatorID        string         `db:"validator_id"`
	CommissionRateBps  int32          `db:"commission_rate_bps"`
	TotalDelegated     pgtype.Numeric `db:"total_delegated"`
	DelegatorCount     int64          `db:"delegator_count"`
	RewardsDistributed pgtype.Numeric `db:"rewards_distributed"`
	CommissionEarned   pgtype.Numeric `db:"commission_earned"`
	Description        string         `db:"description"`
	Website            string         `db:"website"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// Delegation represents a delegations row
type Delegation struct {
	DelegatorID     string         `db:"delegator_id"`
	ValidatorID     string         `db:"validator_id"`
	Amount          pgtype.Numeric `db:"amount"`
	ReceiptBalance  pgtype.Numeric `db:"receipt_balance"`
	PendingRewards  pgtype.Numeric `db:"pending_rewards"`
	DelegatedAt     time.Time      `db:"delegated_at"`
	LastRewardClaim time.Time      `db:"last_reward_claim"`
}

// UndelegationRequest represents an undelegation_requests row
type UndelegationRequest struct {
	ID                string             `db:"id"`
	DelegatorID       string             `db:"delegator_id"`
	ValidatorID       string             `db:"validator_id"`
	Amount            pgtype.Numeric     `db:"amount"`
	ReceiptAmount     pgtype.Numeric     `db:"receipt_amount"`
	PrincipalDeducted pgtype.Numeric     `db:"principal_deducted"`
	RequestedAt       time.Time          `db:"requested_at"`
	AvailableAt       time.Time          `db:"available_at"`
	ProcessedAt       pgtype.Timestamptz `db:"processed_at"`
	Status            string             `db:"status"`
}

// FreeBalance represents a free_balances row
type FreeBalance struct {
	Address string         `db:"address"`
	Amount  pgtype.Numeric `db:"amount"`
}

// PoolState represents the single pool_state row
type PoolState struct {
	Version                int64          `db:"version"`
	TotalDelegated         pgtype.Numeric `db:"total_delegated"`
	TotalReceiptSupply     pgtype.Numeric `db:"total_receipt_supply"`
	ExchangeRate           pgtype.Numeric `db:"exchange_rate"`
	RewardsAccumulated     pgtype.Numeric `db:"rewards_accumulated"`
	LastExchangeRateUpdate time.Time      `db:"last_exchange_rate_update"`
}

// Column lists in CopyFrom order
var (
	ValidatorColumns = []string{
		"validator_id", "commission_rate_bps", "total_delegated", "delegator_count",
		"rewards_distributed", "commission_earned", "description", "website", "created_at", "updated_at",
	}
	DelegationColumns = []string{
		"delegator_id", "validator_id", "amount", "receipt_balance", "pending_rewards",
		"delegated_at", "last_reward_claim",
	}
	UndelegationRequestColumns = []string{
		"id", "delegator_id", "validator_id", "amount", "receipt_amount", "principal_deducted",
		"requested_at", "available_at", "processed_at", "status",
	}
	FreeBalanceColumns = []string{"address", "amount"}
)

// Numeric converts an amount to a NUMERIC(78,0) value
func Numeric(u uint256.Int) pgtype.Numeric {
	return pgtype.Numeric{Int: u.ToBig(), Exp: 0, Valid: true}
}

// Amount converts a NUMERIC value back to an amount
func Amount(n pgtype.Numeric) (uint256.Int, error) {
	if !n.Valid {
		return uint256.Int{}, ErrNullAmount
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return uint256.Int{}, ErrInvalidAmount
	}

	b := new(big.Int).Set(n.Int)
	switch {
	case n.Exp > 0:
		b.Mul(b, pow10(n.Exp))
	case n.Exp < 0:
		var rem big.Int
		b.QuoRem(b, pow10(-n.Exp), &rem)
		if rem.Sign() != 0 {
			return uint256.Int{}, fmt.Errorf("%w: fractional value", ErrInvalidAmount)
		}
	}

	if b.Sign() < 0 {
		return uint256.Int{}, fmt.Errorf("%w: negative value", ErrInvalidAmount)
	}

	u, overflow := uint256.FromBig(b)
	if overflow {
		return uint256.Int{}, ErrAmountOverflow
	}

	return *u, nil
}

func pow10(exp int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// ValidatorsToRows converts profiles to [][]any for pgx.CopyFromRows
func ValidatorsToRows(profiles []ledger.ValidatorProfile) [][]any {
	rows := make([][]any, len(profiles))
	for i, p := range profiles {
		rows[i] = []any{
			p.ValidatorID,
			int32(p.CommissionRateBps),
			Numeric(p.TotalDelegated),
			int64(p.DelegatorCount),
			Numeric(p.RewardsDistributed),
			Numeric(p.CommissionEarned),
			p.Description,
			p.Website,
			p.CreatedAt,
			p.UpdatedAt,
		}
	}
	return rows
}

// DelegationsToRows converts positions to [][]any for pgx.CopyFromRows
func DelegationsToRows(delegations []ledger.Delegation) [][]any {
	rows := make([][]any, len(delegations))
	for i, d := range delegations {
		rows[i] = []any{
			d.DelegatorID,
			d.ValidatorID,
			Numeric(d.Amount),
			Numeric(d.ReceiptBalance),
			Numeric(d.PendingRewards),
			d.DelegatedAt,
			d.LastRewardClaim,
		}
	}
	return rows
}

// UndelegationRequestsToRows converts requests to [][]any for pgx.CopyFromRows
func UndelegationRequestsToRows(requests []ledger.UndelegationRequest) [][]any {
	rows := make([][]any, len(requests))
	for i, r := range requests {
		rows[i] = []any{
			r.ID,
			r.DelegatorID,
			r.ValidatorID,
			Numeric(r.Amount),
			Numeric(r.ReceiptAmount),
			Numeric(r.PrincipalDeducted),
			r.RequestedAt,
			r.AvailableAt,
			nullableTime(r.ProcessedAt),
			string(r.Status),
		}
	}
	return rows
}

// FreeBalancesToRows converts free balances to [][]any for pgx.CopyFromRows
func FreeBalancesToRows(balances []ledger.FreeBalance) [][]any {
	rows := make([][]any, len(balances))
	for i, b := range balances {
		rows[i] = []any{b.Address, Numeric(b.Amount)}
	}
	return rows
}

// FromPool converts the pool to its row
func FromPool(version uint64, p ledger.Pool) PoolState {
	return PoolState{
		Version:                int64(version),
		TotalDelegated:         Numeric(p.TotalDelegated),
		TotalReceiptSupply:     Numeric(p.TotalReceiptSupply),
		ExchangeRate:           Numeric(p.ExchangeRate),
		RewardsAccumulated:     Numeric(p.RewardsAccumulated),
		LastExchangeRateUpdate: p.LastExchangeRateUpdate,
	}
}

// amounts converts several numeric columns, stopping at the first failure
type amounts struct {
	err error
}

func (a *amounts) get(column string, n pgtype.Numeric) uint256.Int {
	if a.err != nil {
		return uint256.Int{}
	}
	u, err := Amount(n)
	if err != nil {
		a.err = fmt.Errorf("%s: %w", column, err)
	}
	return u
}

// ToPool converts the row to the ledger pool
func (r PoolState) ToPool() (ledger.Pool, error) {
	var a amounts
	p := ledger.Pool{
		TotalDelegated:         a.get("total_delegated", r.TotalDelegated),
		TotalReceiptSupply:     a.get("total_receipt_supply", r.TotalReceiptSupply),
		ExchangeRate:           a.get("exchange_rate", r.ExchangeRate),
		RewardsAccumulated:     a.get("rewards_accumulated", r.RewardsAccumulated),
		LastExchangeRateUpdate: r.LastExchangeRateUpdate.UTC(),
	}
	return p, a.err
}

// ToProfile converts the row to a validator profile
func (r Validator) ToProfile() (ledger.ValidatorProfile, error) {
	var a amounts
	p := ledger.ValidatorProfile{
		ValidatorID:        r.ValidatorID,
		CommissionRateBps:  uint32(r.CommissionRateBps),
		TotalDelegated:     a.get("total_delegated", r.TotalDelegated),
		DelegatorCount:     uint64(r.DelegatorCount),
		RewardsDistributed: a.get("rewards_distributed", r.RewardsDistributed),
		CommissionEarned:   a.get("commission_earned", r.CommissionEarned),
		Description:        r.Description,
		Website:            r.Website,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
	return p, a.err
}

// ToDelegation converts the row to a position
func (r Delegation) ToDelegation() (ledger.Delegation, error) {
	var a amounts
	d := ledger.Delegation{
		DelegatorID:     r.DelegatorID,
		ValidatorID:     r.ValidatorID,
		Amount:          a.get("amount", r.Amount),
		ReceiptBalance:  a.get("receipt_balance", r.ReceiptBalance),
		PendingRewards:  a.get("pending_rewards", r.PendingRewards),
		DelegatedAt:     r.DelegatedAt.UTC(),
		LastRewardClaim: r.LastRewardClaim.UTC(),
	}
	return d, a.err
}

// ToRequest converts the row to an undelegation request
func (r UndelegationRequest) ToRequest() (ledger.UndelegationRequest, error) {
	status := ledger.UndelegationStatus(r.Status)
	if !status.Valid() {
		return ledger.UndelegationRequest{}, fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}

	var a amounts
	req := ledger.UndelegationRequest{
		ID:                r.ID,
		DelegatorID:       r.DelegatorID,
		ValidatorID:       r.ValidatorID,
		Amount:            a.get("amount", r.Amount),
		ReceiptAmount:     a.get("receipt_amount", r.ReceiptAmount),
		PrincipalDeducted: a.get("principal_deducted", r.PrincipalDeducted),
		RequestedAt:       r.RequestedAt.UTC(),
		AvailableAt:       r.AvailableAt.UTC(),
		Status:            status,
	}
	if r.ProcessedAt.Valid {
		req.ProcessedAt = r.ProcessedAt.Time.UTC()
	}
	return req, a.err
}

// ToFreeBalance converts the row to a free balance
func (r FreeBalance) ToFreeBalance() (ledger.FreeBalance, error) {
	amount, err := Amount(r.Amount)
	if err != nil {
		return ledger.FreeBalance{}, fmt.Errorf("amount: %w", err)
	}
	return ledger.FreeBalance{Address: r.Address, Amount: amount}, nil
}
