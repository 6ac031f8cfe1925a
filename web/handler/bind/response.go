package bind

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/web/api"
)

// ValidatorResponse binds a profile to its API form
func ValidatorResponse(p ledger.ValidatorProfile) api.Validator {
	return api.Validator{
		ValidatorID:        p.ValidatorID,
		CommissionRateBps:  p.CommissionRateBps,
		TotalDelegated:     p.TotalDelegated.Dec(),
		DelegatorCount:     p.DelegatorCount,
		RewardsDistributed: p.RewardsDistributed.Dec(),
		CommissionEarned:   p.CommissionEarned.Dec(),
		Description:        p.Description,
		Website:            p.Website,
		CreatedAt:          formatTime(p.CreatedAt),
		UpdatedAt:          formatTime(p.UpdatedAt),
	}
}

// ValidatorsResponse binds profiles to the list response
func ValidatorsResponse(profiles []ledger.ValidatorProfile) api.ListResponse[api.Validator] {
	return listOf(profiles, ValidatorResponse)
}

// DelegationResponse binds a position to its API form
func DelegationResponse(d ledger.Delegation) api.Delegation {
	return api.Delegation{
		DelegatorID:     d.DelegatorID,
		ValidatorID:     d.ValidatorID,
		Amount:          d.Amount.Dec(),
		ReceiptBalance:  d.ReceiptBalance.Dec(),
		PendingRewards:  d.PendingRewards.Dec(),
		DelegatedAt:     formatTime(d.DelegatedAt),
		LastRewardClaim: formatTime(d.LastRewardClaim),
	}
}

// DelegationsResponse binds positions to the list response
func DelegationsResponse(delegations []ledger.Delegation) api.ListResponse[api.Delegation] {
	return listOf(delegations, DelegationResponse)
}

// DelegatorsResponse wraps delegator ids in the list response
func DelegatorsResponse(ids []string) api.ListResponse[string] {
	if ids == nil {
		ids = []string{}
	}
	return api.ListResponse[string]{Data: ids}
}

// DelegateResponse binds the outcome of a delegation
func DelegateResponse(res ledger.DelegateResult) api.DelegateResponse {
	return api.DelegateResponse{
		Delegation:     DelegationResponse(res.Delegation),
		ReceiptMinted:  res.ReceiptMinted.Dec(),
		ExchangeRate:   res.ExchangeRate.Dec(),
		SettledRewards: res.SettledRewards.Dec(),
	}
}

// UndelegationResponse binds a request to its API form
func UndelegationResponse(r ledger.UndelegationRequest) api.Undelegation {
	u := api.Undelegation{
		ID:            r.ID,
		DelegatorID:   r.DelegatorID,
		ValidatorID:   r.ValidatorID,
		Amount:        r.Amount.Dec(),
		ReceiptAmount: r.ReceiptAmount.Dec(),
		RequestedAt:   formatTime(r.RequestedAt),
		AvailableAt:   formatTime(r.AvailableAt),
		Status:        string(r.Status),
	}
	if !r.ProcessedAt.IsZero() {
		u.ProcessedAt = formatTime(r.ProcessedAt)
	}
	return u
}

// UndelegationsResponse binds requests to the list response
func UndelegationsResponse(requests []ledger.UndelegationRequest) api.ListResponse[api.Undelegation] {
	return listOf(requests, UndelegationResponse)
}

// WithdrawalResponse echoes a withdrawal
func WithdrawalResponse(s Stake) api.Withdrawal {
	return api.Withdrawal{DelegatorID: s.DelegatorID, ValidatorID: s.ValidatorID, Amount: s.Amount.Dec()}
}

// TransferResponse echoes a transfer
func TransferResponse(t Transfer) api.Transfer {
	return api.Transfer{From: t.From, To: t.To, Amount: t.Amount.Dec()}
}

// ReceiptBalanceResponse binds an address's receipt holdings
func ReceiptBalanceResponse(b ledger.ReceiptBalance) api.ReceiptBalance {
	return api.ReceiptBalance{
		Address:   b.Address,
		Free:      b.Free.Dec(),
		Locked:    b.Locked.Dec(),
		Total:     b.Total.Dec(),
		BaseValue: b.BaseValue.Dec(),
	}
}

// DistributionResponse binds a reward distribution breakdown
func DistributionResponse(d ledger.Distribution) api.Distribution {
	shares := make([]api.Share, len(d.Shares))
	for i, s := range d.Shares {
		shares[i] = api.Share{DelegatorID: s.DelegatorID, Amount: s.Amount.Dec()}
	}

	return api.Distribution{
		ValidatorID:      d.ValidatorID,
		TotalRewards:     d.TotalRewards.Dec(),
		Commission:       d.Commission.Dec(),
		DelegatorRewards: d.DelegatorRewards.Dec(),
		Distributed:      d.Distributed.Dec(),
		Dust:             d.Dust.Dec(),
		Shares:           shares,
		PreviousRate:     d.PreviousRate.Dec(),
		ExchangeRate:     d.ExchangeRate.Dec(),
	}
}

// ClaimResponse binds a reward claim
func ClaimResponse(delegatorID, validatorID string, claimed uint256.Int) api.Claim {
	return api.Claim{DelegatorID: delegatorID, ValidatorID: validatorID, Claimed: claimed.Dec()}
}

// PoolResponse binds the pool state
func PoolResponse(p ledger.Pool) api.Pool {
	return api.Pool{
		TotalDelegated:         p.TotalDelegated.Dec(),
		TotalReceiptSupply:     p.TotalReceiptSupply.Dec(),
		ExchangeRate:           p.ExchangeRate.Dec(),
		RewardsAccumulated:     p.RewardsAccumulated.Dec(),
		LastExchangeRateUpdate: formatTime(p.LastExchangeRateUpdate),
	}
}

// StatsResponse binds the aggregate ledger view
func StatsResponse(s ledger.DelegationStats) api.Stats {
	return api.Stats{
		Pool:                 PoolResponse(s.Pool),
		ValidatorCount:       s.ValidatorCount,
		DelegationCount:      s.DelegationCount,
		DelegatorCount:       s.DelegatorCount,
		PendingUndelegations: s.PendingUndelegations,
		LockedReceipt:        s.LockedReceipt.Dec(),
		FreeReceipt:          s.FreeReceipt.Dec(),
		PendingReceipt:       s.PendingReceipt.Dec(),
	}
}

func listOf[T, R any](items []T, fn func(T) R) api.ListResponse[R] {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return api.ListResponse[R]{Data: out}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
