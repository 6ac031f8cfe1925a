package ledger

import (
	"fmt"
	"sort"
)

// GetExchangeRate returns the current pool state.
func (l *Ledger) GetExchangeRate() Pool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.pool
}

// GetDelegationStats returns aggregate counters over the whole ledger.
func (l *Ledger) GetDelegationStats() (DelegationStats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := DelegationStats{
		Pool:                 l.pool,
		ValidatorCount:       len(l.profiles),
		DelegationCount:      len(l.delegations),
		DelegatorCount:       len(l.byDelegator),
		PendingUndelegations: len(l.pending),
	}

	var err error
	for _, d := range l.delegations {
		if s.LockedReceipt, err = add(s.LockedReceipt, d.ReceiptBalance); err != nil {
			return DelegationStats{}, err
		}
	}
	for _, amount := range l.freeBalances {
		if s.FreeReceipt, err = add(s.FreeReceipt, amount); err != nil {
			return DelegationStats{}, err
		}
	}
	for id := range l.pending {
		if s.PendingReceipt, err = add(s.PendingReceipt, l.requests[id].ReceiptAmount); err != nil {
			return DelegationStats{}, err
		}
	}

	return s, nil
}

// CheckInvariants verifies the accounting identities of the ledger:
//
//	supply          == locked receipt + free receipt
//	pool stake      == sum of validator stake
//	validator stake == principal of its positions + principal of its pending requests
//
// Receipt tokens of a pending undelegation request are burned when the
// request is made, so they take no part in the supply identity.
// Commissions must be in range and the indices must agree with the positions.
func (l *Ledger) CheckInvariants() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var receipt, stake sum
	principal := make(map[string]*sum, len(l.profiles))
	principalOf := func(validatorID string) *sum {
		if principal[validatorID] == nil {
			principal[validatorID] = &sum{}
		}
		return principal[validatorID]
	}
	for _, d := range l.delegations {
		receipt.add(d.ReceiptBalance)
		principalOf(d.ValidatorID).add(d.Amount)
		if _, ok := l.byDelegator[d.DelegatorID][d.ValidatorID]; !ok {
			return fmt.Errorf("%w: position %s/%s missing from delegator index", ErrInvariantViolation, d.DelegatorID, d.ValidatorID)
		}
		if _, ok := l.byValidator[d.ValidatorID][d.DelegatorID]; !ok {
			return fmt.Errorf("%w: position %s/%s missing from validator index", ErrInvariantViolation, d.DelegatorID, d.ValidatorID)
		}
	}
	for id := range l.pending {
		r := l.requests[id]
		principalOf(r.ValidatorID).add(r.PrincipalDeducted)
	}
	for _, amount := range l.freeBalances {
		receipt.add(amount)
	}
	if receipt.err != nil {
		return fmt.Errorf("%w: %w", ErrInvariantViolation, receipt.err)
	}
	if !receipt.total.Eq(&l.pool.TotalReceiptSupply) {
		return fmt.Errorf("%w: receipt supply %s, held %s", ErrInvariantViolation,
			l.pool.TotalReceiptSupply.Dec(), receipt.total.Dec())
	}

	ids := make([]string, 0, len(l.profiles))
	for id := range l.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := l.profiles[id]
		stake.add(p.TotalDelegated)
		if p.CommissionRateBps > MaxCommissionBps {
			return fmt.Errorf("%w: validator %s commission %d bps", ErrInvariantViolation, id, p.CommissionRateBps)
		}
		held := principalOf(id)
		if held.err != nil {
			return fmt.Errorf("%w: %w", ErrInvariantViolation, held.err)
		}
		if !held.total.Eq(&p.TotalDelegated) {
			return fmt.Errorf("%w: validator %s stake %s, principal held %s", ErrInvariantViolation,
				id, p.TotalDelegated.Dec(), held.total.Dec())
		}
		if p.DelegatorCount != uint64(len(l.byValidator[id])) {
			return fmt.Errorf("%w: validator %s counts %d delegators, holds %d", ErrInvariantViolation,
				id, p.DelegatorCount, len(l.byValidator[id]))
		}
	}
	if stake.err != nil {
		return fmt.Errorf("%w: %w", ErrInvariantViolation, stake.err)
	}
	if !stake.total.Eq(&l.pool.TotalDelegated) {
		return fmt.Errorf("%w: pool stake %s, validator stake %s", ErrInvariantViolation,
			l.pool.TotalDelegated.Dec(), stake.total.Dec())
	}

	if l.pool.ExchangeRate.IsZero() {
		return fmt.Errorf("%w: zero exchange rate", ErrInvariantViolation)
	}

	return nil
}
