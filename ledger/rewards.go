package ledger

import (
	"time"

	"github.com/holiman/uint256"
)

// DistributeRewards splits totalRewards earned by a validator: the commission
// goes to the validator, the remainder is credited to its delegators in
// proportion to the principal they still hold with it. Principal locked in
// pending undelegation requests earns nothing. Rounding dust stays in the pool.
//
// The exchange rate is recomputed from the pool totals and never decreases.
func (l *Ledger) DistributeRewards(validatorID string, totalRewards uint256.Int) (Distribution, error) {
	var out Distribution

	err := l.mutate(func(now time.Time) ([]Event, error) {
		p, ok := l.profiles[validatorID]
		if !ok {
			return nil, ErrUnknownValidator
		}

		out = Distribution{
			ValidatorID:  validatorID,
			TotalRewards: totalRewards,
			PreviousRate: l.pool.ExchangeRate,
			ExchangeRate: l.pool.ExchangeRate,
		}

		delegators := sortedKeys(l.byValidator[validatorID])
		var active sum
		for _, id := range delegators {
			d, _ := l.position(id, validatorID)
			active.add(d.Amount)
		}
		if active.err != nil {
			return nil, active.err
		}
		if active.total.IsZero() {
			return nil, nil
		}

		commission, err := Commission(totalRewards, p.CommissionRateBps)
		if err != nil {
			return nil, err
		}
		var delegatorRewards uint256.Int
		delegatorRewards.Sub(&totalRewards, &commission)

		shares := make([]Share, 0, len(delegators))
		credited := make([]uint256.Int, 0, len(delegators))
		var distributed uint256.Int
		for _, id := range delegators {
			d, _ := l.position(id, validatorID)
			if d.Amount.IsZero() {
				continue
			}

			share, err := mulDiv(&d.Amount, &delegatorRewards, &active.total)
			if err != nil {
				return nil, err
			}
			pending, err := add(d.PendingRewards, share)
			if err != nil {
				return nil, err
			}
			if distributed, err = add(distributed, share); err != nil {
				return nil, err
			}

			shares = append(shares, Share{DelegatorID: id, Amount: share})
			credited = append(credited, pending)
		}

		dust, err := sub(delegatorRewards, distributed)
		if err != nil {
			return nil, err
		}
		accumulated, err := add(l.pool.RewardsAccumulated, delegatorRewards)
		if err != nil {
			return nil, err
		}
		rewardsDistributed, err := add(p.RewardsDistributed, distributed)
		if err != nil {
			return nil, err
		}
		commissionEarned, err := add(p.CommissionEarned, commission)
		if err != nil {
			return nil, err
		}

		rate := l.pool.ExchangeRate
		if !l.pool.TotalReceiptSupply.IsZero() {
			backing, err := add(l.pool.TotalDelegated, accumulated)
			if err != nil {
				return nil, err
			}
			computed, err := mulDiv(&backing, rateScale, &l.pool.TotalReceiptSupply)
			if err != nil {
				return nil, err
			}
			rate = maxOf(rate, computed)
		}

		for i, s := range shares {
			d, _ := l.position(s.DelegatorID, validatorID)
			d.PendingRewards = credited[i]
		}
		p.RewardsDistributed = rewardsDistributed
		p.CommissionEarned = commissionEarned
		p.UpdatedAt = now
		l.pool.RewardsAccumulated = accumulated
		if !l.pool.TotalReceiptSupply.IsZero() {
			l.pool.ExchangeRate = rate
			l.pool.LastExchangeRateUpdate = now
		}

		out.Commission = commission
		out.DelegatorRewards = delegatorRewards
		out.Distributed = distributed
		out.Dust = dust
		out.Shares = shares
		out.ExchangeRate = l.pool.ExchangeRate

		return []Event{RewardsDistributed{Distribution: out}}, nil
	})

	return out, err
}

// ClaimRewards pays out the pending rewards of a delegator. An empty
// validatorID claims across every position of the delegator.
func (l *Ledger) ClaimRewards(delegatorID, validatorID string) (uint256.Int, error) {
	var total uint256.Int

	err := l.mutate(func(now time.Time) ([]Event, error) {
		var positions []*Delegation
		if validatorID != "" {
			d, ok := l.position(delegatorID, validatorID)
			if !ok {
				return nil, ErrNoDelegation
			}
			positions = append(positions, d)
		} else {
			for _, v := range sortedKeys(l.byDelegator[delegatorID]) {
				d, _ := l.position(delegatorID, v)
				positions = append(positions, d)
			}
		}

		for _, d := range positions {
			var err error
			if total, err = add(total, d.PendingRewards); err != nil {
				return nil, err
			}
		}

		for _, d := range positions {
			d.PendingRewards = uint256.Int{}
			d.LastRewardClaim = now
			l.collectIfEmpty(d)
		}

		if len(positions) == 0 {
			return nil, nil
		}

		return []Event{RewardsClaimed{
			DelegatorID: delegatorID,
			ValidatorID: validatorID,
			Amount:      total,
		}}, nil
	})

	return total, err
}
