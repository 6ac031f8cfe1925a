package ledger

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
)

// Delegate locks amount base units with a validator and mints receipt tokens
// at the current exchange rate. Unknown validators are registered with the
// default commission if the eligibility oracle accepts them.
//
// Topping up an existing position settles its pending rewards: they are
// returned in the result and the claim checkpoint moves to now.
func (l *Ledger) Delegate(delegatorID, validatorID string, amount uint256.Int) (DelegateResult, error) {
	var out DelegateResult

	err := l.mutate(func(now time.Time) ([]Event, error) {
		if delegatorID == "" || validatorID == "" {
			return nil, ErrInvalidID
		}

		if amount.IsZero() {
			return nil, ErrInvalidAmount
		}

		if amount.Lt(&l.minDelegation) {
			return nil, fmt.Errorf("%w: %s < %s", ErrBelowMinimum, amount.Dec(), l.minDelegation.Dec())
		}

		profile, exists := l.profiles[validatorID]
		if !exists {
			if !l.eligibility.IsEligibleValidator(validatorID) {
				return nil, ErrNotEligible
			}
			profile = l.newProfile(validatorID, now)
		}

		minted, err := ToReceipt(amount, l.pool.ExchangeRate)
		if err != nil {
			return nil, err
		}
		if minted.IsZero() {
			return nil, fmt.Errorf("%w: amount mints no receipt at current rate", ErrBelowMinimum)
		}

		poolDelegated, err := add(l.pool.TotalDelegated, amount)
		if err != nil {
			return nil, err
		}
		supply, err := add(l.pool.TotalReceiptSupply, minted)
		if err != nil {
			return nil, err
		}
		validatorDelegated, err := add(profile.TotalDelegated, amount)
		if err != nil {
			return nil, err
		}

		d, hasPosition := l.position(delegatorID, validatorID)
		next := Delegation{
			DelegatorID:     delegatorID,
			ValidatorID:     validatorID,
			DelegatedAt:     now,
			LastRewardClaim: now,
		}
		if hasPosition {
			next = *d
			next.LastRewardClaim = now
		}
		if next.Amount, err = add(next.Amount, amount); err != nil {
			return nil, err
		}
		if next.ReceiptBalance, err = add(next.ReceiptBalance, minted); err != nil {
			return nil, err
		}
		settled := next.PendingRewards
		next.PendingRewards = uint256.Int{}

		if !exists {
			l.profiles[validatorID] = profile
		}
		profile.TotalDelegated = validatorDelegated
		profile.UpdatedAt = now
		l.pool.TotalDelegated = poolDelegated
		l.pool.TotalReceiptSupply = supply

		if hasPosition {
			*d = next
		} else {
			d = &next
			l.addPosition(d)
			profile.DelegatorCount++
		}

		out = DelegateResult{
			Delegation:     *d,
			ReceiptMinted:  minted,
			ExchangeRate:   l.pool.ExchangeRate,
			SettledRewards: settled,
			Created:        !hasPosition,
		}

		events := make([]Event, 0, 2)
		if !exists {
			events = append(events, ValidatorRegistered{Profile: *profile, Created: true})
		}
		events = append(events, Delegated{
			DelegatorID:    delegatorID,
			ValidatorID:    validatorID,
			Amount:         amount,
			ReceiptMinted:  minted,
			SettledRewards: settled,
			ExchangeRate:   l.pool.ExchangeRate,
		})

		return events, nil
	})

	return out, err
}

// GetDelegation returns the position of delegatorID with validatorID.
func (l *Ledger) GetDelegation(delegatorID, validatorID string) (Delegation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, ok := l.position(delegatorID, validatorID)
	if !ok {
		return Delegation{}, false
	}

	return *d, true
}

// GetDelegatorDelegations returns all positions of a delegator ordered by validator ID.
func (l *Ledger) GetDelegatorDelegations(delegatorID string) []Delegation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	validators := sortedKeys(l.byDelegator[delegatorID])
	out := make([]Delegation, 0, len(validators))
	for _, v := range validators {
		d, _ := l.position(delegatorID, v)
		out = append(out, *d)
	}

	return out
}

// GetValidatorDelegators returns the IDs of everyone holding a position with a validator.
func (l *Ledger) GetValidatorDelegators(validatorID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return sortedKeys(l.byValidator[validatorID])
}
