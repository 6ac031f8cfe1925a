package ledger

import (
	"sort"
	"time"
)

// EligibilityOracle decides whether a validator may receive delegations.
type EligibilityOracle interface {
	IsEligibleValidator(validatorID string) bool
}

// AllowAll accepts every validator.
type AllowAll struct{}

// IsEligibleValidator always returns true
func (AllowAll) IsEligibleValidator(string) bool { return true }

// AllowList accepts only the listed validators.
type AllowList map[string]struct{}

// NewAllowList builds an AllowList from validator IDs.
func NewAllowList(ids ...string) AllowList {
	a := make(AllowList, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

// IsEligibleValidator reports whether id is on the list
func (a AllowList) IsEligibleValidator(id string) bool {
	_, ok := a[id]
	return ok
}

// RegisterOrUpdate creates a validator profile or updates the supplied fields of an existing one.
func (l *Ledger) RegisterOrUpdate(validatorID string, params ProfileParams) (ValidatorProfile, error) {
	var out ValidatorProfile

	err := l.mutate(func(now time.Time) ([]Event, error) {
		if validatorID == "" {
			return nil, ErrInvalidID
		}

		if !l.eligibility.IsEligibleValidator(validatorID) {
			return nil, ErrNotEligible
		}

		if params.CommissionRateBps != nil && *params.CommissionRateBps > MaxCommissionBps {
			return nil, ErrInvalidCommission
		}

		p, exists := l.profiles[validatorID]
		if !exists {
			p = l.newProfile(validatorID, now)
			l.profiles[validatorID] = p
		}

		if params.CommissionRateBps != nil {
			p.CommissionRateBps = *params.CommissionRateBps
		}
		if params.Description != nil {
			p.Description = *params.Description
		}
		if params.Website != nil {
			p.Website = *params.Website
		}
		p.UpdatedAt = now

		out = *p

		return []Event{ValidatorRegistered{Profile: out, Created: !exists}}, nil
	})

	return out, err
}

func (l *Ledger) newProfile(validatorID string, now time.Time) *ValidatorProfile {
	return &ValidatorProfile{
		ValidatorID:       validatorID,
		CommissionRateBps: l.defaultCommission,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// GetProfile returns the profile of a validator.
func (l *Ledger) GetProfile(validatorID string) (ValidatorProfile, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.profiles[validatorID]
	if !ok {
		return ValidatorProfile{}, false
	}

	return *p, true
}

// GetAllProfiles returns every validator profile ordered by ID.
func (l *Ledger) GetAllProfiles() []ValidatorProfile {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ValidatorProfile, 0, len(l.profiles))
	for _, p := range l.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidatorID < out[j].ValidatorID })

	return out
}

// GetTopValidatorsByDelegation returns up to limit profiles ordered by total
// delegated stake, largest first. A non-positive limit returns all profiles.
func (l *Ledger) GetTopValidatorsByDelegation(limit int) []ValidatorProfile {
	out := l.GetAllProfiles()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalDelegated.Gt(&out[j].TotalDelegated)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}
