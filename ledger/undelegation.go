package ledger

import (
	"sort"
	"time"

	"github.com/holiman/uint256"
)

// RequestUndelegate starts a cooldown for receiptAmount receipt tokens of a position.
// The base value is fixed at the current exchange rate; the receipt tokens are
// burned immediately and the principal leaves the pool when the request completes.
func (l *Ledger) RequestUndelegate(delegatorID, validatorID string, receiptAmount uint256.Int) (UndelegationRequest, error) {
	var out UndelegationRequest

	err := l.mutate(func(now time.Time) ([]Event, error) {
		if receiptAmount.IsZero() {
			return nil, ErrInvalidAmount
		}

		d, ok := l.position(delegatorID, validatorID)
		if !ok {
			return nil, ErrNoDelegation
		}

		if receiptAmount.Gt(&d.ReceiptBalance) {
			return nil, ErrInsufficientReceipt
		}

		baseValue, err := ToBase(receiptAmount, l.pool.ExchangeRate)
		if err != nil {
			return nil, err
		}

		supply, err := sub(l.pool.TotalReceiptSupply, receiptAmount)
		if err != nil {
			return nil, err
		}

		deducted := minOf(baseValue, d.Amount)

		var receipt uint256.Int
		receipt.Sub(&d.ReceiptBalance, &receiptAmount)
		var principal uint256.Int
		principal.Sub(&d.Amount, &deducted)

		r := &UndelegationRequest{
			ID:                l.newID(),
			DelegatorID:       delegatorID,
			ValidatorID:       validatorID,
			Amount:            baseValue,
			ReceiptAmount:     receiptAmount,
			PrincipalDeducted: deducted,
			RequestedAt:       now,
			AvailableAt:       now.Add(l.cooldown),
			Status:            StatusPending,
		}

		d.ReceiptBalance = receipt
		d.Amount = principal
		l.pool.TotalReceiptSupply = supply

		l.requests[r.ID] = r
		l.requestsOf[delegatorID] = append(l.requestsOf[delegatorID], r.ID)
		l.pending[r.ID] = struct{}{}

		out = *r

		return []Event{UndelegationRequested{Request: out}}, nil
	})

	return out, err
}

// CompleteUndelegate finalises a pending request whose cooldown has elapsed.
func (l *Ledger) CompleteUndelegate(requestID string) (UndelegationRequest, error) {
	var out UndelegationRequest

	err := l.mutate(func(now time.Time) ([]Event, error) {
		r, ok := l.requests[requestID]
		if !ok {
			return nil, ErrRequestNotFound
		}

		if r.Status != StatusPending {
			return nil, ErrAlreadyProcessed
		}

		if now.Before(r.AvailableAt) {
			return nil, ErrCooldownActive
		}

		ev := l.complete(r, now)
		out = *r

		return []Event{ev}, nil
	})

	return out, err
}

func (l *Ledger) complete(r *UndelegationRequest, now time.Time) UndelegationCompleted {
	// Principal leaves the validator stake, the earned part above it leaves
	// the accumulated rewards.
	released := r.PrincipalDeducted
	if p, ok := l.profiles[r.ValidatorID]; ok {
		released = minOf(released, p.TotalDelegated)
		p.TotalDelegated = subFloor(p.TotalDelegated, released)
		p.UpdatedAt = now
	}
	l.pool.TotalDelegated = subFloor(l.pool.TotalDelegated, released)
	l.pool.RewardsAccumulated = subFloor(l.pool.RewardsAccumulated, subFloor(r.Amount, released))

	r.Status = StatusCompleted
	r.ProcessedAt = now
	delete(l.pending, r.ID)

	closed := false
	if d, ok := l.position(r.DelegatorID, r.ValidatorID); ok {
		closed = l.collectIfEmpty(d)
	}

	return UndelegationCompleted{Request: *r, PositionClosed: closed}
}

// CancelUndelegate reverts a pending request, restoring the receipt tokens and
// principal of the position exactly. Only the delegator who made the request may cancel it.
func (l *Ledger) CancelUndelegate(requestID, callerID string) (UndelegationRequest, error) {
	var out UndelegationRequest

	err := l.mutate(func(now time.Time) ([]Event, error) {
		r, ok := l.requests[requestID]
		if !ok {
			return nil, ErrRequestNotFound
		}

		if r.DelegatorID != callerID {
			return nil, ErrUnauthorized
		}

		if r.Status != StatusPending {
			return nil, ErrAlreadyProcessed
		}

		supply, err := add(l.pool.TotalReceiptSupply, r.ReceiptAmount)
		if err != nil {
			return nil, err
		}

		d, hasPosition := l.position(r.DelegatorID, r.ValidatorID)
		next := Delegation{
			DelegatorID:     r.DelegatorID,
			ValidatorID:     r.ValidatorID,
			DelegatedAt:     now,
			LastRewardClaim: now,
		}
		if hasPosition {
			next = *d
		}
		if next.ReceiptBalance, err = add(next.ReceiptBalance, r.ReceiptAmount); err != nil {
			return nil, err
		}
		if next.Amount, err = add(next.Amount, r.PrincipalDeducted); err != nil {
			return nil, err
		}

		if hasPosition {
			*d = next
		} else {
			l.addPosition(&next)
			if p, ok := l.profiles[r.ValidatorID]; ok {
				p.DelegatorCount++
			}
		}
		l.pool.TotalReceiptSupply = supply

		r.Status = StatusCancelled
		r.ProcessedAt = now
		delete(l.pending, r.ID)

		out = *r

		return []Event{UndelegationCancelled{Request: out, PositionReopened: !hasPosition}}, nil
	})

	return out, err
}

// SweepDue completes every pending request whose cooldown has elapsed and
// returns them in the order they became available.
func (l *Ledger) SweepDue() []UndelegationRequest {
	var out []UndelegationRequest

	// Sweeping cannot fail: every due pending request is completable.
	_ = l.mutate(func(now time.Time) ([]Event, error) {
		due := make([]*UndelegationRequest, 0)
		for id := range l.pending {
			r := l.requests[id]
			if !now.Before(r.AvailableAt) {
				due = append(due, r)
			}
		}
		sort.Slice(due, func(i, j int) bool {
			if !due[i].AvailableAt.Equal(due[j].AvailableAt) {
				return due[i].AvailableAt.Before(due[j].AvailableAt)
			}
			return due[i].ID < due[j].ID
		})

		events := make([]Event, 0, len(due))
		for _, r := range due {
			ev := l.complete(r, now)
			ev.Swept = true
			events = append(events, ev)
			out = append(out, *r)
		}

		return events, nil
	})

	return out
}

// GetUndelegationRequests returns the requests of a delegator, newest first.
// An empty status returns requests in every state.
func (l *Ledger) GetUndelegationRequests(delegatorID string, status UndelegationStatus) []UndelegationRequest {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.requestsOf[delegatorID]
	out := make([]UndelegationRequest, 0, len(ids))
	for _, id := range ids {
		r := l.requests[id]
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out
}

// GetUndelegationRequest returns a single request by ID.
func (l *Ledger) GetUndelegationRequest(requestID string) (UndelegationRequest, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.requests[requestID]
	if !ok {
		return UndelegationRequest{}, false
	}

	return *r, true
}
