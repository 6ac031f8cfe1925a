package ledger

import (
	"time"

	"github.com/holiman/uint256"
)

// WithdrawFromDelegation moves receipt tokens out of a position into the
// delegator's free, transferable balance. The principal stays delegated.
func (l *Ledger) WithdrawFromDelegation(delegatorID, validatorID string, amount uint256.Int) error {
	return l.mutate(func(time.Time) ([]Event, error) {
		if amount.IsZero() {
			return nil, ErrInvalidAmount
		}

		d, ok := l.position(delegatorID, validatorID)
		if !ok {
			return nil, ErrNoDelegation
		}

		if amount.Gt(&d.ReceiptBalance) {
			return nil, ErrInsufficientReceipt
		}

		free, err := add(l.freeBalances[delegatorID], amount)
		if err != nil {
			return nil, err
		}

		d.ReceiptBalance.Sub(&d.ReceiptBalance, &amount)
		l.freeBalances[delegatorID] = free

		return []Event{ReceiptWithdrawn{
			DelegatorID: delegatorID,
			ValidatorID: validatorID,
			Amount:      amount,
		}}, nil
	})
}

// TransferReceipt moves free receipt tokens between addresses.
func (l *Ledger) TransferReceipt(from, to string, amount uint256.Int) error {
	return l.mutate(func(time.Time) ([]Event, error) {
		if from == "" || to == "" {
			return nil, ErrInvalidID
		}

		if amount.IsZero() {
			return nil, ErrInvalidAmount
		}

		balance := l.freeBalances[from]
		if amount.Gt(&balance) {
			return nil, ErrInsufficientFreeBalance
		}

		if from == to {
			return nil, nil
		}

		credited, err := add(l.freeBalances[to], amount)
		if err != nil {
			return nil, err
		}

		balance.Sub(&balance, &amount)
		if balance.IsZero() {
			delete(l.freeBalances, from)
		} else {
			l.freeBalances[from] = balance
		}
		l.freeBalances[to] = credited

		return []Event{ReceiptTransferred{From: from, To: to, Amount: amount}}, nil
	})
}

// GetReceiptBalance returns the free and locked receipt holdings of an
// address and their base value at the current exchange rate.
func (l *Ledger) GetReceiptBalance(address string) (ReceiptBalance, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b := ReceiptBalance{Address: address, Free: l.freeBalances[address]}

	var err error
	for v := range l.byDelegator[address] {
		d, _ := l.position(address, v)
		if b.Locked, err = add(b.Locked, d.ReceiptBalance); err != nil {
			return ReceiptBalance{}, err
		}
	}

	if b.Total, err = add(b.Free, b.Locked); err != nil {
		return ReceiptBalance{}, err
	}

	if b.BaseValue, err = ToBase(b.Total, l.pool.ExchangeRate); err != nil {
		return ReceiptBalance{}, err
	}

	return b, nil
}
