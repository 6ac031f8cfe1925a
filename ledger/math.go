package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Fixed-point and basis point scales.
const (
	RateScaleDigits = 18
	BpsDenominator  = 10_000
)

var (
	rateScale = uint256.NewInt(1_000_000_000_000_000_000)
	bpsScale  = uint256.NewInt(BpsDenominator)
)

// InitialRate is the exchange rate of a fresh pool: one receipt per base unit.
func InitialRate() uint256.Int {
	return *rateScale
}

// ToReceipt converts a base amount into receipt units at the given rate: floor(base*1e18/rate).
func ToReceipt(base, rate uint256.Int) (uint256.Int, error) {
	return mulDiv(&base, rateScale, &rate)
}

// ToBase converts receipt units into base units at the given rate: floor(receipt*rate/1e18).
func ToBase(receipt, rate uint256.Int) (uint256.Int, error) {
	return mulDiv(&receipt, &rate, rateScale)
}

// Commission returns floor(amount*bps/10000).
func Commission(amount uint256.Int, bps uint32) (uint256.Int, error) {
	return mulDiv(&amount, uint256.NewInt(uint64(bps)), bpsScale)
}

// mulDiv returns floor(x*y/d) computed with a 512-bit intermediate product.
func mulDiv(x, y, d *uint256.Int) (uint256.Int, error) {
	var z uint256.Int
	if d.IsZero() {
		return z, ErrDivisionByZero
	}

	if _, overflow := z.MulDivOverflow(x, y, d); overflow {
		return uint256.Int{}, fmt.Errorf("%w: %s*%s/%s", ErrOverflow, x.Dec(), y.Dec(), d.Dec())
	}

	return z, nil
}

func add(x, y uint256.Int) (uint256.Int, error) {
	var z uint256.Int
	if _, overflow := z.AddOverflow(&x, &y); overflow {
		return uint256.Int{}, fmt.Errorf("%w: %s+%s", ErrOverflow, x.Dec(), y.Dec())
	}

	return z, nil
}

func sub(x, y uint256.Int) (uint256.Int, error) {
	var z uint256.Int
	if _, underflow := z.SubOverflow(&x, &y); underflow {
		return uint256.Int{}, fmt.Errorf("%w: %s-%s", ErrOverflow, x.Dec(), y.Dec())
	}

	return z, nil
}

// subFloor returns x-y, or zero when y exceeds x.
func subFloor(x, y uint256.Int) uint256.Int {
	if y.Gt(&x) {
		return uint256.Int{}
	}

	var z uint256.Int
	z.Sub(&x, &y)

	return z
}

func minOf(x, y uint256.Int) uint256.Int {
	if y.Lt(&x) {
		return y
	}

	return x
}

func maxOf(x, y uint256.Int) uint256.Int {
	if y.Gt(&x) {
		return y
	}

	return x
}

// sum accumulates checked additions and keeps the first overflow.
type sum struct {
	total uint256.Int
	err   error
}

func (s *sum) add(x uint256.Int) {
	if s.err != nil {
		return
	}
	s.total, s.err = add(s.total, x)
}
