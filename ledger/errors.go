package ledger

import "errors"

// Error categories. Every ledger error matches exactly one of these with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrState         = errors.New("state error")
	ErrAuthorization = errors.New("authorization error")
	ErrArithmetic    = errors.New("arithmetic error")
)

// Sentinel errors for ledger operations
var (
	ErrInvalidID         = newError(ErrValidation, "identifier must not be empty")
	ErrInvalidAmount     = newError(ErrValidation, "amount must be positive")
	ErrBelowMinimum      = newError(ErrValidation, "amount below minimum delegation")
	ErrInvalidCommission = newError(ErrValidation, "commission rate out of range")

	ErrUnknownValidator = newError(ErrNotFound, "unknown validator")
	ErrNoDelegation     = newError(ErrNotFound, "no delegation")
	ErrRequestNotFound  = newError(ErrNotFound, "undelegation request not found")

	ErrNotEligible             = newError(ErrState, "validator not eligible")
	ErrAlreadyProcessed        = newError(ErrState, "undelegation request already processed")
	ErrCooldownActive          = newError(ErrState, "cooldown active")
	ErrInsufficientReceipt     = newError(ErrState, "insufficient receipt balance")
	ErrInsufficientFreeBalance = newError(ErrState, "insufficient free receipt balance")

	ErrUnauthorized = newError(ErrAuthorization, "caller does not own the undelegation request")

	ErrOverflow       = newError(ErrArithmetic, "integer overflow")
	ErrDivisionByZero = newError(ErrArithmetic, "division by zero")

	ErrInvariantViolation = errors.New("ledger invariant violated")
)

// Error is a ledger error tagged with its category.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.msg
}

// Is reports whether target is the category of e
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Kind returns the category sentinel (ErrValidation, ErrNotFound, ...)
func (e *Error) Kind() error {
	return e.kind
}
