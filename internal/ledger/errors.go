package ledger

import "github.com/pkg/errors"

var (
	// ErrInsufficientBalance is returned when the debited account holds less than the requested value.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance is returned when a spender's remaining allowance is below the requested value.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	ErrAlreadyInitialized = errors.New("ledger already initialized")
	ErrNotInitialized     = errors.New("ledger not initialized")

	// ErrArithmetic is the panic value raised when a balance update over- or
	// underflows. It can only happen if stored state already violates the
	// conservation invariant.
	ErrArithmetic = errors.New("balance arithmetic overflow")
)
