package models

import "errors"

// Domain errors returned by the ledger engine and the lifecycle workflows.
// All of them are synchronous, caller-recoverable validation or state
// failures. Infrastructure failures (connectivity, constraint internals)
// are wrapped separately and never map onto these.
var (
	// ErrInvalidAmount is returned when an operation amount is not a
	// positive value with at most two decimal places.
	ErrInvalidAmount = errors.New("amount must be a positive value with at most 2 decimal places")

	// ErrInsufficientFunds is returned when the account balance is lower
	// than the requested amount.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrSameAccount is returned when transfer sender and receiver are the
	// same account.
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrAccountNotFound is returned when an account or account number does
	// not resolve.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidState is returned when a lifecycle operation is attempted
	// from a state it cannot proceed from.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrInvalidPIN is returned when PIN verification fails for a
	// PIN-protected operation.
	ErrInvalidPIN = errors.New("invalid PIN")

	// ErrDuplicate is returned by the store when an insert violates a
	// uniqueness constraint (receipt reference, account number). Callers
	// regenerate the value and retry.
	ErrDuplicate = errors.New("duplicate value for unique column")

	// ErrNotFound is returned when a referenced record other than an
	// account does not exist.
	ErrNotFound = errors.New("record not found")
)
