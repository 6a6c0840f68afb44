package errors

import "errors"

var (
	ErrInvalidAccount        = errors.New("account must not be empty")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrAmountOverflow        = errors.New("amount arithmetic would overflow")
	ErrCapExceeded           = errors.New("issuance would exceed supply cap")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidRole           = errors.New("unknown ledger role")
)
