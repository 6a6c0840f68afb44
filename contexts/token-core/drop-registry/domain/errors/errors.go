package errors

import "errors"

var (
	ErrInvalidUser          = errors.New("drop user must not be empty")
	ErrInvalidCollector     = errors.New("drop collector must not be empty")
	ErrInvalidAmount        = errors.New("drop amount must be greater than zero")
	ErrInvalidDropID        = errors.New("drop id is out of range")
	ErrDropSlotOccupied     = errors.New("drop id is not an unassigned slot")
	ErrDropNotIssued        = errors.New("drop is not in issued status")
	ErrInvalidRole          = errors.New("unknown registry role")
	ErrInvalidRoleAccount   = errors.New("role account must not be empty")
	ErrRegistryInconsistent = errors.New("registry record inconsistent with counter")
)
