package errors

import "errors"

var (
	ErrInvalidSeller            = errors.New("listing seller must not be empty")
	ErrInvalidBuyer             = errors.New("buyer account must not be empty")
	ErrInvalidQuantity          = errors.New("listing quantity must be greater than zero")
	ErrInvalidPrice             = errors.New("listing price per unit must be greater than zero")
	ErrInvalidListingID         = errors.New("listing id is out of range")
	ErrListingNotActive         = errors.New("listing is not active")
	ErrQuantityExceedsRemaining = errors.New("requested quantity exceeds remaining quantity")
	ErrPriceOverflow            = errors.New("total price overflows the token amount range")
	ErrInvalidRole              = errors.New("unknown exchange role")
	ErrInvalidRoleAccount       = errors.New("role account must not be empty")
	ErrExchangeInconsistent     = errors.New("exchange record inconsistent with counter")
)
