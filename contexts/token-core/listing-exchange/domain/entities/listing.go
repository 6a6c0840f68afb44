package entities

import "time"

// Listing is an offer of recycled material priced per unit in ledger tokens.
// Quantity is the remaining amount; it only decreases. A listing with zero
// remaining quantity is never active.
type Listing struct {
	ID           uint64
	Seller       string
	Quantity     uint64
	PricePerUnit uint64
	MetaHash     string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Purchasable reports whether a buy may target the listing at all. Quantity
// bounds are checked separately against the requested amount.
func (l Listing) Purchasable() bool {
	return l.Active && l.Quantity > 0
}
