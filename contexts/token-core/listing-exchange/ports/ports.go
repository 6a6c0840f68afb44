package ports

import (
	"context"
	"time"

	"greenloop/contexts/token-core/listing-exchange/domain/entities"
	"greenloop/internal/shared/rbac"
)

// Exchange roles. RoleAdmin manages the exchange role table and may cancel
// any listing; RoleLister may create listings.
const (
	RoleAdmin  = rbac.Role("market.admin")
	RoleLister = rbac.Role("market.lister")
)

// SettlementLedger is the exchange's view of the token ledger, satisfied by
// the token-ledger application service. spender is the exchange's own
// operator account; buyers grant it an allowance before purchasing.
// Transfer, Approve and Allowance serve the settlement reversal path: when
// the purchase record cannot be written after payment settled, the exchange
// returns the funds and restores the consumed allowance.
type SettlementLedger interface {
	TransferFrom(ctx context.Context, spender string, from string, to string, amount uint64) error
	Transfer(ctx context.Context, caller string, to string, amount uint64) error
	Approve(ctx context.Context, caller string, spender string, amount uint64) error
	Allowance(ctx context.Context, owner string, spender string) (uint64, error)
}

// CreateListingInput carries the validated listing payload into the
// repository, which assigns the next dense id and appends the
// listing.created outbox row.
type CreateListingInput struct {
	Seller       string
	Quantity     uint64
	PricePerUnit uint64
	MetaHash     string
	CreatedAt    time.Time
}

// Repository owns listing records, the id counter, and the exchange role
// table. Mutations are all-or-nothing; ApplyPurchase re-checks activity and
// remaining quantity inside its own critical section as a guard against
// storage drift.
type Repository interface {
	rbac.Grants

	CreateListing(ctx context.Context, input CreateListingInput) (entities.Listing, error)
	DeactivateListing(ctx context.Context, id uint64, at time.Time) (entities.Listing, error)
	ApplyPurchase(ctx context.Context, id uint64, buyer string, quantity uint64, total uint64, at time.Time) (entities.Listing, error)
	GetListing(ctx context.Context, id uint64) (entities.Listing, bool, error)
	ListingCount(ctx context.Context) (uint64, error)

	GrantRole(ctx context.Context, role rbac.Role, account string, at time.Time) error
	RevokeRole(ctx context.Context, role rbac.Role, account string, at time.Time) error
}

type Clock interface {
	Now() time.Time
}
