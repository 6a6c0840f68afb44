package application

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"greenloop/contexts/token-core/listing-exchange/domain/entities"
	domainerrors "greenloop/contexts/token-core/listing-exchange/domain/errors"
	"greenloop/contexts/token-core/listing-exchange/ports"
	"greenloop/internal/shared/rbac"
)

// Service drives the escrow-less marketplace. Listings never hold tokens;
// settlement is a single ledger TransferFrom through the exchange operator's
// allowance, followed by the quantity decrement. A buy that fails payment
// leaves the listing untouched; a buy whose record cannot be written after
// payment is reversed through the same ledger.
type Service struct {
	Repo ports.Repository
	// Ledger and Operator are fixed at construction. Operator is the
	// exchange's own ledger account; buyers approve it as spender before
	// purchasing.
	Ledger   ports.SettlementLedger
	Operator string
	Clock    ports.Clock
	Logger   *slog.Logger
	// Lock makes each mutating operation one exclusive critical section,
	// covering the precondition reads, the nested ledger call, and the local
	// write together. Module wiring always provides it.
	Lock *sync.Mutex
}

// Create lists material for sale. Caller becomes the seller and must hold
// the lister role. Quantity and price must both be positive.
func (s Service) Create(ctx context.Context, caller string, quantity uint64, pricePerUnit uint64, metaHash string) (entities.Listing, error) {
	if strings.TrimSpace(caller) == "" {
		return entities.Listing{}, domainerrors.ErrInvalidSeller
	}
	if quantity == 0 {
		return entities.Listing{}, domainerrors.ErrInvalidQuantity
	}
	if pricePerUnit == 0 {
		return entities.Listing{}, domainerrors.ErrInvalidPrice
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleLister, caller); err != nil {
		return entities.Listing{}, err
	}

	s.lock()
	defer s.unlock()
	listing, err := s.Repo.CreateListing(ctx, ports.CreateListingInput{
		Seller:       strings.TrimSpace(caller),
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		MetaHash:     strings.TrimSpace(metaHash),
		CreatedAt:    s.now(),
	})
	if err != nil {
		return entities.Listing{}, err
	}

	ResolveLogger(s.Logger).Info("listing created",
		"event", "listing_created",
		"module", "token-core/listing-exchange",
		"layer", "application",
		"listing_id", listing.ID,
		"seller", listing.Seller,
		"quantity", listing.Quantity,
		"price_per_unit", listing.PricePerUnit,
	)
	return listing, nil
}

// Cancel deactivates an active listing. The seller may cancel their own
// listing; anyone else needs the exchange admin role. No tokens move.
func (s Service) Cancel(ctx context.Context, caller string, id uint64) (entities.Listing, error) {
	if id == 0 {
		return entities.Listing{}, domainerrors.ErrInvalidListingID
	}
	s.lock()
	defer s.unlock()
	listing, found, err := s.Repo.GetListing(ctx, id)
	if err != nil {
		return entities.Listing{}, err
	}
	if !found {
		return entities.Listing{}, domainerrors.ErrInvalidListingID
	}
	if !listing.Active {
		return entities.Listing{}, domainerrors.ErrListingNotActive
	}
	if caller != listing.Seller {
		if err := rbac.Require(ctx, s.Repo, ports.RoleAdmin, caller); err != nil {
			return entities.Listing{}, err
		}
	}

	cancelled, err := s.Repo.DeactivateListing(ctx, id, s.now())
	if err != nil {
		return entities.Listing{}, err
	}
	ResolveLogger(s.Logger).Info("listing cancelled",
		"event", "listing_cancelled",
		"module", "token-core/listing-exchange",
		"layer", "application",
		"listing_id", cancelled.ID,
		"caller", caller,
	)
	return cancelled, nil
}

// Buy settles quantity units of a listing against the buyer's ledger
// balance. The whole operation runs in one exclusive section: precondition
// reads, the debit, and the decrement, so no other mutation can shrink or
// cancel the listing between the payment and the record. The decrement
// deactivates the listing when the remaining quantity reaches zero; if the
// record cannot be written after the ledger accepted the transfer, the
// payment is reversed and the consumed allowance restored.
func (s Service) Buy(ctx context.Context, buyer string, id uint64, quantity uint64) (entities.Listing, error) {
	buyer = strings.TrimSpace(buyer)
	if buyer == "" {
		return entities.Listing{}, domainerrors.ErrInvalidBuyer
	}
	if quantity == 0 {
		return entities.Listing{}, domainerrors.ErrInvalidQuantity
	}
	if id == 0 {
		return entities.Listing{}, domainerrors.ErrInvalidListingID
	}
	s.lock()
	defer s.unlock()
	listing, found, err := s.Repo.GetListing(ctx, id)
	if err != nil {
		return entities.Listing{}, err
	}
	if !found {
		return entities.Listing{}, domainerrors.ErrInvalidListingID
	}
	if !listing.Purchasable() {
		return entities.Listing{}, domainerrors.ErrListingNotActive
	}
	if quantity > listing.Quantity {
		return entities.Listing{}, domainerrors.ErrQuantityExceedsRemaining
	}
	if quantity > math.MaxUint64/listing.PricePerUnit {
		return entities.Listing{}, domainerrors.ErrPriceOverflow
	}
	total := quantity * listing.PricePerUnit

	priorAllowance, err := s.Ledger.Allowance(ctx, buyer, s.Operator)
	if err != nil {
		return entities.Listing{}, err
	}
	if err := s.Ledger.TransferFrom(ctx, s.Operator, buyer, listing.Seller, total); err != nil {
		return entities.Listing{}, err
	}
	updated, err := s.Repo.ApplyPurchase(ctx, id, buyer, quantity, total, s.now())
	if err != nil {
		s.reverseSettlement(ctx, listing.Seller, buyer, total, priorAllowance)
		return entities.Listing{}, err
	}

	ResolveLogger(s.Logger).Info("listing bought",
		"event", "listing_bought",
		"module", "token-core/listing-exchange",
		"layer", "application",
		"listing_id", updated.ID,
		"buyer", buyer,
		"quantity", quantity,
		"total", total,
		"remaining", updated.Quantity,
	)
	return updated, nil
}

// GetListing returns the stored record, or the inactive sentinel (all-zero
// fields, Active false) for ids that were never assigned.
func (s Service) GetListing(ctx context.Context, id uint64) (entities.Listing, error) {
	if id == 0 {
		return entities.Listing{}, nil
	}
	listing, found, err := s.Repo.GetListing(ctx, id)
	if err != nil {
		return entities.Listing{}, err
	}
	if !found {
		return entities.Listing{}, nil
	}
	return listing, nil
}

func (s Service) ListingCount(ctx context.Context) (uint64, error) {
	return s.Repo.ListingCount(ctx)
}

func (s Service) GrantRole(ctx context.Context, caller string, role rbac.Role, account string) error {
	if strings.TrimSpace(account) == "" {
		return domainerrors.ErrInvalidRoleAccount
	}
	if !knownRole(role) {
		return domainerrors.ErrInvalidRole
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleAdmin, caller); err != nil {
		return err
	}
	s.lock()
	defer s.unlock()
	return s.Repo.GrantRole(ctx, role, strings.TrimSpace(account), s.now())
}

func (s Service) RevokeRole(ctx context.Context, caller string, role rbac.Role, account string) error {
	if strings.TrimSpace(account) == "" {
		return domainerrors.ErrInvalidRoleAccount
	}
	if !knownRole(role) {
		return domainerrors.ErrInvalidRole
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleAdmin, caller); err != nil {
		return err
	}
	s.lock()
	defer s.unlock()
	return s.Repo.RevokeRole(ctx, role, strings.TrimSpace(account), s.now())
}

func (s Service) HasRole(ctx context.Context, role rbac.Role, account string) (bool, error) {
	if strings.TrimSpace(account) == "" {
		return false, nil
	}
	return s.Repo.HasRole(ctx, role, strings.TrimSpace(account))
}

// reverseSettlement undoes a settled payment whose purchase record could not
// be written: principal back to the buyer, allowance restored to its
// pre-settlement value. A failed reversal is logged for operator follow-up.
func (s Service) reverseSettlement(ctx context.Context, seller string, buyer string, total uint64, priorAllowance uint64) {
	logger := ResolveLogger(s.Logger)
	if err := s.Ledger.Transfer(ctx, seller, buyer, total); err != nil {
		logger.Error("settlement reversal failed",
			"event", "settlement_reversal_failed",
			"module", "token-core/listing-exchange",
			"layer", "application",
			"seller", seller,
			"buyer", buyer,
			"total", total,
			"error", err,
		)
		return
	}
	if err := s.Ledger.Approve(ctx, buyer, s.Operator, priorAllowance); err != nil {
		logger.Error("allowance restore failed",
			"event", "allowance_restore_failed",
			"module", "token-core/listing-exchange",
			"layer", "application",
			"buyer", buyer,
			"allowance", priorAllowance,
			"error", err,
		)
	}
}

func (s Service) lock() {
	if s.Lock != nil {
		s.Lock.Lock()
	}
}

func (s Service) unlock() {
	if s.Lock != nil {
		s.Lock.Unlock()
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func knownRole(role rbac.Role) bool {
	switch role {
	case ports.RoleAdmin, ports.RoleLister:
		return true
	default:
		return false
	}
}
