package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"greenloop/contexts/token-core/listing-exchange/application"
	"greenloop/contexts/token-core/listing-exchange/domain/entities"
	httptransport "greenloop/contexts/token-core/listing-exchange/transport/http"
	"greenloop/internal/shared/rbac"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// CreateListingHandler godoc
// @Summary Create a listing
// @Description Lists material for sale priced per unit in ledger tokens. Caller becomes the seller and needs the market lister role.
// @Tags listing-exchange
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.CreateListingRequest true "Listing payload"
// @Success 200 {object} httptransport.ListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/market/v1/listings [post]
func (h Handler) CreateListingHandler(ctx context.Context, caller string, req httptransport.CreateListingRequest) (httptransport.ListingResponse, error) {
	listing, err := h.Service.Create(ctx, caller, req.Quantity, req.PricePerUnit, req.MetaHash)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return toListingResponse(listing), nil
}

// CancelListingHandler godoc
// @Summary Cancel a listing
// @Description Deactivates an active listing. The seller may cancel their own listing; anyone else needs the market admin role.
// @Tags listing-exchange
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param id path int true "Listing id"
// @Success 200 {object} httptransport.ListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/market/v1/listings/{id}/cancel [post]
func (h Handler) CancelListingHandler(ctx context.Context, caller string, id uint64) (httptransport.ListingResponse, error) {
	listing, err := h.Service.Cancel(ctx, caller, id)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return toListingResponse(listing), nil
}

// BuyHandler godoc
// @Summary Buy from a listing
// @Description Settles quantity units against the caller's ledger balance through the exchange operator's allowance, then decrements the listing.
// @Tags listing-exchange
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param id path int true "Listing id"
// @Param request body httptransport.BuyRequest true "Buy payload"
// @Success 200 {object} httptransport.ListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/market/v1/listings/{id}/buy [post]
func (h Handler) BuyHandler(ctx context.Context, caller string, id uint64, req httptransport.BuyRequest) (httptransport.ListingResponse, error) {
	listing, err := h.Service.Buy(ctx, caller, id, req.Quantity)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return toListingResponse(listing), nil
}

// GetListingHandler godoc
// @Summary Get a listing
// @Description Returns the record at an id, or an empty inactive record when the slot holds nothing.
// @Tags listing-exchange
// @Produce json
// @Param id path int true "Listing id"
// @Success 200 {object} httptransport.ListingResponse
// @Router /api/market/v1/listings/{id} [get]
func (h Handler) GetListingHandler(ctx context.Context, id uint64) (httptransport.ListingResponse, error) {
	listing, err := h.Service.GetListing(ctx, id)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return toListingResponse(listing), nil
}

// ListingCountHandler godoc
// @Summary Get the total number of listings ever created
// @Tags listing-exchange
// @Produce json
// @Success 200 {object} httptransport.ListingCountResponse
// @Router /api/market/v1/listings/count [get]
func (h Handler) ListingCountHandler(ctx context.Context) (httptransport.ListingCountResponse, error) {
	count, err := h.Service.ListingCount(ctx)
	if err != nil {
		return httptransport.ListingCountResponse{}, err
	}
	return httptransport.ListingCountResponse{ListingCount: count}, nil
}

// GrantRoleHandler godoc
// @Summary Grant an exchange role
// @Description Grants an exchange role to an account. Caller needs the market admin role.
// @Tags listing-exchange
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.RoleRequest true "Role payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/market/v1/roles/grant [post]
func (h Handler) GrantRoleHandler(ctx context.Context, caller string, req httptransport.RoleRequest) (httptransport.AckResponse, error) {
	if err := h.Service.GrantRole(ctx, caller, rbac.Role(req.Role), req.Account); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "granted"}, nil
}

// RevokeRoleHandler godoc
// @Summary Revoke an exchange role
// @Description Revokes an exchange role from an account. Caller needs the market admin role.
// @Tags listing-exchange
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.RoleRequest true "Role payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/market/v1/roles/revoke [post]
func (h Handler) RevokeRoleHandler(ctx context.Context, caller string, req httptransport.RoleRequest) (httptransport.AckResponse, error) {
	if err := h.Service.RevokeRole(ctx, caller, rbac.Role(req.Role), req.Account); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "revoked"}, nil
}

// HasRoleHandler godoc
// @Summary Check an exchange role grant
// @Tags listing-exchange
// @Produce json
// @Param role path string true "Exchange role"
// @Param account path string true "Ledger account"
// @Success 200 {object} httptransport.HasRoleResponse
// @Router /api/market/v1/roles/{role}/accounts/{account} [get]
func (h Handler) HasRoleHandler(ctx context.Context, role string, account string) (httptransport.HasRoleResponse, error) {
	granted, err := h.Service.HasRole(ctx, rbac.Role(role), account)
	if err != nil {
		return httptransport.HasRoleResponse{}, err
	}
	return httptransport.HasRoleResponse{Role: role, Account: account, Granted: granted}, nil
}

func toListingResponse(listing entities.Listing) httptransport.ListingResponse {
	resp := httptransport.ListingResponse{
		ListingID:    listing.ID,
		Seller:       listing.Seller,
		Quantity:     listing.Quantity,
		PricePerUnit: listing.PricePerUnit,
		MetaHash:     listing.MetaHash,
		Active:       listing.Active,
	}
	if !listing.CreatedAt.IsZero() {
		resp.CreatedAt = listing.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !listing.UpdatedAt.IsZero() {
		resp.UpdatedAt = listing.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
