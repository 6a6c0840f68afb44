package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"greenloop/contexts/token-core/drop-registry/application"
	"greenloop/contexts/token-core/drop-registry/domain/entities"
	httptransport "greenloop/contexts/token-core/drop-registry/transport/http"
	"greenloop/internal/shared/rbac"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// ConfirmHandler godoc
// @Summary Confirm a recycling drop
// @Description Records a confirmed drop at the next id and issues tokens to the user. Caller needs the drops confirmer role.
// @Tags drop-registry
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.ConfirmDropRequest true "Drop payload"
// @Success 200 {object} httptransport.DropResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/drops/v1/confirm [post]
func (h Handler) ConfirmHandler(ctx context.Context, caller string, req httptransport.ConfirmDropRequest) (httptransport.DropResponse, error) {
	drop, err := h.Service.Confirm(ctx, caller, req.User, req.Amount, req.Collector, req.MetadataHash)
	if err != nil {
		return httptransport.DropResponse{}, err
	}
	return toDropResponse(drop), nil
}

// ConfirmWithIDHandler godoc
// @Summary Confirm a recycling drop at a specific id
// @Description Records a confirmed drop at an explicit id. The id must already be counted and its slot still unknown.
// @Tags drop-registry
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param id path int true "Drop id"
// @Param request body httptransport.ConfirmDropRequest true "Drop payload"
// @Success 200 {object} httptransport.DropResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/drops/v1/{id}/confirm [post]
func (h Handler) ConfirmWithIDHandler(ctx context.Context, caller string, id uint64, req httptransport.ConfirmDropRequest) (httptransport.DropResponse, error) {
	drop, err := h.Service.ConfirmWithID(ctx, caller, id, req.User, req.Amount, req.Collector, req.MetadataHash)
	if err != nil {
		return httptransport.DropResponse{}, err
	}
	return toDropResponse(drop), nil
}

// RevokeHandler godoc
// @Summary Revoke an issued drop
// @Description Marks an issued drop revoked. Caller needs the drops admin role.
// @Tags drop-registry
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param id path int true "Drop id"
// @Param request body httptransport.TransitionRequest true "Revocation reason"
// @Success 200 {object} httptransport.DropResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/drops/v1/{id}/revoke [post]
func (h Handler) RevokeHandler(ctx context.Context, caller string, id uint64, req httptransport.TransitionRequest) (httptransport.DropResponse, error) {
	drop, err := h.Service.Revoke(ctx, caller, id, req.Reason)
	if err != nil {
		return httptransport.DropResponse{}, err
	}
	return toDropResponse(drop), nil
}

// DisputeHandler godoc
// @Summary Dispute an issued drop
// @Description Marks an issued drop disputed. Caller needs the drops admin role.
// @Tags drop-registry
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param id path int true "Drop id"
// @Param request body httptransport.TransitionRequest true "Dispute reason"
// @Success 200 {object} httptransport.DropResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/drops/v1/{id}/dispute [post]
func (h Handler) DisputeHandler(ctx context.Context, caller string, id uint64, req httptransport.TransitionRequest) (httptransport.DropResponse, error) {
	drop, err := h.Service.Dispute(ctx, caller, id, req.Reason)
	if err != nil {
		return httptransport.DropResponse{}, err
	}
	return toDropResponse(drop), nil
}

// GetDropHandler godoc
// @Summary Get a drop record
// @Description Returns the record at an id, or an empty record with unknown status when the slot holds nothing.
// @Tags drop-registry
// @Produce json
// @Param id path int true "Drop id"
// @Success 200 {object} httptransport.DropResponse
// @Router /api/drops/v1/{id} [get]
func (h Handler) GetDropHandler(ctx context.Context, id uint64) (httptransport.DropResponse, error) {
	drop, err := h.Service.GetDrop(ctx, id)
	if err != nil {
		return httptransport.DropResponse{}, err
	}
	return toDropResponse(drop), nil
}

// DropCountHandler godoc
// @Summary Get the total number of confirmed drops
// @Tags drop-registry
// @Produce json
// @Success 200 {object} httptransport.DropCountResponse
// @Router /api/drops/v1/count [get]
func (h Handler) DropCountHandler(ctx context.Context) (httptransport.DropCountResponse, error) {
	count, err := h.Service.DropCount(ctx)
	if err != nil {
		return httptransport.DropCountResponse{}, err
	}
	return httptransport.DropCountResponse{DropCount: count}, nil
}

// GrantRoleHandler godoc
// @Summary Grant a registry role
// @Description Grants a registry role to an account. Caller needs the drops admin role.
// @Tags drop-registry
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.RoleRequest true "Role payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/drops/v1/roles/grant [post]
func (h Handler) GrantRoleHandler(ctx context.Context, caller string, req httptransport.RoleRequest) (httptransport.AckResponse, error) {
	if err := h.Service.GrantRole(ctx, caller, rbac.Role(req.Role), req.Account); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "granted"}, nil
}

// RevokeRoleHandler godoc
// @Summary Revoke a registry role
// @Description Revokes a registry role from an account. Caller needs the drops admin role.
// @Tags drop-registry
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.RoleRequest true "Role payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/drops/v1/roles/revoke [post]
func (h Handler) RevokeRoleHandler(ctx context.Context, caller string, req httptransport.RoleRequest) (httptransport.AckResponse, error) {
	if err := h.Service.RevokeRole(ctx, caller, rbac.Role(req.Role), req.Account); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "revoked"}, nil
}

// HasRoleHandler godoc
// @Summary Check a registry role grant
// @Tags drop-registry
// @Produce json
// @Param role path string true "Registry role"
// @Param account path string true "Ledger account"
// @Success 200 {object} httptransport.HasRoleResponse
// @Router /api/drops/v1/roles/{role}/accounts/{account} [get]
func (h Handler) HasRoleHandler(ctx context.Context, role string, account string) (httptransport.HasRoleResponse, error) {
	granted, err := h.Service.HasRole(ctx, rbac.Role(role), account)
	if err != nil {
		return httptransport.HasRoleResponse{}, err
	}
	return httptransport.HasRoleResponse{Role: role, Account: account, Granted: granted}, nil
}

func toDropResponse(drop entities.Drop) httptransport.DropResponse {
	resp := httptransport.DropResponse{
		DropID:       drop.ID,
		User:         drop.User,
		Amount:       drop.Amount,
		Collector:    drop.Collector,
		MetadataHash: drop.MetadataHash,
		Status:       string(drop.Status),
		Reason:       drop.Reason,
	}
	if !drop.RecordedAt.IsZero() {
		resp.RecordedAt = drop.RecordedAt.UTC().Format(time.RFC3339)
	}
	if !drop.UpdatedAt.IsZero() {
		resp.UpdatedAt = drop.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
