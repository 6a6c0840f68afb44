package httpadapter

import (
	"context"
	"log/slog"

	"greenloop/contexts/token-core/token-ledger/application"
	httptransport "greenloop/contexts/token-core/token-ledger/transport/http"
	"greenloop/internal/shared/rbac"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// IssueHandler godoc
// @Summary Issue tokens
// @Description Credits freshly issued units to an account. Caller needs the ledger issuer role.
// @Tags token-ledger
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.IssueRequest true "Issue payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/ledger/v1/issue [post]
func (h Handler) IssueHandler(ctx context.Context, caller string, req httptransport.IssueRequest) (httptransport.AckResponse, error) {
	if err := h.Service.Issue(ctx, caller, req.To, req.Amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "issued"}, nil
}

// RetireHandler godoc
// @Summary Retire tokens
// @Description Burns units from an account. Caller needs the ledger burner role.
// @Tags token-ledger
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.RetireRequest true "Retire payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/ledger/v1/retire [post]
func (h Handler) RetireHandler(ctx context.Context, caller string, req httptransport.RetireRequest) (httptransport.AckResponse, error) {
	if err := h.Service.Retire(ctx, caller, req.From, req.Amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "retired"}, nil
}

// TransferHandler godoc
// @Summary Transfer tokens
// @Description Moves units from the caller's balance to another account.
// @Tags token-ledger
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.TransferRequest true "Transfer payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/ledger/v1/transfer [post]
func (h Handler) TransferHandler(ctx context.Context, caller string, req httptransport.TransferRequest) (httptransport.AckResponse, error) {
	if err := h.Service.Transfer(ctx, caller, req.To, req.Amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "transferred"}, nil
}

// ApproveHandler godoc
// @Summary Approve a spender
// @Description Sets the spender's allowance over the caller's balance to an absolute value.
// @Tags token-ledger
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.ApproveRequest true "Approve payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/ledger/v1/approve [post]
func (h Handler) ApproveHandler(ctx context.Context, caller string, req httptransport.ApproveRequest) (httptransport.AckResponse, error) {
	if err := h.Service.Approve(ctx, caller, req.Spender, req.Amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "approved"}, nil
}

// GrantRoleHandler godoc
// @Summary Grant a ledger role
// @Description Grants a ledger role to an account. Caller needs the ledger admin role.
// @Tags token-ledger
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.RoleRequest true "Role payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/ledger/v1/roles/grant [post]
func (h Handler) GrantRoleHandler(ctx context.Context, caller string, req httptransport.RoleRequest) (httptransport.AckResponse, error) {
	if err := h.Service.GrantRole(ctx, caller, rbac.Role(req.Role), req.Account); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "granted"}, nil
}

// RevokeRoleHandler godoc
// @Summary Revoke a ledger role
// @Description Revokes a ledger role from an account. Caller needs the ledger admin role.
// @Tags token-ledger
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "Caller ledger account"
// @Param request body httptransport.RoleRequest true "Role payload"
// @Success 200 {object} httptransport.AckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/ledger/v1/roles/revoke [post]
func (h Handler) RevokeRoleHandler(ctx context.Context, caller string, req httptransport.RoleRequest) (httptransport.AckResponse, error) {
	if err := h.Service.RevokeRole(ctx, caller, rbac.Role(req.Role), req.Account); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "revoked"}, nil
}

// BalanceHandler godoc
// @Summary Get account balance
// @Tags token-ledger
// @Produce json
// @Param account path string true "Ledger account"
// @Success 200 {object} httptransport.BalanceResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/ledger/v1/accounts/{account}/balance [get]
func (h Handler) BalanceHandler(ctx context.Context, account string) (httptransport.BalanceResponse, error) {
	balance, err := h.Service.BalanceOf(ctx, account)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return httptransport.BalanceResponse{Account: account, Balance: balance}, nil
}

// AllowanceHandler godoc
// @Summary Get owner/spender allowance
// @Tags token-ledger
// @Produce json
// @Param owner path string true "Owner account"
// @Param spender path string true "Spender account"
// @Success 200 {object} httptransport.AllowanceResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/ledger/v1/accounts/{owner}/allowances/{spender} [get]
func (h Handler) AllowanceHandler(ctx context.Context, owner string, spender string) (httptransport.AllowanceResponse, error) {
	allowance, err := h.Service.Allowance(ctx, owner, spender)
	if err != nil {
		return httptransport.AllowanceResponse{}, err
	}
	return httptransport.AllowanceResponse{Owner: owner, Spender: spender, Allowance: allowance}, nil
}

// SupplyHandler godoc
// @Summary Get total supply and cap
// @Tags token-ledger
// @Produce json
// @Success 200 {object} httptransport.SupplyResponse
// @Router /api/ledger/v1/supply [get]
func (h Handler) SupplyHandler(ctx context.Context) (httptransport.SupplyResponse, error) {
	supply, err := h.Service.TotalSupply(ctx)
	if err != nil {
		return httptransport.SupplyResponse{}, err
	}
	cap, err := h.Service.Cap(ctx)
	if err != nil {
		return httptransport.SupplyResponse{}, err
	}
	return httptransport.SupplyResponse{TotalSupply: supply, Cap: cap}, nil
}

// InfoHandler godoc
// @Summary Get token display metadata
// @Tags token-ledger
// @Produce json
// @Success 200 {object} httptransport.TokenInfoResponse
// @Router /api/ledger/v1/token [get]
func (h Handler) InfoHandler(ctx context.Context) (httptransport.TokenInfoResponse, error) {
	info, err := h.Service.Info(ctx)
	if err != nil {
		return httptransport.TokenInfoResponse{}, err
	}
	return httptransport.TokenInfoResponse{
		Name:     info.Name,
		Symbol:   info.Symbol,
		Decimals: info.Decimals,
	}, nil
}

// HasRoleHandler godoc
// @Summary Check a role grant
// @Tags token-ledger
// @Produce json
// @Param role path string true "Ledger role"
// @Param account path string true "Ledger account"
// @Success 200 {object} httptransport.HasRoleResponse
// @Router /api/ledger/v1/roles/{role}/accounts/{account} [get]
func (h Handler) HasRoleHandler(ctx context.Context, role string, account string) (httptransport.HasRoleResponse, error) {
	granted, err := h.Service.HasRole(ctx, rbac.Role(role), account)
	if err != nil {
		return httptransport.HasRoleResponse{}, err
	}
	return httptransport.HasRoleResponse{Role: role, Account: account, Granted: granted}, nil
}
