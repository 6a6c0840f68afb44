package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	dropregistry "greenloop/contexts/token-core/drop-registry"
	registryerrors "greenloop/contexts/token-core/drop-registry/domain/errors"
	registryhttp "greenloop/contexts/token-core/drop-registry/transport/http"
	listingexchange "greenloop/contexts/token-core/listing-exchange"
	exchangeerrors "greenloop/contexts/token-core/listing-exchange/domain/errors"
	exchangehttp "greenloop/contexts/token-core/listing-exchange/transport/http"
	tokenledger "greenloop/contexts/token-core/token-ledger"
	ledgererrors "greenloop/contexts/token-core/token-ledger/domain/errors"
	ledgerhttp "greenloop/contexts/token-core/token-ledger/transport/http"
	"greenloop/internal/shared/rbac"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "greenloop/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	ledger   tokenledger.Module
	registry dropregistry.Module
	exchange listingexchange.Module
}

func New(
	ledger tokenledger.Module,
	registry dropregistry.Module,
	exchange listingexchange.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		ledger:   ledger,
		registry: registry,
		exchange: exchange,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/ledger/v1/issue", s.handleLedgerIssue)
	s.mux.HandleFunc("POST /api/ledger/v1/retire", s.handleLedgerRetire)
	s.mux.HandleFunc("POST /api/ledger/v1/transfer", s.handleLedgerTransfer)
	s.mux.HandleFunc("POST /api/ledger/v1/approve", s.handleLedgerApprove)
	s.mux.HandleFunc("POST /api/ledger/v1/roles/grant", s.handleLedgerGrantRole)
	s.mux.HandleFunc("POST /api/ledger/v1/roles/revoke", s.handleLedgerRevokeRole)
	s.mux.HandleFunc("GET /api/ledger/v1/accounts/{account}/balance", s.handleLedgerBalance)
	s.mux.HandleFunc("GET /api/ledger/v1/accounts/{owner}/allowances/{spender}", s.handleLedgerAllowance)
	s.mux.HandleFunc("GET /api/ledger/v1/supply", s.handleLedgerSupply)
	s.mux.HandleFunc("GET /api/ledger/v1/token", s.handleLedgerInfo)
	s.mux.HandleFunc("GET /api/ledger/v1/roles/{role}/accounts/{account}", s.handleLedgerHasRole)

	s.mux.HandleFunc("POST /api/drops/v1/confirm", s.handleDropConfirm)
	s.mux.HandleFunc("POST /api/drops/v1/{id}/confirm", s.handleDropConfirmWithID)
	s.mux.HandleFunc("POST /api/drops/v1/{id}/revoke", s.handleDropRevoke)
	s.mux.HandleFunc("POST /api/drops/v1/{id}/dispute", s.handleDropDispute)
	s.mux.HandleFunc("GET /api/drops/v1/count", s.handleDropCount)
	s.mux.HandleFunc("GET /api/drops/v1/{id}", s.handleDropGet)
	s.mux.HandleFunc("POST /api/drops/v1/roles/grant", s.handleDropGrantRole)
	s.mux.HandleFunc("POST /api/drops/v1/roles/revoke", s.handleDropRevokeRole)
	s.mux.HandleFunc("GET /api/drops/v1/roles/{role}/accounts/{account}", s.handleDropHasRole)

	s.mux.HandleFunc("POST /api/market/v1/listings", s.handleListingCreate)
	s.mux.HandleFunc("POST /api/market/v1/listings/{id}/cancel", s.handleListingCancel)
	s.mux.HandleFunc("POST /api/market/v1/listings/{id}/buy", s.handleListingBuy)
	s.mux.HandleFunc("GET /api/market/v1/listings/count", s.handleListingCount)
	s.mux.HandleFunc("GET /api/market/v1/listings/{id}", s.handleListingGet)
	s.mux.HandleFunc("POST /api/market/v1/roles/grant", s.handleMarketGrantRole)
	s.mux.HandleFunc("POST /api/market/v1/roles/revoke", s.handleMarketRevokeRole)
	s.mux.HandleFunc("GET /api/market/v1/roles/{role}/accounts/{account}", s.handleMarketHasRole)
}

func (s *Server) handleLedgerIssue(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.IssueHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerRetire(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.RetireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.RetireHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.TransferHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.ApproveHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerGrantRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.GrantRoleHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerRevokeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.RevokeRoleHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.BalanceHandler(r.Context(), r.PathValue("account"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerAllowance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.AllowanceHandler(r.Context(), r.PathValue("owner"), r.PathValue("spender"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerSupply(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.SupplyHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerInfo(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.InfoHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerHasRole(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.HasRoleHandler(r.Context(), r.PathValue("role"), r.PathValue("account"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropConfirm(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req registryhttp.ConfirmDropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.ConfirmHandler(r.Context(), caller, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropConfirmWithID(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req registryhttp.ConfirmDropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.ConfirmWithIDHandler(r.Context(), caller, id, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropRevoke(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req registryhttp.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.RevokeHandler(r.Context(), caller, id, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropDispute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req registryhttp.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.DisputeHandler(r.Context(), caller, id, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := s.registry.Handler.GetDropHandler(r.Context(), id)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.DropCountHandler(r.Context())
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropGrantRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req registryhttp.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.GrantRoleHandler(r.Context(), caller, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropRevokeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req registryhttp.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.RevokeRoleHandler(r.Context(), caller, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDropHasRole(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.HasRoleHandler(r.Context(), r.PathValue("role"), r.PathValue("account"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListingCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req exchangehttp.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.exchange.Handler.CreateListingHandler(r.Context(), caller, req)
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListingCancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := s.exchange.Handler.CancelListingHandler(r.Context(), caller, id)
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListingBuy(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req exchangehttp.BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.exchange.Handler.BuyHandler(r.Context(), caller, id, req)
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListingGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := s.exchange.Handler.GetListingHandler(r.Context(), id)
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListingCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.exchange.Handler.ListingCountHandler(r.Context())
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarketGrantRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req exchangehttp.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.exchange.Handler.GrantRoleHandler(r.Context(), caller, req)
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarketRevokeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req exchangehttp.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.exchange.Handler.RevokeRoleHandler(r.Context(), caller, req)
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarketHasRole(w http.ResponseWriter, r *http.Request) {
	resp, err := s.exchange.Handler.HasRoleHandler(r.Context(), r.PathValue("role"), r.PathValue("account"))
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func callerAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	account := strings.TrimSpace(r.Header.Get("X-Account-Id"))
	if account == "" {
		writeError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return "", false
	}
	return account, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be an unsigned integer")
		return 0, false
	}
	return id, true
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidAccount),
		errors.Is(err, ledgererrors.ErrInvalidAmount),
		errors.Is(err, ledgererrors.ErrInvalidRole),
		errors.Is(err, rbac.ErrInvalidAccount),
		errors.Is(err, rbac.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, rbac.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ledgererrors.ErrCapExceeded),
		errors.Is(err, ledgererrors.ErrAmountOverflow),
		errors.Is(err, ledgererrors.ErrInsufficientBalance),
		errors.Is(err, ledgererrors.ErrInsufficientAllowance):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrInvalidUser),
		errors.Is(err, registryerrors.ErrInvalidCollector),
		errors.Is(err, registryerrors.ErrInvalidAmount),
		errors.Is(err, registryerrors.ErrInvalidDropID),
		errors.Is(err, registryerrors.ErrInvalidRole),
		errors.Is(err, registryerrors.ErrInvalidRoleAccount),
		errors.Is(err, rbac.ErrInvalidAccount),
		errors.Is(err, rbac.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, rbac.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, registryerrors.ErrDropSlotOccupied),
		errors.Is(err, registryerrors.ErrDropNotIssued):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrCapExceeded),
		errors.Is(err, ledgererrors.ErrAmountOverflow):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeExchangeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exchangeerrors.ErrInvalidSeller),
		errors.Is(err, exchangeerrors.ErrInvalidBuyer),
		errors.Is(err, exchangeerrors.ErrInvalidQuantity),
		errors.Is(err, exchangeerrors.ErrInvalidPrice),
		errors.Is(err, exchangeerrors.ErrInvalidListingID),
		errors.Is(err, exchangeerrors.ErrPriceOverflow),
		errors.Is(err, exchangeerrors.ErrInvalidRole),
		errors.Is(err, exchangeerrors.ErrInvalidRoleAccount),
		errors.Is(err, rbac.ErrInvalidAccount),
		errors.Is(err, rbac.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, rbac.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, exchangeerrors.ErrListingNotActive),
		errors.Is(err, exchangeerrors.ErrQuantityExceedsRemaining):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientBalance),
		errors.Is(err, ledgererrors.ErrInsufficientAllowance):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
