package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	registryports "greenloop/contexts/token-core/drop-registry/ports"
	"greenloop/internal/app/bootstrap"
	"greenloop/internal/platform/config"
	"greenloop/internal/platform/httpserver"
)

func newTestServer(t *testing.T) (*httptest.Server, bootstrap.Modules) {
	t.Helper()
	cfg := config.Config{
		Token: config.TokenConfig{
			Name:     "GreenLoop Credit",
			Symbol:   "GLC",
			Decimals: 18,
			Cap:      1_000_000,
		},
		Accounts: config.AccountsConfig{
			LedgerAdmin:      "acct-ledger-admin",
			RegistryAdmin:    "acct-registry-admin",
			ExchangeAdmin:    "acct-exchange-admin",
			RegistryOperator: "acct-registry-operator",
			ExchangeOperator: "acct-exchange-operator",
		},
	}
	modules, err := bootstrap.BuildInMemoryModules(cfg, nil)
	if err != nil {
		t.Fatalf("build modules failed: %v", err)
	}
	server := httpserver.New(modules.Ledger, modules.Registry, modules.Exchange, nil, "")
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, modules
}

func TestMutationEndpointsRequireAccountHeader(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/drops/v1/confirm", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-Account-Id, got %d", resp.StatusCode)
	}
}

func TestConfirmDropOverHTTP(t *testing.T) {
	ts, modules := newTestServer(t)
	ctx := context.Background()

	if err := modules.Registry.Service.GrantRole(ctx, "acct-registry-admin", registryports.RoleConfirmer, "acct-collector"); err != nil {
		t.Fatalf("grant confirmer failed: %v", err)
	}

	body := `{"user":"acct-user","amount":75,"collector":"acct-collector","metadata_hash":"bale-1"}`
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/drops/v1/confirm", strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Account-Id", "acct-collector")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var drop struct {
		DropID uint64 `json:"drop_id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&drop); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if drop.DropID != 1 || drop.Status != "issued" {
		t.Fatalf("unexpected drop response %+v", drop)
	}

	balance, err := modules.Ledger.Service.BalanceOf(ctx, "acct-user")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 75 {
		t.Fatalf("expected balance 75, got %d", balance)
	}
}

func TestUnauthorizedIssueOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/ledger/v1/issue",
		strings.NewReader(`{"to":"acct-user","amount":10}`))
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	req.Header.Set("X-Account-Id", "acct-stranger")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for caller without issuer role, got %d", resp.StatusCode)
	}
}

func TestGetUnknownDropReturnsSentinel(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/drops/v1/42")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 sentinel response, got %d", resp.StatusCode)
	}
	var drop struct {
		DropID uint64 `json:"drop_id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&drop); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if drop.DropID != 0 || drop.Status != "unknown" {
		t.Fatalf("expected unknown sentinel, got %+v", drop)
	}
}
