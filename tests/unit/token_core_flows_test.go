package unit

import (
	"context"
	"errors"
	"testing"

	registryerrors "greenloop/contexts/token-core/drop-registry/domain/errors"
	registryports "greenloop/contexts/token-core/drop-registry/ports"
	exchangeerrors "greenloop/contexts/token-core/listing-exchange/domain/errors"
	exchangeports "greenloop/contexts/token-core/listing-exchange/ports"
	ledgererrors "greenloop/contexts/token-core/token-ledger/domain/errors"
	ledgerports "greenloop/contexts/token-core/token-ledger/ports"
	"greenloop/internal/app/bootstrap"
	"greenloop/internal/platform/config"
)

const (
	ledgerAdmin      = "acct-ledger-admin"
	registryAdmin    = "acct-registry-admin"
	exchangeAdmin    = "acct-exchange-admin"
	registryOperator = "acct-registry-operator"
	exchangeOperator = "acct-exchange-operator"
)

func newStack(t *testing.T, cap uint64) bootstrap.Modules {
	t.Helper()
	cfg := config.Config{
		ServiceName: "greenloop-test",
		Token: config.TokenConfig{
			Name:     "GreenLoop Credit",
			Symbol:   "GLC",
			Decimals: 18,
			Cap:      cap,
		},
		Accounts: config.AccountsConfig{
			LedgerAdmin:      ledgerAdmin,
			RegistryAdmin:    registryAdmin,
			ExchangeAdmin:    exchangeAdmin,
			RegistryOperator: registryOperator,
			ExchangeOperator: exchangeOperator,
		},
	}
	modules, err := bootstrap.BuildInMemoryModules(cfg, nil)
	if err != nil {
		t.Fatalf("build modules failed: %v", err)
	}
	if err := modules.Registry.Service.GrantRole(context.Background(), registryAdmin, registryports.RoleConfirmer, "acct-collector"); err != nil {
		t.Fatalf("grant confirmer failed: %v", err)
	}
	return modules
}

func TestDropConfirmationCreditsUser(t *testing.T) {
	modules := newStack(t, 1_000_000)
	ctx := context.Background()

	drop, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-user", 120, "acct-collector", "bale-2026-08-001")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if drop.ID != 1 {
		t.Fatalf("expected drop id 1, got %d", drop.ID)
	}

	balance, err := modules.Ledger.Service.BalanceOf(ctx, "acct-user")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 120 {
		t.Fatalf("expected user credited 120, got %d", balance)
	}
	supply, _ := modules.Ledger.Service.TotalSupply(ctx)
	if supply != 120 {
		t.Fatalf("expected supply 120, got %d", supply)
	}
}

func TestDropConfirmationBlockedByCap(t *testing.T) {
	modules := newStack(t, 100)
	ctx := context.Background()

	if _, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-user", 80, "acct-collector", ""); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	_, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-user", 30, "acct-collector", "")
	if !errors.Is(err, ledgererrors.ErrCapExceeded) {
		t.Fatalf("expected ErrCapExceeded, got %v", err)
	}

	count, _ := modules.Registry.Service.DropCount(ctx)
	if count != 1 {
		t.Fatalf("expected counter unchanged at 1, got %d", count)
	}
	supply, _ := modules.Ledger.Service.TotalSupply(ctx)
	if supply != 80 {
		t.Fatalf("expected supply unchanged at 80, got %d", supply)
	}
}

func TestRevokedDropKeepsIssuedBalance(t *testing.T) {
	modules := newStack(t, 1_000_000)
	ctx := context.Background()

	if _, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-user", 50, "acct-collector", ""); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := modules.Registry.Service.Revoke(ctx, registryAdmin, 1, "mislabelled material"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if _, err := modules.Registry.Service.Revoke(ctx, registryAdmin, 1, "again"); !errors.Is(err, registryerrors.ErrDropNotIssued) {
		t.Fatalf("expected ErrDropNotIssued, got %v", err)
	}

	balance, _ := modules.Ledger.Service.BalanceOf(ctx, "acct-user")
	if balance != 50 {
		t.Fatalf("revocation must not claw back balance, got %d", balance)
	}
}

func TestListingPurchaseSettlesThroughAllowance(t *testing.T) {
	modules := newStack(t, 1_000_000)
	ctx := context.Background()

	if _, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-buyer", 1000, "acct-collector", ""); err != nil {
		t.Fatalf("fund buyer failed: %v", err)
	}
	if err := modules.Exchange.Service.GrantRole(ctx, exchangeAdmin, exchangeports.RoleLister, "acct-seller"); err != nil {
		t.Fatalf("grant lister failed: %v", err)
	}
	listing, err := modules.Exchange.Service.Create(ctx, "acct-seller", 40, 5, "pet-flakes")
	if err != nil {
		t.Fatalf("create listing failed: %v", err)
	}

	if err := modules.Ledger.Service.Approve(ctx, "acct-buyer", exchangeOperator, 200); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	updated, err := modules.Exchange.Service.Buy(ctx, "acct-buyer", listing.ID, 30)
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if updated.Quantity != 10 || !updated.Active {
		t.Fatalf("expected 10 remaining active, got %+v", updated)
	}

	buyerBalance, _ := modules.Ledger.Service.BalanceOf(ctx, "acct-buyer")
	sellerBalance, _ := modules.Ledger.Service.BalanceOf(ctx, "acct-seller")
	if buyerBalance != 850 || sellerBalance != 150 {
		t.Fatalf("expected buyer 850 / seller 150, got %d/%d", buyerBalance, sellerBalance)
	}
	allowance, _ := modules.Ledger.Service.Allowance(ctx, "acct-buyer", exchangeOperator)
	if allowance != 50 {
		t.Fatalf("expected allowance reduced to 50, got %d", allowance)
	}
}

func TestListingPurchaseFailsWithoutAllowance(t *testing.T) {
	modules := newStack(t, 1_000_000)
	ctx := context.Background()

	if _, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-buyer", 1000, "acct-collector", ""); err != nil {
		t.Fatalf("fund buyer failed: %v", err)
	}
	if err := modules.Exchange.Service.GrantRole(ctx, exchangeAdmin, exchangeports.RoleLister, "acct-seller"); err != nil {
		t.Fatalf("grant lister failed: %v", err)
	}
	listing, err := modules.Exchange.Service.Create(ctx, "acct-seller", 40, 5, "")
	if err != nil {
		t.Fatalf("create listing failed: %v", err)
	}

	_, err = modules.Exchange.Service.Buy(ctx, "acct-buyer", listing.ID, 30)
	if !errors.Is(err, ledgererrors.ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	after, _ := modules.Exchange.Service.GetListing(ctx, listing.ID)
	if after.Quantity != 40 || !after.Active {
		t.Fatalf("listing changed by failed purchase: %+v", after)
	}
	buyerBalance, _ := modules.Ledger.Service.BalanceOf(ctx, "acct-buyer")
	if buyerBalance != 1000 {
		t.Fatalf("buyer balance changed by failed purchase: %d", buyerBalance)
	}
}

func TestExhaustingPurchaseDeactivatesListing(t *testing.T) {
	modules := newStack(t, 1_000_000)
	ctx := context.Background()

	if _, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-buyer", 1000, "acct-collector", ""); err != nil {
		t.Fatalf("fund buyer failed: %v", err)
	}
	if err := modules.Exchange.Service.GrantRole(ctx, exchangeAdmin, exchangeports.RoleLister, "acct-seller"); err != nil {
		t.Fatalf("grant lister failed: %v", err)
	}
	listing, err := modules.Exchange.Service.Create(ctx, "acct-seller", 20, 2, "")
	if err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
	if err := modules.Ledger.Service.Approve(ctx, "acct-buyer", exchangeOperator, 40); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	updated, err := modules.Exchange.Service.Buy(ctx, "acct-buyer", listing.ID, 20)
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if updated.Quantity != 0 || updated.Active {
		t.Fatalf("expected exhausted inactive listing, got %+v", updated)
	}
	if _, err := modules.Exchange.Service.Buy(ctx, "acct-buyer", listing.ID, 1); !errors.Is(err, exchangeerrors.ErrListingNotActive) {
		t.Fatalf("expected ErrListingNotActive, got %v", err)
	}
}

func TestRetireReducesSupplyAndFreesCapRoom(t *testing.T) {
	modules := newStack(t, 100)
	ctx := context.Background()

	if _, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-user", 100, "acct-collector", ""); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if err := modules.Ledger.Service.GrantRole(ctx, ledgerAdmin, ledgerports.RoleBurner, "acct-burner"); err != nil {
		t.Fatalf("grant burner failed: %v", err)
	}
	if err := modules.Ledger.Service.Retire(ctx, "acct-burner", "acct-user", 40); err != nil {
		t.Fatalf("retire failed: %v", err)
	}

	supply, _ := modules.Ledger.Service.TotalSupply(ctx)
	if supply != 60 {
		t.Fatalf("expected supply 60, got %d", supply)
	}
	if _, err := modules.Registry.Service.Confirm(ctx, "acct-collector", "acct-user", 40, "acct-collector", ""); err != nil {
		t.Fatalf("expected cap room freed by retirement: %v", err)
	}
}
