package application

import (
	"context"
	"errors"
	"math"
	"testing"

	"greenloop/contexts/token-core/token-ledger/adapters/memory"
	domainerrors "greenloop/contexts/token-core/token-ledger/domain/errors"
	"greenloop/contexts/token-core/token-ledger/ports"
	"greenloop/internal/shared/rbac"
)

func newLedger(t *testing.T, cap uint64) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(memory.Config{
		Name:     "GreenLoop Credit",
		Symbol:   "GLC",
		Decimals: 18,
		Cap:      cap,
		Admin:    "acct-admin",
	})
	service := Service{Repo: store, Clock: store}
	if err := service.GrantRole(context.Background(), "acct-admin", ports.RoleIssuer, "acct-issuer"); err != nil {
		t.Fatalf("grant issuer failed: %v", err)
	}
	if err := service.GrantRole(context.Background(), "acct-admin", ports.RoleBurner, "acct-burner"); err != nil {
		t.Fatalf("grant burner failed: %v", err)
	}
	return service, store
}

func TestIssueWithinCap(t *testing.T) {
	service, _ := newLedger(t, 1000)
	ctx := context.Background()

	if err := service.Issue(ctx, "acct-issuer", "acct-user", 800); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	balance, _ := service.BalanceOf(ctx, "acct-user")
	supply, _ := service.TotalSupply(ctx)
	if balance != 800 || supply != 800 {
		t.Fatalf("expected balance=800 supply=800, got %d/%d", balance, supply)
	}
}

func TestIssueCapExceededLeavesStateUnchanged(t *testing.T) {
	service, _ := newLedger(t, 1000)
	ctx := context.Background()

	if err := service.Issue(ctx, "acct-issuer", "acct-user", 800); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	err := service.Issue(ctx, "acct-issuer", "acct-user", 300)
	if !errors.Is(err, domainerrors.ErrCapExceeded) {
		t.Fatalf("expected ErrCapExceeded, got %v", err)
	}
	balance, _ := service.BalanceOf(ctx, "acct-user")
	supply, _ := service.TotalSupply(ctx)
	if balance != 800 || supply != 800 {
		t.Fatalf("failed issue must not change state, got balance=%d supply=%d", balance, supply)
	}
}

func TestIssueUsesPostOperationTotal(t *testing.T) {
	service, _ := newLedger(t, 1000)
	ctx := context.Background()

	if err := service.Issue(ctx, "acct-issuer", "acct-user", 1000); err != nil {
		t.Fatalf("issuing exactly the cap must succeed: %v", err)
	}
	if err := service.Issue(ctx, "acct-issuer", "acct-user", 1); !errors.Is(err, domainerrors.ErrCapExceeded) {
		t.Fatalf("expected ErrCapExceeded past the cap, got %v", err)
	}
}

func TestIssueOverflowRejected(t *testing.T) {
	service, _ := newLedger(t, math.MaxUint64)
	ctx := context.Background()

	if err := service.Issue(ctx, "acct-issuer", "acct-user", math.MaxUint64); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	err := service.Issue(ctx, "acct-issuer", "acct-user", 1)
	if !errors.Is(err, domainerrors.ErrAmountOverflow) {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}
}

func TestIssueRequiresIssuerRole(t *testing.T) {
	service, _ := newLedger(t, 1000)
	err := service.Issue(context.Background(), "acct-user", "acct-user", 10)
	if !errors.Is(err, rbac.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	supply, _ := service.TotalSupply(context.Background())
	if supply != 0 {
		t.Fatalf("unauthorized issue must not mint, supply=%d", supply)
	}
}

func TestIssueValidatesBeforeAuthorization(t *testing.T) {
	service, _ := newLedger(t, 1000)
	if err := service.Issue(context.Background(), "acct-issuer", "acct-user", 0); !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := service.Issue(context.Background(), "acct-issuer", "  ", 10); !errors.Is(err, domainerrors.ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestRetire(t *testing.T) {
	service, _ := newLedger(t, 1000)
	ctx := context.Background()

	if err := service.Issue(ctx, "acct-issuer", "acct-user", 500); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := service.Retire(ctx, "acct-burner", "acct-user", 200); err != nil {
		t.Fatalf("retire failed: %v", err)
	}
	balance, _ := service.BalanceOf(ctx, "acct-user")
	supply, _ := service.TotalSupply(ctx)
	if balance != 300 || supply != 300 {
		t.Fatalf("expected 300/300, got %d/%d", balance, supply)
	}

	err := service.Retire(ctx, "acct-burner", "acct-user", 301)
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	service, _ := newLedger(t, 1000)
	ctx := context.Background()

	if err := service.Issue(ctx, "acct-issuer", "acct-a", 100); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := service.Transfer(ctx, "acct-a", "acct-b", 40); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	balanceA, _ := service.BalanceOf(ctx, "acct-a")
	balanceB, _ := service.BalanceOf(ctx, "acct-b")
	if balanceA != 60 || balanceB != 40 {
		t.Fatalf("expected 60/40, got %d/%d", balanceA, balanceB)
	}

	if err := service.Transfer(ctx, "acct-a", "acct-b", 61); !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestTransferFromDecrementsAllowance(t *testing.T) {
	service, _ := newLedger(t, 1000)
	ctx := context.Background()

	if err := service.Issue(ctx, "acct-issuer", "acct-owner", 100); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := service.Approve(ctx, "acct-owner", "acct-spender", 50); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := service.TransferFrom(ctx, "acct-spender", "acct-owner", "acct-dest", 30); err != nil {
		t.Fatalf("transfer from failed: %v", err)
	}
	allowance, _ := service.Allowance(ctx, "acct-owner", "acct-spender")
	if allowance != 20 {
		t.Fatalf("expected allowance=20, got %d", allowance)
	}

	err := service.TransferFrom(ctx, "acct-spender", "acct-owner", "acct-dest", 21)
	if !errors.Is(err, domainerrors.ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	balanceOwner, _ := service.BalanceOf(ctx, "acct-owner")
	if balanceOwner != 70 {
		t.Fatalf("failed transfer must not move funds, owner=%d", balanceOwner)
	}
}

func TestTransferFromInsufficientBalanceKeepsAllowance(t *testing.T) {
	service, _ := newLedger(t, 1000)
	ctx := context.Background()

	if err := service.Issue(ctx, "acct-issuer", "acct-owner", 10); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := service.Approve(ctx, "acct-owner", "acct-spender", 50); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	err := service.TransferFrom(ctx, "acct-spender", "acct-owner", "acct-dest", 20)
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	allowance, _ := service.Allowance(ctx, "acct-owner", "acct-spender")
	if allowance != 50 {
		t.Fatalf("failed transfer must not burn allowance, got %d", allowance)
	}
}

func TestRoleManagementRequiresAdmin(t *testing.T) {
	service, _ := newLedger(t, 1000)
	ctx := context.Background()

	err := service.GrantRole(ctx, "acct-user", ports.RoleIssuer, "acct-user")
	if !errors.Is(err, rbac.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := service.RevokeRole(ctx, "acct-admin", ports.RoleIssuer, "acct-issuer"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if err := service.Issue(ctx, "acct-issuer", "acct-user", 1); !errors.Is(err, rbac.ErrUnauthorized) {
		t.Fatalf("revoked issuer must not issue, got %v", err)
	}
}

func TestUnknownRoleRejected(t *testing.T) {
	service, _ := newLedger(t, 1000)
	err := service.GrantRole(context.Background(), "acct-admin", rbac.Role("ledger.superuser"), "acct-user")
	if !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestTokenInfo(t *testing.T) {
	service, _ := newLedger(t, 1000)
	info, err := service.Info(context.Background())
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.Name != "GreenLoop Credit" || info.Symbol != "GLC" || info.Decimals != 18 {
		t.Fatalf("unexpected token info: %+v", info)
	}
}
