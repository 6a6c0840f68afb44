package ports

import (
	"context"
	"time"

	"greenloop/internal/shared/rbac"
)

// Ledger roles. RoleAdmin may grant and revoke every ledger role, including
// itself; losing the last admin grant permanently strands role management.
const (
	RoleAdmin  = rbac.Role("ledger.admin")
	RoleIssuer = rbac.Role("ledger.issuer")
	RoleBurner = rbac.Role("ledger.burner")
)

// TokenInfo is display metadata only. Decimals is an external rendering
// convention; every amount in the ledger is an integer count of the smallest
// indivisible unit.
type TokenInfo struct {
	Name     string
	Symbol   string
	Decimals int
}

// Repository owns balances, supply, allowances, and the ledger role table.
// Every mutating method runs as one exclusive critical section and leaves all
// state untouched when it returns an error.
type Repository interface {
	rbac.Grants

	TokenInfo(ctx context.Context) (TokenInfo, error)
	Cap(ctx context.Context) (uint64, error)
	TotalSupply(ctx context.Context) (uint64, error)
	BalanceOf(ctx context.Context, account string) (uint64, error)
	Allowance(ctx context.Context, owner string, spender string) (uint64, error)

	Issue(ctx context.Context, to string, amount uint64, at time.Time) error
	Retire(ctx context.Context, from string, amount uint64, at time.Time) error
	Transfer(ctx context.Context, from string, to string, amount uint64, at time.Time) error
	TransferFrom(ctx context.Context, spender string, from string, to string, amount uint64, at time.Time) error
	Approve(ctx context.Context, owner string, spender string, amount uint64, at time.Time) error

	GrantRole(ctx context.Context, role rbac.Role, account string, at time.Time) error
	RevokeRole(ctx context.Context, role rbac.Role, account string, at time.Time) error
}

type Clock interface {
	Now() time.Time
}
