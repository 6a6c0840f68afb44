package rbac

import (
	"context"
	"errors"
	"strings"
)

// Role is a named capability bound to accounts on one component instance.
// Each token-core module owns its own role table; the tag namespaces the
// module ("ledger.issuer", "market.lister", ...).
type Role string

// Grants is the capability-set lookup every mutating operation consults.
// Memory and postgres repositories implement it against their own role table.
type Grants interface {
	HasRole(ctx context.Context, role Role, account string) (bool, error)
}

var (
	ErrUnauthorized   = errors.New("caller lacks required role")
	ErrInvalidAccount = errors.New("account must not be empty")
	ErrInvalidRole    = errors.New("role must not be empty")
)

// Require is the single authorization gate. It fails closed: lookup errors
// propagate, absent grants return ErrUnauthorized, and no mutation may run
// before it returns nil.
func Require(ctx context.Context, grants Grants, role Role, account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return ErrInvalidAccount
	}
	ok, err := grants.HasRole(ctx, role, account)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
