package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainerrors "greenloop/contexts/token-core/token-ledger/domain/errors"
	"greenloop/contexts/token-core/token-ledger/ports"
	"greenloop/internal/shared/rbac"
)

// Service exposes the ledger operations. Mutations validate inputs first,
// then pass the shared rbac gate, then hand the whole effect set to the
// repository as one all-or-nothing write.
type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

// Issue credits freshly issued units to an account. Caller must hold the
// issuer role. The repository rejects any issuance whose post-operation total
// supply would exceed the cap.
func (s Service) Issue(ctx context.Context, caller string, to string, amount uint64) error {
	if strings.TrimSpace(to) == "" {
		return domainerrors.ErrInvalidAccount
	}
	if amount == 0 {
		return domainerrors.ErrInvalidAmount
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleIssuer, caller); err != nil {
		return err
	}

	if err := s.Repo.Issue(ctx, strings.TrimSpace(to), amount, s.now()); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("tokens issued",
		"event", "ledger_tokens_issued",
		"module", "token-core/token-ledger",
		"layer", "application",
		"caller", caller,
		"to", strings.TrimSpace(to),
		"amount", amount,
	)
	return nil
}

// Retire burns units from an account and shrinks total supply. Caller must
// hold the burner role.
func (s Service) Retire(ctx context.Context, caller string, from string, amount uint64) error {
	if strings.TrimSpace(from) == "" {
		return domainerrors.ErrInvalidAccount
	}
	if amount == 0 {
		return domainerrors.ErrInvalidAmount
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleBurner, caller); err != nil {
		return err
	}

	if err := s.Repo.Retire(ctx, strings.TrimSpace(from), amount, s.now()); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("tokens retired",
		"event", "ledger_tokens_retired",
		"module", "token-core/token-ledger",
		"layer", "application",
		"caller", caller,
		"from", strings.TrimSpace(from),
		"amount", amount,
	)
	return nil
}

// Transfer moves units from the caller's own balance. No role required.
func (s Service) Transfer(ctx context.Context, caller string, to string, amount uint64) error {
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(to) == "" {
		return domainerrors.ErrInvalidAccount
	}
	if amount == 0 {
		return domainerrors.ErrInvalidAmount
	}
	return s.Repo.Transfer(ctx, strings.TrimSpace(caller), strings.TrimSpace(to), amount, s.now())
}

// TransferFrom moves units on behalf of the owner against a pre-established
// allowance. Balance and allowance are checked and decremented in the same
// exclusive write.
func (s Service) TransferFrom(ctx context.Context, caller string, from string, to string, amount uint64) error {
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return domainerrors.ErrInvalidAccount
	}
	if amount == 0 {
		return domainerrors.ErrInvalidAmount
	}
	return s.Repo.TransferFrom(ctx, strings.TrimSpace(caller), strings.TrimSpace(from), strings.TrimSpace(to), amount, s.now())
}

// Approve sets the spender's allowance over the caller's balance to an
// absolute value. Zero is a valid value and clears the allowance.
func (s Service) Approve(ctx context.Context, caller string, spender string, amount uint64) error {
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(spender) == "" {
		return domainerrors.ErrInvalidAccount
	}
	return s.Repo.Approve(ctx, strings.TrimSpace(caller), strings.TrimSpace(spender), amount, s.now())
}

func (s Service) GrantRole(ctx context.Context, caller string, role rbac.Role, account string) error {
	if strings.TrimSpace(account) == "" {
		return domainerrors.ErrInvalidAccount
	}
	if !knownRole(role) {
		return domainerrors.ErrInvalidRole
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleAdmin, caller); err != nil {
		return err
	}
	if err := s.Repo.GrantRole(ctx, role, strings.TrimSpace(account), s.now()); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("ledger role granted",
		"event", "ledger_role_granted",
		"module", "token-core/token-ledger",
		"layer", "application",
		"caller", caller,
		"role", string(role),
		"account", strings.TrimSpace(account),
	)
	return nil
}

func (s Service) RevokeRole(ctx context.Context, caller string, role rbac.Role, account string) error {
	if strings.TrimSpace(account) == "" {
		return domainerrors.ErrInvalidAccount
	}
	if !knownRole(role) {
		return domainerrors.ErrInvalidRole
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleAdmin, caller); err != nil {
		return err
	}
	if err := s.Repo.RevokeRole(ctx, role, strings.TrimSpace(account), s.now()); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("ledger role revoked",
		"event", "ledger_role_revoked",
		"module", "token-core/token-ledger",
		"layer", "application",
		"caller", caller,
		"role", string(role),
		"account", strings.TrimSpace(account),
	)
	return nil
}

func (s Service) BalanceOf(ctx context.Context, account string) (uint64, error) {
	if strings.TrimSpace(account) == "" {
		return 0, domainerrors.ErrInvalidAccount
	}
	return s.Repo.BalanceOf(ctx, strings.TrimSpace(account))
}

func (s Service) Allowance(ctx context.Context, owner string, spender string) (uint64, error) {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(spender) == "" {
		return 0, domainerrors.ErrInvalidAccount
	}
	return s.Repo.Allowance(ctx, strings.TrimSpace(owner), strings.TrimSpace(spender))
}

func (s Service) TotalSupply(ctx context.Context) (uint64, error) {
	return s.Repo.TotalSupply(ctx)
}

func (s Service) Cap(ctx context.Context) (uint64, error) {
	return s.Repo.Cap(ctx)
}

func (s Service) HasRole(ctx context.Context, role rbac.Role, account string) (bool, error) {
	if strings.TrimSpace(account) == "" {
		return false, nil
	}
	return s.Repo.HasRole(ctx, role, strings.TrimSpace(account))
}

func (s Service) Info(ctx context.Context) (ports.TokenInfo, error) {
	return s.Repo.TokenInfo(ctx)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func knownRole(role rbac.Role) bool {
	switch role {
	case ports.RoleAdmin, ports.RoleIssuer, ports.RoleBurner:
		return true
	default:
		return false
	}
}
