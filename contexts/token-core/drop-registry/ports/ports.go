package ports

import (
	"context"
	"time"

	"greenloop/contexts/token-core/drop-registry/domain/entities"
	"greenloop/internal/shared/rbac"
)

// Registry roles. RoleAdmin manages the registry role table and owns the
// revoke/dispute transitions; RoleConfirmer may confirm drops.
const (
	RoleAdmin     = rbac.Role("drops.admin")
	RoleConfirmer = rbac.Role("drops.confirmer")
)

// TokenLedger is the registry's one-directional, immutable view of the
// ledger, satisfied by the token-ledger application service. caller is the
// registry's own operator account, which must hold the ledger issuer and
// burner roles. Retire serves the reversal path for a confirm whose record
// could not be written after issuance.
type TokenLedger interface {
	Issue(ctx context.Context, caller string, to string, amount uint64) error
	Retire(ctx context.Context, caller string, from string, amount uint64) error
}

// CreateDropInput carries the validated confirm payload into the repository.
// The repository assigns the next dense id, stores the record as issued, and
// appends the drop.recorded outbox row in the same critical section.
type CreateDropInput struct {
	User         string
	Amount       uint64
	Collector    string
	MetadataHash string
	RecordedAt   time.Time
}

// Repository owns drop records, the id counter, and the registry role table.
// Mutations are all-or-nothing; a failed precondition leaves every record and
// the counter untouched.
type Repository interface {
	rbac.Grants

	CreateDrop(ctx context.Context, input CreateDropInput) (entities.Drop, error)
	FillDrop(ctx context.Context, id uint64, input CreateDropInput) (entities.Drop, error)
	TransitionDrop(ctx context.Context, id uint64, target entities.DropStatus, reason string, at time.Time) (entities.Drop, error)
	GetDrop(ctx context.Context, id uint64) (entities.Drop, bool, error)
	DropCount(ctx context.Context) (uint64, error)

	GrantRole(ctx context.Context, role rbac.Role, account string, at time.Time) error
	RevokeRole(ctx context.Context, role rbac.Role, account string, at time.Time) error
}

type Clock interface {
	Now() time.Time
}
