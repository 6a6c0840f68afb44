package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"greenloop/contexts/token-core/drop-registry/domain/entities"
	domainerrors "greenloop/contexts/token-core/drop-registry/domain/errors"
	"greenloop/contexts/token-core/drop-registry/ports"
	"greenloop/internal/shared/rbac"
)

// Service drives the drop state machine:
// unknown —confirm→ issued —revoke/dispute→ terminal.
//
// Confirm composes two effects, the ledger issuance and the registry record.
// The ledger is called first; only after it succeeds does the repository
// assign the next id and store the record, so a failed issuance never
// advances the counter. A record write that fails after issuance succeeded
// is reversed by retiring the just-issued amount.
type Service struct {
	Repo ports.Repository
	// Ledger and Operator are fixed at construction. Operator is the
	// registry's own ledger account and must hold the ledger issuer and
	// burner roles.
	Ledger   ports.TokenLedger
	Operator string
	Clock    ports.Clock
	Logger   *slog.Logger
	// Lock makes each mutating operation one exclusive critical section,
	// covering the nested ledger call and the record write together. Module
	// wiring always provides it.
	Lock *sync.Mutex
}

// Confirm validates the drop, mints ledger credit for the user, and stores
// the issued record. Caller must hold the confirmer role. Fail-fast: every
// check runs before any mutation.
func (s Service) Confirm(ctx context.Context, caller string, user string, amount uint64, collector string, metadataHash string) (entities.Drop, error) {
	if err := validateDropInput(user, amount, collector); err != nil {
		return entities.Drop{}, err
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleConfirmer, caller); err != nil {
		return entities.Drop{}, err
	}

	user = strings.TrimSpace(user)
	s.lock()
	defer s.unlock()
	if err := s.Ledger.Issue(ctx, s.Operator, user, amount); err != nil {
		return entities.Drop{}, err
	}
	drop, err := s.Repo.CreateDrop(ctx, ports.CreateDropInput{
		User:         user,
		Amount:       amount,
		Collector:    strings.TrimSpace(collector),
		MetadataHash: strings.TrimSpace(metadataHash),
		RecordedAt:   s.now(),
	})
	if err != nil {
		s.reverseIssuance(ctx, user, amount)
		return entities.Drop{}, err
	}

	ResolveLogger(s.Logger).Info("drop confirmed",
		"event", "drop_confirmed",
		"module", "token-core/drop-registry",
		"layer", "application",
		"drop_id", drop.ID,
		"user", drop.User,
		"amount", drop.Amount,
		"collector", drop.Collector,
	)
	return drop, nil
}

// ConfirmWithID fills an already reserved slot below the current counter.
// The slot must exist (1 <= id <= dropCount) and still be in unknown status.
// The confirm path above records every new drop as issued in the same step
// that advances the counter, so no operation in this module can produce such
// a slot; the precondition is preserved as specified rather than widened.
func (s Service) ConfirmWithID(ctx context.Context, caller string, id uint64, user string, amount uint64, collector string, metadataHash string) (entities.Drop, error) {
	if err := validateDropInput(user, amount, collector); err != nil {
		return entities.Drop{}, err
	}
	if id == 0 {
		return entities.Drop{}, domainerrors.ErrInvalidDropID
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleConfirmer, caller); err != nil {
		return entities.Drop{}, err
	}

	s.lock()
	defer s.unlock()
	count, err := s.Repo.DropCount(ctx)
	if err != nil {
		return entities.Drop{}, err
	}
	if id > count {
		return entities.Drop{}, domainerrors.ErrInvalidDropID
	}
	existing, found, err := s.Repo.GetDrop(ctx, id)
	if err != nil {
		return entities.Drop{}, err
	}
	if found && existing.Status != entities.DropStatusUnknown {
		return entities.Drop{}, domainerrors.ErrDropSlotOccupied
	}

	user = strings.TrimSpace(user)
	if err := s.Ledger.Issue(ctx, s.Operator, user, amount); err != nil {
		return entities.Drop{}, err
	}
	drop, err := s.Repo.FillDrop(ctx, id, ports.CreateDropInput{
		User:         user,
		Amount:       amount,
		Collector:    strings.TrimSpace(collector),
		MetadataHash: strings.TrimSpace(metadataHash),
		RecordedAt:   s.now(),
	})
	if err != nil {
		s.reverseIssuance(ctx, user, amount)
		return entities.Drop{}, err
	}

	ResolveLogger(s.Logger).Info("reserved drop slot confirmed",
		"event", "drop_confirmed_with_id",
		"module", "token-core/drop-registry",
		"layer", "application",
		"drop_id", drop.ID,
		"user", drop.User,
		"amount", drop.Amount,
	)
	return drop, nil
}

// Revoke marks an issued drop as revoked. Terminal; already-issued balance is
// not clawed back.
func (s Service) Revoke(ctx context.Context, caller string, id uint64, reason string) (entities.Drop, error) {
	return s.transition(ctx, caller, id, entities.DropStatusRevoked, reason)
}

// Dispute marks an issued drop as disputed. Terminal, like Revoke.
func (s Service) Dispute(ctx context.Context, caller string, id uint64, reason string) (entities.Drop, error) {
	return s.transition(ctx, caller, id, entities.DropStatusDisputed, reason)
}

func (s Service) transition(ctx context.Context, caller string, id uint64, target entities.DropStatus, reason string) (entities.Drop, error) {
	if id == 0 {
		return entities.Drop{}, domainerrors.ErrInvalidDropID
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleAdmin, caller); err != nil {
		return entities.Drop{}, err
	}

	s.lock()
	defer s.unlock()
	drop, err := s.Repo.TransitionDrop(ctx, id, target, strings.TrimSpace(reason), s.now())
	if err != nil {
		return entities.Drop{}, err
	}
	ResolveLogger(s.Logger).Info("drop status transitioned",
		"event", "drop_"+string(target),
		"module", "token-core/drop-registry",
		"layer", "application",
		"drop_id", drop.ID,
		"status", string(drop.Status),
		"reason", drop.Reason,
	)
	return drop, nil
}

// GetDrop returns the stored record, or the unknown sentinel (all-zero
// fields, status unknown) for ids that were never assigned.
func (s Service) GetDrop(ctx context.Context, id uint64) (entities.Drop, error) {
	if id == 0 {
		return unknownDrop(), nil
	}
	drop, found, err := s.Repo.GetDrop(ctx, id)
	if err != nil {
		return entities.Drop{}, err
	}
	if !found {
		return unknownDrop(), nil
	}
	return drop, nil
}

func (s Service) DropCount(ctx context.Context) (uint64, error) {
	return s.Repo.DropCount(ctx)
}

func (s Service) GrantRole(ctx context.Context, caller string, role rbac.Role, account string) error {
	if strings.TrimSpace(account) == "" {
		return domainerrors.ErrInvalidRoleAccount
	}
	if !knownRole(role) {
		return domainerrors.ErrInvalidRole
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleAdmin, caller); err != nil {
		return err
	}
	s.lock()
	defer s.unlock()
	return s.Repo.GrantRole(ctx, role, strings.TrimSpace(account), s.now())
}

func (s Service) RevokeRole(ctx context.Context, caller string, role rbac.Role, account string) error {
	if strings.TrimSpace(account) == "" {
		return domainerrors.ErrInvalidRoleAccount
	}
	if !knownRole(role) {
		return domainerrors.ErrInvalidRole
	}
	if err := rbac.Require(ctx, s.Repo, ports.RoleAdmin, caller); err != nil {
		return err
	}
	s.lock()
	defer s.unlock()
	return s.Repo.RevokeRole(ctx, role, strings.TrimSpace(account), s.now())
}

func (s Service) HasRole(ctx context.Context, role rbac.Role, account string) (bool, error) {
	if strings.TrimSpace(account) == "" {
		return false, nil
	}
	return s.Repo.HasRole(ctx, role, strings.TrimSpace(account))
}

// reverseIssuance retires credit that was issued for a confirm whose record
// could not be written. A failed reversal is logged for operator follow-up.
func (s Service) reverseIssuance(ctx context.Context, user string, amount uint64) {
	if err := s.Ledger.Retire(ctx, s.Operator, user, amount); err != nil {
		ResolveLogger(s.Logger).Error("issuance reversal failed",
			"event", "issuance_reversal_failed",
			"module", "token-core/drop-registry",
			"layer", "application",
			"user", user,
			"amount", amount,
			"error", err,
		)
	}
}

func (s Service) lock() {
	if s.Lock != nil {
		s.Lock.Lock()
	}
}

func (s Service) unlock() {
	if s.Lock != nil {
		s.Lock.Unlock()
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func unknownDrop() entities.Drop {
	return entities.Drop{Status: entities.DropStatusUnknown}
}

func validateDropInput(user string, amount uint64, collector string) error {
	if strings.TrimSpace(user) == "" {
		return domainerrors.ErrInvalidUser
	}
	if amount == 0 {
		return domainerrors.ErrInvalidAmount
	}
	if strings.TrimSpace(collector) == "" {
		return domainerrors.ErrInvalidCollector
	}
	return nil
}

func knownRole(role rbac.Role) bool {
	switch role {
	case ports.RoleAdmin, ports.RoleConfirmer:
		return true
	default:
		return false
	}
}
