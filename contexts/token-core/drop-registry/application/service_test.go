package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"greenloop/contexts/token-core/drop-registry/adapters/memory"
	"greenloop/contexts/token-core/drop-registry/domain/entities"
	domainerrors "greenloop/contexts/token-core/drop-registry/domain/errors"
	"greenloop/contexts/token-core/drop-registry/ports"
	"greenloop/internal/shared/rbac"
)

type issueCall struct {
	Caller string
	To     string
	Amount uint64
}

type fakeLedger struct {
	calls   []issueCall
	retires []issueCall
	err     error
}

func (f *fakeLedger) Issue(_ context.Context, caller string, to string, amount uint64) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, issueCall{Caller: caller, To: to, Amount: amount})
	return nil
}

func (f *fakeLedger) Retire(_ context.Context, caller string, from string, amount uint64) error {
	f.retires = append(f.retires, issueCall{Caller: caller, To: from, Amount: amount})
	return nil
}

func newRegistry(t *testing.T, ledger *fakeLedger) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore("acct-admin")
	service := Service{
		Repo:     store,
		Ledger:   ledger,
		Operator: "acct-registry",
		Clock:    store,
		Lock:     &sync.Mutex{},
	}
	if err := service.GrantRole(context.Background(), "acct-admin", ports.RoleConfirmer, "acct-collector"); err != nil {
		t.Fatalf("grant confirmer failed: %v", err)
	}
	return service, store
}

func TestConfirmRecordsDropAndIssues(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	drop, err := service.Confirm(ctx, "acct-collector", "acct-user", 50, "acct-collector", "hash-1")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if drop.ID != 1 || drop.Status != entities.DropStatusIssued {
		t.Fatalf("expected issued drop id=1, got id=%d status=%s", drop.ID, drop.Status)
	}
	if len(ledger.calls) != 1 {
		t.Fatalf("expected one ledger issue call, got %d", len(ledger.calls))
	}
	call := ledger.calls[0]
	if call.Caller != "acct-registry" || call.To != "acct-user" || call.Amount != 50 {
		t.Fatalf("unexpected issue call %+v", call)
	}
	count, _ := service.DropCount(ctx)
	if count != 1 {
		t.Fatalf("expected drop count 1, got %d", count)
	}
}

func TestConfirmAssignsDenseIDs(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		drop, err := service.Confirm(ctx, "acct-collector", "acct-user", 10, "acct-collector", "")
		if err != nil {
			t.Fatalf("confirm %d failed: %v", i, err)
		}
		if drop.ID != uint64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, drop.ID)
		}
	}
}

func TestConfirmZeroAmountFailsBeforeAnyEffect(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	_, err := service.Confirm(ctx, "acct-collector", "acct-user", 0, "acct-collector", "")
	if !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(ledger.calls) != 0 {
		t.Fatalf("expected no ledger calls, got %d", len(ledger.calls))
	}
	count, _ := service.DropCount(ctx)
	if count != 0 {
		t.Fatalf("expected drop count 0, got %d", count)
	}
}

func TestConfirmValidatesBeforeAuthorization(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)

	_, err := service.Confirm(context.Background(), "acct-stranger", "", 10, "acct-collector", "")
	if !errors.Is(err, domainerrors.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser before role check, got %v", err)
	}
}

func TestConfirmRequiresConfirmerRole(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)

	_, err := service.Confirm(context.Background(), "acct-stranger", "acct-user", 10, "acct-collector", "")
	if !errors.Is(err, rbac.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(ledger.calls) != 0 {
		t.Fatalf("expected no ledger calls, got %d", len(ledger.calls))
	}
}

func TestConfirmLedgerFailureLeavesCounterUnchanged(t *testing.T) {
	boom := errors.New("cap exceeded downstream")
	ledger := &fakeLedger{err: boom}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	_, err := service.Confirm(ctx, "acct-collector", "acct-user", 10, "acct-collector", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected ledger error to surface, got %v", err)
	}
	count, _ := service.DropCount(ctx)
	if count != 0 {
		t.Fatalf("expected drop count 0 after ledger failure, got %d", count)
	}
	drop, _ := service.GetDrop(ctx, 1)
	if drop.Status != entities.DropStatusUnknown {
		t.Fatalf("expected unknown drop after ledger failure, got %s", drop.Status)
	}
}

type faultyCreateRepo struct {
	ports.Repository
	createErr error
}

func (r faultyCreateRepo) CreateDrop(context.Context, ports.CreateDropInput) (entities.Drop, error) {
	return entities.Drop{}, r.createErr
}

func TestConfirmRecordFailureReversesIssuance(t *testing.T) {
	ledger := &fakeLedger{}
	service, store := newRegistry(t, ledger)
	service.Repo = faultyCreateRepo{Repository: service.Repo, createErr: errors.New("drop write refused")}
	ctx := context.Background()

	_, err := service.Confirm(ctx, "acct-collector", "acct-user", 40, "acct-hauler", "hash-1")
	if err == nil {
		t.Fatal("expected confirm to fail when the record cannot be written")
	}
	if len(ledger.calls) != 1 {
		t.Fatalf("expected one issuance, got %d", len(ledger.calls))
	}
	if len(ledger.retires) != 1 {
		t.Fatalf("expected the issuance to be reversed, got %d retirements", len(ledger.retires))
	}
	reversal := ledger.retires[0]
	if reversal.Caller != "acct-registry" || reversal.To != "acct-user" || reversal.Amount != 40 {
		t.Fatalf("unexpected reversal %+v", reversal)
	}
	count, _ := store.DropCount(ctx)
	if count != 0 {
		t.Fatalf("expected drop count 0 after failed confirm, got %d", count)
	}
}

func TestConfirmWithIDRejectsUncountedSlot(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	_, err := service.ConfirmWithID(ctx, "acct-collector", 1, "acct-user", 10, "acct-collector", "")
	if !errors.Is(err, domainerrors.ErrInvalidDropID) {
		t.Fatalf("expected ErrInvalidDropID for id beyond the counter, got %v", err)
	}
	_, err = service.ConfirmWithID(ctx, "acct-collector", 0, "acct-user", 10, "acct-collector", "")
	if !errors.Is(err, domainerrors.ErrInvalidDropID) {
		t.Fatalf("expected ErrInvalidDropID for id zero, got %v", err)
	}
}

func TestConfirmWithIDRejectsOccupiedSlot(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	if _, err := service.Confirm(ctx, "acct-collector", "acct-user", 10, "acct-collector", ""); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	_, err := service.ConfirmWithID(ctx, "acct-collector", 1, "acct-other", 20, "acct-collector", "")
	if !errors.Is(err, domainerrors.ErrDropSlotOccupied) {
		t.Fatalf("expected ErrDropSlotOccupied, got %v", err)
	}
	if len(ledger.calls) != 1 {
		t.Fatalf("expected only the first issue call, got %d", len(ledger.calls))
	}
}

func TestRevokeThenSecondTransitionFails(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	if _, err := service.Confirm(ctx, "acct-collector", "acct-user", 10, "acct-collector", ""); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	revoked, err := service.Revoke(ctx, "acct-admin", 1, "fraudulent weigh-in")
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked.Status != entities.DropStatusRevoked || revoked.Reason != "fraudulent weigh-in" {
		t.Fatalf("unexpected revoked record %+v", revoked)
	}

	_, err = service.Revoke(ctx, "acct-admin", 1, "again")
	if !errors.Is(err, domainerrors.ErrDropNotIssued) {
		t.Fatalf("expected ErrDropNotIssued on second revoke, got %v", err)
	}
	_, err = service.Dispute(ctx, "acct-admin", 1, "contested")
	if !errors.Is(err, domainerrors.ErrDropNotIssued) {
		t.Fatalf("expected ErrDropNotIssued on dispute after revoke, got %v", err)
	}
	drop, _ := service.GetDrop(ctx, 1)
	if drop.Status != entities.DropStatusRevoked || drop.Reason != "fraudulent weigh-in" {
		t.Fatalf("terminal record changed: %+v", drop)
	}
}

func TestDisputeMarksRecord(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	if _, err := service.Confirm(ctx, "acct-collector", "acct-user", 10, "acct-collector", ""); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	disputed, err := service.Dispute(ctx, "acct-admin", 1, "weight contested")
	if err != nil {
		t.Fatalf("dispute failed: %v", err)
	}
	if disputed.Status != entities.DropStatusDisputed {
		t.Fatalf("expected disputed status, got %s", disputed.Status)
	}
}

func TestTransitionRequiresAdminRole(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	if _, err := service.Confirm(ctx, "acct-collector", "acct-user", 10, "acct-collector", ""); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	_, err := service.Revoke(ctx, "acct-collector", 1, "not my call")
	if !errors.Is(err, rbac.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	drop, _ := service.GetDrop(ctx, 1)
	if drop.Status != entities.DropStatusIssued {
		t.Fatalf("record changed by unauthorized caller: %s", drop.Status)
	}
}

func TestGetDropUnknownSentinel(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	for _, id := range []uint64{0, 7} {
		drop, err := service.GetDrop(ctx, id)
		if err != nil {
			t.Fatalf("get drop %d failed: %v", id, err)
		}
		if drop.Status != entities.DropStatusUnknown || drop.ID != 0 || drop.Amount != 0 {
			t.Fatalf("expected unknown sentinel for id %d, got %+v", id, drop)
		}
	}
}

func TestRegistryRoleManagement(t *testing.T) {
	ledger := &fakeLedger{}
	service, _ := newRegistry(t, ledger)
	ctx := context.Background()

	if err := service.GrantRole(ctx, "acct-collector", ports.RoleConfirmer, "acct-other"); !errors.Is(err, rbac.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin grant, got %v", err)
	}
	if err := service.GrantRole(ctx, "acct-admin", rbac.Role("drops.bogus"), "acct-other"); !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := service.RevokeRole(ctx, "acct-admin", ports.RoleConfirmer, "acct-collector"); err != nil {
		t.Fatalf("revoke role failed: %v", err)
	}
	granted, err := service.HasRole(ctx, ports.RoleConfirmer, "acct-collector")
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if granted {
		t.Fatal("expected confirmer role revoked")
	}
}
