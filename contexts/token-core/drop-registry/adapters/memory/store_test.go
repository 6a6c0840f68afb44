package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"greenloop/contexts/token-core/drop-registry/domain/entities"
	domainerrors "greenloop/contexts/token-core/drop-registry/domain/errors"
	"greenloop/contexts/token-core/drop-registry/ports"
	contractsv1 "greenloop/contracts/gen/events/v1"
)

func TestCreateDropAppendsRecordedEvent(t *testing.T) {
	store := NewStore("acct-admin")
	ctx := context.Background()

	drop, err := store.CreateDrop(ctx, ports.CreateDropInput{
		User:       "acct-user",
		Amount:     25,
		Collector:  "acct-collector",
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create drop failed: %v", err)
	}
	if drop.ID != 1 {
		t.Fatalf("expected id 1, got %d", drop.ID)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending row, got %d", len(pending))
	}
	var envelope contractsv1.Envelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("unmarshal envelope failed: %v", err)
	}
	if envelope.EventType != "drop.recorded" || envelope.PartitionKey != "1" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestTransitionAppendsStatusEvent(t *testing.T) {
	store := NewStore("acct-admin")
	ctx := context.Background()

	if _, err := store.CreateDrop(ctx, ports.CreateDropInput{
		User:       "acct-user",
		Amount:     25,
		Collector:  "acct-collector",
		RecordedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create drop failed: %v", err)
	}
	if _, err := store.TransitionDrop(ctx, 1, entities.DropStatusRevoked, "bad weigh-in", time.Now().UTC()); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("expected two pending rows, got %d", len(pending))
	}
	if pending[1].EventType != "drop.revoked" {
		t.Fatalf("expected drop.revoked, got %s", pending[1].EventType)
	}

	if err := store.MarkOutboxPublished(ctx, pending[0].OutboxID, time.Now().UTC()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, _ = store.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("expected one pending row after publish, got %d", len(pending))
	}
}

func TestFailedTransitionLeavesStoreUntouched(t *testing.T) {
	store := NewStore("acct-admin")
	ctx := context.Background()

	_, err := store.TransitionDrop(ctx, 5, entities.DropStatusRevoked, "nothing there", time.Now().UTC())
	if !errors.Is(err, domainerrors.ErrInvalidDropID) {
		t.Fatalf("expected ErrInvalidDropID, got %v", err)
	}
	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected no outbox rows, got %d", len(pending))
	}
	count, _ := store.DropCount(ctx)
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
}
