package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"greenloop/contexts/token-core/drop-registry/domain/entities"
	domainerrors "greenloop/contexts/token-core/drop-registry/domain/errors"
	"greenloop/contexts/token-core/drop-registry/ports"
	sharedevents "greenloop/internal/shared/events"
	"greenloop/internal/shared/outbox"
	"greenloop/internal/shared/rbac"

	"github.com/google/uuid"
)

// Store keeps drop records, the dense id counter, and the registry role
// table behind one mutex.
type Store struct {
	mu sync.RWMutex

	drops     map[uint64]entities.Drop
	dropCount uint64
	roles     map[rbac.Role]map[string]bool
	outbox    map[string]outboxRecord
}

type outboxRecord struct {
	Message     outbox.Message
	Status      string
	PublishedAt *time.Time
}

// NewStore seeds the registry with its administrative account. Operational
// grants (confirmer) go through the registry role operations afterwards.
func NewStore(admin string) *Store {
	s := &Store{
		drops:  make(map[uint64]entities.Drop),
		roles:  make(map[rbac.Role]map[string]bool),
		outbox: make(map[string]outboxRecord),
	}
	if admin = strings.TrimSpace(admin); admin != "" {
		s.roles[ports.RoleAdmin] = map[string]bool{admin: true}
	}
	return s
}

func (s *Store) HasRole(_ context.Context, role rbac.Role, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[role][account], nil
}

func (s *Store) GrantRole(_ context.Context, role rbac.Role, account string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[role] == nil {
		s.roles[role] = make(map[string]bool)
	}
	s.roles[role][account] = true
	return nil
}

func (s *Store) RevokeRole(_ context.Context, role rbac.Role, account string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles[role], account)
	return nil
}

func (s *Store) CreateDrop(_ context.Context, input ports.CreateDropInput) (entities.Drop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.dropCount + 1
	drop := entities.Drop{
		ID:           id,
		User:         input.User,
		Amount:       input.Amount,
		Collector:    input.Collector,
		MetadataHash: input.MetadataHash,
		Status:       entities.DropStatusIssued,
		RecordedAt:   input.RecordedAt.UTC(),
		UpdatedAt:    input.RecordedAt.UTC(),
	}
	s.drops[id] = drop
	s.dropCount = id
	s.appendOutbox("drop.recorded", id, input.RecordedAt, map[string]any{
		"drop_id":       id,
		"user":          drop.User,
		"amount":        drop.Amount,
		"collector":     drop.Collector,
		"metadata_hash": drop.MetadataHash,
	})
	return drop, nil
}

func (s *Store) FillDrop(_ context.Context, id uint64, input ports.CreateDropInput) (entities.Drop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == 0 || id > s.dropCount {
		return entities.Drop{}, domainerrors.ErrInvalidDropID
	}
	if existing, ok := s.drops[id]; ok && existing.Status != entities.DropStatusUnknown {
		return entities.Drop{}, domainerrors.ErrDropSlotOccupied
	}
	drop := entities.Drop{
		ID:           id,
		User:         input.User,
		Amount:       input.Amount,
		Collector:    input.Collector,
		MetadataHash: input.MetadataHash,
		Status:       entities.DropStatusIssued,
		RecordedAt:   input.RecordedAt.UTC(),
		UpdatedAt:    input.RecordedAt.UTC(),
	}
	s.drops[id] = drop
	s.appendOutbox("drop.recorded", id, input.RecordedAt, map[string]any{
		"drop_id":       id,
		"user":          drop.User,
		"amount":        drop.Amount,
		"collector":     drop.Collector,
		"metadata_hash": drop.MetadataHash,
	})
	return drop, nil
}

func (s *Store) TransitionDrop(_ context.Context, id uint64, target entities.DropStatus, reason string, at time.Time) (entities.Drop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == 0 || id > s.dropCount {
		return entities.Drop{}, domainerrors.ErrInvalidDropID
	}
	drop, ok := s.drops[id]
	if !ok {
		return entities.Drop{}, domainerrors.ErrRegistryInconsistent
	}
	if !drop.Transitionable() {
		return entities.Drop{}, domainerrors.ErrDropNotIssued
	}

	drop.Status = target
	drop.Reason = reason
	drop.UpdatedAt = at.UTC()
	s.drops[id] = drop
	s.appendOutbox("drop."+string(target), id, at, map[string]any{
		"drop_id": id,
		"reason":  reason,
	})
	return drop, nil
}

func (s *Store) GetDrop(_ context.Context, id uint64) (entities.Drop, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drop, ok := s.drops[id]
	return drop, ok, nil
}

func (s *Store) DropCount(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropCount, nil
}

func (s *Store) appendOutbox(eventType string, dropID uint64, at time.Time, payload map[string]any) {
	eventID := uuid.NewString()
	partitionKey := strconv.FormatUint(dropID, 10)
	envelope, err := sharedevents.New(eventID, eventType, at, partitionKey, payload)
	if err != nil {
		return
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	s.outbox[eventID] = outboxRecord{
		Message: outbox.Message{
			OutboxID:     eventID,
			EventType:    eventType,
			PartitionKey: partitionKey,
			Payload:      raw,
			CreatedAt:    at.UTC(),
		},
		Status: outbox.StatusPending,
	}
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]outbox.Message, 0)
	for _, row := range s.outbox {
		if row.Status == outbox.StatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[outboxID]
	if !ok {
		return nil
	}
	ts := publishedAt.UTC()
	row.Status = outbox.StatusPublished
	row.PublishedAt = &ts
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
