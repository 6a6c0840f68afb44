package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"greenloop/contexts/token-core/listing-exchange/domain/entities"
	domainerrors "greenloop/contexts/token-core/listing-exchange/domain/errors"
	"greenloop/contexts/token-core/listing-exchange/ports"
	sharedevents "greenloop/internal/shared/events"
	"greenloop/internal/shared/outbox"
	"greenloop/internal/shared/rbac"

	"github.com/google/uuid"
)

// Store keeps listing records, the dense id counter, and the exchange role
// table behind one mutex.
type Store struct {
	mu sync.RWMutex

	listings     map[uint64]entities.Listing
	listingCount uint64
	roles        map[rbac.Role]map[string]bool
	outbox       map[string]outboxRecord
}

type outboxRecord struct {
	Message     outbox.Message
	Status      string
	PublishedAt *time.Time
}

// NewStore seeds the exchange with its administrative account. Operational
// grants (lister) go through the exchange role operations afterwards.
func NewStore(admin string) *Store {
	s := &Store{
		listings: make(map[uint64]entities.Listing),
		roles:    make(map[rbac.Role]map[string]bool),
		outbox:   make(map[string]outboxRecord),
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

func (s *Store) CreateListing(_ context.Context, input ports.CreateListingInput) (entities.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.listingCount + 1
	listing := entities.Listing{
		ID:           id,
		Seller:       input.Seller,
		Quantity:     input.Quantity,
		PricePerUnit: input.PricePerUnit,
		MetaHash:     input.MetaHash,
		Active:       true,
		CreatedAt:    input.CreatedAt.UTC(),
		UpdatedAt:    input.CreatedAt.UTC(),
	}
	s.listings[id] = listing
	s.listingCount = id
	s.appendOutbox("listing.created", id, input.CreatedAt, map[string]any{
		"listing_id":     id,
		"seller":         listing.Seller,
		"quantity":       listing.Quantity,
		"price_per_unit": listing.PricePerUnit,
		"meta_hash":      listing.MetaHash,
	})
	return listing, nil
}

func (s *Store) DeactivateListing(_ context.Context, id uint64, at time.Time) (entities.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.activeListing(id)
	if err != nil {
		return entities.Listing{}, err
	}
	listing.Active = false
	listing.UpdatedAt = at.UTC()
	s.listings[id] = listing
	s.appendOutbox("listing.cancelled", id, at, map[string]any{
		"listing_id": id,
		"seller":     listing.Seller,
	})
	return listing, nil
}

func (s *Store) ApplyPurchase(_ context.Context, id uint64, buyer string, quantity uint64, total uint64, at time.Time) (entities.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.activeListing(id)
	if err != nil {
		return entities.Listing{}, err
	}
	if quantity > listing.Quantity {
		return entities.Listing{}, domainerrors.ErrQuantityExceedsRemaining
	}

	listing.Quantity -= quantity
	if listing.Quantity == 0 {
		listing.Active = false
	}
	listing.UpdatedAt = at.UTC()
	s.listings[id] = listing
	s.appendOutbox("listing.bought", id, at, map[string]any{
		"listing_id": id,
		"buyer":      buyer,
		"seller":     listing.Seller,
		"quantity":   quantity,
		"total":      total,
		"remaining":  listing.Quantity,
	})
	return listing, nil
}

func (s *Store) GetListing(_ context.Context, id uint64) (entities.Listing, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	return listing, ok, nil
}

func (s *Store) ListingCount(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listingCount, nil
}

func (s *Store) activeListing(id uint64) (entities.Listing, error) {
	if id == 0 || id > s.listingCount {
		return entities.Listing{}, domainerrors.ErrInvalidListingID
	}
	listing, ok := s.listings[id]
	if !ok {
		return entities.Listing{}, domainerrors.ErrExchangeInconsistent
	}
	if !listing.Active {
		return entities.Listing{}, domainerrors.ErrListingNotActive
	}
	return listing, nil
}

func (s *Store) appendOutbox(eventType string, listingID uint64, at time.Time, payload map[string]any) {
	eventID := uuid.NewString()
	partitionKey := strconv.FormatUint(listingID, 10)
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
