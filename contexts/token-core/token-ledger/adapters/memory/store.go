package memory

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "greenloop/contexts/token-core/token-ledger/domain/errors"
	"greenloop/contexts/token-core/token-ledger/ports"
	sharedevents "greenloop/internal/shared/events"
	"greenloop/internal/shared/outbox"
	"greenloop/internal/shared/rbac"

	"github.com/google/uuid"
)

// Config fixes the immutable ledger parameters at construction time. Admin
// receives the administrative role before the store is visible to callers;
// every later grant goes through the ledger operations.
type Config struct {
	Name     string
	Symbol   string
	Decimals int
	Cap      uint64
	Admin    string
}

// Store keeps the full ledger state behind one mutex so that every mutation
// is a single exclusive critical section.
type Store struct {
	mu sync.RWMutex

	info        ports.TokenInfo
	cap         uint64
	totalSupply uint64
	balances    map[string]uint64
	allowances  map[string]map[string]uint64
	roles       map[rbac.Role]map[string]bool
	outbox      map[string]outboxRecord
}

type outboxRecord struct {
	Message     outbox.Message
	Status      string
	PublishedAt *time.Time
}

func NewStore(cfg Config) *Store {
	s := &Store{
		info: ports.TokenInfo{
			Name:     cfg.Name,
			Symbol:   cfg.Symbol,
			Decimals: cfg.Decimals,
		},
		cap:        cfg.Cap,
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
		roles:      make(map[rbac.Role]map[string]bool),
		outbox:     make(map[string]outboxRecord),
	}
	if admin := strings.TrimSpace(cfg.Admin); admin != "" {
		s.roles[ports.RoleAdmin] = map[string]bool{admin: true}
	}
	return s
}

func (s *Store) TokenInfo(_ context.Context) (ports.TokenInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info, nil
}

func (s *Store) Cap(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cap, nil
}

func (s *Store) TotalSupply(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSupply, nil
}

func (s *Store) BalanceOf(_ context.Context, account string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *Store) Allowance(_ context.Context, owner string, spender string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allowances[owner][spender], nil
}

func (s *Store) HasRole(_ context.Context, role rbac.Role, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[role][account], nil
}

func (s *Store) Issue(_ context.Context, to string, amount uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount > math.MaxUint64-s.totalSupply {
		return domainerrors.ErrAmountOverflow
	}
	// Post-operation total against the cap; a pre-check on the current supply
	// alone would admit an amount that lands exactly past the cap.
	post := s.totalSupply + amount
	if post > s.cap {
		return domainerrors.ErrCapExceeded
	}

	s.balances[to] += amount
	s.totalSupply = post
	s.appendOutbox("token.issued", to, at, map[string]any{
		"to":           to,
		"amount":       amount,
		"total_supply": s.totalSupply,
	})
	return nil
}

func (s *Store) Retire(_ context.Context, from string, amount uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balances[from] < amount {
		return domainerrors.ErrInsufficientBalance
	}

	s.balances[from] -= amount
	if s.balances[from] == 0 {
		delete(s.balances, from)
	}
	s.totalSupply -= amount
	s.appendOutbox("token.retired", from, at, map[string]any{
		"from":         from,
		"amount":       amount,
		"total_supply": s.totalSupply,
	})
	return nil
}

func (s *Store) Transfer(_ context.Context, from string, to string, amount uint64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(from, to, amount)
}

func (s *Store) TransferFrom(_ context.Context, spender string, from string, to string, amount uint64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := s.allowances[from][spender]
	if allowed < amount {
		return domainerrors.ErrInsufficientAllowance
	}
	if err := s.move(from, to, amount); err != nil {
		return err
	}
	s.allowances[from][spender] = allowed - amount
	return nil
}

// move assumes the caller holds the write lock.
func (s *Store) move(from string, to string, amount uint64) error {
	if s.balances[from] < amount {
		return domainerrors.ErrInsufficientBalance
	}
	if s.balances[to] > math.MaxUint64-amount {
		return domainerrors.ErrAmountOverflow
	}
	s.balances[from] -= amount
	if s.balances[from] == 0 {
		delete(s.balances, from)
	}
	s.balances[to] += amount
	return nil
}

func (s *Store) Approve(_ context.Context, owner string, spender string, amount uint64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allowances[owner] == nil {
		s.allowances[owner] = make(map[string]uint64)
	}
	s.allowances[owner][spender] = amount
	return nil
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

// appendOutbox assumes the caller holds the write lock; the outbox row lands
// in the same critical section as the state change it describes.
func (s *Store) appendOutbox(eventType string, partitionKey string, at time.Time, payload map[string]any) {
	eventID := uuid.NewString()
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
