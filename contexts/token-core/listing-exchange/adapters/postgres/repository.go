package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"greenloop/contexts/token-core/listing-exchange/domain/entities"
	domainerrors "greenloop/contexts/token-core/listing-exchange/domain/errors"
	"greenloop/contexts/token-core/listing-exchange/ports"
	sharedevents "greenloop/internal/shared/events"
	"greenloop/internal/shared/outbox"
	"greenloop/internal/shared/rbac"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the exchange ports against postgres. The dense id
// counter lives in its own row and is locked FOR UPDATE by every listing
// mutation, which serializes creates the way the memory store's mutex does.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) HasRole(ctx context.Context, role rbac.Role, account string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&roleGrantModel{}).
		Where("role = ? AND account = ?", string(role), account).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) GrantRole(ctx context.Context, role rbac.Role, account string, at time.Time) error {
	err := r.db.WithContext(ctx).Create(&roleGrantModel{
		Role:      string(role),
		Account:   account,
		GrantedAt: at.UTC(),
	}).Error
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *Repository) RevokeRole(ctx context.Context, role rbac.Role, account string, _ time.Time) error {
	return r.db.WithContext(ctx).
		Where("role = ? AND account = ?", string(role), account).
		Delete(&roleGrantModel{}).Error
}

func (r *Repository) CreateListing(ctx context.Context, input ports.CreateListingInput) (entities.Listing, error) {
	var created entities.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter, err := lockCounter(tx)
		if err != nil {
			return err
		}
		id := counter.ListingCount + 1
		row := listingModel{
			ListingID:    id,
			Seller:       input.Seller,
			Quantity:     input.Quantity,
			PricePerUnit: input.PricePerUnit,
			MetaHash:     input.MetaHash,
			Active:       true,
			CreatedAt:    input.CreatedAt.UTC(),
			UpdatedAt:    input.CreatedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&counterModel{}).
			Where("id = ?", counter.ID).
			Update("listing_count", id).Error; err != nil {
			return err
		}
		if err := appendOutbox(tx, "listing.created", id, input.CreatedAt, map[string]any{
			"listing_id":     id,
			"seller":         input.Seller,
			"quantity":       input.Quantity,
			"price_per_unit": input.PricePerUnit,
			"meta_hash":      input.MetaHash,
		}); err != nil {
			return err
		}
		created = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Listing{}, err
	}
	return created, nil
}

func (r *Repository) DeactivateListing(ctx context.Context, id uint64, at time.Time) (entities.Listing, error) {
	var cancelled entities.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockActiveListing(tx, id)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"active":     false,
			"updated_at": at.UTC(),
		}
		if err := tx.Model(&listingModel{}).Where("listing_id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := appendOutbox(tx, "listing.cancelled", id, at, map[string]any{
			"listing_id": id,
			"seller":     row.Seller,
		}); err != nil {
			return err
		}
		row.Active = false
		row.UpdatedAt = at.UTC()
		cancelled = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Listing{}, err
	}
	return cancelled, nil
}

func (r *Repository) ApplyPurchase(ctx context.Context, id uint64, buyer string, quantity uint64, total uint64, at time.Time) (entities.Listing, error) {
	var updated entities.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockActiveListing(tx, id)
		if err != nil {
			return err
		}
		if quantity > row.Quantity {
			return domainerrors.ErrQuantityExceedsRemaining
		}
		remaining := row.Quantity - quantity
		updates := map[string]any{
			"quantity":   remaining,
			"active":     remaining > 0,
			"updated_at": at.UTC(),
		}
		if err := tx.Model(&listingModel{}).Where("listing_id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := appendOutbox(tx, "listing.bought", id, at, map[string]any{
			"listing_id": id,
			"buyer":      buyer,
			"seller":     row.Seller,
			"quantity":   quantity,
			"total":      total,
			"remaining":  remaining,
		}); err != nil {
			return err
		}
		row.Quantity = remaining
		row.Active = remaining > 0
		row.UpdatedAt = at.UTC()
		updated = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Listing{}, err
	}
	return updated, nil
}

func (r *Repository) GetListing(ctx context.Context, id uint64) (entities.Listing, bool, error) {
	var row listingModel
	err := r.db.WithContext(ctx).Where("listing_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Listing{}, false, nil
	}
	if err != nil {
		return entities.Listing{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListingCount(ctx context.Context) (uint64, error) {
	var counter counterModel
	if err := r.db.WithContext(ctx).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.ListingCount, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		}).Error
}

func lockCounter(tx *gorm.DB) (counterModel, error) {
	var counter counterModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&counter).Error
	return counter, err
}

func lockActiveListing(tx *gorm.DB, id uint64) (listingModel, error) {
	counter, err := lockCounter(tx)
	if err != nil {
		return listingModel{}, err
	}
	if id == 0 || id > counter.ListingCount {
		return listingModel{}, domainerrors.ErrInvalidListingID
	}
	var row listingModel
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("listing_id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return listingModel{}, domainerrors.ErrExchangeInconsistent
	}
	if err != nil {
		return listingModel{}, err
	}
	if !row.Active {
		return listingModel{}, domainerrors.ErrListingNotActive
	}
	return row, nil
}

func appendOutbox(tx *gorm.DB, eventType string, listingID uint64, at time.Time, payload map[string]any) error {
	eventID := uuid.NewString()
	partitionKey := strconv.FormatUint(listingID, 10)
	envelope, err := sharedevents.New(eventID, eventType, at, partitionKey, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return tx.Create(&outboxModel{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		Status:       outbox.StatusPending,
		CreatedAt:    at.UTC(),
	}).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type counterModel struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	ListingCount uint64 `gorm:"column:listing_count"`
}

func (counterModel) TableName() string {
	return "exchange_counter"
}

type listingModel struct {
	ListingID    uint64    `gorm:"column:listing_id;primaryKey"`
	Seller       string    `gorm:"column:seller"`
	Quantity     uint64    `gorm:"column:quantity"`
	PricePerUnit uint64    `gorm:"column:price_per_unit"`
	MetaHash     string    `gorm:"column:meta_hash"`
	Active       bool      `gorm:"column:active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (listingModel) TableName() string {
	return "listings"
}

func (m listingModel) toEntity() entities.Listing {
	return entities.Listing{
		ID:           m.ListingID,
		Seller:       m.Seller,
		Quantity:     m.Quantity,
		PricePerUnit: m.PricePerUnit,
		MetaHash:     m.MetaHash,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type roleGrantModel struct {
	Role      string    `gorm:"column:role;primaryKey"`
	Account   string    `gorm:"column:account;primaryKey"`
	GrantedAt time.Time `gorm:"column:granted_at"`
}

func (roleGrantModel) TableName() string {
	return "exchange_role_grants"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "exchange_outbox"
}
