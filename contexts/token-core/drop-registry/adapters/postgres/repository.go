package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"greenloop/contexts/token-core/drop-registry/domain/entities"
	domainerrors "greenloop/contexts/token-core/drop-registry/domain/errors"
	"greenloop/contexts/token-core/drop-registry/ports"
	sharedevents "greenloop/internal/shared/events"
	"greenloop/internal/shared/outbox"
	"greenloop/internal/shared/rbac"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the registry ports against postgres. The dense id
// counter lives in its own row and is locked FOR UPDATE by every record
// mutation, which serializes confirms the way the memory store's mutex does.
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

func (r *Repository) CreateDrop(ctx context.Context, input ports.CreateDropInput) (entities.Drop, error) {
	var created entities.Drop
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter, err := lockCounter(tx)
		if err != nil {
			return err
		}
		id := counter.DropCount + 1
		row := dropModel{
			DropID:       id,
			UserAccount:  input.User,
			Amount:       input.Amount,
			Collector:    input.Collector,
			MetadataHash: input.MetadataHash,
			Status:       string(entities.DropStatusIssued),
			RecordedAt:   input.RecordedAt.UTC(),
			UpdatedAt:    input.RecordedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&counterModel{}).
			Where("id = ?", counter.ID).
			Update("drop_count", id).Error; err != nil {
			return err
		}
		if err := appendOutbox(tx, "drop.recorded", id, input.RecordedAt, map[string]any{
			"drop_id":       id,
			"user":          input.User,
			"amount":        input.Amount,
			"collector":     input.Collector,
			"metadata_hash": input.MetadataHash,
		}); err != nil {
			return err
		}
		created = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Drop{}, err
	}
	return created, nil
}

func (r *Repository) FillDrop(ctx context.Context, id uint64, input ports.CreateDropInput) (entities.Drop, error) {
	var filled entities.Drop
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter, err := lockCounter(tx)
		if err != nil {
			return err
		}
		if id == 0 || id > counter.DropCount {
			return domainerrors.ErrInvalidDropID
		}
		var existing dropModel
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("drop_id = ?", id).
			First(&existing).Error
		if err == nil && existing.Status != string(entities.DropStatusUnknown) {
			return domainerrors.ErrDropSlotOccupied
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row := dropModel{
			DropID:       id,
			UserAccount:  input.User,
			Amount:       input.Amount,
			Collector:    input.Collector,
			MetadataHash: input.MetadataHash,
			Status:       string(entities.DropStatusIssued),
			RecordedAt:   input.RecordedAt.UTC(),
			UpdatedAt:    input.RecordedAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "drop_id"}},
			UpdateAll: true,
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := appendOutbox(tx, "drop.recorded", id, input.RecordedAt, map[string]any{
			"drop_id":       id,
			"user":          input.User,
			"amount":        input.Amount,
			"collector":     input.Collector,
			"metadata_hash": input.MetadataHash,
		}); err != nil {
			return err
		}
		filled = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Drop{}, err
	}
	return filled, nil
}

func (r *Repository) TransitionDrop(ctx context.Context, id uint64, target entities.DropStatus, reason string, at time.Time) (entities.Drop, error) {
	var transitioned entities.Drop
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter, err := lockCounter(tx)
		if err != nil {
			return err
		}
		if id == 0 || id > counter.DropCount {
			return domainerrors.ErrInvalidDropID
		}
		var row dropModel
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("drop_id = ?", id).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrRegistryInconsistent
		}
		if err != nil {
			return err
		}
		if row.Status != string(entities.DropStatusIssued) {
			return domainerrors.ErrDropNotIssued
		}
		updates := map[string]any{
			"status":     string(target),
			"reason":     reason,
			"updated_at": at.UTC(),
		}
		if err := tx.Model(&dropModel{}).Where("drop_id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := appendOutbox(tx, "drop."+string(target), id, at, map[string]any{
			"drop_id": id,
			"reason":  reason,
		}); err != nil {
			return err
		}
		row.Status = string(target)
		row.Reason = reason
		row.UpdatedAt = at.UTC()
		transitioned = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Drop{}, err
	}
	return transitioned, nil
}

func (r *Repository) GetDrop(ctx context.Context, id uint64) (entities.Drop, bool, error) {
	var row dropModel
	err := r.db.WithContext(ctx).Where("drop_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Drop{}, false, nil
	}
	if err != nil {
		return entities.Drop{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) DropCount(ctx context.Context) (uint64, error) {
	var counter counterModel
	if err := r.db.WithContext(ctx).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.DropCount, nil
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

func appendOutbox(tx *gorm.DB, eventType string, dropID uint64, at time.Time, payload map[string]any) error {
	eventID := uuid.NewString()
	partitionKey := strconv.FormatUint(dropID, 10)
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
	ID        int64  `gorm:"column:id;primaryKey"`
	DropCount uint64 `gorm:"column:drop_count"`
}

func (counterModel) TableName() string {
	return "drop_registry_counter"
}

type dropModel struct {
	DropID       uint64    `gorm:"column:drop_id;primaryKey"`
	UserAccount  string    `gorm:"column:user_account"`
	Amount       uint64    `gorm:"column:amount"`
	Collector    string    `gorm:"column:collector"`
	MetadataHash string    `gorm:"column:metadata_hash"`
	Status       string    `gorm:"column:status"`
	Reason       string    `gorm:"column:reason"`
	RecordedAt   time.Time `gorm:"column:recorded_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (dropModel) TableName() string {
	return "drops"
}

func (m dropModel) toEntity() entities.Drop {
	return entities.Drop{
		ID:           m.DropID,
		User:         m.UserAccount,
		Amount:       m.Amount,
		Collector:    m.Collector,
		MetadataHash: m.MetadataHash,
		Status:       entities.DropStatus(m.Status),
		Reason:       m.Reason,
		RecordedAt:   m.RecordedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type roleGrantModel struct {
	Role      string    `gorm:"column:role;primaryKey"`
	Account   string    `gorm:"column:account;primaryKey"`
	GrantedAt time.Time `gorm:"column:granted_at"`
}

func (roleGrantModel) TableName() string {
	return "drop_registry_role_grants"
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
	return "drop_registry_outbox"
}
