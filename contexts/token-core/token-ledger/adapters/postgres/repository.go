package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	domainerrors "greenloop/contexts/token-core/token-ledger/domain/errors"
	"greenloop/contexts/token-core/token-ledger/ports"
	sharedevents "greenloop/internal/shared/events"
	"greenloop/internal/shared/outbox"
	"greenloop/internal/shared/rbac"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the ledger ports against postgres. Every mutation is
// one gorm transaction with the supply row locked FOR UPDATE, which serializes
// concurrent callers the way the memory store's mutex does.
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

func (r *Repository) TokenInfo(ctx context.Context) (ports.TokenInfo, error) {
	var cfg tokenConfigModel
	if err := r.db.WithContext(ctx).First(&cfg).Error; err != nil {
		return ports.TokenInfo{}, err
	}
	return ports.TokenInfo{Name: cfg.Name, Symbol: cfg.Symbol, Decimals: cfg.Decimals}, nil
}

func (r *Repository) Cap(ctx context.Context) (uint64, error) {
	var cfg tokenConfigModel
	if err := r.db.WithContext(ctx).First(&cfg).Error; err != nil {
		return 0, err
	}
	return cfg.Cap, nil
}

func (r *Repository) TotalSupply(ctx context.Context) (uint64, error) {
	var cfg tokenConfigModel
	if err := r.db.WithContext(ctx).First(&cfg).Error; err != nil {
		return 0, err
	}
	return cfg.TotalSupply, nil
}

func (r *Repository) BalanceOf(ctx context.Context, account string) (uint64, error) {
	var row balanceModel
	err := r.db.WithContext(ctx).Where("account = ?", account).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Balance, nil
}

func (r *Repository) Allowance(ctx context.Context, owner string, spender string) (uint64, error) {
	var row allowanceModel
	err := r.db.WithContext(ctx).
		Where("owner_account = ? AND spender_account = ?", owner, spender).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Allowance, nil
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

func (r *Repository) Issue(ctx context.Context, to string, amount uint64, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := lockSupply(tx)
		if err != nil {
			return err
		}
		if amount > math.MaxUint64-cfg.TotalSupply {
			return domainerrors.ErrAmountOverflow
		}
		post := cfg.TotalSupply + amount
		if post > cfg.Cap {
			return domainerrors.ErrCapExceeded
		}
		if err := creditBalance(tx, to, amount); err != nil {
			return err
		}
		if err := tx.Model(&tokenConfigModel{}).
			Where("id = ?", cfg.ID).
			Update("total_supply", post).Error; err != nil {
			return err
		}
		return appendOutbox(tx, "token.issued", to, at, map[string]any{
			"to":           to,
			"amount":       amount,
			"total_supply": post,
		})
	})
}

func (r *Repository) Retire(ctx context.Context, from string, amount uint64, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := lockSupply(tx)
		if err != nil {
			return err
		}
		if err := debitBalance(tx, from, amount); err != nil {
			return err
		}
		post := cfg.TotalSupply - amount
		if err := tx.Model(&tokenConfigModel{}).
			Where("id = ?", cfg.ID).
			Update("total_supply", post).Error; err != nil {
			return err
		}
		return appendOutbox(tx, "token.retired", from, at, map[string]any{
			"from":         from,
			"amount":       amount,
			"total_supply": post,
		})
	})
}

func (r *Repository) Transfer(ctx context.Context, from string, to string, amount uint64, _ time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSupply(tx); err != nil {
			return err
		}
		if err := debitBalance(tx, from, amount); err != nil {
			return err
		}
		return creditBalance(tx, to, amount)
	})
}

func (r *Repository) TransferFrom(ctx context.Context, spender string, from string, to string, amount uint64, _ time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSupply(tx); err != nil {
			return err
		}
		var allowance allowanceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_account = ? AND spender_account = ?", from, spender).
			First(&allowance).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && allowance.Allowance < amount) {
			return domainerrors.ErrInsufficientAllowance
		}
		if err != nil {
			return err
		}
		if err := debitBalance(tx, from, amount); err != nil {
			return err
		}
		if err := creditBalance(tx, to, amount); err != nil {
			return err
		}
		return tx.Model(&allowanceModel{}).
			Where("owner_account = ? AND spender_account = ?", from, spender).
			Update("allowance", allowance.Allowance-amount).Error
	})
}

func (r *Repository) Approve(ctx context.Context, owner string, spender string, amount uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_account"}, {Name: "spender_account"}},
			DoUpdates: clause.AssignmentColumns([]string{"allowance", "updated_at"}),
		}).
		Create(&allowanceModel{
			OwnerAccount:   owner,
			SpenderAccount: spender,
			Allowance:      amount,
			UpdatedAt:      at.UTC(),
		}).Error
}

func (r *Repository) GrantRole(ctx context.Context, role rbac.Role, account string, at time.Time) error {
	err := r.db.WithContext(ctx).Create(&roleGrantModel{
		Role:      string(role),
		Account:   account,
		GrantedAt: at.UTC(),
	}).Error
	if isUniqueViolation(err) {
		// Granting an already-held role is a no-op, matching the memory store.
		return nil
	}
	return err
}

func (r *Repository) RevokeRole(ctx context.Context, role rbac.Role, account string, _ time.Time) error {
	return r.db.WithContext(ctx).
		Where("role = ? AND account = ?", string(role), account).
		Delete(&roleGrantModel{}).Error
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

func lockSupply(tx *gorm.DB) (tokenConfigModel, error) {
	var cfg tokenConfigModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cfg).Error
	return cfg, err
}

func creditBalance(tx *gorm.DB, account string, amount uint64) error {
	var row balanceModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account = ?", account).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&balanceModel{Account: account, Balance: amount}).Error
	}
	if err != nil {
		return err
	}
	if row.Balance > math.MaxUint64-amount {
		return domainerrors.ErrAmountOverflow
	}
	return tx.Model(&balanceModel{}).
		Where("account = ?", account).
		Update("balance", row.Balance+amount).Error
}

func debitBalance(tx *gorm.DB, account string, amount uint64) error {
	var row balanceModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account = ?", account).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && row.Balance < amount) {
		return domainerrors.ErrInsufficientBalance
	}
	if err != nil {
		return err
	}
	return tx.Model(&balanceModel{}).
		Where("account = ?", account).
		Update("balance", row.Balance-amount).Error
}

func appendOutbox(tx *gorm.DB, eventType string, partitionKey string, at time.Time, payload map[string]any) error {
	eventID := uuid.NewString()
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

type tokenConfigModel struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	Name        string `gorm:"column:name"`
	Symbol      string `gorm:"column:symbol"`
	Decimals    int    `gorm:"column:decimals"`
	Cap         uint64 `gorm:"column:cap"`
	TotalSupply uint64 `gorm:"column:total_supply"`
}

func (tokenConfigModel) TableName() string {
	return "ledger_token_config"
}

type balanceModel struct {
	Account string `gorm:"column:account;primaryKey"`
	Balance uint64 `gorm:"column:balance"`
}

func (balanceModel) TableName() string {
	return "ledger_balances"
}

type allowanceModel struct {
	OwnerAccount   string    `gorm:"column:owner_account;primaryKey"`
	SpenderAccount string    `gorm:"column:spender_account;primaryKey"`
	Allowance      uint64    `gorm:"column:allowance"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (allowanceModel) TableName() string {
	return "ledger_allowances"
}

type roleGrantModel struct {
	Role      string    `gorm:"column:role;primaryKey"`
	Account   string    `gorm:"column:account;primaryKey"`
	GrantedAt time.Time `gorm:"column:granted_at"`
}

func (roleGrantModel) TableName() string {
	return "ledger_role_grants"
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
	return "ledger_outbox"
}
