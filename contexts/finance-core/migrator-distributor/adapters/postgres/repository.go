package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
	"humanity/contexts/finance-core/migrator-distributor/ports"
	"humanity/internal/shared/txn"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository stores the distributor state row and its outbox. It joins a
// txn.Coordinator as a resource: Begin opens a gorm transaction that every
// call made with the returned context reuses, including calls to other
// repositories on the same database that read it through txn.GormConn.
type Repository struct {
	db          *gorm.DB
	distributor common.Address
	owner       common.Address
	logger      *slog.Logger
}

func NewRepository(db *gorm.DB, distributor common.Address, owner common.Address, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:          db,
		distributor: distributor,
		owner:       owner,
		logger:      logger,
	}
}

func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&distributorStateModel{}, &distributorOutboxModel{}); err != nil {
		return r.logError("hmn_repo_auto_migrate_failed", err)
	}
	return nil
}

func (r *Repository) Begin(ctx context.Context) (context.Context, txn.Handle, error) {
	next, handle, err := txn.GormResource(r.db, 0).Begin(ctx)
	if err != nil {
		return ctx, nil, r.logError("hmn_repo_begin_failed", err)
	}
	return next, handle, nil
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return txn.GormConn(ctx, r.db)
}

// LoadState returns the stored row, or a fresh state owned by the configured
// owner when none has been written yet.
func (r *Repository) LoadState(ctx context.Context) (entities.State, error) {
	var row distributorStateModel
	err := r.conn(ctx).
		Where("distributor = ?", r.distributor.Hex()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.NewState(r.distributor, r.owner), nil
		}
		return entities.State{}, r.logError("hmn_repo_load_state_failed", err,
			"distributor", r.distributor.Hex(),
		)
	}
	state, err := row.toEntity()
	if err != nil {
		return entities.State{}, r.logError("hmn_repo_decode_state_failed", err,
			"distributor", r.distributor.Hex(),
		)
	}
	return state, nil
}

func (r *Repository) SaveState(ctx context.Context, state entities.State) error {
	if state.Distributor != r.distributor {
		r.logWarn("hmn_repo_save_state_foreign_distributor",
			"distributor", state.Distributor.Hex(),
		)
		return domainerrors.ErrInvalidInput
	}
	row := distributorStateModelFromEntity(state)
	if err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "distributor"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return r.logError("hmn_repo_save_state_failed", err,
			"distributor", row.Distributor,
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("hmn_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := distributorOutboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if createResult.Error != nil {
		if isUniqueViolation(createResult.Error) {
			return domainerrors.ErrInvalidInput
		}
		return r.logError("hmn_repo_append_outbox_insert_failed", createResult.Error,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing distributorOutboxModel
	if err := r.conn(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return r.logError("hmn_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		r.logWarn("hmn_repo_append_outbox_payload_conflict",
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []distributorOutboxModel
	if err := r.conn(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("hmn_repo_list_pending_outbox_failed", err,
			"limit", limit,
		)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.conn(ctx).
		Model(&distributorOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("hmn_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("hmn_repo_mark_outbox_published_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "finance-core/migrator-distributor",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("hmn repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"module", "finance-core/migrator-distributor",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("hmn repository warning", fields...)
}

type distributorStateModel struct {
	Distributor    string    `gorm:"column:distributor;primaryKey"`
	Owner          string    `gorm:"column:owner"`
	SwapTriggerBp  uint64    `gorm:"column:swap_trigger_bp"`
	PurchaseTaxBp  uint64    `gorm:"column:purchase_tax_bp"`
	SalesTaxBp     uint64    `gorm:"column:sales_tax_bp"`
	SwapTrigger    string    `gorm:"column:swap_trigger_address"`
	PurchaseTax    string    `gorm:"column:purchase_tax_address"`
	SalesTax       string    `gorm:"column:sales_tax_address"`
	NewToken       string    `gorm:"column:new_token"`
	OldToken       string    `gorm:"column:old_token"`
	ReserveBalance string    `gorm:"column:reserve_balance"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (distributorStateModel) TableName() string {
	return "hmn_distributor_state"
}

func distributorStateModelFromEntity(state entities.State) distributorStateModel {
	reserve := "0"
	if state.ReserveBalance != nil {
		reserve = state.ReserveBalance.Dec()
	}
	return distributorStateModel{
		Distributor:    state.Distributor.Hex(),
		Owner:          state.Owner.Hex(),
		SwapTriggerBp:  state.Tax.SwapTriggerBp,
		PurchaseTaxBp:  state.Tax.PurchaseTaxBp,
		SalesTaxBp:     state.Tax.SalesTaxBp,
		SwapTrigger:    state.Beneficiaries.SwapTrigger.Hex(),
		PurchaseTax:    state.Beneficiaries.PurchaseTax.Hex(),
		SalesTax:       state.Beneficiaries.SalesTax.Hex(),
		NewToken:       state.Pair.NewToken.Hex(),
		OldToken:       state.Pair.OldToken.Hex(),
		ReserveBalance: reserve,
		UpdatedAt:      state.UpdatedAt.UTC(),
	}
}

func (m distributorStateModel) toEntity() (entities.State, error) {
	reserve, err := uint256.FromDecimal(m.ReserveBalance)
	if err != nil {
		return entities.State{}, err
	}
	return entities.State{
		Distributor: common.HexToAddress(m.Distributor),
		Owner:       common.HexToAddress(m.Owner),
		Tax: entities.TaxConfig{
			SwapTriggerBp: m.SwapTriggerBp,
			PurchaseTaxBp: m.PurchaseTaxBp,
			SalesTaxBp:    m.SalesTaxBp,
		},
		Beneficiaries: entities.Beneficiaries{
			SwapTrigger: common.HexToAddress(m.SwapTrigger),
			PurchaseTax: common.HexToAddress(m.PurchaseTax),
			SalesTax:    common.HexToAddress(m.SalesTax),
		},
		Pair: entities.TokenPair{
			NewToken: common.HexToAddress(m.NewToken),
			OldToken: common.HexToAddress(m.OldToken),
		},
		ReserveBalance: reserve,
		UpdatedAt:      m.UpdatedAt.UTC(),
	}, nil
}

type distributorOutboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (distributorOutboxModel) TableName() string {
	return "hmn_distributor_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.StateRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ txn.Resource = (*Repository)(nil)
