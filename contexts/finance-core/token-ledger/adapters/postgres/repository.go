package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"humanity/contexts/finance-core/token-ledger/domain/entities"
	domainerrors "humanity/contexts/finance-core/token-ledger/domain/errors"
	"humanity/contexts/finance-core/token-ledger/ports"
	"humanity/internal/shared/txn"
)

// Repository persists one token's flags, balances and allowances. Calls made
// inside a unit of work started by a txn.GormResource on the same database
// run on that transaction.
type Repository struct {
	db     *gorm.DB
	token  common.Address
	logger *slog.Logger

	mu    sync.RWMutex
	hooks map[common.Address]ports.ReceiveHook
}

func NewRepository(db *gorm.DB, token common.Address, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		token:  token,
		logger: logger,
		hooks:  map[common.Address]ports.ReceiveHook{},
	}
}

func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&tokenModel{}, &balanceModel{}, &allowanceModel{}); err != nil {
		return r.logError("ledger_repo_auto_migrate_failed", err)
	}
	return nil
}

// Seed writes the token row and mints its supply to holder the first time the
// token is seen. A token that already exists is left untouched and Seed
// reports false.
func (r *Repository) Seed(ctx context.Context, token entities.Token, holder common.Address) (bool, error) {
	if token.Address != r.token {
		return false, domainerrors.ErrInvalidInput
	}
	seeded := false
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing tokenModel
		err := tx.Where("address = ?", r.token.Hex()).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row := tokenModelFromEntity(token)
		row.UpdatedAt = time.Now().UTC()
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Create(&balanceModel{
			Token:   r.token.Hex(),
			Account: holder.Hex(),
			Amount:  row.TotalSupply,
		}).Error; err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, r.logError("ledger_repo_seed_failed", err, "holder", holder.Hex())
	}
	return seeded, nil
}

func (r *Repository) Token(ctx context.Context) (entities.Token, error) {
	var row tokenModel
	err := r.conn(ctx).Where("address = ?", r.token.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Token{}, domainerrors.ErrTokenNotFound
		}
		return entities.Token{}, r.logError("ledger_repo_load_token_failed", err)
	}
	token, err := row.toEntity()
	if err != nil {
		return entities.Token{}, r.logError("ledger_repo_decode_token_failed", err)
	}
	return token, nil
}

func (r *Repository) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	return r.balance(ctx, r.conn(ctx), account)
}

func (r *Repository) Allowance(ctx context.Context, owner common.Address, spender common.Address) (*uint256.Int, error) {
	var row allowanceModel
	err := r.conn(ctx).
		Where("token = ? AND owner = ? AND spender = ?", r.token.Hex(), owner.Hex(), spender.Hex()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uint256.NewInt(0), nil
		}
		return nil, r.logError("ledger_repo_load_allowance_failed", err,
			"owner", owner.Hex(),
			"spender", spender.Hex(),
		)
	}
	amount, err := uint256.FromDecimal(row.Amount)
	if err != nil {
		return nil, r.logError("ledger_repo_decode_allowance_failed", err,
			"owner", owner.Hex(),
			"spender", spender.Hex(),
		)
	}
	return amount, nil
}

func (r *Repository) Move(ctx context.Context, from common.Address, to common.Address, amount *uint256.Int) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		fromBalance, err := r.balance(ctx, tx, from)
		if err != nil {
			return err
		}
		if fromBalance.Lt(amount) {
			return domainerrors.ErrInsufficientBalance
		}
		if from == to {
			return nil
		}
		toBalance, err := r.balance(ctx, tx, to)
		if err != nil {
			return err
		}
		if err := r.putBalance(tx, from, new(uint256.Int).Sub(fromBalance, amount)); err != nil {
			return err
		}
		return r.putBalance(tx, to, new(uint256.Int).Add(toBalance, amount))
	})
}

func (r *Repository) SetAllowance(ctx context.Context, owner common.Address, spender common.Address, amount *uint256.Int) error {
	row := allowanceModel{
		Token:   r.token.Hex(),
		Owner:   owner.Hex(),
		Spender: spender.Hex(),
		Amount:  amount.Dec(),
	}
	if err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}, {Name: "owner"}, {Name: "spender"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&row).Error; err != nil {
		return r.logError("ledger_repo_set_allowance_failed", err,
			"owner", row.Owner,
			"spender", row.Spender,
		)
	}
	return nil
}

func (r *Repository) SetRouter(ctx context.Context, router common.Address) error {
	return r.updateToken(ctx, "ledger_repo_set_router_failed", map[string]any{"router": router.Hex()})
}

func (r *Repository) SetPaused(ctx context.Context, paused bool) error {
	return r.updateToken(ctx, "ledger_repo_set_paused_failed", map[string]any{"paused": paused})
}

// RegisterReceiveHook attaches code to account. Hooks live in process memory
// and are not persisted.
func (r *Repository) RegisterReceiveHook(account common.Address, hook ports.ReceiveHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hook == nil {
		delete(r.hooks, account)
		return
	}
	r.hooks[account] = hook
}

func (r *Repository) ReceiveHook(account common.Address) (ports.ReceiveHook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hook, ok := r.hooks[account]
	return hook, ok
}

func (r *Repository) updateToken(ctx context.Context, event string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.conn(ctx).
		Model(&tokenModel{}).
		Where("address = ?", r.token.Hex()).
		Updates(fields)
	if result.Error != nil {
		return r.logError(event, result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTokenNotFound
	}
	return nil
}

func (r *Repository) balance(_ context.Context, db *gorm.DB, account common.Address) (*uint256.Int, error) {
	var row balanceModel
	err := db.
		Where("token = ? AND account = ?", r.token.Hex(), account.Hex()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uint256.NewInt(0), nil
		}
		return nil, r.logError("ledger_repo_load_balance_failed", err, "account", account.Hex())
	}
	amount, err := uint256.FromDecimal(row.Amount)
	if err != nil {
		return nil, r.logError("ledger_repo_decode_balance_failed", err, "account", account.Hex())
	}
	return amount, nil
}

func (r *Repository) putBalance(db *gorm.DB, account common.Address, amount *uint256.Int) error {
	row := balanceModel{
		Token:   r.token.Hex(),
		Account: account.Hex(),
		Amount:  amount.Dec(),
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}, {Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&row).Error; err != nil {
		return r.logError("ledger_repo_put_balance_failed", err, "account", row.Account)
	}
	return nil
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return txn.GormConn(ctx, r.db)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+10)
	fields = append(fields,
		"event", event,
		"module", "finance-core/token-ledger",
		"layer", "adapter",
		"token", r.token.Hex(),
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

type tokenModel struct {
	Address     string    `gorm:"column:address;primaryKey"`
	Name        string    `gorm:"column:name"`
	Symbol      string    `gorm:"column:symbol"`
	Decimals    uint8     `gorm:"column:decimals"`
	Owner       string    `gorm:"column:owner"`
	Router      string    `gorm:"column:router"`
	Paused      bool      `gorm:"column:paused"`
	TotalSupply string    `gorm:"column:total_supply"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (tokenModel) TableName() string {
	return "hmn_ledger_tokens"
}

func tokenModelFromEntity(token entities.Token) tokenModel {
	supply := "0"
	if token.TotalSupply != nil {
		supply = token.TotalSupply.Dec()
	}
	return tokenModel{
		Address:     token.Address.Hex(),
		Name:        token.Name,
		Symbol:      token.Symbol,
		Decimals:    token.Decimals,
		Owner:       token.Owner.Hex(),
		Router:      token.Router.Hex(),
		Paused:      token.Paused,
		TotalSupply: supply,
	}
}

func (m tokenModel) toEntity() (entities.Token, error) {
	supply, err := uint256.FromDecimal(m.TotalSupply)
	if err != nil {
		return entities.Token{}, err
	}
	return entities.Token{
		Address:     common.HexToAddress(m.Address),
		Name:        m.Name,
		Symbol:      m.Symbol,
		Decimals:    m.Decimals,
		Owner:       common.HexToAddress(m.Owner),
		Router:      common.HexToAddress(m.Router),
		Paused:      m.Paused,
		TotalSupply: supply,
	}, nil
}

type balanceModel struct {
	Token   string `gorm:"column:token;primaryKey"`
	Account string `gorm:"column:account;primaryKey"`
	Amount  string `gorm:"column:amount"`
}

func (balanceModel) TableName() string {
	return "hmn_ledger_balances"
}

type allowanceModel struct {
	Token   string `gorm:"column:token;primaryKey"`
	Owner   string `gorm:"column:owner;primaryKey"`
	Spender string `gorm:"column:spender;primaryKey"`
	Amount  string `gorm:"column:amount"`
}

func (allowanceModel) TableName() string {
	return "hmn_ledger_allowances"
}

var _ ports.TokenRepository = (*Repository)(nil)
var _ ports.HookRegistry = (*Repository)(nil)
