package tokenledger

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	httpadapter "humanity/contexts/finance-core/token-ledger/adapters/http"
	"humanity/contexts/finance-core/token-ledger/adapters/memory"
	postgresadapter "humanity/contexts/finance-core/token-ledger/adapters/postgres"
	"humanity/contexts/finance-core/token-ledger/application"
	"humanity/contexts/finance-core/token-ledger/domain/entities"
	"humanity/contexts/finance-core/token-ledger/domain/services"
	"humanity/contexts/finance-core/token-ledger/ports"
	"humanity/internal/shared/txn"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
	Repo    *postgresadapter.Repository
}

type Dependencies struct {
	Tokens  ports.TokenRepository
	Hooks   ports.HookRegistry
	Tx      ports.Transactor
	Guard   services.TransferGuard
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	guard := deps.Guard
	if guard.CapBasisPoints == 0 {
		guard = services.NewTransferGuard()
	}
	service := application.Service{
		Tokens:  deps.Tokens,
		Hooks:   deps.Hooks,
		Tx:      deps.Tx,
		Guard:   guard,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

type InMemoryOptions struct {
	Token  entities.Token
	Holder common.Address
	// Coordinator, when set, receives the store as a rollback participant so
	// ledger writes join units of work started by other contexts.
	Coordinator *txn.Coordinator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func NewInMemoryModule(opts InMemoryOptions) Module {
	store := memory.NewStore(opts.Token, opts.Holder)
	coordinator := opts.Coordinator
	if coordinator == nil {
		coordinator = txn.NewCoordinator()
	}
	coordinator.Register(txn.SnapshotResource(store))

	module := NewModule(Dependencies{
		Tokens:  store,
		Hooks:   store,
		Tx:      coordinator,
		Metrics: opts.Metrics,
		Logger:  opts.Logger,
	})
	module.Store = store
	return module
}

type PersistentOptions struct {
	DB     *gorm.DB
	Token  entities.Token
	Holder common.Address
	// Coordinator must already carry a txn.GormResource for DB so ledger
	// writes share the transaction of the surrounding unit of work.
	Coordinator *txn.Coordinator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

// NewPersistentModule migrates the ledger tables and mints the supply to
// Holder the first time the token is stored. Later calls reopen the stored
// balances as they are.
func NewPersistentModule(ctx context.Context, opts PersistentOptions) (Module, error) {
	repo := postgresadapter.NewRepository(opts.DB, opts.Token.Address, opts.Logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		return Module{}, err
	}
	if _, err := repo.Seed(ctx, opts.Token, opts.Holder); err != nil {
		return Module{}, err
	}
	coordinator := opts.Coordinator
	if coordinator == nil {
		coordinator = txn.NewCoordinator(txn.GormResource(opts.DB, 0))
	}
	module := NewModule(Dependencies{
		Tokens:  repo,
		Hooks:   repo,
		Tx:      coordinator,
		Metrics: opts.Metrics,
		Logger:  opts.Logger,
	})
	module.Repo = repo
	return module, nil
}

// HumanityToken returns the HMN token definition with the default supply.
func HumanityToken(address common.Address, owner common.Address) entities.Token {
	return entities.Token{
		Address:     address,
		Name:        "Humanity Coin",
		Symbol:      "HMN",
		Decimals:    18,
		Owner:       owner,
		TotalSupply: entities.DefaultSupply(),
	}
}
