package migratordistributor

import (
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	httpadapter "humanity/contexts/finance-core/migrator-distributor/adapters/http"
	"humanity/contexts/finance-core/migrator-distributor/adapters/memory"
	"humanity/contexts/finance-core/migrator-distributor/application"
	"humanity/contexts/finance-core/migrator-distributor/application/commands"
	"humanity/contexts/finance-core/migrator-distributor/application/queries"
	"humanity/contexts/finance-core/migrator-distributor/application/workers"
	"humanity/contexts/finance-core/migrator-distributor/ports"
	"humanity/internal/shared/txn"
)

type Module struct {
	Handler httpadapter.Handler
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	State       ports.StateRepository
	Outbox      ports.OutboxWriter
	OutboxRepo  ports.OutboxRepository
	Publisher   ports.EventPublisher
	Ledgers     ports.LedgerDirectory
	Tx          ports.Transactor
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	// FeeDistributor and Migrate share one guard.
	guard := &application.ReentrancyGuard{}
	return Module{
		Handler: httpadapter.Handler{
			ConfigureTax: commands.ConfigureTaxAndSwapUseCase{
				State:       deps.State,
				Tx:          deps.Tx,
				Outbox:      deps.Outbox,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			ConfigureAddresses: commands.ConfigureAddressesUseCase{
				State:       deps.State,
				Tx:          deps.Tx,
				Outbox:      deps.Outbox,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			SetTokenPair: commands.SetTokenPairUseCase{
				State:       deps.State,
				Tx:          deps.Tx,
				Outbox:      deps.Outbox,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			AddToReserve: commands.AddToReserveUseCase{
				State:       deps.State,
				Ledgers:     deps.Ledgers,
				Tx:          deps.Tx,
				Outbox:      deps.Outbox,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Metrics:     deps.Metrics,
				Logger:      deps.Logger,
			},
			DistributeFees: commands.DistributeFeesUseCase{
				State:       deps.State,
				Ledgers:     deps.Ledgers,
				Tx:          deps.Tx,
				Guard:       guard,
				Outbox:      deps.Outbox,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Metrics:     deps.Metrics,
				Logger:      deps.Logger,
			},
			Migrate: commands.MigrateUseCase{
				State:       deps.State,
				Ledgers:     deps.Ledgers,
				Tx:          deps.Tx,
				Guard:       guard,
				Outbox:      deps.Outbox,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Metrics:     deps.Metrics,
				Logger:      deps.Logger,
			},
			GetState: queries.GetStateUseCase{
				State:  deps.State,
				Logger: deps.Logger,
			},
			Logger: deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// Sweeper builds the periodic fee distribution job over tokens, run on
// behalf of caller.
func (m Module) Sweeper(caller common.Address, tokens []common.Address, logger *slog.Logger) workers.FeeSweeper {
	return workers.FeeSweeper{
		Distribute: m.Handler.DistributeFees,
		Caller:     caller,
		Tokens:     append([]common.Address(nil), tokens...),
		Logger:     logger,
	}
}

type InMemoryOptions struct {
	Distributor common.Address
	Owner       common.Address
	Ledgers     ports.LedgerDirectory
	// Coordinator must be the one the ledgers' stores are registered with so
	// ledger writes and distributor state commit or roll back together.
	Coordinator *txn.Coordinator
	Publisher   ports.EventPublisher
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func NewInMemoryModule(opts InMemoryOptions) Module {
	store := memory.NewStore(opts.Distributor, opts.Owner)
	coordinator := opts.Coordinator
	if coordinator == nil {
		coordinator = txn.NewCoordinator()
	}
	coordinator.Register(txn.SnapshotResource(store))

	module := NewModule(Dependencies{
		State:       store,
		Outbox:      store,
		OutboxRepo:  store,
		Publisher:   opts.Publisher,
		Ledgers:     opts.Ledgers,
		Tx:          coordinator,
		Clock:       store,
		IDGenerator: store,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
	})
	module.Store = store
	return module
}
