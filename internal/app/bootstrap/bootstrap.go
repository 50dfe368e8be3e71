package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	migratordistributor "humanity/contexts/finance-core/migrator-distributor"
	distributorpostgres "humanity/contexts/finance-core/migrator-distributor/adapters/postgres"
	distributorports "humanity/contexts/finance-core/migrator-distributor/ports"
	tokenledger "humanity/contexts/finance-core/token-ledger"
	ledgerapp "humanity/contexts/finance-core/token-ledger/application"
	"humanity/contexts/finance-core/token-ledger/domain/entities"
	"humanity/internal/platform/config"
	"humanity/internal/platform/db"
	"humanity/internal/platform/httpserver"
	"humanity/internal/platform/ledgerbridge"
	"humanity/internal/platform/messaging"
	"humanity/internal/platform/metrics"
	"humanity/internal/shared/txn"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server  *httpserver.Server
	runtime *runtime
	jobs    []job
	logger  *slog.Logger
}

type WorkerApp struct {
	runtime *runtime
	jobs    []job
	logger  *slog.Logger
}

// runtime is the state shared by the API and worker processes: both HMN
// ledgers and the distributor, joined by one transaction coordinator.
type runtime struct {
	coordinator *txn.Coordinator
	ledgers     *ledgerbridge.Directory
	distributor migratordistributor.Module
	recorder    *metrics.Recorder
	postgres    *db.Postgres
	publisher   publisher
}

type publisher interface {
	distributorports.EventPublisher
	Close() error
}

type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	rt, err := buildRuntime(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(rt.distributor, rt.ledgers, rt.recorder.Handler(), logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:  server,
		runtime: rt,
		jobs:    rt.jobs(cfg, logger),
		logger:  logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	rt, err := buildRuntime(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		runtime: rt,
		jobs:    rt.jobs(cfg, logger),
		logger:  logger,
	}, nil
}

// unitOfWorkLockKey names the postgres advisory lock that serializes units
// of work between the API and worker processes.
const unitOfWorkLockKey int64 = 0x484d4e

func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	pub, err := newPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("POSTGRES_DSN not set, ledgers and distributor state are in memory",
			"event", "bootstrap_state_in_memory",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		rt, err := newMemoryRuntime(ctx, cfg, pub, logger)
		if err != nil {
			_ = pub.Close()
			return nil, err
		}
		return rt, nil
	}

	pool := db.DefaultPool()
	if cfg.PostgresMaxOpenConns > 0 {
		pool.MaxOpenConns = cfg.PostgresMaxOpenConns
	}
	pg, err := db.Connect(cfg.PostgresDSN, pool)
	if err != nil {
		_ = pub.Close()
		return nil, err
	}
	rt, err := newGormRuntime(ctx, cfg, pg.DB, pub, logger)
	if err != nil {
		_ = pub.Close()
		_ = pg.Close()
		return nil, err
	}
	rt.postgres = pg
	return rt, nil
}

func newPublisher(cfg config.Config, logger *slog.Logger) (publisher, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return messaging.NewBus(logger), nil
	}
	redisPublisher, err := messaging.NewRedisPublisher(cfg.RedisURL, logger)
	if err != nil {
		return nil, err
	}
	return redisPublisher, nil
}

func newMemoryRuntime(ctx context.Context, cfg config.Config, pub publisher, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{
		coordinator: txn.NewCoordinator(),
		ledgers:     ledgerbridge.NewDirectory(),
		recorder:    metrics.NewRecorder(),
		publisher:   pub,
	}

	current := tokenledger.NewInMemoryModule(tokenledger.InMemoryOptions{
		Token:       ledgerToken(cfg.TokenAddress, cfg, "Humanity Coin", "HMN"),
		Holder:      cfg.OwnerAddress,
		Coordinator: rt.coordinator,
		Metrics:     rt.recorder,
		Logger:      logger,
	})
	legacy := tokenledger.NewInMemoryModule(tokenledger.InMemoryOptions{
		Token:       ledgerToken(cfg.LegacyTokenAddress, cfg, "Humanity Coin Legacy", "HMNL"),
		Holder:      cfg.OwnerAddress,
		Coordinator: rt.coordinator,
		Metrics:     rt.recorder,
		Logger:      logger,
	})
	rt.distributor = migratordistributor.NewInMemoryModule(migratordistributor.InMemoryOptions{
		Distributor: cfg.DistributorAddress,
		Owner:       cfg.OwnerAddress,
		Ledgers:     rt.ledgers,
		Coordinator: rt.coordinator,
		Publisher:   rt.publisher,
		Metrics:     rt.recorder,
		Logger:      logger,
	})
	if err := rt.registerLedgers(ctx, cfg, current.Service, legacy.Service); err != nil {
		return nil, err
	}
	return rt, nil
}

// newGormRuntime keeps both ledgers and the distributor in one database and
// runs every unit of work on a single transaction over it, so balances and
// the migration reserve survive restarts together.
func newGormRuntime(ctx context.Context, cfg config.Config, gdb *gorm.DB, pub publisher, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{
		coordinator: txn.NewCoordinator(txn.GormResource(gdb, unitOfWorkLockKey)),
		ledgers:     ledgerbridge.NewDirectory(),
		recorder:    metrics.NewRecorder(),
		publisher:   pub,
	}

	current, err := tokenledger.NewPersistentModule(ctx, tokenledger.PersistentOptions{
		DB:          gdb,
		Token:       ledgerToken(cfg.TokenAddress, cfg, "Humanity Coin", "HMN"),
		Holder:      cfg.OwnerAddress,
		Coordinator: rt.coordinator,
		Metrics:     rt.recorder,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	legacy, err := tokenledger.NewPersistentModule(ctx, tokenledger.PersistentOptions{
		DB:          gdb,
		Token:       ledgerToken(cfg.LegacyTokenAddress, cfg, "Humanity Coin Legacy", "HMNL"),
		Holder:      cfg.OwnerAddress,
		Coordinator: rt.coordinator,
		Metrics:     rt.recorder,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	repo := distributorpostgres.NewRepository(gdb, cfg.DistributorAddress, cfg.OwnerAddress, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		return nil, err
	}
	rt.distributor = migratordistributor.NewModule(migratordistributor.Dependencies{
		State:       repo,
		Outbox:      repo,
		OutboxRepo:  repo,
		Publisher:   rt.publisher,
		Ledgers:     rt.ledgers,
		Tx:          rt.coordinator,
		Clock:       distributorpostgres.SystemClock{},
		IDGenerator: distributorpostgres.UUIDGenerator{},
		Metrics:     rt.recorder,
		Logger:      logger,
	})
	if err := rt.registerLedgers(ctx, cfg, current.Service, legacy.Service); err != nil {
		return nil, err
	}
	return rt, nil
}

// registerLedgers applies the configured routers and exposes both ledgers to
// the distributor and the HTTP surface.
func (rt *runtime) registerLedgers(ctx context.Context, cfg config.Config, current ledgerapp.Service, legacy ledgerapp.Service) error {
	if cfg.RouterAddress != (common.Address{}) {
		if err := current.SetRouter(ctx, cfg.OwnerAddress, cfg.RouterAddress); err != nil {
			return err
		}
	}
	if cfg.LegacyRouterAddress != (common.Address{}) {
		if err := legacy.SetRouter(ctx, cfg.OwnerAddress, cfg.LegacyRouterAddress); err != nil {
			return err
		}
	}
	rt.ledgers.Register(cfg.TokenAddress, current)
	rt.ledgers.Register(cfg.LegacyTokenAddress, legacy)
	return nil
}

func ledgerToken(address common.Address, cfg config.Config, name string, symbol string) entities.Token {
	token := tokenledger.HumanityToken(address, cfg.OwnerAddress)
	token.Name = name
	token.Symbol = symbol
	if cfg.TotalSupply != nil {
		token.TotalSupply = cfg.TotalSupply.Clone()
	}
	return token
}

func (rt *runtime) jobs(cfg config.Config, logger *slog.Logger) []job {
	var out []job
	if cfg.EnableFeeSweeper {
		sweeper := rt.distributor.Sweeper(cfg.OwnerAddress, cfg.SweepTokens, logger)
		out = append(out, job{name: "fee_sweeper", interval: cfg.SweepInterval, run: sweeper.RunOnce})
	}
	if cfg.EnableOutboxRelay {
		relay := rt.distributor.Relay
		out = append(out, job{name: "outbox_relay", interval: cfg.OutboxPollInterval, run: relay.RunOnce})
	}
	return out
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.publisher != nil {
		errs = append(errs, rt.publisher.Close())
	}
	if rt.postgres != nil {
		errs = append(errs, rt.postgres.Close())
	}
	return errors.Join(errs...)
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"jobs", len(a.jobs),
		)
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	startJobs(ctx, group, a.jobs, a.logger)
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.runtime != nil {
		return a.runtime.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"jobs", len(w.jobs),
	)
	if len(w.jobs) == 0 {
		return errors.New("no worker jobs enabled")
	}
	group, ctx := errgroup.WithContext(ctx)
	startJobs(ctx, group, w.jobs, w.logger)
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	if w.runtime != nil {
		return w.runtime.Close()
	}
	return nil
}

func startJobs(ctx context.Context, group *errgroup.Group, jobs []job, logger *slog.Logger) {
	for _, j := range jobs {
		group.Go(func() error {
			runEvery(ctx, j, logger)
			return nil
		})
	}
}

// runEvery runs j immediately and then on every tick until ctx ends. Job
// failures are already logged by the job and do not stop the loop.
func runEvery(ctx context.Context, j job, logger *slog.Logger) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	logger.Info("worker job started",
		"event", "bootstrap_job_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"job", j.name,
		"interval", j.interval.String(),
	)
	for {
		if err := j.run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("worker job iteration failed",
				"event", "bootstrap_job_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"job", j.name,
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
