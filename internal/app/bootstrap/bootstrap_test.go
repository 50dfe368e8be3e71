package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	httptransport "humanity/contexts/finance-core/migrator-distributor/transport/http"
	"humanity/internal/platform/config"
	"humanity/internal/platform/messaging"
)

func testConfig() config.Config {
	return config.Config{
		ServiceName:        "humanity-test",
		OwnerAddress:       common.HexToAddress("0x00000000000000000000000000000000000000b0"),
		DistributorAddress: common.HexToAddress("0x00000000000000000000000000000000000000d0"),
		RouterAddress:      common.HexToAddress("0x00000000000000000000000000000000000000f0"),
		TokenAddress:       common.HexToAddress("0x00000000000000000000000000000000000000a1"),
		LegacyTokenAddress: common.HexToAddress("0x00000000000000000000000000000000000000a2"),
		TotalSupply:        uint256.NewInt(1_000_000),

		LegacyRouterAddress: common.HexToAddress("0x00000000000000000000000000000000000000d0"),

		SweepTokens:        []common.Address{common.HexToAddress("0x00000000000000000000000000000000000000a1")},
		SweepInterval:      time.Hour,
		OutboxPollInterval: time.Second,
		EnableFeeSweeper:   true,
		EnableOutboxRelay:  true,
	}
}

func TestBuildRuntimeWiresBothLedgersInMemory(t *testing.T) {
	cfg := testConfig()
	rt, err := buildRuntime(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close()) }()

	require.Equal(t, []common.Address{cfg.TokenAddress, cfg.LegacyTokenAddress}, rt.ledgers.Tokens())

	current, ok := rt.ledgers.Service(cfg.TokenAddress)
	require.True(t, ok)
	router, err := current.Router(context.Background())
	require.NoError(t, err)
	require.Equal(t, cfg.RouterAddress, router)

	supply, err := current.TotalSupply(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), supply.Uint64())

	state, err := rt.distributor.Handler.GetStateHandler(context.Background())
	require.NoError(t, err)
	require.Equal(t, cfg.OwnerAddress.Hex(), state.Data.Owner)
	require.Equal(t, "0", state.Data.ReserveBalance)

	require.Len(t, rt.jobs(cfg, slog.Default()), 2)
	cfg.EnableFeeSweeper = false
	require.Len(t, rt.jobs(cfg, slog.Default()), 1)
}

func TestMigrationAboveLegacyCapPullsThroughDistributorRouter(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	rt, err := buildRuntime(ctx, cfg, slog.Default())
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close()) }()

	legacy, ok := rt.ledgers.Service(cfg.LegacyTokenAddress)
	require.True(t, ok)
	router, err := legacy.Router(ctx)
	require.NoError(t, err)
	require.Equal(t, cfg.DistributorAddress, router)

	fundReserve(t, rt, cfg, 1000)

	// 20,000 is twice the 1% cap of a 1,000,000 legacy supply.
	require.NoError(t, legacy.Approve(ctx, cfg.OwnerAddress, cfg.DistributorAddress, uint256.NewInt(20_000)))
	migrated, err := rt.distributor.Handler.MigrateHandler(ctx, cfg.OwnerAddress.Hex(), httptransport.AmountRequest{Amount: "20000"})
	require.NoError(t, err)
	require.Equal(t, "18", migrated.Data.Payout)
	require.Equal(t, "982", migrated.Data.ReserveBalance)

	balance, err := legacy.BalanceOf(ctx, cfg.DistributorAddress)
	require.NoError(t, err)
	require.Equal(t, uint64(20_000), balance.Uint64())
}

func TestMigrationWithoutLegacyRouterStaysCapped(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.LegacyRouterAddress = common.Address{}
	rt, err := buildRuntime(ctx, cfg, slog.Default())
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close()) }()

	fundReserve(t, rt, cfg, 1000)

	legacy, ok := rt.ledgers.Service(cfg.LegacyTokenAddress)
	require.True(t, ok)
	require.NoError(t, legacy.Approve(ctx, cfg.OwnerAddress, cfg.DistributorAddress, uint256.NewInt(20_000)))
	_, err = rt.distributor.Handler.MigrateHandler(ctx, cfg.OwnerAddress.Hex(), httptransport.AmountRequest{Amount: "20000"})
	require.EqualError(t, err, "external call failed: HMN01")
}

func TestPersistentRuntimeKeepsBalancesAcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	gdb := openSQLite(t)

	first, err := newGormRuntime(ctx, cfg, gdb, messaging.NewBus(slog.Default()), slog.Default())
	require.NoError(t, err)
	fundReserve(t, first, cfg, 9000)
	require.NoError(t, first.Close())

	second, err := newGormRuntime(ctx, cfg, gdb, messaging.NewBus(slog.Default()), slog.Default())
	require.NoError(t, err)
	defer func() { require.NoError(t, second.Close()) }()

	state, err := second.distributor.Handler.GetStateHandler(ctx)
	require.NoError(t, err)
	require.Equal(t, "9000", state.Data.ReserveBalance)

	current, ok := second.ledgers.Service(cfg.TokenAddress)
	require.True(t, ok)
	held, err := current.BalanceOf(ctx, cfg.DistributorAddress)
	require.NoError(t, err)
	require.Equal(t, uint64(9000), held.Uint64())
	ownerBalance, err := current.BalanceOf(ctx, cfg.OwnerAddress)
	require.NoError(t, err)
	require.Equal(t, uint64(991_000), ownerBalance.Uint64())

	legacy, ok := second.ledgers.Service(cfg.LegacyTokenAddress)
	require.True(t, ok)
	require.NoError(t, legacy.Approve(ctx, cfg.OwnerAddress, cfg.DistributorAddress, uint256.NewInt(10_000)))
	migrated, err := second.distributor.Handler.MigrateHandler(ctx, cfg.OwnerAddress.Hex(), httptransport.AmountRequest{Amount: "10000"})
	require.NoError(t, err)
	require.Equal(t, "9", migrated.Data.Payout)
	require.Equal(t, "8991", migrated.Data.ReserveBalance)
}

func TestPersistentRuntimeRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	rt, err := newGormRuntime(ctx, cfg, openSQLite(t), messaging.NewBus(slog.Default()), slog.Default())
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close()) }()

	fundReserve(t, rt, cfg, 1000)

	legacy, ok := rt.ledgers.Service(cfg.LegacyTokenAddress)
	require.True(t, ok)
	require.NoError(t, legacy.Approve(ctx, cfg.OwnerAddress, cfg.DistributorAddress, uint256.NewInt(20_000)))
	current, ok := rt.ledgers.Service(cfg.TokenAddress)
	require.True(t, ok)
	require.NoError(t, current.Pause(ctx, cfg.OwnerAddress))

	// The legacy pull and reserve write succeed before the paused payout fails.
	_, err = rt.distributor.Handler.MigrateHandler(ctx, cfg.OwnerAddress.Hex(), httptransport.AmountRequest{Amount: "20000"})
	require.Error(t, err)

	balance, err := legacy.BalanceOf(ctx, cfg.OwnerAddress)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), balance.Uint64())
	allowance, err := legacy.Allowance(ctx, cfg.OwnerAddress, cfg.DistributorAddress)
	require.NoError(t, err)
	require.Equal(t, uint64(20_000), allowance.Uint64())
	state, err := rt.distributor.Handler.GetStateHandler(ctx)
	require.NoError(t, err)
	require.Equal(t, "1000", state.Data.ReserveBalance)
}

func fundReserve(t *testing.T, rt *runtime, cfg config.Config, amount uint64) {
	t.Helper()
	ctx := context.Background()
	owner := cfg.OwnerAddress.Hex()

	_, err := rt.distributor.Handler.SetTokenPairHandler(ctx, owner, httptransport.SetTokenPairRequest{
		NewToken: cfg.TokenAddress.Hex(),
		OldToken: cfg.LegacyTokenAddress.Hex(),
	})
	require.NoError(t, err)

	current, ok := rt.ledgers.Service(cfg.TokenAddress)
	require.True(t, ok)
	require.NoError(t, current.Approve(ctx, cfg.OwnerAddress, cfg.DistributorAddress, uint256.NewInt(amount)))
	_, err = rt.distributor.Handler.AddToReserveHandler(ctx, owner, httptransport.AmountRequest{
		Amount: uint256.NewInt(amount).Dec(),
	})
	require.NoError(t, err)
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func TestRunEveryKeepsGoingAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		runEvery(ctx, job{
			name:     "flaky",
			interval: time.Millisecond,
			run: func(context.Context) error {
				if calls.Add(1) >= 3 {
					cancel()
				}
				return errors.New("boom")
			},
		}, slog.Default())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runEvery did not stop after cancellation")
	}
	require.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestNormalizeAddr(t *testing.T) {
	require.Equal(t, ":8080", normalizeAddr(""))
	require.Equal(t, ":9090", normalizeAddr("9090"))
	require.Equal(t, ":7000", normalizeAddr(":7000"))
}
