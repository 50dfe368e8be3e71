package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	"humanity/contexts/finance-core/migrator-distributor/ports"
	"humanity/internal/shared/txn"
)

var (
	distributor = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	owner       = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(db, distributor, owner, nil)
	require.NoError(t, repo.AutoMigrate(context.Background()))
	return repo
}

func TestLoadStateDefaultsToConfiguredOwner(t *testing.T) {
	repo := newTestRepository(t)

	state, err := repo.LoadState(context.Background())
	require.NoError(t, err)
	require.Equal(t, owner, state.Owner)
	require.Equal(t, distributor, state.Distributor)
	require.True(t, state.ReserveBalance.IsZero())
}

func TestSaveStateRoundTripsFullWidthReserve(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	state := entities.NewState(distributor, owner)
	state.Tax = entities.TaxConfig{SwapTriggerBp: 5_000, PurchaseTaxBp: 3_000, SalesTaxBp: 2_000}
	state.Beneficiaries.SwapTrigger = common.HexToAddress("0x01")
	state.Pair.NewToken = common.HexToAddress("0x0a")
	state.ReserveBalance = new(uint256.Int).SetAllOne()
	state.UpdatedAt = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveState(ctx, state))

	state.Tax.SalesTaxBp = 1_000
	require.NoError(t, repo.SaveState(ctx, state))

	loaded, err := repo.LoadState(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), loaded.Tax.SalesTaxBp)
	require.Equal(t, state.Beneficiaries.SwapTrigger, loaded.Beneficiaries.SwapTrigger)
	require.True(t, loaded.ReserveBalance.Eq(state.ReserveBalance))
}

func TestCoordinatorRollbackDiscardsStateAndOutbox(t *testing.T) {
	repo := newTestRepository(t)
	coordinator := txn.NewCoordinator(repo)
	boom := errors.New("boom")

	err := coordinator.WithinTransaction(context.Background(), func(ctx context.Context) error {
		state, err := repo.LoadState(ctx)
		require.NoError(t, err)
		state.ReserveBalance = uint256.NewInt(77)
		require.NoError(t, repo.SaveState(ctx, state))
		require.NoError(t, repo.AppendOutbox(ctx, ports.EventEnvelope{
			EventID:    "evt-1",
			EventType:  "hmn.reserve.funded",
			OccurredAt: time.Now().UTC(),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	state, err := repo.LoadState(context.Background())
	require.NoError(t, err)
	require.True(t, state.ReserveBalance.IsZero())
	pending, err := repo.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestOutboxPublishLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	envelope := ports.EventEnvelope{
		EventID:    "evt-2",
		EventType:  "hmn.fees.distributed",
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, repo.AppendOutbox(ctx, envelope))
	require.NoError(t, repo.AppendOutbox(ctx, envelope))

	pending, err := repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "hmn.fees.distributed", pending[0].EventType)

	require.NoError(t, repo.MarkOutboxPublished(ctx, "evt-2", time.Now()))
	pending, err = repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}
