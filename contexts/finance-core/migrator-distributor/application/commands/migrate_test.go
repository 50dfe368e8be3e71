package commands

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
)

func giveLegacy(w *world, amount uint64) {
	w.ledgers[oldToken].mint(holder, uint256.NewInt(amount))
	w.ledgers[oldToken].approve(holder, distributor, uint256.NewInt(amount))
}

func TestMigratePaysOutOfReserve(t *testing.T) {
	w := newWorld(t).configured(t)
	w.fund(t, 9)
	giveLegacy(w, 10_000)

	migration, err := w.migrate().Execute(context.Background(), MigrateCommand{Caller: holder, Amount: uint256.NewInt(10_000)})
	require.NoError(t, err)
	require.Equal(t, uint64(9), migration.Payout.Uint64())
	require.True(t, w.reserve(t).IsZero())
	require.Equal(t, uint64(9), w.ledgers[newToken].balance(holder))
	require.Equal(t, uint64(10_000), w.ledgers[oldToken].balance(distributor))
	require.Zero(t, w.ledgers[oldToken].balance(holder))
}

func TestMigrateInsufficientReserve(t *testing.T) {
	w := newWorld(t).configured(t)
	w.fund(t, 8)
	giveLegacy(w, 10_000)

	_, err := w.migrate().Execute(context.Background(), MigrateCommand{Caller: holder, Amount: uint256.NewInt(10_000)})
	require.ErrorIs(t, err, domainerrors.ErrInsufficientReserve)
	require.Equal(t, domainerrors.KindInsufficientReserve, domainerrors.KindOf(err))
	require.Equal(t, uint64(8), w.reserve(t).Uint64())
	require.Equal(t, uint64(10_000), w.ledgers[oldToken].balance(holder))
}

func TestMigrateRejectsZeroAmount(t *testing.T) {
	w := newWorld(t).configured(t)

	_, err := w.migrate().Execute(context.Background(), MigrateCommand{Caller: holder, Amount: new(uint256.Int)})
	require.ErrorIs(t, err, domainerrors.ErrInvalidAmount)
}

func TestMigrateTinyAmountPaysNothing(t *testing.T) {
	w := newWorld(t).configured(t)
	giveLegacy(w, 1_111)

	migration, err := w.migrate().Execute(context.Background(), MigrateCommand{Caller: holder, Amount: uint256.NewInt(1_111)})
	require.NoError(t, err)
	require.True(t, migration.Payout.IsZero())
	require.Equal(t, uint64(1_111), w.ledgers[oldToken].balance(distributor))
}

func TestMigrateWithoutAllowanceFails(t *testing.T) {
	w := newWorld(t).configured(t)
	w.fund(t, 9)
	w.ledgers[oldToken].mint(holder, uint256.NewInt(10_000))

	_, err := w.migrate().Execute(context.Background(), MigrateCommand{Caller: holder, Amount: uint256.NewInt(10_000)})
	require.ErrorIs(t, err, domainerrors.ErrExternalCallFailed)
	require.Equal(t, uint64(9), w.reserve(t).Uint64())
}

func TestMigratePayoutFailureRestoresReserveAndLegacyBalance(t *testing.T) {
	w := newWorld(t).configured(t)
	w.fund(t, 9)
	giveLegacy(w, 10_000)
	w.ledgers[newToken].rejectTo[holder] = true

	_, err := w.migrate().Execute(context.Background(), MigrateCommand{Caller: holder, Amount: uint256.NewInt(10_000)})
	require.ErrorIs(t, err, domainerrors.ErrExternalCallFailed)
	require.Equal(t, uint64(9), w.reserve(t).Uint64())
	require.Equal(t, uint64(10_000), w.ledgers[oldToken].balance(holder))
	require.Zero(t, w.ledgers[oldToken].balance(distributor))
}

func TestMigratePersistsReserveBeforePayout(t *testing.T) {
	w := newWorld(t).configured(t)
	w.fund(t, 18)
	giveLegacy(w, 10_000)

	var reserveSeenByRecipient uint64
	w.ledgers[newToken].hooks[holder] = func(ctx context.Context) error {
		state, err := w.store.LoadState(ctx)
		if err != nil {
			return err
		}
		reserveSeenByRecipient = state.ReserveBalance.Uint64()
		return nil
	}

	_, err := w.migrate().Execute(context.Background(), MigrateCommand{Caller: holder, Amount: uint256.NewInt(10_000)})
	require.NoError(t, err)
	require.Equal(t, uint64(9), reserveSeenByRecipient)
}

func TestMigrateReentryFromPayoutHookIsRejected(t *testing.T) {
	w := newWorld(t).configured(t)
	w.fund(t, 18)
	giveLegacy(w, 20_000)

	w.ledgers[newToken].hooks[holder] = func(ctx context.Context) error {
		_, err := w.migrate().Execute(ctx, MigrateCommand{Caller: holder, Amount: uint256.NewInt(10_000)})
		return err
	}

	_, err := w.migrate().Execute(context.Background(), MigrateCommand{Caller: holder, Amount: uint256.NewInt(10_000)})
	require.ErrorIs(t, err, domainerrors.ErrReentrantCall)
	require.Equal(t, uint64(18), w.reserve(t).Uint64())
	require.Equal(t, uint64(20_000), w.ledgers[oldToken].balance(holder))
}

func TestReserveNeverNegativeAndOnlyFundingIncreasesIt(t *testing.T) {
	w := newWorld(t).configured(t)
	giveLegacy(w, 1_000_000_000)
	w.ledgers[otherToken].mint(distributor, uint256.NewInt(1_000_000))
	rng := rand.New(rand.NewPCG(3, 5))
	ctx := context.Background()

	for i := 0; i < 300; i++ {
		before := w.reserve(t).Uint64()
		switch rng.IntN(3) {
		case 0:
			amount := rng.Uint64N(100) + 1
			w.fund(t, amount)
			require.Equal(t, before+amount, w.reserve(t).Uint64())
		case 1:
			amount := rng.Uint64N(200_000) + 1
			_, err := w.migrate().Execute(ctx, MigrateCommand{Caller: holder, Amount: uint256.NewInt(amount)})
			after := w.reserve(t).Uint64()
			if err != nil {
				require.ErrorIs(t, err, domainerrors.ErrInsufficientReserve)
				require.Equal(t, before, after)
			} else {
				require.Equal(t, before-amount*9/10_000, after)
			}
		default:
			w.ledgers[newToken].mint(distributor, uint256.NewInt(rng.Uint64N(1_000)))
			_, err := w.distributeFees().Execute(ctx, DistributeFeesCommand{Tokens: []common.Address{newToken, otherToken}})
			require.NoError(t, err)
			require.Equal(t, before, w.reserve(t).Uint64())
		}
		require.GreaterOrEqual(t, w.ledgers[newToken].balance(distributor), w.reserve(t).Uint64())
	}
}
