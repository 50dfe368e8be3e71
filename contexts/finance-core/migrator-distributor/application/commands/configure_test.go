package commands

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
)

func TestConfigureTaxAndSwapRequiresOwner(t *testing.T) {
	w := newWorld(t)

	_, err := w.configureTax().Execute(context.Background(), ConfigureTaxAndSwapCommand{
		Caller: stranger, SwapTriggerBp: 1, PurchaseTaxBp: 1, SalesTaxBp: 1,
	})
	require.ErrorIs(t, err, domainerrors.ErrCallerNotOwner)
	require.Equal(t, domainerrors.KindAuthorization, domainerrors.KindOf(err))

	state, err := w.store.LoadState(context.Background())
	require.NoError(t, err)
	require.Zero(t, state.Tax.SwapTriggerBp)
}

func TestConfigureTaxAndSwapBoundary(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	state, err := w.configureTax().Execute(ctx, ConfigureTaxAndSwapCommand{
		Caller: owner, SwapTriggerBp: 5_000, PurchaseTaxBp: 3_000, SalesTaxBp: 2_000,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(5_000), state.Tax.SwapTriggerBp)

	_, err = w.configureTax().Execute(ctx, ConfigureTaxAndSwapCommand{
		Caller: owner, SwapTriggerBp: 5_000, PurchaseTaxBp: 3_000, SalesTaxBp: 2_001,
	})
	require.ErrorIs(t, err, domainerrors.ErrPercentagesExceed)
	require.EqualError(t, err, "percentages exceed 100%")

	stored, err := w.store.LoadState(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2_000), stored.Tax.SalesTaxBp)
}

func TestConfigureAddressesRejectsZeroAddress(t *testing.T) {
	w := newWorld(t)

	_, err := w.configureAddresses().Execute(context.Background(), ConfigureAddressesCommand{
		Caller: owner, SwapTrigger: swapTrigger, PurchaseTax: purchaseTax,
	})
	require.ErrorIs(t, err, domainerrors.ErrZeroAddress)
	require.Contains(t, err.Error(), "salesTax")
}

func TestConfigureAddressesOwnerCheckComesFirst(t *testing.T) {
	w := newWorld(t)

	_, err := w.configureAddresses().Execute(context.Background(), ConfigureAddressesCommand{Caller: stranger})
	require.ErrorIs(t, err, domainerrors.ErrCallerNotOwner)
}

func TestSetTokenPairValidation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.setTokenPair().Execute(ctx, SetTokenPairCommand{Caller: owner, NewToken: newToken})
	require.ErrorIs(t, err, domainerrors.ErrInvalidTokenAddresses)

	_, err = w.setTokenPair().Execute(ctx, SetTokenPairCommand{Caller: stranger, NewToken: newToken, OldToken: oldToken})
	require.ErrorIs(t, err, domainerrors.ErrCallerNotOwner)

	state, err := w.setTokenPair().Execute(ctx, SetTokenPairCommand{Caller: owner, NewToken: newToken, OldToken: oldToken})
	require.NoError(t, err)
	require.Equal(t, newToken, state.Pair.NewToken)
	require.Equal(t, oldToken, state.Pair.OldToken)
}

func TestConfigurationWritesOutboxEvents(t *testing.T) {
	w := newWorld(t).configured(t)

	pending, err := w.store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for _, message := range pending {
		require.Equal(t, EventConfigUpdated, message.EventType)
	}

	var envelope struct {
		SourceService string          `json:"source_service"`
		PartitionKey  string          `json:"partition_key"`
		Data          json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pending[0].Payload, &envelope))
	require.Equal(t, "migrator-distributor", envelope.SourceService)
	require.Equal(t, distributor.Hex(), envelope.PartitionKey)
}

func TestRejectedConfigurationWritesNoEvent(t *testing.T) {
	w := newWorld(t)

	_, err := w.setTokenPair().Execute(context.Background(), SetTokenPairCommand{Caller: owner, NewToken: common.Address{}, OldToken: oldToken})
	require.Error(t, err)
	require.Zero(t, w.store.PendingOutboxCount())
}
