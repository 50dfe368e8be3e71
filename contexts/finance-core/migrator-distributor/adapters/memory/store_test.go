package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"humanity/contexts/finance-core/migrator-distributor/ports"
)

var (
	distributor = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	owner       = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func TestLoadStateReturnsDetachedCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(distributor, owner)

	state, err := store.LoadState(ctx)
	require.NoError(t, err)
	require.Equal(t, owner, state.Owner)
	require.True(t, state.ReserveBalance.IsZero())

	state.ReserveBalance.SetUint64(77)
	again, err := store.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, again.ReserveBalance.IsZero())
}

func TestRestoreRewindsStateAndOutbox(t *testing.T) {
	ctx := context.Background()
	store := NewStore(distributor, owner)
	before := store.Snapshot()

	state, err := store.LoadState(ctx)
	require.NoError(t, err)
	state.ReserveBalance = uint256.NewInt(500)
	require.NoError(t, store.SaveState(ctx, state))
	require.NoError(t, store.AppendOutbox(ctx, ports.EventEnvelope{EventID: "evt-1", EventType: "hmn.reserve.funded"}))
	require.Equal(t, 1, store.PendingOutboxCount())

	store.Restore(before)

	state, err = store.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, state.ReserveBalance.IsZero())
	require.Equal(t, 0, store.PendingOutboxCount())
}

func TestListPendingOutboxOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	store := NewStore(distributor, owner)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendOutbox(ctx, ports.EventEnvelope{EventID: "b", EventType: "x", OccurredAt: base.Add(time.Second)}))
	require.NoError(t, store.AppendOutbox(ctx, ports.EventEnvelope{EventID: "a", EventType: "x", OccurredAt: base}))
	require.NoError(t, store.AppendOutbox(ctx, ports.EventEnvelope{EventID: "c", EventType: "x", OccurredAt: base.Add(2 * time.Second)}))

	pending, err := store.ListPendingOutbox(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "a", pending[0].OutboxID)
	require.Equal(t, "b", pending[1].OutboxID)

	require.NoError(t, store.MarkOutboxPublished(ctx, "a", base))
	require.Equal(t, 2, store.PendingOutboxCount())
}
