package commands

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	application "humanity/contexts/finance-core/migrator-distributor/application"
	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	"humanity/contexts/finance-core/migrator-distributor/domain/services"
	"humanity/contexts/finance-core/migrator-distributor/ports"
)

type SetTokenPairCommand struct {
	Caller   common.Address
	NewToken common.Address
	OldToken common.Address
}

// SetTokenPairUseCase records the current and legacy HMN ledgers.
type SetTokenPairUseCase struct {
	State       ports.StateRepository
	Tx          ports.Transactor
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u SetTokenPairUseCase) Execute(ctx context.Context, cmd SetTokenPairCommand) (entities.State, error) {
	logger := application.ResolveLogger(u.Logger)
	pair := entities.TokenPair{NewToken: cmd.NewToken, OldToken: cmd.OldToken}

	var updated entities.State
	err := withinTransaction(ctx, u.Tx, func(ctx context.Context) error {
		state, err := u.State.LoadState(ctx)
		if err != nil {
			return err
		}
		if err := services.RequireOwner(state, cmd.Caller); err != nil {
			return err
		}
		if err := services.ValidateTokenPair(pair); err != nil {
			return err
		}
		now := currentTime(u.Clock)
		state.Pair = pair
		state.UpdatedAt = now
		if err := u.State.SaveState(ctx, state); err != nil {
			return err
		}
		if err := appendEvent(ctx, u.Outbox, u.IDGenerator, now, EventConfigUpdated,
			state.Distributor.Hex(), configPayload(state, "token_pair")); err != nil {
			return err
		}
		updated = state
		return nil
	})
	if err != nil {
		logger.Warn("set token pair rejected",
			"event", "hmn_set_token_pair_rejected",
			"module", "finance-core/migrator-distributor",
			"layer", "application",
			"caller", cmd.Caller.Hex(),
			"new_token", cmd.NewToken.Hex(),
			"old_token", cmd.OldToken.Hex(),
			"error", err.Error(),
		)
		return entities.State{}, err
	}
	logger.Info("token pair set",
		"event", "hmn_token_pair_set",
		"module", "finance-core/migrator-distributor",
		"layer", "application",
		"new_token", pair.NewToken.Hex(),
		"old_token", pair.OldToken.Hex(),
	)
	return updated.Clone(), nil
}
