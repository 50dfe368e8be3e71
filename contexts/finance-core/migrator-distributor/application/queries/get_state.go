package queries

import (
	"context"
	"log/slog"

	application "humanity/contexts/finance-core/migrator-distributor/application"
	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	"humanity/contexts/finance-core/migrator-distributor/ports"
)

// GetStateUseCase backs every read-only accessor: percentages,
// beneficiaries, token pair, reserve balance and owner.
type GetStateUseCase struct {
	State  ports.StateRepository
	Logger *slog.Logger
}

func (u GetStateUseCase) Execute(ctx context.Context) (entities.State, error) {
	state, err := u.State.LoadState(ctx)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("load distributor state failed",
			"event", "hmn_state_load_failed",
			"module", "finance-core/migrator-distributor",
			"layer", "application",
			"error", err.Error(),
		)
		return entities.State{}, err
	}
	return state.Clone(), nil
}
