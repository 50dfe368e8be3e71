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

type ConfigureTaxAndSwapCommand struct {
	Caller        common.Address
	SwapTriggerBp uint64
	PurchaseTaxBp uint64
	SalesTaxBp    uint64
}

type ConfigureTaxAndSwapUseCase struct {
	State       ports.StateRepository
	Tx          ports.Transactor
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute replaces all three percentages at once.
func (u ConfigureTaxAndSwapUseCase) Execute(ctx context.Context, cmd ConfigureTaxAndSwapCommand) (entities.State, error) {
	logger := application.ResolveLogger(u.Logger)
	cfg := entities.TaxConfig{
		SwapTriggerBp: cmd.SwapTriggerBp,
		PurchaseTaxBp: cmd.PurchaseTaxBp,
		SalesTaxBp:    cmd.SalesTaxBp,
	}

	var updated entities.State
	err := withinTransaction(ctx, u.Tx, func(ctx context.Context) error {
		state, err := u.State.LoadState(ctx)
		if err != nil {
			return err
		}
		if err := services.RequireOwner(state, cmd.Caller); err != nil {
			return err
		}
		if err := services.ValidateTaxConfig(cfg); err != nil {
			return err
		}
		now := currentTime(u.Clock)
		state.Tax = cfg
		state.UpdatedAt = now
		if err := u.State.SaveState(ctx, state); err != nil {
			return err
		}
		if err := appendEvent(ctx, u.Outbox, u.IDGenerator, now, EventConfigUpdated,
			state.Distributor.Hex(), configPayload(state, "tax")); err != nil {
			return err
		}
		updated = state
		return nil
	})
	if err != nil {
		logger.Warn("configure tax and swap rejected",
			"event", "hmn_configure_tax_rejected",
			"module", "finance-core/migrator-distributor",
			"layer", "application",
			"caller", cmd.Caller.Hex(),
			"swap_trigger_bp", cmd.SwapTriggerBp,
			"purchase_tax_bp", cmd.PurchaseTaxBp,
			"sales_tax_bp", cmd.SalesTaxBp,
			"error", err.Error(),
		)
		return entities.State{}, err
	}
	logger.Info("tax and swap configured",
		"event", "hmn_tax_configured",
		"module", "finance-core/migrator-distributor",
		"layer", "application",
		"caller", cmd.Caller.Hex(),
		"swap_trigger_bp", cfg.SwapTriggerBp,
		"purchase_tax_bp", cfg.PurchaseTaxBp,
		"sales_tax_bp", cfg.SalesTaxBp,
	)
	return updated.Clone(), nil
}
