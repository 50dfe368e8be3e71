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

type ConfigureAddressesCommand struct {
	Caller      common.Address
	SwapTrigger common.Address
	PurchaseTax common.Address
	SalesTax    common.Address
}

type ConfigureAddressesUseCase struct {
	State       ports.StateRepository
	Tx          ports.Transactor
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u ConfigureAddressesUseCase) Execute(ctx context.Context, cmd ConfigureAddressesCommand) (entities.State, error) {
	logger := application.ResolveLogger(u.Logger)
	beneficiaries := entities.Beneficiaries{
		SwapTrigger: cmd.SwapTrigger,
		PurchaseTax: cmd.PurchaseTax,
		SalesTax:    cmd.SalesTax,
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
		if err := services.ValidateBeneficiaries(beneficiaries); err != nil {
			return err
		}
		now := currentTime(u.Clock)
		state.Beneficiaries = beneficiaries
		state.UpdatedAt = now
		if err := u.State.SaveState(ctx, state); err != nil {
			return err
		}
		if err := appendEvent(ctx, u.Outbox, u.IDGenerator, now, EventConfigUpdated,
			state.Distributor.Hex(), configPayload(state, "addresses")); err != nil {
			return err
		}
		updated = state
		return nil
	})
	if err != nil {
		logger.Warn("configure addresses rejected",
			"event", "hmn_configure_addresses_rejected",
			"module", "finance-core/migrator-distributor",
			"layer", "application",
			"caller", cmd.Caller.Hex(),
			"error", err.Error(),
		)
		return entities.State{}, err
	}
	logger.Info("beneficiary addresses configured",
		"event", "hmn_addresses_configured",
		"module", "finance-core/migrator-distributor",
		"layer", "application",
		"caller", cmd.Caller.Hex(),
		"swap_trigger", beneficiaries.SwapTrigger.Hex(),
		"purchase_tax", beneficiaries.PurchaseTax.Hex(),
		"sales_tax", beneficiaries.SalesTax.Hex(),
	)
	return updated.Clone(), nil
}
