package commands

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	application "humanity/contexts/finance-core/migrator-distributor/application"
	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
	"humanity/contexts/finance-core/migrator-distributor/domain/services"
	"humanity/contexts/finance-core/migrator-distributor/ports"
)

type AddToReserveCommand struct {
	Caller common.Address
	Amount *uint256.Int
}

// AddToReserveUseCase pulls new tokens from the owner into the distributor
// and earmarks them for migration payouts.
type AddToReserveUseCase struct {
	State       ports.StateRepository
	Ledgers     ports.LedgerDirectory
	Tx          ports.Transactor
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func (u AddToReserveUseCase) Execute(ctx context.Context, cmd AddToReserveCommand) (entities.State, error) {
	logger := application.ResolveLogger(u.Logger)

	var updated entities.State
	err := withinTransaction(ctx, u.Tx, func(ctx context.Context) error {
		state, err := u.State.LoadState(ctx)
		if err != nil {
			return err
		}
		if err := services.RequireOwner(state, cmd.Caller); err != nil {
			return err
		}
		if err := services.ValidateAmount(cmd.Amount); err != nil {
			return err
		}
		reserve, overflow := new(uint256.Int).AddOverflow(state.ReserveBalance, cmd.Amount)
		if overflow {
			return domainerrors.ErrReserveOverflow
		}

		ledger := u.Ledgers.Ledger(state.Pair.NewToken)
		if err := ledger.TransferFrom(ctx, state.Distributor, cmd.Caller, state.Distributor, cmd.Amount); err != nil {
			return externalCall(err)
		}

		now := currentTime(u.Clock)
		state.ReserveBalance = reserve
		state.UpdatedAt = now
		if err := u.State.SaveState(ctx, state); err != nil {
			return err
		}
		if err := appendEvent(ctx, u.Outbox, u.IDGenerator, now, EventReserveFunded, state.Distributor.Hex(), reserveFundedPayload{
			Distributor:    state.Distributor.Hex(),
			Funder:         cmd.Caller.Hex(),
			Amount:         cmd.Amount.Dec(),
			ReserveBalance: reserve.Dec(),
		}); err != nil {
			return err
		}
		updated = state
		return nil
	})
	if err != nil {
		logger.Warn("add to migration reserve rejected",
			"event", "hmn_reserve_fund_rejected",
			"module", "finance-core/migrator-distributor",
			"layer", "application",
			"caller", cmd.Caller.Hex(),
			"amount", amountString(cmd.Amount),
			"error", err.Error(),
		)
		return entities.State{}, err
	}
	if u.Metrics != nil {
		u.Metrics.SetReserveBalance(updated.ReserveBalance)
	}
	logger.Info("migration reserve funded",
		"event", "hmn_reserve_funded",
		"module", "finance-core/migrator-distributor",
		"layer", "application",
		"caller", cmd.Caller.Hex(),
		"amount", cmd.Amount.Dec(),
		"reserve_balance", updated.ReserveBalance.Dec(),
	)
	return updated.Clone(), nil
}

func amountString(amount *uint256.Int) string {
	if amount == nil {
		return ""
	}
	return amount.Dec()
}
