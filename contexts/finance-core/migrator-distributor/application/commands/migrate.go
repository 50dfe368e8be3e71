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

type MigrateCommand struct {
	Caller common.Address
	Amount *uint256.Int
}

// MigrateUseCase exchanges legacy tokens for new tokens out of the migration
// reserve. The reserve decrement is persisted before the payout transfer.
type MigrateUseCase struct {
	State       ports.StateRepository
	Ledgers     ports.LedgerDirectory
	Tx          ports.Transactor
	Guard       *application.ReentrancyGuard
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func (u MigrateUseCase) Execute(ctx context.Context, cmd MigrateCommand) (entities.Migration, error) {
	logger := application.ResolveLogger(u.Logger)

	var migration entities.Migration
	err := withinTransaction(ctx, u.Tx, func(ctx context.Context) error {
		return guarded(u.Guard, func() error {
			if err := services.ValidateAmount(cmd.Amount); err != nil {
				return err
			}
			payout := services.MigrationPayout(cmd.Amount)

			state, err := u.State.LoadState(ctx)
			if err != nil {
				return err
			}
			if payout.Gt(state.ReserveBalance) {
				return domainerrors.ErrInsufficientReserve
			}

			oldLedger := u.Ledgers.Ledger(state.Pair.OldToken)
			if err := oldLedger.TransferFrom(ctx, state.Distributor, cmd.Caller, state.Distributor, cmd.Amount); err != nil {
				return externalCall(err)
			}

			now := currentTime(u.Clock)
			state.ReserveBalance = new(uint256.Int).Sub(state.ReserveBalance, payout)
			state.UpdatedAt = now
			if err := u.State.SaveState(ctx, state); err != nil {
				return err
			}

			newLedger := u.Ledgers.Ledger(state.Pair.NewToken)
			if err := newLedger.Transfer(ctx, state.Distributor, cmd.Caller, payout); err != nil {
				return externalCall(err)
			}

			migration = entities.Migration{
				Holder:         cmd.Caller,
				Amount:         cmd.Amount.Clone(),
				Payout:         payout,
				ReserveBalance: state.ReserveBalance.Clone(),
			}
			return appendEvent(ctx, u.Outbox, u.IDGenerator, now, EventMigrationCompleted, state.Distributor.Hex(), migrationCompletedPayload{
				Distributor:    state.Distributor.Hex(),
				Holder:         cmd.Caller.Hex(),
				Amount:         cmd.Amount.Dec(),
				Payout:         payout.Dec(),
				ReserveBalance: state.ReserveBalance.Dec(),
			})
		})
	})
	if err != nil {
		logger.Warn("migration failed",
			"event", "hmn_migration_failed",
			"module", "finance-core/migrator-distributor",
			"layer", "application",
			"caller", cmd.Caller.Hex(),
			"amount", amountString(cmd.Amount),
			"error", err.Error(),
		)
		return entities.Migration{}, err
	}
	if u.Metrics != nil {
		u.Metrics.ObserveMigration(migration)
		u.Metrics.SetReserveBalance(migration.ReserveBalance)
	}
	logger.Info("migration completed",
		"event", "hmn_migration_completed",
		"module", "finance-core/migrator-distributor",
		"layer", "application",
		"caller", cmd.Caller.Hex(),
		"amount", migration.Amount.Dec(),
		"payout", migration.Payout.Dec(),
		"reserve_balance", migration.ReserveBalance.Dec(),
	)
	return migration, nil
}
