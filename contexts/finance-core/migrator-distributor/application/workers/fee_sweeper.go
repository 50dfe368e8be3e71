package workers

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	application "humanity/contexts/finance-core/migrator-distributor/application"
	"humanity/contexts/finance-core/migrator-distributor/application/commands"
	"humanity/contexts/finance-core/migrator-distributor/domain/services"
)

// FeeSweeper periodically runs the fee distributor over the tokens of a
// fixed list that currently hold distributable fees. A sweep with nothing to
// pay out records no distribution.
type FeeSweeper struct {
	Distribute commands.DistributeFeesUseCase
	Caller     common.Address
	Tokens     []common.Address
	Logger     *slog.Logger
}

func (s FeeSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	if len(s.Tokens) == 0 {
		return nil
	}
	tokens, err := s.pending(ctx)
	if err != nil {
		logger.Error("hmn fee sweep failed",
			"event", "hmn_fee_sweep_failed",
			"module", "finance-core/migrator-distributor",
			"layer", "worker",
			"tokens", len(s.Tokens),
			"error", err.Error(),
		)
		return err
	}
	if len(tokens) == 0 {
		logger.Debug("hmn fee sweep idle",
			"event", "hmn_fee_sweep_idle",
			"module", "finance-core/migrator-distributor",
			"layer", "worker",
			"tokens", len(s.Tokens),
		)
		return nil
	}
	report, err := s.Distribute.Execute(ctx, commands.DistributeFeesCommand{
		Caller: s.Caller,
		Tokens: tokens,
	})
	if err != nil {
		logger.Error("hmn fee sweep failed",
			"event", "hmn_fee_sweep_failed",
			"module", "finance-core/migrator-distributor",
			"layer", "worker",
			"tokens", len(s.Tokens),
			"error", err.Error(),
		)
		return err
	}
	logger.Debug("hmn fee sweep succeeded",
		"event", "hmn_fee_sweep_succeeded",
		"module", "finance-core/migrator-distributor",
		"layer", "worker",
		"tokens", len(report),
	)
	return nil
}

func (s FeeSweeper) pending(ctx context.Context) ([]common.Address, error) {
	state, err := s.Distribute.State.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, len(s.Tokens))
	for _, token := range s.Tokens {
		balance, err := s.Distribute.Ledgers.Ledger(token).BalanceOf(ctx, state.Distributor)
		if err != nil {
			return nil, err
		}
		if services.Distributable(balance, state.ReserveBalance, token == state.Pair.NewToken).IsZero() {
			continue
		}
		out = append(out, token)
	}
	return out, nil
}
