package commands

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	application "humanity/contexts/finance-core/migrator-distributor/application"
	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	"humanity/contexts/finance-core/migrator-distributor/domain/services"
	"humanity/contexts/finance-core/migrator-distributor/ports"
)

type DistributeFeesCommand struct {
	Caller common.Address
	Tokens []common.Address
}

// DistributeFeesUseCase splits the distributor's balances among the three
// beneficiaries. Tokens are processed in the given order, duplicates
// included; the migration reserve is never distributed.
type DistributeFeesUseCase struct {
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

func (u DistributeFeesUseCase) Execute(ctx context.Context, cmd DistributeFeesCommand) ([]entities.Distribution, error) {
	logger := application.ResolveLogger(u.Logger)

	var report []entities.Distribution
	err := withinTransaction(ctx, u.Tx, func(ctx context.Context) error {
		return guarded(u.Guard, func() error {
			state, err := u.State.LoadState(ctx)
			if err != nil {
				return err
			}
			report = make([]entities.Distribution, 0, len(cmd.Tokens))
			for _, token := range cmd.Tokens {
				distribution, err := u.distributeToken(ctx, state, token)
				if err != nil {
					return err
				}
				report = append(report, distribution)
			}
			return appendEvent(ctx, u.Outbox, u.IDGenerator, currentTime(u.Clock), EventFeesDistributed, state.Distributor.Hex(), feesDistributedPayload{
				Distributor:   state.Distributor.Hex(),
				Caller:        cmd.Caller.Hex(),
				Distributions: toDistributionPayloads(report),
			})
		})
	})
	if err != nil {
		logger.Warn("fee distribution failed",
			"event", "hmn_fee_distribution_failed",
			"module", "finance-core/migrator-distributor",
			"layer", "application",
			"caller", cmd.Caller.Hex(),
			"tokens", len(cmd.Tokens),
			"error", err.Error(),
		)
		return nil, err
	}
	for _, distribution := range report {
		if u.Metrics != nil {
			u.Metrics.ObserveDistribution(distribution)
		}
		logger.Info("fees distributed",
			"event", "hmn_fees_distributed",
			"module", "finance-core/migrator-distributor",
			"layer", "application",
			"caller", cmd.Caller.Hex(),
			"token", distribution.Token.Hex(),
			"distributable", distribution.Distributable.Dec(),
			"swap_trigger_share", distribution.SwapTriggerShare.Dec(),
			"purchase_tax_share", distribution.PurchaseTaxShare.Dec(),
			"sales_tax_share", distribution.SalesTaxShare.Dec(),
		)
	}
	return report, nil
}

func (u DistributeFeesUseCase) distributeToken(ctx context.Context, state entities.State, token common.Address) (entities.Distribution, error) {
	ledger := u.Ledgers.Ledger(token)
	balance, err := ledger.BalanceOf(ctx, state.Distributor)
	if err != nil {
		return entities.Distribution{}, externalCall(err)
	}
	distributable := services.Distributable(balance, state.ReserveBalance, token == state.Pair.NewToken)
	shares := services.ComputeShares(distributable, state.Tax)

	payouts := []struct {
		to     common.Address
		amount *uint256.Int
	}{
		{to: state.Beneficiaries.SwapTrigger, amount: shares.SwapTrigger},
		{to: state.Beneficiaries.PurchaseTax, amount: shares.PurchaseTax},
		{to: state.Beneficiaries.SalesTax, amount: shares.SalesTax},
	}
	for _, payout := range payouts {
		if err := ledger.Transfer(ctx, state.Distributor, payout.to, payout.amount); err != nil {
			return entities.Distribution{}, externalCall(err)
		}
	}
	return entities.Distribution{
		Token:            token,
		Balance:          balance,
		Distributable:    distributable,
		SwapTriggerShare: shares.SwapTrigger,
		PurchaseTaxShare: shares.PurchaseTax,
		SalesTaxShare:    shares.SalesTax,
	}, nil
}
