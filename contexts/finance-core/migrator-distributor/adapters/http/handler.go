package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"humanity/contexts/finance-core/migrator-distributor/application/commands"
	"humanity/contexts/finance-core/migrator-distributor/application/queries"
	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
	httptransport "humanity/contexts/finance-core/migrator-distributor/transport/http"
)

type Handler struct {
	ConfigureTax       commands.ConfigureTaxAndSwapUseCase
	ConfigureAddresses commands.ConfigureAddressesUseCase
	SetTokenPair       commands.SetTokenPairUseCase
	AddToReserve       commands.AddToReserveUseCase
	DistributeFees     commands.DistributeFeesUseCase
	Migrate            commands.MigrateUseCase
	GetState           queries.GetStateUseCase
	Logger             *slog.Logger
}

func (h Handler) ConfigureTaxHandler(ctx context.Context, caller string, req httptransport.ConfigureTaxRequest) (httptransport.StateResponse, error) {
	callerAddress, err := parseAddress(caller)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	state, err := h.ConfigureTax.Execute(ctx, commands.ConfigureTaxAndSwapCommand{
		Caller:        callerAddress,
		SwapTriggerBp: req.SwapTriggerBp,
		PurchaseTaxBp: req.PurchaseTaxBp,
		SalesTaxBp:    req.SalesTaxBp,
	})
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	return stateResponse(state), nil
}

func (h Handler) ConfigureAddressesHandler(ctx context.Context, caller string, req httptransport.ConfigureAddressesRequest) (httptransport.StateResponse, error) {
	callerAddress, err := parseAddress(caller)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	swapTrigger, err := parseAddress(req.SwapTrigger)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	purchaseTax, err := parseAddress(req.PurchaseTax)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	salesTax, err := parseAddress(req.SalesTax)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	state, err := h.ConfigureAddresses.Execute(ctx, commands.ConfigureAddressesCommand{
		Caller:      callerAddress,
		SwapTrigger: swapTrigger,
		PurchaseTax: purchaseTax,
		SalesTax:    salesTax,
	})
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	return stateResponse(state), nil
}

func (h Handler) SetTokenPairHandler(ctx context.Context, caller string, req httptransport.SetTokenPairRequest) (httptransport.StateResponse, error) {
	callerAddress, err := parseAddress(caller)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	newToken, err := parseAddress(req.NewToken)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	oldToken, err := parseAddress(req.OldToken)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	state, err := h.SetTokenPair.Execute(ctx, commands.SetTokenPairCommand{
		Caller:   callerAddress,
		NewToken: newToken,
		OldToken: oldToken,
	})
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	return stateResponse(state), nil
}

func (h Handler) AddToReserveHandler(ctx context.Context, caller string, req httptransport.AmountRequest) (httptransport.StateResponse, error) {
	callerAddress, err := parseAddress(caller)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	state, err := h.AddToReserve.Execute(ctx, commands.AddToReserveCommand{
		Caller: callerAddress,
		Amount: amount,
	})
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	return stateResponse(state), nil
}

func (h Handler) DistributeFeesHandler(ctx context.Context, caller string, req httptransport.DistributeFeesRequest) (httptransport.DistributeFeesResponse, error) {
	callerAddress, err := parseAddress(caller)
	if err != nil {
		return httptransport.DistributeFeesResponse{}, err
	}
	tokens := make([]common.Address, 0, len(req.Tokens))
	for _, raw := range req.Tokens {
		token, err := parseAddress(raw)
		if err != nil {
			return httptransport.DistributeFeesResponse{}, err
		}
		tokens = append(tokens, token)
	}
	report, err := h.DistributeFees.Execute(ctx, commands.DistributeFeesCommand{
		Caller: callerAddress,
		Tokens: tokens,
	})
	if err != nil {
		return httptransport.DistributeFeesResponse{}, err
	}
	resp := httptransport.DistributeFeesResponse{
		Status: "success",
		Data:   make([]httptransport.DistributionDTO, 0, len(report)),
	}
	for _, item := range report {
		resp.Data = append(resp.Data, httptransport.DistributionDTO{
			Token:            item.Token.Hex(),
			Balance:          item.Balance.Dec(),
			Distributable:    item.Distributable.Dec(),
			SwapTriggerShare: item.SwapTriggerShare.Dec(),
			PurchaseTaxShare: item.PurchaseTaxShare.Dec(),
			SalesTaxShare:    item.SalesTaxShare.Dec(),
		})
	}
	return resp, nil
}

func (h Handler) MigrateHandler(ctx context.Context, caller string, req httptransport.AmountRequest) (httptransport.MigrateResponse, error) {
	callerAddress, err := parseAddress(caller)
	if err != nil {
		return httptransport.MigrateResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.MigrateResponse{}, err
	}
	migration, err := h.Migrate.Execute(ctx, commands.MigrateCommand{
		Caller: callerAddress,
		Amount: amount,
	})
	if err != nil {
		return httptransport.MigrateResponse{}, err
	}
	return httptransport.MigrateResponse{
		Status: "success",
		Data: httptransport.MigrationDTO{
			Holder:         migration.Holder.Hex(),
			Amount:         migration.Amount.Dec(),
			Payout:         migration.Payout.Dec(),
			ReserveBalance: migration.ReserveBalance.Dec(),
		},
	}, nil
}

func (h Handler) GetStateHandler(ctx context.Context) (httptransport.StateResponse, error) {
	state, err := h.GetState.Execute(ctx)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	return stateResponse(state), nil
}

func stateResponse(state entities.State) httptransport.StateResponse {
	dto := httptransport.StateDTO{
		Distributor:    state.Distributor.Hex(),
		Owner:          state.Owner.Hex(),
		SwapTriggerBp:  state.Tax.SwapTriggerBp,
		PurchaseTaxBp:  state.Tax.PurchaseTaxBp,
		SalesTaxBp:     state.Tax.SalesTaxBp,
		SwapTrigger:    state.Beneficiaries.SwapTrigger.Hex(),
		PurchaseTax:    state.Beneficiaries.PurchaseTax.Hex(),
		SalesTax:       state.Beneficiaries.SalesTax.Hex(),
		NewToken:       state.Pair.NewToken.Hex(),
		OldToken:       state.Pair.OldToken.Hex(),
		ReserveBalance: state.ReserveBalance.Dec(),
	}
	if !state.UpdatedAt.IsZero() {
		dto.UpdatedAt = state.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return httptransport.StateResponse{Status: "success", Data: dto}
}

func parseAddress(value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, domainerrors.ErrInvalidInput
	}
	return common.HexToAddress(value), nil
}

// parseAmount leaves zero to the use cases, which own the positive-amount
// rule.
func parseAmount(value string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(strings.TrimSpace(value))
	if err != nil {
		return nil, domainerrors.ErrInvalidAmount
	}
	return amount, nil
}
