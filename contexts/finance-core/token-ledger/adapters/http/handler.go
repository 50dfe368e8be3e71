package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"humanity/contexts/finance-core/token-ledger/application"
	domainerrors "humanity/contexts/finance-core/token-ledger/domain/errors"
	"humanity/contexts/finance-core/token-ledger/domain/services"
	httptransport "humanity/contexts/finance-core/token-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GetTokenHandler(ctx context.Context) (httptransport.TokenResponse, error) {
	token, err := h.Service.Token(ctx)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	guard := h.Service.Guard
	if guard.CapBasisPoints == 0 {
		guard = services.NewTransferGuard()
	}
	return httptransport.TokenResponse{
		Status: "success",
		Data: httptransport.TokenDTO{
			Address:     token.Address.Hex(),
			Name:        token.Name,
			Symbol:      token.Symbol,
			Decimals:    token.Decimals,
			Owner:       token.Owner.Hex(),
			Router:      token.Router.Hex(),
			Paused:      token.Paused,
			TotalSupply: token.TotalSupply.Dec(),
			TransferCap: guard.Cap(token.TotalSupply).Dec(),
		},
	}, nil
}

func (h Handler) BalanceHandler(ctx context.Context, account string) (httptransport.BalanceResponse, error) {
	address, err := ParseAddress(account)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	token, err := h.Service.Token(ctx)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	balance, err := h.Service.BalanceOf(ctx, address)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return httptransport.BalanceResponse{
		Status: "success",
		Data: httptransport.BalanceDTO{
			Token:   token.Address.Hex(),
			Account: address.Hex(),
			Balance: balance.Dec(),
		},
	}, nil
}

func (h Handler) TransferHandler(ctx context.Context, caller string, req httptransport.TransferRequest) (httptransport.AckResponse, error) {
	from, err := ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	to, err := ParseAddress(req.To)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Transfer(ctx, from, to, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return ack(), nil
}

func (h Handler) TransferFromHandler(ctx context.Context, caller string, req httptransport.TransferFromRequest) (httptransport.AckResponse, error) {
	spender, err := ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	from, err := ParseAddress(req.From)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	to, err := ParseAddress(req.To)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.TransferFrom(ctx, spender, from, to, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return ack(), nil
}

func (h Handler) ApproveHandler(ctx context.Context, caller string, req httptransport.ApproveRequest) (httptransport.AckResponse, error) {
	owner, err := ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	spender, err := ParseAddress(req.Spender)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Approve(ctx, owner, spender, amount); err != nil {
		return httptransport.AckResponse{}, err
	}
	return ack(), nil
}

func (h Handler) SetRouterHandler(ctx context.Context, caller string, req httptransport.SetRouterRequest) (httptransport.AckResponse, error) {
	owner, err := ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	router, err := ParseAddress(req.Router)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.SetRouter(ctx, owner, router); err != nil {
		return httptransport.AckResponse{}, err
	}
	return ack(), nil
}

func (h Handler) PauseHandler(ctx context.Context, caller string) (httptransport.AckResponse, error) {
	owner, err := ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Pause(ctx, owner); err != nil {
		return httptransport.AckResponse{}, err
	}
	return ack(), nil
}

func (h Handler) UnpauseHandler(ctx context.Context, caller string) (httptransport.AckResponse, error) {
	owner, err := ParseAddress(caller)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	if err := h.Service.Unpause(ctx, owner); err != nil {
		return httptransport.AckResponse{}, err
	}
	return ack(), nil
}

// ParseAddress accepts 0x-prefixed 20-byte hex.
func ParseAddress(value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, domainerrors.ErrInvalidInput
	}
	return common.HexToAddress(value), nil
}

// ParseAmount accepts a base-10 integer string.
func ParseAmount(value string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(strings.TrimSpace(value))
	if err != nil {
		return nil, domainerrors.ErrInvalidAmount
	}
	return amount, nil
}

func ack() httptransport.AckResponse {
	return httptransport.AckResponse{Status: "success"}
}
