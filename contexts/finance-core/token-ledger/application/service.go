package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"humanity/contexts/finance-core/token-ledger/domain/entities"
	domainerrors "humanity/contexts/finance-core/token-ledger/domain/errors"
	"humanity/contexts/finance-core/token-ledger/domain/services"
	"humanity/contexts/finance-core/token-ledger/ports"
)

const moduleName = "finance-core/token-ledger"

type Service struct {
	Tokens  ports.TokenRepository
	Hooks   ports.HookRegistry
	Tx      ports.Transactor
	Guard   services.TransferGuard
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (s Service) Token(ctx context.Context) (entities.Token, error) {
	return s.Tokens.Token(ctx)
}

func (s Service) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	token, err := s.Tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return token.TotalSupply.Clone(), nil
}

func (s Service) Router(ctx context.Context) (common.Address, error) {
	token, err := s.Tokens.Token(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return token.Router, nil
}

func (s Service) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	return s.Tokens.BalanceOf(ctx, account)
}

func (s Service) Allowance(ctx context.Context, owner common.Address, spender common.Address) (*uint256.Int, error) {
	return s.Tokens.Allowance(ctx, owner, spender)
}

// Transfer moves amount from caller to to, subject to the transfer cap.
func (s Service) Transfer(ctx context.Context, caller common.Address, to common.Address, amount *uint256.Int) error {
	return s.within(ctx, func(ctx context.Context) error {
		return s.move(ctx, services.TransferAttempt{
			Caller: caller,
			From:   caller,
			To:     to,
			Amount: amount,
		})
	})
}

// TransferFrom spends caller's allowance on from. The cap is evaluated with
// caller as the initiating party.
func (s Service) TransferFrom(
	ctx context.Context,
	caller common.Address,
	from common.Address,
	to common.Address,
	amount *uint256.Int,
) error {
	return s.within(ctx, func(ctx context.Context) error {
		if amount == nil {
			return domainerrors.ErrInvalidAmount
		}
		allowance, err := s.Tokens.Allowance(ctx, from, caller)
		if err != nil {
			return err
		}
		if allowance.Lt(amount) {
			s.reject(ctx, domainerrors.ErrInsufficientAllowance, from, to, amount)
			return domainerrors.ErrInsufficientAllowance
		}
		// Max allowance is treated as infinite and never decremented.
		if !allowance.Eq(maxUint256()) {
			remaining := new(uint256.Int).Sub(allowance, amount)
			if err := s.Tokens.SetAllowance(ctx, from, caller, remaining); err != nil {
				return err
			}
		}
		return s.move(ctx, services.TransferAttempt{
			Caller: caller,
			From:   from,
			To:     to,
			Amount: amount,
		})
	})
}

func (s Service) Approve(ctx context.Context, caller common.Address, spender common.Address, amount *uint256.Int) error {
	if spender == (common.Address{}) {
		return domainerrors.ErrZeroAddress
	}
	if amount == nil {
		return domainerrors.ErrInvalidAmount
	}
	return s.within(ctx, func(ctx context.Context) error {
		return s.Tokens.SetAllowance(ctx, caller, spender, amount)
	})
}

func (s Service) SetRouter(ctx context.Context, caller common.Address, router common.Address) error {
	return s.within(ctx, func(ctx context.Context) error {
		token, err := s.requireOwner(ctx, caller)
		if err != nil {
			return err
		}
		if err := s.Tokens.SetRouter(ctx, router); err != nil {
			return err
		}
		ResolveLogger(s.Logger).Info("token router updated",
			"event", "token_router_updated",
			"module", moduleName,
			"layer", "application",
			"token", token.Address.Hex(),
			"router", router.Hex(),
		)
		return nil
	})
}

func (s Service) Pause(ctx context.Context, caller common.Address) error {
	return s.setPaused(ctx, caller, true)
}

func (s Service) Unpause(ctx context.Context, caller common.Address) error {
	return s.setPaused(ctx, caller, false)
}

func (s Service) setPaused(ctx context.Context, caller common.Address, paused bool) error {
	return s.within(ctx, func(ctx context.Context) error {
		token, err := s.requireOwner(ctx, caller)
		if err != nil {
			return err
		}
		if token.Paused == paused {
			if paused {
				return domainerrors.ErrAlreadyPaused
			}
			return domainerrors.ErrNotPaused
		}
		if err := s.Tokens.SetPaused(ctx, paused); err != nil {
			return err
		}
		ResolveLogger(s.Logger).Info("token pause state changed",
			"event", "token_pause_changed",
			"module", moduleName,
			"layer", "application",
			"token", token.Address.Hex(),
			"paused", paused,
		)
		return nil
	})
}

func (s Service) move(ctx context.Context, attempt services.TransferAttempt) error {
	if attempt.Amount == nil {
		return domainerrors.ErrInvalidAmount
	}
	if attempt.To == (common.Address{}) {
		return domainerrors.ErrZeroAddress
	}
	token, err := s.Tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token.Paused {
		s.reject(ctx, domainerrors.ErrPaused, attempt.From, attempt.To, attempt.Amount)
		return domainerrors.ErrPaused
	}
	if err := s.Guard.Check(services.RegisteredRouter(token.Router), token.TotalSupply, attempt); err != nil {
		s.reject(ctx, err, attempt.From, attempt.To, attempt.Amount)
		return err
	}
	if err := s.Tokens.Move(ctx, attempt.From, attempt.To, attempt.Amount); err != nil {
		if errors.Is(err, domainerrors.ErrInsufficientBalance) {
			s.reject(ctx, err, attempt.From, attempt.To, attempt.Amount)
		}
		return err
	}
	if s.Hooks != nil {
		if hook, ok := s.Hooks.ReceiveHook(attempt.To); ok {
			if err := hook(ctx, attempt.From, attempt.Amount.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s Service) requireOwner(ctx context.Context, caller common.Address) (entities.Token, error) {
	token, err := s.Tokens.Token(ctx)
	if err != nil {
		return entities.Token{}, err
	}
	if token.Owner != caller {
		return entities.Token{}, domainerrors.ErrCallerNotOwner
	}
	return token, nil
}

func (s Service) reject(ctx context.Context, reason error, from common.Address, to common.Address, amount *uint256.Int) {
	token, err := s.Tokens.Token(ctx)
	if err != nil {
		return
	}
	if s.Metrics != nil {
		s.Metrics.TransferRejected(token.Address, reason.Error())
	}
	ResolveLogger(s.Logger).Warn("token transfer rejected",
		"event", "token_transfer_rejected",
		"module", moduleName,
		"layer", "application",
		"token", token.Address.Hex(),
		"from", from.Hex(),
		"to", to.Hex(),
		"amount", amount.Dec(),
		"error", reason.Error(),
	)
}

func (s Service) within(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Tx == nil {
		return fn(ctx)
	}
	return s.Tx.WithinTransaction(ctx, fn)
}

func maxUint256() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}
