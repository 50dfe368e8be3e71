package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"humanity/contexts/finance-core/token-ledger/domain/entities"
)

// TokenRepository owns balances, allowances and token-level flags for one
// ledger instance. Callers validate business rules before writing.
type TokenRepository interface {
	Token(ctx context.Context) (entities.Token, error)
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
	Allowance(ctx context.Context, owner common.Address, spender common.Address) (*uint256.Int, error)
	// Move debits from and credits to, failing with ErrInsufficientBalance
	// without side effects when from holds less than amount.
	Move(ctx context.Context, from common.Address, to common.Address, amount *uint256.Int) error
	SetAllowance(ctx context.Context, owner common.Address, spender common.Address, amount *uint256.Int) error
	SetRouter(ctx context.Context, router common.Address) error
	SetPaused(ctx context.Context, paused bool) error
}

// ReceiveHook runs after an account is credited. Returning an error aborts
// the whole transfer.
type ReceiveHook func(ctx context.Context, from common.Address, amount *uint256.Int) error

// HookRegistry resolves code attached to recipient accounts.
type HookRegistry interface {
	ReceiveHook(account common.Address) (ReceiveHook, bool)
}

// Transactor runs fn as one all-or-nothing unit of work.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics records ledger-side rule outcomes.
type Metrics interface {
	TransferRejected(token common.Address, reason string)
}
