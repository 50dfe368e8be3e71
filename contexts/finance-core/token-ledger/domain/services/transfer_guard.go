package services

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	domainerrors "humanity/contexts/finance-core/token-ledger/domain/errors"
)

const (
	BasisPointDenominator = 10_000
	// DefaultCapBasisPoints limits a single restricted transfer to 1% of supply.
	DefaultCapBasisPoints = 100
)

// GuardState is the per-attempt state of the transfer cap rule.
type GuardState string

const (
	GuardUnrestricted GuardState = "unrestricted"
	GuardRestricted   GuardState = "restricted"
)

// RouterPolicy answers whether an account holds the router capability.
type RouterPolicy interface {
	IsRouter(account common.Address) bool
}

// RegisteredRouter is the single-router policy recorded on a token. The zero
// address means no router is registered.
type RegisteredRouter common.Address

func (r RegisteredRouter) IsRouter(account common.Address) bool {
	router := common.Address(r)
	return router != (common.Address{}) && router == account
}

// RouterFunc adapts a plain predicate into a RouterPolicy.
type RouterFunc func(account common.Address) bool

func (f RouterFunc) IsRouter(account common.Address) bool {
	return f(account)
}

// TransferAttempt describes one transfer or allowance-based transfer. Caller
// is the account initiating the call; for direct transfers it equals From.
type TransferAttempt struct {
	Caller common.Address
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

type TransferGuard struct {
	CapBasisPoints uint64
}

func NewTransferGuard() TransferGuard {
	return TransferGuard{CapBasisPoints: DefaultCapBasisPoints}
}

// State is Unrestricted when the initiating, sending or receiving party is the
// router.
func (g TransferGuard) State(policy RouterPolicy, attempt TransferAttempt) GuardState {
	if policy == nil {
		return GuardRestricted
	}
	if policy.IsRouter(attempt.Caller) || policy.IsRouter(attempt.From) || policy.IsRouter(attempt.To) {
		return GuardUnrestricted
	}
	return GuardRestricted
}

// Cap returns floor(totalSupply * capBp / 10000).
func (g TransferGuard) Cap(totalSupply *uint256.Int) *uint256.Int {
	if totalSupply == nil {
		return new(uint256.Int)
	}
	capBp := g.CapBasisPoints
	if capBp == 0 {
		capBp = DefaultCapBasisPoints
	}
	limit, _ := new(uint256.Int).MulDivOverflow(
		totalSupply,
		uint256.NewInt(capBp),
		uint256.NewInt(BasisPointDenominator),
	)
	return limit
}

// Check fails with ErrTransferCapExceeded when a restricted attempt moves more
// than the cap.
func (g TransferGuard) Check(policy RouterPolicy, totalSupply *uint256.Int, attempt TransferAttempt) error {
	if g.State(policy, attempt) == GuardUnrestricted {
		return nil
	}
	if attempt.Amount != nil && attempt.Amount.Gt(g.Cap(totalSupply)) {
		return domainerrors.ErrTransferCapExceeded
	}
	return nil
}
