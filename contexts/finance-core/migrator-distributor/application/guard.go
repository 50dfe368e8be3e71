package application

import (
	"sync/atomic"

	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
)

// ReentrancyGuard rejects a guarded operation that is entered again before
// the first invocation returned, such as a call made from a ledger receive
// hook triggered by the operation's own transfer.
type ReentrancyGuard struct {
	busy atomic.Bool
}

func (g *ReentrancyGuard) Enter() error {
	if !g.busy.CompareAndSwap(false, true) {
		return domainerrors.ErrReentrantCall
	}
	return nil
}

func (g *ReentrancyGuard) Exit() {
	g.busy.Store(false)
}

// Do runs fn while holding the guard.
func (g *ReentrancyGuard) Do(fn func() error) error {
	if err := g.Enter(); err != nil {
		return err
	}
	defer g.Exit()
	return fn()
}
