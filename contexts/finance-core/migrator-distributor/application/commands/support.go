package commands

import (
	"context"
	"fmt"
	"time"

	application "humanity/contexts/finance-core/migrator-distributor/application"
	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
	"humanity/contexts/finance-core/migrator-distributor/ports"
)

func withinTransaction(ctx context.Context, tx ports.Transactor, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx.WithinTransaction(ctx, fn)
}

func guarded(guard *application.ReentrancyGuard, fn func() error) error {
	if guard == nil {
		return fn()
	}
	return guard.Do(fn)
}

func currentTime(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}

// externalCall keeps both the category and the ledger cause matchable.
func externalCall(err error) error {
	return fmt.Errorf("%w: %w", domainerrors.ErrExternalCallFailed, err)
}
