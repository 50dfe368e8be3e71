// Package ledgerbridge connects the distributor's ledger port to token-ledger
// instances running in the same process.
package ledgerbridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	distributorerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
	"humanity/contexts/finance-core/migrator-distributor/ports"
	ledgerapp "humanity/contexts/finance-core/token-ledger/application"
	ledgererrors "humanity/contexts/finance-core/token-ledger/domain/errors"
)

type Directory struct {
	mu      sync.RWMutex
	ledgers map[common.Address]ledgerapp.Service
}

func NewDirectory() *Directory {
	return &Directory{ledgers: make(map[common.Address]ledgerapp.Service)}
}

func (d *Directory) Register(token common.Address, service ledgerapp.Service) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ledgers[token] = service
}

// Service returns the ledger service registered for token.
func (d *Directory) Service(token common.Address) (ledgerapp.Service, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	service, ok := d.ledgers[token]
	return service, ok
}

func (d *Directory) Tokens() []common.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]common.Address, 0, len(d.ledgers))
	for token := range d.ledgers {
		out = append(out, token)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Ledger resolves token to a registered ledger. Unknown tokens get an empty
// ledger: every balance is zero and only zero-amount moves succeed.
func (d *Directory) Ledger(token common.Address) ports.Ledger {
	if service, ok := d.Service(token); ok {
		return serviceLedger{service: service}
	}
	return emptyLedger{token: token}
}

type serviceLedger struct {
	service ledgerapp.Service
}

func (l serviceLedger) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	balance, err := l.service.BalanceOf(ctx, account)
	return balance, translate(err)
}

func (l serviceLedger) Transfer(ctx context.Context, from common.Address, to common.Address, amount *uint256.Int) error {
	return translate(l.service.Transfer(ctx, from, to, amount))
}

func (l serviceLedger) TransferFrom(ctx context.Context, spender common.Address, from common.Address, to common.Address, amount *uint256.Int) error {
	return translate(l.service.TransferFrom(ctx, spender, from, to, amount))
}

// translate re-tags ledger cap rejections with the distributor's HMN01
// sentinel while keeping the original error in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ledgererrors.ErrTransferCapExceeded) {
		return restrictedError{cause: err}
	}
	return err
}

// restrictedError reads as the ledger's own message, which already carries
// the HMN01 code, and matches both cap sentinels.
type restrictedError struct {
	cause error
}

func (e restrictedError) Error() string {
	return e.cause.Error()
}

func (e restrictedError) Unwrap() []error {
	return []error{distributorerrors.ErrTransferRestricted, e.cause}
}

type emptyLedger struct {
	token common.Address
}

func (emptyLedger) BalanceOf(context.Context, common.Address) (*uint256.Int, error) {
	return new(uint256.Int), nil
}

func (l emptyLedger) Transfer(_ context.Context, _ common.Address, _ common.Address, amount *uint256.Int) error {
	return l.move(amount)
}

func (l emptyLedger) TransferFrom(_ context.Context, _ common.Address, _ common.Address, _ common.Address, amount *uint256.Int) error {
	return l.move(amount)
}

func (l emptyLedger) move(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	return fmt.Errorf("%w: %s", ledgererrors.ErrTokenNotFound, l.token.Hex())
}

var _ ports.LedgerDirectory = (*Directory)(nil)
