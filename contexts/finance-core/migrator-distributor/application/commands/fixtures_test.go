package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"humanity/contexts/finance-core/migrator-distributor/adapters/memory"
	application "humanity/contexts/finance-core/migrator-distributor/application"
	"humanity/contexts/finance-core/migrator-distributor/ports"
	"humanity/internal/shared/txn"
)

var (
	owner       = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	distributor = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	holder      = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	stranger    = common.HexToAddress("0x00000000000000000000000000000000000000e0")

	swapTrigger = common.HexToAddress("0x0000000000000000000000000000000000000001")
	purchaseTax = common.HexToAddress("0x0000000000000000000000000000000000000002")
	salesTax    = common.HexToAddress("0x0000000000000000000000000000000000000003")

	newToken   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	oldToken   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	otherToken = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	ghostToken = common.HexToAddress("0x00000000000000000000000000000000000000a4")
)

var errRecipientRejected = errors.New("recipient rejected transfer")

type world struct {
	coordinator *txn.Coordinator
	store       *memory.Store
	guard       *application.ReentrancyGuard
	ledgers     fakeDirectory
	clock       fixedClock
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store := memory.NewStore(distributor, owner)
	coordinator := txn.NewCoordinator(txn.SnapshotResource(store))
	ledgers := fakeDirectory{
		newToken:   newFakeLedger(),
		oldToken:   newFakeLedger(),
		otherToken: newFakeLedger(),
	}
	for _, ledger := range ledgers {
		coordinator.Register(txn.SnapshotResource(ledger))
	}
	return &world{
		coordinator: coordinator,
		store:       store,
		guard:       &application.ReentrancyGuard{},
		ledgers:     ledgers,
		clock:       fixedClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func (w *world) configureTax() ConfigureTaxAndSwapUseCase {
	return ConfigureTaxAndSwapUseCase{State: w.store, Tx: w.coordinator, Outbox: w.store, Clock: w.clock, IDGenerator: w.store}
}

func (w *world) configureAddresses() ConfigureAddressesUseCase {
	return ConfigureAddressesUseCase{State: w.store, Tx: w.coordinator, Outbox: w.store, Clock: w.clock, IDGenerator: w.store}
}

func (w *world) setTokenPair() SetTokenPairUseCase {
	return SetTokenPairUseCase{State: w.store, Tx: w.coordinator, Outbox: w.store, Clock: w.clock, IDGenerator: w.store}
}

func (w *world) addToReserve() AddToReserveUseCase {
	return AddToReserveUseCase{State: w.store, Ledgers: w.ledgers, Tx: w.coordinator, Outbox: w.store, Clock: w.clock, IDGenerator: w.store}
}

func (w *world) distributeFees() DistributeFeesUseCase {
	return DistributeFeesUseCase{State: w.store, Ledgers: w.ledgers, Tx: w.coordinator, Guard: w.guard, Outbox: w.store, Clock: w.clock, IDGenerator: w.store}
}

func (w *world) migrate() MigrateUseCase {
	return MigrateUseCase{State: w.store, Ledgers: w.ledgers, Tx: w.coordinator, Guard: w.guard, Outbox: w.store, Clock: w.clock, IDGenerator: w.store}
}

// configured applies the 50/30/20 split, beneficiaries and the token pair.
func (w *world) configured(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	_, err := w.configureTax().Execute(ctx, ConfigureTaxAndSwapCommand{
		Caller: owner, SwapTriggerBp: 5_000, PurchaseTaxBp: 3_000, SalesTaxBp: 2_000,
	})
	require.NoError(t, err)
	_, err = w.configureAddresses().Execute(ctx, ConfigureAddressesCommand{
		Caller: owner, SwapTrigger: swapTrigger, PurchaseTax: purchaseTax, SalesTax: salesTax,
	})
	require.NoError(t, err)
	_, err = w.setTokenPair().Execute(ctx, SetTokenPairCommand{Caller: owner, NewToken: newToken, OldToken: oldToken})
	require.NoError(t, err)
	return w
}

// fund gives the owner new tokens and funds the reserve with amount.
func (w *world) fund(t *testing.T, amount uint64) {
	t.Helper()
	ledger := w.ledgers[newToken]
	ledger.mint(owner, uint256.NewInt(amount))
	ledger.approve(owner, distributor, uint256.NewInt(amount))
	_, err := w.addToReserve().Execute(context.Background(), AddToReserveCommand{Caller: owner, Amount: uint256.NewInt(amount)})
	require.NoError(t, err)
}

func (w *world) reserve(t *testing.T) *uint256.Int {
	t.Helper()
	state, err := w.store.LoadState(context.Background())
	require.NoError(t, err)
	return state.ReserveBalance
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

type fakeDirectory map[common.Address]*fakeLedger

func (d fakeDirectory) Ledger(token common.Address) ports.Ledger {
	if ledger, ok := d[token]; ok {
		return ledger
	}
	return newFakeLedger()
}

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

type fakeLedger struct {
	mu         sync.Mutex
	balances   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
	rejectTo   map[common.Address]bool
	hooks      map[common.Address]func(ctx context.Context) error
}

type fakeLedgerSnapshot struct {
	balances   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
		rejectTo:   make(map[common.Address]bool),
		hooks:      make(map[common.Address]func(ctx context.Context) error),
	}
}

func (l *fakeLedger) mint(account common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = new(uint256.Int).Add(l.balanceLocked(account), amount)
}

func (l *fakeLedger) approve(owner common.Address, spender common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey{owner: owner, spender: spender}] = amount.Clone()
}

func (l *fakeLedger) balance(account common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(account).Uint64()
}

func (l *fakeLedger) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(account).Clone(), nil
}

func (l *fakeLedger) Transfer(ctx context.Context, from common.Address, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	if l.rejectTo[to] {
		l.mu.Unlock()
		return errRecipientRejected
	}
	if err := l.moveLocked(from, to, amount); err != nil {
		l.mu.Unlock()
		return err
	}
	hook := l.hooks[to]
	l.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	return nil
}

func (l *fakeLedger) TransferFrom(_ context.Context, spender common.Address, from common.Address, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := allowanceKey{owner: from, spender: spender}
	allowance, ok := l.allowances[key]
	if !ok || allowance.Lt(amount) {
		return errors.New("insufficient allowance")
	}
	if err := l.moveLocked(from, to, amount); err != nil {
		return err
	}
	l.allowances[key] = new(uint256.Int).Sub(allowance, amount)
	return nil
}

func (l *fakeLedger) moveLocked(from common.Address, to common.Address, amount *uint256.Int) error {
	fromBalance := l.balanceLocked(from)
	if fromBalance.Lt(amount) {
		return errors.New("transfer amount exceeds balance")
	}
	l.balances[from] = new(uint256.Int).Sub(fromBalance, amount)
	l.balances[to] = new(uint256.Int).Add(l.balanceLocked(to), amount)
	return nil
}

func (l *fakeLedger) balanceLocked(account common.Address) *uint256.Int {
	if balance, ok := l.balances[account]; ok {
		return balance
	}
	return new(uint256.Int)
}

func (l *fakeLedger) Snapshot() any {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := fakeLedgerSnapshot{
		balances:   make(map[common.Address]*uint256.Int, len(l.balances)),
		allowances: make(map[allowanceKey]*uint256.Int, len(l.allowances)),
	}
	for k, v := range l.balances {
		snap.balances[k] = v.Clone()
	}
	for k, v := range l.allowances {
		snap.allowances[k] = v.Clone()
	}
	return snap
}

func (l *fakeLedger) Restore(value any) {
	snap := value.(fakeLedgerSnapshot)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = snap.balances
	l.allowances = snap.allowances
}
