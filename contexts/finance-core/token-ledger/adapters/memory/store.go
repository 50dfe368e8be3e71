package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"humanity/contexts/finance-core/token-ledger/domain/entities"
	domainerrors "humanity/contexts/finance-core/token-ledger/domain/errors"
	"humanity/contexts/finance-core/token-ledger/ports"
)

type allowanceKey struct {
	Owner   common.Address
	Spender common.Address
}

type Store struct {
	mu sync.RWMutex

	token      entities.Token
	balances   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int

	hookMu sync.RWMutex
	hooks  map[common.Address]ports.ReceiveHook
}

type snapshot struct {
	token      entities.Token
	balances   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
}

// NewStore creates a ledger whose whole supply is held by holder.
func NewStore(token entities.Token, holder common.Address) *Store {
	if token.TotalSupply == nil {
		token.TotalSupply = new(uint256.Int)
	}
	token.TotalSupply = token.TotalSupply.Clone()
	store := &Store{
		token:      token,
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
		hooks:      make(map[common.Address]ports.ReceiveHook),
	}
	if !token.TotalSupply.IsZero() {
		store.balances[holder] = token.TotalSupply.Clone()
	}
	return store
}

func (s *Store) Token(_ context.Context) (entities.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token := s.token
	token.TotalSupply = s.token.TotalSupply.Clone()
	return token, nil
}

func (s *Store) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if balance, ok := s.balances[account]; ok {
		return balance.Clone(), nil
	}
	return new(uint256.Int), nil
}

func (s *Store) Allowance(_ context.Context, owner common.Address, spender common.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if allowance, ok := s.allowances[allowanceKey{Owner: owner, Spender: spender}]; ok {
		return allowance.Clone(), nil
	}
	return new(uint256.Int), nil
}

func (s *Store) Move(_ context.Context, from common.Address, to common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromBalance := s.balanceLocked(from)
	if fromBalance.Lt(amount) {
		return domainerrors.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	s.balances[from] = new(uint256.Int).Sub(fromBalance, amount)
	s.balances[to] = new(uint256.Int).Add(s.balanceLocked(to), amount)
	return nil
}

func (s *Store) SetAllowance(_ context.Context, owner common.Address, spender common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.allowances[allowanceKey{Owner: owner, Spender: spender}] = amount.Clone()
	return nil
}

func (s *Store) SetRouter(_ context.Context, router common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token.Router = router
	return nil
}

func (s *Store) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token.Paused = paused
	return nil
}

// RegisterReceiveHook attaches code to account. A nil hook removes it.
func (s *Store) RegisterReceiveHook(account common.Address, hook ports.ReceiveHook) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()

	if hook == nil {
		delete(s.hooks, account)
		return
	}
	s.hooks[account] = hook
}

func (s *Store) ReceiveHook(account common.Address) (ports.ReceiveHook, bool) {
	s.hookMu.RLock()
	defer s.hookMu.RUnlock()

	hook, ok := s.hooks[account]
	return hook, ok
}

func (s *Store) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := snapshot{
		token:      s.token,
		balances:   make(map[common.Address]*uint256.Int, len(s.balances)),
		allowances: make(map[allowanceKey]*uint256.Int, len(s.allowances)),
	}
	out.token.TotalSupply = s.token.TotalSupply.Clone()
	for account, balance := range s.balances {
		out.balances[account] = balance.Clone()
	}
	for key, allowance := range s.allowances {
		out.allowances[key] = allowance.Clone()
	}
	return out
}

func (s *Store) Restore(value any) {
	snap, ok := value.(snapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = snap.token
	s.balances = snap.balances
	s.allowances = snap.allowances
}

func (s *Store) balanceLocked(account common.Address) *uint256.Int {
	if balance, ok := s.balances[account]; ok {
		return balance
	}
	return new(uint256.Int)
}
