package entities

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TaxConfig holds the three percentages in basis points (1/10000).
type TaxConfig struct {
	SwapTriggerBp uint64
	PurchaseTaxBp uint64
	SalesTaxBp    uint64
}

type Beneficiaries struct {
	SwapTrigger common.Address
	PurchaseTax common.Address
	SalesTax    common.Address
}

type TokenPair struct {
	NewToken common.Address
	OldToken common.Address
}

// State is the whole persisted configuration of one distributor instance.
type State struct {
	Distributor    common.Address
	Owner          common.Address
	Tax            TaxConfig
	Beneficiaries  Beneficiaries
	Pair           TokenPair
	ReserveBalance *uint256.Int
	UpdatedAt      time.Time
}

func NewState(distributor common.Address, owner common.Address) State {
	return State{
		Distributor:    distributor,
		Owner:          owner,
		ReserveBalance: new(uint256.Int),
	}
}

func (s State) Clone() State {
	out := s
	if s.ReserveBalance == nil {
		out.ReserveBalance = new(uint256.Int)
	} else {
		out.ReserveBalance = s.ReserveBalance.Clone()
	}
	return out
}

// Distribution reports one token's sweep inside a FeeDistributor call.
type Distribution struct {
	Token            common.Address
	Balance          *uint256.Int
	Distributable    *uint256.Int
	SwapTriggerShare *uint256.Int
	PurchaseTaxShare *uint256.Int
	SalesTaxShare    *uint256.Int
}

// Migration reports one completed old-to-new exchange.
type Migration struct {
	Holder         common.Address
	Amount         *uint256.Int
	Payout         *uint256.Int
	ReserveBalance *uint256.Int
}
