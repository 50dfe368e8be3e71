package entities

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Token is the ledger-level view of one HMN instance.
type Token struct {
	Address     common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	Owner       common.Address
	Router      common.Address
	Paused      bool
	TotalSupply *uint256.Int
}

func (t Token) HasRouter() bool {
	return t.Router != (common.Address{})
}

// DefaultSupply is 900,000,000 tokens with 18 decimals.
func DefaultSupply() *uint256.Int {
	supply := uint256.NewInt(900_000_000)
	return supply.Mul(supply, new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18)))
}
