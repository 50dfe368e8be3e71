package services

import (
	"github.com/holiman/uint256"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
)

const BasisPointDenominator = 10_000

// Shares is the split of one distributable amount. Remainder is what floor
// rounding leaves with the distributor.
type Shares struct {
	SwapTrigger *uint256.Int
	PurchaseTax *uint256.Int
	SalesTax    *uint256.Int
}

func (s Shares) Total() *uint256.Int {
	total := new(uint256.Int).Add(s.SwapTrigger, s.PurchaseTax)
	return total.Add(total, s.SalesTax)
}

// ValidateTaxConfig requires the three percentages to sum to at most 10000.
// Each term is compared against the remaining headroom so huge inputs cannot
// wrap.
func ValidateTaxConfig(cfg entities.TaxConfig) error {
	remaining := uint64(BasisPointDenominator)
	for _, bp := range []uint64{cfg.SwapTriggerBp, cfg.PurchaseTaxBp, cfg.SalesTaxBp} {
		if bp > remaining {
			return domainerrors.ErrPercentagesExceed
		}
		remaining -= bp
	}
	return nil
}

// Distributable excludes the migration reserve from the new token's balance,
// clamping at zero. Every other token is fully distributable.
func Distributable(balance *uint256.Int, reserve *uint256.Int, isNewToken bool) *uint256.Int {
	if !isNewToken || reserve == nil {
		return balance.Clone()
	}
	if balance.Lt(reserve) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(balance, reserve)
}

// FloorBasisPoints returns floor(amount * bp / 10000) using a 512-bit
// intermediate product.
func FloorBasisPoints(amount *uint256.Int, bp uint64) *uint256.Int {
	out, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(bp), uint256.NewInt(BasisPointDenominator))
	return out
}

func ComputeShares(distributable *uint256.Int, cfg entities.TaxConfig) Shares {
	return Shares{
		SwapTrigger: FloorBasisPoints(distributable, cfg.SwapTriggerBp),
		PurchaseTax: FloorBasisPoints(distributable, cfg.PurchaseTaxBp),
		SalesTax:    FloorBasisPoints(distributable, cfg.SalesTaxBp),
	}
}
