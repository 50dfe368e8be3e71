package services

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
)

// Legacy holders receive 9 new tokens per 10000 old tokens.
const (
	MigrationRateNumerator   = 9
	MigrationRateDenominator = 10_000
)

func MigrationPayout(amount *uint256.Int) *uint256.Int {
	out, _ := new(uint256.Int).MulDivOverflow(
		amount,
		uint256.NewInt(MigrationRateNumerator),
		uint256.NewInt(MigrationRateDenominator),
	)
	return out
}

func ValidateBeneficiaries(b entities.Beneficiaries) error {
	for _, field := range []struct {
		name    string
		address common.Address
	}{
		{name: "swapTrigger", address: b.SwapTrigger},
		{name: "purchaseTax", address: b.PurchaseTax},
		{name: "salesTax", address: b.SalesTax},
	} {
		if field.address == (common.Address{}) {
			return fmt.Errorf("%w: %s", domainerrors.ErrZeroAddress, field.name)
		}
	}
	return nil
}

func ValidateTokenPair(pair entities.TokenPair) error {
	if pair.NewToken == (common.Address{}) || pair.OldToken == (common.Address{}) {
		return domainerrors.ErrInvalidTokenAddresses
	}
	return nil
}

func ValidateAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return domainerrors.ErrInvalidAmount
	}
	return nil
}
