package services

import (
	"github.com/ethereum/go-ethereum/common"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
	domainerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
)

func RequireOwner(state entities.State, caller common.Address) error {
	if caller != state.Owner {
		return domainerrors.ErrCallerNotOwner
	}
	return nil
}
