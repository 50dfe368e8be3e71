package errors

import "errors"

var (
	ErrCallerNotOwner        = errors.New("caller is not the owner")
	ErrPercentagesExceed     = errors.New("percentages exceed 100%")
	ErrZeroAddress           = errors.New("zero address")
	ErrInvalidTokenAddresses = errors.New("invalid token addresses")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrReserveOverflow       = errors.New("reserve overflow")
	ErrInsufficientReserve   = errors.New("insufficient reserve")
	ErrExternalCallFailed    = errors.New("external call failed")
	ErrReentrantCall         = errors.New("reentrant call")
	// ErrTransferRestricted mirrors the ledger's cap rejection so it survives
	// wrapping across the context boundary.
	ErrTransferRestricted = errors.New("HMN01")
	ErrInvalidInput       = errors.New("invalid input")
)

type Kind string

const (
	KindAuthorization       Kind = "authorization"
	KindValidation          Kind = "validation"
	KindInsufficientReserve Kind = "insufficient_reserve"
	KindTransferCapExceeded Kind = "transfer_cap_exceeded"
	KindExternalCall        Kind = "external_call"
	KindReentrancy          Kind = "reentrancy"
	KindInternal            Kind = "internal"
)

// KindOf classifies err. Reentrancy and cap rejections win over the
// external-call wrapper they usually travel in.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrReentrantCall):
		return KindReentrancy
	case errors.Is(err, ErrTransferRestricted):
		return KindTransferCapExceeded
	case errors.Is(err, ErrExternalCallFailed):
		return KindExternalCall
	case errors.Is(err, ErrCallerNotOwner):
		return KindAuthorization
	case errors.Is(err, ErrInsufficientReserve):
		return KindInsufficientReserve
	case errors.Is(err, ErrPercentagesExceed),
		errors.Is(err, ErrZeroAddress),
		errors.Is(err, ErrInvalidTokenAddresses),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrReserveOverflow),
		errors.Is(err, ErrInvalidInput):
		return KindValidation
	default:
		return KindInternal
	}
}
