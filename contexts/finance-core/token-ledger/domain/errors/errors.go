package errors

import "errors"

var (
	// ErrTransferCapExceeded carries the wire-compatible reason code HMN01.
	ErrTransferCapExceeded   = errors.New("HMN01")
	ErrCallerNotOwner        = errors.New("caller is not the owner")
	ErrInsufficientBalance   = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroAddress           = errors.New("zero address")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrPaused                = errors.New("token transfer while paused")
	ErrAlreadyPaused         = errors.New("token already paused")
	ErrNotPaused             = errors.New("token not paused")
	ErrTokenNotFound         = errors.New("token not found")
	ErrInvalidInput          = errors.New("invalid input")
)
