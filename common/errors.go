package common

import "errors"

var (
	// ErrUnauthorized is returned when the method must be called by the
	// engine owner but was not.
	ErrUnauthorized = errors.New("owner witness check failed")
	// ErrAlreadyWhitelisted is returned on the second whitelisting of
	// the same symbol.
	ErrAlreadyWhitelisted = errors.New("token is already whitelisted")
	// ErrUnknownAsset is returned for symbols missing in the registry.
	ErrUnknownAsset = errors.New("token is not whitelisted")
	// ErrInvalidSchedule is returned for monthly refund percentages that are
	// negative or exceed 100 in total.
	ErrInvalidSchedule = errors.New("invalid monthly refund percentages")
	// ErrNoSchedule is returned when there are no initial deposits yet.
	ErrNoSchedule = errors.New("no initial deposits")
	// ErrInsufficientBalance is returned when debit exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTransferFailed is returned when the asset handle refuses to move
	// funds.
	ErrTransferFailed = errors.New("token transfer failed")
	// ErrScheduleMismatch is returned when final deposit references a
	// non-existent initial deposit.
	ErrScheduleMismatch = errors.New("initial deposit index does not match")
	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)
