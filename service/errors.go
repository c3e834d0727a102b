package service

import "errors"

var (
	// ErrInvalidBet is returned for a bet that is not a positive integer
	ErrInvalidBet = errors.New("bet must be a positive amount")
	// ErrInsufficientFunds is returned when a debit would take a balance below zero
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLedgerUnavailable wraps failures of the backing store
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrStaleRecord is returned when an update's guard no longer matches the stored record
	ErrStaleRecord = errors.New("user record changed concurrently")
	// ErrOperationApplied is returned when an update's operation key was already used
	ErrOperationApplied = errors.New("balance change already applied")
	// ErrUserNotFound is returned when updating a record that was never created
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionAlreadyActive is returned when the user already has a game running
	ErrSessionAlreadyActive = errors.New("blackjack session already active")
	// ErrTurnTimeout is returned when no player action arrives in time
	ErrTurnTimeout = errors.New("timed out waiting for player action")
	// ErrTurnAlreadyPending is returned when a turn is already awaited for the same user and channel
	ErrTurnAlreadyPending = errors.New("turn already pending")
)
