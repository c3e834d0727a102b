package service

import (
	"context"
	"time"

	"hustler/events"
	"hustler/models"
)

// UserRepository defines the interface for ledger access to user records
type UserRepository interface {
	// GetOrCreate returns the user's record, creating it with defaults on first
	// access. Records written by an older schema are backfilled and persisted.
	GetOrCreate(ctx context.Context, discordID int64) (*models.User, error)

	// Update atomically merges a partial update into the record and returns the
	// result. Returns ErrInsufficientFunds when MoneyDelta would take the balance
	// below zero and ErrStaleRecord when a guard no longer holds.
	Update(ctx context.Context, discordID int64, update models.UserUpdate) (*models.User, error)

	// CountRicherThan returns how many users hold more than money
	CountRicherThan(ctx context.Context, money int64) (int64, error)

	// GetTop returns the richest users, highest balance first
	GetTop(ctx context.Context, limit int) ([]*models.User, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// EconomyService defines the work and career operations
type EconomyService interface {
	// Work pays the user for their current career if the work cooldown has passed
	Work(ctx context.Context, discordID int64, now time.Time) (*models.WorkResult, error)

	// RollCareer attempts a promotion to the next career tier if the roll cooldown has passed
	RollCareer(ctx context.Context, discordID int64, now time.Time) (*models.CareerRollResult, error)

	// ViewCareer returns the user's career and cooldown state
	ViewCareer(ctx context.Context, discordID int64, now time.Time) (*models.CareerView, error)

	// ViewBalance returns the user's money
	ViewBalance(ctx context.Context, discordID int64) (*models.BalanceView, error)

	// ViewRank returns the user's ladder position and wealth rank
	ViewRank(ctx context.Context, discordID int64) (*models.RankView, error)

	// Leaderboard returns the richest users
	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// BlackjackObserver is told about every visible change to a running game
type BlackjackObserver interface {
	// GameUpdated is called after the deal, after each applied action and once settled
	GameUpdated(ctx context.Context, game *models.BlackjackGame)
}

// BlackjackObserverFunc adapts a function to BlackjackObserver
type BlackjackObserverFunc func(ctx context.Context, game *models.BlackjackGame)

func (f BlackjackObserverFunc) GameUpdated(ctx context.Context, game *models.BlackjackGame) {
	f(ctx, game)
}

// BlackjackService runs blackjack sessions
type BlackjackService interface {
	// Play reserves the bet, deals, and drives the game to settlement. It blocks
	// while waiting for the player's turns and returns the settled game.
	Play(ctx context.Context, discordID, channelID, bet int64, observer BlackjackObserver) (*models.BlackjackGame, error)

	// Deliver hands a player action to the session waiting on that user and channel
	Deliver(discordID, channelID int64, action models.BlackjackAction) error

	// ActiveSessions returns how many games are in progress
	ActiveSessions() int
}

// ReleaseFunc releases a held session lock
type ReleaseFunc func(ctx context.Context) error

// SessionLock enforces one blackjack session per user
type SessionLock interface {
	// Acquire takes the user's lock for at most ttl. Returns
	// ErrSessionAlreadyActive if another session holds it.
	Acquire(ctx context.Context, discordID int64, ttl time.Duration) (ReleaseFunc, error)
}
