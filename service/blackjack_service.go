package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"hustler/config"
	"hustler/events"
	"hustler/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// A hand busts after at most nine hits, so a session never waits on more turns than this
const maxPlayerTurns = 10

type blackjackService struct {
	uowFactory  UnitOfWorkFactory
	turns       *TurnRouter
	locks       SessionLock
	turnTimeout time.Duration
	newDeck     func() *models.Deck
	newID       func() string
	active      atomic.Int64
}

// NewBlackjackService creates a new blackjack service
func NewBlackjackService(uowFactory UnitOfWorkFactory, turns *TurnRouter, locks SessionLock, rng models.RandomSource, cfg *config.Config) BlackjackService {
	return &blackjackService{
		uowFactory:  uowFactory,
		turns:       turns,
		locks:       locks,
		turnTimeout: cfg.BlackjackTurnTimeout,
		newDeck: func() *models.Deck {
			return models.NewShuffledDeck(rng)
		},
		newID: uuid.NewString,
	}
}

// Play runs one game from bet to settlement. The returned error is non-nil
// only when no game started or the settlement could not be credited; in the
// latter case the settled game is returned as well.
func (s *blackjackService) Play(ctx context.Context, discordID, channelID, bet int64, observer BlackjackObserver) (*models.BlackjackGame, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}
	if observer == nil {
		observer = BlackjackObserverFunc(func(context.Context, *models.BlackjackGame) {})
	}

	release, err := s.locks.Acquire(ctx, discordID, s.turnTimeout*maxPlayerTurns+time.Minute)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.WithFields(log.Fields{
				"user_id": discordID,
				"error":   err,
			}).Warn("Failed to release blackjack session lock")
		}
	}()

	s.active.Add(1)
	defer s.active.Add(-1)

	sessionID := s.newID()
	if err := s.reserveBet(ctx, discordID, sessionID, bet); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"session_id": sessionID,
		"user_id":    discordID,
		"channel_id": channelID,
		"bet":        bet,
	})
	logger.Info("Blackjack session started")

	// The stake is held from here on, so settlement must not be cancelled
	settleCtx := context.WithoutCancel(ctx)

	game, err := models.NewBlackjackGame(sessionID, discordID, channelID, bet, s.newDeck())
	if err != nil {
		logger.WithError(err).Error("Failed to deal blackjack game, refunding stake")
		game = &models.BlackjackGame{
			ID:        sessionID,
			UserID:    discordID,
			ChannelID: channelID,
			Bet:       bet,
			State:     models.BlackjackStateSettled,
			Outcome:   models.BlackjackOutcomeAborted,
		}
	} else {
		s.runTurns(ctx, game, observer, logger)
	}

	if err := s.settle(settleCtx, game); err != nil {
		logger.WithError(err).Error("Failed to settle blackjack session")
		observer.GameUpdated(settleCtx, game)
		return game, fmt.Errorf("failed to settle blackjack session %s: %w", sessionID, err)
	}

	logger.WithFields(log.Fields{
		"outcome":      game.Outcome,
		"payout":       game.Payout(),
		"player_value": game.PlayerHand.Value(),
		"dealer_value": game.DealerHand.Value(),
	}).Info("Blackjack session settled")

	observer.GameUpdated(settleCtx, game)
	return game, nil
}

// runTurns waits for player actions until the game settles
func (s *blackjackService) runTurns(ctx context.Context, game *models.BlackjackGame, observer BlackjackObserver, logger *log.Entry) {
	key := TurnKey{UserID: game.UserID, ChannelID: game.ChannelID}

	for !game.IsSettled() {
		turn, err := s.turns.Expect(key)
		if err != nil {
			logger.WithError(err).Error("Could not register blackjack turn")
			game.Abort()
			return
		}

		observer.GameUpdated(ctx, game)

		action, err := turn.Wait(ctx, s.turnTimeout)
		if err != nil {
			if !errors.Is(err, ErrTurnTimeout) {
				// Interrupted by shutdown rather than an idle player: the stake goes back
				logger.WithError(err).Warn("Blackjack session interrupted, refunding stake")
				game.Abort()
				continue
			}
			logger.Info("Blackjack player timed out")
			if err := game.Timeout(); err != nil {
				game.Abort()
			}
			continue
		}

		if err := game.Apply(action); err != nil {
			logger.WithError(err).WithField("action", action).Error("Blackjack action failed, aborting session")
			game.Abort()
		}
	}
}

// reserveBet debits the stake in its own unit of work. The debit is keyed by
// session so a retry after a lost ledger reply never takes the stake twice.
func (s *blackjackService) reserveBet(ctx context.Context, discordID int64, sessionID string, bet int64) error {
	return inUnitOfWork(ctx, s.uowFactory, "blackjack_bet", func(uow UnitOfWork) error {
		user, err := uow.UserRepository().GetOrCreate(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		_, err = applyMoneyChange(ctx, uow, discordID, models.UserUpdate{
			MoneyDelta:   -bet,
			OperationKey: sessionID + ":bet",
		}, models.TransactionTypeBlackjackBet, map[string]any{
			"session_id": sessionID,
		})
		switch {
		case errors.Is(err, ErrOperationApplied):
			log.WithField("session_id", sessionID).Warn("Blackjack stake was already reserved")
			return nil
		case errors.Is(err, ErrInsufficientFunds):
			return fmt.Errorf("%w: bet of %d exceeds balance of %d", ErrInsufficientFunds, bet, user.Money)
		case err != nil:
			return fmt.Errorf("failed to reserve bet: %w", err)
		}
		return nil
	})
}

// settle credits the payout and publishes the settlement event
func (s *blackjackService) settle(ctx context.Context, game *models.BlackjackGame) error {
	payout := game.Payout()

	return inUnitOfWork(ctx, s.uowFactory, "blackjack_settle", func(uow UnitOfWork) error {
		if payout > 0 {
			_, err := applyMoneyChange(ctx, uow, game.UserID, models.UserUpdate{
				MoneyDelta:   payout,
				OperationKey: game.ID + ":payout",
			}, models.TransactionTypeBlackjackPayout, map[string]any{
				"session_id": game.ID,
				"outcome":    string(game.Outcome),
			})
			if errors.Is(err, ErrOperationApplied) {
				log.WithField("session_id", game.ID).Warn("Blackjack payout was already credited")
			} else if err != nil {
				return fmt.Errorf("failed to credit payout: %w", err)
			}
		}

		uow.EventBus().Publish(events.BlackjackSettledEvent{
			SessionID:   game.ID,
			UserID:      game.UserID,
			ChannelID:   game.ChannelID,
			Bet:         game.Bet,
			Payout:      payout,
			Outcome:     game.Outcome,
			PlayerValue: game.PlayerHand.Value(),
			DealerValue: game.DealerHand.Value(),
		})
		return nil
	})
}

func (s *blackjackService) Deliver(discordID, channelID int64, action models.BlackjackAction) error {
	if !s.turns.Deliver(TurnKey{UserID: discordID, ChannelID: channelID}, action) {
		return fmt.Errorf("%w: no turn awaited for user %d in channel %d", models.ErrInvalidSessionState, discordID, channelID)
	}
	return nil
}

func (s *blackjackService) ActiveSessions() int {
	return int(s.active.Load())
}
