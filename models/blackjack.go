package models

import (
	"errors"
	"fmt"
)

// ErrInvalidSessionState is returned when an action does not fit the game's current state
var ErrInvalidSessionState = errors.New("invalid blackjack session state")

const (
	// BlackjackTarget is the best possible hand value
	BlackjackTarget = 21
	// DealerStandValue is the value at which the dealer stops drawing
	DealerStandValue = 17
)

// BlackjackState is where a blackjack game is in its lifecycle
type BlackjackState string

const (
	BlackjackStateAwaitingPlayerAction BlackjackState = "awaiting_player_action"
	BlackjackStateDealerTurn           BlackjackState = "dealer_turn"
	BlackjackStateSettled              BlackjackState = "settled"
)

// BlackjackOutcome is how a settled game ended
type BlackjackOutcome string

const (
	BlackjackOutcomeNone             BlackjackOutcome = ""
	BlackjackOutcomeNaturalBlackjack BlackjackOutcome = "natural_blackjack"
	BlackjackOutcomePush             BlackjackOutcome = "push"
	BlackjackOutcomeBust             BlackjackOutcome = "bust"
	BlackjackOutcomeTimedOut         BlackjackOutcome = "timed_out"
	BlackjackOutcomeDealerBust       BlackjackOutcome = "dealer_bust"
	BlackjackOutcomePlayerWin        BlackjackOutcome = "player_win"
	BlackjackOutcomeDealerWin        BlackjackOutcome = "dealer_win"
	// BlackjackOutcomeAborted ends a game that hit an internal invariant
	// violation. The stake is returned.
	BlackjackOutcomeAborted BlackjackOutcome = "aborted"
)

// BlackjackAction is a player input while the game awaits one
type BlackjackAction string

const (
	BlackjackActionHit  BlackjackAction = "hit"
	BlackjackActionHold BlackjackAction = "hold"
)

// ParseBlackjackAction maps chat input to an action
func ParseBlackjackAction(input string) (BlackjackAction, bool) {
	switch input {
	case "hit", "h":
		return BlackjackActionHit, true
	case "hold", "stand", "s":
		return BlackjackActionHold, true
	}
	return "", false
}

// BlackjackGame is a single blackjack hand between one player and the dealer.
// It holds no ledger state: the stake is reserved before the game is built and
// Payout is credited once it settles.
type BlackjackGame struct {
	ID         string
	UserID     int64
	ChannelID  int64
	Bet        int64
	State      BlackjackState
	Outcome    BlackjackOutcome
	PlayerHand Hand
	DealerHand Hand

	deck *Deck
}

// NewBlackjackGame deals the opening hands (player, dealer, player, dealer)
// and settles immediately when the player has a natural.
func NewBlackjackGame(id string, userID, channelID, bet int64, deck *Deck) (*BlackjackGame, error) {
	if bet <= 0 {
		return nil, fmt.Errorf("bet must be positive, got %d", bet)
	}
	g := &BlackjackGame{
		ID:        id,
		UserID:    userID,
		ChannelID: channelID,
		Bet:       bet,
		State:     BlackjackStateAwaitingPlayerAction,
		deck:      deck,
	}

	for i := 0; i < 2; i++ {
		if err := g.dealTo(&g.PlayerHand); err != nil {
			return nil, err
		}
		if err := g.dealTo(&g.DealerHand); err != nil {
			return nil, err
		}
	}

	if g.PlayerHand.Value() == BlackjackTarget {
		if g.DealerHand.Value() == BlackjackTarget {
			g.settle(BlackjackOutcomePush)
		} else {
			g.settle(BlackjackOutcomeNaturalBlackjack)
		}
	}

	return g, nil
}

func (g *BlackjackGame) dealTo(hand *Hand) error {
	card, err := g.deck.DealOne()
	if err != nil {
		return err
	}
	*hand = append(*hand, card)
	return nil
}

func (g *BlackjackGame) settle(outcome BlackjackOutcome) {
	g.State = BlackjackStateSettled
	g.Outcome = outcome
}

// Apply dispatches a player action
func (g *BlackjackGame) Apply(action BlackjackAction) error {
	switch action {
	case BlackjackActionHit:
		return g.Hit()
	case BlackjackActionHold:
		return g.Hold()
	}
	return fmt.Errorf("unknown blackjack action %q", action)
}

// Hit deals the player one card. Over 21 busts; exactly 21 stands automatically.
func (g *BlackjackGame) Hit() error {
	if g.State != BlackjackStateAwaitingPlayerAction {
		return fmt.Errorf("%w: cannot hit while %s", ErrInvalidSessionState, g.State)
	}
	if err := g.dealTo(&g.PlayerHand); err != nil {
		return err
	}

	switch value := g.PlayerHand.Value(); {
	case value > BlackjackTarget:
		g.settle(BlackjackOutcomeBust)
	case value == BlackjackTarget:
		return g.finishWithDealer()
	}
	return nil
}

// Hold ends the player's turn and plays out the dealer
func (g *BlackjackGame) Hold() error {
	if g.State != BlackjackStateAwaitingPlayerAction {
		return fmt.Errorf("%w: cannot hold while %s", ErrInvalidSessionState, g.State)
	}
	return g.finishWithDealer()
}

// Timeout forfeits the stake without giving the dealer a turn
func (g *BlackjackGame) Timeout() error {
	if g.State != BlackjackStateAwaitingPlayerAction {
		return fmt.Errorf("%w: cannot time out while %s", ErrInvalidSessionState, g.State)
	}
	g.settle(BlackjackOutcomeTimedOut)
	return nil
}

// Abort ends an unsettled game after an internal failure and returns the stake
func (g *BlackjackGame) Abort() {
	if g.State == BlackjackStateSettled {
		return
	}
	g.settle(BlackjackOutcomeAborted)
}

func (g *BlackjackGame) finishWithDealer() error {
	g.State = BlackjackStateDealerTurn
	for g.DealerHand.Value() < DealerStandValue {
		if err := g.dealTo(&g.DealerHand); err != nil {
			return err
		}
	}

	dealerValue := g.DealerHand.Value()
	playerValue := g.PlayerHand.Value()
	switch {
	case dealerValue > BlackjackTarget:
		g.settle(BlackjackOutcomeDealerBust)
	case dealerValue < playerValue:
		g.settle(BlackjackOutcomePlayerWin)
	case dealerValue > playerValue:
		g.settle(BlackjackOutcomeDealerWin)
	default:
		g.settle(BlackjackOutcomePush)
	}
	return nil
}

// IsSettled reports whether the game is over
func (g *BlackjackGame) IsSettled() bool {
	return g.State == BlackjackStateSettled
}

// Payout is the total credited back to the player at settlement, stake included
func (g *BlackjackGame) Payout() int64 {
	switch g.Outcome {
	case BlackjackOutcomeNaturalBlackjack:
		return g.Bet + g.Bet*3/2
	case BlackjackOutcomeDealerBust, BlackjackOutcomePlayerWin:
		return 2 * g.Bet
	case BlackjackOutcomePush, BlackjackOutcomeAborted:
		return g.Bet
	}
	return 0
}

// NetChange is the player's profit or loss over the whole game
func (g *BlackjackGame) NetChange() int64 {
	if !g.IsSettled() {
		return -g.Bet
	}
	return g.Payout() - g.Bet
}

// DealerUpCard is the dealer's face-up card while the hole card stays hidden
func (g *BlackjackGame) DealerUpCard() Card {
	return g.DealerHand[0]
}

// CardsRemaining returns how many cards are left in the shoe
func (g *BlackjackGame) CardsRemaining() int {
	return g.deck.Remaining()
}
