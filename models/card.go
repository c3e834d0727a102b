package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDeck is returned when dealing from a deck with no cards left
var ErrEmptyDeck = errors.New("deck is empty")

// Suit is one of the four card suits
type Suit string

const (
	SuitSpades   Suit = "♠"
	SuitHearts   Suit = "♥"
	SuitDiamonds Suit = "♦"
	SuitClubs    Suit = "♣"
)

// Suits lists every suit in deck-construction order
var Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Rank is a card rank
type Rank string

const (
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankAce   Rank = "A"
)

// Ranks lists every rank in deck-construction order
var Ranks = []Rank{
	RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven, RankEight,
	RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce,
}

// DeckSize is the number of cards in a full deck
const DeckSize = 52

// Card is a single playing card
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// IsAce reports whether the card is an ace
func (c Card) IsAce() bool {
	return c.Rank == RankAce
}

// CardValue returns the nominal blackjack value of a card: faces are 10 and
// aces count 11 until HandValue demotes them.
func CardValue(c Card) int {
	switch c.Rank {
	case RankJack, RankQueen, RankKing:
		return 10
	case RankAce:
		return 11
	case RankTwo:
		return 2
	case RankThree:
		return 3
	case RankFour:
		return 4
	case RankFive:
		return 5
	case RankSix:
		return 6
	case RankSeven:
		return 7
	case RankEight:
		return 8
	case RankNine:
		return 9
	case RankTen:
		return 10
	}
	return 0
}

// Hand is an ordered set of dealt cards
type Hand []Card

// HandValue sums nominal card values, then demotes aces from 11 to 1 one at a
// time while the total is over 21 and an undemoted ace remains.
func HandValue(hand Hand) int {
	total := 0
	aces := 0
	for _, card := range hand {
		total += CardValue(card)
		if card.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// Value is HandValue for the receiver
func (h Hand) Value() int {
	return HandValue(h)
}

// IsBust reports whether the hand is over 21
func (h Hand) IsBust() bool {
	return h.Value() > 21
}

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, card := range h {
		parts[i] = card.String()
	}
	return strings.Join(parts, " ")
}

// Shuffler produces a uniform permutation, as math/rand.(*Rand).Shuffle does
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Deck is a shuffled shoe of cards dealt from the end
type Deck struct {
	cards []Card
}

// NewOrderedDeck returns all 52 cards in construction order
func NewOrderedDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	return &Deck{cards: cards}
}

// NewShuffledDeck returns all 52 cards in a uniform random order drawn from rng
func NewShuffledDeck(rng Shuffler) *Deck {
	deck := NewOrderedDeck()
	rng.Shuffle(len(deck.cards), func(i, j int) {
		deck.cards[i], deck.cards[j] = deck.cards[j], deck.cards[i]
	})
	return deck
}

// NewDeckFromCards builds a deck whose next dealt card is the last element of cards
func NewDeckFromCards(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// DealOne removes and returns the last card
func (d *Deck) DealOne() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	last := len(d.cards) - 1
	card := d.cards[last]
	d.cards = d.cards[:last]
	return card, nil
}

// Remaining returns how many cards are left
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// GoString is used by %#v and keeps deck contents out of logs
func (d *Deck) GoString() string {
	return fmt.Sprintf("Deck{remaining: %d}", len(d.cards))
}
