package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownTier is returned when a career id is not on the ladder
var ErrUnknownTier = errors.New("unknown career tier")

// CareerTier is one rung on the career ladder
type CareerTier struct {
	ID            string  `json:"id"`
	PayMultiplier float64 `json:"pay_multiplier"`
	BasePay       int64   `json:"base_pay"`
	Description   string  `json:"description"`
}

// PayPerWork is the nominal pay shown to users. Actual earnings are randomized.
func (t CareerTier) PayPerWork() int64 {
	return int64(math.Floor(float64(t.BasePay) * t.PayMultiplier))
}

// CareerLadder is the ordered, immutable list of career tiers.
// Index 0 is the entry tier and the last index is the terminal tier.
type CareerLadder struct {
	tiers []CareerTier
}

// DefaultCareerTiers returns the reference ladder
func DefaultCareerTiers() []CareerTier {
	return []CareerTier{
		{ID: "homeless", PayMultiplier: 0.5, BasePay: 50, Description: "the starting career"},
		{ID: "maid", PayMultiplier: 0.7, BasePay: 50, Description: "the next one up"},
		{ID: "minor", PayMultiplier: 1.0, BasePay: 50, Description: "mines ore"},
		{ID: "farmer", PayMultiplier: 1.3, BasePay: 50, Description: "farms"},
		{ID: "alchemist", PayMultiplier: 1.5, BasePay: 50, Description: "alchemies"},
		{ID: "architect", PayMultiplier: 1.8, BasePay: 50, Description: "is an architect"},
		{ID: "doctor", PayMultiplier: 2.0, BasePay: 50, Description: "is a doctor"},
	}
}

// NewCareerLadder validates and builds a ladder from ordered tiers
func NewCareerLadder(tiers []CareerTier) (*CareerLadder, error) {
	ladder := &CareerLadder{tiers: append([]CareerTier(nil), tiers...)}
	if err := ladder.Validate(); err != nil {
		return nil, err
	}
	return ladder, nil
}

// DefaultCareerLadder returns the reference ladder
func DefaultCareerLadder() *CareerLadder {
	return &CareerLadder{tiers: DefaultCareerTiers()}
}

// Validate checks the ladder is usable
func (l *CareerLadder) Validate() error {
	if len(l.tiers) == 0 {
		return errors.New("career ladder must have at least one tier")
	}
	seen := make(map[string]struct{}, len(l.tiers))
	for i, tier := range l.tiers {
		if tier.ID == "" {
			return fmt.Errorf("career tier %d has no id", i)
		}
		if _, ok := seen[tier.ID]; ok {
			return fmt.Errorf("career tier %q is listed twice", tier.ID)
		}
		seen[tier.ID] = struct{}{}
		if tier.PayMultiplier <= 0 || tier.PayMultiplier > 2 {
			return fmt.Errorf("career tier %q pay multiplier %.2f must be in (0, 2]", tier.ID, tier.PayMultiplier)
		}
		if tier.BasePay <= 0 {
			return fmt.Errorf("career tier %q base pay must be positive", tier.ID)
		}
	}
	return nil
}

// Len returns the number of tiers
func (l *CareerLadder) Len() int {
	return len(l.tiers)
}

// Tiers returns a copy of the ordered tiers
func (l *CareerLadder) Tiers() []CareerTier {
	return append([]CareerTier(nil), l.tiers...)
}

// TierAt returns the tier at a ladder index
func (l *CareerLadder) TierAt(index int) (CareerTier, error) {
	if index < 0 || index >= len(l.tiers) {
		return CareerTier{}, fmt.Errorf("career index %d out of range [0, %d)", index, len(l.tiers))
	}
	return l.tiers[index], nil
}

// IndexOf returns the ladder index of a tier id
func (l *CareerLadder) IndexOf(id string) (int, error) {
	for i, tier := range l.tiers {
		if tier.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownTier, id)
}

// Get returns the tier with the given id
func (l *CareerLadder) Get(id string) (CareerTier, error) {
	index, err := l.IndexOf(id)
	if err != nil {
		return CareerTier{}, err
	}
	return l.tiers[index], nil
}

// Next returns the tier after id, or false if id is the terminal tier
func (l *CareerLadder) Next(id string) (CareerTier, bool, error) {
	index, err := l.IndexOf(id)
	if err != nil {
		return CareerTier{}, false, err
	}
	if index == len(l.tiers)-1 {
		return CareerTier{}, false, nil
	}
	return l.tiers[index+1], true, nil
}

// Entry returns the lowest tier
func (l *CareerLadder) Entry() CareerTier {
	return l.tiers[0]
}

// Terminal returns the highest tier
func (l *CareerLadder) Terminal() CareerTier {
	return l.tiers[len(l.tiers)-1]
}

// IsTerminal reports whether id is the highest tier
func (l *CareerLadder) IsTerminal(id string) bool {
	return l.Terminal().ID == id
}
