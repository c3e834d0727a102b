package models

import (
	"math/rand"
	"sync"
)

// RandomSource is the randomness the game draws from. *rand.Rand satisfies it;
// tests inject seeded or scripted sources.
type RandomSource interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// LockedRand is a RandomSource safe for concurrent use
type LockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRand creates a concurrency-safe source from a seed
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *LockedRand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}
