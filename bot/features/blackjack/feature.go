package blackjack

import (
	"context"
	"sync"
	"time"

	"hustler/service"
)

// Feature runs blackjack games started from slash commands and feeds chat
// replies into them
type Feature struct {
	blackjack   service.BlackjackService
	turnTimeout time.Duration

	// Games run under ctx; Close cancels it so running games settle as timed out
	ctx    context.Context
	cancel context.CancelFunc
	games  sync.WaitGroup
}

func New(blackjack service.BlackjackService, turnTimeout time.Duration) *Feature {
	ctx, cancel := context.WithCancel(context.Background())
	return &Feature{
		blackjack:   blackjack,
		turnTimeout: turnTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Close ends every running game and waits for them to settle
func (f *Feature) Close() {
	f.cancel()
	f.games.Wait()
}
