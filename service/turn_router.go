package service

import (
	"context"
	"sync"
	"time"

	"hustler/models"
)

// TurnKey identifies whose turn is awaited, and where
type TurnKey struct {
	UserID    int64
	ChannelID int64
}

// TurnRouter hands player actions from the chat dispatcher to the session
// waiting for them. Each awaited turn is a single-shot channel: the first
// matching Deliver resolves it and later ones are rejected.
type TurnRouter struct {
	mu      sync.Mutex
	pending map[TurnKey]*PendingTurn
}

// PendingTurn is a registered wait for one player action
type PendingTurn struct {
	router *TurnRouter
	key    TurnKey
	ch     chan models.BlackjackAction
}

// NewTurnRouter creates an empty router
func NewTurnRouter() *TurnRouter {
	return &TurnRouter{pending: make(map[TurnKey]*PendingTurn)}
}

// Expect registers a wait for key. Register before showing the player their
// options so an immediate reply is not lost.
func (r *TurnRouter) Expect(key TurnKey) (*PendingTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[key]; ok {
		return nil, ErrTurnAlreadyPending
	}
	turn := &PendingTurn{
		router: r,
		key:    key,
		ch:     make(chan models.BlackjackAction, 1),
	}
	r.pending[key] = turn
	return turn, nil
}

// Await registers a wait for key and blocks for the action
func (r *TurnRouter) Await(ctx context.Context, key TurnKey, timeout time.Duration) (models.BlackjackAction, error) {
	turn, err := r.Expect(key)
	if err != nil {
		return "", err
	}
	return turn.Wait(ctx, timeout)
}

// Deliver resolves the turn pending for key. It returns false when nothing is waiting.
func (r *TurnRouter) Deliver(key TurnKey, action models.BlackjackAction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	turn, ok := r.pending[key]
	if !ok {
		return false
	}
	delete(r.pending, key)
	turn.ch <- action
	return true
}

// Pending reports whether a turn is awaited for key
func (r *TurnRouter) Pending(key TurnKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[key]
	return ok
}

// remove unregisters t and reports whether it was still registered
func (r *TurnRouter) remove(t *PendingTurn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.pending[t.key]; ok && current == t {
		delete(r.pending, t.key)
		return true
	}
	return false
}

// Wait blocks until the action arrives, the timeout passes (ErrTurnTimeout),
// or ctx is done. The turn is unregistered when Wait returns.
func (t *PendingTurn) Wait(ctx context.Context, timeout time.Duration) (models.BlackjackAction, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var expired error
	select {
	case action := <-t.ch:
		return action, nil
	case <-timer.C:
		expired = ErrTurnTimeout
	case <-ctx.Done():
		expired = ctx.Err()
	}

	// A Deliver that won the race has already unregistered the turn and
	// buffered its action.
	if !t.router.remove(t) {
		return <-t.ch, nil
	}
	return "", expired
}

// Cancel unregisters the turn without waiting
func (t *PendingTurn) Cancel() {
	t.router.remove(t)
}
