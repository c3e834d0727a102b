package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"hustler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRouter_DeliverResolvesPendingTurn(t *testing.T) {
	router := NewTurnRouter()
	key := TurnKey{UserID: 1, ChannelID: 2}

	turn, err := router.Expect(key)
	require.NoError(t, err)

	assert.True(t, router.Deliver(key, models.BlackjackActionHit))
	assert.False(t, router.Deliver(key, models.BlackjackActionHold), "turn is single-shot")

	action, err := turn.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.BlackjackActionHit, action)
	assert.False(t, router.Pending(key))
}

func TestTurnRouter_DeliverWithoutWaiter(t *testing.T) {
	router := NewTurnRouter()
	assert.False(t, router.Deliver(TurnKey{UserID: 1, ChannelID: 2}, models.BlackjackActionHit))
}

func TestTurnRouter_KeysAreIsolated(t *testing.T) {
	router := NewTurnRouter()
	key := TurnKey{UserID: 1, ChannelID: 2}

	turn, err := router.Expect(key)
	require.NoError(t, err)
	defer turn.Cancel()

	assert.False(t, router.Deliver(TurnKey{UserID: 1, ChannelID: 3}, models.BlackjackActionHit))
	assert.False(t, router.Deliver(TurnKey{UserID: 9, ChannelID: 2}, models.BlackjackActionHit))
	assert.True(t, router.Pending(key))
}

func TestTurnRouter_Timeout(t *testing.T) {
	router := NewTurnRouter()
	key := TurnKey{UserID: 1, ChannelID: 2}

	start := time.Now()
	_, err := router.Await(context.Background(), key, 20*time.Millisecond)

	assert.ErrorIs(t, err, ErrTurnTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.False(t, router.Pending(key))
	assert.False(t, router.Deliver(key, models.BlackjackActionHit))
}

func TestTurnRouter_ContextCancel(t *testing.T) {
	router := NewTurnRouter()
	key := TurnKey{UserID: 1, ChannelID: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := router.Await(ctx, key, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, router.Pending(key))
}

func TestTurnRouter_DuplicateExpect(t *testing.T) {
	router := NewTurnRouter()
	key := TurnKey{UserID: 1, ChannelID: 2}

	turn, err := router.Expect(key)
	require.NoError(t, err)

	_, err = router.Expect(key)
	assert.ErrorIs(t, err, ErrTurnAlreadyPending)

	turn.Cancel()
	_, err = router.Expect(key)
	assert.NoError(t, err)
}

func TestTurnRouter_ConcurrentDeliversResolveOnce(t *testing.T) {
	router := NewTurnRouter()
	key := TurnKey{UserID: 1, ChannelID: 2}

	turn, err := router.Expect(key)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if router.Deliver(key, models.BlackjackActionHold) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	action, err := turn.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.BlackjackActionHold, action)
}
