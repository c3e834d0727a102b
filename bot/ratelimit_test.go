package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLimiter(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newUserLimiter(1, 2)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "users are limited independently")

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("a"), "one token refills per second")
	assert.False(t, l.Allow("a"))
}

func TestUserLimiter_EvictsIdleUsers(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newUserLimiter(1, 1)
	l.now = func() time.Time { return clock }

	l.Allow("a")
	clock = clock.Add(idleLimiterTTL + time.Minute)
	l.Allow("b")

	_, kept := l.users["a"]
	assert.False(t, kept)
	assert.Len(t, l.users, 1)
}

func TestUserLimiter_Unlimited(t *testing.T) {
	l := newUserLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}
}

func TestApplicationCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range applicationCommands() {
		names[cmd.Name] = true
	}
	for _, name := range []string{"work", "career", "rollcareer", "rank", "balance", "leaderboard", "blackjack"} {
		assert.True(t, names[name], name)
	}
}
