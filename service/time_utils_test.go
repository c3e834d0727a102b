package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownRemaining(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name     string
		last     int64
		cooldown time.Duration
		expected time.Duration
	}{
		{"never used", 0, time.Hour, 0},
		{"just used", now.Unix(), time.Hour, time.Hour},
		{"partway", now.Unix() - 600, time.Hour, 50 * time.Minute},
		{"exactly elapsed", now.Unix() - 3600, time.Hour, 0},
		{"long ago", now.Unix() - 86400, time.Hour, 0},
		{"zero cooldown", now.Unix(), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cooldownRemaining(tt.last, tt.cooldown, now))
		})
	}
}
