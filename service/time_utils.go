package service

import (
	"time"
)

// cooldownRemaining returns how long until an action last taken at lastUnix
// (Unix seconds, 0 = never) is available again. Zero means available now.
func cooldownRemaining(lastUnix int64, cooldown time.Duration, now time.Time) time.Duration {
	elapsed := now.Unix() - lastUnix
	cooldownSeconds := int64(cooldown / time.Second)
	if elapsed >= cooldownSeconds {
		return 0
	}
	return time.Duration(cooldownSeconds-elapsed) * time.Second
}
