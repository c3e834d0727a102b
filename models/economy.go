package models

import "time"

// WorkStatus tags the outcome of a work attempt
type WorkStatus string

const (
	WorkStatusWorked     WorkStatus = "worked"
	WorkStatusOnCooldown WorkStatus = "on_cooldown"
)

// WorkResult is the outcome of a work attempt (returned to the user)
type WorkResult struct {
	Status     WorkStatus
	Career     CareerTier
	Earnings   int64
	NewBalance int64
	Remaining  time.Duration // set when on cooldown
}

// CareerRollStatus tags the outcome of a career roll
type CareerRollStatus string

const (
	CareerRollPromoted     CareerRollStatus = "promoted"
	CareerRollFailed       CareerRollStatus = "failed"
	CareerRollOnCooldown   CareerRollStatus = "on_cooldown"
	CareerRollAlreadyMaxed CareerRollStatus = "already_maxed"
)

// CareerRollResult is the outcome of a career roll (returned to the user)
type CareerRollResult struct {
	Status    CareerRollStatus
	From      CareerTier
	To        CareerTier    // set when promoted
	Remaining time.Duration // set when on cooldown
}

// CareerView is a read-only projection of a user's career
type CareerView struct {
	Career          CareerTier
	Next            *CareerTier
	WorkAvailableIn time.Duration
	RollAvailableIn time.Duration
	AdvancementOdds float64
	LadderPosition  int
	LadderSize      int
}

// BalanceView is a read-only projection of a user's money
type BalanceView struct {
	DiscordID int64
	Money     int64
}

// RankView is a read-only projection of where a user stands
type RankView struct {
	Career         CareerTier
	LadderPosition int // 1-based
	LadderSize     int
	Next           *CareerTier
	WealthRank     int64 // 1-based position by money
	Money          int64
}

// LeaderboardEntry is one row of the wealth leaderboard
type LeaderboardEntry struct {
	Rank      int
	DiscordID int64
	Money     int64
	Career    string
}
