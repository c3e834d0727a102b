package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeWork            TransactionType = "work"
	TransactionTypeBlackjackBet    TransactionType = "blackjack_bet"
	TransactionTypeBlackjackPayout TransactionType = "blackjack_payout"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id" json:"id"`
	DiscordID           int64           `db:"discord_id" json:"discord_id"`
	BalanceBefore       int64           `db:"balance_before" json:"balance_before"`
	BalanceAfter        int64           `db:"balance_after" json:"balance_after"`
	ChangeAmount        int64           `db:"change_amount" json:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type" json:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"transaction_metadata,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}
