package testutil

import (
	"time"

	"hustler/models"
)

// CreateTestUser creates a current-schema user on the given career
func CreateTestUser(discordID int64, career string) *models.User {
	now := time.Now()
	return &models.User{
		DiscordID:     discordID,
		Money:         0,
		Career:        career,
		SchemaVersion: models.CurrentUserSchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(discordID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   1000,
		BalanceAfter:    900,
		ChangeAmount:    -100,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestBalanceHistoryWithAmounts creates a test balance history with specific amounts
func CreateTestBalanceHistoryWithAmounts(discordID int64, before, after int64, transactionType models.TransactionType) *models.BalanceHistory {
	history := CreateTestBalanceHistory(discordID, transactionType)
	history.BalanceBefore = before
	history.BalanceAfter = after
	history.ChangeAmount = after - before
	return history
}

// Int64 returns a pointer to v, for building UserUpdate values
func Int64(v int64) *int64 {
	return &v
}

// String returns a pointer to v, for building UserUpdate values
func String(v string) *string {
	return &v
}
