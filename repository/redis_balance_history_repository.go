package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hustler/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// historyCap is how many entries are kept per user
const historyCap = 100

const historySequenceKey = redisKeyPrefix + "history:seq"

func historyKey(discordID int64) string {
	return fmt.Sprintf("%shistory:%d", redisKeyPrefix, discordID)
}

// RedisBalanceHistoryRepository keeps each user's most recent balance changes
// in a capped list. Inside a unit of work entries are buffered until commit.
type RedisBalanceHistoryRepository struct {
	client  *redis.Client
	pending *[]*models.BalanceHistory
}

// NewRedisBalanceHistoryRepository creates a repository that writes immediately
func NewRedisBalanceHistoryRepository(client *redis.Client) *RedisBalanceHistoryRepository {
	return &RedisBalanceHistoryRepository{client: client}
}

func newBufferedRedisBalanceHistoryRepository(client *redis.Client) *RedisBalanceHistoryRepository {
	return &RedisBalanceHistoryRepository{client: client, pending: &[]*models.BalanceHistory{}}
}

// Record stores a balance history entry
func (r *RedisBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now().UTC()
	}
	if r.pending != nil {
		*r.pending = append(*r.pending, history)
		return nil
	}
	return r.write(ctx, []*models.BalanceHistory{history})
}

// GetByUser returns balance history for a specific user, newest first
func (r *RedisBalanceHistoryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := r.client.LRange(ctx, historyKey(discordID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, unavailable(fmt.Sprintf("get balance history for user %d", discordID), err)
	}

	histories := make([]*models.BalanceHistory, 0, len(raw))
	for _, entry := range raw {
		var history models.BalanceHistory
		if err := json.Unmarshal([]byte(entry), &history); err != nil {
			return nil, fmt.Errorf("failed to unmarshal balance history: %w", err)
		}
		histories = append(histories, &history)
	}
	return histories, nil
}

// flush writes buffered entries. Balances are already committed by the time
// this runs, so a failure loses history but never money.
func (r *RedisBalanceHistoryRepository) flush(ctx context.Context) {
	if r.pending == nil || len(*r.pending) == 0 {
		return
	}
	entries := *r.pending
	*r.pending = nil

	if err := r.write(ctx, entries); err != nil {
		log.WithFields(log.Fields{
			"entries": len(entries),
			"error":   err,
		}).Error("Failed to write balance history")
	}
}

func (r *RedisBalanceHistoryRepository) discard() {
	if r.pending != nil {
		*r.pending = nil
	}
}

func (r *RedisBalanceHistoryRepository) write(ctx context.Context, entries []*models.BalanceHistory) error {
	last, err := r.client.IncrBy(ctx, historySequenceKey, int64(len(entries))).Result()
	if err != nil {
		return unavailable("allocate balance history ids", err)
	}

	pipe := r.client.TxPipeline()
	for i, history := range entries {
		history.ID = last - int64(len(entries)) + int64(i) + 1

		payload, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("failed to marshal balance history: %w", err)
		}
		key := historyKey(history.DiscordID)
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, historyCap-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("record balance history", err)
	}
	return nil
}
