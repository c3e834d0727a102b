package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"hustler/models"
	"hustler/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	redisKeyPrefix = "hustler:"
	wealthIndexKey = redisKeyPrefix + "users:by_money"
)

func userKey(discordID int64) string {
	return fmt.Sprintf("%suser:%d", redisKeyPrefix, discordID)
}

func operationKey(key string) string {
	return redisKeyPrefix + "op:" + key
}

// operationTTL is how long an applied operation key is remembered. It only
// has to outlive the retries of the operation that set it.
const operationTTL = 7 * 24 * time.Hour

// Status codes returned by updateUserScript
const (
	updateOK = iota
	updateNotFound
	updateInsufficientFunds
	updateStale
	updateAlreadyApplied
)

// backfillUserScript writes defaults into every missing field of a user hash,
// creating it when absent. Fields that exist are never overwritten.
var backfillUserScript = redis.NewScript(`
local key = KEYS[1]
local wealth = KEYS[2]
local id = ARGV[1]
local entry = ARGV[2]
local version = ARGV[3]
local now = ARGV[4]

redis.call('HSETNX', key, 'created_at', now)
redis.call('HSETNX', key, 'money', '0')
redis.call('HSETNX', key, 'last_work_time', '0')
redis.call('HSETNX', key, 'last_career_roll_time', '0')

local career = redis.call('HGET', key, 'career')
if not career or career == '' then
	redis.call('HSET', key, 'career', entry)
end

local money = tonumber(redis.call('HGET', key, 'money')) or 0
if money < 0 then
	money = 0
	redis.call('HSET', key, 'money', '0')
end

redis.call('HSET', key, 'schema_version', version, 'updated_at', now)
redis.call('ZADD', wealth, money, id)
return redis.call('HGETALL', key)
`)

// updateUserScript applies a guarded partial update to a user hash and keeps
// the wealth index in step. Empty optional arguments leave a field untouched.
// When the update is keyed, the key is checked and recorded in the same call.
var updateUserScript = redis.NewScript(`
local key = KEYS[1]
local wealth = KEYS[2]
local op = KEYS[3]
local delta = tonumber(ARGV[1])
local career = ARGV[2]
local lastWork = ARGV[3]
local lastRoll = ARGV[4]
local expectWork = ARGV[5]
local expectRoll = ARGV[6]
local now = ARGV[7]
local id = ARGV[8]
local keyed = ARGV[9] == '1'
local opTTL = ARGV[10]

if redis.call('EXISTS', key) == 0 then
	return {1}
end
if keyed and redis.call('EXISTS', op) == 1 then
	return {4}
end

local money = tonumber(redis.call('HGET', key, 'money')) or 0
if money + delta < 0 then
	return {2}
end
if expectWork ~= '' and tonumber(redis.call('HGET', key, 'last_work_time') or '0') ~= tonumber(expectWork) then
	return {3}
end
if expectRoll ~= '' and tonumber(redis.call('HGET', key, 'last_career_roll_time') or '0') ~= tonumber(expectRoll) then
	return {3}
end

money = redis.call('HINCRBY', key, 'money', delta)
if career ~= '' then
	redis.call('HSET', key, 'career', career)
end
if lastWork ~= '' then
	redis.call('HSET', key, 'last_work_time', lastWork)
end
if lastRoll ~= '' then
	redis.call('HSET', key, 'last_career_roll_time', lastRoll)
end
redis.call('HSET', key, 'updated_at', now)
redis.call('ZADD', wealth, money, id)
if keyed then
	redis.call('SET', op, id, 'EX', opTTL)
end
return {0, redis.call('HGETALL', key)}
`)

// RedisUserRepository implements the UserRepository interface with one hash
// per user and a sorted set indexing balances
type RedisUserRepository struct {
	client      *redis.Client
	entryCareer string
	now         func() time.Time
}

// NewRedisUserRepository creates a new Redis user repository
func NewRedisUserRepository(client *redis.Client, entryCareer string) *RedisUserRepository {
	return &RedisUserRepository{client: client, entryCareer: entryCareer, now: time.Now}
}

// GetOrCreate returns the user's record, creating it on first access and
// backfilling hashes written by an older schema
func (r *RedisUserRepository) GetOrCreate(ctx context.Context, discordID int64) (*models.User, error) {
	fields, err := r.client.HGetAll(ctx, userKey(discordID)).Result()
	if err != nil {
		return nil, unavailable(fmt.Sprintf("get user %d", discordID), err)
	}

	stored, createdAt, updatedAt := storedUserFromHash(discordID, fields)
	user, changed := models.MigrateUser(stored, r.entryCareer)
	if !changed {
		user.CreatedAt = createdAt
		user.UpdatedAt = updatedAt
		return user, nil
	}

	if len(fields) > 0 {
		log.WithFields(log.Fields{
			"discord_id":  discordID,
			"fromVersion": stored.SchemaVersion,
			"toVersion":   models.CurrentUserSchemaVersion,
		}).Info("Backfilling user record")
	}

	res, err := backfillUserScript.Run(ctx, r.client,
		[]string{userKey(discordID), wealthIndexKey},
		discordID,
		r.entryCareer,
		models.CurrentUserSchemaVersion,
		r.now().UnixMilli(),
	).Slice()
	if err != nil {
		return nil, unavailable(fmt.Sprintf("backfill user %d", discordID), err)
	}

	return userFromHash(discordID, pairsToHash(res)), nil
}

// Update applies a guarded partial update in a single script call
func (r *RedisUserRepository) Update(ctx context.Context, discordID int64, update models.UserUpdate) (*models.User, error) {
	keyed := "0"
	if update.OperationKey != "" {
		keyed = "1"
	}

	res, err := updateUserScript.Run(ctx, r.client,
		[]string{userKey(discordID), wealthIndexKey, operationKey(update.OperationKey)},
		update.MoneyDelta,
		optionalString(update.Career),
		optionalInt(update.LastWorkTime),
		optionalInt(update.LastCareerRollTime),
		optionalInt(update.ExpectLastWorkTime),
		optionalInt(update.ExpectLastCareerRollTime),
		r.now().UnixMilli(),
		discordID,
		keyed,
		int64(operationTTL/time.Second),
	).Slice()
	if err != nil {
		return nil, unavailable(fmt.Sprintf("update user %d", discordID), err)
	}

	status, _ := res[0].(int64)
	switch status {
	case updateOK:
		fields, _ := res[1].([]any)
		return userFromHash(discordID, pairsToHash(fields)), nil
	case updateNotFound:
		return nil, fmt.Errorf("update user %d: %w", discordID, service.ErrUserNotFound)
	case updateInsufficientFunds:
		return nil, fmt.Errorf("update user %d: %w", discordID, service.ErrInsufficientFunds)
	case updateStale:
		return nil, fmt.Errorf("update user %d: %w", discordID, service.ErrStaleRecord)
	case updateAlreadyApplied:
		return nil, fmt.Errorf("update user %d: %w", discordID, service.ErrOperationApplied)
	default:
		return nil, unavailable(fmt.Sprintf("update user %d", discordID), fmt.Errorf("unexpected script status %v", res[0]))
	}
}

// CountRicherThan returns how many users hold strictly more than money
func (r *RedisUserRepository) CountRicherThan(ctx context.Context, money int64) (int64, error) {
	count, err := r.client.ZCount(ctx, wealthIndexKey, "("+strconv.FormatInt(money, 10), "+inf").Result()
	if err != nil {
		return 0, unavailable("count richer users", err)
	}
	return count, nil
}

// GetTop returns the richest users, ties broken by Discord ID
func (r *RedisUserRepository) GetTop(ctx context.Context, limit int) ([]*models.User, error) {
	if limit <= 0 {
		return nil, nil
	}

	top, err := r.client.ZRevRangeWithScores(ctx, wealthIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, unavailable("get top users", err)
	}
	if len(top) == 0 {
		return nil, nil
	}

	// The sorted set orders equal scores by member string, so pull every
	// member tied with the cutoff and order them numerically
	cutoff := top[len(top)-1].Score
	tied, err := r.client.ZRangeByScore(ctx, wealthIndexKey, &redis.ZRangeBy{
		Min: strconv.FormatFloat(cutoff, 'f', -1, 64),
		Max: strconv.FormatFloat(cutoff, 'f', -1, 64),
	}).Result()
	if err != nil {
		return nil, unavailable("get tied users", err)
	}

	candidates := make(map[int64]struct{}, len(top)+len(tied))
	for _, z := range top {
		if z.Score > cutoff {
			if id, err := strconv.ParseInt(fmt.Sprint(z.Member), 10, 64); err == nil {
				candidates[id] = struct{}{}
			}
		}
	}
	for _, member := range tied {
		if id, err := strconv.ParseInt(member, 10, 64); err == nil {
			candidates[id] = struct{}{}
		}
	}

	pipe := r.client.Pipeline()
	cmds := make(map[int64]*redis.MapStringStringCmd, len(candidates))
	for id := range candidates {
		cmds[id] = pipe.HGetAll(ctx, userKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, unavailable("load top users", err)
	}

	users := make([]*models.User, 0, len(cmds))
	for id, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		users = append(users, userFromHash(id, fields))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Money == users[j].Money {
			return users[i].DiscordID < users[j].DiscordID
		}
		return users[i].Money > users[j].Money
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// storedUserFromHash reads a user hash, leaving absent fields nil
func storedUserFromHash(discordID int64, fields map[string]string) (models.StoredUser, time.Time, time.Time) {
	stored := models.StoredUser{
		DiscordID:          discordID,
		Money:              hashInt(fields, "money"),
		LastWorkTime:       hashInt(fields, "last_work_time"),
		LastCareerRollTime: hashInt(fields, "last_career_roll_time"),
	}
	if career, ok := fields["career"]; ok {
		stored.Career = &career
	}
	if version := hashInt(fields, "schema_version"); version != nil {
		stored.SchemaVersion = int(*version)
	}
	return stored, hashMillis(fields, "created_at"), hashMillis(fields, "updated_at")
}

// userFromHash reads a hash that is known to be at the current schema
func userFromHash(discordID int64, fields map[string]string) *models.User {
	stored, createdAt, updatedAt := storedUserFromHash(discordID, fields)
	user := &models.User{
		DiscordID:     discordID,
		SchemaVersion: stored.SchemaVersion,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if stored.Money != nil {
		user.Money = *stored.Money
	}
	if stored.Career != nil {
		user.Career = *stored.Career
	}
	if stored.LastWorkTime != nil {
		user.LastWorkTime = *stored.LastWorkTime
	}
	if stored.LastCareerRollTime != nil {
		user.LastCareerRollTime = *stored.LastCareerRollTime
	}
	return user
}

func hashInt(fields map[string]string, name string) *int64 {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func hashMillis(fields map[string]string, name string) time.Time {
	ms := hashInt(fields, name)
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms).UTC()
}

// pairsToHash converts a flat HGETALL reply from a script into a map
func pairsToHash(pairs []any) map[string]string {
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[fmt.Sprint(pairs[i])] = fmt.Sprint(pairs[i+1])
	}
	return fields
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
