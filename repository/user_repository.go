package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hustler/database"
	"hustler/models"
	"hustler/service"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

const userColumns = `discord_id, money, career, last_work_time, last_career_roll_time, schema_version, created_at, updated_at`

// UserRepository implements the UserRepository interface on PostgreSQL
type UserRepository struct {
	q           queryable
	entryCareer string
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB, entryCareer string) *UserRepository {
	return &UserRepository{q: db.Pool, entryCareer: entryCareer}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable, entryCareer string) *UserRepository {
	return &UserRepository{q: tx, entryCareer: entryCareer}
}

// GetOrCreate returns the user's record, inserting defaults on first access and
// backfilling rows written by an older schema
func (r *UserRepository) GetOrCreate(ctx context.Context, discordID int64) (*models.User, error) {
	insert := `
		INSERT INTO users (discord_id, money, career, last_work_time, last_career_roll_time, schema_version)
		VALUES ($1, 0, $2, 0, 0, $3)
		ON CONFLICT (discord_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, discordID, r.entryCareer, models.CurrentUserSchemaVersion); err != nil {
		return nil, unavailable(fmt.Sprintf("create user %d", discordID), err)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE discord_id = $1`

	var stored models.StoredUser
	var user models.User
	err := r.q.QueryRow(ctx, query, discordID).Scan(
		&stored.DiscordID,
		&stored.Money,
		&stored.Career,
		&stored.LastWorkTime,
		&stored.LastCareerRollTime,
		&stored.SchemaVersion,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("get user %d", discordID), err)
	}

	migrated, changed := models.MigrateUser(stored, r.entryCareer)
	if !changed {
		migrated.CreatedAt = user.CreatedAt
		migrated.UpdatedAt = user.UpdatedAt
		return migrated, nil
	}

	log.WithFields(log.Fields{
		"discord_id":  discordID,
		"fromVersion": stored.SchemaVersion,
		"toVersion":   models.CurrentUserSchemaVersion,
	}).Info("Backfilling user record")

	// Backfill only what is still missing so a concurrent writer is never overwritten
	backfill := `
		UPDATE users SET
			money = GREATEST(COALESCE(money, 0), 0),
			career = COALESCE(NULLIF(career, ''), $2),
			last_work_time = COALESCE(last_work_time, 0),
			last_career_roll_time = COALESCE(last_career_roll_time, 0),
			schema_version = $3,
			updated_at = NOW()
		WHERE discord_id = $1
		RETURNING ` + userColumns

	backfilled, err := scanUser(r.q.QueryRow(ctx, backfill, discordID, r.entryCareer, models.CurrentUserSchemaVersion))
	if err != nil {
		return nil, unavailable(fmt.Sprintf("backfill user %d", discordID), err)
	}
	return backfilled, nil
}

// Update atomically applies a partial update. The money floor and the
// timestamp guards are evaluated in the same statement as the write.
func (r *UserRepository) Update(ctx context.Context, discordID int64, update models.UserUpdate) (*models.User, error) {
	if update.OperationKey != "" {
		// Claimed in the same transaction as the write, so a rejected update releases it
		tag, err := r.q.Exec(ctx, `
			INSERT INTO applied_operations (operation_key, discord_id)
			VALUES ($1, $2)
			ON CONFLICT (operation_key) DO NOTHING
		`, update.OperationKey, discordID)
		if err != nil {
			return nil, unavailable(fmt.Sprintf("claim operation %s", update.OperationKey), err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("update user %d: %w", discordID, service.ErrOperationApplied)
		}
	}

	query := `
		UPDATE users SET
			money = money + $2,
			career = COALESCE($3, career),
			last_work_time = COALESCE($4, last_work_time),
			last_career_roll_time = COALESCE($5, last_career_roll_time),
			updated_at = NOW()
		WHERE discord_id = $1
			AND money + $2 >= 0
			AND ($6::BIGINT IS NULL OR last_work_time = $6)
			AND ($7::BIGINT IS NULL OR last_career_roll_time = $7)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query,
		discordID,
		update.MoneyDelta,
		update.Career,
		update.LastWorkTime,
		update.LastCareerRollTime,
		update.ExpectLastWorkTime,
		update.ExpectLastCareerRollTime,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyRejectedUpdate(ctx, discordID, update)
	}
	if err != nil {
		return nil, unavailable(fmt.Sprintf("update user %d", discordID), err)
	}
	return user, nil
}

// classifyRejectedUpdate works out why the guarded update matched no row
func (r *UserRepository) classifyRejectedUpdate(ctx context.Context, discordID int64, update models.UserUpdate) error {
	query := `SELECT ` + userColumns + ` FROM users WHERE discord_id = $1`

	current, err := scanUser(r.q.QueryRow(ctx, query, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update user %d: %w", discordID, service.ErrUserNotFound)
	}
	if err != nil {
		return unavailable(fmt.Sprintf("get user %d", discordID), err)
	}
	if current.Money+update.MoneyDelta < 0 {
		return fmt.Errorf("update user %d: %w", discordID, service.ErrInsufficientFunds)
	}
	return fmt.Errorf("update user %d: %w", discordID, service.ErrStaleRecord)
}

// CountRicherThan returns how many users hold strictly more than money
func (r *UserRepository) CountRicherThan(ctx context.Context, money int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE money > $1`, money).Scan(&count)
	if err != nil {
		return 0, unavailable("count richer users", err)
	}
	return count, nil
}

// GetTop returns the richest users, ties broken by Discord ID
func (r *UserRepository) GetTop(ctx context.Context, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE money IS NOT NULL
		ORDER BY money DESC, discord_id ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, unavailable("get top users", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, unavailable("scan top user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate top users", err)
	}
	return users, nil
}

// scanUser reads a row selected with userColumns. Rows that still carry
// NULL columns read as their defaults.
func scanUser(row pgx.Row) (*models.User, error) {
	var stored models.StoredUser
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&stored.DiscordID,
		&stored.Money,
		&stored.Career,
		&stored.LastWorkTime,
		&stored.LastCareerRollTime,
		&stored.SchemaVersion,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		DiscordID:     stored.DiscordID,
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
	return user, nil
}
