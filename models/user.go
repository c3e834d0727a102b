package models

import (
	"time"
)

// CurrentUserSchemaVersion is the record layout every ledger read returns.
// Version 1 records predate the cooldown timestamps; version 2 records predate
// the career roll timestamp.
const CurrentUserSchemaVersion = 3

// User is the per-user economic state kept in the ledger
type User struct {
	DiscordID          int64     `db:"discord_id"`
	Money              int64     `db:"money"`
	Career             string    `db:"career"`
	LastWorkTime       int64     `db:"last_work_time"`        // Unix seconds, 0 = never
	LastCareerRollTime int64     `db:"last_career_roll_time"` // Unix seconds, 0 = never
	SchemaVersion      int       `db:"schema_version"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// NewDefaultUser returns the record a user starts with on first access
func NewDefaultUser(discordID int64, entryCareer string) *User {
	return &User{
		DiscordID:     discordID,
		Money:         0,
		Career:        entryCareer,
		SchemaVersion: CurrentUserSchemaVersion,
	}
}

// UserUpdate is a partial, field-level change to a user record.
// Nil fields are left untouched. MoneyDelta is applied as an increment and
// must never take the balance below zero.
//
// The Expect fields are compare-and-set guards: when set, the update only
// applies if the stored timestamp still equals the expected value.
//
// A non-empty OperationKey makes the update apply at most once. A later update
// carrying the same key is rejected without changing the record.
type UserUpdate struct {
	MoneyDelta         int64
	Career             *string
	LastWorkTime       *int64
	LastCareerRollTime *int64

	ExpectLastWorkTime       *int64
	ExpectLastCareerRollTime *int64

	OperationKey string
}

// GuardsHold reports whether the record still satisfies the update's guards
func (u UserUpdate) GuardsHold(user *User) bool {
	if u.ExpectLastWorkTime != nil && user.LastWorkTime != *u.ExpectLastWorkTime {
		return false
	}
	if u.ExpectLastCareerRollTime != nil && user.LastCareerRollTime != *u.ExpectLastCareerRollTime {
		return false
	}
	return true
}

// IsEmpty reports whether the update changes nothing
func (u UserUpdate) IsEmpty() bool {
	return u.MoneyDelta == 0 && u.Career == nil && u.LastWorkTime == nil && u.LastCareerRollTime == nil
}

// Apply merges the update into a copy of the record
func (u UserUpdate) Apply(user *User) *User {
	updated := *user
	updated.Money += u.MoneyDelta
	if u.Career != nil {
		updated.Career = *u.Career
	}
	if u.LastWorkTime != nil {
		updated.LastWorkTime = *u.LastWorkTime
	}
	if u.LastCareerRollTime != nil {
		updated.LastCareerRollTime = *u.LastCareerRollTime
	}
	return &updated
}

// StoredUser is a user record as found in a backing store, where any field
// written by an older schema may be absent.
type StoredUser struct {
	DiscordID          int64
	Money              *int64
	Career             *string
	LastWorkTime       *int64
	LastCareerRollTime *int64
	SchemaVersion      int
}

// MigrateUser brings a stored record up to CurrentUserSchemaVersion by
// backfilling missing fields with their defaults. The second return value is
// true when anything was backfilled and the record must be written back.
func MigrateUser(stored StoredUser, entryCareer string) (*User, bool) {
	user := NewDefaultUser(stored.DiscordID, entryCareer)
	changed := stored.SchemaVersion < CurrentUserSchemaVersion

	if stored.Money != nil {
		user.Money = *stored.Money
	} else {
		changed = true
	}
	if stored.Career != nil && *stored.Career != "" {
		user.Career = *stored.Career
	} else {
		changed = true
	}
	if stored.LastWorkTime != nil {
		user.LastWorkTime = *stored.LastWorkTime
	} else {
		changed = true
	}
	if stored.LastCareerRollTime != nil {
		user.LastCareerRollTime = *stored.LastCareerRollTime
	} else {
		changed = true
	}
	if user.Money < 0 {
		user.Money = 0
		changed = true
	}

	user.SchemaVersion = CurrentUserSchemaVersion
	return user, changed
}
