package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hustler/database"
	"hustler/models"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Ledger backends
const (
	LedgerBackendPostgres = "postgres"
	LedgerBackendRedis    = "redis"
)

// Config holds all application configuration. It is built once at startup by
// Load and handed to constructors; nothing reads it through a global.
type Config struct {
	// Discord configuration
	DiscordToken string
	GuildID      string // Optional: register commands to one guild instead of globally

	// Ledger configuration
	LedgerBackend string // "postgres" or "redis"
	DatabaseURL   string
	DatabaseName  string
	RedisURL      string

	// Economy configuration
	WorkCooldown            time.Duration
	RollCooldown            time.Duration
	CareerAdvancementChance float64
	Careers                 *models.CareerLadder

	// Blackjack configuration
	BlackjackTurnTimeout time.Duration

	// Command throttling per user
	CommandRatePerSecond float64
	CommandBurst         int

	// Liveness server
	Port string

	// Environment
	Environment string // "development", "production" or "test"
	LogLevel    string
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Ignoring unreadable .env file: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their own environment
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	config := &Config{
		DiscordToken: getenv("DISCORD_TOKEN"),
		GuildID:      getenv("GUILD_ID"),

		LedgerBackend: strings.ToLower(env("LEDGER_BACKEND", LedgerBackendPostgres)),
		DatabaseURL:   getenv("DATABASE_URL"),
		DatabaseName:  getenv("DATABASE_NAME"),
		RedisURL:      getenv("REDIS_URL"),

		Port:        env("PORT", "8080"),
		Environment: env("ENVIRONMENT", "development"),
		LogLevel:    env("LOG_LEVEL", "info"),
	}

	var err error
	if config.WorkCooldown, err = parseDuration(env("WORK_COOLDOWN", "3600")); err != nil {
		return nil, fmt.Errorf("WORK_COOLDOWN: %w", err)
	}
	if config.RollCooldown, err = parseDuration(env("ROLL_COOLDOWN", "86400")); err != nil {
		return nil, fmt.Errorf("ROLL_COOLDOWN: %w", err)
	}
	if config.BlackjackTurnTimeout, err = parseDuration(env("BLACKJACK_TURN_TIMEOUT", "30")); err != nil {
		return nil, fmt.Errorf("BLACKJACK_TURN_TIMEOUT: %w", err)
	}
	if config.CareerAdvancementChance, err = strconv.ParseFloat(env("CAREER_ADVANCEMENT_CHANCE", "0.10"), 64); err != nil {
		return nil, fmt.Errorf("CAREER_ADVANCEMENT_CHANCE: %w", err)
	}
	if config.CommandRatePerSecond, err = strconv.ParseFloat(env("COMMAND_RATE_PER_SECOND", "2"), 64); err != nil {
		return nil, fmt.Errorf("COMMAND_RATE_PER_SECOND: %w", err)
	}
	if config.CommandBurst, err = strconv.Atoi(env("COMMAND_BURST", "5")); err != nil {
		return nil, fmt.Errorf("COMMAND_BURST: %w", err)
	}

	tiers := models.DefaultCareerTiers()
	if raw := getenv("CAREER_LADDER"); raw != "" {
		tiers = nil
		if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
			return nil, fmt.Errorf("CAREER_LADDER must be a JSON array of tiers: %w", err)
		}
	}
	if config.Careers, err = models.NewCareerLadder(tiers); err != nil {
		return nil, fmt.Errorf("CAREER_LADDER: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required settings and value ranges
func (c *Config) Validate() error {
	if c.WorkCooldown < 0 || c.RollCooldown < 0 {
		return fmt.Errorf("cooldowns must not be negative")
	}
	if c.BlackjackTurnTimeout <= 0 {
		return fmt.Errorf("BLACKJACK_TURN_TIMEOUT must be positive")
	}
	if c.CareerAdvancementChance < 0 || c.CareerAdvancementChance > 1 {
		return fmt.Errorf("CAREER_ADVANCEMENT_CHANCE must be within [0, 1], got %v", c.CareerAdvancementChance)
	}

	switch c.LedgerBackend {
	case LedgerBackendPostgres, LedgerBackendRedis:
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}

	if c.Environment == "test" {
		return nil
	}
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.LedgerBackend == LedgerBackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LedgerBackend == LedgerBackendRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}

// parseDuration accepts Go duration strings ("1h") or bare seconds ("3600")
func parseDuration(value string) (time.Duration, error) {
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		LedgerBackend:           LedgerBackendPostgres,
		WorkCooldown:            time.Hour,
		RollCooldown:            24 * time.Hour,
		CareerAdvancementChance: 0.10,
		Careers:                 models.DefaultCareerLadder(),
		BlackjackTurnTimeout:    30 * time.Second,
		CommandRatePerSecond:    2,
		CommandBurst:            5,
		Port:                    "8080",
		Environment:             "test",
		LogLevel:                "info",
	}
}
