package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hustler/bot"
	"hustler/config"
	"hustler/database"
	"hustler/events"
	"hustler/health"
	"hustler/metrics"
	"hustler/models"
	"hustler/repository"
	"hustler/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ledger is the storage a running bot was wired to
type ledger struct {
	uowFactory service.UnitOfWorkFactory
	locks      service.SessionLock
	close      func()
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	configureLogging(cfg)

	log.Info("Starting hustler bot...")

	eventBus := events.NewBus()

	log.Infof("Connecting to %s ledger...", cfg.LedgerBackend)
	store, err := openLedger(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	defer store.close()
	log.Info("Ledger connection established successfully")

	// Services share one random source; it is safe for concurrent use
	rng := models.NewLockedRand(time.Now().UnixNano())
	economyService := service.NewEconomyService(store.uowFactory, cfg, rng)
	blackjackService := service.NewBlackjackService(store.uowFactory, service.NewTurnRouter(), store.locks, rng, cfg)
	log.Info("Services initialized successfully")

	gameMetrics := metrics.New(blackjackService.ActiveSessions)
	gameMetrics.Subscribe(eventBus)

	liveness := health.NewServer(cfg.Port, gameMetrics.Handler())
	liveness.Start()

	discordBot, err := bot.New(bot.Config{
		Token:                cfg.DiscordToken,
		GuildID:              cfg.GuildID,
		TurnTimeout:          cfg.BlackjackTurnTimeout,
		CommandRatePerSecond: cfg.CommandRatePerSecond,
		CommandBurst:         cfg.CommandBurst,
	}, economyService, blackjackService)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")

	// Closing the bot settles running games, which still need the ledger
	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := liveness.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error stopping liveness server: %v", err)
	}

	eventBus.Wait()
	log.Info("Shutdown completed")
	return nil
}

// openLedger connects the configured backend and builds its unit-of-work
// factory and session lock
func openLedger(ctx context.Context, cfg *config.Config, eventBus *events.Bus) (*ledger, error) {
	entryCareer := cfg.Careers.Entry().ID

	switch cfg.LedgerBackend {
	case config.LedgerBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return &ledger{
			uowFactory: repository.NewRedisUnitOfWorkFactory(client, eventBus, entryCareer),
			locks:      repository.NewRedisSessionLock(client),
			close: func() {
				log.Info("Closing redis connection...")
				if err := client.Close(); err != nil {
					log.Errorf("Error closing redis connection: %v", err)
				}
			},
		}, nil

	default:
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return &ledger{
			uowFactory: repository.NewUnitOfWorkFactory(db, eventBus, entryCareer),
			locks:      service.NewMemorySessionLock(),
			close: func() {
				log.Info("Closing database connection...")
				db.Close()
			},
		}, nil
	}
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
