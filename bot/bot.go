package bot

import (
	"fmt"
	"time"

	"hustler/bot/common"
	"hustler/bot/features/blackjack"
	"hustler/bot/features/economy"
	"hustler/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token                string
	GuildID              string
	TurnTimeout          time.Duration
	CommandRatePerSecond float64
	CommandBurst         int
}

// Bot manages the Discord session and all feature modules
type Bot struct {
	config  Config
	session *discordgo.Session
	limiter *userLimiter

	// Feature modules
	economy   *economy.Feature
	blackjack *blackjack.Feature
}

// New creates a bot, opens the gateway connection and registers commands
func New(config Config, economyService service.EconomyService, blackjackService service.BlackjackService) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	bot := &Bot{
		config:    config,
		session:   dg,
		limiter:   newUserLimiter(config.CommandRatePerSecond, config.CommandBurst),
		economy:   economy.New(economyService),
		blackjack: blackjack.New(blackjackService, config.TurnTimeout),
	}

	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleMessageCreate)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

// Close settles running games and shuts the session down
func (b *Bot) Close() error {
	b.blackjack.Close()
	log.Info("Blackjack games settled")
	return b.session.Close()
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	if !b.limiter.Allow(common.InteractionUserID(i)) {
		common.RespondWithError(s, i, "You're sending commands too quickly. Slow down a little.")
		return
	}

	switch i.ApplicationCommandData().Name {
	case "work", "career", "rollcareer", "rank", "balance", "leaderboard":
		b.economy.HandleCommand(s, i)
	case "blackjack":
		b.blackjack.HandleCommand(s, i)
	}
}

// handleMessageCreate feeds chat replies to running blackjack games
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	b.blackjack.HandleMessage(s, m)
}
