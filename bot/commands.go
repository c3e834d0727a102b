package bot

import (
	"fmt"

	"hustler/bot/common"

	"github.com/bwmarrin/discordgo"
)

func applicationCommands() []*discordgo.ApplicationCommand {
	minBet := float64(1)
	minSize := float64(1)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "work",
			Description: "Work a shift at your current career",
		},
		{
			Name:        "career",
			Description: "Show your career, pay and cooldowns",
		},
		{
			Name:        "rollcareer",
			Description: "Try for a promotion to the next career",
		},
		{
			Name:        "rank",
			Description: "Show where you stand on the career ladder and by wealth",
		},
		{
			Name:        "balance",
			Description: "Check your current balance",
		},
		{
			Name:        "leaderboard",
			Description: "Show the richest players",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "size",
					Description: "How many players to show",
					Required:    false,
					MinValue:    &minSize,
					MaxValue:    common.MaxLeaderboardSize,
				},
			},
		},
		{
			Name:        "blackjack",
			Description: "Play a hand of blackjack against the dealer",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "bet",
					Description: "Amount to bet",
					Required:    true,
					MinValue:    &minBet,
				},
			},
		},
	}
}

// registerCommands registers all slash commands with Discord. An empty guild
// ID registers them globally.
func (b *Bot) registerCommands() error {
	for _, cmd := range applicationCommands() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}
