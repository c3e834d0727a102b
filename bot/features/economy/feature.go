package economy

import (
	"time"

	"hustler/service"

	"github.com/bwmarrin/discordgo"
)

// Feature answers the work, career and wealth commands
type Feature struct {
	economy service.EconomyService
	now     func() time.Time
}

func New(economy service.EconomyService) *Feature {
	return &Feature{
		economy: economy,
		now:     time.Now,
	}
}

// HandleCommand dispatches one of the economy slash commands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "work":
		f.handleWork(s, i)
	case "career":
		f.handleCareer(s, i)
	case "rollcareer":
		f.handleRollCareer(s, i)
	case "rank":
		f.handleRank(s, i)
	case "balance":
		f.handleBalance(s, i)
	case "leaderboard":
		f.handleLeaderboard(s, i)
	}
}
