package economy

import (
	"context"

	"hustler/bot/common"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) handleWork(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, err := common.ParseSnowflake(common.InteractionUserID(i))
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Error parsing Discord ID"), false)
		return
	}

	result, err := f.economy.Work(ctx, discordID, f.now())
	if err != nil {
		common.HandleError(s, i, common.FromServiceError(err, "Error running work"), false)
		return
	}

	common.RespondWithContent(s, i, formatWorkResult(result), false)
}

func (f *Feature) handleCareer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, err := common.ParseSnowflake(common.InteractionUserID(i))
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Error parsing Discord ID"), false)
		return
	}

	view, err := f.economy.ViewCareer(ctx, discordID, f.now())
	if err != nil {
		common.HandleError(s, i, common.FromServiceError(err, "Error viewing career"), false)
		return
	}

	displayName := common.GetDisplayName(s, i.GuildID, common.InteractionUserID(i))
	common.RespondWithEmbed(s, i, buildCareerEmbed(displayName, view), false)
}

func (f *Feature) handleRollCareer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, err := common.ParseSnowflake(common.InteractionUserID(i))
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Error parsing Discord ID"), false)
		return
	}

	result, err := f.economy.RollCareer(ctx, discordID, f.now())
	if err != nil {
		common.HandleError(s, i, common.FromServiceError(err, "Error rolling career"), false)
		return
	}

	common.RespondWithContent(s, i, formatRollResult(result), false)
}

func (f *Feature) handleRank(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, err := common.ParseSnowflake(common.InteractionUserID(i))
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Error parsing Discord ID"), false)
		return
	}

	view, err := f.economy.ViewRank(ctx, discordID)
	if err != nil {
		common.HandleError(s, i, common.FromServiceError(err, "Error viewing rank"), false)
		return
	}

	common.RespondWithContent(s, i, formatRank(view), false)
}

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, err := common.ParseSnowflake(common.InteractionUserID(i))
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Error parsing Discord ID"), false)
		return
	}

	view, err := f.economy.ViewBalance(ctx, discordID)
	if err != nil {
		common.HandleError(s, i, common.FromServiceError(err, "Error viewing balance"), false)
		return
	}

	displayName := common.GetDisplayName(s, i.GuildID, common.InteractionUserID(i))
	common.RespondWithContent(s, i, formatBalance(displayName, view), false)
}

func (f *Feature) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	limit := common.DefaultLeaderboardSize
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "size" {
			limit = int(opt.IntValue())
		}
	}

	entries, err := f.economy.Leaderboard(ctx, limit)
	if err != nil {
		common.HandleError(s, i, common.FromServiceError(err, "Error loading leaderboard"), false)
		return
	}

	names := make(map[int64]string, len(entries))
	for _, entry := range entries {
		names[entry.DiscordID] = common.GetDisplayNameInt64(s, i.GuildID, entry.DiscordID)
	}
	common.RespondWithEmbed(s, i, buildLeaderboardEmbed(entries, names), false)
}
