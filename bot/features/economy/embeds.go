package economy

import (
	"fmt"
	"strings"
	"time"

	"hustler/bot/common"
	"hustler/models"

	"github.com/bwmarrin/discordgo"
)

func formatWorkResult(result *models.WorkResult) string {
	if result.Status == models.WorkStatusOnCooldown {
		return fmt.Sprintf("⏳ You're still tired. You can work again in **%s**.", common.FormatDuration(result.Remaining))
	}
	return fmt.Sprintf("💼 You worked as a **%s** and earned **%s**. Balance: **%s**",
		common.FormatCareer(result.Career.ID),
		common.FormatMoney(result.Earnings),
		common.FormatMoney(result.NewBalance))
}

func formatRollResult(result *models.CareerRollResult) string {
	switch result.Status {
	case models.CareerRollAlreadyMaxed:
		return fmt.Sprintf("👑 You're already a **%s**, the top of the ladder.", common.FormatCareer(result.From.ID))
	case models.CareerRollOnCooldown:
		return fmt.Sprintf("⏳ You can try for a promotion again in **%s**.", common.FormatDuration(result.Remaining))
	case models.CareerRollPromoted:
		return fmt.Sprintf("🎉 Promoted! **%s** → **%s**", common.FormatCareer(result.From.ID), common.FormatCareer(result.To.ID))
	default:
		return fmt.Sprintf("😔 No promotion this time. You're still a **%s**.", common.FormatCareer(result.From.ID))
	}
}

func formatRank(view *models.RankView) string {
	next := "none, you're at the top"
	if view.Next != nil {
		next = common.FormatCareer(view.Next.ID)
	}
	return fmt.Sprintf("📊 **%s** (%d of %d). Next career: **%s**. Wealth rank: **#%d** with **%s**",
		common.FormatCareer(view.Career.ID),
		view.LadderPosition,
		view.LadderSize,
		next,
		view.WealthRank,
		common.FormatMoney(view.Money))
}

func formatBalance(displayName string, view *models.BalanceView) string {
	return fmt.Sprintf("%s, your current balance: **%s**", displayName, common.FormatMoney(view.Money))
}

func buildCareerEmbed(displayName string, view *models.CareerView) *discordgo.MessageEmbed {
	next := "Top of the ladder"
	if view.Next != nil {
		next = fmt.Sprintf("%s (%s per shift)", common.FormatCareer(view.Next.ID), common.FormatMoney(view.Next.PayPerWork()))
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s the %s", displayName, common.FormatCareer(view.Career.ID)),
		Description: view.Career.Description,
		Color:       common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Pay per shift", Value: common.FormatMoney(view.Career.PayPerWork()), Inline: true},
			{Name: "Ladder", Value: fmt.Sprintf("%d of %d", view.LadderPosition, view.LadderSize), Inline: true},
			{Name: "Next career", Value: next, Inline: false},
			{Name: "Work", Value: availability(view.WorkAvailableIn), Inline: true},
			{Name: "Promotion roll", Value: fmt.Sprintf("%s (%s chance)", availability(view.RollAvailableIn), common.FormatPercent(view.AdvancementOdds)), Inline: true},
		},
	}
}

func availability(remaining time.Duration) string {
	if remaining <= 0 {
		return "Ready"
	}
	return "in " + common.FormatDuration(remaining)
}

func buildLeaderboardEmbed(entries []*models.LeaderboardEntry, names map[int64]string) *discordgo.MessageEmbed {
	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString("Nobody has any money yet.")
	}
	for _, entry := range entries {
		name := names[entry.DiscordID]
		if name == "" {
			name = fmt.Sprintf("<@%d>", entry.DiscordID)
		}
		fmt.Fprintf(&b, "**%d.** %s · %s · %s\n", entry.Rank, name, common.FormatMoney(entry.Money), common.FormatCareer(entry.Career))
	}

	return &discordgo.MessageEmbed{
		Title:       "💰 Richest players",
		Description: b.String(),
		Color:       common.ColorSuccess,
	}
}
