package blackjack

import (
	"fmt"
	"time"

	"hustler/bot/common"
	"hustler/models"

	"github.com/bwmarrin/discordgo"
)

func buildGameEmbed(playerName string, game *models.BlackjackGame, turnTimeout time.Duration) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🃏 Blackjack: %s bets %s", playerName, common.FormatMoney(game.Bet)),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   fmt.Sprintf("Your hand (%d)", game.PlayerHand.Value()),
				Value:  game.PlayerHand.String(),
				Inline: true,
			},
			dealerField(game),
		},
	}

	if !game.IsSettled() {
		embed.Color = common.ColorPrimary
		embed.Description = "Type **hit** to draw or **hold** to stand."
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("You have %s per move or the bet is forfeited", common.FormatDuration(turnTimeout)),
		}
		return embed
	}

	net := game.NetChange()
	switch {
	case net > 0:
		embed.Color = common.ColorSuccess
	case net < 0:
		embed.Color = common.ColorDanger
	default:
		embed.Color = common.ColorWarning
	}
	embed.Description = fmt.Sprintf("%s\nNet: **%s**", outcomeText(game.Outcome), common.FormatSignedMoney(net))
	return embed
}

// dealerField hides the hole card until the game settles
func dealerField(game *models.BlackjackGame) *discordgo.MessageEmbedField {
	if game.IsSettled() {
		return &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("Dealer (%d)", game.DealerHand.Value()),
			Value:  game.DealerHand.String(),
			Inline: true,
		}
	}

	up := game.DealerUpCard()
	return &discordgo.MessageEmbedField{
		Name:   fmt.Sprintf("Dealer (%d)", models.CardValue(up)),
		Value:  up.String() + " 🂠",
		Inline: true,
	}
}

func outcomeText(outcome models.BlackjackOutcome) string {
	switch outcome {
	case models.BlackjackOutcomeNaturalBlackjack:
		return "🎉 **Blackjack!** Paid 3 to 2."
	case models.BlackjackOutcomePush:
		return "🤝 **Push.** Your bet is returned."
	case models.BlackjackOutcomeBust:
		return "💥 **Bust!** You went over 21."
	case models.BlackjackOutcomeTimedOut:
		return "⌛ **Timed out.** The bet is forfeited."
	case models.BlackjackOutcomeDealerBust:
		return "🎉 **Dealer busts!** You win."
	case models.BlackjackOutcomePlayerWin:
		return "🎉 **You win!**"
	case models.BlackjackOutcomeDealerWin:
		return "😔 **Dealer wins.**"
	case models.BlackjackOutcomeAborted:
		return "⚠️ **Game cancelled.** Your bet is returned."
	default:
		return string(outcome)
	}
}
