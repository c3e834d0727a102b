package blackjack

import (
	"context"
	"errors"
	"strings"
	"time"

	"hustler/bot/common"
	"hustler/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// HandleCommand starts a game and blocks until it settles
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, channelID, err := common.InteractionIDs(i)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Error parsing interaction IDs"), false)
		return
	}

	var bet int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "bet" {
			bet = opt.IntValue()
		}
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring blackjack response: %v", err)
		return
	}

	f.games.Add(1)
	defer f.games.Done()

	renderer := &gameRenderer{
		session:     s,
		interaction: i,
		playerName:  common.GetDisplayName(s, i.GuildID, common.InteractionUserID(i)),
		turnTimeout: f.turnTimeout,
	}

	game, err := f.blackjack.Play(f.ctx, userID, channelID, bet, renderer)
	if err == nil {
		return
	}
	if game == nil {
		common.HandleError(s, i, common.FromServiceError(err, "Error starting blackjack"), true)
		return
	}

	// The game settled but its payout could not be credited
	log.WithFields(log.Fields{
		"session_id": game.ID,
		"user_id":    userID,
		"payout":     game.Payout(),
		"error":      err,
	}).Error("Blackjack payout was not credited")
	_, followErr := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: "❌ Your game finished but the payout could not be credited. An admin has been notified in the logs.",
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if followErr != nil {
		log.Errorf("Error sending payout failure message: %v", followErr)
	}
}

// HandleMessage delivers a hit or hold typed in chat to the author's game in that channel
func (f *Feature) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	action, ok := models.ParseBlackjackAction(strings.ToLower(strings.TrimSpace(m.Content)))
	if !ok {
		return
	}

	userID, err := common.ParseSnowflake(m.Author.ID)
	if err != nil {
		return
	}
	channelID, err := common.ParseSnowflake(m.ChannelID)
	if err != nil {
		return
	}

	if err := f.blackjack.Deliver(userID, channelID, action); err != nil {
		if !errors.Is(err, models.ErrInvalidSessionState) {
			log.WithFields(log.Fields{
				"user_id": userID,
				"action":  action,
				"error":   err,
			}).Warn("Failed to deliver blackjack action")
		}
		return
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"channel_id": channelID,
		"action":     action,
	}).Debug("Delivered blackjack action")
}

// gameRenderer edits the command's response every time the game changes
type gameRenderer struct {
	session     *discordgo.Session
	interaction *discordgo.InteractionCreate
	playerName  string
	turnTimeout time.Duration
}

func (r *gameRenderer) GameUpdated(ctx context.Context, game *models.BlackjackGame) {
	embed := buildGameEmbed(r.playerName, game, r.turnTimeout)
	if err := common.UpdateMessage(r.session, r.interaction, embed); err != nil {
		log.WithFields(log.Fields{
			"session_id": game.ID,
			"error":      err,
		}).Warn("Failed to render blackjack game")
	}
}
