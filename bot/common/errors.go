package common

import (
	"errors"
	"fmt"

	"hustler/models"
	"hustler/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string // Message shown to Discord user
	LogMessage  string // Internal message for logging
	Ephemeral   bool   // Whether the error message should be ephemeral
	Err         error  // Underlying error
	Expected    bool   // Caused by the user rather than the system
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (validation, insufficient funds, etc)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
		Expected:    true,
	}
}

// NewSystemError creates an error for system issues (database, unexpected state, etc)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: "Something went wrong. Please try again later.",
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

// FromServiceError classifies a service error into what the user is told
func FromServiceError(err error, logMessage string) *BotError {
	var botErr *BotError
	switch {
	case errors.As(err, &botErr):
		return botErr
	case errors.Is(err, service.ErrInvalidBet):
		return withCause(NewUserError("Your bet must be a positive amount.", logMessage), err)
	case errors.Is(err, service.ErrInsufficientFunds):
		return withCause(NewUserError("You don't have enough money for that bet.", logMessage), err)
	case errors.Is(err, service.ErrSessionAlreadyActive):
		return withCause(NewUserError("You already have a blackjack game running. Finish it first.", logMessage), err)
	case errors.Is(err, models.ErrInvalidSessionState):
		return withCause(NewUserError("There is no move to make right now.", logMessage), err)
	case errors.Is(err, service.ErrLedgerUnavailable):
		return withCause(&BotError{
			UserMessage: "The bank is unavailable right now. Please try again shortly.",
			LogMessage:  logMessage,
			Ephemeral:   true,
		}, err)
	default:
		return NewSystemError(err, logMessage)
	}
}

func withCause(e *BotError, err error) *BotError {
	e.Err = err
	return e
}

// RespondWithError sends an error message as an interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// EditWithError replaces a deferred response with an error message
func EditWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	content := fmt.Sprintf("❌ %s", message)
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		log.Errorf("Error editing response with error message: %v", err)
	}
}

// HandleError logs err and tells the user what went wrong
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, deferred bool) {
	botErr := FromServiceError(err, "Unexpected error in bot command")

	entry := log.WithFields(log.Fields{
		"user_id":      InteractionUserID(i),
		"command":      i.ApplicationCommandData().Name,
		"error":        botErr.Error(),
		"user_message": botErr.UserMessage,
	})
	if botErr.Expected {
		entry.Info(botErr.LogMessage)
	} else {
		entry.Error(botErr.LogMessage)
	}

	if deferred {
		EditWithError(s, i, botErr.UserMessage)
	} else {
		RespondWithError(s, i, botErr.UserMessage)
	}
}
