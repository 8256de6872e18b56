// Package command implements the moderation chat commands. Each handler is
// a thin caller into the registry or the question service and returns the
// reply text shown to the requester.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harmiox/trivia-bot/internal/question"
	"github.com/harmiox/trivia-bot/internal/trivia"
)

// Dispatcher routes prefixed chat commands.
type Dispatcher struct {
	registry  *trivia.Registry
	questions *question.Service
	logger    zerolog.Logger
}

// NewDispatcher creates the command dispatcher.
func NewDispatcher(registry *trivia.Registry, questions *question.Service, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		questions: questions,
		logger:    logger,
	}
}

// Dispatch handles one command (prefix already stripped) issued in a
// channel and returns the reply text. Unknown commands return "".
func (d *Dispatcher) Dispatch(ctx context.Context, channel, responderID, displayName, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	switch strings.ToLower(fields[0]) {
	case "start":
		return d.handleStart(ctx, channel)
	case "fetch":
		return d.handleFetch(ctx)
	default:
		return ""
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, channel string) string {
	questions := d.questions.Questions()
	if len(questions) == 0 {
		return "No questions are loaded yet. Run the fetch command first."
	}

	_, err := d.registry.Start(ctx, channel, channel, questions)
	switch {
	case errors.Is(err, trivia.ErrSessionActive):
		return "A trivia game has already been started in this channel."
	case err != nil:
		d.logger.Error().Err(err).Str("channel", channel).Msg("failed to start session")
		return "An internal error occurred when trying to start the game."
	}
	return ""
}

func (d *Dispatcher) handleFetch(ctx context.Context) string {
	count, err := d.questions.Fetch(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to fetch questions")
		return "An internal error occurred when trying to fetch the questions from the database."
	}
	return fmt.Sprintf("**%d** questions have successfully been fetched and loaded.", count)
}
