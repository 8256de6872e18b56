// Package gateway defines the messaging boundary the trivia engine talks
// to. The engine posts messages and embeds into named channels and collects
// reaction-style responses through cancellable timed windows; everything
// about the underlying chat platform (connections, reconnects, command
// parsing) lives behind this interface.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnavailable reports that the gateway could not deliver a message or
// open a response window. A session treats it as terminal for itself.
var ErrUnavailable = errors.New("gateway unavailable")

// MessageRef identifies a posted message within its channel.
type MessageRef struct {
	ID      uuid.UUID
	Channel string
}

// EmbedField is one labelled answer option rendered inside an embed.
type EmbedField struct {
	Name  string
	Value string
}

// Embed is the rich-message payload used to present a question.
type Embed struct {
	Description string
	Fields      []EmbedField
	Footer      string
	ImageURL    string
}

// Response is one candidate answer event from a responder. Events are
// delivered in arrival order but may originate from concurrent senders.
type Response struct {
	ResponderID string
	DisplayName string
	Option      string
	At          time.Time
}

// ResponseWindow is a cancellable stream of responses to one message.
// Events is closed when the window's duration elapses or Cancel is called;
// Cancel is idempotent.
type ResponseWindow interface {
	Events() <-chan Response
	Cancel()
}

// Gateway posts messages and opens response-collection windows.
type Gateway interface {
	PostMessage(ctx context.Context, channel, content string) (MessageRef, error)
	PostEmbed(ctx context.Context, channel string, embed Embed) (MessageRef, error)
	OpenResponseWindow(ctx context.Context, ref MessageRef, validOptions []string, d time.Duration) (ResponseWindow, error)
}
