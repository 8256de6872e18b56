package trivia

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harmiox/trivia-bot/internal/gateway"
)

// stubWindow lets tests inject responses and simulate deadline expiry.
type stubWindow struct {
	mu     sync.Mutex
	closed bool
	events chan gateway.Response
}

func newStubWindow() *stubWindow {
	return &stubWindow{events: make(chan gateway.Response, 64)}
}

func (w *stubWindow) Events() <-chan gateway.Response { return w.events }

func (w *stubWindow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.events)
}

// emit injects one response; returns false when the window is closed.
func (w *stubWindow) emit(responderID, name, option string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.events <- gateway.Response{
		ResponderID: responderID,
		DisplayName: name,
		Option:      option,
		At:          time.Now(),
	}
	return true
}

type stubGateway struct {
	mu        sync.Mutex
	messages  []string
	embeds    []gateway.Embed
	windows   []*stubWindow
	failEmbed int // fail the N-th PostEmbed (1-based), 0 = never
	embedSeen int
}

func newStubGateway() *stubGateway { return &stubGateway{} }

func (g *stubGateway) PostMessage(_ context.Context, channel, content string) (gateway.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, content)
	return gateway.MessageRef{ID: uuid.New(), Channel: channel}, nil
}

func (g *stubGateway) PostEmbed(_ context.Context, channel string, embed gateway.Embed) (gateway.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.embedSeen++
	if g.failEmbed > 0 && g.embedSeen >= g.failEmbed {
		return gateway.MessageRef{}, errors.New("connection reset")
	}
	g.embeds = append(g.embeds, embed)
	return gateway.MessageRef{ID: uuid.New(), Channel: channel}, nil
}

func (g *stubGateway) OpenResponseWindow(_ context.Context, ref gateway.MessageRef, _ []string, _ time.Duration) (gateway.ResponseWindow, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	w := newStubWindow()
	g.windows = append(g.windows, w)
	return w, nil
}

func (g *stubGateway) windowCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.windows)
}

func (g *stubGateway) window(t *testing.T, i int) *stubWindow {
	t.Helper()
	require.Eventually(t, func() bool {
		return g.windowCount() > i
	}, time.Second, 2*time.Millisecond, "window %d never opened", i)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.windows[i]
}

func (g *stubGateway) embed(t *testing.T, i int) gateway.Embed {
	t.Helper()
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return len(g.embeds) > i
	}, time.Second, 2*time.Millisecond, "embed %d never posted", i)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.embeds[i]
}

func (g *stubGateway) allMessages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.messages))
	copy(out, g.messages)
	return out
}

// correctLabel finds the reaction label posted next to the correct answer.
func correctLabel(t *testing.T, embed gateway.Embed, answer string) string {
	t.Helper()
	for _, f := range embed.Fields {
		if f.Value == answer {
			return f.Name
		}
	}
	t.Fatalf("answer %q not among embed fields", answer)
	return ""
}

// wrongLabel finds a label whose option is not the correct answer.
func wrongLabel(t *testing.T, embed gateway.Embed, answer string) string {
	t.Helper()
	for _, f := range embed.Fields {
		if f.Value != answer {
			return f.Name
		}
	}
	t.Fatalf("no wrong option in embed")
	return ""
}

func easyQuestion(text, answer string) Question {
	return Question{
		Text:       text,
		Answer:     answer,
		Options:    []string{answer, text + " b", text + " c", text + " d"},
		Difficulty: DifficultyEasy,
	}
}
