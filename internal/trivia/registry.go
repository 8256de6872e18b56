package trivia

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/harmiox/trivia-bot/internal/gateway"
	"github.com/harmiox/trivia-bot/internal/metrics"
)

// Registry maps a channel/guild key to its active session and guarantees
// at most one live session per key. Check-and-insert is atomic with
// respect to concurrent Start calls on the same key.
type Registry struct {
	gw     gateway.Gateway
	rules  Rules
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry(gw gateway.Gateway, rules Rules, logger zerolog.Logger) *Registry {
	return &Registry{
		gw:       gw,
		rules:    rules,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Start creates and starts a session for the key. It fails with
// ErrSessionActive, without side effects, when a live session already
// holds the key.
func (r *Registry) Start(ctx context.Context, key, channel string, questions []Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	r.mu.Lock()
	if _, exists := r.sessions[key]; exists {
		r.mu.Unlock()
		return nil, ErrSessionActive
	}
	session := newSession(key, channel, questions, r.gw, r.rules, r.logger, r.Remove)
	r.sessions[key] = session
	r.mu.Unlock()

	metrics.SessionsStarted.Inc()
	metrics.ActiveSessions.Inc()
	r.logger.Info().Str("session_key", key).Int("questions", len(questions)).Msg("session started")

	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the live session for the key, if any.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[key]
	return session, ok
}

// Remove drops the key's session. Removing an absent key is a no-op.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}
