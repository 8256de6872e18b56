package trivia

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/harmiox/trivia-bot/internal/gateway"
	"github.com/harmiox/trivia-bot/internal/metrics"
)

// Session owns one game's full lifecycle for a single channel key: the
// shuffled question queue, the current round, player scores, and winner
// determination. All side effects go through the messaging gateway; the
// registry is only notified on removal.
type Session struct {
	key     string
	channel string
	gw      gateway.Gateway
	rules   Rules
	logger  zerolog.Logger
	onEnd   func(key string)

	mu      sync.Mutex
	state   string
	queue   []Question
	players map[string]*Player
	joined  int
	current *Round
	winner  *Player
}

func newSession(key, channel string, questions []Question, gw gateway.Gateway, rules Rules, logger zerolog.Logger, onEnd func(string)) *Session {
	queue := make([]Question, len(questions))
	copy(queue, questions)
	// One shuffle at creation; the order is never re-randomized between
	// questions.
	rand.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})

	return &Session{
		key:     key,
		channel: channel,
		gw:      gw,
		rules:   rules,
		logger:  logger.With().Str("session_key", key).Logger(),
		onEnd:   onEnd,
		state:   StateCreated,
		queue:   queue,
		players: make(map[string]*Player),
	}
}

// Key returns the channel/guild identity the session is scoped to.
func (s *Session) Key() string { return s.key }

// State returns the current lifecycle state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Winner returns the declared winner once the session has ended.
func (s *Session) Winner() (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.winner == nil {
		return Player{}, false
	}
	return *s.winner, true
}

// Score returns a responder's current points.
func (s *Session) Score(responderID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[responderID]; ok {
		return p.Points
	}
	return 0
}

// Start transitions Created -> AskingQuestion and opens the first round.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return fmt.Errorf("start: session is %s", s.state)
	}
	s.state = StateAsking
	s.mu.Unlock()

	return s.askNext(ctx)
}

// askNext pops the next question and opens a round for it, or ends the
// session when the queue is exhausted.
func (s *Session) askNext(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return nil
	}
	if len(s.queue) == 0 {
		winner := s.leaderLocked()
		s.mu.Unlock()
		s.end(ctx, winner)
		return nil
	}
	q := s.queue[0]
	s.queue = s.queue[1:]
	s.state = StateAsking
	s.mu.Unlock()

	round, err := openRound(ctx, s, q)
	if err != nil {
		s.abort(ctx, err)
		return err
	}

	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		round.cancel()
		return nil
	}
	s.current = round
	s.mu.Unlock()

	go round.run(ctx)
	return nil
}

// recordCorrectAnswer credits the first correct responder of a round. The
// caller (the round) has already won the resolution race, so exactly one
// invocation happens per round.
func (s *Session) recordCorrectAnswer(ctx context.Context, round *Round, resp gateway.Response) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.state = StateResolving
	s.current = nil

	p, ok := s.players[resp.ResponderID]
	if !ok {
		p = &Player{
			ID:          resp.ResponderID,
			DisplayName: resp.DisplayName,
			joined:      s.joined,
		}
		s.joined++
		s.players[resp.ResponderID] = p
	}
	points := s.rules.Points[round.question.Difficulty]
	p.Points += points
	total := p.Points
	// Strictly greater than: reaching the threshold exactly keeps the
	// game going.
	won := total > s.rules.PointsToWin
	s.mu.Unlock()

	s.logger.Info().
		Str("responder_id", resp.ResponderID).
		Int("points", points).
		Int("total", total).
		Bool("won", won).
		Msg("correct answer recorded")

	if won {
		s.end(ctx, p)
		return
	}

	notice := fmt.Sprintf("%s answered correctly first. They have received **%d** points. *(%dpts total)*",
		resp.DisplayName, points, total)
	if _, err := s.gw.PostMessage(ctx, s.channel, notice); err != nil {
		s.abort(ctx, err)
		return
	}
	s.askNext(ctx)
}

// handleTimeout advances past a round nobody answered in time.
func (s *Session) handleTimeout(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.state = StateResolving
	s.current = nil
	empty := len(s.queue) == 0
	s.mu.Unlock()

	if !empty {
		if _, err := s.gw.PostMessage(ctx, s.channel, "No one answered in time! Moving to the next question."); err != nil {
			s.abort(ctx, err)
			return
		}
	}
	s.askNext(ctx)
}

// end reaches the terminal state, announces the outcome and notifies the
// registry. A second call is a no-op.
func (s *Session) end(ctx context.Context, winner *Player) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.state = StateEnded
	s.winner = winner
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		current.cancel()
	}

	outcome := metrics.OutcomeNoWinner
	notice := "The game has ended with no winner."
	if winner != nil {
		outcome = metrics.OutcomeWinner
		if winner.Points > s.rules.PointsToWin {
			notice = fmt.Sprintf("%s has won the game with **%d** points!", winner.DisplayName, winner.Points)
		} else {
			notice = fmt.Sprintf("The winner is %s with **%d** points!", winner.DisplayName, winner.Points)
		}
	}
	if _, err := s.gw.PostMessage(ctx, s.channel, notice); err != nil {
		s.logger.Warn().Err(err).Msg("failed to announce session outcome")
	}

	s.logger.Info().Str("outcome", outcome).Msg("session ended")
	metrics.SessionsEnded.WithLabelValues(outcome).Inc()
	metrics.ActiveSessions.Dec()

	if s.onEnd != nil {
		s.onEnd(s.key)
	}
}

// abort ends the session without an outcome announcement after a gateway
// failure; the session is left in a safe terminal state and removed.
func (s *Session) abort(ctx context.Context, cause error) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.state = StateEnded
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		current.cancel()
	}

	s.logger.Error().Err(cause).Msg("session aborted")
	metrics.SessionsEnded.WithLabelValues(metrics.OutcomeAborted).Inc()
	metrics.ActiveSessions.Dec()

	if s.onEnd != nil {
		s.onEnd(s.key)
	}
}

// leaderLocked picks the highest scorer, ties broken by creation order.
// Returns nil when nobody has scored. Caller holds s.mu.
func (s *Session) leaderLocked() *Player {
	var best *Player
	for _, p := range s.players {
		if best == nil ||
			p.Points > best.Points ||
			(p.Points == best.Points && p.joined < best.joined) {
			best = p
		}
	}
	return best
}
