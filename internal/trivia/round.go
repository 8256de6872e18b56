package trivia

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/harmiox/trivia-bot/internal/gateway"
	"github.com/harmiox/trivia-bot/internal/metrics"
)

// optionLabels are the reaction labels presented next to the shuffled
// options, left to right.
var optionLabels = []string{"\U0001F1E6", "\U0001F1E7", "\U0001F1E8", "\U0001F1E9"} // A B C D

// Round presents one question and resolves exactly once: either the first
// valid correct response or the window deadline, whichever happens first.
// The resolved flag is the single-writer-wins gate; every path that ends
// the round goes through a compare-and-set on it.
type Round struct {
	session  *Session
	question Question
	options  []string
	correct  string // label of the correct option after the shuffle
	window   gateway.ResponseWindow
	openedAt time.Time
	deadline time.Time
	resolved atomic.Bool
	logger   zerolog.Logger
}

// openRound posts the question embed and opens its response window. The
// options are shuffled once per round; the posted order is the order the
// window judges responses against.
func openRound(ctx context.Context, s *Session, q Question) (*Round, error) {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	limit := s.rules.Windows[q.Difficulty]
	embed := gateway.Embed{
		Description: fmt.Sprintf("**%s**", q.Text),
		Footer:      fmt.Sprintf("Time: %d seconds", int(limit.Seconds())),
		ImageURL:    q.ImageURL,
	}
	correct := ""
	for i, opt := range options {
		embed.Fields = append(embed.Fields, gateway.EmbedField{
			Name:  optionLabels[i],
			Value: opt,
		})
		if opt == q.Answer {
			correct = optionLabels[i]
		}
	}

	ref, err := s.gw.PostEmbed(ctx, s.channel, embed)
	if err != nil {
		return nil, fmt.Errorf("%w: post question: %v", gateway.ErrUnavailable, err)
	}
	window, err := s.gw.OpenResponseWindow(ctx, ref, optionLabels[:len(options)], limit)
	if err != nil {
		return nil, fmt.Errorf("%w: open response window: %v", gateway.ErrUnavailable, err)
	}

	now := time.Now()
	return &Round{
		session:  s,
		question: q,
		options:  options,
		correct:  correct,
		window:   window,
		openedAt: now,
		deadline: now.Add(limit),
		logger:   s.logger.With().Str("question", q.Text).Logger(),
	}, nil
}

// run consumes the response stream until the round resolves. Responses are
// evaluated in arrival order; once the window closes without a correct
// answer the round resolves as a timeout.
func (r *Round) run(ctx context.Context) {
	for resp := range r.window.Events() {
		r.handle(ctx, resp)
	}
	if r.resolve() {
		metrics.RoundsResolved.WithLabelValues(metrics.RoundTimeout).Inc()
		r.logger.Debug().Time("deadline", r.deadline).Msg("round timed out")
		r.session.handleTimeout(ctx)
	}
}

func (r *Round) handle(ctx context.Context, resp gateway.Response) {
	if r.resolved.Load() {
		metrics.ResponsesEvaluated.WithLabelValues(metrics.ResponseLate).Inc()
		return
	}
	if !r.validOption(resp.Option) {
		return
	}
	if resp.Option != r.correct {
		metrics.ResponsesEvaluated.WithLabelValues(metrics.ResponseIncorrect).Inc()
		r.logger.Debug().Str("option", resp.Option).Str("responder_id", resp.ResponderID).Msg("incorrect response")
		return
	}
	if !r.resolve() {
		metrics.ResponsesEvaluated.WithLabelValues(metrics.ResponseLate).Inc()
		return
	}

	metrics.ResponsesEvaluated.WithLabelValues(metrics.ResponseCorrect).Inc()
	metrics.RoundsResolved.WithLabelValues(metrics.RoundAnswered).Inc()
	r.logger.Info().
		Str("responder_id", resp.ResponderID).
		Dur("latency", resp.At.Sub(r.openedAt)).
		Msg("round answered")
	r.window.Cancel()
	r.session.recordCorrectAnswer(ctx, r, resp)
}

// resolve is the atomic transition resolved: false -> true. Exactly one
// caller per round wins it.
func (r *Round) resolve() bool {
	return r.resolved.CompareAndSwap(false, true)
}

// cancel abandons the round without a resolution callback; used when the
// session ends mid-round.
func (r *Round) cancel() {
	if r.resolve() {
		r.window.Cancel()
	}
}

func (r *Round) validOption(label string) bool {
	for i := range r.options {
		if optionLabels[i] == label {
			return true
		}
	}
	return false
}
