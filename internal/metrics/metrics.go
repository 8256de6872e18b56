package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session outcome labels.
const (
	OutcomeWinner   = "winner"
	OutcomeNoWinner = "no_winner"
	OutcomeAborted  = "aborted"
)

// Round outcome labels.
const (
	RoundAnswered = "answered"
	RoundTimeout  = "timeout"
)

// Response evaluation labels.
const (
	ResponseCorrect   = "correct"
	ResponseIncorrect = "incorrect"
	ResponseLate      = "late"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_sessions_started_total",
		Help: "Number of trivia sessions created.",
	})

	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_sessions_ended_total",
		Help: "Number of trivia sessions reaching a terminal state, by outcome.",
	}, []string{"outcome"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trivia_sessions_active",
		Help: "Number of currently running trivia sessions.",
	})

	RoundsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_rounds_resolved_total",
		Help: "Number of rounds resolved, by outcome.",
	}, []string{"outcome"})

	ResponsesEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_responses_total",
		Help: "Number of candidate responses evaluated, by result.",
	}, []string{"result"})
)
