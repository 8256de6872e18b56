package trivia

import (
	"errors"
	"fmt"
	"time"
)

// Difficulty constants for readability.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Session lifecycle states.
const (
	StateCreated   = "created"
	StateAsking    = "asking_question"
	StateResolving = "resolving"
	StateEnded     = "ended"
)

// Sentinel errors surfaced to the command layer.
var (
	ErrSessionActive   = errors.New("session already active")
	ErrNoQuestions     = errors.New("no questions available")
	ErrInvalidQuestion = errors.New("invalid question")
)

const optionCount = 4

// Question is one multiple-choice trivia question. Options always holds
// exactly four distinct entries including Answer.
type Question struct {
	Text       string
	Answer     string
	Options    []string
	Difficulty string
	ImageURL   string
}

// Validate checks the question invariants enforced at ingestion time.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidQuestion)
	}
	if len(q.Options) != optionCount {
		return fmt.Errorf("%w: need %d options, got %d", ErrInvalidQuestion, optionCount, len(q.Options))
	}
	seen := make(map[string]bool, optionCount)
	answerPresent := false
	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("%w: empty option", ErrInvalidQuestion)
		}
		if seen[opt] {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidQuestion, opt)
		}
		seen[opt] = true
		if opt == q.Answer {
			answerPresent = true
		}
	}
	if !answerPresent {
		return fmt.Errorf("%w: correct answer not among options", ErrInvalidQuestion)
	}
	switch q.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidQuestion, q.Difficulty)
	}
	return nil
}

// Player tracks one responder's score within a session. Players are created
// lazily on their first correct answer and never removed; points only grow.
type Player struct {
	ID          string
	DisplayName string
	Points      int

	joined int // creation order, breaks winner ties
}

// Rules holds the fixed difficulty tables and the win threshold. Both
// points and answer windows are lookups, never computed.
type Rules struct {
	PointsToWin int
	Points      map[string]int
	Windows     map[string]time.Duration
}

// DefaultRules returns the production defaults.
func DefaultRules() Rules {
	return Rules{
		PointsToWin: 500,
		Points: map[string]int{
			DifficultyEasy:   10,
			DifficultyMedium: 25,
			DifficultyHard:   50,
		},
		Windows: map[string]time.Duration{
			DifficultyEasy:   30 * time.Second,
			DifficultyMedium: 20 * time.Second,
			DifficultyHard:   10 * time.Second,
		},
	}
}
