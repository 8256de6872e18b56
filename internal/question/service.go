package question

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/harmiox/trivia-bot/internal/trivia"
)

// ErrSourceUnavailable reports that the spreadsheet could not be reached;
// the previously loaded question set, if any, stays in effect.
var ErrSourceUnavailable = errors.New("question source unavailable")

// Row layout of the question sheet: text, correct answer, three wrong
// answers, difficulty, optional image URL. Row zero is the header.
const (
	colText = iota
	colAnswer
	colWrong1
	colWrong2
	colWrong3
	colDifficulty
	colImageURL
	minColumns = colDifficulty + 1
)

// RowSource fetches the raw spreadsheet rows.
type RowSource interface {
	FetchRows(ctx context.Context) ([][]string, error)
}

// SetCache persists the last good question set across restarts.
type SetCache interface {
	Get(ctx context.Context) ([]trivia.Question, error)
	Set(ctx context.Context, questions []trivia.Question) error
}

// Service owns the in-memory question set: fetching from the source,
// ingestion-time validation, and the last-known-good fallback.
type Service struct {
	source RowSource
	cache  SetCache // optional
	logger zerolog.Logger

	mu        sync.RWMutex
	questions []trivia.Question
}

// NewService creates a question service. cache may be nil.
func NewService(source RowSource, cache SetCache, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// Fetch reloads the question set from the source. Malformed rows are
// dropped at ingestion and never surface mid-game. On source failure the
// previous set is kept and ErrSourceUnavailable is returned.
func (s *Service) Fetch(ctx context.Context) (int, error) {
	rows, err := s.source.FetchRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var questions []trivia.Question
	dropped := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		q, err := parseRow(row)
		if err != nil {
			dropped++
			s.logger.Warn().Err(err).Int("row", i+1).Msg("dropping malformed question")
			continue
		}
		questions = append(questions, q)
	}

	s.mu.Lock()
	s.questions = questions
	s.mu.Unlock()

	s.logger.Info().Int("loaded", len(questions)).Int("dropped", dropped).Msg("question set fetched")

	if s.cache != nil && len(questions) > 0 {
		if err := s.cache.Set(ctx, questions); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache question set")
		}
	}

	return len(questions), nil
}

// LoadCached restores the last good set from the cache, typically after a
// failed fetch at boot. It never overwrites an already loaded set.
func (s *Service) LoadCached(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	questions, err := s.cache.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cached questions: %w", err)
	}
	if len(questions) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	if len(s.questions) == 0 {
		s.questions = questions
	}
	count := len(s.questions)
	s.mu.Unlock()

	s.logger.Info().Int("loaded", count).Msg("question set restored from cache")
	return count, nil
}

// Questions returns a copy of the current set.
func (s *Service) Questions() []trivia.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trivia.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func parseRow(row []string) (trivia.Question, error) {
	if len(row) < minColumns {
		return trivia.Question{}, fmt.Errorf("%w: %d columns", trivia.ErrInvalidQuestion, len(row))
	}
	q := trivia.Question{
		Text:       row[colText],
		Answer:     row[colAnswer],
		Options:    []string{row[colAnswer], row[colWrong1], row[colWrong2], row[colWrong3]},
		Difficulty: row[colDifficulty],
	}
	if len(row) > colImageURL {
		q.ImageURL = row[colImageURL]
	}
	if err := q.Validate(); err != nil {
		return trivia.Question{}, err
	}
	return q, nil
}
