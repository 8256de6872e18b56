package question

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmiox/trivia-bot/internal/trivia"
)

type stubRowSource struct {
	fetch func(ctx context.Context) ([][]string, error)
}

func (s *stubRowSource) FetchRows(ctx context.Context) ([][]string, error) {
	return s.fetch(ctx)
}

type memoryCache struct {
	questions []trivia.Question
	setCalls  int
}

func (c *memoryCache) Get(context.Context) ([]trivia.Question, error) {
	return c.questions, nil
}

func (c *memoryCache) Set(_ context.Context, questions []trivia.Question) error {
	c.questions = questions
	c.setCalls++
	return nil
}

var header = []string{"Question", "Answer", "Wrong 1", "Wrong 2", "Wrong 3", "Difficulty", "Image"}

func row(text string) []string {
	return []string{text, text + " right", text + " w1", text + " w2", text + " w3", trivia.DifficultyEasy, ""}
}

func TestFetchParsesRowsAndSkipsHeader(t *testing.T) {
	source := &stubRowSource{
		fetch: func(context.Context) ([][]string, error) {
			return [][]string{
				header,
				{"Who painted it?", "Vermeer", "Monet", "Goya", "Degas", trivia.DifficultyHard, "https://img.example/q1.png"},
				row("q2"),
			}, nil
		},
	}
	service := NewService(source, nil, zerolog.Nop())

	count, err := service.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	questions := service.Questions()
	require.Len(t, questions, 2)
	assert.Equal(t, "Who painted it?", questions[0].Text)
	assert.Equal(t, "Vermeer", questions[0].Answer)
	assert.Equal(t, []string{"Vermeer", "Monet", "Goya", "Degas"}, questions[0].Options)
	assert.Equal(t, trivia.DifficultyHard, questions[0].Difficulty)
	assert.Equal(t, "https://img.example/q1.png", questions[0].ImageURL)
}

func TestFetchDropsMalformedRows(t *testing.T) {
	source := &stubRowSource{
		fetch: func(context.Context) ([][]string, error) {
			return [][]string{
				header,
				row("good"),
				{"too short", "answer", "w1"},
				{"dup options", "x", "x", "y", "z", trivia.DifficultyEasy},
				{"bad difficulty", "a", "b", "c", "d", "legendary"},
			}, nil
		},
	}
	service := NewService(source, nil, zerolog.Nop())

	count, err := service.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "malformed rows are dropped at ingestion")
	assert.Equal(t, "good", service.Questions()[0].Text)
}

func TestFetchFailureKeepsPreviousSet(t *testing.T) {
	healthy := true
	source := &stubRowSource{
		fetch: func(context.Context) ([][]string, error) {
			if !healthy {
				return nil, errors.New("dial tcp: connection refused")
			}
			return [][]string{header, row("q1")}, nil
		},
	}
	service := NewService(source, nil, zerolog.Nop())

	_, err := service.Fetch(context.Background())
	require.NoError(t, err)

	healthy = false
	_, err = service.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Len(t, service.Questions(), 1, "previous set stays in effect")
}

func TestFetchStoresGoodSetInCache(t *testing.T) {
	source := &stubRowSource{
		fetch: func(context.Context) ([][]string, error) {
			return [][]string{header, row("q1")}, nil
		},
	}
	cache := &memoryCache{}
	service := NewService(source, cache, zerolog.Nop())

	_, err := service.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.setCalls)
	assert.Len(t, cache.questions, 1)
}

func TestLoadCachedRestoresOnlyWhenEmpty(t *testing.T) {
	source := &stubRowSource{
		fetch: func(context.Context) ([][]string, error) {
			return [][]string{header, row("fresh")}, nil
		},
	}
	cache := &memoryCache{questions: []trivia.Question{{
		Text:       "cached",
		Answer:     "a",
		Options:    []string{"a", "b", "c", "d"},
		Difficulty: trivia.DifficultyEasy,
	}}}
	service := NewService(source, cache, zerolog.Nop())

	count, err := service.LoadCached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "cached", service.Questions()[0].Text)

	_, err = service.Fetch(context.Background())
	require.NoError(t, err)

	// A loaded set is never overwritten by the cache.
	count, err = service.LoadCached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "fresh", service.Questions()[0].Text)
}
