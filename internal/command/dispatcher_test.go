package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmiox/trivia-bot/internal/gateway"
	"github.com/harmiox/trivia-bot/internal/question"
	"github.com/harmiox/trivia-bot/internal/trivia"
)

type noopWindow struct {
	events chan gateway.Response
}

func (w *noopWindow) Events() <-chan gateway.Response { return w.events }
func (w *noopWindow) Cancel()                         {}

type noopGateway struct{}

func (noopGateway) PostMessage(_ context.Context, channel, _ string) (gateway.MessageRef, error) {
	return gateway.MessageRef{ID: uuid.New(), Channel: channel}, nil
}

func (noopGateway) PostEmbed(_ context.Context, channel string, _ gateway.Embed) (gateway.MessageRef, error) {
	return gateway.MessageRef{ID: uuid.New(), Channel: channel}, nil
}

func (noopGateway) OpenResponseWindow(context.Context, gateway.MessageRef, []string, time.Duration) (gateway.ResponseWindow, error) {
	return &noopWindow{events: make(chan gateway.Response, 1)}, nil
}

type scriptedSource struct {
	rows [][]string
	err  error
}

func (s *scriptedSource) FetchRows(context.Context) ([][]string, error) {
	return s.rows, s.err
}

func newDispatcher(source question.RowSource) *Dispatcher {
	registry := trivia.NewRegistry(noopGateway{}, trivia.DefaultRules(), zerolog.Nop())
	questions := question.NewService(source, nil, zerolog.Nop())
	return NewDispatcher(registry, questions, zerolog.Nop())
}

func TestStartWithoutQuestionsAsksForFetch(t *testing.T) {
	d := newDispatcher(&scriptedSource{})
	reply := d.Dispatch(context.Background(), "channel-1", "u1", "alice", "start")
	assert.Equal(t, "No questions are loaded yet. Run the fetch command first.", reply)
}

func TestFetchThenStart(t *testing.T) {
	source := &scriptedSource{rows: [][]string{
		{"Question", "Answer", "Wrong 1", "Wrong 2", "Wrong 3", "Difficulty", "Image"},
		{"q1", "a1", "b1", "c1", "d1", trivia.DifficultyEasy, ""},
	}}
	d := newDispatcher(source)

	reply := d.Dispatch(context.Background(), "channel-1", "u1", "alice", "fetch")
	assert.Equal(t, "**1** questions have successfully been fetched and loaded.", reply)

	reply = d.Dispatch(context.Background(), "channel-1", "u1", "alice", "start")
	assert.Empty(t, reply, "a successful start posts nothing through the dispatcher")

	reply = d.Dispatch(context.Background(), "channel-1", "u2", "bob", "start")
	assert.Equal(t, "A trivia game has already been started in this channel.", reply)
}

func TestFetchFailureReportsError(t *testing.T) {
	d := newDispatcher(&scriptedSource{err: errors.New("503 service unavailable")})
	reply := d.Dispatch(context.Background(), "channel-1", "u1", "alice", "fetch")
	assert.Equal(t, "An internal error occurred when trying to fetch the questions from the database.", reply)
}

func TestUnknownCommandsAreSilent(t *testing.T) {
	d := newDispatcher(&scriptedSource{})
	assert.Empty(t, d.Dispatch(context.Background(), "channel-1", "u1", "alice", "help"))
	assert.Empty(t, d.Dispatch(context.Background(), "channel-1", "u1", "alice", ""))
	assert.Empty(t, d.Dispatch(context.Background(), "channel-1", "u1", "alice", "   "))
}

func TestCommandNameIsCaseInsensitive(t *testing.T) {
	source := &scriptedSource{rows: [][]string{
		{"Question", "Answer", "Wrong 1", "Wrong 2", "Wrong 3", "Difficulty", "Image"},
		{"q1", "a1", "b1", "c1", "d1", trivia.DifficultyEasy, ""},
	}}
	d := newDispatcher(source)
	reply := d.Dispatch(context.Background(), "channel-1", "u1", "alice", "FETCH")
	require.Equal(t, "**1** questions have successfully been fetched and loaded.", reply)
}
