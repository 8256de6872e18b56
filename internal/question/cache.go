package question

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/harmiox/trivia-bot/internal/trivia"
)

// Cache stores the last successfully fetched question set in Redis so a
// restarted process can serve trivia while the spreadsheet is unreachable.
// Entries have no TTL: the newest good set always replaces the previous one.
type Cache struct {
	client *redis.Client
	key    string
}

var _ SetCache = (*Cache)(nil)

// NewCache creates a Redis-backed question-set cache scoped to one
// spreadsheet.
func NewCache(client *redis.Client, spreadsheetID string) *Cache {
	return &Cache{
		client: client,
		key:    fmt.Sprintf("questions:%s", spreadsheetID),
	}
}

// Get returns the cached set, or nil when none is stored.
func (c *Cache) Get(ctx context.Context) ([]trivia.Question, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var questions []trivia.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Set replaces the cached set.
func (c *Cache) Set(ctx context.Context, questions []trivia.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, data, 0).Err()
}
