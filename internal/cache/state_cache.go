package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// Processing states of the summarize pipeline, as observed per document.
const (
	StateQueued      = "queued"
	StateSummarizing = "summarizing"
	StateSummarized  = "summarized"
	StateFailed      = "failed"
)

// StateCache makes the background summarization progress of a document
// observable. Best effort: callers tolerate a missing state.
type StateCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewStateCache(client *redisv9.Client, ttl time.Duration) *StateCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StateCache{client: client, ttl: ttl}
}

func (c *StateCache) SetState(ctx context.Context, documentID uint, state string) error {
	if err := c.client.Set(ctx, c.key(documentID), state, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set processing state failed: %w", err)
	}
	return nil
}

func (c *StateCache) GetState(ctx context.Context, documentID uint) (string, bool, error) {
	state, err := c.client.Get(ctx, c.key(documentID)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get processing state failed: %w", err)
	}
	return state, true, nil
}

func (c *StateCache) key(documentID uint) string {
	return fmt.Sprintf("doc:summary:state:%d", documentID)
}
