package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

// OutboxRepository persists the offline action queue in a Redis list so it
// survives process restarts. Head of the list is the oldest action.
type OutboxRepository struct {
	client *redis.Client
	key    string
}

// NewOutboxRepository constructs the repository.
func NewOutboxRepository(client *redis.Client, key string) *OutboxRepository {
	if key == "" {
		key = "outbox:actions"
	}
	return &OutboxRepository{client: client, key: key}
}

// Append adds an action to the tail of the queue.
func (r *OutboxRepository) Append(ctx context.Context, action *models.QueuedAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	if action.EnqueuedAt.IsZero() {
		action.EnqueuedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal queued action: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, raw).Err(); err != nil {
		return fmt.Errorf("append queued action: %w", err)
	}
	return nil
}

// Peek returns the oldest queued action without removing it, or nil when the
// queue is empty.
func (r *OutboxRepository) Peek(ctx context.Context) (*models.QueuedAction, error) {
	raw, err := r.client.LIndex(ctx, r.key, 0).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("peek queued action: %w", err)
	}
	var action models.QueuedAction
	if err := json.Unmarshal(raw, &action); err != nil {
		return nil, fmt.Errorf("unmarshal queued action: %w", err)
	}
	return &action, nil
}

// RemoveHead drops the oldest action. Called only after the action's effect
// has been applied or it failed with a non-retryable business error.
func (r *OutboxRepository) RemoveHead(ctx context.Context) error {
	if err := r.client.LPop(ctx, r.key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("remove queued action: %w", err)
	}
	return nil
}

// Len reports the number of queued actions.
func (r *OutboxRepository) Len(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("count queued actions: %w", err)
	}
	return int(n), nil
}

// All returns the queued actions in replay order.
func (r *OutboxRepository) All(ctx context.Context) ([]models.QueuedAction, error) {
	raws, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list queued actions: %w", err)
	}
	actions := make([]models.QueuedAction, 0, len(raws))
	for _, raw := range raws {
		var action models.QueuedAction
		if err := json.Unmarshal([]byte(raw), &action); err != nil {
			return nil, fmt.Errorf("unmarshal queued action: %w", err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}
