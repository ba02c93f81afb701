package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StateManager tracks which sets have already been acquired, so re-running
// a batch skips finished work.
type StateManager interface {
	IsAcquired(ctx context.Context, setNumber string) (bool, error)
	MarkAcquired(ctx context.Context, setNumber string) error
}

type redisStateManager struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStateManager(redisClient *redis.Client) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		keyPrefix:   "inventory:acquired:",
	}
}

func (s *redisStateManager) IsAcquired(ctx context.Context, setNumber string) (bool, error) {
	key := s.keyPrefix + setNumber
	_, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read acquisition state for set %s: %w", setNumber, err)
	}
	return true, nil
}

func (s *redisStateManager) MarkAcquired(ctx context.Context, setNumber string) error {
	key := s.keyPrefix + setNumber
	if err := s.redisClient.Set(ctx, key, "done", 0).Err(); err != nil { // No expiration
		return fmt.Errorf("failed to mark set %s acquired: %w", setNumber, err)
	}
	return nil
}
