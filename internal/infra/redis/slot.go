package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/domain"
)

// DefaultKey is the slot key used when none is configured.
const DefaultKey = "quiz:leaderboard"

// Slot stores the serialized leaderboard under a single Redis key.
type Slot struct {
	client *redis.Client
	key    string
}

func NewSlot(client *redis.Client, key string) *Slot {
	if key == "" {
		key = DefaultKey
	}
	return &Slot{client: client, key: key}
}

func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return data, nil
}

func (s *Slot) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
