package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/domain"
)

// DefaultSlotName keys the leaderboard row when none is configured.
const DefaultSlotName = "default"

// Slot stores the serialized leaderboard as one jsonb row keyed by slot
// name. The schema comes from the bun migrations in this package's
// migrations subdirectory.
type Slot struct {
	pool *pgxpool.Pool
	name string
}

func NewSlot(pool *pgxpool.Pool, name string) *Slot {
	if name == "" {
		name = DefaultSlotName
	}
	return &Slot{pool: pool, name: name}
}

func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM leaderboards WHERE slot=$1`, s.name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return data, nil
}

func (s *Slot) Save(ctx context.Context, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leaderboards (slot, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (slot) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		s.name, string(data))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
