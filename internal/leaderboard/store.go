package leaderboard

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// maxEntries caps the board at the top ten results.
const maxEntries = 10

// Slot is the single named storage slot holding the serialized leaderboard.
// Load returns (nil, nil) for an absent slot; Save overwrites wholesale.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Store keeps the ranked score history in memory and mirrors every change
// into its slot. Persistence is best-effort: an unwritable slot degrades to
// in-memory only, it never fails the session.
type Store struct {
	slot  Slot
	clock func() time.Time

	mu      sync.Mutex
	entries domain.Leaderboard
}

func NewStore(slot Slot) *Store {
	return &Store{slot: slot, clock: time.Now}
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(slot Slot, now func() time.Time) *Store {
	return &Store{slot: slot, clock: now}
}

// Load reads the persisted board. An absent or unparsable slot yields an
// empty board, never an error.
func (s *Store) Load(ctx context.Context) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.slot.Load(ctx)
	if err != nil {
		log.Printf("leaderboard: load failed, starting empty: %v", err)
		s.entries = nil
		return nil
	}
	if len(data) == 0 {
		s.entries = nil
		return nil
	}

	var entries domain.Leaderboard
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("leaderboard: corrupt slot, starting empty: %v", err)
		s.entries = nil
		return nil
	}
	s.entries = entries
	return s.snapshotLocked()
}

// Record inserts one completed-session entry, re-ranks by percentage
// descending with stable tie order, caps the board at ten entries, persists
// the full result, and returns it.
func (s *Store) Record(ctx context.Context, entry domain.LeaderboardEntry) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = s.clock()
	}

	s.entries = append(s.entries, entry)
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].Percentage > s.entries[j].Percentage
	})
	if len(s.entries) > maxEntries {
		s.entries = s.entries[:maxEntries]
	}

	if data, err := json.Marshal(s.entries); err == nil {
		if err := s.slot.Save(ctx, data); err != nil {
			log.Printf("leaderboard: persist failed, keeping in-memory board: %v", err)
		}
	}

	return s.snapshotLocked()
}

// Entries returns the current board without touching the slot.
func (s *Store) Entries() domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Leaderboard {
	out := make(domain.Leaderboard, len(s.entries))
	copy(out, s.entries)
	return out
}
