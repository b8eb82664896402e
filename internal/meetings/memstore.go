package meetings

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a Store backed by a map, for tests and local experiments.
type MemoryStore struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]Meeting
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{meetings: make(map[uuid.UUID]Meeting)}
}

func (s *MemoryStore) ListMeetings(_ context.Context, ownerID string, status Status) ([]Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Meeting
	for _, m := range s.meetings {
		if m.OwnerID == ownerID && m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

// InsertScheduled holds the store lock across the recheck and the insert, so
// it is atomic with respect to concurrent bookings.
func (s *MemoryStore) InsertScheduled(_ context.Context, ownerID string, start time.Time, duration time.Duration) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := start.Add(duration)
	for _, m := range s.meetings {
		if m.OwnerID != ownerID || m.Status != StatusScheduled {
			continue
		}
		if Overlaps(start, end, m.StartTime, m.End()) {
			return Meeting{}, ErrConflict
		}
	}

	m := Meeting{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		StartTime: start,
		Duration:  duration,
		Status:    StatusScheduled,
		CreatedAt: time.Now(),
	}
	s.meetings[m.ID] = m
	return m, nil
}

func (s *MemoryStore) Cancel(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok || m.Status != StatusScheduled {
		return ErrNotFound
	}
	m.Status = StatusCancelled
	s.meetings[id] = m
	return nil
}
