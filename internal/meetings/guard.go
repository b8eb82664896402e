package meetings

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BookingGuard is the sole mutation point for meetings. All booking attempts
// for one owner are serialized through a per-owner mutex before the store's
// own transactional overlap check; attempts for different owners proceed in
// parallel. Exactly one of two concurrent requests for overlapping slots can
// succeed.
type BookingGuard struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBookingGuard(store Store) *BookingGuard {
	return &BookingGuard{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (g *BookingGuard) ownerLock(ownerID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[ownerID] = l
	}
	return l
}

// Book re-reads the owner's scheduled meetings under the lock, rejects an
// overlapping proposal with ErrConflict, and inserts otherwise. The store's
// InsertScheduled repeats the overlap check inside its own transaction, so
// the guard stays correct even when several processes share the database.
func (g *BookingGuard) Book(ctx context.Context, ownerID string, start time.Time, duration time.Duration) (Meeting, error) {
	if ownerID == "" {
		return Meeting{}, fmt.Errorf("meetings: empty owner id")
	}
	if duration <= 0 {
		return Meeting{}, fmt.Errorf("meetings: non-positive duration")
	}

	l := g.ownerLock(ownerID)
	l.Lock()
	defer l.Unlock()

	existing, err := g.store.ListMeetings(ctx, ownerID, StatusScheduled)
	if err != nil {
		return Meeting{}, fmt.Errorf("list meetings: %w", err)
	}
	if conflicts(existing, start, start.Add(duration)) {
		return Meeting{}, ErrConflict
	}

	return g.store.InsertScheduled(ctx, ownerID, start, duration)
}
