package meetings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Meeting times are never edited in place; rescheduling is cancel + create,
// so the audit history survives.
type Meeting struct {
	ID        uuid.UUID
	OwnerID   string
	StartTime time.Time
	Duration  time.Duration
	Status    Status
	CreatedAt time.Time
}

func (m Meeting) End() time.Time {
	return m.StartTime.Add(m.Duration)
}

var (
	ErrConflict       = errors.New("meetings: slot already taken")
	ErrNotFound       = errors.New("meetings: meeting not found")
	ErrNoAvailability = errors.New("meetings: no free slot within lookahead window")
)

// Store — persistence. InsertScheduled must be atomic with respect to other
// inserts for the same owner: it rechecks the overlap inside its own
// serialization boundary and returns ErrConflict on collision.
type Store interface {
	ListMeetings(ctx context.Context, ownerID string, status Status) ([]Meeting, error)
	InsertScheduled(ctx context.Context, ownerID string, start time.Time, duration time.Duration) (Meeting, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

// Service — booking orchestration.
type Service interface {
	Suggest(ctx context.Context, ownerID string) (time.Time, time.Duration, error)
	Book(ctx context.Context, ownerID string, start time.Time, duration time.Duration) (Meeting, error)
	BookNext(ctx context.Context, ownerID string) (Meeting, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}
