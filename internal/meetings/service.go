package meetings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Vovarama1992/outreach-engine/internal/config"
)

type service struct {
	store Store
	guard *BookingGuard
	cfg   func() config.Config
	now   func() time.Time
}

func NewService(store Store, guard *BookingGuard, cfg func() config.Config) Service {
	return &service{
		store: store,
		guard: guard,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Suggest proposes the next free slot for the owner. Read-only; the proposal
// is not reserved and may be lost to a concurrent booking.
func (s *service) Suggest(ctx context.Context, ownerID string) (time.Time, time.Duration, error) {
	cfg := s.cfg().Scheduling

	existing, err := s.store.ListMeetings(ctx, ownerID, StatusScheduled)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("list meetings: %w", err)
	}

	start, err := SuggestSlot(existing, s.now(), cfg)
	if err != nil {
		return time.Time{}, 0, err
	}
	return start, time.Duration(cfg.SlotDurationMinutes) * time.Minute, nil
}

func (s *service) Book(ctx context.Context, ownerID string, start time.Time, duration time.Duration) (Meeting, error) {
	return s.guard.Book(ctx, ownerID, start, duration)
}

// BookNext suggests and books in one call, retrying with refreshed meeting
// data when a concurrent booking steals the proposed slot. Retries are
// bounded; conflicts past the budget surface as ErrConflict.
func (s *service) BookNext(ctx context.Context, ownerID string) (Meeting, error) {
	cfg := s.cfg().Scheduling

	retries := cfg.BookRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		start, duration, err := s.Suggest(ctx, ownerID)
		if err != nil {
			return Meeting{}, err
		}

		m, err := s.guard.Book(ctx, ownerID, start, duration)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Meeting{}, err
		}
		lastErr = err
		log.Printf("[meetings] owner %s lost slot %s, retrying", ownerID, start.Format(time.RFC3339))
	}
	return Meeting{}, lastErr
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.store.Cancel(ctx, id)
}
