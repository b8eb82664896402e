package outreach

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vovarama1992/outreach-engine/internal/ai"
	"github.com/Vovarama1992/outreach-engine/internal/config"
)

type service struct {
	repo   Repo
	drafts ai.DraftGenerator
	cfg    func() config.Config
	now    func() time.Time

	// Serializes full sweeps across every entry point (timer, HTTP
	// trigger, CLI). Two concurrent cycles would read the same stored
	// state and log the same transition twice.
	sweepMu sync.Mutex
}

func NewService(repo Repo, drafts ai.DraftGenerator, cfg func() config.Config) Service {
	return &service{
		repo:   repo,
		drafts: drafts,
		cfg:    cfg,
		now:    time.Now,
	}
}

// RecalculateAll runs one sweep over every active contact. The config and
// clock are snapshotted once so every contact in the cycle is judged against
// the same thresholds and the same "now". One contact failing never aborts
// the rest of the cycle.
//
// Sweeps never overlap: a second caller queues behind the running cycle and
// then recomputes against the freshly stored state, which yields zero extra
// transitions.
func (s *service) RecalculateAll(ctx context.Context) (SweepReport, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	cfg := s.cfg()
	now := s.now()

	contacts, err := s.repo.ActiveContacts(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list active contacts: %w", err)
	}

	var report SweepReport
	results := make([]sweepResult, len(contacts))

	g := new(errgroup.Group)
	if n := cfg.Sweep.Parallelism; n > 0 {
		g.SetLimit(n)
	}
	for i := range contacts {
		i := i
		g.Go(func() error {
			cctx := ctx
			if cfg.Sweep.ContactTimeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, cfg.Sweep.ContactTimeout)
				defer cancel()
			}
			_, changed, err := s.recalculateOne(cctx, contacts[i], now, cfg.Thresholds)
			results[i] = sweepResult{changed: changed, err: err}
			// Errors are isolated per contact; never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		report.Processed++
		if res.err != nil {
			report.Failed++
			log.Printf("[worker] contact %s skipped: %v", contacts[i].ID, res.err)
			continue
		}
		if res.changed {
			report.Transitions++
		}
	}
	// A cancellation that lands mid-cycle already shows up as failed
	// contacts; once the loop has drained, the cycle completed and is
	// reported as such.
	return report, nil
}

type sweepResult struct {
	changed bool
	err     error
}

// recalculateOne recomputes a single contact and persists the decision when
// it differs from the stored cache. State and stage are written together so
// a cancelled cycle never leaves a half-applied contact.
func (s *service) recalculateOne(ctx context.Context, c Contact, now time.Time, th config.Thresholds) (Decision, bool, error) {
	timeline, err := s.repo.FetchTimeline(ctx, c.ID)
	if err != nil {
		return Decision{}, false, fmt.Errorf("fetch timeline: %w", err)
	}

	d := Determine(timeline, now, th)
	if d.State == c.State && d.Stage == c.Stage && d.NextAction == c.NextAction {
		return d, false, nil
	}

	if err := s.repo.UpdateState(ctx, c.ID, d.State, d.Stage, d.NextAction, now); err != nil {
		return d, false, fmt.Errorf("persist state: %w", err)
	}
	if d.State != c.State {
		t := Transition{ContactID: c.ID, From: c.State, To: d.State, At: now}
		if err := s.repo.LogTransition(ctx, t); err != nil {
			return d, true, fmt.Errorf("log transition: %w", err)
		}
		log.Printf("[worker] contact %s: %s -> %s", c.ID, t.From, t.To)
	}
	return d, true, nil
}

// RecalculateContact is the on-demand entry point for a single contact.
func (s *service) RecalculateContact(ctx context.Context, contactID string) (Decision, error) {
	cfg := s.cfg()
	now := s.now()

	c, err := s.repo.Contact(ctx, contactID)
	if err != nil {
		return Decision{}, err
	}

	d, _, err := s.recalculateOne(ctx, c, now, cfg.Thresholds)
	if err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (s *service) ContactsByStage(ctx context.Context, stage string) ([]Contact, error) {
	// Unknown stage values are a valid query with an empty answer.
	if !ValidStage(stage) {
		return []Contact{}, nil
	}
	return s.repo.ContactsByStage(ctx, OutreachStage(stage))
}

func (s *service) Transitions(ctx context.Context, contactID string) ([]Transition, error) {
	return s.repo.Transitions(ctx, contactID)
}

// DraftFollowUp asks the AI collaborator for a follow-up message matching the
// contact's current position in the cadence.
func (s *service) DraftFollowUp(ctx context.Context, contactID string) (string, error) {
	cfg := s.cfg()
	timeline, err := s.repo.FetchTimeline(ctx, contactID)
	if err != nil {
		return "", err
	}

	d := Determine(timeline, s.now(), cfg.Thresholds)

	history := make([]ai.Message, 0, len(timeline))
	for _, m := range timeline {
		role := "user"
		if m.Direction == DirectionOutgoing {
			role = "assistant"
		}
		history = append(history, ai.Message{Role: role, Text: m.Body})
	}

	return s.drafts.Draft(ctx, history, string(d.NextAction))
}
