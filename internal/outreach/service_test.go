package outreach

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Vovarama1992/outreach-engine/internal/ai"
	"github.com/Vovarama1992/outreach-engine/internal/config"
)

// stubRepo keeps everything in maps and can be told to fail per contact.
type stubRepo struct {
	mu          sync.Mutex
	contacts    map[string]Contact
	timelines   map[string][]Message
	failFetch   map[string]error
	fetchDelay  time.Duration
	onFetch     func()
	transitions []Transition
	updates     int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		contacts:  make(map[string]Contact),
		timelines: make(map[string][]Message),
		failFetch: make(map[string]error),
	}
}

func (r *stubRepo) addContact(id string, state EngagementState, stage OutreachStage, action NextAction, timeline []Message) {
	r.contacts[id] = Contact{ID: id, State: state, Stage: stage, NextAction: action}
	r.timelines[id] = timeline
}

func (r *stubRepo) ActiveContacts(context.Context) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Contact
	for _, c := range r.contacts {
		out = append(out, c)
	}
	return out, nil
}

func (r *stubRepo) Contact(_ context.Context, id string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (r *stubRepo) FetchTimeline(_ context.Context, id string) ([]Message, error) {
	if r.fetchDelay > 0 {
		time.Sleep(r.fetchDelay)
	}
	if r.onFetch != nil {
		r.onFetch()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFetch[id]; err != nil {
		return nil, err
	}
	tl, ok := r.timelines[id]
	if !ok {
		return nil, ErrNotFound
	}
	return tl, nil
}

func (r *stubRepo) UpdateState(_ context.Context, id string, state EngagementState, stage OutreachStage, action NextAction, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return ErrNotFound
	}
	c.State = state
	c.Stage = stage
	c.NextAction = action
	r.contacts[id] = c
	r.updates++
	return nil
}

func (r *stubRepo) LogTransition(_ context.Context, t Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
	return nil
}

func (r *stubRepo) Transitions(_ context.Context, id string) ([]Transition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Transition
	for _, t := range r.transitions {
		if t.ContactID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubRepo) ContactsByStage(_ context.Context, stage OutreachStage) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Contact
	for _, c := range r.contacts {
		if c.Stage == stage {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubDrafts struct {
	draft string
	calls int
}

func (d *stubDrafts) Draft(_ context.Context, _ []ai.Message, _ string) (string, error) {
	d.calls++
	return d.draft, nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Sweep.Parallelism = 4
	return cfg
}

func newTestService(repo Repo, now time.Time) *service {
	return &service{
		repo:   repo,
		drafts: &stubDrafts{draft: "hi again"},
		cfg:    func() config.Config { return testConfig() },
		now:    func() time.Time { return now },
	}
}

func TestRecalculateAllPersistsChanges(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.addContact("a", StateWaiting, StageWaiting, ActionWait, []Message{
		msg(DirectionOutgoing, now.Add(-10*time.Hour)),
	})

	svc := newTestService(repo, now)

	report, err := svc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll error = %v", err)
	}
	if report.Processed != 1 || report.Transitions != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 1 processed, 1 transition, 0 failed", report)
	}

	c, _ := repo.Contact(context.Background(), "a")
	if c.State != StateNoReply {
		t.Fatalf("stored state = %s, want %s", c.State, StateNoReply)
	}
	if len(repo.transitions) != 1 || repo.transitions[0].From != StateWaiting || repo.transitions[0].To != StateNoReply {
		t.Fatalf("transitions = %+v, want one WAITING->NO_REPLY", repo.transitions)
	}
}

func TestRecalculateAllIdempotentCycle(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.addContact("a", StateWaiting, StageWaiting, ActionWait, []Message{
		msg(DirectionOutgoing, now.Add(-10*time.Hour)),
	})

	svc := newTestService(repo, now)

	if _, err := svc.RecalculateAll(context.Background()); err != nil {
		t.Fatalf("first cycle error = %v", err)
	}
	report, err := svc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("second cycle error = %v", err)
	}
	if report.Transitions != 0 {
		t.Fatalf("second cycle transitions = %d, want 0", report.Transitions)
	}
	if len(repo.transitions) != 1 {
		t.Fatalf("transition log has %d entries, want 1", len(repo.transitions))
	}
}

func TestRecalculateAllConcurrentCallsLogOneTransition(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.fetchDelay = 10 * time.Millisecond
	repo.addContact("a", StateWaiting, StageWaiting, ActionWait, []Message{
		msg(DirectionOutgoing, now.Add(-10*time.Hour)),
	})

	svc := newTestService(repo, now)

	// A manual trigger racing the periodic sweep. Both must serialize:
	// whoever runs second recomputes against the stored NO_REPLY and
	// records nothing.
	var wg sync.WaitGroup
	var total int64
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := svc.RecalculateAll(context.Background())
			if err != nil {
				t.Errorf("RecalculateAll error = %v", err)
				return
			}
			atomic.AddInt64(&total, int64(report.Transitions))
		}()
	}
	wg.Wait()

	if total != 1 {
		t.Fatalf("reported transitions across both sweeps = %d, want 1", total)
	}
	if len(repo.transitions) != 1 {
		t.Fatalf("transition log has %d entries for one state change, want 1", len(repo.transitions))
	}
}

func TestRecalculateAllCompletesDespiteLateCancel(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.addContact("a", StateWaiting, StageWaiting, ActionWait, []Message{
		msg(DirectionOutgoing, now.Add(-10*time.Hour)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	// Cancellation lands while the last contact is in flight; the work
	// still finishes and the cycle must not be reported as aborted.
	repo.onFetch = cancel

	svc := newTestService(repo, now)

	report, err := svc.RecalculateAll(ctx)
	if err != nil {
		t.Fatalf("RecalculateAll error = %v, want nil for a drained cycle", err)
	}
	if report.Processed != 1 || report.Transitions != 1 {
		t.Fatalf("report = %+v, want the contact processed and persisted", report)
	}
}

func TestRecalculateAllIsolatesFailures(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.addContact("bad", StateWaiting, StageWaiting, ActionWait, nil)
	repo.addContact("good", StateWaiting, StageWaiting, ActionWait, []Message{
		msg(DirectionOutgoing, now.Add(-10*time.Hour)),
	})
	repo.failFetch["bad"] = errors.New("storage down")

	svc := newTestService(repo, now)

	report, err := svc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll error = %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("failed = %d, want 1", report.Failed)
	}

	c, _ := repo.Contact(context.Background(), "good")
	if c.State != StateNoReply {
		t.Fatalf("good contact state = %s, want %s despite the bad one", c.State, StateNoReply)
	}
}

func TestRecalculateContactNotFound(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.RecalculateContact(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestContactsByStageUnknownStage(t *testing.T) {
	repo := newStubRepo()
	repo.addContact("a", StateNoReply, StageNoReply, ActionWait, nil)
	svc := newTestService(repo, time.Now())

	out, err := svc.ContactsByStage(context.Background(), "TOTALLY_BOGUS")
	if err != nil {
		t.Fatalf("unknown stage must not error, got %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("unknown stage returned %d contacts, want 0", len(out))
	}
}

func TestContactsByStageKnownStage(t *testing.T) {
	repo := newStubRepo()
	repo.addContact("a", StateNoReply, StageNoReply, ActionWait, nil)
	repo.addContact("b", StateReplied, StageSetMeeting, ActionNone, nil)
	svc := newTestService(repo, time.Now())

	out, err := svc.ContactsByStage(context.Background(), "NO_REPLY")
	if err != nil {
		t.Fatalf("ContactsByStage error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("got %+v, want just contact a", out)
	}
}

func TestDraftFollowUpUsesGenerator(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.addContact("a", StateNoReply, StageNoReply, ActionWait, []Message{
		{Direction: DirectionOutgoing, Body: "hello there", SentAt: now.Add(-10 * time.Hour)},
	})

	drafts := &stubDrafts{draft: "just checking in"}
	svc := &service{
		repo:   repo,
		drafts: drafts,
		cfg:    func() config.Config { return testConfig() },
		now:    func() time.Time { return now },
	}

	out, err := svc.DraftFollowUp(context.Background(), "a")
	if err != nil {
		t.Fatalf("DraftFollowUp error = %v", err)
	}
	if out != "just checking in" {
		t.Fatalf("draft = %q", out)
	}
	if drafts.calls != 1 {
		t.Fatalf("generator called %d times, want 1", drafts.calls)
	}
}
