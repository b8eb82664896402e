package outreach

import (
	"context"
	"errors"
	"time"
)

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Message is one entry in a contact's timeline. Immutable once recorded.
type Message struct {
	ID        int64
	ContactID string
	Direction Direction
	Body      string
	SentAt    time.Time
}

type EngagementState string

const (
	StateCold      EngagementState = "COLD"
	StateWaiting   EngagementState = "WAITING"
	StateNoReply   EngagementState = "NO_REPLY"
	StateReplied   EngagementState = "REPLIED"
	StateFollowUp1 EngagementState = "FOLLOW_UP_1"
	StateFollowUp2 EngagementState = "FOLLOW_UP_2"
)

type OutreachStage string

const (
	StageCold           OutreachStage = "COLD"
	StageWaiting        OutreachStage = "WAITING"
	StageNoReply        OutreachStage = "NO_REPLY"
	StageSetMeeting     OutreachStage = "SET_MEETING"
	StageFollowUp1      OutreachStage = "FOLLOW_UP_MEETING_1"
	StageFollowUp2      OutreachStage = "FOLLOW_UP_MEETING_2"
	StagePrepareMeeting OutreachStage = "PREPARE_MEETING"
)

type NextAction string

const (
	ActionNone      NextAction = "NONE"
	ActionWait      NextAction = "WAIT"
	ActionFollowUp1 NextAction = "FOLLOW_UP_1"
	ActionFollowUp2 NextAction = "FOLLOW_UP_2"
)

// Contact's state/stage are caches of Determine over the timeline; the
// timeline is the source of truth.
type Contact struct {
	ID         string
	Name       string
	State      EngagementState
	Stage      OutreachStage
	NextAction NextAction
	UpdatedAt  time.Time
}

// Transition is one persisted state change, kept for audit.
type Transition struct {
	ContactID string
	From      EngagementState
	To        EngagementState
	At        time.Time
}

var (
	ErrNotFound   = errors.New("outreach: contact not found")
	ErrValidation = errors.New("outreach: invalid timeline")
)

// Repo — persistence
type Repo interface {
	ActiveContacts(ctx context.Context) ([]Contact, error)
	Contact(ctx context.Context, contactID string) (Contact, error)
	FetchTimeline(ctx context.Context, contactID string) ([]Message, error)
	UpdateState(ctx context.Context, contactID string, state EngagementState, stage OutreachStage, action NextAction, at time.Time) error
	LogTransition(ctx context.Context, t Transition) error
	Transitions(ctx context.Context, contactID string) ([]Transition, error)
	ContactsByStage(ctx context.Context, stage OutreachStage) ([]Contact, error)
}

// Service — orchestration over Repo + the pure determiner.
type Service interface {
	RecalculateAll(ctx context.Context) (SweepReport, error)
	RecalculateContact(ctx context.Context, contactID string) (Decision, error)
	ContactsByStage(ctx context.Context, stage string) ([]Contact, error)
	Transitions(ctx context.Context, contactID string) ([]Transition, error)
	DraftFollowUp(ctx context.Context, contactID string) (string, error)
}

// SweepReport summarizes one recalculation cycle.
type SweepReport struct {
	Processed   int
	Transitions int
	Failed      int
}
