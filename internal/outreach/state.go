package outreach

import (
	"fmt"
	"time"

	"github.com/Vovarama1992/outreach-engine/internal/config"
)

// Decision is the full output of one determiner run.
type Decision struct {
	State      EngagementState
	Stage      OutreachStage
	NextAction NextAction
}

// Determine computes the engagement state for a timeline at a given instant.
// Pure: same timeline + same now => same decision. The stored state is never
// an input — it is a cache of this function.
//
// The hour-based state and the day-based next action are independent axes:
// a contact can be NO_REPLY (past the no-reply window) while the follow-up
// cadence still says WAIT.
func Determine(timeline []Message, now time.Time, cfg config.Thresholds) Decision {
	lastOut, lastIn := lastByDirection(timeline)

	if lastOut == nil {
		if lastIn == nil {
			return Decision{State: StateCold, Stage: StageCold, NextAction: ActionNone}
		}
		// They wrote first; nothing is pending on our side.
		return Decision{State: StateReplied, Stage: StageSetMeeting, NextAction: ActionNone}
	}

	// An incoming message at the exact same instant does not count as a
	// reply: the tie favors no-reply.
	if lastIn != nil && lastIn.SentAt.After(lastOut.SentAt) {
		return Decision{State: StateReplied, Stage: StageSetMeeting, NextAction: ActionNone}
	}

	elapsed := now.Sub(lastOut.SentAt)

	state := StateWaiting
	if elapsed >= time.Duration(cfg.NoReplyHours)*time.Hour {
		state = StateNoReply
	}

	action := ActionWait
	days := int(elapsed.Hours()) / 24
	switch {
	case cfg.FollowUpDays > 0 && days >= 2*cfg.FollowUpDays:
		action = ActionFollowUp2
	case cfg.FollowUpDays > 0 && days >= cfg.FollowUpDays:
		action = ActionFollowUp1
	}

	return Decision{State: state, Stage: projectStage(state, action), NextAction: action}
}

// lastByDirection returns the most recent outgoing message and the most
// recent incoming message. Messages with a zero timestamp are malformed and
// ignored; ordering is taken from timestamps, not slice position, so an
// unsorted timeline is still handled.
func lastByDirection(timeline []Message) (lastOut, lastIn *Message) {
	for i := range timeline {
		m := &timeline[i]
		if m.SentAt.IsZero() {
			continue
		}
		switch m.Direction {
		case DirectionOutgoing:
			if lastOut == nil || m.SentAt.After(lastOut.SentAt) {
				lastOut = m
			}
		case DirectionIncoming:
			if lastIn == nil || m.SentAt.After(lastIn.SentAt) {
				lastIn = m
			}
		}
	}
	return lastOut, lastIn
}

// projectStage maps (state, nextAction) to the UI-facing stage. Stage is
// never stored independently.
func projectStage(state EngagementState, action NextAction) OutreachStage {
	switch action {
	case ActionFollowUp1:
		return StageFollowUp1
	case ActionFollowUp2:
		return StageFollowUp2
	}
	switch state {
	case StateCold:
		return StageCold
	case StateReplied:
		return StageSetMeeting
	case StateNoReply:
		return StageNoReply
	case StateFollowUp1:
		return StageFollowUp1
	case StateFollowUp2:
		return StageFollowUp2
	default:
		return StageWaiting
	}
}

// ValidateTimeline rejects rows the determiner has no reading for: an
// unknown direction means the row is corrupt, not merely incomplete. Zero
// timestamps stay tolerated; Determine skips them.
func ValidateTimeline(timeline []Message) error {
	for _, m := range timeline {
		switch m.Direction {
		case DirectionIncoming, DirectionOutgoing:
		default:
			return fmt.Errorf("%w: unknown direction %q", ErrValidation, m.Direction)
		}
	}
	return nil
}

// ValidStage reports whether s names a known stage. Unknown stages filter to
// an empty result rather than an error.
func ValidStage(s string) bool {
	switch OutreachStage(s) {
	case StageCold, StageWaiting, StageNoReply, StageSetMeeting,
		StageFollowUp1, StageFollowUp2, StagePrepareMeeting:
		return true
	}
	return false
}
