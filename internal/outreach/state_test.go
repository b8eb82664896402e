package outreach

import (
	"errors"
	"testing"
	"time"

	"github.com/Vovarama1992/outreach-engine/internal/config"
)

var testThresholds = config.Thresholds{NoReplyHours: 8, FollowUpDays: 4}

func msg(dir Direction, at time.Time) Message {
	return Message{Direction: dir, SentAt: at}
}

func TestDetermineEmptyTimeline(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	d := Determine(nil, now, testThresholds)
	if d.State != StateCold {
		t.Fatalf("state = %s, want %s", d.State, StateCold)
	}
	if d.NextAction != ActionNone {
		t.Fatalf("next action = %s, want %s", d.NextAction, ActionNone)
	}
	if d.Stage != StageCold {
		t.Fatalf("stage = %s, want %s", d.Stage, StageCold)
	}
}

func TestDetermineIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	timeline := []Message{
		msg(DirectionOutgoing, now.Add(-30*time.Hour)),
		msg(DirectionIncoming, now.Add(-20*time.Hour)),
		msg(DirectionOutgoing, now.Add(-10*time.Hour)),
	}

	first := Determine(timeline, now, testThresholds)
	second := Determine(timeline, now, testThresholds)
	if first != second {
		t.Fatalf("two runs differ: %+v vs %+v", first, second)
	}
}

func TestDetermineNoReplyThreshold(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := []Message{msg(DirectionOutgoing, t0)}

	cases := []struct {
		name string
		now  time.Time
		want EngagementState
	}{
		{"just sent", t0, StateWaiting},
		{"one minute before threshold", t0.Add(8*time.Hour - time.Minute), StateWaiting},
		{"exactly at threshold", t0.Add(8 * time.Hour), StateNoReply},
		{"well past threshold", t0.Add(72 * time.Hour), StateNoReply},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Determine(timeline, tc.now, testThresholds)
			if d.State != tc.want {
				t.Fatalf("state at %s = %s, want %s", tc.now.Sub(t0), d.State, tc.want)
			}
		})
	}
}

func TestDetermineReplyPrecedence(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := []Message{
		msg(DirectionOutgoing, t0),
		msg(DirectionIncoming, t0.Add(time.Second)),
	}

	// Elapsed hours are irrelevant once they replied.
	d := Determine(timeline, t0.Add(300*time.Hour), testThresholds)
	if d.State != StateReplied {
		t.Fatalf("state = %s, want %s", d.State, StateReplied)
	}
	if d.Stage != StageSetMeeting {
		t.Fatalf("stage = %s, want %s", d.Stage, StageSetMeeting)
	}
}

func TestDetermineEqualTimestampsFavorNoReply(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := []Message{
		msg(DirectionOutgoing, t0),
		msg(DirectionIncoming, t0),
	}

	d := Determine(timeline, t0.Add(9*time.Hour), testThresholds)
	if d.State != StateNoReply {
		t.Fatalf("state = %s, want %s (tie must favor no-reply)", d.State, StateNoReply)
	}
}

func TestDetermineLatestOutgoingAnchorsTimers(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	timeline := []Message{
		msg(DirectionOutgoing, now.Add(-200*time.Hour)),
		msg(DirectionOutgoing, now.Add(-2*time.Hour)),
	}

	d := Determine(timeline, now, testThresholds)
	if d.State != StateWaiting {
		t.Fatalf("state = %s, want %s (earlier outgoing is superseded)", d.State, StateWaiting)
	}
	if d.NextAction != ActionWait {
		t.Fatalf("next action = %s, want %s", d.NextAction, ActionWait)
	}
}

func TestDetermineIncomingOnlyTimeline(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	timeline := []Message{msg(DirectionIncoming, now.Add(-time.Hour))}

	d := Determine(timeline, now, testThresholds)
	if d.State != StateReplied {
		t.Fatalf("state = %s, want %s", d.State, StateReplied)
	}
}

func TestDetermineIgnoresZeroTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	timeline := []Message{
		{Direction: DirectionIncoming}, // malformed, no timestamp
		msg(DirectionOutgoing, now.Add(-time.Hour)),
	}

	d := Determine(timeline, now, testThresholds)
	if d.State != StateWaiting {
		t.Fatalf("state = %s, want %s", d.State, StateWaiting)
	}
}

func TestDetermineFollowUpCadence(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := []Message{msg(DirectionOutgoing, t0)}

	cases := []struct {
		name       string
		now        time.Time
		wantState  EngagementState
		wantAction NextAction
		wantStage  OutreachStage
	}{
		{"day 0", t0.Add(2 * time.Hour), StateWaiting, ActionWait, StageWaiting},
		{"day 1, past hours threshold", t0.Add(26 * time.Hour), StateNoReply, ActionWait, StageNoReply},
		{"day 4", t0.Add(4 * 24 * time.Hour), StateNoReply, ActionFollowUp1, StageFollowUp1},
		{"day 7", t0.Add(7 * 24 * time.Hour), StateNoReply, ActionFollowUp1, StageFollowUp1},
		{"day 8", t0.Add(8 * 24 * time.Hour), StateNoReply, ActionFollowUp2, StageFollowUp2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Determine(timeline, tc.now, testThresholds)
			if d.State != tc.wantState || d.NextAction != tc.wantAction || d.Stage != tc.wantStage {
				t.Fatalf("got (%s, %s, %s), want (%s, %s, %s)",
					d.State, d.NextAction, d.Stage,
					tc.wantState, tc.wantAction, tc.wantStage)
			}
		})
	}
}

func TestValidateTimeline(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	good := []Message{
		msg(DirectionOutgoing, now.Add(-2*time.Hour)),
		{Direction: DirectionIncoming}, // zero timestamp is tolerated
	}
	if err := ValidateTimeline(good); err != nil {
		t.Fatalf("ValidateTimeline error = %v, want nil", err)
	}

	bad := []Message{msg(Direction("sideways"), now)}
	if err := ValidateTimeline(bad); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestValidStage(t *testing.T) {
	if !ValidStage("SET_MEETING") {
		t.Fatal("SET_MEETING should be valid")
	}
	if ValidStage("NOT_A_STAGE") {
		t.Fatal("NOT_A_STAGE should be invalid")
	}
	if ValidStage("") {
		t.Fatal("empty stage should be invalid")
	}
}
