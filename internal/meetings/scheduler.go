package meetings

import (
	"time"

	"github.com/Vovarama1992/outreach-engine/internal/config"
)

// Overlaps reports whether [s1, e1) and [s2, e2) intersect. Half-open on
// both sides, so back-to-back meetings do not conflict.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// SuggestSlot finds the earliest conflict-free slot starting cfg.LeadDays
// from now, scanning hourly slots inside the business-hour window and
// skipping weekends. First fit wins; no global optimization. Pure: reads
// the given meetings, mutates nothing.
//
// The day advance is capped at cfg.MaxLookaheadDays; past that the search
// gives up with ErrNoAvailability instead of looping forever.
func SuggestSlot(existing []Meeting, now time.Time, cfg config.Scheduling) (time.Time, error) {
	duration := time.Duration(cfg.SlotDurationMinutes) * time.Minute

	day := now.AddDate(0, 0, cfg.LeadDays)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	d := nextBusinessDay(day)
	for i := 0; i <= cfg.MaxLookaheadDays; i++ {
		for hour := cfg.BusinessHourStart; hour < cfg.BusinessHourEnd; hour++ {
			start := d.Add(time.Duration(hour) * time.Hour)
			end := start.Add(duration)

			// Slot must fit inside the business window.
			if end.After(d.Add(time.Duration(cfg.BusinessHourEnd) * time.Hour)) {
				break
			}

			if !conflicts(existing, start, end) {
				return start, nil
			}
		}
		d = nextBusinessDay(d.AddDate(0, 0, 1))
	}
	return time.Time{}, ErrNoAvailability
}

func conflicts(existing []Meeting, start, end time.Time) bool {
	for _, m := range existing {
		if m.Status != StatusScheduled {
			continue
		}
		if Overlaps(start, end, m.StartTime, m.End()) {
			return true
		}
	}
	return false
}

// nextBusinessDay returns d unless it falls on a weekend, in which case the
// following Monday is returned.
func nextBusinessDay(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}
