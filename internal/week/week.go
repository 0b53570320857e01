// Package week computes the Thursday-to-Wednesday cinema week and decides
// whether a scraped schedule covers it.
package week

import (
	"time"

	"ovtracker/internal/schedule"
)

// DateLayout formats week starts in the publish state.
const DateLayout = "2006-01-02"

// Window is a cinema week. Start is Thursday 00:00 and End is the following
// Thursday 00:00, both in the cinema location.
type Window struct {
	Start time.Time
	End   time.Time
}

// Compute returns the publishable week for now in loc. Thursday to Sunday map
// to the running week; Monday to Wednesday look ahead to the next Thursday.
func Compute(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = now.Location()
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	offset := (int(local.Weekday()) - int(time.Thursday) + 7) % 7
	var start time.Time
	switch local.Weekday() {
	case time.Monday, time.Tuesday, time.Wednesday:
		start = midnight.AddDate(0, 0, 7-offset)
	default:
		start = midnight.AddDate(0, 0, -offset)
	}
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// Last returns the inclusive end of the window: Wednesday 23:59:59.999999999.
func (w Window) Last() time.Time {
	return w.End.Add(-time.Nanosecond)
}

// Horizon is the earliest instant the schedule must reach for the week to be
// complete: Wednesday 00:00.
func (w Window) Horizon() time.Time {
	return w.End.AddDate(0, 0, -1)
}

// Contains reports whether t lies in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Key returns the state key for the window, e.g. "2026-01-15".
func (w Window) Key() string {
	return w.Start.Format(DateLayout)
}

// Select returns the sessions starting inside w, preserving order.
func (w Window) Select(sessions []schedule.Session) []schedule.Session {
	var out []schedule.Session
	for _, s := range sessions {
		if w.Contains(s.Start) {
			out = append(out, s)
		}
	}
	return out
}

// Complete reports whether the schedule reaches the window's Wednesday.
// Pass every parsed session, not a filtered subset: the question is how far
// the upstream schedule extends, regardless of what is shown.
func Complete(all []schedule.Session, w Window) bool {
	latest, ok := schedule.Latest(all)
	if !ok {
		return false
	}
	return !latest.Before(w.Horizon())
}
