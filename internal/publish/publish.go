// Package publish implements the once-per-week publish gate.
package publish

import "ovtracker/internal/state"

// Status is the publish state of a cinema week.
type Status string

const (
	StatusNotSent Status = "NOT_SENT_THIS_WEEK"
	StatusSent    Status = "SENT_THIS_WEEK"
)

// Decision is the gate outcome for one run.
type Decision struct {
	Status Status
	Send   bool
	Forced bool
	// PreviousHash is the fingerprint recorded for the week when Status is StatusSent.
	PreviousHash string
}

// Decide evaluates the gate for weekStart. A forced run sends even when the
// week was already published.
func Decide(st *state.State, weekStart string, force bool) Decision {
	status := StatusNotSent
	var previous string
	if last, ok := st.LastSentWeek(); ok && last == weekStart {
		status = StatusSent
		previous, _ = st.LastContentHash()
	}
	return Decision{
		Status:       status,
		Send:         status == StatusNotSent || force,
		Forced:       force && status == StatusSent,
		PreviousHash: previous,
	}
}

// ContentChanged reports whether the week was already sent with a different
// fingerprint than hash.
func (d Decision) ContentChanged(hash string) bool {
	return d.Status == StatusSent && d.PreviousHash != "" && d.PreviousHash != hash
}

// MarkSent records a delivered digest. Call only after transport success.
func MarkSent(st *state.State, weekStart, hash string) {
	st.RecordPublish(weekStart, hash)
}
