package schedule

import "time"

// Session is a single screening scraped from the schedule page.
type Session struct {
	RawTitle string
	Start    time.Time
	FilmURL  string
	RawTags  string
}

// Latest returns the start of the last session, or false when sessions is empty.
func Latest(sessions []Session) (time.Time, bool) {
	if len(sessions) == 0 {
		return time.Time{}, false
	}
	latest := sessions[0].Start
	for _, s := range sessions[1:] {
		if s.Start.After(latest) {
			latest = s.Start
		}
	}
	return latest, true
}
