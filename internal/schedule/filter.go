package schedule

import "strings"

// FilterOV keeps sessions whose title or tags contain any marker,
// case-insensitively. Input order is preserved.
func FilterOV(sessions []Session, markers []string) []Session {
	lowered := make([]string, 0, len(markers))
	for _, marker := range markers {
		if m := strings.ToLower(strings.TrimSpace(marker)); m != "" {
			lowered = append(lowered, m)
		}
	}
	if len(lowered) == 0 {
		return nil
	}

	var out []Session
	for _, s := range sessions {
		haystack := strings.ToLower(s.RawTitle + " " + s.RawTags)
		for _, marker := range lowered {
			if strings.Contains(haystack, marker) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
