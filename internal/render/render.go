// Package render formats the weekly digest as a Telegram HTML message.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"ovtracker/internal/digest"
	"ovtracker/internal/week"
)

// MaxMessageLength is Telegram's per-message limit in UTF-16 code units.
const MaxMessageLength = 4096

// EmptyBody is shown when the week has no OV sessions.
const EmptyBody = "OV-сеансов не найдено."

var weekdays = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// Message renders the digest for cinema and window.
func Message(cinema string, w week.Window, items []digest.Item) string {
	lines := []string{Header(cinema, w), ""}
	if len(items) == 0 {
		lines = append(lines, EmptyBody)
		return strings.Join(lines, "\n")
	}
	for _, item := range items {
		lines = append(lines, Line(item))
	}
	return strings.Join(lines, "\n")
}

// Header returns the title line with the Thursday to Wednesday date range.
func Header(cinema string, w week.Window) string {
	return fmt.Sprintf("🎬 %s — OV (%s)", html.EscapeString(cinema), dateRange(w))
}

// Line renders one digest item.
func Line(item digest.Item) string {
	var links []string
	if item.TicketURL != "" {
		links = append(links, fmt.Sprintf(`<a href="%s">🎟 Билеты</a>`, html.EscapeString(item.TicketURL)))
	}
	if item.FilmID != nil && *item.FilmID > 0 {
		links = append(links, fmt.Sprintf(`<a href="https://letterboxd.com/tmdb/%d/">🎞 LB</a>`, *item.FilmID))
	}
	line := fmt.Sprintf("• %s — %s", html.EscapeString(item.Title), SessionTime(item.Session.Start))
	if len(links) > 0 {
		line += " — " + strings.Join(links, " · ")
	}
	return line
}

// SessionTime formats t as a Russian weekday abbreviation plus day, month and clock.
func SessionTime(t time.Time) string {
	return weekdays[t.Weekday()] + " " + t.Format("02.01 15:04")
}

func dateRange(w week.Window) string {
	start := w.Start
	last := start.AddDate(0, 0, 6)
	if start.Month() == last.Month() {
		return fmt.Sprintf("%d–%s", start.Day(), last.Format("02.01"))
	}
	return start.Format("02.01") + "–" + last.Format("02.01")
}

// Split breaks text into parts of at most limit UTF-16 code units, cutting on
// line boundaries. A single overlong line is cut at the last space that fits,
// or hard at the limit.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf16Len(line)
		if currentLen+lineLen <= limit {
			current.WriteString(line)
			currentLen += lineLen
			continue
		}
		flush()
		for utf16Len(line) > limit {
			head, rest := cutLine(line, limit)
			parts = append(parts, strings.TrimRight(head, "\n "))
			line = rest
		}
		current.WriteString(line)
		currentLen = utf16Len(line)
	}
	flush()
	return parts
}

func cutLine(line string, limit int) (string, string) {
	units, end := 0, 0
	for end < len(line) {
		r, size := utf8.DecodeRuneInString(line[end:])
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > limit {
			break
		}
		units += n
		end += size
	}
	if pos := strings.LastIndex(line[:end], " "); pos > 0 {
		return line[:pos+1], line[pos+1:]
	}
	if end == 0 {
		_, end = utf8.DecodeRuneInString(line)
	}
	return line[:end], line[end:]
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
