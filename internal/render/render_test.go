package render

import (
	"strings"
	"testing"
	"time"

	"ovtracker/internal/digest"
	"ovtracker/internal/schedule"
	"ovtracker/internal/week"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func int64Ptr(v int64) *int64 { return &v }

func TestMessageRendersThreeItemSample(t *testing.T) {
	loc := berlin(t)
	w := week.Compute(time.Date(2026, 1, 15, 9, 0, 0, 0, loc), loc)
	items := []digest.Item{
		{
			Title:     "Iron Man",
			Session:   schedule.Session{Start: time.Date(2026, 1, 15, 20, 0, 0, 0, loc)},
			FilmID:    int64Ptr(1726),
			TicketURL: "https://www.cinestar.de/kino-konstanz/film/iron-man",
		},
		{
			Title:     "Unknown Movie",
			Session:   schedule.Session{Start: time.Date(2026, 1, 16, 18, 30, 0, 0, loc)},
			TicketURL: "https://www.kinoprogramm.com/film/unknown?a=1&b=2",
		},
		{
			Title:   "Fallback Movie",
			Session: schedule.Session{Start: time.Date(2026, 1, 17, 21, 15, 0, 0, loc)},
			FilmID:  int64Ptr(550),
		},
	}

	got := Message("CineStar Konstanz", w, items)
	want := strings.Join([]string{
		"🎬 CineStar Konstanz — OV (15–21.01)",
		"",
		`• Iron Man — Чт 15.01 20:00 — <a href="https://www.cinestar.de/kino-konstanz/film/iron-man">🎟 Билеты</a> · <a href="https://letterboxd.com/tmdb/1726/">🎞 LB</a>`,
		`• Unknown Movie — Пт 16.01 18:30 — <a href="https://www.kinoprogramm.com/film/unknown?a=1&amp;b=2">🎟 Билеты</a>`,
		`• Fallback Movie — Сб 17.01 21:15 — <a href="https://letterboxd.com/tmdb/550/">🎞 LB</a>`,
	}, "\n")
	if got != want {
		t.Fatalf("unexpected message:\n%s\nwant:\n%s", got, want)
	}
}

func TestMessageEmptyDigest(t *testing.T) {
	loc := berlin(t)
	w := week.Compute(time.Date(2026, 1, 29, 9, 0, 0, 0, loc), loc)
	got := Message("CineStar Konstanz", w, nil)
	want := "🎬 CineStar Konstanz — OV (29.01–04.02)\n\n" + EmptyBody
	if got != want {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLineEscapesTitle(t *testing.T) {
	item := digest.Item{
		Title:   "Tom & Jerry <OV>",
		Session: schedule.Session{Start: time.Date(2026, 1, 18, 14, 0, 0, 0, time.UTC)},
	}
	if got := Line(item); got != "• Tom &amp; Jerry &lt;OV&gt; — Вс 18.01 14:00" {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestSplitShortTextIsUnchanged(t *testing.T) {
	parts := Split("short", MaxMessageLength)
	if len(parts) != 1 || parts[0] != "short" {
		t.Fatalf("unexpected parts %q", parts)
	}
}

func TestSplitOnLineBoundaries(t *testing.T) {
	line := strings.Repeat("я", 9)
	text := strings.Join([]string{line, line, line, line}, "\n")

	parts := Split(text, 20)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d: %q", len(parts), parts)
	}
	for _, part := range parts {
		if utf16Len(part) > 20 {
			t.Fatalf("part exceeds limit: %q", part)
		}
		if part != line+"\n"+line {
			t.Fatalf("unexpected part %q", part)
		}
	}
}

func TestSplitCountsUTF16Units(t *testing.T) {
	// Each emoji is two UTF-16 code units.
	text := strings.Repeat("🎬", 3) + "\n" + strings.Repeat("🎬", 3)
	parts := Split(text, 8)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %q", parts)
	}
}

func TestSplitHardCutsOverlongLine(t *testing.T) {
	text := strings.Repeat("a", 25)
	parts := Split(text, 10)
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %q", parts)
	}
	if strings.Join(parts, "") != text {
		t.Fatalf("content lost: %q", parts)
	}
}
