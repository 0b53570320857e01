package testsupport

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Film is one film block on a generated schedule page.
type Film struct {
	Title    string
	Href     string
	Sessions []time.Time
}

// SchedulePage renders a kinoprogramm-style cinema page dated today.
func SchedulePage(today time.Time, films ...Film) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html><body>\n")
	fmt.Fprintf(&b, "<div class=\"today\"><span class=\"text-white\">Heute %s</span></div>\n", today.Format("02.01.2006"))
	b.WriteString("<div class=\"container\">\n")
	for _, film := range films {
		href := film.Href
		if href == "" {
			href = "/film/" + strings.ToLower(strings.ReplaceAll(film.Title, " ", "-"))
		}
		fmt.Fprintf(&b, "<div class=\"row mt-5\"><div class=\"col city_filmtitel\"><a class=\"h3\" href=%q title=\"Kinofilm %s\">%s</a></div></div>\n",
			href, html.EscapeString(film.Title), html.EscapeString(film.Title))
		b.WriteString("<div class=\"row\"><div class=\"owl-movie-times\">\n")
		for _, day := range groupByDay(film.Sessions) {
			fmt.Fprintf(&b, "<div class=\"item\"><p class=\"mb-0 fw-bold\">%s</p><p class=\"mb-0 fw-bold\">%s</p>",
				day[0].Format("Mon"), day[0].Format("02.01."))
			for _, start := range day {
				fmt.Fprintf(&b, "<p class=\"mb-1\">%s</p>", start.Format("15:04"))
			}
			b.WriteString("</div>\n")
		}
		b.WriteString("</div></div>\n")
	}
	b.WriteString("</div>\n</body></html>\n")
	return b.String()
}

func groupByDay(starts []time.Time) [][]time.Time {
	var days [][]time.Time
	index := make(map[string]int)
	for _, start := range starts {
		key := start.Format("2006-01-02")
		if i, ok := index[key]; ok {
			days[i] = append(days[i], start)
			continue
		}
		index[key] = len(days)
		days = append(days, []time.Time{start})
	}
	return days
}
