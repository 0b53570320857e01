package schedule

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ovtracker/internal/logging"
)

// SiteOrigin prefixes root-relative film links found on the schedule page.
const SiteOrigin = "https://www.kinoprogramm.com"

var (
	headerDatePattern = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
	dayPattern        = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.?$`)
	clockPattern      = regexp.MustCompile(`^(\d{1,2}):(\d{2})`)
)

// Parse extracts sessions from the kinoprogramm cinema page. Every start time
// is placed in loc. The page header supplies the year; when it is missing the
// year of now is used. Rows that cannot be interpreted are skipped with a
// warning.
func Parse(markup string, loc *time.Location, now time.Time, logger *slog.Logger) ([]Session, error) {
	if loc == nil {
		loc = time.UTC
	}
	logger = logging.NewComponentLogger(logger, "schedule")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse schedule markup: %w", err)
	}

	now = now.In(loc)
	year, month := now.Year(), now.Month()
	if match := headerDatePattern.FindStringSubmatch(doc.Find("div.today").First().Text()); match != nil {
		year, _ = strconv.Atoi(match[3])
		m, _ := strconv.Atoi(match[2])
		month = time.Month(m)
	}

	var sessions []Session
	doc.Find("div.city_filmtitel").Each(func(_ int, titleDiv *goquery.Selection) {
		row := titleDiv.Closest("div.row")
		if row.Length() == 0 {
			return
		}

		title := "Unknown"
		var filmURL string
		if link := titleDiv.Find(`a[title^="Kinofilm"]`).First(); link.Length() > 0 {
			if text := strings.TrimSpace(link.Text()); text != "" {
				title = text
			}
			filmURL = absoluteFilmURL(link.AttrOr("href", ""))
		}

		times := row.NextAllFiltered("div.row").First().Find("div.owl-movie-times").First()
		if times.Length() == 0 {
			logger.Debug("schedule row without times", logging.String("title", title))
			return
		}

		times.Find("div.item").Each(func(_ int, item *goquery.Selection) {
			bold := item.Find("p.fw-bold")
			if bold.Length() < 2 {
				return
			}
			dayText := strings.TrimSpace(bold.Eq(1).Text())
			item.Find("p").Not(".fw-bold").Each(func(_ int, p *goquery.Selection) {
				clockText := strings.TrimSpace(p.Text())
				if !clockPattern.MatchString(clockText) {
					return
				}
				start, err := sessionStart(dayText, clockText, year, month, loc)
				if err != nil {
					logging.WarnWithContext(logger, "schedule entry skipped", "schedule_entry_malformed",
						logging.String("title", title),
						logging.String("day", dayText),
						logging.String("time", clockText),
						logging.Error(err),
						logging.String(logging.FieldImpact, "one screening missing from the digest"),
						logging.String(logging.FieldErrorHint, "check the upstream markup for format changes"),
					)
					return
				}
				sessions = append(sessions, Session{
					RawTitle: title,
					Start:    start,
					FilmURL:  filmURL,
					RawTags:  title,
				})
			})
		})
	})

	return sessions, nil
}

// sessionStart combines "19.01." and "20:15" into a time in loc. A January
// date listed under a December header belongs to the following year.
func sessionStart(dayText, clockText string, year int, headerMonth time.Month, loc *time.Location) (time.Time, error) {
	dayMatch := dayPattern.FindStringSubmatch(dayText)
	if dayMatch == nil {
		return time.Time{}, fmt.Errorf("unrecognized day %q", dayText)
	}
	day, _ := strconv.Atoi(dayMatch[1])
	month, _ := strconv.Atoi(dayMatch[2])

	clockMatch := clockPattern.FindStringSubmatch(clockText)
	hour, _ := strconv.Atoi(clockMatch[1])
	minute, _ := strconv.Atoi(clockMatch[2])

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("out of range date %q %q", dayText, clockText)
	}
	if headerMonth == time.December && time.Month(month) == time.January {
		year++
	}

	start := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if start.Day() != day || start.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("invalid calendar date %q", dayText)
	}
	return start, nil
}

func absoluteFilmURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/") {
		return SiteOrigin + href
	}
	return href
}
