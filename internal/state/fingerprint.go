package state

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// TimestampLayout is ISO-8601 with a numeric offset, as stored in fingerprints.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Entry is the fingerprinted view of one digest item.
type Entry struct {
	Title     string
	Start     time.Time
	FilmID    *int64
	TicketURL string
}

// Fields are declared in key order so the encoding is key-sorted.
type stableEntry struct {
	CinestarURL *string `json:"cinestar_url"`
	DT          string  `json:"dt"`
	Title       string  `json:"title"`
	TMDBID      *int64  `json:"tmdb_id"`
}

// Fingerprint returns the SHA-256 hex digest of the entries' canonical JSON
// form. Input order does not affect the result.
func Fingerprint(entries []Entry) string {
	stable := make([]stableEntry, 0, len(entries))
	for _, e := range entries {
		item := stableEntry{
			DT:     e.Start.Format(TimestampLayout),
			Title:  e.Title,
			TMDBID: e.FilmID,
		}
		if e.TicketURL != "" {
			url := e.TicketURL
			item.CinestarURL = &url
		}
		stable = append(stable, item)
	}
	sort.SliceStable(stable, func(i, j int) bool {
		if stable[i].Title != stable[j].Title {
			return stable[i].Title < stable[j].Title
		}
		return stable[i].DT < stable[j].DT
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a slice of plain structs cannot fail.
	_ = enc.Encode(stable)
	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])
}
