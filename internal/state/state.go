package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"ovtracker/internal/fileutil"
	"ovtracker/internal/logging"
)

// State is the persisted publish tracker.
type State struct {
	LastSentWeekStart *string           `json:"last_sent_week_start"`
	LastHash          *string           `json:"last_hash"`
	TMDBCache         map[string]int64  `json:"tmdb_cache"`
	CinestarCache     map[string]string `json:"cinestar_cache"`

	dirty bool
}

// CacheEntry is one resolution cache row.
type CacheEntry struct {
	Title  string
	TMDBID int64
}

// New returns an empty state.
func New() *State {
	return &State{
		TMDBCache:     make(map[string]int64),
		CinestarCache: make(map[string]string),
	}
}

// Load reads the state document at path. Missing, empty or malformed files
// produce an empty State and a warning.
func Load(path string, logger *slog.Logger) *State {
	logger = logging.NewComponentLogger(logger, "state")

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "state file unreadable", "state_load_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "starting from empty state"),
				logging.String(logging.FieldErrorHint, "check file permissions"),
			)
		}
		return New()
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return New()
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		logging.WarnWithContext(logger, "state file malformed", "state_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "starting from empty state; the current week may be sent again"),
			logging.String(logging.FieldErrorHint, "inspect or delete the state file"),
		)
		return New()
	}
	if st.TMDBCache == nil {
		st.TMDBCache = make(map[string]int64)
	}
	if st.CinestarCache == nil {
		st.CinestarCache = make(map[string]string)
	}
	logger.Debug("state loaded",
		logging.String("path", path),
		logging.Int("tmdb_cache_entries", len(st.TMDBCache)),
	)
	return st
}

// Save writes the state to path atomically.
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	s.dirty = false
	return nil
}

// Dirty reports whether the state changed since it was loaded or saved.
func (s *State) Dirty() bool {
	return s.dirty
}

// LastSentWeek returns the last published week start, if any.
func (s *State) LastSentWeek() (string, bool) {
	if s.LastSentWeekStart == nil || *s.LastSentWeekStart == "" {
		return "", false
	}
	return *s.LastSentWeekStart, true
}

// LastContentHash returns the fingerprint of the last published digest, if any.
func (s *State) LastContentHash() (string, bool) {
	if s.LastHash == nil || *s.LastHash == "" {
		return "", false
	}
	return *s.LastHash, true
}

// RecordPublish stores the week and fingerprint of a delivered digest.
func (s *State) RecordPublish(weekStart, hash string) {
	s.LastSentWeekStart = &weekStart
	s.LastHash = &hash
	s.dirty = true
}

// CachedFilm returns the cached identifier for a normalized title.
func (s *State) CachedFilm(title string) (int64, bool) {
	id, ok := s.TMDBCache[title]
	return id, ok
}

// CacheFilm records an accepted resolution.
func (s *State) CacheFilm(title string, id int64) {
	if s.TMDBCache == nil {
		s.TMDBCache = make(map[string]int64)
	}
	if existing, ok := s.TMDBCache[title]; ok && existing == id {
		return
	}
	s.TMDBCache[title] = id
	s.dirty = true
}

// CachedTicket returns the confirmed ticket page for title.
func (s *State) CachedTicket(title string) (string, bool) {
	url, ok := s.CinestarCache[title]
	return url, ok && url != ""
}

// CacheTicket records a confirmed ticket page.
func (s *State) CacheTicket(title, url string) {
	if s.CinestarCache == nil {
		s.CinestarCache = make(map[string]string)
	}
	if existing, ok := s.CinestarCache[title]; ok && existing == url {
		return
	}
	s.CinestarCache[title] = url
	s.dirty = true
}

// ForgetFilm removes a cached resolution and reports whether it existed.
func (s *State) ForgetFilm(title string) bool {
	if _, ok := s.TMDBCache[title]; !ok {
		return false
	}
	delete(s.TMDBCache, title)
	s.dirty = true
	return true
}

// ClearFilms empties the resolution cache and returns the number of removed entries.
func (s *State) ClearFilms() int {
	n := len(s.TMDBCache)
	if n > 0 {
		s.TMDBCache = make(map[string]int64)
		s.dirty = true
	}
	return n
}

// Films returns the resolution cache sorted by title.
func (s *State) Films() []CacheEntry {
	out := make([]CacheEntry, 0, len(s.TMDBCache))
	for title, id := range s.TMDBCache {
		out = append(out, CacheEntry{Title: title, TMDBID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}
