// Package overrides loads the user-curated table that pins film titles to
// TMDB identifiers ahead of any cache or search.
package overrides

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"ovtracker/internal/logging"
	"ovtracker/internal/titles"
)

// Catalog loads user-authored title overrides. The file is re-read whenever
// its modification time changes.
type Catalog struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	loaded  time.Time
	entries map[string]int64
}

// Override pins a title to a TMDB movie.
type Override struct {
	Title  string `yaml:"title"`
	TMDBID int64  `yaml:"tmdb_id"`
}

// NewCatalog constructs a catalog backed by the provided YAML or JSON file.
// It returns nil for an empty path; a nil catalog has no entries.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return &Catalog{path: trimmed, logger: logging.NewComponentLogger(logger, "overrides")}
}

// Path returns the backing file location.
func (c *Catalog) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Lookup returns the pinned identifier for a normalized title.
func (c *Catalog) Lookup(title string) (int64, bool, error) {
	if c == nil {
		return 0, false, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return 0, false, err
	}
	key := titles.Normalize(title)

	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[key]
	return id, ok, nil
}

// Entries returns the overrides sorted by title.
func (c *Catalog) Entries() ([]Override, error) {
	if c == nil {
		return nil, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Override, 0, len(c.entries))
	for title, id := range c.entries {
		out = append(out, Override{Title: title, TMDBID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	c.mu.RLock()
	alreadyLoaded := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if alreadyLoaded {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	entries, err := parseOverrides(data)
	if err != nil {
		return fmt.Errorf("parse overrides %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.entries = entries
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Info("loaded title overrides", logging.String("path", c.path), logging.Int("count", len(entries)))
	return nil
}

// parseOverrides accepts a title-to-id mapping or an object with an
// "overrides" list of {title, tmdb_id}. JSON input parses as YAML. Entries
// without an identifier (skeleton lines such as `"Title": # TODO_ID`) are
// ignored.
func parseOverrides(data []byte) (map[string]int64, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	entries := make(map[string]int64)
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return entries, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, errors.New("overrides must be a mapping")
	}

	if len(doc.Content) == 2 && doc.Content[0].Value == "overrides" && doc.Content[1].Kind == yaml.SequenceNode {
		var list []Override
		if err := doc.Content[1].Decode(&list); err != nil {
			return nil, err
		}
		for _, entry := range list {
			add(entries, entry.Title, entry.TMDBID)
		}
		return entries, nil
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			continue
		}
		var id int64
		if err := value.Decode(&id); err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", value.Line, key.Value, err)
		}
		add(entries, key.Value, id)
	}
	return entries, nil
}

func add(entries map[string]int64, title string, id int64) {
	key := titles.Normalize(title)
	if key == "" || id <= 0 {
		return
	}
	entries[key] = id
}
