package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimestampLayout = "2006-01-02 15:04:05"

// Keys listed first, in this order, on info and higher lines.
var leadingKeys = []string{
	FieldEventType,
	FieldDecisionType,
	FieldDecisionResult,
	FieldDecisionReason,
	"week_start",
	"title",
	"reason",
	FieldErrorHint,
	FieldImpact,
	"error",
}

// consoleSink renders a header line per record followed by one indented line
// per attribute.
type consoleSink struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Level
	loc       *time.Location
	addSource bool
	attrs     []field
	groups    []string
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleSink(w io.Writer, level slog.Level, loc *time.Location, addSource bool) slog.Handler {
	return &consoleSink{mu: &sync.Mutex{}, w: w, level: level, loc: loc, addSource: addSource}
}

func (h *consoleSink) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleSink) Handle(_ context.Context, record slog.Record) error {
	fields := append([]field(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFlattened(fields, h.groups, attr)
		return true
	})
	fields = lastWins(fields)

	var component, runID, stage string
	rest := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plainValue(f.value)
		case FieldRunID:
			runID = plainValue(f.value)
			if record.Level < slog.LevelInfo {
				rest = append(rest, f)
			}
		case FieldStage:
			stage = plainValue(f.value)
		default:
			rest = append(rest, f)
		}
	}
	if record.Level >= slog.LevelInfo {
		rest = leadingFirst(rest)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}

	var buf bytes.Buffer
	buf.WriteString(ts.In(h.loc).Format(consoleTimestampLayout))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if component != "" {
		fmt.Fprintf(&buf, " [%s]", component)
	}
	if subject := runSubject(runID, stage); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(msg)
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')
	for _, f := range rest {
		fmt.Fprintf(&buf, "    - %s: %s\n", f.key, quotedValue(f.value))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleSink) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		next.attrs = appendFlattened(next.attrs, h.groups, attr)
	}
	return next
}

func (h *consoleSink) WithGroup(name string) slog.Handler {
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *consoleSink) clone() *consoleSink {
	next := *h
	next.attrs = append([]field(nil), h.attrs...)
	next.groups = append([]string(nil), h.groups...)
	return &next
}

// runSubject shortens the run ID to its first block.
func runSubject(runID, stage string) string {
	if i := strings.IndexByte(runID, '-'); i > 0 {
		runID = runID[:i]
	}
	switch {
	case runID != "" && stage != "":
		return "Run " + runID + " (" + stage + ")"
	case runID != "":
		return "Run " + runID
	}
	return stage
}

func leadingFirst(fields []field) []field {
	ordered := make([]field, 0, len(fields))
	taken := make([]bool, len(fields))
	for _, key := range leadingKeys {
		for i, f := range fields {
			if !taken[i] && f.key == key {
				ordered = append(ordered, f)
				taken[i] = true
			}
		}
	}
	for i, f := range fields {
		if !taken[i] {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func appendFlattened(dst []field, groups []string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			groups = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			dst = appendFlattened(dst, groups, member)
		}
		return dst
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return append(dst, field{key: key, value: attr.Value})
}

// plainValue renders v without quoting.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

// quotedValue renders v, quoting strings that contain spaces, '=' or quotes.
func quotedValue(v slog.Value) string {
	s := plainValue(v)
	if v.Kind() == slog.KindString || v.Kind() == slog.KindAny {
		if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			return strconv.Quote(s)
		}
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
