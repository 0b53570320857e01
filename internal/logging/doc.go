// Package logging builds the slog loggers used by ovtracker.
//
// Console output is either a human-readable block format or JSON. When a log
// directory is configured, every info-or-higher record is also written as
// JSON to a size-rotated file. Timestamps use the cinema's time zone.
// WarnWithContext and DecisionAttrs keep gate decisions and degradations
// greppable by event_type.
package logging
