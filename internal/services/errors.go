package services

import (
	"errors"
	"fmt"
	"strings"
)

// Failure classes. Wrap tags an error with one of them; callers classify with
// errors.Is.
var (
	ErrFetchExhausted = errors.New("schedule fetch exhausted")
	ErrConfiguration  = errors.New("configuration error")
	ErrTransport      = errors.New("transport failure")
	ErrNotFound       = errors.New("not found")
	ErrTransient      = errors.New("transient failure")
)

// Process exit statuses.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitTransport     = 3
)

// Wrap returns "<marker>: <stage>: <operation>: <message>: <err>", omitting
// blank parts. A nil marker means ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	var parts []string
	for _, p := range []string{stage, operation, message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	detail := strings.Join(parts, ": ")
	if detail == "" {
		detail = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// Fatal reports whether err aborted the run before any state was touched.
func Fatal(err error) bool {
	return errors.Is(err, ErrFetchExhausted) || errors.Is(err, ErrConfiguration)
}

// ExitCode maps a run error to a process exit status. Gate skips return nil
// errors and exit with ExitOK.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrTransport):
		return ExitTransport
	}
	return ExitFailure
}
