package services

import (
	"errors"
	"fmt"
	"strings"
)

// Failure classes. Stage errors wrap exactly one of these so the workflow
// and notifications can tell a broken ffmpeg from a bad config.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap tags err with marker (ErrTransient when nil) and prefixes the stage,
// operation and message that are non-empty. err may be nil.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should abort the whole run rather than a single
// item. Only configuration problems qualify.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Reason flattens err onto one line and caps it at limit runes, for sheet
// cells and notification bodies.
func Reason(err error, limit int) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if runes := []rune(msg); limit > 0 && len(runes) > limit {
		return string(runes[:limit-1]) + "…"
	}
	return msg
}

func buildDetail(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "service failure"
	}
	return strings.Join(kept, ": ")
}
