// Package timeparse parses the operator-facing datetime formats: ISO-8601
// with or without a zone suffix, and relative spans in hours for window ends.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Datetime parses an ISO-8601 timestamp. A missing zone suffix means UTC.
func Datetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "Z") && !strings.Contains(s, "+") {
		s += "Z"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime format: %s", s)
	}
	return t.UTC(), nil
}

// End is a window end that is either absolute or relative to the start.
type End struct {
	absolute time.Time
	span     time.Duration
	relative bool
}

// Resolve returns the concrete end for a given start, and whether it was
// specified relative to it.
func (e End) Resolve(start time.Time) (time.Time, bool) {
	if e.relative {
		return start.Add(e.span), true
	}
	return e.absolute, false
}

// DatetimeOrSpan parses a window end: a span in hours (`12h` or a bare
// number) or an absolute ISO-8601 timestamp.
func DatetimeOrSpan(s string) (End, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "h")
	if hours, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return End{span: time.Duration(hours * float64(time.Hour)), relative: true}, nil
	}

	t, err := Datetime(s)
	if err != nil {
		return End{}, err
	}
	return End{absolute: t}, nil
}
