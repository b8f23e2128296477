// Package era holds the static registry of operational eras for the
// one-million-checkboxes grid. The site ran in three distinct stretches
// separated by downtime; snapshots and logs are organized per era, and
// replay must reload state whenever it crosses into a new one.
package era

import (
	"fmt"
	"time"
)

// ID identifies an operational era.
type ID string

// The three eras of the site, in chronological order.
const (
	PreCrash           ID = "pre-crash"
	PostCrashPreSunset ID = "post-crash-pre-sunset"
	PostSunset         ID = "post-sunset"
)

// Era is a contiguous period the site was up, with stable snapshot/log data.
type Era struct {
	Start time.Time
	End   time.Time
	ID    ID
}

// Table is the ordered, non-overlapping era registry. It is fixed at
// compile time; gaps between entries are downtime.
var Table = []Era{
	{mustUTC("2024-06-26T19:00:40"), mustUTC("2024-06-27T08:40:35"), PreCrash},
	{mustUTC("2024-06-27T13:12:37"), mustUTC("2024-07-11T16:32:29"), PostCrashPreSunset},
	{mustUTC("2024-07-11T16:37:47"), mustUTC("2024-07-11T20:35:05"), PostSunset},
}

// Start and End bound the full range where any data exists.
var (
	Start = Table[0].Start
	End   = Table[len(Table)-1].End
)

func mustUTC(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// OutOfRangeError reports a timestamp outside the covered history, either
// beyond the global bounds or inside a downtime gap between eras.
type OutOfRangeError struct {
	T time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s is outside of range where we have data - data is available from %s to %s",
		e.T.Format(time.RFC3339), Start.Format(time.RFC3339), End.Format(time.RFC3339))
}

// WithinRange reports whether t falls inside the global [Start, End) bounds.
func WithinRange(t time.Time) bool {
	return !t.Before(Start) && t.Before(End)
}

// CheckRange returns an OutOfRangeError when t lies outside the global bounds.
func CheckRange(t time.Time) error {
	if !WithinRange(t) {
		return &OutOfRangeError{T: t}
	}
	return nil
}

// ForTime resolves the era covering t. Timestamps in downtime gaps between
// eras are invalid and yield an OutOfRangeError, as do timestamps outside
// the global bounds.
func ForTime(t time.Time) (ID, error) {
	if err := CheckRange(t); err != nil {
		return "", err
	}
	for _, e := range Table {
		if !t.Before(e.Start) && !t.After(e.End) {
			return e.ID, nil
		}
	}
	return "", &OutOfRangeError{T: t}
}

// RangeOf returns the start and end of the given era.
func RangeOf(id ID) (start, end time.Time, err error) {
	for _, e := range Table {
		if e.ID == id {
			return e.Start, e.End, nil
		}
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown era: %s", id)
}

// StartOf returns the start of the given era.
func StartOf(id ID) (time.Time, error) {
	start, _, err := RangeOf(id)
	return start, err
}

// ValidateWindow checks that a requested replay window is ordered and that
// both ends fall inside the covered history.
func ValidateWindow(start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("start date is after end date: %s > %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if err := CheckRange(start); err != nil {
		return err
	}
	return CheckRange(end)
}
