// Package grid holds the in-memory representation of the checkbox grid and
// the operations that rebuild it: loading bit-packed snapshots and replaying
// event logs with optional time cutoffs.
package grid

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Grid dimensions. The grid is a fixed 1000x1000 bitmap, one bit per cell,
// indexed row-major from 0.
const (
	Width  = 1000
	Height = 1000
	Cells  = Width * Height

	// SnapshotBytes is the exact size of a bit-packed snapshot payload.
	SnapshotBytes = Cells / 8
)

// Status classifies the outcome of applying one log event against a replay
// window. The driver switches exhaustively over it.
type Status int

const (
	// Continue means the event was inside the window and has been applied.
	Continue Status = iota
	// BeforeFirst means the event predates the window; skip it and keep reading.
	BeforeFirst
	// PastLast means the event is beyond the window; stop consuming this log.
	PastLast
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case BeforeFirst:
		return "before-first"
	case PastLast:
		return "past-last"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseError reports a malformed log line, echoing the offending input.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed log line %q: %s", e.Line, e.Reason)
}

// ErrShortSnapshot reports a snapshot file smaller than the fixed payload size.
var ErrShortSnapshot = fmt.Errorf("snapshot shorter than %d bytes", SnapshotBytes)

// State is the bit-packed grid state: SnapshotBytes bytes, MSB-first, so
// cell 0 is the high bit of byte 0. This matches both the snapshot files
// and the raw monob frames handed to the renderer.
type State []byte

// NewState returns an all-zero grid.
func NewState() State {
	return make(State, SnapshotBytes)
}

// Get returns the bit for cell i.
func (s State) Get(i int) int {
	return int(s[i>>3]>>(7-uint(i)&7)) & 1
}

// Set writes the bit for cell i.
func (s State) Set(i, v int) {
	mask := byte(1) << (7 - uint(i)&7)
	if v != 0 {
		s[i>>3] |= mask
	} else {
		s[i>>3] &^= mask
	}
}

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// LoadSnapshot reads exactly SnapshotBytes from the file at path. A missing
// file or a short read is fatal to the caller; there is no fallback snapshot.
func LoadSnapshot(path string) (State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	st := NewState()
	if _, err := io.ReadFull(f, st); err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w: %w", path, ErrShortSnapshot, err)
	}
	return st, nil
}

// Event is one parsed log line: a single cell transition at a point in time.
// Value is kept as recorded; it is validated when the event is applied, so
// events excluded by a cutoff never trip value validation.
type Event struct {
	Time  time.Time
	Cell  int
	Value string
}

// ParseLine parses a pipe-delimited log line `timestamp|cell|value`.
// Timestamps are ISO-8601 without a zone and interpreted as UTC.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, "|")
	if len(parts) != 3 {
		return Event{}, &ParseError{Line: line, Reason: "want 3 pipe-delimited fields"}
	}

	ts, err := time.Parse("2006-01-02T15:04:05", parts[0])
	if err != nil {
		return Event{}, &ParseError{Line: line, Reason: "bad timestamp: " + err.Error()}
	}
	cell, err := strconv.Atoi(parts[1])
	if err != nil {
		return Event{}, &ParseError{Line: line, Reason: "bad cell index: " + err.Error()}
	}
	if cell < 0 || cell >= Cells {
		return Event{}, &ParseError{Line: line, Reason: fmt.Sprintf("cell index %d out of range", cell)}
	}

	return Event{Time: ts, Cell: cell, Value: parts[2]}, nil
}

// Apply mutates the state with one event, bounded by the optional after and
// before cutoffs (zero time means unbounded). Events before `after` are
// skipped, events after `before` end the log; only a Continue outcome
// touches the grid.
func (s State) Apply(ev Event, after, before time.Time) (Status, error) {
	if !after.IsZero() && ev.Time.Before(after) {
		return BeforeFirst, nil
	}
	if !before.IsZero() && ev.Time.After(before) {
		return PastLast, nil
	}

	switch ev.Value {
	case "1":
		s.Set(ev.Cell, 1)
	case "0":
		s.Set(ev.Cell, 0)
	default:
		return Continue, &ParseError{
			Line:   fmt.Sprintf("%s|%d|%s", ev.Time.Format("2006-01-02T15:04:05"), ev.Cell, ev.Value),
			Reason: "cell value must be 0 or 1",
		}
	}
	return Continue, nil
}

// progressEvery is how many log lines go by between progress reports.
const progressEvery = 150000

// ReplayTo streams the log at path into the state, applying every event up
// to and including cutoff. Used for point-in-time reconstruction; there are
// no cadence callbacks here.
func (s State) ReplayTo(path string, cutoff time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for i := 0; scanner.Scan(); i++ {
		if i%progressEvery == 0 {
			log.Printf("processed %d lines", i)
		}
		ev, err := ParseLine(scanner.Text())
		if err != nil {
			return err
		}
		status, err := s.Apply(ev, time.Time{}, cutoff)
		if err != nil {
			return err
		}
		if status == PastLast {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log %s: %w", path, err)
	}
	return nil
}

// Counters is the integer-valued companion to State used for heatmaps: one
// change count per cell instead of one bit.
type Counters []int

// NewCounters returns an all-zero counter array.
func NewCounters() Counters {
	return make(Counters, Cells)
}

// Accumulate bumps the counter of every cell whose bit differs between the
// new and old states.
func (c Counters) Accumulate(newState, oldState State) {
	for i := 0; i < Cells; i++ {
		if newState.Get(i) != oldState.Get(i) {
			c[i]++
		}
	}
}

// Max returns the largest counter value.
func (c Counters) Max() int {
	max := 0
	for _, v := range c {
		if v > max {
			max = v
		}
	}
	return max
}
