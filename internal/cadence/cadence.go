// Package cadence decides when the replay loop should emit a frame. Two
// sub-strategies exist — every N processed events, or every fixed interval
// of grid time — and they can run together, emitting when either fires.
package cadence

import (
	"errors"
	"time"
)

// DefaultInterval is the interval used when the caller asks for time-based
// cadence without choosing one.
const DefaultInterval = 5 * time.Second

// ErrNoCadence is returned when neither cadence parameter is supplied.
var ErrNoCadence = errors.New("cadence: neither an event count nor an interval was supplied")

// Mode is the resolved cadence mode, fixed at construction.
type Mode int

const (
	// Counts emits every N processed events.
	Counts Mode = iota
	// Intervals emits whenever grid time advances past the interval.
	Intervals
	// Both runs and advances both sub-strategies, emitting when either fires.
	Both
)

func (m Mode) String() string {
	switch m {
	case Counts:
		return "counts"
	case Intervals:
		return "intervals"
	case Both:
		return "both"
	}
	return "unknown"
}

// Options selects the cadence. Nil fields were not supplied by the caller;
// an explicitly supplied Interval alongside EveryN means Both, while EveryN
// alone means Counts (the interval default is only a placeholder).
type Options struct {
	EveryN   *int
	Interval *time.Duration
}

// Strategy carries the mutable emit-decision state across one replay pass.
// It is not safe for concurrent use; the replay core is a single pass.
type Strategy struct {
	mode     Mode
	everyN   int
	interval time.Duration

	started  bool
	count    int
	lastEmit time.Time
	hasLast  bool
}

// New resolves the mode from the supplied options and returns an armed
// strategy. Supplying neither option is a configuration error.
func New(opts Options) (*Strategy, error) {
	if opts.EveryN == nil && opts.Interval == nil {
		return nil, ErrNoCadence
	}
	if opts.EveryN != nil && *opts.EveryN <= 0 {
		return nil, errors.New("cadence: event count threshold must be positive")
	}
	if opts.Interval != nil && *opts.Interval <= 0 {
		return nil, errors.New("cadence: interval must be positive")
	}

	s := &Strategy{interval: DefaultInterval}
	switch {
	case opts.EveryN == nil:
		s.mode = Intervals
		if opts.Interval != nil {
			s.interval = *opts.Interval
		}
	case opts.Interval == nil:
		s.mode = Counts
		s.everyN = *opts.EveryN
	default:
		s.mode = Both
		s.everyN = *opts.EveryN
		s.interval = *opts.Interval
	}
	return s, nil
}

// Mode returns the resolved cadence mode.
func (s *Strategy) Mode() Mode {
	return s.mode
}

// ResetForNewEra clears the interval reference time only. Downtime between
// eras would otherwise register as a long stretch of queued interval emits
// and freeze the timelapse on identical frames.
func (s *Strategy) ResetForNewEra() {
	s.hasLast = false
}

// ShouldEmit decides whether to emit a frame for an event at t. The very
// first call in a run always emits. When an interval emit fires, the caller
// should loop with suppressCount=true to flush any further queued interval
// emits for the same event without double-counting it.
func (s *Strategy) ShouldEmit(t time.Time, suppressCount bool) bool {
	switch s.mode {
	case Counts:
		return s.tickCount(suppressCount)
	case Intervals:
		return s.tickInterval(t)
	default:
		counts := s.tickCount(suppressCount)
		intervals := s.tickInterval(t)
		return counts || intervals
	}
}

func (s *Strategy) tickCount(suppress bool) bool {
	if !s.started {
		s.started = true
		s.count = 0
		return true
	}
	if suppress {
		return false
	}
	s.count++
	if s.count%s.everyN == 0 {
		s.count = 0
		return true
	}
	return false
}

func (s *Strategy) tickInterval(t time.Time) bool {
	if !s.hasLast {
		s.hasLast = true
		s.lastEmit = t
		return true
	}
	if t.Sub(s.lastEmit) > s.interval {
		// Advance by exactly one interval rather than jumping to t, so a
		// large time gap queues several emits and the timelapse keeps an
		// even temporal spacing.
		s.lastEmit = s.lastEmit.Add(s.interval)
		return true
	}
	return false
}
