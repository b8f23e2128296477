package cadence

import (
	"errors"
	"testing"
	"time"
)

func intp(n int) *int                         { return &n }
func durp(d time.Duration) *time.Duration     { return &d }
func at(base time.Time, d time.Duration) time.Time { return base.Add(d) }

var t0 = time.Date(2024, 6, 26, 19, 5, 0, 0, time.UTC)

func TestNew_ModeResolution(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Mode
	}{
		{"only count", Options{EveryN: intp(10)}, Counts},
		{"only interval", Options{Interval: durp(3 * time.Second)}, Intervals},
		{"both explicit", Options{EveryN: intp(10), Interval: durp(3 * time.Second)}, Both},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.opts)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if s.Mode() != tt.want {
				t.Errorf("mode: got %s, want %s", s.Mode(), tt.want)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoCadence) {
		t.Errorf("no options: got %v, want ErrNoCadence", err)
	}
	if _, err := New(Options{EveryN: intp(0)}); err == nil {
		t.Error("zero count: expected error")
	}
	if _, err := New(Options{Interval: durp(-time.Second)}); err == nil {
		t.Error("negative interval: expected error")
	}
}

func TestCounts_ThresholdAndReset(t *testing.T) {
	s, err := New(Options{EveryN: intp(3)})
	if err != nil {
		t.Fatal(err)
	}

	// First decision always emits.
	if !s.ShouldEmit(t0, false) {
		t.Fatal("first call: expected emit")
	}

	// Then only every third call.
	want := []bool{false, false, true, false, false, true}
	for i, w := range want {
		got := s.ShouldEmit(at(t0, time.Duration(i)*time.Second), false)
		if got != w {
			t.Errorf("call %d: got %v, want %v", i+1, got, w)
		}
	}
}

func TestCounts_SuppressDoesNotAdvance(t *testing.T) {
	s, err := New(Options{EveryN: intp(2)})
	if err != nil {
		t.Fatal(err)
	}
	s.ShouldEmit(t0, false) // arm

	if s.ShouldEmit(t0, true) {
		t.Error("suppressed call: expected no emit")
	}
	// Two unsuppressed calls still reach the threshold.
	if s.ShouldEmit(t0, false) {
		t.Error("count 1: expected no emit")
	}
	if !s.ShouldEmit(t0, false) {
		t.Error("count 2: expected emit")
	}
}

func TestIntervals_QueuedEmits(t *testing.T) {
	s, err := New(Options{Interval: durp(5 * time.Second)})
	if err != nil {
		t.Fatal(err)
	}

	if !s.ShouldEmit(t0, false) {
		t.Fatal("first call: expected emit")
	}

	// A 12s jump queues exactly two more emits when looped with suppression,
	// leaving the reference at t0+10s.
	jump := at(t0, 12*time.Second)
	emits := 0
	for s.ShouldEmit(jump, emits > 0) {
		emits++
	}
	if emits != 2 {
		t.Fatalf("12s jump: got %d emits, want 2", emits)
	}
	if s.lastEmit != at(t0, 10*time.Second) {
		t.Errorf("reference time: got %s, want %s", s.lastEmit, at(t0, 10*time.Second))
	}

	// 2s further is still inside the interval.
	if s.ShouldEmit(at(t0, 14*time.Second), false) {
		t.Error("t0+14s: expected no emit")
	}
}

func TestIntervals_DefaultInterval(t *testing.T) {
	s, err := New(Options{Interval: nil, EveryN: nil})
	if err == nil {
		t.Fatal("expected config error")
	}
	_ = s

	// The interval sub-strategy in Both mode defaults only when unset; here
	// an explicit 5s behaves like the documented default.
	s2, err := New(Options{Interval: durp(DefaultInterval)})
	if err != nil {
		t.Fatal(err)
	}
	s2.ShouldEmit(t0, false)
	if s2.ShouldEmit(at(t0, 5*time.Second), false) {
		t.Error("exactly one interval elapsed: expected no emit (strictly greater required)")
	}
	if !s2.ShouldEmit(at(t0, 5*time.Second+time.Millisecond), false) {
		t.Error("just past one interval: expected emit")
	}
}

func TestBoth_EitherTriggers(t *testing.T) {
	s, err := New(Options{EveryN: intp(3), Interval: durp(10 * time.Second)})
	if err != nil {
		t.Fatal(err)
	}

	if !s.ShouldEmit(t0, false) {
		t.Fatal("first call: expected emit")
	}

	// Interval quiet, count reaches threshold on the third call.
	if s.ShouldEmit(at(t0, time.Second), false) {
		t.Error("call 1: expected no emit")
	}
	if s.ShouldEmit(at(t0, 2*time.Second), false) {
		t.Error("call 2: expected no emit")
	}
	if !s.ShouldEmit(at(t0, 3*time.Second), false) {
		t.Error("call 3: expected count-driven emit")
	}

	// Count quiet, interval fires.
	if !s.ShouldEmit(at(t0, 15*time.Second), false) {
		t.Error("15s jump: expected interval-driven emit")
	}
}

func TestResetForNewEra(t *testing.T) {
	s, err := New(Options{Interval: durp(5 * time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	s.ShouldEmit(t0, false)
	s.ResetForNewEra()

	// After a reset the next call re-arms (and emits) instead of flushing
	// the whole downtime gap as queued frames.
	gap := at(t0, 6*time.Hour)
	if !s.ShouldEmit(gap, false) {
		t.Fatal("first call after reset: expected emit")
	}
	if s.ShouldEmit(at(gap, time.Second), false) {
		t.Error("1s after re-arm: expected no emit")
	}
}

func TestResetForNewEra_KeepsCount(t *testing.T) {
	s, err := New(Options{EveryN: intp(3), Interval: durp(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	s.ShouldEmit(t0, false)                  // arm both
	s.ShouldEmit(at(t0, time.Second), false) // count 1
	s.ShouldEmit(at(t0, 2*time.Second), false)

	s.ResetForNewEra()

	// Interval re-arms (emits), and the count sub-strategy was not reset:
	// this call also advances it to the threshold.
	if !s.ShouldEmit(at(t0, 3*time.Second), false) {
		t.Error("post-reset call: expected emit")
	}
	if s.count != 0 {
		t.Errorf("count after threshold: got %d, want 0", s.count)
	}
}
