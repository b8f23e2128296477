package grid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestStateBitOrder(t *testing.T) {
	st := NewState()

	// Cell 0 is the high bit of byte 0.
	st.Set(0, 1)
	if st[0] != 0x80 {
		t.Errorf("byte 0 after Set(0,1): got %#x, want 0x80", st[0])
	}
	st.Set(7, 1)
	if st[0] != 0x81 {
		t.Errorf("byte 0 after Set(7,1): got %#x, want 0x81", st[0])
	}
	st.Set(0, 0)
	if st[0] != 0x01 {
		t.Errorf("byte 0 after Set(0,0): got %#x, want 0x01", st[0])
	}
	if st.Get(7) != 1 || st.Get(0) != 0 || st.Get(6) != 0 {
		t.Errorf("Get: got (%d,%d,%d), want (1,0,0)", st.Get(7), st.Get(0), st.Get(6))
	}

	st.Set(Cells-1, 1)
	if st[SnapshotBytes-1] != 0x01 {
		t.Errorf("last byte after Set(last,1): got %#x, want 0x01", st[SnapshotBytes-1])
	}
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()

	full := filepath.Join(dir, "full.db")
	payload := make([]byte, SnapshotBytes)
	payload[0] = 0xA5
	if err := os.WriteFile(full, payload, 0644); err != nil {
		t.Fatal(err)
	}
	st, err := LoadSnapshot(full)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if st[0] != 0xA5 || len(st) != SnapshotBytes {
		t.Errorf("loaded state: byte0=%#x len=%d", st[0], len(st))
	}

	short := filepath.Join(dir, "short.db")
	if err := os.WriteFile(short, payload[:100], 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(short); !errors.Is(err, ErrShortSnapshot) {
		t.Errorf("short snapshot: got %v, want ErrShortSnapshot", err)
	}

	if _, err := LoadSnapshot(filepath.Join(dir, "missing.db")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing snapshot: got %v, want ErrNotExist", err)
	}
}

func TestParseLine(t *testing.T) {
	ev, err := ParseLine("  2024-06-26T19:05:00|42|1\n")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !ev.Time.Equal(ts("2024-06-26T19:05:00")) || ev.Cell != 42 || ev.Value != "1" {
		t.Errorf("ParseLine: got %+v", ev)
	}

	bad := []string{
		"2024-06-26T19:05:00|42",
		"not-a-time|42|1",
		"2024-06-26T19:05:00|checkbox|1",
		"2024-06-26T19:05:00|1000000|1",
		"2024-06-26T19:05:00|-1|1",
	}
	for _, line := range bad {
		var pe *ParseError
		if _, err := ParseLine(line); !errors.As(err, &pe) {
			t.Errorf("ParseLine(%q): got %v, want ParseError", line, err)
		}
	}
}

func TestApply_Cutoffs(t *testing.T) {
	st := NewState()
	ev := Event{Time: ts("2024-06-26T19:05:00"), Cell: 42, Value: "1"}

	// Before the window: no mutation, keep reading.
	status, err := st.Apply(ev, ts("2024-06-26T19:06:00"), time.Time{})
	if err != nil || status != BeforeFirst {
		t.Fatalf("before window: got (%v, %v), want (BeforeFirst, nil)", status, err)
	}
	if st.Get(42) != 0 {
		t.Error("before window: state mutated")
	}

	// Past the window: no mutation, stop.
	status, err = st.Apply(ev, time.Time{}, ts("2024-06-26T19:04:00"))
	if err != nil || status != PastLast {
		t.Fatalf("past window: got (%v, %v), want (PastLast, nil)", status, err)
	}
	if st.Get(42) != 0 {
		t.Error("past window: state mutated")
	}

	// Inside the window: applied.
	status, err = st.Apply(ev, ts("2024-06-26T19:00:00"), ts("2024-06-26T19:10:00"))
	if err != nil || status != Continue {
		t.Fatalf("inside window: got (%v, %v), want (Continue, nil)", status, err)
	}
	if st.Get(42) != 1 {
		t.Error("inside window: state not mutated")
	}
}

func TestApply_BadValue(t *testing.T) {
	st := NewState()
	ev := Event{Time: ts("2024-06-26T19:05:00"), Cell: 42, Value: "7"}

	var pe *ParseError
	if _, err := st.Apply(ev, time.Time{}, time.Time{}); !errors.As(err, &pe) {
		t.Fatalf("bad value: got %v, want ParseError", err)
	}

	// A bad value past the cutoff is never inspected.
	status, err := st.Apply(ev, time.Time{}, ts("2024-06-26T19:00:00"))
	if err != nil || status != PastLast {
		t.Errorf("bad value past cutoff: got (%v, %v), want (PastLast, nil)", status, err)
	}
}

func TestApply_Idempotent(t *testing.T) {
	once := NewState()
	twice := NewState()
	ev := Event{Time: ts("2024-06-26T19:05:00"), Cell: 7, Value: "1"}

	if _, err := once.Apply(ev, time.Time{}, time.Time{}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := twice.Apply(ev, time.Time{}, time.Time{}); err != nil {
			t.Fatal(err)
		}
	}
	if once.Get(7) != twice.Get(7) {
		t.Error("idempotence: applying twice changed the result")
	}
}

func TestReplayTo_Cutoff(t *testing.T) {
	dir := t.TempDir()

	snap := filepath.Join(dir, "initial.db")
	if err := os.WriteFile(snap, make([]byte, SnapshotBytes), 0644); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "logs.txt")
	lines := "2024-06-26T19:05:00|42|1\n2024-06-26T19:06:00|42|0\n"
	if err := os.WriteFile(logPath, []byte(lines), 0644); err != nil {
		t.Fatal(err)
	}

	st, err := LoadSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.ReplayTo(logPath, ts("2024-06-26T19:05:30")); err != nil {
		t.Fatal(err)
	}

	// The second event is past the cutoff, so the cell stays set.
	if st.Get(42) != 1 {
		t.Errorf("cell 42: got %d, want 1", st.Get(42))
	}
}

func TestReplayTo_MissingLog(t *testing.T) {
	st := NewState()
	err := st.ReplayTo(filepath.Join(t.TempDir(), "nope.txt"), ts("2024-06-26T19:05:30"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing log: got %v, want ErrNotExist", err)
	}
}

func TestCountersAccumulate(t *testing.T) {
	old := NewState()
	cur := NewState()
	cur.Set(10, 1)
	cur.Set(20, 1)

	c := NewCounters()
	c.Accumulate(cur, old)

	for i, v := range c {
		want := 0
		if i == 10 || i == 20 {
			want = 1
		}
		if v != want {
			t.Fatalf("counters[%d]: got %d, want %d", i, v, want)
		}
	}

	// Accumulating identical states changes nothing.
	c.Accumulate(cur, cur)
	if c[10] != 1 || c[20] != 1 {
		t.Errorf("identical states: counters moved to (%d,%d)", c[10], c[20])
	}
	if c.Max() != 1 {
		t.Errorf("Max: got %d, want 1", c.Max())
	}
}
