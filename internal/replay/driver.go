// Package replay orchestrates reconstruction across a requested window:
// walking calendar days, crossing era boundaries, streaming event logs
// through the grid state, and emitting frames on cadence decisions.
package replay

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/cadence"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/era"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/grid"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/locator"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/render"
)

// VideoFramerate is the frame rate of assembled timelapse videos.
const VideoFramerate = 30

const clockFormat = "01/02 15:04:05"

// Driver runs full replay passes. It is single-threaded and not reentrant;
// one pass at a time.
type Driver struct {
	loc      *locator.Locator
	renderer render.Renderer
}

// New creates a replay driver over the given data root and renderer.
func New(loc *locator.Locator, renderer render.Renderer) *Driver {
	return &Driver{loc: loc, renderer: renderer}
}

// Options configures one timelapse or heatmap pass.
type Options struct {
	Start    time.Time
	End      time.Time
	Strategy *cadence.Strategy

	// OnFrame, when set, observes every emitted frame/checkpoint with the
	// grid time it represents. Used for job progress reporting.
	OnFrame func(count int, at time.Time)
}

// StateAt reconstructs the grid state at a single point in time: load the
// covering snapshot, then replay that day's log up to and including t.
func (d *Driver) StateAt(t time.Time) (grid.State, error) {
	if err := era.CheckRange(t); err != nil {
		return nil, err
	}
	snapPath, err := d.loc.SnapshotPath(t)
	if err != nil {
		return nil, err
	}
	logPath, err := d.loc.LogPath(t)
	if err != nil {
		return nil, err
	}

	state, err := grid.LoadSnapshot(snapPath)
	if err != nil {
		return nil, err
	}
	if err := state.ReplayTo(logPath, t); err != nil {
		return nil, err
	}
	return state, nil
}

// dateRange enumerates the calendar days covering [start, end], injecting
// the start of the next era wherever the window crosses an era boundary
// mid-range so the caller reloads state at that exact point.
func dateRange(start, end time.Time) []time.Time {
	var dates []time.Time
	for cur := start; !cur.After(end); {
		dates = append(dates, cur)

		for i := 0; i < len(era.Table)-1; i++ {
			boundary := era.Table[i].End
			if cur.Month() == boundary.Month() && cur.Day() == boundary.Day() &&
				cur.Before(boundary) && end.After(boundary) {
				dates = append(dates, era.Table[i+1].Start)
			}
		}

		cur = time.Date(cur.Year(), cur.Month(), cur.Day()+1, 0, 0, 0, 0, time.UTC)
	}
	return dates
}

// progressDescriptor renders "percent (start | current | end)" for frame logs.
func progressDescriptor(start, end, current time.Time) string {
	total := end.Sub(start).Seconds()
	percent := 0.0
	if total > 0 {
		percent = current.Sub(start).Seconds() / total * 100
	}
	return fmt.Sprintf("%6.2f%% (%s | %s | %s)",
		percent, start.Format(clockFormat), current.Format(clockFormat), end.Format(clockFormat))
}

// Timelapse replays [Start, End], writing a frame on every positive cadence
// decision plus one unconditional final frame, then assembles the frames
// into a video at outPath.
func (d *Driver) Timelapse(opts Options, outPath string) error {
	if err := era.ValidateWindow(opts.Start, opts.End); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "omcb-timelapse-")
	if err != nil {
		return fmt.Errorf("create frame directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)
	log.Printf("writing frames to %s", tmpDir)

	frameCount := 0
	emit := func(state grid.State, at time.Time, description string) error {
		frameCount++
		log.Printf("creating image %9d | %s", frameCount, description)
		name := filepath.Join(tmpDir, fmt.Sprintf("img-%09d.png", frameCount))
		if err := d.renderer.StillImage(state, name); err != nil {
			return err
		}
		if opts.OnFrame != nil {
			opts.OnFrame(frameCount, at)
		}
		return nil
	}

	var state grid.State
	prevEra := era.ID("")
	for _, date := range dateRange(opts.Start, opts.End) {
		id, err := era.ForTime(date)
		if err != nil {
			return err
		}
		if id != prevEra {
			// Each era has its own snapshots, and the downtime before it
			// must not render as frozen frames.
			prevEra = id
			log.Printf("begin %s %s", id, date.Format(time.RFC3339))
			opts.Strategy.ResetForNewEra()
			snapPath, err := d.loc.SnapshotPathInEra(date, id)
			if err != nil {
				return err
			}
			if state, err = grid.LoadSnapshot(snapPath); err != nil {
				return err
			}
		}

		err = d.streamLog(d.loc.LogPathInEra(date, id), &state, opts, func(at time.Time, suppress bool) (bool, error) {
			if !opts.Strategy.ShouldEmit(at, suppress) {
				return false, nil
			}
			return true, emit(state, at, progressDescriptor(opts.Start, opts.End, at))
		})
		if err != nil {
			return err
		}
	}

	if err := emit(state, opts.End, "FINAL IMAGE"); err != nil {
		return err
	}

	log.Printf("creating video...")
	if err := d.renderer.Video(tmpDir, outPath, VideoFramerate); err != nil {
		return err
	}
	log.Printf("created %s", outPath)
	return nil
}

// Heatmap replays [Start, End] accumulating per-cell change counts and
// renders them as a grayscale image at outPath. Every snapshot (re)load and
// cadence checkpoint diffs the freshly loaded era snapshot against the
// previously recorded state; the checkpoint path re-reads the era's current
// snapshot file rather than diffing the replayed in-memory state.
func (d *Driver) Heatmap(opts Options, logOrder int, outPath string) error {
	if err := era.ValidateWindow(opts.Start, opts.End); err != nil {
		return err
	}

	dates := dateRange(opts.Start, opts.End)
	counters := grid.NewCounters()

	firstSnap, err := d.loc.SnapshotPath(dates[0])
	if err != nil {
		return err
	}
	old, err := grid.LoadSnapshot(firstSnap)
	if err != nil {
		return fmt.Errorf("heatmap needs at least two states: %w", err)
	}

	checkpoints := 0
	var state grid.State
	var snapPath string
	prevEra := era.ID("")
	for _, date := range dates {
		id, err := era.ForTime(date)
		if err != nil {
			return err
		}
		if id != prevEra {
			prevEra = id
			log.Printf("begin %s %s", id, date.Format(time.RFC3339))
			opts.Strategy.ResetForNewEra()
			if snapPath, err = d.loc.SnapshotPathInEra(date, id); err != nil {
				return err
			}
			if state, err = grid.LoadSnapshot(snapPath); err != nil {
				return err
			}
			counters.Accumulate(state, old)
			old = state
		}

		err = d.streamLog(d.loc.LogPathInEra(date, id), &state, opts, func(at time.Time, suppress bool) (bool, error) {
			if !opts.Strategy.ShouldEmit(at, suppress) {
				return false, nil
			}
			checkpoints++
			log.Printf("checkpoint %9d | %s", checkpoints, progressDescriptor(opts.Start, opts.End, at))
			// Checkpoints restart the day from its on-disk snapshot, so the
			// diff runs against the events applied since the last checkpoint.
			reloaded, err := grid.LoadSnapshot(snapPath)
			if err != nil {
				return true, err
			}
			state = reloaded
			counters.Accumulate(state, old)
			old = state
			if opts.OnFrame != nil {
				opts.OnFrame(checkpoints, at)
			}
			return true, nil
		})
		if err != nil {
			return err
		}
	}

	if err := d.renderer.HeatmapImage(counters, logOrder, outPath); err != nil {
		return err
	}
	log.Printf("heatmap at %s", outPath)
	return nil
}

// streamLog feeds one day's log through the state, bounded by the window,
// and loops the cadence decision after every applied event (suppressing the
// count increment on repeat queries for the same event).
func (d *Driver) streamLog(path string, state *grid.State, opts Options, decide func(at time.Time, suppress bool) (bool, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ev, err := grid.ParseLine(scanner.Text())
		if err != nil {
			return err
		}
		status, err := state.Apply(ev, opts.Start, opts.End)
		if err != nil {
			return err
		}
		switch status {
		case grid.BeforeFirst:
			continue
		case grid.PastLast:
			return nil
		case grid.Continue:
			suppress := false
			for {
				emitted, err := decide(ev.Time, suppress)
				if err != nil {
					return err
				}
				if !emitted {
					break
				}
				suppress = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log %s: %w", path, err)
	}
	return nil
}
