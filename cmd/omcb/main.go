// Command omcb reconstructs and renders historical One Million Checkboxes
// grid state from per-era snapshots and event logs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/cadence"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/config"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/locator"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/render"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/replay"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/timeparse"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [flags] <args>

Commands:
  state-at-time  [-data-directory D] -o OUT <datetime>
        Write the raw packed grid state at an instant.
  image-at-time  [-data-directory D] -o OUT <datetime>
        Render the grid state at an instant as a PNG.
  timelapse      [-data-directory D] -o OUT [-n N] [-i SECONDS] <start> <end>
        Render a timelapse video over a window.
  heatmap        [-data-directory D] -o OUT [-n N] [-i SECONDS] [-l ORDER] <start> <end>
        Render a change-frequency heatmap over a window.

Datetimes are ISO-8601, UTC when no zone is given. <end> may also be a span
in hours relative to <start> (e.g. 12h or 1.5).
`, os.Args[0])
	os.Exit(2)
}

func main() {
	log.SetFlags(log.LstdFlags)

	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()

	var err error
	switch os.Args[1] {
	case "state-at-time":
		err = runStateAtTime(cfg, os.Args[2:])
	case "image-at-time":
		err = runImageAtTime(cfg, os.Args[2:])
	case "timelapse":
		err = runWindowed(cfg, "timelapse", os.Args[2:])
	case "heatmap":
		err = runWindowed(cfg, "heatmap", os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

// commonFlags registers the flags every subcommand shares
func commonFlags(fs *flag.FlagSet, cfg *config.Config) (dataDir, out *string) {
	dataDir = fs.String("data-directory", cfg.DataDir, "root directory of snapshot and log data")
	out = fs.String("o", "", "output file (required)")
	return dataDir, out
}

func runStateAtTime(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("state-at-time", flag.ExitOnError)
	dataDir, out := commonFlags(fs, cfg)
	fs.Parse(args)

	if *out == "" || fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: state-at-time [-data-directory D] -o OUT <datetime>")
		os.Exit(2)
	}

	t, err := timeparse.Datetime(fs.Arg(0))
	if err != nil {
		return err
	}

	driver := replay.New(locator.New(*dataDir), render.NewFFmpeg(cfg.FFmpeg))
	state, err := driver.StateAt(t)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, state, 0644); err != nil {
		return fmt.Errorf("failed to write state dump: %w", err)
	}
	log.Printf("Wrote state at %s to %s", t.Format(time.RFC3339), *out)
	return nil
}

func runImageAtTime(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("image-at-time", flag.ExitOnError)
	dataDir, out := commonFlags(fs, cfg)
	fs.Parse(args)

	if *out == "" || fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: image-at-time [-data-directory D] -o OUT <datetime>")
		os.Exit(2)
	}

	t, err := timeparse.Datetime(fs.Arg(0))
	if err != nil {
		return err
	}

	renderer := render.NewFFmpeg(cfg.FFmpeg)
	if err := renderer.Check(); err != nil {
		return err
	}

	driver := replay.New(locator.New(*dataDir), renderer)
	state, err := driver.StateAt(t)
	if err != nil {
		return err
	}

	outPath := defaultExt(*out, ".png")
	if err := renderer.StillImage(state, outPath); err != nil {
		return err
	}
	log.Printf("Wrote image at %s to %s", t.Format(time.RFC3339), outPath)
	return nil
}

// runWindowed handles the two window-replay subcommands, which share their
// argument surface apart from the heatmap's log order.
func runWindowed(cfg *config.Config, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	dataDir, out := commonFlags(fs, cfg)
	everyN := fs.Int("n", 0, "emit a frame every N applied events")
	intervalSecs := fs.Int("i", int(cadence.DefaultInterval.Seconds()), "emit a frame every SECONDS of grid time")
	logOrder := fs.Int("l", 0, "rounds of log scaling for heatmap intensity")
	fs.Parse(args)

	if *out == "" || fs.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-data-directory D] -o OUT [-n N] [-i SECONDS] <start> <end>\n", command)
		os.Exit(2)
	}

	start, err := timeparse.Datetime(fs.Arg(0))
	if err != nil {
		return err
	}
	windowEnd, err := timeparse.DatetimeOrSpan(fs.Arg(1))
	if err != nil {
		return err
	}
	end, relative := windowEnd.Resolve(start)
	if relative {
		log.Printf("Spanning %s to %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	// Only an interval flag the user actually supplied should combine with
	// -n; the default interval applies when no cadence is given at all.
	intervalSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			intervalSet = true
		}
	})

	var opts cadence.Options
	if *everyN != 0 {
		opts.EveryN = everyN
	}
	if intervalSet || *everyN == 0 {
		interval := time.Duration(*intervalSecs) * time.Second
		opts.Interval = &interval
	}

	strategy, err := cadence.New(opts)
	if err != nil {
		return err
	}

	renderer := render.NewFFmpeg(cfg.FFmpeg)
	if err := renderer.Check(); err != nil {
		return err
	}

	driver := replay.New(locator.New(*dataDir), renderer)
	replayOpts := replay.Options{Start: start, End: end, Strategy: strategy}

	if command == "heatmap" {
		order := *logOrder
		if order < 0 {
			order = 0
		}
		return driver.Heatmap(replayOpts, order, defaultExt(*out, ".png"))
	}
	return driver.Timelapse(replayOpts, *out)
}

// defaultExt appends ext when path has no extension
func defaultExt(path, ext string) string {
	if filepath.Ext(path) == "" {
		return path + ext
	}
	return path
}
