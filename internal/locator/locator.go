// Package locator maps timestamps onto the on-disk snapshot and log files
// of the archive. Data lives under <root>/<era>/; snapshots capture
// end-of-previous-day state, so reconstructing an intra-day point means
// loading the snapshot named for the day before and replaying that day's log.
package locator

import (
	"path/filepath"
	"time"

	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/era"
)

// DefaultDataDir is where the archive is expected when no override is given.
const DefaultDataDir = "./omcb-data"

// Locator resolves snapshot and log paths under a data root.
type Locator struct {
	dataDir string
}

// New creates a locator rooted at dataDir; an empty dataDir uses the default.
func New(dataDir string) *Locator {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	return &Locator{dataDir: dataDir}
}

// DataDir returns the configured data root.
func (l *Locator) DataDir() string {
	return l.dataDir
}

func (l *Locator) eraPath(id era.ID, name string) string {
	return filepath.Join(l.dataDir, string(id), name)
}

// SnapshotPath returns the snapshot covering date. If date falls on the same
// day the era started, that's the era's initial snapshot; otherwise it is the
// rollover snapshot for the preceding day.
func (l *Locator) SnapshotPath(date time.Time) (string, error) {
	id, err := era.ForTime(date)
	if err != nil {
		return "", err
	}
	return l.SnapshotPathInEra(date, id)
}

// SnapshotPathInEra is SnapshotPath with the era already resolved.
func (l *Locator) SnapshotPathInEra(date time.Time, id era.ID) (string, error) {
	start, err := era.StartOf(id)
	if err != nil {
		return "", err
	}
	if start.Day() == date.Day() {
		return l.eraPath(id, "initial.db"), nil
	}
	d := date.AddDate(0, 0, -1)
	name := "snapshot." + d.Format("2006-01-02") + ".db"
	return l.eraPath(id, name), nil
}

// LogPath returns the event log for date's own calendar day.
func (l *Locator) LogPath(date time.Time) (string, error) {
	id, err := era.ForTime(date)
	if err != nil {
		return "", err
	}
	return l.LogPathInEra(date, id), nil
}

// LogPathInEra is LogPath with the era already resolved.
func (l *Locator) LogPathInEra(date time.Time, id era.ID) string {
	name := "logs." + date.Format("2006-01-02") + ".txt"
	return l.eraPath(id, name)
}
