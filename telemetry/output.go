package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gloam/config"
)

// ExposureSample is one tick of the eye adaptation trace.
type ExposureSample struct {
	Tick     int32   `csv:"tick"`
	ViewerX  float32 `csv:"viewer_x"`
	ViewerY  float32 `csv:"viewer_y"`
	Exposure float64 `csv:"exposure"`
	Target   float64 `csv:"target"`
	Accel    float64 `csv:"accel"`
}

// RebuildRecord is one lighting rebuild.
type RebuildRecord struct {
	Tick        int32   `csv:"tick"`
	Mode        string  `csv:"mode"`
	Sources     int     `csv:"sources"`
	Skipped     int     `csv:"skipped"`
	Propagated  int     `csv:"propagated"`
	MeanLux     float64 `csv:"mean_lux"`
	ExposureLux float64 `csv:"exposure_lux"`
	DurationUS  int64   `csv:"duration_us"`
}

// csvLog is an append-only CSV file whose header is written with the first record.
type csvLog struct {
	name          string
	file          *os.File
	headerWritten bool
}

func openCSVLog(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{name: name, file: f}, nil
}

func (l *csvLog) write(records any) error {
	if !l.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, l.file); err != nil {
			return fmt.Errorf("writing %s: %w", l.name, err)
		}
		l.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, l.file); err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	return nil
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	stats     *csvLog
	perf      *csvLog
	bookmarks *csvLog
	exposure  *csvLog
	rebuilds  *csvLog
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	logs := []struct {
		dst  **csvLog
		name string
	}{
		{&om.stats, "stats.csv"},
		{&om.perf, "perf.csv"},
		{&om.bookmarks, "bookmarks.csv"},
		{&om.exposure, "exposure.csv"},
		{&om.rebuilds, "rebuilds.csv"},
	}
	for _, l := range logs {
		log, err := openCSVLog(dir, l.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*l.dst = log
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteStats writes a window stats record to stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.stats.write([]WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// WriteExposure writes one tick of the exposure trace to exposure.csv.
func (om *OutputManager) WriteExposure(s ExposureSample) error {
	if om == nil {
		return nil
	}
	return om.exposure.write([]ExposureSample{s})
}

// WriteRebuild writes a lighting rebuild record to rebuilds.csv.
func (om *OutputManager) WriteRebuild(r RebuildRecord) error {
	if om == nil {
		return nil
	}
	return om.rebuilds.write([]RebuildRecord{r})
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, l := range []*csvLog{om.stats, om.perf, om.bookmarks, om.exposure, om.rebuilds} {
		if l == nil {
			continue
		}
		if err := l.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
