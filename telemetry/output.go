package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/arenasim/config"
)

// OutputManager owns the dataset output directory: label sinks, run
// statistics and perf CSVs, and the config snapshot.
type OutputManager struct {
	dir      string
	sinks    []Sink
	runsFile *os.File
	perfFile *os.File

	// Track if headers have been written
	runsHeaderWritten bool
	perfHeaderWritten bool
}

// NewOutputManager creates the output directory and opens the sinks enabled
// in cfg. Existing label files are overwritten. Returns nil if cfg.Dir is
// empty (output disabled).
func NewOutputManager(cfg config.OutputConfig) (*OutputManager, error) {
	if cfg.Dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: cfg.Dir}
	fail := func(err error) (*OutputManager, error) {
		return nil, errors.Join(err, om.Close())
	}

	if cfg.JSON {
		om.sinks = append(om.sinks, NewJSONSink(filepath.Join(cfg.Dir, LabelsJSONFile)))
	}
	if cfg.CSV {
		s, err := NewCSVSink(filepath.Join(cfg.Dir, LabelsCSVFile))
		if err != nil {
			return fail(err)
		}
		om.sinks = append(om.sinks, s)
	}
	if cfg.SQLite {
		dbPath := filepath.Join(cfg.Dir, LabelsDBFile)
		if err := os.Remove(dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fail(fmt.Errorf("removing old %s: %w", LabelsDBFile, err))
		}
		s, err := OpenSQLiteSink(dbPath)
		if err != nil {
			return fail(err)
		}
		om.sinks = append(om.sinks, s)
	}

	f, err := os.Create(filepath.Join(cfg.Dir, RunsCSVFile))
	if err != nil {
		return fail(fmt.Errorf("creating %s: %w", RunsCSVFile, err))
	}
	om.runsFile = f

	f, err = os.Create(filepath.Join(cfg.Dir, PerfCSVFile))
	if err != nil {
		return fail(fmt.Errorf("creating %s: %w", PerfCSVFile, err))
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteRun passes one run's labels to every sink.
func (om *OutputManager) WriteRun(labels RunLabels) error {
	if om == nil {
		return nil
	}
	for _, s := range om.sinks {
		if err := s.WriteRun(labels); err != nil {
			return fmt.Errorf("run %d: %w", labels.Run, err)
		}
	}
	return nil
}

// WriteRunStats appends a run summary to runs.csv.
func (om *OutputManager) WriteRunStats(stats RunStats) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.runsFile, []RunStats{stats}, &om.runsHeaderWritten); err != nil {
		return fmt.Errorf("writing run stats: %w", err)
	}
	return nil
}

// WritePerf appends a run's frame timing to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, run int) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.perfFile, []PerfRow{stats.Row(run)}, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes the sinks and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var errs []error
	for _, s := range om.sinks {
		errs = append(errs, s.Close())
	}
	if om.runsFile != nil {
		errs = append(errs, om.runsFile.Close())
	}
	if om.perfFile != nil {
		errs = append(errs, om.perfFile.Close())
	}
	return errors.Join(errs...)
}
