package telemetry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// Output file names.
const (
	LabelsJSONFile = "labels.json"
	LabelsCSVFile  = "labels.csv"
	LabelsDBFile   = "labels.db"
	RunsCSVFile    = "runs.csv"
	PerfCSVFile    = "perf.csv"
	ConfigFile     = "config.yaml"
)

// Sink persists run labels. Runs are written in run order; Close flushes.
type Sink interface {
	WriteRun(labels RunLabels) error
	Close() error
}

// JSONSink writes every run's agent groups into one labels.json array.
// The file is written on Close, replacing any existing file.
type JSONSink struct {
	path   string
	agents []AgentLabels
}

// NewJSONSink creates a JSON sink writing to path.
func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path, agents: []AgentLabels{}}
}

// WriteRun implements Sink.
func (s *JSONSink) WriteRun(labels RunLabels) error {
	s.agents = append(s.agents, labels.Agents...)
	return nil
}

// Close implements Sink.
func (s *JSONSink) Close() error {
	data, err := json.MarshalIndent(s.agents, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling labels: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", LabelsJSONFile, err)
	}
	return nil
}

// CSVSink streams flat label rows to labels.csv.
type CSVSink struct {
	file          *os.File
	headerWritten bool
}

// NewCSVSink creates (or truncates) the CSV file at path.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", LabelsCSVFile, err)
	}
	return &CSVSink{file: f}, nil
}

// WriteRun implements Sink.
func (s *CSVSink) WriteRun(labels RunLabels) error {
	if err := appendCSV(s.file, labels.Rows(), &s.headerWritten); err != nil {
		return fmt.Errorf("writing labels: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *CSVSink) Close() error {
	return s.file.Close()
}

// appendCSV writes records, emitting the header only on the first call.
func appendCSV[T any](f *os.File, records []T, headerWritten *bool) error {
	if len(records) == 0 {
		return nil
	}
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// ReadLabelsCSV parses a labels.csv file.
func ReadLabelsCSV(path string) ([]LabelRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening labels: %w", err)
	}
	defer f.Close()

	var rows []LabelRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}
	return rows, nil
}
