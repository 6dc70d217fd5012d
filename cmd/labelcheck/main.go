// Label checker - validates the run/agent/frame grouping of a labels.csv file.
//
// Usage: go run ./cmd/labelcheck -labels out/labels.csv
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/arenasim/telemetry"
)

func main() {
	labelsPath := flag.String("labels", telemetry.LabelsCSVFile, "Path to labels.csv")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rows, err := telemetry.ReadLabelsCSV(*labelsPath)
	if err != nil {
		slog.Error("failed to read labels", "path", *labelsPath, "error", err)
		os.Exit(1)
	}

	sum, err := telemetry.CheckLabels(rows)
	if err != nil {
		slog.Error("labels invalid", "path", *labelsPath, "error", err)
		os.Exit(1)
	}

	slog.Info("labels ok",
		"path", *labelsPath,
		"runs", sum.Runs,
		"agents", sum.Agents,
		"frames", sum.Frames,
		"rows", sum.Rows,
	)
}
