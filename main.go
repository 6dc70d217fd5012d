package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/arenasim/config"
	"github.com/pthm-cable/arenasim/dataset"
	"github.com/pthm-cable/arenasim/telemetry"
)

func main() {
	// CLI flags; each overrides its config value only when set
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for labels, run stats and config snapshot (empty disables file output)")
	seed := flag.Int64("seed", 0, "Base RNG seed; run i uses seed+i")
	runs := flag.Int("runs", 0, "Number of independent simulations")
	frames := flag.Int("frames", 0, "Frames per simulation")
	workers := flag.Int("workers", 0, "Simulations run concurrently")
	logStats := flag.Bool("log-stats", false, "Output per-run stats via slog")
	sqlite := flag.Bool("sqlite", false, "Also write labels to a SQLite database")
	timeSeed := flag.Bool("time-seed", false, "Seed from the current time")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output-dir":
			cfg.Output.Dir = *outputDir
		case "seed":
			cfg.Simulation.Seed = *seed
		case "runs":
			cfg.Simulation.Runs = *runs
		case "frames":
			cfg.Simulation.Frames = *frames
		case "workers":
			cfg.Simulation.Workers = *workers
		case "log-stats":
			cfg.Telemetry.LogStats = *logStats
		case "sqlite":
			cfg.Output.SQLite = *sqlite
		}
	})
	if *timeSeed {
		cfg.Simulation.Seed = time.Now().UnixNano()
	}
	if err := cfg.Finalize(); err != nil {
		slog.Error("invalid flags", "error", err)
		os.Exit(1)
	}

	out, err := telemetry.NewOutputManager(cfg.Output)
	if err != nil {
		slog.Error("failed to open output", "error", err)
		os.Exit(1)
	}
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting dataset generation",
		"seed", cfg.Simulation.Seed,
		"runs", cfg.Simulation.Runs,
		"frames", cfg.Simulation.Frames,
		"agents", len(cfg.Agent.IDs),
		"workers", cfg.Simulation.Workers,
		"visibility", cfg.Navigation.Visibility,
		"include_peers", cfg.Navigation.IncludePeers,
		"output_dir", out.Dir(),
	)

	start := time.Now()
	results, err := dataset.NewRunner(cfg, out, logger).Run(ctx)
	closeErr := out.Close()
	if err != nil {
		slog.Error("dataset generation failed", "error", err)
		os.Exit(1)
	}
	if closeErr != nil {
		slog.Error("failed to flush output", "error", closeErr)
		os.Exit(1)
	}

	var records int
	for _, r := range results {
		records += r.Labels.Records()
	}
	slog.Info("dataset complete",
		"runs", len(results),
		"records", records,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
