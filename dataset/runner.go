// Package dataset runs independent simulations and collects their labels.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/arenasim/config"
	"github.com/pthm-cable/arenasim/scenario"
	"github.com/pthm-cable/arenasim/telemetry"
)

// runNamespace scopes run IDs so the same seed and index always map to the same ID.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("arenasim/run"))

// RunID returns the deterministic identifier of run index run under seed.
func RunID(seed int64, run int) string {
	return uuid.NewSHA1(runNamespace, []byte(strconv.FormatInt(seed, 10)+"/"+strconv.Itoa(run))).String()
}

// Result is the output of one simulation run.
type Result struct {
	Labels  telemetry.RunLabels
	Stats   telemetry.RunStats
	Perf    telemetry.PerfStats
	Elapsed time.Duration
}

// Runner executes cfg.Simulation.Runs simulations of cfg.Simulation.Frames frames.
type Runner struct {
	cfg    *config.Config
	out    *telemetry.OutputManager
	logger *slog.Logger
}

// NewRunner creates a runner. out may be nil to skip writing files.
func NewRunner(cfg *config.Config, out *telemetry.OutputManager, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, out: out, logger: logger}
}

// Run executes every run, at most cfg.Simulation.Workers at a time, and
// writes the results in run order. The first failing run cancels the others
// and nothing is written.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	sc := r.cfg.Simulation
	results := make([]Result, sc.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(sc.Workers, 1))
	for i := 0; i < sc.Runs; i++ {
		g.Go(func() error {
			res, err := r.RunOne(gctx, i)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		if err := r.write(res); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (r *Runner) write(res Result) error {
	if err := r.out.WriteRun(res.Labels); err != nil {
		return err
	}
	if err := r.out.WriteRunStats(res.Stats); err != nil {
		return err
	}
	if err := r.out.WritePerf(res.Perf, res.Labels.Run); err != nil {
		return err
	}
	if r.cfg.Telemetry.LogStats {
		r.logger.Info("run", "stats", res.Stats, "perf", res.Perf)
	}
	return nil
}

// RunOne builds and steps a single simulation. Its RNG is seeded with
// seed + run, so a run's labels do not depend on scheduling. Cancellation
// is checked between frames.
func (r *Runner) RunOne(ctx context.Context, run int) (Result, error) {
	start := time.Now()
	seed := r.cfg.Simulation.Seed + int64(run)
	runID := RunID(r.cfg.Simulation.Seed, run)
	log := r.logger.With("run", run, "run_id", runID)

	s, err := scenario.Build(r.cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		return Result{}, fmt.Errorf("run %d: %w", run, err)
	}

	labels := telemetry.NewLabelBuilder(run, runID, seed)
	collector := telemetry.NewRunCollector()
	collector.Start(s.Agents())
	perf := telemetry.NewPerfCollector(r.cfg.Telemetry.PerfCollectorWindow)

	for frame := 0; frame < r.cfg.Simulation.Frames; frame++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("run %d: %w", run, err)
		}

		perf.StartFrame()
		perf.Enter(telemetry.PhaseStep)
		if err := s.Step(frame); err != nil {
			log.Error("step failed", "frame", frame, "error", err)
			return Result{}, fmt.Errorf("run %d: %w", run, err)
		}
		perf.Enter(telemetry.PhaseLabels)
		labels.Add(s.Poses())
		perf.Enter(telemetry.PhaseStats)
		collector.Observe(s.Agents())
		perf.EndFrame()
	}

	res := Result{
		Labels:  labels.Labels(),
		Stats:   collector.Stats(run, runID),
		Perf:    perf.Stats(),
		Elapsed: time.Since(start),
	}
	log.Debug("run complete",
		"frames", r.cfg.Simulation.Frames,
		"agents", s.Len(),
		"records", res.Labels.Records(),
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res, nil
}
