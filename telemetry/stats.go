package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/arenasim/sim"
)

// RunStats summarizes the motion of one simulation run.
type RunStats struct {
	Run    int    `csv:"run"`
	RunID  string `csv:"run_id"`
	Frames int    `csv:"frames"`
	Agents int    `csv:"agents"`

	// Speed distribution over all agent-frames
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	ScanMean float64 `csv:"scan_mean"`

	// Turning behaviour
	TurningFrac  float64 `csv:"turning_frac"`  // share of agent-frames spent turning
	TurnEpisodes int     `csv:"turn_episodes"` // Moving -> Turning transitions

	// Distance travelled per agent
	PathMean float64 `csv:"path_mean"`
	PathStd  float64 `csv:"path_std"`
}

// Quantiles returns the p-quantiles of values using the empirical CDF.
// Returns zeros if values is empty.
func Quantiles(values []float64, ps ...float64) []float64 {
	out := make([]float64, len(ps))
	if len(values) == 0 {
		return out
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	for i, p := range ps {
		out[i] = stat.Quantile(p, stat.Empirical, sorted, nil)
	}
	return out
}

// RunCollector accumulates per-frame agent state for one run and produces RunStats.
type RunCollector struct {
	frames   int
	speeds   []float64
	scans    []float64
	turning  int
	episodes int

	prev    map[string]sim.AgentState
	order   []string
	pathLen map[string]float64
}

// NewRunCollector creates an empty collector.
func NewRunCollector() *RunCollector {
	return &RunCollector{
		prev:    make(map[string]sim.AgentState),
		pathLen: make(map[string]float64),
	}
}

// Start records the initial agent states. It does not count as a frame.
func (c *RunCollector) Start(states []sim.AgentState) {
	for _, st := range states {
		if _, ok := c.prev[st.ID]; !ok {
			c.order = append(c.order, st.ID)
		}
		c.prev[st.ID] = st
	}
}

// Observe records agent states after one frame.
func (c *RunCollector) Observe(states []sim.AgentState) {
	c.frames++
	for _, st := range states {
		c.speeds = append(c.speeds, st.Kinematics.Speed)
		c.scans = append(c.scans, st.Kinematics.ScanRadius)

		prev, seen := c.prev[st.ID]
		if !seen {
			c.order = append(c.order, st.ID)
		}
		if st.Navigation.IsTurning() {
			c.turning++
			if !seen || !prev.Navigation.IsTurning() {
				c.episodes++
			}
		}
		if seen {
			c.pathLen[st.ID] += math.Hypot(st.Pose.X-prev.Pose.X, st.Pose.Y-prev.Pose.Y)
		}
		c.prev[st.ID] = st
	}
}

// Stats computes the run summary.
func (c *RunCollector) Stats(run int, runID string) RunStats {
	s := RunStats{
		Run:          run,
		RunID:        runID,
		Frames:       c.frames,
		Agents:       len(c.order),
		TurnEpisodes: c.episodes,
	}
	if len(c.speeds) == 0 {
		return s
	}

	s.SpeedMean = stat.Mean(c.speeds, nil)
	q := Quantiles(c.speeds, 0.10, 0.50, 0.90)
	s.SpeedP10, s.SpeedP50, s.SpeedP90 = q[0], q[1], q[2]
	s.ScanMean = stat.Mean(c.scans, nil)
	s.TurningFrac = float64(c.turning) / float64(len(c.speeds))

	paths := make([]float64, len(c.order))
	for i, id := range c.order {
		paths[i] = c.pathLen[id]
	}
	if len(paths) > 1 {
		s.PathMean, s.PathStd = stat.MeanStdDev(paths, nil)
	} else {
		s.PathMean = paths[0]
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s RunStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("run", s.Run),
		slog.String("run_id", s.RunID),
		slog.Int("frames", s.Frames),
		slog.Int("agents", s.Agents),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("scan_mean", s.ScanMean),
		slog.Float64("turning_frac", s.TurningFrac),
		slog.Int("turn_episodes", s.TurnEpisodes),
		slog.Float64("path_mean", s.PathMean),
		slog.Float64("path_std", s.PathStd),
	)
}
