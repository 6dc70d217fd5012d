package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of a dataset frame.
type Phase int

const (
	PhaseStep   Phase = iota // scan, controller and motion for every agent
	PhaseLabels              // pose export
	PhaseStats               // run statistics sampling
	numPhases
)

var phaseNames = [numPhases]string{"step", "labels", "stats"}

// String returns the phase name used in logs and CSV columns.
func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// frameTiming is the measured duration of one frame and its phases.
type frameTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times dataset frames, keeping the most recent window of them.
type PerfCollector struct {
	ring  []frameTiming
	next  int
	count int

	cur        frameTiming
	frameStart time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector keeping the last window frames.
// A window below 1 keeps 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]frameTiming, window)}
}

// StartFrame begins timing a frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.cur = frameTiming{}
	p.inPhase = false
}

// Enter closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) Enter(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = phase, now, true
}

// EndFrame closes the running phase and stores the frame in the window.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	p.closePhase(now)
	p.inPhase = false
	p.cur.total = now.Sub(p.frameStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase >= 0 && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// PerfStats summarizes the frames in the window.
type PerfStats struct {
	Frames int
	Mean   time.Duration
	P50    time.Duration
	P95    time.Duration
	Max    time.Duration

	// Mean duration per phase and its share of the mean frame, in percent.
	PhaseMean  [numPhases]time.Duration
	PhaseShare [numPhases]float64

	FramesPerSecond float64
}

// Stats summarizes the current window. An empty window yields zero stats.
func (p *PerfCollector) Stats() PerfStats {
	if p.count == 0 {
		return PerfStats{}
	}

	totals := make([]float64, p.count)
	var phaseSum [numPhases]time.Duration
	for i, f := range p.ring[:p.count] {
		totals[i] = float64(f.total)
		for ph, d := range f.phases {
			phaseSum[ph] += d
		}
	}

	mean := stat.Mean(totals, nil)
	slices.Sort(totals)
	s := PerfStats{
		Frames: p.count,
		Mean:   time.Duration(mean),
		P50:    time.Duration(stat.Quantile(0.5, stat.Empirical, totals, nil)),
		P95:    time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil)),
		Max:    time.Duration(totals[len(totals)-1]),
	}
	for ph, sum := range phaseSum {
		s.PhaseMean[ph] = sum / time.Duration(p.count)
		if mean > 0 {
			s.PhaseShare[ph] = float64(s.PhaseMean[ph]) / mean * 100
		}
	}
	if mean > 0 {
		s.FramesPerSecond = float64(time.Second) / mean
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frames", s.Frames),
		slog.Int64("mean_us", s.Mean.Microseconds()),
		slog.Int64("p95_us", s.P95.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhaseShare[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfRow is one run's frame timing in perf.csv.
type PerfRow struct {
	Run          int     `csv:"run"`
	Frames       int     `csv:"frames"`
	MeanUS       int64   `csv:"mean_us"`
	P50US        int64   `csv:"p50_us"`
	P95US        int64   `csv:"p95_us"`
	MaxUS        int64   `csv:"max_us"`
	FramesPerSec float64 `csv:"frames_per_sec"`
	StepPct      float64 `csv:"step_pct"`
	LabelsPct    float64 `csv:"labels_pct"`
	StatsPct     float64 `csv:"stats_pct"`
}

// Row flattens the stats for run into a CSV record.
func (s PerfStats) Row(run int) PerfRow {
	return PerfRow{
		Run:          run,
		Frames:       s.Frames,
		MeanUS:       s.Mean.Microseconds(),
		P50US:        s.P50.Microseconds(),
		P95US:        s.P95.Microseconds(),
		MaxUS:        s.Max.Microseconds(),
		FramesPerSec: s.FramesPerSecond,
		StepPct:      s.PhaseShare[PhaseStep],
		LabelsPct:    s.PhaseShare[PhaseLabels],
		StatsPct:     s.PhaseShare[PhaseStats],
	}
}
