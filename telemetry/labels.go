package telemetry

import "github.com/pthm-cable/arenasim/sim"

// Coordinate is one agent pose at one frame.
type Coordinate struct {
	Frame   int     `json:"frame"`
	Heading float64 `json:"heading"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// AgentLabels is one agent's trajectory within a run, frames in order.
// Fields are declared in key order so the JSON output is sorted.
type AgentLabels struct {
	Coordinates []Coordinate `json:"robot_coordinates"`
	RobotName   string       `json:"robot_name"`
	Simulation  int          `json:"simulation"`
}

// RunLabels groups one simulation run's labels by agent, in registration order.
type RunLabels struct {
	Run    int
	RunID  string
	Seed   int64
	Agents []AgentLabels
}

// LabelRow is the flat per-frame, per-agent record used for CSV export.
type LabelRow struct {
	Run     int     `csv:"run"`
	RunID   string  `csv:"run_id"`
	Agent   string  `csv:"agent"`
	Frame   int     `csv:"frame"`
	X       float64 `csv:"x"`
	Y       float64 `csv:"y"`
	Z       float64 `csv:"z"`
	Heading float64 `csv:"heading"`
}

// LabelBuilder accumulates per-frame pose exports for one run.
type LabelBuilder struct {
	labels RunLabels
	index  map[string]int
}

// NewLabelBuilder starts collecting labels for a run.
func NewLabelBuilder(run int, runID string, seed int64) *LabelBuilder {
	return &LabelBuilder{
		labels: RunLabels{Run: run, RunID: runID, Seed: seed},
		index:  make(map[string]int),
	}
}

// Add appends one frame's poses. Agents are grouped in first-seen order.
func (b *LabelBuilder) Add(records []sim.PoseRecord) {
	for _, r := range records {
		i, ok := b.index[r.AgentID]
		if !ok {
			i = len(b.labels.Agents)
			b.index[r.AgentID] = i
			b.labels.Agents = append(b.labels.Agents, AgentLabels{
				RobotName:  r.AgentID,
				Simulation: b.labels.Run,
			})
		}
		b.labels.Agents[i].Coordinates = append(b.labels.Agents[i].Coordinates, Coordinate{
			Frame:   r.Frame,
			Heading: r.Heading,
			X:       r.X,
			Y:       r.Y,
			Z:       r.Z,
		})
	}
}

// Labels returns the grouped labels collected so far.
func (b *LabelBuilder) Labels() RunLabels {
	return b.labels
}

// Rows flattens the run to agent-major, frame-ordered rows.
func (l RunLabels) Rows() []LabelRow {
	var rows []LabelRow
	for _, a := range l.Agents {
		for _, c := range a.Coordinates {
			rows = append(rows, LabelRow{
				Run:     l.Run,
				RunID:   l.RunID,
				Agent:   a.RobotName,
				Frame:   c.Frame,
				X:       c.X,
				Y:       c.Y,
				Z:       c.Z,
				Heading: c.Heading,
			})
		}
	}
	return rows
}

// Records returns the number of coordinates in the run.
func (l RunLabels) Records() int {
	var n int
	for _, a := range l.Agents {
		n += len(a.Coordinates)
	}
	return n
}
