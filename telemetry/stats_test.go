package telemetry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/arenasim/components"
	"github.com/pthm-cable/arenasim/sim"
)

func TestQuantiles(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty slice", nil, 0.5, 0},
		{"single element", []float64{5}, 0.5, 5},
		{"p0", []float64{3, 1, 2, 5, 4}, 0, 1},
		{"p100", []float64{3, 1, 2, 5, 4}, 1, 5},
		{"p50 odd", []float64{3, 1, 2, 5, 4}, 0.5, 3},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quantiles(tt.values, tt.p)[0])
		})
	}
}

func agentState(id string, y, speed float64, turning bool) sim.AgentState {
	st := sim.AgentState{
		ID:         id,
		Pose:       components.Pose{Y: y},
		Kinematics: components.Kinematics{Speed: speed, ScanRadius: 0.5},
	}
	if turning {
		st.Navigation = components.Navigation{State: components.Turning, Direction: components.CW}
	}
	return st
}

func TestRunCollector(t *testing.T) {
	c := NewRunCollector()
	c.Start([]sim.AgentState{agentState("a", 0, 0.03, false), agentState("b", 0, 0.03, false)})

	c.Observe([]sim.AgentState{agentState("a", 1, 0.02, true), agentState("b", 2, 0.03, false)})
	c.Observe([]sim.AgentState{agentState("a", 2, 0.01, true), agentState("b", 4, 0.03, false)})
	c.Observe([]sim.AgentState{agentState("a", 3, 0.02, false), agentState("b", 6, 0.03, true)})

	s := c.Stats(4, "id")

	assert.Equal(t, 4, s.Run)
	assert.Equal(t, "id", s.RunID)
	assert.Equal(t, 3, s.Frames)
	assert.Equal(t, 2, s.Agents)
	assert.Equal(t, 2, s.TurnEpisodes)
	assert.InDelta(t, 3.0/6.0, s.TurningFrac, 1e-12)
	assert.InDelta(t, (0.02+0.01+0.02+0.03*3)/6, s.SpeedMean, 1e-12)
	assert.InDelta(t, 0.5, s.ScanMean, 1e-12)
	assert.InDelta(t, 4.5, s.PathMean, 1e-12)
	assert.Greater(t, s.PathStd, 0.0)
	assert.Equal(t, 0.01, s.SpeedP10)
	assert.Equal(t, 0.03, s.SpeedP90)
}

func TestRunCollectorEmpty(t *testing.T) {
	s := NewRunCollector().Stats(0, "")
	assert.Zero(t, s.Frames)
	assert.Zero(t, s.SpeedMean)
	assert.Equal(t, slog.KindGroup, s.LogValue().Kind())
}
