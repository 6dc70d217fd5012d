package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/arenasim/components"
	"github.com/pthm-cable/arenasim/config"
	"github.com/pthm-cable/arenasim/geometry"
	"github.com/pthm-cable/arenasim/systems"
)

var testBody = geometry.Rectangle(0.45, 0.6, 0.5)

func testConfig(t *testing.T, visibility string, includePeers bool) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Navigation.Visibility = visibility
	cfg.Navigation.IncludePeers = includePeers
	require.NoError(t, cfg.Finalize())
	return cfg
}

func newSim(t *testing.T, cfg *config.Config, reg *systems.ObstacleRegistry, agents ...AgentSpec) *Simulation {
	t.Helper()
	s, err := New(cfg, reg, agents, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return s
}

func agent(id string, x, y float64) AgentSpec {
	return AgentSpec{ID: id, X: x, Y: y, Body: testBody}
}

func TestSingleAgentOpenArena(t *testing.T) {
	cfg := testConfig(t, config.VisibilitySequential, true)
	s := newSim(t, cfg, nil, agent("r1", 4, 1))

	var records []PoseRecord
	for frame := 0; frame < 3; frame++ {
		require.NoError(t, s.Step(frame))
		records = append(records, s.Poses()...)
	}

	require.Len(t, records, 3)
	prev := 1.0
	for i, r := range records {
		assert.Equal(t, "r1", r.AgentID)
		assert.Equal(t, i, r.Frame)
		assert.InDelta(t, 4.0, r.X, 1e-12)
		assert.Greater(t, r.Y, prev, "frame %d must move further along the bearing", i)
		assert.Zero(t, r.Heading)
		prev = r.Y
	}
	assert.InDelta(t, 1+3*cfg.Navigation.MaxSpeed, prev, 1e-12)
	assert.Equal(t, 2, s.Frame())
	assert.Equal(t, 3, s.Steps())
}

func TestObstacleAheadTurns(t *testing.T) {
	cfg := testConfig(t, config.VisibilitySequential, true)
	reg, err := systems.NewObstacleRegistry([]systems.Obstacle{
		{ID: "B1", Kind: "block", Shape: geometry.Rectangle(1, 0.2, 0.4), Transform: geometry.Transform{X: 4, Y: 2.5}},
	})
	require.NoError(t, err)
	s := newSim(t, cfg, reg, agent("r1", 4, 2))

	require.NoError(t, s.Step(0))
	st, err := s.Agent("r1")
	require.NoError(t, err)

	require.True(t, st.Navigation.IsTurning())
	dir := st.Navigation.Direction
	assert.InDelta(t, cfg.Navigation.MaxSpeed-cfg.Derived.SpeedDecrementDelta, st.Kinematics.Speed, 1e-12)
	assert.InDelta(t, cfg.Navigation.MaxScan-cfg.Navigation.ScanDecrementDelta, st.Kinematics.ScanRadius, 1e-12)
	assert.InDelta(t, systems.InitialBearing+dir.Sign()*cfg.Derived.RotationDelta, st.Pose.Bearing, 1e-12)

	require.NoError(t, s.Step(1))
	st, _ = s.Agent("r1")
	if st.Navigation.IsTurning() {
		assert.Equal(t, dir, st.Navigation.Direction)
	}
}

func TestPeersDetected(t *testing.T) {
	tests := []struct {
		name         string
		includePeers bool
		wantTurning  bool
	}{
		{"peers included", true, true},
		{"peers ignored", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, config.VisibilitySequential, tt.includePeers)
			s := newSim(t, cfg, nil, agent("a", 2, 1), agent("b", 2, 1.8))
			require.NoError(t, s.Step(0))

			for _, st := range s.Agents() {
				assert.Equal(t, tt.wantTurning, st.Navigation.IsTurning(), st.ID)
			}
		})
	}
}

// b's scan disc reaches a's body only after a has moved this frame.
func TestVisibilityModes(t *testing.T) {
	a, b := agent("a", 2, 1.0), agent("b", 2, 1.92)

	tests := []struct {
		name       string
		visibility string
		order      []AgentSpec
		wantB      bool
	}{
		{"sequential a first", config.VisibilitySequential, []AgentSpec{a, b}, true},
		{"sequential b first", config.VisibilitySequential, []AgentSpec{b, a}, false},
		{"snapshot a first", config.VisibilitySnapshot, []AgentSpec{a, b}, false},
		{"snapshot b first", config.VisibilitySnapshot, []AgentSpec{b, a}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSim(t, testConfig(t, tt.visibility, true), nil, tt.order...)
			require.NoError(t, s.Step(0))

			stA, err := s.Agent("a")
			require.NoError(t, err)
			stB, err := s.Agent("b")
			require.NoError(t, err)
			assert.False(t, stA.Navigation.IsTurning())
			assert.Equal(t, tt.wantB, stB.Navigation.IsTurning())
		})
	}
}

func TestSnapshotOrderIndependent(t *testing.T) {
	cfg := testConfig(t, config.VisibilitySnapshot, true)
	agents := []AgentSpec{agent("a", 1, 1), agent("b", 4, 1), agent("c", 7, 1)}
	reversed := []AgentSpec{agents[2], agents[1], agents[0]}

	s1 := newSim(t, cfg, nil, agents...)
	s2 := newSim(t, cfg, nil, reversed...)
	for frame := 0; frame < 5; frame++ {
		require.NoError(t, s1.Step(frame))
		require.NoError(t, s2.Step(frame))
	}

	for _, a := range agents {
		st1, err := s1.Agent(a.ID)
		require.NoError(t, err)
		st2, err := s2.Agent(a.ID)
		require.NoError(t, err)
		assert.Equal(t, st1.Pose, st2.Pose)
	}
}

func TestInvariantsHold(t *testing.T) {
	cfg := testConfig(t, config.VisibilitySequential, true)
	nav := cfg.Navigation
	reg, err := systems.NewObstacleRegistry([]systems.Obstacle{
		{ID: "wall", Kind: "wall", Shape: geometry.Frame(8, 4, 0.4, 0.5)},
		{ID: "B1", Kind: "block", Shape: geometry.Rectangle(1, 0.2, 0.4), Transform: geometry.Transform{X: 4, Y: 2}},
		{ID: "B2", Kind: "block", Shape: geometry.Rectangle(0.2, 1, 0.4), Transform: geometry.Transform{X: 2, Y: 3, Yaw: math.Pi / 4}},
	})
	require.NoError(t, err)
	s := newSim(t, cfg, reg, agent("r1", 1, 1), agent("r2", 6, 1), agent("r3", 6, 3), agent("r4", 1.5, 3.3))

	episodes := map[string]components.TurnDirection{}
	for frame := 0; frame < 400; frame++ {
		require.NoError(t, s.Step(frame))
		for _, st := range s.Agents() {
			k := st.Kinematics
			require.GreaterOrEqual(t, k.Speed, nav.MinSpeed)
			require.LessOrEqual(t, k.Speed, nav.MaxSpeed)
			require.GreaterOrEqual(t, k.ScanRadius, nav.MinScan)
			require.LessOrEqual(t, k.ScanRadius, nav.MaxScan)
			require.InDelta(t, st.Pose.Bearing+components.HeadingOffset, st.Pose.Heading, 1e-12)

			if !st.Navigation.IsTurning() {
				delete(episodes, st.ID)
				continue
			}
			if dir, ok := episodes[st.ID]; ok {
				require.Equal(t, dir, st.Navigation.Direction, "%s changed direction mid-episode at frame %d", st.ID, frame)
			}
			episodes[st.ID] = st.Navigation.Direction
		}
	}
}

func TestNewErrors(t *testing.T) {
	cfg := testConfig(t, config.VisibilitySequential, true)
	rng := rand.New(rand.NewSource(1))

	_, err := New(cfg, nil, []AgentSpec{agent("r1", 1, 1), agent("r1", 3, 1)}, rng)
	assert.ErrorIs(t, err, systems.ErrDuplicateID)

	_, err = New(cfg, nil, []AgentSpec{{ID: "r1", Body: geometry.Rectangle(0, 1, 1)}}, rng)
	assert.ErrorIs(t, err, geometry.ErrDegenerateShape)

	_, err = New(cfg, nil, []AgentSpec{{Body: testBody}}, rng)
	assert.Error(t, err)
}

func TestAccessors(t *testing.T) {
	cfg := testConfig(t, config.VisibilitySequential, true)
	reg, err := systems.NewObstacleRegistry([]systems.Obstacle{
		{ID: "B1", Shape: geometry.Rectangle(1, 1, 1), Transform: geometry.Transform{X: 7, Y: 3}},
	})
	require.NoError(t, err)
	s := newSim(t, cfg, reg, agent("r1", 1, 1), agent("r2", 3, 1), agent("r3", 5, 1))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, -1, s.Frame())
	assert.Equal(t, []string{"B1"}, s.ObstacleIDs())
	assert.Equal(t, map[string][]string{
		"r1": {"r2", "r3"},
		"r2": {"r1", "r3"},
		"r3": {"r1", "r2"},
	}, s.PeerSet())

	peers := s.PeerSet()
	peers["r1"][0] = "zz"
	assert.Equal(t, "r2", s.PeerSet()["r1"][0])

	states := s.Agents()
	require.Len(t, states, 3)
	for i, st := range states {
		assert.Equal(t, i, st.Index)
		assert.Equal(t, cfg.Navigation.MaxSpeed, st.Kinematics.Speed)
		assert.Equal(t, cfg.Navigation.MaxScan, st.Kinematics.ScanRadius)
		assert.Equal(t, systems.InitialBearing, st.Pose.Bearing)
		assert.False(t, st.Navigation.IsTurning())
	}

	_, err = s.Agent("r9")
	assert.ErrorIs(t, err, ErrUnknownAgent)
}
