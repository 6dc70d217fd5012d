// Package scenario assembles a runnable simulation from config: the arena's
// obstacle registry, the agent roster and its spawn placement.
package scenario

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/arenasim/config"
	"github.com/pthm-cable/arenasim/geometry"
	"github.com/pthm-cable/arenasim/sim"
	"github.com/pthm-cable/arenasim/systems"
)

// Obstacle kinds.
const (
	KindWall  = "wall"
	KindBlock = "block"
)

// WallID names the arena's perimeter wall.
const WallID = "wall"

// Obstacles returns the arena obstacles in registration order: the wall
// frame first, then blocks in config order. A zero wall thickness or height
// omits the wall.
func Obstacles(cfg *config.Config) []systems.Obstacle {
	a := cfg.Arena
	obstacles := make([]systems.Obstacle, 0, len(a.Blocks)+1)
	if a.WallThickness > 0 && a.WallHeight > 0 {
		obstacles = append(obstacles, systems.Obstacle{
			ID:    WallID,
			Kind:  KindWall,
			Shape: geometry.Frame(a.Width, a.Height, a.WallThickness, a.WallHeight),
		})
	}
	for _, b := range a.Blocks {
		obstacles = append(obstacles, systems.Obstacle{
			ID:    b.ID,
			Kind:  KindBlock,
			Shape: geometry.Rectangle(b.Width, b.Depth, b.Height),
			Transform: geometry.Transform{
				X:   b.X,
				Y:   b.Y,
				Yaw: b.YawDeg * math.Pi / 180,
			},
		})
	}
	return obstacles
}

// Registry builds the obstacle registry for cfg.
func Registry(cfg *config.Config) (*systems.ObstacleRegistry, error) {
	reg, err := systems.NewObstacleRegistry(Obstacles(cfg))
	if err != nil {
		return nil, fmt.Errorf("building arena: %w", err)
	}
	return reg, nil
}

// AgentBody returns the agent footprint: Width across the forward axis and
// Length along it.
func AgentBody(cfg *config.Config) geometry.Shape {
	return geometry.Rectangle(cfg.Agent.Width, cfg.Agent.Length, cfg.Agent.Height)
}

// Agents pairs placements with the configured body.
func Agents(cfg *config.Config, placements []systems.Placement) []sim.AgentSpec {
	body := AgentBody(cfg)
	agents := make([]sim.AgentSpec, len(placements))
	for i, p := range placements {
		agents[i] = sim.AgentSpec{ID: p.ID, X: p.X, Y: p.Y, Z: p.Z, Body: body}
	}
	return agents
}

// Build creates the registry, places every configured agent and returns the
// initialized simulation. The same rng is used for placement and turn draws.
func Build(cfg *config.Config, rng *rand.Rand) (*sim.Simulation, error) {
	reg, err := Registry(cfg)
	if err != nil {
		return nil, err
	}

	placer := systems.NewPlacer(cfg, geometry.Exact{})
	placements, err := placer.Place(cfg.Agent.IDs, AgentBody(cfg), reg, rng)
	if err != nil {
		return nil, fmt.Errorf("placing agents: %w", err)
	}

	s, err := sim.New(cfg, reg, Agents(cfg, placements), rng)
	if err != nil {
		return nil, fmt.Errorf("initializing agents: %w", err)
	}
	return s, nil
}
