// Package sim runs one arena scenario: it owns the ECS world holding the
// agents, steps them frame by frame in registration order and exports poses.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/arenasim/components"
	"github.com/pthm-cable/arenasim/config"
	"github.com/pthm-cable/arenasim/geometry"
	"github.com/pthm-cable/arenasim/systems"
)

// ErrUnknownAgent is returned when looking up an agent ID that was never registered.
var ErrUnknownAgent = errors.New("unknown agent")

// AgentSpec describes an agent at scenario start.
type AgentSpec struct {
	ID      string
	X, Y, Z float64
	Body    geometry.Shape
}

// AgentState is a read-only copy of one agent's components.
type AgentState struct {
	ID         string
	Index      int
	Pose       components.Pose
	Kinematics components.Kinematics
	Navigation components.Navigation
}

// PoseRecord is one per-frame, per-agent label.
type PoseRecord struct {
	AgentID string
	Frame   int
	X, Y, Z float64
	Heading float64
}

// Simulation holds the complete state of one scenario.
type Simulation struct {
	world *ecs.World

	agentMapper *ecs.Map5[
		components.Identity,
		components.Pose,
		components.Kinematics,
		components.Navigation,
		components.Body,
	]

	identMap *ecs.Map1[components.Identity]
	poseMap  *ecs.Map1[components.Pose]
	kinMap   *ecs.Map1[components.Kinematics]
	navMap   *ecs.Map1[components.Navigation]
	bodyMap  *ecs.Map1[components.Body]

	// entities is the fixed iteration order; ECS queries do not guarantee it.
	entities []ecs.Entity
	byID     map[string]int
	peers    map[string][]string

	// Committed world-space body prisms, parallel to entities.
	bodies  []geometry.Prism
	next    []geometry.Prism
	peerBuf []geometry.Prism
	candBuf []int
	blocked []bool

	// Broad phase for peer scans, indexed by position in entities.
	grid    *systems.SpatialGrid
	maxBody float64 // largest body circumradius

	registry   *systems.ObstacleRegistry
	scanner    *systems.Scanner
	controller *systems.Controller
	snapshot   bool

	frame int
	steps int
}

// New builds a scenario from a finalized config, an obstacle registry and the
// initial agent list. Agent order defines per-frame iteration order. The rng
// drives turn-direction draws and must not be shared with another goroutine.
func New(cfg *config.Config, registry *systems.ObstacleRegistry, agents []AgentSpec, rng *rand.Rand) (*Simulation, error) {
	world := ecs.NewWorld()
	s := &Simulation{
		world: world,
		agentMapper: ecs.NewMap5[
			components.Identity,
			components.Pose,
			components.Kinematics,
			components.Navigation,
			components.Body,
		](world),
		identMap: ecs.NewMap1[components.Identity](world),
		poseMap:  ecs.NewMap1[components.Pose](world),
		kinMap:   ecs.NewMap1[components.Kinematics](world),
		navMap:   ecs.NewMap1[components.Navigation](world),
		bodyMap:  ecs.NewMap1[components.Body](world),

		entities: make([]ecs.Entity, 0, len(agents)),
		byID:     make(map[string]int, len(agents)),
		bodies:   make([]geometry.Prism, 0, len(agents)),

		registry:   registry,
		scanner:    systems.NewScanner(cfg.Navigation, geometry.Exact{}),
		controller: systems.NewController(systems.RampFromConfig(cfg), rng),
		snapshot:   cfg.Navigation.Visibility == config.VisibilitySnapshot,
		frame:      -1,
	}

	for _, spec := range agents {
		if err := s.addAgent(spec); err != nil {
			return nil, err
		}
	}

	s.next = make([]geometry.Prism, len(s.bodies))
	s.blocked = make([]bool, len(s.bodies))
	s.peerBuf = make([]geometry.Prism, 0, len(s.bodies))
	s.peers = buildPeerSet(agents)

	s.grid = systems.NewSpatialGrid(cfg.Arena.Width, cfg.Arena.Height, cfg.Navigation.MaxScan+s.maxBody)
	s.rebuildGrid()
	return s, nil
}

// addAgent creates the entity for one agent. Only called from New.
func (s *Simulation) addAgent(spec AgentSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("agent %d: empty id", len(s.entities))
	}
	if _, ok := s.byID[spec.ID]; ok {
		return fmt.Errorf("agent %q: %w", spec.ID, systems.ErrDuplicateID)
	}

	ident := components.Identity{ID: spec.ID, Index: len(s.entities)}
	pose := components.Pose{X: spec.X, Y: spec.Y, Z: spec.Z}
	pose.SetBearing(systems.InitialBearing)
	kin, nav := s.controller.Initial()
	body := components.Body{Shape: spec.Body.Clone()}

	prism, err := systems.PlaceBody(body, pose)
	if err != nil {
		return fmt.Errorf("agent %q: %w", spec.ID, err)
	}

	s.maxBody = max(s.maxBody, body.Shape.Radius())
	entity := s.agentMapper.NewEntity(&ident, &pose, &kin, &nav, &body)
	s.byID[spec.ID] = len(s.entities)
	s.entities = append(s.entities, entity)
	s.bodies = append(s.bodies, prism)
	return nil
}

func buildPeerSet(agents []AgentSpec) map[string][]string {
	peers := make(map[string][]string, len(agents))
	for i, a := range agents {
		others := make([]string, 0, len(agents)-1)
		for j, b := range agents {
			if i != j {
				others = append(others, b.ID)
			}
		}
		peers[a.ID] = others
	}
	return peers
}

// Step advances every agent by one frame in registration order. A scan
// failure aborts the frame and is returned; agents already processed keep
// their new pose.
func (s *Simulation) Step(frame int) error {
	var err error
	if s.snapshot {
		err = s.stepSnapshot()
	} else {
		err = s.stepSequential()
	}
	if err != nil {
		return fmt.Errorf("frame %d: %w", frame, err)
	}
	s.frame = frame
	s.steps++
	return nil
}

// stepSequential commits each agent's pose before the next agent scans, so
// later agents see earlier agents' positions from this frame.
func (s *Simulation) stepSequential() error {
	for i, e := range s.entities {
		pose, kin, nav := s.poseMap.Get(e), s.kinMap.Get(e), s.navMap.Get(e)

		blocked, err := s.scanner.Probe(*pose, *kin, s.registry, s.peerBodies(i, *pose, *kin, s.bodies))
		if err != nil {
			return fmt.Errorf("agent %q: %w", s.identMap.Get(e).ID, err)
		}

		fromX, fromY := pose.X, pose.Y
		prism, err := s.move(e, pose, kin, nav, blocked)
		if err != nil {
			return err
		}
		s.bodies[i] = prism
		s.grid.Move(i, fromX, fromY, pose.X, pose.Y)
	}
	return nil
}

// stepSnapshot scans every agent against start-of-frame poses, then moves all
// of them. The result does not depend on agent order.
func (s *Simulation) stepSnapshot() error {
	for i, e := range s.entities {
		pose, kin := s.poseMap.Get(e), s.kinMap.Get(e)
		blocked, err := s.scanner.Probe(*pose, *kin, s.registry, s.peerBodies(i, *pose, *kin, s.bodies))
		if err != nil {
			return fmt.Errorf("agent %q: %w", s.identMap.Get(e).ID, err)
		}
		s.blocked[i] = blocked
	}

	for i, e := range s.entities {
		prism, err := s.move(e, s.poseMap.Get(e), s.kinMap.Get(e), s.navMap.Get(e), s.blocked[i])
		if err != nil {
			return err
		}
		s.next[i] = prism
	}
	s.bodies, s.next = s.next, s.bodies
	s.rebuildGrid()
	return nil
}

// rebuildGrid indexes every agent at its committed position.
func (s *Simulation) rebuildGrid() {
	s.grid.Clear()
	for i, e := range s.entities {
		pose := s.poseMap.Get(e)
		s.grid.Insert(i, pose.X, pose.Y)
	}
}

// move runs the controller and motion for one agent and returns its new body prism.
func (s *Simulation) move(e ecs.Entity, pose *components.Pose, kin *components.Kinematics, nav *components.Navigation, blocked bool) (geometry.Prism, error) {
	s.controller.Update(pose, kin, nav, blocked)
	systems.Advance(pose, *kin)

	prism, err := systems.PlaceBody(*s.bodyMap.Get(e), *pose)
	if err != nil {
		return geometry.Prism{}, fmt.Errorf("agent %q: placing body: %w", s.identMap.Get(e).ID, err)
	}
	return prism, nil
}

// peerBodies returns the committed bodies of every other agent close enough
// to reach self's scan disc. The returned slice is reused between calls.
func (s *Simulation) peerBodies(self int, pose components.Pose, kin components.Kinematics, bodies []geometry.Prism) []geometry.Prism {
	if !s.scanner.IncludesPeers() {
		return nil
	}
	s.candBuf = s.grid.QueryRadiusInto(s.candBuf[:0], pose.X, pose.Y, kin.ScanRadius+s.maxBody, self)
	slices.Sort(s.candBuf)

	s.peerBuf = s.peerBuf[:0]
	for _, j := range s.candBuf {
		s.peerBuf = append(s.peerBuf, bodies[j])
	}
	return s.peerBuf
}
