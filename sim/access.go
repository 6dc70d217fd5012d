package sim

import (
	"fmt"
	"slices"
)

// Frame returns the index of the last completed step, or -1 before the first.
func (s *Simulation) Frame() int {
	return s.frame
}

// Steps returns how many frames have completed.
func (s *Simulation) Steps() int {
	return s.steps
}

// Len returns the number of agents.
func (s *Simulation) Len() int {
	return len(s.entities)
}

// Agents returns every agent's state in registration order.
func (s *Simulation) Agents() []AgentState {
	states := make([]AgentState, len(s.entities))
	for i := range s.entities {
		states[i] = s.state(i)
	}
	return states
}

// Agent returns one agent's state by ID.
func (s *Simulation) Agent(id string) (AgentState, error) {
	i, ok := s.byID[id]
	if !ok {
		return AgentState{}, fmt.Errorf("agent %q: %w", id, ErrUnknownAgent)
	}
	return s.state(i), nil
}

func (s *Simulation) state(i int) AgentState {
	e := s.entities[i]
	ident := s.identMap.Get(e)
	return AgentState{
		ID:         ident.ID,
		Index:      ident.Index,
		Pose:       *s.poseMap.Get(e),
		Kinematics: *s.kinMap.Get(e),
		Navigation: *s.navMap.Get(e),
	}
}

// PeerSet returns, for every agent, the IDs of all other agents in
// registration order. The map is a copy.
func (s *Simulation) PeerSet() map[string][]string {
	out := make(map[string][]string, len(s.peers))
	for id, peers := range s.peers {
		out[id] = slices.Clone(peers)
	}
	return out
}

// ObstacleIDs returns the registry's obstacle IDs in registration order.
func (s *Simulation) ObstacleIDs() []string {
	if s.registry == nil {
		return nil
	}
	return s.registry.IDs()
}

// Poses exports the current pose of every agent, in registration order,
// stamped with the last completed frame.
func (s *Simulation) Poses() []PoseRecord {
	records := make([]PoseRecord, len(s.entities))
	for i, e := range s.entities {
		pose := s.poseMap.Get(e)
		records[i] = PoseRecord{
			AgentID: s.identMap.Get(e).ID,
			Frame:   s.frame,
			X:       pose.X,
			Y:       pose.Y,
			Z:       pose.Z,
			Heading: pose.Heading,
		}
	}
	return records
}
