package components

// Kinematics holds the hysteresis-ramped motion parameters.
type Kinematics struct {
	Speed      float64 // distance per frame
	ScanRadius float64 // current scan disc radius
}

// Navigation holds controller state for the current turning episode.
type Navigation struct {
	State     NavState
	Direction TurnDirection
}

// IsTurning reports whether the agent is inside a turning episode.
func (n Navigation) IsTurning() bool {
	return n.State == Turning
}
