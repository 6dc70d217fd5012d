// Package components defines ECS components for the arena simulation.
package components

// NavState is the navigation controller state.
type NavState uint8

const (
	Moving  NavState = iota // clear ahead, ramping speed and scan radius up
	Turning                 // obstacle in range, rotating and ramping down
)

// String returns the display name for a NavState.
func (s NavState) String() string {
	switch s {
	case Moving:
		return "moving"
	case Turning:
		return "turning"
	default:
		return "unknown"
	}
}

// TurnDirection is the rotation sense held for one turning episode.
type TurnDirection uint8

const (
	Unset TurnDirection = iota
	CW                  // bearing decreases
	CCW                 // bearing increases
)

// String returns the display name for a TurnDirection.
func (d TurnDirection) String() string {
	switch d {
	case CW:
		return "cw"
	case CCW:
		return "ccw"
	default:
		return "unset"
	}
}

// Sign returns -1 for CW, +1 for CCW and 0 when unset.
func (d TurnDirection) Sign() float64 {
	switch d {
	case CW:
		return -1
	case CCW:
		return 1
	default:
		return 0
	}
}

// Identity names an agent and records its registration order.
type Identity struct {
	ID    string
	Index int
}
