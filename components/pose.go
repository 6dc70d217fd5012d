package components

import "math"

// HeadingOffset aligns the body's forward axis (+y in local space) with the
// bearing convention (0 = +x, counter-clockwise positive).
const HeadingOffset = -math.Pi / 2

// Pose represents an agent's world position and orientation.
type Pose struct {
	X, Y, Z float64
	Bearing float64 // direction of travel, radians from +x, counter-clockwise
	Heading float64 // rendered yaw: Bearing + HeadingOffset
}

// SetBearing updates Bearing and keeps Heading consistent with it.
func (p *Pose) SetBearing(b float64) {
	p.Bearing = b
	p.Heading = b + HeadingOffset
}
