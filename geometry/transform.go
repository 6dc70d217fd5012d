package geometry

import "gonum.org/v1/gonum/spatial/r2"

// Transform is a rigid placement: rotation by Yaw about +z, then translation.
type Transform struct {
	X, Y, Z float64
	Yaw     float64 // radians, counter-clockwise
}

// Identity is the transform that leaves local coordinates unchanged.
var Identity = Transform{}

// Apply maps a local footprint point into world space.
func (t Transform) Apply(v r2.Vec) r2.Vec {
	if t.Yaw != 0 {
		v = r2.Rotate(v, t.Yaw, r2.Vec{})
	}
	return r2.Add(v, r2.Vec{X: t.X, Y: t.Y})
}
