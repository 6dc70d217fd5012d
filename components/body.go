package components

import "github.com/pthm-cable/arenasim/geometry"

// Body holds the agent's footprint in local coordinates.
type Body struct {
	Shape geometry.Shape
}
