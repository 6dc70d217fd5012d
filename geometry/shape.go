// Package geometry holds the polygonal shapes, rigid transforms and the exact
// overlap test used for scanning and spawn placement.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrDegenerateShape is returned for shapes that cannot enclose any area.
var ErrDegenerateShape = errors.New("degenerate shape")

// minArea is the smallest outer-ring area accepted as non-degenerate.
const minArea = 1e-12

// Shape is a vertical prism in local coordinates: a footprint polygon
// extruded upward by Height from the owning transform's z.
type Shape struct {
	// Rings[0] is the outer boundary, the rest are holes. Rings are open:
	// the closing vertex is implied.
	Rings  [][]r2.Vec
	Height float64
}

// Validate reports why a shape is unusable, wrapped in ErrDegenerateShape.
func (s Shape) Validate() error {
	if len(s.Rings) == 0 {
		return fmt.Errorf("%w: no rings", ErrDegenerateShape)
	}
	for i, ring := range s.Rings {
		if len(ring) < 3 {
			return fmt.Errorf("%w: ring %d has %d vertices", ErrDegenerateShape, i, len(ring))
		}
		for _, v := range ring {
			if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
				return fmt.Errorf("%w: ring %d has a non-finite vertex", ErrDegenerateShape, i)
			}
		}
	}
	if math.Abs(ringArea(s.Rings[0])) < minArea {
		return fmt.Errorf("%w: outer ring has zero area", ErrDegenerateShape)
	}
	if !(s.Height > 0) {
		return fmt.Errorf("%w: height must be > 0, got %v", ErrDegenerateShape, s.Height)
	}
	return nil
}

// Radius returns the circumradius of the outer ring about the local origin.
func (s Shape) Radius() float64 {
	var r float64
	if len(s.Rings) == 0 {
		return 0
	}
	for _, v := range s.Rings[0] {
		r = math.Max(r, r2.Norm(v))
	}
	return r
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	rings := make([][]r2.Vec, len(s.Rings))
	for i, ring := range s.Rings {
		rings[i] = append([]r2.Vec(nil), ring...)
	}
	return Shape{Rings: rings, Height: s.Height}
}

// ringArea returns the signed shoelace area of an open ring.
func ringArea(ring []r2.Vec) float64 {
	var sum float64
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Rectangle returns a width x depth box centred on the local origin.
func Rectangle(width, depth, height float64) Shape {
	hw, hd := width/2, depth/2
	return Shape{
		Rings: [][]r2.Vec{{
			{X: -hw, Y: -hd}, {X: hw, Y: -hd}, {X: hw, Y: hd}, {X: -hw, Y: hd},
		}},
		Height: height,
	}
}

// RegularPolygon returns a flat n-gon approximating a disc of the given radius.
func RegularPolygon(radius float64, segments int, height float64) Shape {
	ring := make([]r2.Vec, segments)
	step := 2 * math.Pi / float64(segments)
	for i := range ring {
		a := float64(i) * step
		ring[i] = r2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return Shape{Rings: [][]r2.Vec{ring}, Height: height}
}

// Frame returns a rectangular ring: the hole spans [0,innerW]x[0,innerH] and
// the solid band extends thickness beyond it on every side.
func Frame(innerW, innerH, thickness, height float64) Shape {
	t := thickness
	return Shape{
		Rings: [][]r2.Vec{
			{{X: -t, Y: -t}, {X: innerW + t, Y: -t}, {X: innerW + t, Y: innerH + t}, {X: -t, Y: innerH + t}},
			{{X: 0, Y: 0}, {X: 0, Y: innerH}, {X: innerW, Y: innerH}, {X: innerW, Y: 0}},
		},
		Height: height,
	}
}
