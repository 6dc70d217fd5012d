package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/peterstace/simplefeatures/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrEmptyGeometry is returned when an overlap query is given a prism that
// was never placed.
var ErrEmptyGeometry = errors.New("empty geometry")

// Prism is a shape placed in world space.
type Prism struct {
	Polygon    geom.Polygon
	Bounds     r2.Box
	ZMin, ZMax float64
}

// Place transforms the shape into world space. The shape is validated first,
// so a returned Prism is always usable in an overlap query.
func (s Shape) Place(t Transform) (Prism, error) {
	if err := s.Validate(); err != nil {
		return Prism{}, err
	}

	bounds := r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	rings := make([]geom.LineString, len(s.Rings))
	for i, ring := range s.Rings {
		coords := make([]float64, 0, 2*(len(ring)+1))
		for _, v := range ring {
			w := t.Apply(v)
			coords = append(coords, w.X, w.Y)
			bounds.Min.X = math.Min(bounds.Min.X, w.X)
			bounds.Min.Y = math.Min(bounds.Min.Y, w.Y)
			bounds.Max.X = math.Max(bounds.Max.X, w.X)
			bounds.Max.Y = math.Max(bounds.Max.Y, w.Y)
		}
		coords = append(coords, coords[0], coords[1])
		ls, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
		if err != nil {
			return Prism{}, fmt.Errorf("%w: ring %d: %v", ErrDegenerateShape, i, err)
		}
		rings[i] = ls
	}

	// The constructor validates ring closure, simplicity and hole nesting.
	poly, err := geom.NewPolygon(rings)
	if err != nil {
		return Prism{}, fmt.Errorf("%w: %v", ErrDegenerateShape, err)
	}

	return Prism{
		Polygon: poly,
		Bounds:  bounds,
		ZMin:    t.Z,
		ZMax:    t.Z + s.Height,
	}, nil
}

// Empty reports whether the prism was never placed.
func (p Prism) Empty() bool {
	return p.Polygon.IsEmpty()
}

// Overlapper decides whether two placed prisms share any point.
type Overlapper interface {
	Overlaps(a, b Prism) (bool, error)
}

// Exact is the default Overlapper: a z-interval and bounding-box prefilter
// followed by an exact polygon intersection test.
type Exact struct{}

// Overlaps implements Overlapper. Touching boundaries count as overlap.
func (Exact) Overlaps(a, b Prism) (bool, error) {
	if a.Empty() || b.Empty() {
		return false, ErrEmptyGeometry
	}
	if a.ZMax < b.ZMin || b.ZMax < a.ZMin {
		return false, nil
	}
	if !boxesOverlap(a.Bounds, b.Bounds) {
		return false, nil
	}
	return geom.Intersects(a.Polygon.AsGeometry(), b.Polygon.AsGeometry()), nil
}

func boxesOverlap(a, b r2.Box) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}
