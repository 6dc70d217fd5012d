// Package systems contains the per-agent simulation systems: obstacle
// registry, scan-disc probing, navigation control, motion and spawn placement.
package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/arenasim/geometry"
)

// ErrDuplicateID is returned when two obstacles or agents share an ID.
var ErrDuplicateID = errors.New("duplicate id")

// Obstacle is a named static shape placed in the arena.
type Obstacle struct {
	ID        string
	Kind      string // grouping, e.g. "wall" or "block"
	Shape     geometry.Shape
	Transform geometry.Transform
}

// ObstacleRegistry is the immutable, ordered set of static obstacles for one
// scenario. World-space prisms are computed once at construction.
type ObstacleRegistry struct {
	obstacles []Obstacle
	prisms    []geometry.Prism
	byID      map[string]int
}

// NewObstacleRegistry validates and places every obstacle. Any degenerate
// shape or repeated ID fails the whole registry.
func NewObstacleRegistry(obstacles []Obstacle) (*ObstacleRegistry, error) {
	r := &ObstacleRegistry{
		obstacles: make([]Obstacle, 0, len(obstacles)),
		prisms:    make([]geometry.Prism, 0, len(obstacles)),
		byID:      make(map[string]int, len(obstacles)),
	}
	for _, o := range obstacles {
		if err := r.register(o); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// register adds an obstacle. Only called during construction.
func (r *ObstacleRegistry) register(o Obstacle) error {
	if o.ID == "" {
		return fmt.Errorf("obstacle %d: empty id", len(r.obstacles))
	}
	if _, ok := r.byID[o.ID]; ok {
		return fmt.Errorf("obstacle %q: %w", o.ID, ErrDuplicateID)
	}
	prism, err := o.Shape.Place(o.Transform)
	if err != nil {
		return fmt.Errorf("obstacle %q: %w", o.ID, err)
	}
	// Rings are copied so callers cannot mutate registered geometry.
	o.Shape = o.Shape.Clone()
	r.byID[o.ID] = len(r.obstacles)
	r.obstacles = append(r.obstacles, o)
	r.prisms = append(r.prisms, prism)
	return nil
}

// Get returns an obstacle by ID.
func (r *ObstacleRegistry) Get(id string) (Obstacle, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Obstacle{}, false
	}
	o := r.obstacles[i]
	o.Shape = o.Shape.Clone()
	return o, true
}

// Len returns the number of registered obstacles. A nil registry is empty.
func (r *ObstacleRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.obstacles)
}

// Prism returns the world-space prism of the i-th obstacle.
func (r *ObstacleRegistry) Prism(i int) geometry.Prism {
	return r.prisms[i]
}

// IDs returns all obstacle IDs in registration order.
func (r *ObstacleRegistry) IDs() []string {
	ids := make([]string, len(r.obstacles))
	for i, o := range r.obstacles {
		ids[i] = o.ID
	}
	return ids
}

// ByKind returns obstacle IDs of the given kind, in registration order.
func (r *ObstacleRegistry) ByKind(kind string) []string {
	var result []string
	for _, o := range r.obstacles {
		if o.Kind == kind {
			result = append(result, o.ID)
		}
	}
	return result
}
