package systems

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/pthm-cable/arenasim/components"
	"github.com/pthm-cable/arenasim/config"
	"github.com/pthm-cable/arenasim/geometry"
)

// ErrUnplaceable is returned when an agent cannot be placed within the
// attempt budget.
var ErrUnplaceable = errors.New("unplaceable agent")

// Placement is an agent's initial position.
type Placement struct {
	ID      string
	X, Y, Z float64
}

// Placer assigns initial positions to agents before the first frame.
// Placements are returned in the same order as ids.
type Placer interface {
	Place(ids []string, body geometry.Shape, obstacles *ObstacleRegistry, rng *rand.Rand) ([]Placement, error)
}

// NewPlacer returns the placer selected by cfg.Spawn.Strategy.
func NewPlacer(cfg *config.Config, overlap geometry.Overlapper) Placer {
	s := cfg.Spawn
	if s.Strategy == config.SpawnRejection {
		return &RejectionPlacer{
			RangeX:      s.RangeX,
			RangeY:      s.RangeY,
			RangeZ:      s.RangeZ,
			MaxAttempts: s.MaxAttempts,
			Overlap:     overlap,
		}
	}
	return &PartitionedPlacer{
		Width:       cfg.Arena.Width,
		Height:      cfg.Arena.Height,
		RegionsX:    s.RegionsX,
		RegionsY:    s.RegionsY,
		RangeZ:      s.RangeZ,
		MaxAttempts: s.MaxAttempts,
		Overlap:     overlap,
	}
}

// PartitionedPlacer divides the arena into a RegionsX x RegionsY grid,
// shuffles the cells and gives each agent its own cell. Positions are drawn
// inside the cell inset by the body circumradius, so bodies never cross cell
// borders and never overlap each other. Draws whose body overlaps an obstacle
// are rejected; a cell that yields no clear draw within MaxAttempts is
// skipped and the agent moves on to the next unused cell.
type PartitionedPlacer struct {
	Width, Height      float64
	RegionsX, RegionsY int
	RangeZ             [2]float64
	MaxAttempts        int // per cell, at least 1
	Overlap            geometry.Overlapper
}

// Region returns the bounds of cell i in row-major order.
func (p *PartitionedPlacer) Region(i int) (minX, minY, maxX, maxY float64) {
	w := p.Width / float64(p.RegionsX)
	h := p.Height / float64(p.RegionsY)
	col, row := i%p.RegionsX, i/p.RegionsX
	return float64(col) * w, float64(row) * h, float64(col+1) * w, float64(row+1) * h
}

// Place implements Placer.
func (p *PartitionedPlacer) Place(ids []string, body geometry.Shape, obstacles *ObstacleRegistry, rng *rand.Rand) ([]Placement, error) {
	n := p.RegionsX * p.RegionsY
	if p.RegionsX < 1 || p.RegionsY < 1 || n < len(ids) {
		return nil, fmt.Errorf("%w: %d regions for %d agents", config.ErrInvalidConfig, max(n, 0), len(ids))
	}
	r := body.Radius()
	if p.Width/float64(p.RegionsX) < 2*r || p.Height/float64(p.RegionsY) < 2*r {
		return nil, fmt.Errorf("%w: regions smaller than agent body (radius %.3f)", config.ErrInvalidConfig, r)
	}
	overlap := p.Overlap
	if overlap == nil {
		overlap = geometry.Exact{}
	}
	attempts := max(p.MaxAttempts, 1)

	cells := rng.Perm(n)
	next := 0
	placements := make([]Placement, 0, len(ids))
	placed := make([]geometry.Prism, 0, len(ids))
	for _, id := range ids {
		var ok bool
		for ; next < n && !ok; next++ {
			minX, minY, maxX, maxY := p.Region(cells[next])
			for attempt := 0; attempt < attempts && !ok; attempt++ {
				pl := Placement{
					ID: id,
					X:  uniform(rng, [2]float64{minX + r, maxX - r}),
					Y:  uniform(rng, [2]float64{minY + r, maxY - r}),
					Z:  uniform(rng, p.RangeZ),
				}
				prism, err := placeAt(body, pl)
				if err != nil {
					return nil, fmt.Errorf("agent %q: %w", id, err)
				}
				hit, err := collides(overlap, prism, obstacles, placed)
				if err != nil {
					return nil, fmt.Errorf("agent %q: %w", id, err)
				}
				if !hit {
					placements = append(placements, pl)
					placed = append(placed, prism)
					ok = true
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("agent %q: no clear cell after %d attempts each: %w", id, attempts, ErrUnplaceable)
		}
	}
	return placements, nil
}

// Cell returns the region index containing (x, y), or -1 outside the arena.
func (p *PartitionedPlacer) Cell(x, y float64) int {
	if x < 0 || y < 0 || x > p.Width || y > p.Height {
		return -1
	}
	col := min(int(x/(p.Width/float64(p.RegionsX))), p.RegionsX-1)
	row := min(int(y/(p.Height/float64(p.RegionsY))), p.RegionsY-1)
	return row*p.RegionsX + col
}

// RejectionPlacer draws uniform positions in the spawn range and rejects any
// whose body overlaps an obstacle or an already placed agent.
type RejectionPlacer struct {
	RangeX, RangeY, RangeZ [2]float64
	MaxAttempts            int
	Overlap                geometry.Overlapper
}

// Place implements Placer. Each agent gets at most MaxAttempts draws.
func (p *RejectionPlacer) Place(ids []string, body geometry.Shape, obstacles *ObstacleRegistry, rng *rand.Rand) ([]Placement, error) {
	overlap := p.Overlap
	if overlap == nil {
		overlap = geometry.Exact{}
	}

	placements := make([]Placement, 0, len(ids))
	placed := make([]geometry.Prism, 0, len(ids))
	for _, id := range ids {
		var ok bool
		for attempt := 0; attempt < p.MaxAttempts && !ok; attempt++ {
			pl := Placement{
				ID: id,
				X:  uniform(rng, p.RangeX),
				Y:  uniform(rng, p.RangeY),
				Z:  uniform(rng, p.RangeZ),
			}
			prism, err := placeAt(body, pl)
			if err != nil {
				return nil, fmt.Errorf("agent %q: %w", id, err)
			}

			hit, err := collides(overlap, prism, obstacles, placed)
			if err != nil {
				return nil, fmt.Errorf("agent %q: %w", id, err)
			}
			if !hit {
				placements = append(placements, pl)
				placed = append(placed, prism)
				ok = true
			}
		}
		if !ok {
			return nil, fmt.Errorf("agent %q after %d attempts: %w", id, p.MaxAttempts, ErrUnplaceable)
		}
	}
	return placements, nil
}

// placeAt returns the body prism of a freshly spawned agent at pl.
func placeAt(body geometry.Shape, pl Placement) (geometry.Prism, error) {
	pose := components.Pose{X: pl.X, Y: pl.Y, Z: pl.Z}
	pose.SetBearing(InitialBearing)
	return body.Place(BodyTransform(pose))
}

func collides(overlap geometry.Overlapper, prism geometry.Prism, obstacles *ObstacleRegistry, placed []geometry.Prism) (bool, error) {
	for i := 0; i < obstacles.Len(); i++ {
		hit, err := overlap.Overlaps(prism, obstacles.Prism(i))
		if err != nil || hit {
			return hit, err
		}
	}
	for _, other := range placed {
		hit, err := overlap.Overlaps(prism, other)
		if err != nil || hit {
			return hit, err
		}
	}
	return false, nil
}
