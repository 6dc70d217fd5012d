package systems

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/arenasim/components"
	"github.com/pthm-cable/arenasim/config"
	"github.com/pthm-cable/arenasim/geometry"
)

var testBody = geometry.Rectangle(0.45, 0.6, 0.5)

func bodyPrism(t *testing.T, p Placement) geometry.Prism {
	t.Helper()
	pose := components.Pose{X: p.X, Y: p.Y, Z: p.Z}
	pose.SetBearing(InitialBearing)
	prism, err := PlaceBody(components.Body{Shape: testBody}, pose)
	require.NoError(t, err)
	return prism
}

func assertDisjoint(t *testing.T, placements []Placement) {
	t.Helper()
	for i := range placements {
		for j := i + 1; j < len(placements); j++ {
			hit, err := geometry.Exact{}.Overlaps(bodyPrism(t, placements[i]), bodyPrism(t, placements[j]))
			require.NoError(t, err)
			assert.False(t, hit, "%s overlaps %s", placements[i].ID, placements[j].ID)
		}
	}
}

func TestPartitionedPlacer(t *testing.T) {
	p := &PartitionedPlacer{Width: 8.08, Height: 4.48, RegionsX: 4, RegionsY: 2}
	ids := []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8"}
	r := testBody.Radius()

	for seed := int64(0); seed < 10; seed++ {
		placements, err := p.Place(ids, testBody, nil, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		require.Len(t, placements, len(ids))

		cells := map[int]bool{}
		for i, pl := range placements {
			assert.Equal(t, ids[i], pl.ID)
			cell := p.Cell(pl.X, pl.Y)
			require.GreaterOrEqual(t, cell, 0)
			assert.False(t, cells[cell], "cell %d assigned twice", cell)
			cells[cell] = true

			minX, minY, maxX, maxY := p.Region(cell)
			assert.GreaterOrEqual(t, pl.X-r, minX)
			assert.LessOrEqual(t, pl.X+r, maxX)
			assert.GreaterOrEqual(t, pl.Y-r, minY)
			assert.LessOrEqual(t, pl.Y+r, maxY)
		}
		assertDisjoint(t, placements)
	}
}

func TestPartitionedPlacerErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	p := &PartitionedPlacer{Width: 8, Height: 4, RegionsX: 1, RegionsY: 2}
	_, err := p.Place([]string{"r1", "r2", "r3"}, testBody, nil, rng)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	p = &PartitionedPlacer{Width: 1, Height: 1, RegionsX: 2, RegionsY: 2}
	_, err = p.Place([]string{"r1"}, testBody, nil, rng)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestPartitionedPlacerAvoidsObstacles(t *testing.T) {
	reg, err := NewObstacleRegistry(testObstacles())
	require.NoError(t, err)
	p := &PartitionedPlacer{Width: 8, Height: 4, RegionsX: 4, RegionsY: 2, MaxAttempts: 1000}
	ids := []string{"r1", "r2", "r3", "r4"}

	for seed := int64(0); seed < 50; seed++ {
		placements, err := p.Place(ids, testBody, reg, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		require.Len(t, placements, len(ids))

		for _, pl := range placements {
			prism := bodyPrism(t, pl)
			for i := 0; i < reg.Len(); i++ {
				hit, err := geometry.Exact{}.Overlaps(prism, reg.Prism(i))
				require.NoError(t, err)
				assert.False(t, hit, "seed %d: %s overlaps obstacle %d", seed, pl.ID, i)
			}
		}
		assertDisjoint(t, placements)
	}
}

func TestPartitionedPlacerSkipsBlockedCell(t *testing.T) {
	// The left cell is filled by a block, so only the right cell is usable.
	reg, err := NewObstacleRegistry([]Obstacle{
		{ID: "B1", Shape: geometry.Rectangle(2, 2, 1), Transform: geometry.Transform{X: 1, Y: 1}},
	})
	require.NoError(t, err)
	p := &PartitionedPlacer{Width: 4, Height: 2, RegionsX: 2, RegionsY: 1, MaxAttempts: 20}

	for seed := int64(0); seed < 10; seed++ {
		placements, err := p.Place([]string{"r1"}, testBody, reg, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.Equal(t, 1, p.Cell(placements[0].X, placements[0].Y))
	}

	_, err = p.Place([]string{"r1", "r2"}, testBody, reg, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrUnplaceable)
}

func TestRejectionPlacer(t *testing.T) {
	reg, err := NewObstacleRegistry(testObstacles())
	require.NoError(t, err)
	p := &RejectionPlacer{
		RangeX:      [2]float64{0, 8},
		RangeY:      [2]float64{0, 4},
		MaxAttempts: 1000,
	}
	ids := []string{"r1", "r2", "r3", "r4"}

	for seed := int64(0); seed < 10; seed++ {
		placements, err := p.Place(ids, testBody, reg, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		require.Len(t, placements, len(ids))

		for _, pl := range placements {
			prism := bodyPrism(t, pl)
			for i := 0; i < reg.Len(); i++ {
				hit, err := geometry.Exact{}.Overlaps(prism, reg.Prism(i))
				require.NoError(t, err)
				assert.False(t, hit, "%s overlaps obstacle %d", pl.ID, i)
			}
		}
		assertDisjoint(t, placements)
	}
}

func TestRejectionPlacerUnplaceable(t *testing.T) {
	reg, err := NewObstacleRegistry([]Obstacle{
		{ID: "B1", Shape: geometry.Rectangle(2, 2, 1), Transform: geometry.Transform{X: 1, Y: 1}},
	})
	require.NoError(t, err)

	p := &RejectionPlacer{
		RangeX:      [2]float64{0.5, 1.5},
		RangeY:      [2]float64{0.5, 1.5},
		MaxAttempts: 10,
	}
	_, err = p.Place([]string{"r1"}, testBody, reg, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrUnplaceable)
	assert.Contains(t, err.Error(), `"r1"`)
}

func TestNewPlacer(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &PartitionedPlacer{}, NewPlacer(cfg, nil))

	cfg.Spawn.Strategy = config.SpawnRejection
	assert.IsType(t, &RejectionPlacer{}, NewPlacer(cfg, nil))
}
