package systems

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpatialGridQuery(t *testing.T) {
	g := NewSpatialGrid(8, 4, 1)
	g.Insert(0, 0.5, 0.5)
	g.Insert(1, 1.5, 0.5)
	g.Insert(2, 6.5, 3.5)
	g.Insert(3, -2, 10) // clamped to the top-left edge cell

	tests := []struct {
		name    string
		x, y, r float64
		exclude int
		want    []int
	}{
		{"neighbouring cells", 0.5, 0.5, 0.6, -1, []int{0, 1}},
		{"exclude self", 0.5, 0.5, 0.6, 0, []int{1}},
		{"far corner", 6.5, 3.5, 0.4, 2, nil},
		{"outside arena", -5, 12, 0.5, -1, []int{3}},
		{"whole arena", 4, 2, 10, -1, []int{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.QueryRadiusInto(nil, tt.x, tt.y, tt.r, tt.exclude)
			slices.Sort(got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpatialGridMove(t *testing.T) {
	g := NewSpatialGrid(8, 4, 1)
	g.Insert(0, 0.5, 0.5)
	g.Insert(1, 0.6, 0.6)

	g.Move(0, 0.5, 0.5, 5.5, 2.5)
	assert.Equal(t, []int{1}, g.QueryRadiusInto(nil, 0.5, 0.5, 0.1, -1))
	assert.Equal(t, []int{0}, g.QueryRadiusInto(nil, 5.5, 2.5, 0.1, -1))

	// Moving within a cell is a no-op.
	g.Move(1, 0.6, 0.6, 0.7, 0.7)
	assert.Equal(t, []int{1}, g.QueryRadiusInto(nil, 0.5, 0.5, 0.1, -1))

	g.Clear()
	assert.Empty(t, g.QueryRadiusInto(nil, 4, 2, 10, -1))
}
