package systems

import "math"

// SpatialGrid buckets agent indices by position so peer scans only test
// agents whose bodies could reach the scan disc. Positions outside the arena
// are clamped into the edge cells.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int // flat grid of agent index lists
}

// NewSpatialGrid creates a spatial grid covering width x height.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all agents from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds agent i at the given position.
func (g *SpatialGrid) Insert(i int, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], i)
}

// Move relocates agent i. Cell order is not preserved.
func (g *SpatialGrid) Move(i int, fromX, fromY, toX, toY float64) {
	from, to := g.cellIndex(fromX, fromY), g.cellIndex(toX, toY)
	if from == to {
		return
	}
	cell := g.cells[from]
	for k, j := range cell {
		if j == i {
			cell[k] = cell[len(cell)-1]
			g.cells[from] = cell[:len(cell)-1]
			break
		}
	}
	g.cells[to] = append(g.cells[to], i)
}

// QueryRadiusInto appends to dst every agent, except exclude, stored in a
// cell touching the square of half-size radius around (x, y). Results are a
// superset of the agents within radius. Reuse dst across calls to avoid
// allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []int, x, y, radius float64, exclude int) []int {
	minCol, minRow := g.cellCoords(x-radius, y-radius)
	maxCol, maxRow := g.cellCoords(x+radius, y+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, j := range g.cells[row*g.cols+col] {
				if j != exclude {
					dst = append(dst, j)
				}
			}
		}
	}
	return dst
}

// cellCoords returns the clamped column and row for a world position.
func (g *SpatialGrid) cellCoords(x, y float64) (col, row int) {
	col = int(math.Floor(x / g.cellSize))
	row = int(math.Floor(y / g.cellSize))

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col, row := g.cellCoords(x, y)
	return row*g.cols + col
}
