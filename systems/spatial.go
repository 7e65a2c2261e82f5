// Package systems provides the per-tick simulation systems.
package systems

import "gonum.org/v1/gonum/spatial/r2"

// SpatialGrid provides neighbor lookups using a uniform cell grid over a
// bounded (non-wrapping) world. It stores indices into the caller's slice.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int // flat grid of index lists
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds index i at the given position.
func (g *SpatialGrid) Insert(i int, p r2.Vec) {
	col, row := g.cellCoords(p)
	g.cells[row*g.cols+col] = append(g.cells[row*g.cols+col], i)
}

// Rebuild clears the grid and inserts every point.
func (g *SpatialGrid) Rebuild(points []r2.Vec) {
	g.Clear()
	for i, p := range points {
		g.Insert(i, p)
	}
}

// Pairs calls fn once for every unordered pair (i < j) of points closer than
// radius. Points must be the slice passed to the last Rebuild. The delta is
// points[j] - points[i].
func (g *SpatialGrid) Pairs(points []r2.Vec, radius float64, fn func(i, j int, delta r2.Vec, dist float64)) {
	cellRadius := int(radius/g.cellSize) + 1

	for i, p := range points {
		centerCol, centerRow := g.cellCoords(p)

		for dr := -cellRadius; dr <= cellRadius; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.rows {
				continue
			}
			for dc := -cellRadius; dc <= cellRadius; dc++ {
				col := centerCol + dc
				if col < 0 || col >= g.cols {
					continue
				}

				for _, j := range g.cells[row*g.cols+col] {
					if j <= i {
						continue
					}
					delta := r2.Sub(points[j], p)
					dist := r2.Norm(delta)
					if dist < radius {
						fn(i, j, delta, dist)
					}
				}
			}
		}
	}
}

// cellCoords returns the clamped grid cell for a world position.
func (g *SpatialGrid) cellCoords(p r2.Vec) (col, row int) {
	col = int(p.X / g.cellSize)
	row = int(p.Y / g.cellSize)

	// Clamp to valid range
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
