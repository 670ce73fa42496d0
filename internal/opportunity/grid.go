// Package opportunity holds the destination-side grid: per-cell
// opportunity counts, tiled and sparse the same way the egress table is
// (§3 "Opportunity tile").
package opportunity

import (
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/sparsetile"
)

// Tile holds per-cell opportunity densities for one tile (S*S cells,
// row-major). An absent Tile (nil in the Grid's sparse array) represents
// all-zero, never allocated.
type Tile struct {
	Span   int
	Counts []float32
}

// NewTile allocates a zeroed opportunity tile.
func NewTile(span int) *Tile {
	return &Tile{Span: span, Counts: make([]float32, span*span)}
}

// Grid wraps a tile grid geometry and its sparse opportunity tiles.
type Grid struct {
	Cells *grid.TileGrid
	Tiles *sparsetile.Array[Tile]
}

// NewGrid allocates an all-absent opportunity grid over cells.
func NewGrid(cells *grid.TileGrid) *Grid {
	return &Grid{Cells: cells, Tiles: sparsetile.NewArray[Tile](cells.NumTiles())}
}

// At returns the opportunity count at flat tile index and intra-tile cell
// ic, or 0 if the tile is absent.
func (g *Grid) At(tileFlat, ic int) float32 {
	t := g.Tiles.Get(tileFlat)
	if t == nil {
		return 0
	}
	return t.Counts[ic]
}
