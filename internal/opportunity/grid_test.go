package opportunity

import (
	"testing"

	"github.com/phase-five/access/internal/grid"
)

func TestGridAtReturnsZeroForAbsentTile(t *testing.T) {
	tg := grid.NewTileGrid(grid.Bounds{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 2, 2, 4)
	g := NewGrid(tg)
	if got := g.At(0, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestGridAtReadsPresentTile(t *testing.T) {
	tg := grid.NewTileGrid(grid.Bounds{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 2, 2, 4)
	g := NewGrid(tg)

	tile := NewTile(4)
	tile.Counts[5] = 42
	g.Tiles.Set(0, tile)

	if got := g.At(0, 5); got != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}
