package grid

import "math"

// TargetCellSizeMeters is the reference ground cell size used when deriving
// a tile grid from a raw street-network bounding box (§4.A).
const TargetCellSizeMeters = 100.0

// MaxConnectorLengthMeters bounds the street "nearest split" search radius
// used by the egress-table builder (§4.E).
const MaxConnectorLengthMeters = 500.0

// DefaultTileSpan is the reference number of cells per tile side (S).
const DefaultTileSpan = 16

// TileGrid interprets a Scheme at tile granularity: a fixed span S of cells
// per tile side. Tile (tx, ty) owns cells [tx*S, (tx+1)*S) × [ty*S, (ty+1)*S).
type TileGrid struct {
	Cells *Scheme // the contained pixel/cell grid, W*S × H*S cells
	Span  int     // S, cells per tile side
	TW    int     // tiles across
	TH    int     // tiles down
}

// NewTileGrid builds a tile grid of tw×th tiles, each span×span cells, over
// bounds.
func NewTileGrid(bounds Bounds, tw, th, span int) *TileGrid {
	return &TileGrid{
		Cells: NewScheme(bounds, tw*span, th*span),
		Span:  span,
		TW:    tw,
		TH:    th,
	}
}

// TileGridContaining builds the smallest tile-aligned grid covering bounds,
// at TargetCellSizeMeters resolution, per §4.A.
func TileGridContaining(bounds Bounds, span int) *TileGrid {
	if span <= 0 {
		span = DefaultTileSpan
	}
	cellScheme := NewSchemeForCellSize(bounds, TargetCellSizeMeters)
	tw := int(math.Ceil(float64(cellScheme.W) / float64(span)))
	th := int(math.Ceil(float64(cellScheme.H) / float64(span)))
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dlon, dlat := cellScheme.CellDegrees()
	wantWidth := float64(tw*span) * dlon
	wantHeight := float64(th*span) * dlat
	extraLon := (wantWidth - cellScheme.Bounds.WidthLon()) / 2
	extraLat := (wantHeight - cellScheme.Bounds.HeightLat()) / 2
	adjusted := Bounds{
		MinLon: cellScheme.Bounds.MinLon - extraLon,
		MaxLon: cellScheme.Bounds.MaxLon + extraLon,
		MinLat: cellScheme.Bounds.MinLat - extraLat,
		MaxLat: cellScheme.Bounds.MaxLat + extraLat,
	}

	return NewTileGrid(adjusted, tw, th, span)
}

// TileFlatIndex packs a tile coordinate into its row-major flat tile index.
func (g *TileGrid) TileFlatIndex(tx, ty int) int { return ty*g.TW + tx }

// TileAt unpacks a flat tile index back into (tx, ty).
func (g *TileGrid) TileAt(flat int) (tx, ty int) { return flat % g.TW, flat / g.TW }

// NumTiles returns the total number of tiles, TW*TH.
func (g *TileGrid) NumTiles() int { return g.TW * g.TH }

// CellsPerTile returns S*S, the number of cells in one tile.
func (g *TileGrid) CellsPerTile() int { return g.Span * g.Span }

// TileOrigin returns the (x, y) cell coordinate of tile (tx, ty)'s
// minimum-index cell (its south-west corner, since y grows with latitude).
func (g *TileGrid) TileOrigin(tx, ty int) (x, y int) {
	return tx * g.Span, ty * g.Span
}

// IntraTileIndex returns the intra-tile flat index for a local cell offset
// (cxLocal, cyLocal) within a tile, ic = cyLocal*S + cxLocal.
func (g *TileGrid) IntraTileIndex(cxLocal, cyLocal int) int {
	return cyLocal*g.Span + cxLocal
}

// CellTile returns which tile owns cell (x, y), plus the cell's local
// offset within that tile.
func (g *TileGrid) CellTile(x, y int) (tx, ty, cxLocal, cyLocal int) {
	tx, cxLocal = x/g.Span, x%g.Span
	ty, cyLocal = y/g.Span, y%g.Span
	return
}

// Range is a tile-aligned sub-rectangle of a TileGrid.
type Range struct {
	Parent           *TileGrid
	TXMin, TYMin     int
	TW, TH           int
	Bounds           Bounds
}

// FullRange returns a Range covering the entire tile grid.
func (g *TileGrid) FullRange() Range {
	return Range{Parent: g, TXMin: 0, TYMin: 0, TW: g.TW, TH: g.TH, Bounds: g.Cells.Bounds}
}

// RangeForBounds returns the smallest tile-aligned Range covering the given
// WGS84 bounds, clamped to the parent tile grid.
func (g *TileGrid) RangeForBounds(b Bounds) Range {
	minX := g.Cells.LonToX(b.MinLon)
	maxX := g.Cells.LonToX(b.MaxLon)
	minY := g.Cells.LatToY(b.MinLat)
	maxY := g.Cells.LatToY(b.MaxLat)

	txMin := clampInt(minX/g.Span, 0, g.TW-1)
	txMax := clampInt(maxX/g.Span, 0, g.TW-1)
	tyMin := clampInt(minY/g.Span, 0, g.TH-1)
	tyMax := clampInt(maxY/g.Span, 0, g.TH-1)

	return Range{
		Parent: g,
		TXMin:  txMin,
		TYMin:  tyMin,
		TW:     txMax - txMin + 1,
		TH:     tyMax - tyMin + 1,
		Bounds: b,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ForEachFlatParentIndex visits each tile covered by r exactly once, in
// row-major order, calling cb with the tile's flat index in the parent
// tile grid. Iteration is deterministic and independent of concurrency.
func (r Range) ForEachFlatParentIndex(cb func(flat int)) {
	for ty := r.TYMin; ty < r.TYMin+r.TH; ty++ {
		for tx := r.TXMin; tx < r.TXMin+r.TW; tx++ {
			cb(r.Parent.TileFlatIndex(tx, ty))
		}
	}
}

// NumTiles returns the number of tiles covered by the range.
func (r Range) NumTiles() int { return r.TW * r.TH }
