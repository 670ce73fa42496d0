package opportunity

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/phase-five/access/internal/grid"
)

// Point is one destination-side opportunity record before rasterization:
// a location and the count it contributes to whichever cell contains it.
type Point struct {
	Lon, Lat float64
	Count    float32
}

// ReadPoints parses "lon,lat,count" CSV lines (no header), the reference
// format for the CLI's opportunity loader.
func ReadPoints(r io.Reader) ([]Point, error) {
	var out []Point
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return nil, errors.Errorf("opportunity: malformed point line %q", line)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "opportunity: point lon %q", parts[0])
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "opportunity: point lat %q", parts[1])
		}
		count, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 32)
		if err != nil {
			return nil, errors.Wrapf(err, "opportunity: point count %q", parts[2])
		}
		out = append(out, Point{Lon: lon, Lat: lat, Count: float32(count)})
	}
	return out, sc.Err()
}

// Rasterize scatters points onto a Grid over cells, accumulating counts
// into whichever cell contains each point. Points outside cells' bounds
// are dropped.
func Rasterize(cells *grid.TileGrid, points []Point) *Grid {
	g := NewGrid(cells)
	builder := make(map[int]*Tile)

	for _, p := range points {
		if p.Lon < cells.Cells.Bounds.MinLon || p.Lon >= cells.Cells.Bounds.MaxLon ||
			p.Lat < cells.Cells.Bounds.MinLat || p.Lat >= cells.Cells.Bounds.MaxLat {
			continue
		}
		x := cells.Cells.LonToX(p.Lon)
		y := cells.Cells.LatToY(p.Lat)
		tx, ty, cxLocal, cyLocal := cells.CellTile(x, y)
		flat := cells.TileFlatIndex(tx, ty)
		ic := cells.IntraTileIndex(cxLocal, cyLocal)

		tile, ok := builder[flat]
		if !ok {
			tile = NewTile(cells.Span)
			builder[flat] = tile
		}
		tile.Counts[ic] += p.Count
	}

	for flat, tile := range builder {
		g.Tiles.Set(flat, tile)
	}
	return g
}
