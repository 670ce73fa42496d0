// Package grid implements the plate-carrée cell grid and tile-grid geometry
// that every other component indexes into: lon/lat ↔ (cell x, cell y) ↔ flat
// index, and the tile-level grouping of cells into fixed-size sparse tiles.
package grid

import "math"

// DegPerMeter approximates one meter of north-south distance in degrees of
// latitude. Used only to size cells from a target meter footprint; the
// actual cell width in degrees of longitude is corrected by cos(lat) at
// construction time, which is the source of the <10% distortion the spec
// accepts away from the equator.
const DegPerMeter = 1.0 / 111320.0

// Bounds is a WGS84 lon/lat rectangle.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// WidthLon returns the longitude span of the bounds in degrees.
func (b Bounds) WidthLon() float64 { return b.MaxLon - b.MinLon }

// HeightLat returns the latitude span of the bounds in degrees.
func (b Bounds) HeightLat() float64 { return b.MaxLat - b.MinLat }

// CenterLat returns the midpoint latitude, used for the cos-lat scale
// correction.
func (b Bounds) CenterLat() float64 { return (b.MinLat + b.MaxLat) / 2 }

// Scheme is a uniform W×H cell grid over a WGS84 rectangle. Cell (x, y)
// covers [lon0+x·dlon, lon0+(x+1)·dlon) × [lat0+y·dlat, lat0+(y+1)·dlat).
// Row-major flat index i = y*W + x.
type Scheme struct {
	Bounds Bounds
	W, H   int
	dlon   float64
	dlat   float64
}

// NewScheme builds a grid scheme of W×H cells over bounds.
func NewScheme(bounds Bounds, w, h int) *Scheme {
	return &Scheme{
		Bounds: bounds,
		W:      w,
		H:      h,
		dlon:   bounds.WidthLon() / float64(w),
		dlat:   bounds.HeightLat() / float64(h),
	}
}

// NewSchemeForCellSize builds a grid scheme covering bounds using a target
// cell size in meters, measured at the bounds' center latitude. Cells are
// kept square in meters there; the longitude step is widened by 1/cos(lat)
// relative to the latitude step to compensate for meridian convergence.
func NewSchemeForCellSize(bounds Bounds, cellSizeMeters float64) *Scheme {
	dlat := cellSizeMeters * DegPerMeter
	centerLat := bounds.CenterLat()
	cos := math.Cos(centerLat * math.Pi / 180)
	if cos < 1e-6 {
		cos = 1e-6
	}
	dlon := dlat / cos

	w := int(math.Ceil(bounds.WidthLon() / dlon))
	h := int(math.Ceil(bounds.HeightLat() / dlat))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	// Enlarge the bounds, centered, to exactly W·dlon × H·dlat so that cell
	// size stays uniform out to the edge.
	wantWidth := float64(w) * dlon
	wantHeight := float64(h) * dlat
	extraLon := (wantWidth - bounds.WidthLon()) / 2
	extraLat := (wantHeight - bounds.HeightLat()) / 2
	adjusted := Bounds{
		MinLon: bounds.MinLon - extraLon,
		MaxLon: bounds.MaxLon + extraLon,
		MinLat: bounds.MinLat - extraLat,
		MaxLat: bounds.MaxLat + extraLat,
	}

	return &Scheme{Bounds: adjusted, W: w, H: h, dlon: dlon, dlat: dlat}
}

// CellDegrees returns the per-cell longitude and latitude span in degrees.
func (s *Scheme) CellDegrees() (dlon, dlat float64) { return s.dlon, s.dlat }

// FlatIndex packs a cell coordinate into its row-major flat index. Callers
// must range-check first; use FlatIndexChecked for untrusted input.
func (s *Scheme) FlatIndex(x, y int) int { return y*s.W + x }

// CellAt unpacks a flat index back into (x, y). Inverse of FlatIndex.
func (s *Scheme) CellAt(flat int) (x, y int) {
	return flat % s.W, flat / s.W
}

// FlatIndexChecked returns FlatIndex(x, y), or -1 if the cell lies outside
// [0,W)×[0,H).
func (s *Scheme) FlatIndexChecked(x, y int) int {
	if x < 0 || x >= s.W || y < 0 || y >= s.H {
		return -1
	}
	return s.FlatIndex(x, y)
}

// Size returns the total number of cells, W*H.
func (s *Scheme) Size() int { return s.W * s.H }

// LonToX maps a longitude to a cell column, unchecked; may return a value
// outside [0, W).
func (s *Scheme) LonToX(lon float64) int {
	return int(math.Floor((lon - s.Bounds.MinLon) / s.dlon))
}

// LatToY maps a latitude to a cell row, unchecked; may return a value
// outside [0, H).
func (s *Scheme) LatToY(lat float64) int {
	return int(math.Floor((lat - s.Bounds.MinLat) / s.dlat))
}

// LonLatToFlat maps a lon/lat pair to a flat cell index, or -1 if outside
// the grid bounds.
func (s *Scheme) LonLatToFlat(lon, lat float64) int {
	x, y := s.LonToX(lon), s.LatToY(lat)
	return s.FlatIndexChecked(x, y)
}

// CenterLonForX returns the longitude at the horizontal center of column x.
func (s *Scheme) CenterLonForX(x int) float64 {
	return s.Bounds.MinLon + (float64(x)+0.5)*s.dlon
}

// CenterLatForY returns the latitude at the vertical center of row y.
func (s *Scheme) CenterLatForY(y int) float64 {
	return s.Bounds.MinLat + (float64(y)+0.5)*s.dlat
}

// CellBounds returns the WGS84 bounds of cell (x, y).
func (s *Scheme) CellBounds(x, y int) Bounds {
	return Bounds{
		MinLon: s.Bounds.MinLon + float64(x)*s.dlon,
		MaxLon: s.Bounds.MinLon + float64(x+1)*s.dlon,
		MinLat: s.Bounds.MinLat + float64(y)*s.dlat,
		MaxLat: s.Bounds.MinLat + float64(y+1)*s.dlat,
	}
}

// Subdivide returns a new Scheme over the same bounds with k times more
// cells per side.
func (s *Scheme) Subdivide(k int) *Scheme {
	return NewScheme(s.Bounds, s.W*k, s.H*k)
}
