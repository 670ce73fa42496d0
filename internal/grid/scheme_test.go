package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScheme() *Scheme {
	return NewScheme(Bounds{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 5}, 100, 50)
}

func TestFlatCellRoundTrip(t *testing.T) {
	s := testScheme()
	for y := 0; y < s.H; y += 7 {
		for x := 0; x < s.W; x += 11 {
			flat := s.FlatIndex(x, y)
			gotX, gotY := s.CellAt(flat)
			require.Equal(t, x, gotX)
			require.Equal(t, y, gotY)
		}
	}
}

func TestFlatRoundTripFromIndex(t *testing.T) {
	s := testScheme()
	for i := 0; i < s.Size(); i += 37 {
		x, y := s.CellAt(i)
		require.Equal(t, i, s.FlatIndex(x, y))
	}
}

func TestLonLatToFlatMatchesCellCenters(t *testing.T) {
	s := testScheme()
	for y := 1; y < s.H; y += 5 {
		for x := 1; x < s.W; x += 5 {
			lon := s.CenterLonForX(x)
			lat := s.CenterLatForY(y)
			got := s.LonLatToFlat(lon, lat)
			assert.Equal(t, s.FlatIndex(x, y), got)
		}
	}
}

func TestFlatIndexCheckedOutOfRange(t *testing.T) {
	s := testScheme()
	assert.Equal(t, -1, s.FlatIndexChecked(-1, 0))
	assert.Equal(t, -1, s.FlatIndexChecked(0, -1))
	assert.Equal(t, -1, s.FlatIndexChecked(s.W, 0))
	assert.Equal(t, -1, s.FlatIndexChecked(0, s.H))
}

func TestCellBoundsTiling(t *testing.T) {
	s := testScheme()
	b := s.CellBounds(2, 3)
	dlon, dlat := s.CellDegrees()
	assert.InDelta(t, s.Bounds.MinLon+2*dlon, b.MinLon, 1e-9)
	assert.InDelta(t, s.Bounds.MinLon+3*dlon, b.MaxLon, 1e-9)
	assert.InDelta(t, s.Bounds.MinLat+3*dlat, b.MinLat, 1e-9)
	assert.InDelta(t, s.Bounds.MinLat+4*dlat, b.MaxLat, 1e-9)
}

func TestSubdivide(t *testing.T) {
	s := testScheme()
	sub := s.Subdivide(4)
	assert.Equal(t, s.W*4, sub.W)
	assert.Equal(t, s.H*4, sub.H)
	assert.Equal(t, s.Bounds, sub.Bounds)
}

func TestNewSchemeForCellSizeProducesSquareishCells(t *testing.T) {
	s := NewSchemeForCellSize(Bounds{MinLon: -1, MinLat: 45, MaxLon: 1, MaxLat: 46}, 100)
	require.Greater(t, s.W, 0)
	require.Greater(t, s.H, 0)
}
