package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phase-five/access/internal/egress"
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/opportunity"
	"github.com/phase-five/access/internal/street"
	"github.com/phase-five/access/internal/street/fake"
)

func straightRoad() *fake.Layer {
	return fake.New(
		[]street.Vertex{
			{ID: 1, Lon: 0.000, Lat: 0.000},
			{ID: 2, Lon: 0.001, Lat: 0.000},
			{ID: 3, Lon: 0.002, Lat: 0.000},
		},
		[]fake.Edge{
			{A: 1, B: 2, LengthMm: 100000},
			{A: 2, B: 3, LengthMm: 100000},
		},
	)
}

func TestProcessorRunOriginUnplaceableYieldsZeroHistogram(t *testing.T) {
	layer := fake.New(nil, nil)
	bounds := grid.Bounds{MinLon: -0.01, MinLat: -0.01, MaxLon: 0.01, MaxLat: 0.01}
	table := &egress.SparseTable{Grid: grid.TileGridContaining(bounds, 4)}

	p := &Processor{}
	res, err := p.Run(Request{OriginLat: 50, OriginLon: 50, MaxDurationMinutes: 30}, NetworkData{Street: layer}, table, nil)

	require.NoError(t, err)
	require.False(t, res.Placed)
	for _, v := range res.Histogram.Density {
		require.Equal(t, int32(0), v)
	}
}

func TestProcessorRunWalkOnlyReachesNearbyCells(t *testing.T) {
	layer := straightRoad()
	bounds := grid.Bounds{MinLon: -0.01, MinLat: -0.01, MaxLon: 0.01, MaxLat: 0.01}

	b := &egress.Builder{Street: layer}
	table, err := b.Build(bounds, nil, egress.BuildOptions{EgressRadiusMeters: 10, Span: 4})
	require.NoError(t, err)

	oppGrid := opportunity.NewGrid(table.Grid)
	table.Grid.FullRange().ForEachFlatParentIndex(func(flat int) {
		tile := opportunity.NewTile(table.Grid.Span)
		for i := range tile.Counts {
			tile.Counts[i] = 10
		}
		oppGrid.Tiles.Set(flat, tile)
	})

	p := &Processor{}
	res, err := p.Run(Request{
		OriginLat:          0,
		OriginLon:          0,
		MaxDurationMinutes: 5,
	}, NetworkData{Street: layer}, table, oppGrid)

	require.NoError(t, err)
	require.True(t, res.Placed)

	total := int32(0)
	for _, v := range res.Histogram.Density {
		total += v
	}
	require.Greater(t, total, int32(0), "expected some opportunities counted within 5 minutes")
}
