package egress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/street"
	"github.com/phase-five/access/internal/street/fake"
)

func smallGraph() *fake.Layer {
	return fake.New(
		[]street.Vertex{
			{ID: 1, Lon: 0.000, Lat: 0.000},
			{ID: 2, Lon: 0.002, Lat: 0.000},
			{ID: 3, Lon: 0.004, Lat: 0.000},
		},
		[]fake.Edge{
			{A: 1, B: 2, LengthMm: 200000},
			{A: 2, B: 3, LengthMm: 200000},
		},
	)
}

func TestBuilderBuildProducesReachableTile(t *testing.T) {
	layer := smallGraph()
	bounds := grid.Bounds{MinLon: -0.01, MinLat: -0.01, MaxLon: 0.01, MaxLat: 0.01}

	b := &Builder{Street: layer}
	table, err := b.Build(bounds, []Stop{
		{ID: 100, VertexID: 1, HasVertex: true},
	}, BuildOptions{EgressRadiusMeters: 1000, Span: 4})

	require.NoError(t, err)
	require.NotNil(t, table)
	require.Greater(t, table.Egress.Count(), 0, "expected at least one tile with egress contributions")

	found := false
	table.Egress.ForEach(func(flat int, tile *TimeTile) {
		if len(tile.StopIDs) == 0 {
			return
		}
		out := tile.Evaluate(StopTimes{100: 0})
		if out != nil {
			found = true
		}
	})
	require.True(t, found, "expected at least one tile to evaluate to a reached surface")
}

func TestBuilderBuildSkipsStopsWithoutVertex(t *testing.T) {
	layer := smallGraph()
	bounds := grid.Bounds{MinLon: -0.01, MinLat: -0.01, MaxLon: 0.01, MaxLat: 0.01}

	b := &Builder{Street: layer}
	table, err := b.Build(bounds, []Stop{
		{ID: 200, HasVertex: false},
	}, BuildOptions{EgressRadiusMeters: 1000, Span: 4})

	require.NoError(t, err)
	require.Equal(t, 0, table.Egress.Count())
}

// TestBuilderBuildWithDiskSpillMatchesInMemory confirms that forcing the
// connector store through sparsetile.DiskBacked (DiskSpillBytes: 1, the
// lowest possible limit, so every tile spills) produces the same egress
// table as the default in-memory path, instead of leaving DiskBacked
// wired but unverified.
func TestBuilderBuildWithDiskSpillMatchesInMemory(t *testing.T) {
	layer := smallGraph()
	bounds := grid.Bounds{MinLon: -0.01, MinLat: -0.01, MaxLon: 0.01, MaxLat: 0.01}
	stops := []Stop{{ID: 100, VertexID: 1, HasVertex: true}}

	b := &Builder{Street: layer}
	memTable, err := b.Build(bounds, stops, BuildOptions{EgressRadiusMeters: 1000, Span: 4})
	require.NoError(t, err)

	spillTable, err := b.Build(bounds, stops, BuildOptions{
		EgressRadiusMeters: 1000,
		Span:               4,
		DiskSpillBytes:     1,
		DiskSpillDir:       t.TempDir(),
	})
	require.NoError(t, err)

	require.Equal(t, memTable.Egress.Count(), spillTable.Egress.Count())
	require.Equal(t, memTable.Connectors.Count(), spillTable.Connectors.Count())

	memTable.Connectors.ForEach(func(flat int, tile *street.ConnectorTile) {
		spillTile := spillTable.Connectors.Get(flat)
		require.NotNil(t, spillTile, "flat %d missing from disk-spilled connectors", flat)
		require.Equal(t, tile.HasA, spillTile.HasA)
		require.Equal(t, tile.VertexA, spillTile.VertexA)
		require.Equal(t, tile.DistAMm, spillTile.DistAMm)
		require.Equal(t, tile.HasB, spillTile.HasB)
		require.Equal(t, tile.VertexB, spillTile.VertexB)
		require.Equal(t, tile.DistBMm, spillTile.DistBMm)
	})
}
