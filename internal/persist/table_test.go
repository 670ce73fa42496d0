package persist

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phase-five/access/internal/egress"
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/opportunity"
	"github.com/phase-five/access/internal/sparsetile"
	"github.com/phase-five/access/internal/street"
)

func fixtureBounds() grid.Bounds {
	return grid.Bounds{MinLon: -122.5, MinLat: 37.6, MaxLon: -122.3, MaxLat: 37.8}
}

func fixtureTileGrid() *grid.TileGrid {
	return grid.NewTileGrid(fixtureBounds(), 2, 2, 4)
}

func TestEgressTableSaveLoadRoundTrips(t *testing.T) {
	tg := fixtureTileGrid()
	n := tg.NumTiles()

	connectors := sparsetile.NewArray[street.ConnectorTile](n)
	ct := street.NewConnectorTile(tg.Span)
	ct.HasA[0] = true
	ct.VertexA[0] = 42
	ct.DistAMm[0] = 1500
	ct.HasB[3] = true
	ct.VertexB[3] = 7
	ct.DistBMm[3] = 900
	connectors.Set(1, ct)

	egressTiles := sparsetile.NewArray[egress.TimeTile](n)
	tt := egress.NewTimeTile(tg.Span)
	row := make([]int32, tg.Span*tg.Span)
	for i := range row {
		row[i] = egress.Unreached
	}
	row[0] = 120
	row[5] = 340
	tt.AppendStop(1001, row)
	egressTiles.Set(2, tt)

	table := &egress.SparseTable{Grid: tg, Egress: egressTiles, Connectors: connectors}

	var buf bytes.Buffer
	require.NoError(t, SaveEgressTable(&buf, table))

	loaded, err := LoadEgressTable(&buf)
	require.NoError(t, err)

	assert.Equal(t, tg.Span, loaded.Grid.Span)
	assert.Equal(t, tg.TW, loaded.Grid.TW)
	assert.Equal(t, tg.TH, loaded.Grid.TH)
	assert.Equal(t, tg.Cells.Bounds, loaded.Grid.Cells.Bounds)

	gotConn := loaded.Connectors.Get(1)
	require.NotNil(t, gotConn)
	assert.True(t, gotConn.HasA[0])
	assert.Equal(t, int64(42), gotConn.VertexA[0])
	assert.Equal(t, int32(1500), gotConn.DistAMm[0])
	assert.True(t, gotConn.HasB[3])
	assert.Equal(t, int64(7), gotConn.VertexB[3])
	assert.Equal(t, int32(900), gotConn.DistBMm[3])
	assert.Nil(t, loaded.Connectors.Get(0))

	gotEgress := loaded.Egress.Get(2)
	require.NotNil(t, gotEgress)
	require.Len(t, gotEgress.StopIDs, 1)
	assert.Equal(t, int64(1001), gotEgress.StopIDs[0])
	assert.Equal(t, int32(120), gotEgress.DistSec[0][0])
	assert.Equal(t, int32(340), gotEgress.DistSec[0][5])
	assert.Nil(t, loaded.Egress.Get(0))
}

func TestOpportunityGridSaveLoadRoundTrips(t *testing.T) {
	tg := fixtureTileGrid()
	g := opportunity.NewGrid(tg)

	tile := opportunity.NewTile(tg.Span)
	tile.Counts[0] = 12.5
	tile.Counts[7] = 3
	g.Tiles.Set(3, tile)

	var buf bytes.Buffer
	require.NoError(t, SaveOpportunityGrid(&buf, g))

	loaded, err := LoadOpportunityGrid(&buf)
	require.NoError(t, err)

	assert.Equal(t, tg.Span, loaded.Cells.Span)
	assert.Equal(t, tg.Cells.Bounds, loaded.Cells.Cells.Bounds)
	assert.Equal(t, float32(0), loaded.At(0, 0))
	assert.Equal(t, float32(12.5), loaded.At(3, 0))
	assert.Equal(t, float32(3), loaded.At(3, 7))
}

func TestLoadEgressTableRejectsBadMagic(t *testing.T) {
	_, err := LoadEgressTable(bytes.NewReader(make([]byte, HeaderSize)))
	assert.Error(t, err)
}
