package engine

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phase-five/access/internal/access"
	"github.com/phase-five/access/internal/analysis"
	"github.com/phase-five/access/internal/batch"
	"github.com/phase-five/access/internal/egress"
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/opportunity"
	"github.com/phase-five/access/internal/street"
	"github.com/phase-five/access/internal/street/fake"
	"github.com/phase-five/access/internal/transit"
	transitfake "github.com/phase-five/access/internal/transit/fake"
)

func straightRoad() *fake.Layer {
	return fake.New(
		[]street.Vertex{
			{ID: 1, Lon: 0.000, Lat: 0.000},
			{ID: 2, Lon: 0.001, Lat: 0.000},
		},
		[]fake.Edge{{A: 1, B: 2, LengthMm: 100000}},
	)
}

func TestRunnerRunScoresRegisteredJobTask(t *testing.T) {
	layer := straightRoad()
	bounds := grid.Bounds{MinLon: -0.01, MinLat: -0.01, MaxLon: 0.01, MaxLat: 0.01}

	b := &egress.Builder{Street: layer}
	table, err := b.Build(bounds, nil, egress.BuildOptions{EgressRadiusMeters: 10, Span: 4})
	require.NoError(t, err)

	oppGrid := opportunity.NewGrid(table.Grid)
	table.Grid.FullRange().ForEachFlatParentIndex(func(flat int) {
		tile := opportunity.NewTile(table.Grid.Span)
		for i := range tile.Counts {
			tile.Counts[i] = 5
		}
		oppGrid.Tiles.Set(flat, tile)
	})

	r := NewRunner()
	r.Register("job1", JobContext{
		Bounds: bounds, Width: 1, Height: 1,
		Network:       analysis.NetworkData{Street: layer},
		Table:         table,
		Opportunities: oppGrid,
		MaxMinutes:    5,
		Options: batch.Options{
			Percentiles: analysis.ReferencePercentiles,
			Cutoffs:     analysis.ReferenceCutoffs,
			MaxDualN:    access.DefaultMaxDualN,
		},
	})

	result := r.Run("job1", 0)
	require.NoError(t, result.Err)
	require.Len(t, result.Access, len(analysis.ReferencePercentiles))
	assert.Greater(t, result.Access[0][len(result.Access[0])-1], int32(0))
}

func TestRunnerRunUnregisteredJobReturnsError(t *testing.T) {
	r := NewRunner()
	result := r.Run("missing", 0)
	assert.Error(t, result.Err)
}

// TestRunnerRunWithTransitModeInvokesTransitSearch confirms a batch job
// whose Options.Modes includes "transit" actually reaches step 4 of the
// one-to-many pipeline, instead of silently running walk-only (the
// runner must thread Options.Modes and the job's departure window through
// to the processor's Request for this to happen at all).
func TestRunnerRunWithTransitModeInvokesTransitSearch(t *testing.T) {
	layer := straightRoad()
	bounds := grid.Bounds{MinLon: -0.01, MinLat: -0.01, MaxLon: 0.01, MaxLat: 0.01}

	b := &egress.Builder{Street: layer}
	table, err := b.Build(bounds, nil, egress.BuildOptions{EgressRadiusMeters: 500, Span: 4})
	require.NoError(t, err)

	oppGrid := opportunity.NewGrid(table.Grid)
	table.Grid.FullRange().ForEachFlatParentIndex(func(flat int) {
		tile := opportunity.NewTile(table.Grid.Span)
		for i := range tile.Counts {
			tile.Counts[i] = 5
		}
		oppGrid.Tiles.Set(flat, tile)
	})

	var searchCalls atomic.Int32
	transitLayer := &transitfake.Layer{
		Stops:  1,
		Vertex: map[int]int64{0: 2},
		SearchFn: func(originStops map[int]int32, departureSec int, maxRides int) []int32 {
			searchCalls.Add(1)
			return []int32{600}
		},
	}

	r := NewRunner()
	r.Register("job1", JobContext{
		Bounds: bounds, Width: 1, Height: 1,
		Network: analysis.NetworkData{
			Street:    layer,
			Transit:   transitLayer,
			StopCount: 1,
			StopCoord: func(stop int) (lat, lon float64, ok bool) { return 0.000, 0.001, true },
		},
		Table:           table,
		Opportunities:   oppGrid,
		MaxMinutes:      30,
		DepartureWindow: transit.Window{DepartureSecs: []int{0}},
		Options: batch.Options{
			Percentiles: analysis.ReferencePercentiles,
			Cutoffs:     analysis.ReferenceCutoffs,
			MaxDualN:    access.DefaultMaxDualN,
			Modes:       []string{"transit"},
		},
	})

	result := r.Run("job1", 0)
	require.NoError(t, result.Err)
	assert.Equal(t, int32(1), searchCalls.Load())
	require.Len(t, result.Access, len(analysis.ReferencePercentiles))
}

var _ batch.TaskRunner = NewRunner().Run
