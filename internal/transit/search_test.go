package transit

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phase-five/access/internal/transit/fake"
)

func TestSearchReducesAcrossDepartures(t *testing.T) {
	var calls atomic.Int32
	layer := &fake.Layer{
		Stops: 3,
		SearchFn: func(originStops map[int]int32, departureSec int, maxRides int) []int32 {
			calls.Add(1)
			switch departureSec {
			case 0:
				return []int32{10, MaxSeconds, 30}
			case 60:
				return []int32{20, 15, MaxSeconds}
			case 120:
				return []int32{MaxSeconds, MaxSeconds, 25}
			}
			return []int32{MaxSeconds, MaxSeconds, MaxSeconds}
		},
	}

	surface := Search(layer, map[int]int32{0: 0}, Window{DepartureSecs: []int{0, 60, 120}}, SearchOptions{})
	require.Equal(t, int32(3), calls.Load())

	require.Equal(t, int32(10), surface.Min[0])
	require.Equal(t, int32(15), surface.Min[1])
	require.Equal(t, int32(25), surface.Min[2])

	require.Equal(t, int32(20), surface.Max[0])
	require.Equal(t, int32(15), surface.Max[1])
	require.Equal(t, int32(30), surface.Max[2])
}

func TestSearchReturnsUnreachedSurfaceWithoutOriginStops(t *testing.T) {
	layer := &fake.Layer{Stops: 2, SearchFn: func(map[int]int32, int, int) []int32 {
		t.Fatalf("should not be called")
		return nil
	}}
	surface := Search(layer, map[int]int32{}, Window{DepartureSecs: []int{0}}, SearchOptions{})
	require.Equal(t, int32(MaxSeconds), surface.Min[0])
	require.Equal(t, int32(MaxSeconds), surface.Min[1])
}

func TestReduceMedianAsAvgStandIn(t *testing.T) {
	arrivals := [][]int32{{10}, {20}, {30}}
	s := Reduce(arrivals, 1)
	require.Equal(t, int32(10), s.Min[0])
	require.Equal(t, int32(30), s.Max[0])
	require.Equal(t, int32(20), s.Avg[0])
}
