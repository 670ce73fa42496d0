// Package fake provides an in-memory transit.Layer test double driven by
// a per-departure search function supplied by the test.
package fake

// Layer is a scripted transit.Layer: SearchFn is invoked for every
// departure probed by transit.Search.
type Layer struct {
	Stops   int
	Vertex  map[int]int64
	SearchFn func(originStops map[int]int32, departureSec int, maxRides int) []int32
}

func (l *Layer) NStops() int { return l.Stops }

func (l *Layer) StopVertex(stop int) (int64, bool) {
	v, ok := l.Vertex[stop]
	return v, ok
}

func (l *Layer) SearchDeparture(originStops map[int]int32, departureSec int, maxRides int) []int32 {
	return l.SearchFn(originStops, departureSec, maxRides)
}
