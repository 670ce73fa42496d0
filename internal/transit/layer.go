package transit

// Layer is the external schedule-based transit collaborator (§6): stop
// count, per-stop street-vertex linkage, and a single-departure
// shortest-paths search. The departure window fan-out and multi-departure
// reduction live in this package (Search), not in the Layer, so any
// RAPTOR-style implementation only needs to answer "from these starting
// stops at this departure time, what's each stop's arrival second".
type Layer interface {
	// NStops returns the number of transit stops.
	NStops() int

	// StopVertex returns the street-graph vertex id linked to stop, or
	// ok=false if the stop has no street linkage.
	StopVertex(stop int) (vertexID int64, ok bool)

	// SearchDeparture runs one schedule-based shortest-paths search
	// starting from originStops (stop index -> first-arrival seconds at
	// that stop, from the street search) at departureSec, bounded to
	// maxRides transfers. Returns arrival seconds per stop, MaxSeconds
	// where unreached.
	SearchDeparture(originStops map[int]int32, departureSec int, maxRides int) []int32
}
