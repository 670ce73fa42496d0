package street

// Mode selects the street-graph traversal profile for a search (§6). The
// core only ever asks for walking; the type exists so a Layer
// implementation can also serve other profiles without changing this
// interface.
type Mode string

// ModeWalk is the only mode the core itself issues searches for.
const ModeWalk Mode = "walk"

// Split is the result of a "nearest split" query: the two street-graph
// vertices bounding the point closest to the query location, with
// millimetre sub-edge distances to each.
type Split struct {
	VertexA   int64
	DistAMm   int32
	HasA      bool
	VertexB   int64
	DistBMm   int32
	HasB      bool
}

// Vertex is a random-access street-graph vertex with geographic
// coordinates.
type Vertex struct {
	ID       int64
	Lon, Lat float64
}

// Layer is the external street-graph collaborator the egress builder and
// one-to-many processor consume (§6): point-to-split lookup, a vertex
// store, and a shortest-path router minimising either seconds or
// millimetres.
type Layer interface {
	// FindSplit returns the nearest connector split within radiusMeters of
	// (lat, lon), or ok=false if nothing was found within range.
	FindSplit(lat, lon float64, radiusMeters float64, mode Mode) (split Split, ok bool)

	// Vertex returns the coordinates of a street vertex by id.
	Vertex(id int64) (Vertex, bool)

	// ShortestPathDistanceMm runs a one-to-many Dijkstra search from
	// fromVertex, minimising distance in millimetres, bounded to
	// radiusMeters, returning every reached vertex's cost.
	ShortestPathDistanceMm(fromVertex int64, radiusMeters float64, mode Mode) VertexCosts

	// ShortestPathDurationSec runs a one-to-many search from (lat, lon),
	// minimising seconds at the walk speed, bounded to maxSeconds. Used by
	// the one-to-many processor's origin street search (§4.I step 2),
	// which starts from an arbitrary point rather than an existing
	// vertex.
	ShortestPathDurationSec(lat, lon float64, maxSeconds float64, mode Mode) VertexCosts
}
