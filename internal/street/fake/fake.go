// Package fake provides an in-memory street.Layer test double: a fixed
// graph of vertices and edges, constructed once and validated the way the
// teacher's cog.OpenAll validates a raster before returning it.
package fake

import (
	"github.com/phase-five/access/internal/street"
	"github.com/phase-five/access/internal/street/memgraph"
)

// Edge is an undirected street-graph edge between two vertex ids with a
// fixed length in millimetres.
type Edge = memgraph.Edge

// Layer is a small in-memory street.Layer for tests that need a real (if
// tiny) graph rather than a hand-stubbed interface. It's a thin wrapper
// around memgraph.Graph rather than a second Dijkstra/haversine
// implementation: the fixed-graph, linear-frontier-search semantics a test
// double needs are exactly what the reference CLI's own in-memory Layer
// already provides.
type Layer struct {
	*memgraph.Graph
}

// New constructs a Layer from vertices and edges. Edges referencing an
// unknown vertex id are dropped rather than causing a panic, matching the
// spec's "per-tile/per-stop faults are logged and skipped" posture.
func New(vertices []street.Vertex, edges []Edge) *Layer {
	return &Layer{Graph: memgraph.New(vertices, edges)}
}
