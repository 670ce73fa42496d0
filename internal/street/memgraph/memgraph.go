// Package memgraph is a reference street.Layer backed by an in-memory
// vertex/edge graph loaded from CSV, for single-machine CLI use where no
// external routing service is wired in. Production deployments with a
// real street network (OSRM, GraphHopper, a custom router) satisfy
// street.Layer directly against their own engine instead.
package memgraph

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/phase-five/access/internal/street"
)

// Edge is an undirected street-graph edge between two vertex ids with a
// fixed length in millimetres.
type Edge struct {
	A, B     int64
	LengthMm int32
}

// Graph is a small in-memory street.Layer backed by a fixed vertex/edge
// set: a linear-frontier Dijkstra, adequate for the single-query CLI path
// this package serves (a production Layer owns its own priority queue and
// spatial index).
type Graph struct {
	vertices map[int64]street.Vertex
	adj      map[int64][]Edge
}

// New constructs a Graph from vertices and edges. Edges referencing an
// unknown vertex id are dropped rather than causing a panic.
func New(vertices []street.Vertex, edges []Edge) *Graph {
	g := &Graph{
		vertices: make(map[int64]street.Vertex, len(vertices)),
		adj:      make(map[int64][]Edge),
	}
	for _, v := range vertices {
		g.vertices[v.ID] = v
	}
	for _, e := range edges {
		if _, ok := g.vertices[e.A]; !ok {
			continue
		}
		if _, ok := g.vertices[e.B]; !ok {
			continue
		}
		g.adj[e.A] = append(g.adj[e.A], e)
		g.adj[e.B] = append(g.adj[e.B], Edge{A: e.B, B: e.A, LengthMm: e.LengthMm})
	}
	return g
}

// ReadVertices parses "id,lon,lat" CSV lines (no header).
func ReadVertices(r io.Reader) ([]street.Vertex, error) {
	var out []street.Vertex
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return nil, errors.Errorf("memgraph: malformed vertex line %q", line)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "memgraph: vertex id %q", parts[0])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "memgraph: vertex lon %q", parts[1])
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "memgraph: vertex lat %q", parts[2])
		}
		out = append(out, street.Vertex{ID: id, Lon: lon, Lat: lat})
	}
	return out, sc.Err()
}

// ReadEdges parses "a,b,lengthMm" CSV lines (no header).
func ReadEdges(r io.Reader) ([]Edge, error) {
	var out []Edge
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return nil, errors.Errorf("memgraph: malformed edge line %q", line)
		}
		a, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "memgraph: edge a %q", parts[0])
		}
		b, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "memgraph: edge b %q", parts[1])
		}
		lenMm, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "memgraph: edge length %q", parts[2])
		}
		out = append(out, Edge{A: a, B: b, LengthMm: int32(lenMm)})
	}
	return out, sc.Err()
}

// Vertex implements street.Layer.
func (g *Graph) Vertex(id int64) (street.Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// VertexBounds returns the lon/lat bounding box of every vertex in the
// graph, used to size a tile grid for egress-table building.
func (g *Graph) VertexBounds() (minLon, minLat, maxLon, maxLat float64, ok bool) {
	minLon, minLat = math.Inf(1), math.Inf(1)
	maxLon, maxLat = math.Inf(-1), math.Inf(-1)
	for _, v := range g.vertices {
		ok = true
		minLon, maxLon = math.Min(minLon, v.Lon), math.Max(maxLon, v.Lon)
		minLat, maxLat = math.Min(minLat, v.Lat), math.Max(maxLat, v.Lat)
	}
	return
}

// FindSplit returns the single nearest vertex within radiusMeters as both
// sides of the split — a degenerate but valid split when the loaded graph
// carries bare vertices rather than subdivided edge geometry.
func (g *Graph) FindSplit(lat, lon float64, radiusMeters float64, mode street.Mode) (street.Split, bool) {
	var best street.Vertex
	bestDist := math.Inf(1)
	found := false

	for _, v := range g.vertices {
		d := haversineMeters(lat, lon, v.Lat, v.Lon)
		if d <= radiusMeters && d < bestDist {
			best, bestDist, found = v, d, true
		}
	}
	if !found {
		return street.Split{}, false
	}

	mm := int32(bestDist * 1000)
	return street.Split{VertexA: best.ID, DistAMm: mm, HasA: true, VertexB: best.ID, DistBMm: mm, HasB: true}, true
}

// ShortestPathDistanceMm runs Dijkstra from fromVertex over the fixed edge
// set, bounded to radiusMeters (converted to millimetres).
func (g *Graph) ShortestPathDistanceMm(fromVertex int64, radiusMeters float64, mode street.Mode) street.VertexCosts {
	limitMm := radiusMeters * 1000

	dist := map[int64]float64{fromVertex: 0}
	visited := map[int64]bool{}

	for {
		var u int64
		best := math.Inf(1)
		foundNext := false
		for id, d := range dist {
			if visited[id] {
				continue
			}
			if d < best {
				u, best, foundNext = id, d, true
			}
		}
		if !foundNext || best > limitMm {
			break
		}
		visited[u] = true

		for _, e := range g.adj[u] {
			nd := dist[u] + float64(e.LengthMm)
			if nd > limitMm {
				continue
			}
			if cur, ok := dist[e.B]; !ok || nd < cur {
				dist[e.B] = nd
			}
		}
	}

	costs := make(map[int64]float64, len(dist))
	for id, d := range dist {
		if d <= limitMm {
			costs[id] = d
		}
	}
	return street.VertexCosts{Unit: street.UnitDistanceMm, Costs: costs}
}

// ShortestPathDurationSec places (lat, lon) onto the nearest vertex and
// runs the same Dijkstra as ShortestPathDistanceMm, converting the
// duration bound to millimetres at street.SpeedMmPerSec and the resulting
// distances back to seconds.
func (g *Graph) ShortestPathDurationSec(lat, lon float64, maxSeconds float64, mode street.Mode) street.VertexCosts {
	split, ok := g.FindSplit(lat, lon, maxSeconds*street.SpeedMmPerSec/1000, mode)
	if !ok {
		return street.VertexCosts{Unit: street.UnitDurationSec, Costs: map[int64]float64{}}
	}

	originOffsetSec := float64(split.DistAMm) / street.SpeedMmPerSec
	remainingMm := maxSeconds*street.SpeedMmPerSec - float64(split.DistAMm)
	distCosts := g.ShortestPathDistanceMm(split.VertexA, remainingMm/1000, mode)

	secCosts := make(map[int64]float64, len(distCosts.Costs))
	for id, mm := range distCosts.Costs {
		secCosts[id] = originOffsetSec + mm/street.SpeedMmPerSec
	}
	return street.VertexCosts{Unit: street.UnitDurationSec, Costs: secCosts}
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6371000.0
	toRad := math.Pi / 180.0
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
