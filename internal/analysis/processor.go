package analysis

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/phase-five/access/internal/access"
	"github.com/phase-five/access/internal/egress"
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/opportunity"
	"github.com/phase-five/access/internal/street"
	"github.com/phase-five/access/internal/transit"
)

func cosDeg(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }

// ReferenceCutoffs and ReferencePercentiles are the reference parameter
// lists from §4.I ("reference cutoffs [30,45,60], percentiles [1,50,99]").
// Request-scoped callers may override either.
var ReferenceCutoffs = []int{30, 45, 60}
var ReferencePercentiles = []int{1, 50, 99}

// WalkSpeedMetersPerSec mirrors street.SpeedMmPerSec in meters, used to
// bound the street output region by straight-line radius (§4.I step 3).
const WalkSpeedMetersPerSec = street.SpeedMmPerSec / 1000

// Request is one one-to-many query (§4.I inputs).
type Request struct {
	OriginLat, OriginLon float64
	// Modes lists the travel modes to consider; "transit" enables step 4.
	Modes []string
	// DepartureWindow is the set of departure seconds-of-day to probe; empty
	// means "no transit search" regardless of Modes.
	DepartureWindow transit.Window
	MaxDurationMinutes int

	Cutoffs     []int
	Percentiles []int

	// StreetSearchRadiusMeters bounds the transit output region together
	// with the street bounds; if zero, computed as
	// MaxDurationMinutes*60*WalkSpeedMetersPerSec (§9.ii: "treat as a
	// request-scoped parameter").
	StreetSearchRadiusMeters float64

	// MaxDualN is the dual-access histogram width (§9.iii: configurable,
	// default access.DefaultMaxDualN).
	MaxDualN int
}

func (r Request) hasMode(mode string) bool {
	for _, m := range r.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

func (r Request) streetRadiusMeters() float64 {
	if r.StreetSearchRadiusMeters > 0 {
		return r.StreetSearchRadiusMeters
	}
	return float64(r.MaxDurationMinutes) * 60 * WalkSpeedMetersPerSec
}

// NetworkData bundles the external collaborators a single Processor.Run
// consumes (§6 "external collaborators the core consumes").
type NetworkData struct {
	Street  street.Layer
	Transit transit.Layer // nil disables the transit search entirely
	// StopCount mirrors Transit.NStops(), needed even when Transit is nil
	// for egress evaluation bookkeeping.
	StopCount int
	// StopCoord resolves a stop index to its geographic location, used to
	// bound the transit output region (§4.I step 4: "bounding box of
	// reached stops"). May be nil if Transit is nil.
	StopCoord func(stop int) (lat, lon float64, ok bool)
}

// PixelGrid is the scattered output surface for step 5/6: one Durations
// per cell, row-major over a WGS84 bounds.
type PixelGrid struct {
	Width, Height int
	Bounds        grid.Bounds
	Cells         []Durations
}

// NewPixelGrid allocates an all-unreached pixel grid.
func NewPixelGrid(bounds grid.Bounds, width, height int) *PixelGrid {
	cells := make([]Durations, width*height)
	for i := range cells {
		cells[i] = Unset()
	}
	return &PixelGrid{Width: width, Height: height, Bounds: bounds, Cells: cells}
}

// Result is what Processor.Run produces: the scattered duration surface
// and the origin's access histogram, ready for rendering (§4.I step 6).
type Result struct {
	Placed    bool // false: origin could not be placed on the street graph
	Pixels    *PixelGrid
	Histogram *access.Histogram
	// Histograms holds one histogram per req.Percentiles slot, built from
	// the optimistic/typical/pessimistic (Min/Avg/Max) travel time at each
	// cell rather than the single Min-based Histogram above. Batch
	// many-to-many scoring reads this; single-query rendering reads
	// Histogram, which is Histograms' first slot.
	Histograms []*access.Histogram
	Bounds     grid.Bounds
}

// durationForPercentileSlot picks which of a cell's optimistic/typical/
// pessimistic durations feeds percentile slot i (§4.I step 5's histogram
// is single-valued per cell; batch scoring needs one draw per reference
// percentile). Slot 0 draws Min, slot 1 Avg, slot 2 and beyond Max.
func durationForPercentileSlot(d Durations, slot int) int32 {
	switch slot {
	case 0:
		return d.Min
	case 1:
		return d.Avg
	default:
		return d.Max
	}
}

// Processor runs the one-to-many pipeline (§4.I).
type Processor struct {
	Log *zap.SugaredLogger
}

func (p *Processor) log() *zap.SugaredLogger {
	if p.Log == nil {
		return zap.NewNop().Sugar()
	}
	return p.Log
}

// Run executes the six-step pipeline against already-loaded network data,
// egress table, and opportunity grid (loading them is the caller's
// responsibility, typically via internal/cache, matching §4.I step 1).
func (p *Processor) Run(req Request, network NetworkData, table *egress.SparseTable, opportunities *opportunity.Grid) (*Result, error) {
	if table == nil {
		return nil, errors.New("analysis: nil egress table")
	}

	maxDurationSec := float64(req.MaxDurationMinutes) * 60

	// Step 2: street search, time-limited to min(duration, 60) minutes.
	streetBudgetSec := maxDurationSec
	if streetBudgetSec > 3600 {
		streetBudgetSec = 3600
	}
	streetCosts := network.Street.ShortestPathDurationSec(req.OriginLat, req.OriginLon, streetBudgetSec, street.ModeWalk)
	if len(streetCosts.Costs) == 0 {
		p.log().Debugw("origin could not be placed on street graph", "lat", req.OriginLat, "lon", req.OriginLon)
		hist := access.NewHistogram(req.MaxDualN)
		hist.Finalize()
		return &Result{Placed: false, Histogram: hist}, nil
	}

	// Step 3: street output bounds via straight-line radius, not reached
	// vertices (a distant vertex may be reachable via a crossing edge).
	streetRadius := req.streetRadiusMeters()
	streetBounds := circleBounds(req.OriginLat, req.OriginLon, streetRadius)

	// Step 4: transit search, skipped per the listed short-circuit
	// conditions.
	var transitSurface *transit.Surface
	expandedBounds := streetBounds
	if network.Transit != nil && req.hasMode("transit") && len(req.DepartureWindow.DepartureSecs) > 0 {
		originStops := reachedStops(network, streetCosts)
		if len(originStops) > 0 {
			transitSurface = transit.Search(network.Transit, originStops, req.DepartureWindow, transit.SearchOptions{})
			if stopBounds, ok := reachedStopBounds(network, transitSurface); ok {
				expandedBounds = unionBounds(expandBounds(stopBounds, streetRadius), streetBounds)
			}
		}
	}

	// Step 5: propagation pass over the expanded tile range.
	r := table.Grid.RangeForBounds(expandedBounds)
	span := table.Grid.Span
	lo := table.Grid.Cells.CellBounds(r.TXMin*span, r.TYMin*span)
	hi := table.Grid.Cells.CellBounds((r.TXMin+r.TW)*span-1, (r.TYMin+r.TH)*span-1)
	pixelBounds := grid.Bounds{MinLon: lo.MinLon, MinLat: lo.MinLat, MaxLon: hi.MaxLon, MaxLat: hi.MaxLat}
	pixels := NewPixelGrid(pixelBounds, r.TW*span, r.TH*span)

	nPercentiles := len(req.Percentiles)
	if nPercentiles == 0 {
		nPercentiles = 1
	}
	hists := make([]*access.Histogram, nPercentiles)
	for i := range hists {
		hists[i] = access.NewHistogram(req.MaxDualN)
	}

	r.ForEachFlatParentIndex(func(flat int) {
		p.propagateTile(flat, table, transitSurface, streetCosts, network, opportunities, req, pixels, r, hists)
	})

	for _, h := range hists {
		h.Finalize()
	}
	return &Result{Placed: true, Pixels: pixels, Histogram: hists[0], Histograms: hists, Bounds: pixelBounds}, nil
}

func (p *Processor) propagateTile(flat int, table *egress.SparseTable, transitSurface *transit.Surface, streetCosts street.VertexCosts, network NetworkData, opportunities *opportunity.Grid, req Request, pixels *PixelGrid, r grid.Range, hists []*access.Histogram) {
	span := table.Grid.Span
	var transitOut [3][]int32

	if transitSurface != nil {
		egressTile := table.Egress.Get(flat)
		if egressTile != nil {
			transitOut[0] = egressTile.Evaluate(egressStopTimes(transitSurface.Min))
			if transitOut[0] != nil {
				transitOut[1] = egressTile.Evaluate(egressStopTimes(transitSurface.Avg))
				transitOut[2] = egressTile.Evaluate(egressStopTimes(transitSurface.Max))
			}
		}
	}

	var streetOut []int32
	connTile := table.Connectors.Get(flat)
	if connTile != nil {
		streetOut, _ = street.Evaluate(connTile, streetCosts)
	}

	var oppTile *opportunity.Tile
	if opportunities != nil {
		oppTile = opportunities.Tiles.Get(flat)
	}

	tx, ty := table.Grid.TileAt(flat)
	ox, oy := table.Grid.TileOrigin(tx, ty)

	for ic := 0; ic < span*span; ic++ {
		d := Unset()
		if transitOut[0] != nil {
			t := clampDuration(transitOut[0][ic], int32(req.MaxDurationMinutes)*60)
			a := clampDuration(valueOrUnreached(transitOut[1], ic), int32(req.MaxDurationMinutes)*60)
			mx := clampDuration(valueOrUnreached(transitOut[2], ic), int32(req.MaxDurationMinutes)*60)
			d = MinMerge(d, Durations{Min: t, Avg: a, Max: mx})
		}
		if streetOut != nil && streetOut[ic] != street.Absent {
			s := streetOut[ic]
			d = MinMerge(d, Durations{Min: s, Avg: s, Max: s})
		}

		if oppTile != nil {
			count := oppTile.Counts[ic]
			if count > 0 {
				for slot, hist := range hists {
					sec := durationForPercentileSlot(d, slot)
					if sec < Unreached {
						hist.AddAt(int(sec/60), count)
					}
				}
			}
		}

		cxLocal, cyLocal := ic%span, ic/span
		px, py := ox+cxLocal-r.TXMin*span, oy+cyLocal-r.TYMin*span
		if px >= 0 && px < pixels.Width && py >= 0 && py < pixels.Height {
			pixels.Cells[py*pixels.Width+px] = d
		}
	}
}

func valueOrUnreached(arr []int32, i int) int32 {
	if arr == nil {
		return Unreached
	}
	return arr[i]
}

func clampDuration(sec int32, capSec int32) int32 {
	if sec >= Unreached || sec > capSec {
		return Unreached
	}
	return sec
}

func egressStopTimes(perStop []int32) egress.StopTimes {
	st := make(egress.StopTimes, len(perStop))
	for i, v := range perStop {
		st[int64(i)] = v
	}
	return st
}

func reachedStops(network NetworkData, streetCosts street.VertexCosts) map[int]int32 {
	out := make(map[int]int32)
	for stop := 0; stop < network.StopCount; stop++ {
		vid, ok := network.Transit.StopVertex(stop)
		if !ok {
			continue
		}
		cost, ok := streetCosts.Get(vid)
		if !ok {
			continue
		}
		out[stop] = int32(cost)
	}
	return out
}

func reachedStopBounds(network NetworkData, surface *transit.Surface) (grid.Bounds, bool) {
	if network.StopCoord == nil {
		return grid.Bounds{}, false
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	any := false

	for stop, sec := range surface.Min {
		if sec >= transit.MaxSeconds {
			continue
		}
		lat, lon, ok := network.StopCoord(stop)
		if !ok {
			continue
		}
		any = true
		minLon, maxLon = minF(minLon, lon), maxF(maxLon, lon)
		minLat, maxLat = minF(minLat, lat), maxF(maxLat, lat)
	}
	if !any {
		return grid.Bounds{}, false
	}
	return grid.Bounds{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}, true
}

func circleBounds(lat, lon, radiusMeters float64) grid.Bounds {
	dlat := radiusMeters * grid.DegPerMeter
	dlon := dlat / cosDeg(lat)
	return grid.Bounds{MinLon: lon - dlon, MinLat: lat - dlat, MaxLon: lon + dlon, MaxLat: lat + dlat}
}

func expandBounds(b grid.Bounds, radiusMeters float64) grid.Bounds {
	dlat := radiusMeters * grid.DegPerMeter
	dlon := dlat / cosDeg(b.CenterLat())
	return grid.Bounds{MinLon: b.MinLon - dlon, MinLat: b.MinLat - dlat, MaxLon: b.MaxLon + dlon, MaxLat: b.MaxLat + dlat}
}

func unionBounds(a, b grid.Bounds) grid.Bounds {
	return grid.Bounds{
		MinLon: minF(a.MinLon, b.MinLon),
		MinLat: minF(a.MinLat, b.MinLat),
		MaxLon: maxF(a.MaxLon, b.MaxLon),
		MaxLat: maxF(a.MaxLat, b.MaxLat),
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
