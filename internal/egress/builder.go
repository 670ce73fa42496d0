package egress

import (
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/sparsetile"
	"github.com/phase-five/access/internal/street"
)

// Stop is a transit stop as seen by the egress builder: its id and,
// if linked into the street graph, the vertex to search from (§4.E step
// 3). Stops without a street vertex contribute nothing and are skipped,
// not an error.
type Stop struct {
	ID        int64
	VertexID  int64
	HasVertex bool
}

// BuildOptions parametrizes Builder.Build (§4.E).
type BuildOptions struct {
	// EgressRadiusMeters bounds each stop's shortest-path search.
	EgressRadiusMeters float64
	Mode                street.Mode
	// Span is S, cells per tile side; grid.DefaultTileSpan if zero.
	Span int
	// Concurrency caps simultaneous goroutines per pass; GOMAXPROCS if zero.
	Concurrency int

	// DiskSpillBytes, when > 0, spills the intermediate connector-tile
	// store (built in phase one, read back throughout phase two) to a
	// temp file once its in-memory footprint crosses this limit, via
	// sparsetile.DiskBacked instead of a plain sparsetile.Array. The
	// returned SparseTable's Connectors is always a plain in-memory Array
	// regardless of this setting; only the construction-time footprint is
	// bounded. 0 keeps the connector store fully in memory.
	DiskSpillBytes int64
	// DiskSpillDir is the spill temp directory; OS temp dir if empty.
	DiskSpillDir string
}

// Builder runs the two-phase parallel egress-table construction pass
// against a street.Layer (§4.E).
type Builder struct {
	Street street.Layer
	Log    *zap.SugaredLogger
}

func (b *Builder) log() *zap.SugaredLogger {
	if b.Log == nil {
		return zap.NewNop().Sugar()
	}
	return b.Log
}

// connectorStore is the minimal get/set/drain surface the two build
// passes need from the connector-tile store, satisfied by both a plain
// sparsetile.Array (default) and sparsetile.DiskBacked (opt-in spill via
// BuildOptions.DiskSpillBytes), so the passes don't branch on which one
// they were handed.
type connectorStore interface {
	Get(i int) (*street.ConnectorTile, error)
	Set(i int, v *street.ConnectorTile) error
	Drain()
}

// arrayConnectorStore adapts sparsetile.Array to connectorStore.
type arrayConnectorStore struct {
	*sparsetile.Array[street.ConnectorTile]
}

func (a arrayConnectorStore) Get(i int) (*street.ConnectorTile, error) {
	return a.Array.Get(i), nil
}
func (a arrayConnectorStore) Set(i int, v *street.ConnectorTile) error {
	a.Array.Set(i, v)
	return nil
}
func (a arrayConnectorStore) Drain() {}

// Build constructs a SparseTable covering bounds from stops, via:
//
//  1. a parallel pass over tiles evaluating street connectors per cell
//     (§4.E step 2);
//  2. a parallel pass over stops, each running a bounded shortest-path
//     search and folding its per-cell seconds into every tile its reach
//     touches (§4.E step 3).
//
// Per-tile and per-stop faults are accumulated and returned as a non-fatal
// *multierror.Error alongside a usable (possibly partial) table — matching
// §4.E's "per-tile or per-stop exceptions are logged and skipped; they do
// not corrupt peer tiles."
func (b *Builder) Build(bounds grid.Bounds, stops []Stop, opts BuildOptions) (*SparseTable, error) {
	span := opts.Span
	if span <= 0 {
		span = grid.DefaultTileSpan
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	tg := grid.TileGridContaining(bounds, span)
	numTiles := tg.NumTiles()

	var connectors connectorStore
	var diskConnectors *sparsetile.DiskBacked[street.ConnectorTile]
	if opts.DiskSpillBytes > 0 {
		diskConnectors = sparsetile.NewDiskBacked[street.ConnectorTile](sparsetile.DiskBackedConfig{
			N:                numTiles,
			TempDir:          opts.DiskSpillDir,
			MemoryLimitBytes: opts.DiskSpillBytes,
			Log:              b.Log,
		}, sparsetile.CBORCodec[street.ConnectorTile]{})
		connectors = diskConnectors
	} else {
		connectors = arrayConnectorStore{sparsetile.NewArray[street.ConnectorTile](numTiles)}
	}

	var faults multierror.Group

	b.runConnectorPass(tg, connectors, concurrency, &faults)
	connectors.Drain()

	egressBuilder := sparsetile.NewBuilder[TimeTile](numTiles)
	b.runStopPass(tg, connectors, egressBuilder, stops, opts, concurrency, &faults)

	finalConnectors := sparsetile.NewArray[street.ConnectorTile](numTiles)
	for i := 0; i < numTiles; i++ {
		tile, err := connectors.Get(i)
		if err != nil {
			faults.Go(func() error { return err })
			continue
		}
		if tile != nil {
			finalConnectors.Set(i, tile)
		}
	}
	if diskConnectors != nil {
		diskConnectors.Close()
	}

	table := &SparseTable{
		Grid:       tg,
		Egress:     egressBuilder.Freeze(),
		Connectors: finalConnectors,
	}

	err := faults.Wait()
	return table, err
}

func (b *Builder) runConnectorPass(tg *grid.TileGrid, connectors connectorStore, concurrency int, faults *multierror.Group) {
	type tileJob struct{ flat, tx, ty int }
	jobs := make(chan tileJob, concurrency*2)

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				tile, err := b.evaluateConnectorTile(tg, job.tx, job.ty)
				if err != nil {
					faults.Go(func() error { return err })
					continue
				}
				if tile != nil {
					if err := connectors.Set(job.flat, tile); err != nil {
						faults.Go(func() error { return err })
					}
				}
			}
		}()
	}

	for ty := 0; ty < tg.TH; ty++ {
		for tx := 0; tx < tg.TW; tx++ {
			jobs <- tileJob{flat: tg.TileFlatIndex(tx, ty), tx: tx, ty: ty}
		}
	}
	close(jobs)
	wg.Wait()
}

func (b *Builder) evaluateConnectorTile(tg *grid.TileGrid, tx, ty int) (*street.ConnectorTile, error) {
	span := tg.Span
	tile := street.NewConnectorTile(span)
	ox, oy := tg.TileOrigin(tx, ty)

	for cyLocal := 0; cyLocal < span; cyLocal++ {
		for cxLocal := 0; cxLocal < span; cxLocal++ {
			x, y := ox+cxLocal, oy+cyLocal
			lon, lat := tg.Cells.CenterLonForX(x), tg.Cells.CenterLatForY(y)

			split, ok := b.Street.FindSplit(lat, lon, grid.MaxConnectorLengthMeters, street.ModeWalk)
			if !ok {
				continue
			}

			ic := tg.IntraTileIndex(cxLocal, cyLocal)
			tile.HasA[ic] = split.HasA
			tile.VertexA[ic] = split.VertexA
			tile.DistAMm[ic] = split.DistAMm
			tile.HasB[ic] = split.HasB
			tile.VertexB[ic] = split.VertexB
			tile.DistBMm[ic] = split.DistBMm
		}
	}

	if !tile.AnyPresent() {
		return nil, nil
	}
	return tile, nil
}

func (b *Builder) runStopPass(tg *grid.TileGrid, connectors connectorStore, egressBuilder *sparsetile.Builder[TimeTile], stops []Stop, opts BuildOptions, concurrency int, faults *multierror.Group) {
	jobs := make(chan Stop, concurrency*2)
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for stop := range jobs {
				if err := b.processStop(tg, connectors, egressBuilder, stop, opts); err != nil {
					faults.Go(func() error { return err })
				}
			}
		}()
	}

	for _, s := range stops {
		if !s.HasVertex {
			continue
		}
		jobs <- s
	}
	close(jobs)
	wg.Wait()
}

func (b *Builder) processStop(tg *grid.TileGrid, connectors connectorStore, egressBuilder *sparsetile.Builder[TimeTile], stop Stop, opts BuildOptions) error {
	costs := b.Street.ShortestPathDistanceMm(stop.VertexID, opts.EgressRadiusMeters, street.ModeWalk)
	if len(costs.Costs) == 0 {
		return nil // no reached vertices: no contribution, not an error (§4.E)
	}

	minLon, minLat := tg.Cells.Bounds.MaxLon, tg.Cells.Bounds.MaxLat
	maxLon, maxLat := tg.Cells.Bounds.MinLon, tg.Cells.Bounds.MinLat
	any := false
	for vid := range costs.Costs {
		v, ok := b.Street.Vertex(vid)
		if !ok {
			continue
		}
		any = true
		if v.Lon < minLon {
			minLon = v.Lon
		}
		if v.Lon > maxLon {
			maxLon = v.Lon
		}
		if v.Lat < minLat {
			minLat = v.Lat
		}
		if v.Lat > maxLat {
			maxLat = v.Lat
		}
	}
	if !any {
		return nil
	}

	r := tg.RangeForBounds(grid.Bounds{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat})
	var getErr error
	r.ForEachFlatParentIndex(func(flat int) {
		if getErr != nil {
			return
		}
		connTile, err := connectors.Get(flat)
		if err != nil {
			getErr = err
			return
		}
		if connTile == nil {
			return
		}
		perCellSec, anyReached := street.Evaluate(connTile, costs)
		if !anyReached {
			return
		}
		egressBuilder.WithTile(flat, func(existing *TimeTile) *TimeTile {
			if existing == nil {
				existing = NewTimeTile(tg.Span)
			}
			existing.AppendStop(stop.ID, perCellSec)
			return existing
		})
	})
	return getErr
}
