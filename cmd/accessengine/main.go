// Command accessengine is a reference CLI driver for the isochrone /
// cumulative-opportunities engine: "build" constructs an egress table
// from a CSV street graph and stop list, "query" runs one one-to-many
// request against a persisted table and renders the result.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/phase-five/access/internal/analysis"
	"github.com/phase-five/access/internal/egress"
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/opportunity"
	"github.com/phase-five/access/internal/persist"
	"github.com/phase-five/access/internal/raster"
	"github.com/phase-five/access/internal/street"
	"github.com/phase-five/access/internal/street/memgraph"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "build":
		runBuild(args)
	case "query":
		runQuery(args)
	case "-version", "--version":
		fmt.Printf("accessengine %s (commit %s, built %s)\n", version, commit, buildDate)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: accessengine <build|query> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "  build   construct an egress table from a CSV street graph and stop list\n")
	fmt.Fprintf(os.Stderr, "  query   run a one-to-many request against a built table and render a PNG\n")
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		verticesPath string
		edgesPath    string
		stopsPath    string
		radiusM      float64
		span         int
		concurrency  int
		outPath      string
	)
	fs.StringVar(&verticesPath, "vertices", "", "CSV street vertices: id,lon,lat")
	fs.StringVar(&edgesPath, "edges", "", "CSV street edges: a,b,lengthMm")
	fs.StringVar(&stopsPath, "stops", "", "CSV transit stops: id,vertexId")
	fs.Float64Var(&radiusM, "egress-radius-m", 1200, "Egress search radius per stop, in meters")
	fs.IntVar(&span, "span", grid.DefaultTileSpan, "Tile span (cells per tile side)")
	fs.IntVar(&concurrency, "concurrency", 0, "Worker concurrency (0: GOMAXPROCS)")
	fs.StringVar(&outPath, "out", "", "Output egress-table file")
	fs.Parse(args)

	if verticesPath == "" || edgesPath == "" || stopsPath == "" || outPath == "" {
		fmt.Fprintln(os.Stderr, "build requires -vertices, -edges, -stops and -out")
		fs.PrintDefaults()
		os.Exit(1)
	}

	start := time.Now()

	vf, err := os.Open(verticesPath)
	if err != nil {
		log.Fatalf("Opening vertices: %v", err)
	}
	defer vf.Close()
	vertices, err := memgraph.ReadVertices(vf)
	if err != nil {
		log.Fatalf("Reading vertices: %v", err)
	}

	ef, err := os.Open(edgesPath)
	if err != nil {
		log.Fatalf("Opening edges: %v", err)
	}
	defer ef.Close()
	edges, err := memgraph.ReadEdges(ef)
	if err != nil {
		log.Fatalf("Reading edges: %v", err)
	}

	graph := memgraph.New(vertices, edges)
	log.Printf("Loaded street graph: %d vertices, %d edges", len(vertices), len(edges))

	sf, err := os.Open(stopsPath)
	if err != nil {
		log.Fatalf("Opening stops: %v", err)
	}
	defer sf.Close()
	stops, err := readStops(sf)
	if err != nil {
		log.Fatalf("Reading stops: %v", err)
	}
	log.Printf("Loaded %d transit stops", len(stops))

	minLon, minLat, maxLon, maxLat, ok := graph.VertexBounds()
	if !ok {
		log.Fatal("Street graph has no vertices")
	}
	bounds := grid.Bounds{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}

	fmt.Printf("accessengine %s (commit %s, built %s)\n", version, commit, buildDate)
	fmt.Printf("  %-16s [%.6f, %.6f] - [%.6f, %.6f]\n", "Bounds:", minLon, minLat, maxLon, maxLat)
	fmt.Printf("  %-16s %.0fm\n", "Egress radius:", radiusM)
	fmt.Printf("  %-16s %d\n", "Span:", span)

	builder := &egress.Builder{Street: graph}
	table, err := builder.Build(bounds, stops, egress.BuildOptions{
		EgressRadiusMeters: radiusM,
		Mode:               street.ModeWalk,
		Span:               span,
		Concurrency:        concurrency,
	})
	if err != nil {
		log.Printf("Build completed with faults: %v", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("Creating output: %v", err)
	}
	defer out.Close()
	if err := persist.SaveEgressTable(out, table); err != nil {
		log.Fatalf("Saving egress table: %v", err)
	}

	fi, _ := out.Stat()
	fmt.Printf("Done: %d tiles, %s, %v → %s\n", table.Grid.NumTiles(), humanSize(sizeOf(fi)), time.Since(start).Round(time.Millisecond), outPath)
}

func sizeOf(fi os.FileInfo) int64 {
	if fi == nil {
		return 0
	}
	return fi.Size()
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	var (
		tablePath       string
		verticesPath    string
		edgesPath       string
		opportunityPath string
		opportunityCSV  string
		lat, lon        float64
		maxMinutes      int
		dualN           int
		title           string
		outPath         string
	)
	fs.StringVar(&tablePath, "table", "", "Persisted egress table")
	fs.StringVar(&verticesPath, "vertices", "", "CSV street vertices (needed again to place the origin)")
	fs.StringVar(&edgesPath, "edges", "", "CSV street edges")
	fs.StringVar(&opportunityPath, "opportunities", "", "Persisted opportunity grid (optional)")
	fs.StringVar(&opportunityCSV, "opportunities-csv", "", "CSV opportunity points lon,lat,count, rasterized against the table's tile grid (optional)")
	fs.Float64Var(&lat, "lat", 0, "Origin latitude")
	fs.Float64Var(&lon, "lon", 0, "Origin longitude")
	fs.IntVar(&maxMinutes, "max-minutes", 45, "Maximum travel duration in minutes")
	fs.IntVar(&dualN, "dual-n", 3, "Dual-access histogram width")
	fs.StringVar(&title, "title", "accessengine query", "PNG title tEXt field")
	fs.StringVar(&outPath, "out", "", "Output PNG file")
	fs.Parse(args)

	if tablePath == "" || verticesPath == "" || edgesPath == "" || outPath == "" {
		fmt.Fprintln(os.Stderr, "query requires -table, -vertices, -edges and -out")
		fs.PrintDefaults()
		os.Exit(1)
	}

	start := time.Now()

	tf, err := os.Open(tablePath)
	if err != nil {
		log.Fatalf("Opening table: %v", err)
	}
	defer tf.Close()
	table, err := persist.LoadEgressTable(tf)
	if err != nil {
		log.Fatalf("Loading egress table: %v", err)
	}

	vf, err := os.Open(verticesPath)
	if err != nil {
		log.Fatalf("Opening vertices: %v", err)
	}
	defer vf.Close()
	vertices, err := memgraph.ReadVertices(vf)
	if err != nil {
		log.Fatalf("Reading vertices: %v", err)
	}

	ef, err := os.Open(edgesPath)
	if err != nil {
		log.Fatalf("Opening edges: %v", err)
	}
	defer ef.Close()
	edges, err := memgraph.ReadEdges(ef)
	if err != nil {
		log.Fatalf("Reading edges: %v", err)
	}
	graph := memgraph.New(vertices, edges)

	var opportunities *opportunity.Grid
	switch {
	case opportunityPath != "":
		of, err := os.Open(opportunityPath)
		if err != nil {
			log.Fatalf("Opening opportunities: %v", err)
		}
		defer of.Close()
		opportunities, err = persist.LoadOpportunityGrid(of)
		if err != nil {
			log.Fatalf("Loading opportunities: %v", err)
		}
	case opportunityCSV != "":
		of, err := os.Open(opportunityCSV)
		if err != nil {
			log.Fatalf("Opening opportunities CSV: %v", err)
		}
		defer of.Close()
		points, err := opportunity.ReadPoints(of)
		if err != nil {
			log.Fatalf("Reading opportunities CSV: %v", err)
		}
		opportunities = opportunity.Rasterize(table.Grid, points)
		log.Printf("Rasterized %d opportunity points", len(points))
	}

	fmt.Printf("accessengine %s (commit %s, built %s)\n", version, commit, buildDate)
	fmt.Printf("  %-16s %.6f, %.6f\n", "Origin:", lat, lon)
	fmt.Printf("  %-16s %d min\n", "Max duration:", maxMinutes)

	proc := &analysis.Processor{}
	req := analysis.Request{
		OriginLat:          lat,
		OriginLon:          lon,
		Modes:              []string{},
		MaxDurationMinutes: maxMinutes,
		Cutoffs:            analysis.ReferenceCutoffs,
		Percentiles:        analysis.ReferencePercentiles,
		MaxDualN:           dualN,
	}
	network := analysis.NetworkData{Street: graph}

	result, err := proc.Run(req, network, table, opportunities)
	if err != nil {
		log.Fatalf("Running query: %v", err)
	}
	if !result.Placed {
		log.Fatal("Origin could not be placed on the street graph")
	}

	png, err := raster.EncodeAnalysisResult(result, raster.AnalysisPNGOptions{Title: title})
	if err != nil {
		log.Fatalf("Encoding PNG: %v", err)
	}

	if err := os.WriteFile(outPath, png, 0o644); err != nil {
		log.Fatalf("Writing output: %v", err)
	}

	fmt.Printf("Done: %dx%d, %v → %s\n", result.Pixels.Width, result.Pixels.Height, time.Since(start).Round(time.Millisecond), outPath)
}

// readStops parses "id,vertexId" CSV lines (no header) into the egress
// builder's stop list.
func readStops(r io.Reader) ([]egress.Stop, error) {
	var out []egress.Stop
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return nil, errors.Errorf("accessengine: malformed stop line %q", line)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "accessengine: stop id %q", parts[0])
		}
		vertexID, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "accessengine: stop vertex id %q", parts[1])
		}
		out = append(out, egress.Stop{ID: id, VertexID: vertexID, HasVertex: true})
	}
	return out, sc.Err()
}

func humanSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
