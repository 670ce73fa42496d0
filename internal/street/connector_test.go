package street

import "testing"

func setCell(tile *ConnectorTile, ic int, a int64, distA int32, b int64, distB int32) {
	tile.HasA[ic] = true
	tile.VertexA[ic] = a
	tile.DistAMm[ic] = distA
	tile.HasB[ic] = true
	tile.VertexB[ic] = b
	tile.DistBMm[ic] = distB
}

func TestEvaluateDistanceUnitsPicksNearerSide(t *testing.T) {
	tile := NewConnectorTile(2)
	setCell(tile, 0, 1, 100, 2, 5000)

	costs := VertexCosts{Unit: UnitDistanceMm, Costs: map[int64]float64{
		1: 0,    // vertex 1 reached at 0mm
		2: 2000, // vertex 2 reached at 2000mm
	}}

	out, any := Evaluate(tile, costs)
	if !any {
		t.Fatalf("expected at least one reached cell")
	}
	distMm := float64(0 + 100)
	want := int32(distMm / SpeedMmPerSec)
	if out[0] != want {
		t.Fatalf("cell 0: got %d want %d", out[0], want)
	}
	if out[1] != Absent {
		t.Fatalf("cell 1 should be absent, got %d", out[1])
	}
}

func TestEvaluateDurationUnitsAddsWalkTime(t *testing.T) {
	tile := NewConnectorTile(1)
	setCell(tile, 0, 10, 1300, 20, 2600)

	costs := VertexCosts{Unit: UnitDurationSec, Costs: map[int64]float64{
		10: 60, // stop arrives at vertex 10 after 60s
		20: 10, // stop arrives at vertex 20 after 10s, but longer connector
	}}

	out, any := Evaluate(tile, costs)
	if !any {
		t.Fatalf("expected reached cell")
	}
	// side A: 60 + 1300/1300 = 61; side B: 10 + 2600/1300 = 12
	if out[0] != 12 {
		t.Fatalf("got %d want 12", out[0])
	}
}

func TestEvaluateCapsAtMaxSeconds(t *testing.T) {
	tile := NewConnectorTile(1)
	tile.HasA[0] = true
	tile.VertexA[0] = 1
	tile.DistAMm[0] = 0

	costs := VertexCosts{Unit: UnitDurationSec, Costs: map[int64]float64{1: 100000}}
	out, any := Evaluate(tile, costs)
	if !any || out[0] != MaxSeconds {
		t.Fatalf("expected capped at MaxSeconds, got %d any=%v", out[0], any)
	}
}

func TestEvaluateNoVerticesReachedYieldsAbsentWithoutError(t *testing.T) {
	tile := NewConnectorTile(1)
	tile.HasA[0] = true
	tile.VertexA[0] = 99

	costs := VertexCosts{Unit: UnitDistanceMm, Costs: map[int64]float64{}}
	out, any := Evaluate(tile, costs)
	if any {
		t.Fatalf("expected no cells reached")
	}
	if out[0] != Absent {
		t.Fatalf("expected absent sentinel")
	}
}

func TestConnectorTileAnyPresent(t *testing.T) {
	tile := NewConnectorTile(2)
	if tile.AnyPresent() {
		t.Fatalf("fresh tile should report no connectors")
	}
	tile.HasA[3] = true
	if !tile.AnyPresent() {
		t.Fatalf("expected AnyPresent true after setting a cell")
	}
}
