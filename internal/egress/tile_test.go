package egress

import "testing"

func TestTimeTileEvaluateMinAcrossStops(t *testing.T) {
	tile := NewTimeTile(2)
	tile.AppendStop(1, []int32{100, Unreached, 50, 200})
	tile.AppendStop(2, []int32{Unreached, 10, 60, Unreached})

	out := tile.Evaluate(StopTimes{1: 0, 2: 5})
	if out == nil {
		t.Fatalf("expected reached surface")
	}
	want := []int32{100, 15, 50, 200}
	for i, w := range want {
		if out[i] != w {
			t.Fatalf("cell %d: got %d want %d", i, out[i], w)
		}
	}
}

func TestTimeTileEvaluateReturnsNilWhenNoneReached(t *testing.T) {
	tile := NewTimeTile(1)
	tile.AppendStop(1, []int32{Unreached})

	out := tile.Evaluate(StopTimes{1: 0})
	if out != nil {
		t.Fatalf("expected nil surface, got %v", out)
	}
}

func TestTimeTileEvaluateSkipsUnknownOrOverCapStops(t *testing.T) {
	tile := NewTimeTile(1)
	tile.AppendStop(1, []int32{10})
	tile.AppendStop(2, []int32{10})

	out := tile.Evaluate(StopTimes{2: MaxSeconds})
	if out != nil {
		t.Fatalf("expected nil: stop 1 absent from StopTimes, stop 2 at cap")
	}
}
