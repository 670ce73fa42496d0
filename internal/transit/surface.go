// Package transit runs the schedule-based multi-departure search (§4.I
// step 4, RAPTOR-style) and reduces its per-departure results to the
// min/avg/max stop surface the egress-tile evaluator consumes.
package transit

import "sort"

// MaxSeconds is the sentinel duration meaning "unreached", matching
// street.MaxSeconds and egress.MaxSeconds.
const MaxSeconds = 7200

// MaxRides bounds the number of transfers a multi-departure search will
// consider (§4.I step 4: "fixed maximum number of rides, reference 3").
const MaxRides = 3

// Surface holds one percentile array per stop, the reduction target of a
// multi-departure search (§4.D, §4.I).
type Surface struct {
	NStops int
	Min    []int32
	// Avg is a per-stop median of that stop's per-departure arrival times.
	//
	// Open question (unresolved, carried forward rather than fixed): the
	// source computes this as a per-stop median; a per-destination median
	// taken after propagation may be more correct, but changing it shifts
	// behavior for every caller, so it is left as documented, flagged
	// behavior pending a decision (§9.i).
	Avg []int32
	Max []int32
}

// NewSurface allocates a Surface with every stop unreached.
func NewSurface(nStops int) *Surface {
	s := &Surface{
		NStops: nStops,
		Min:    make([]int32, nStops),
		Avg:    make([]int32, nStops),
		Max:    make([]int32, nStops),
	}
	for i := 0; i < nStops; i++ {
		s.Min[i], s.Avg[i], s.Max[i] = MaxSeconds, MaxSeconds, MaxSeconds
	}
	return s
}

// Reduce builds a Surface from arrivals[departureIdx][stop] seconds
// (MaxSeconds meaning unreached for that departure), per stop taking the
// min, median (as the avg stand-in per §4.I), and max across departures
// that reached it.
func Reduce(arrivals [][]int32, nStops int) *Surface {
	s := NewSurface(nStops)
	if len(arrivals) == 0 {
		return s
	}

	perStop := make([][]int32, nStops)
	for _, row := range arrivals {
		for stop := 0; stop < nStops && stop < len(row); stop++ {
			if row[stop] < MaxSeconds {
				perStop[stop] = append(perStop[stop], row[stop])
			}
		}
	}

	for stop, vals := range perStop {
		if len(vals) == 0 {
			continue
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
		s.Min[stop] = vals[0]
		s.Max[stop] = vals[len(vals)-1]
		s.Avg[stop] = median(vals)
	}
	return s
}

func median(sorted []int32) int32 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
