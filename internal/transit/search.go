package transit

import (
	"runtime"
	"sync"
)

// Window describes a departure window as a set of explicit departure
// seconds-of-day to probe (§4.I step 4: "over the departure window").
// Callers build this from their own interval/step policy; the package
// only needs the resulting list.
type Window struct {
	DepartureSecs []int
}

// SearchOptions parametrizes Search.
type SearchOptions struct {
	MaxRides    int // defaults to MaxRides if zero
	Concurrency int // defaults to GOMAXPROCS if zero
}

// Search runs one schedule-based search per departure in window,
// concurrently, then reduces the resulting arrivals[departureIdx][stop]
// matrix into a Surface (§4.I step 4). originStops are the stops reached
// by the preceding street search, keyed by stop index with their
// first-arrival second.
func Search(layer Layer, originStops map[int]int32, window Window, opts SearchOptions) *Surface {
	nStops := layer.NStops()
	if len(window.DepartureSecs) == 0 || len(originStops) == 0 {
		return NewSurface(nStops)
	}

	maxRides := opts.MaxRides
	if maxRides <= 0 {
		maxRides = MaxRides
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	if concurrency > len(window.DepartureSecs) {
		concurrency = len(window.DepartureSecs)
	}

	arrivals := make([][]int32, len(window.DepartureSecs))

	type job struct {
		idx int
		dep int
	}
	jobs := make(chan job, len(window.DepartureSecs))
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				arrivals[j.idx] = layer.SearchDeparture(originStops, j.dep, maxRides)
			}
		}()
	}
	for i, dep := range window.DepartureSecs {
		jobs <- job{idx: i, dep: dep}
	}
	close(jobs)
	wg.Wait()

	// Reduction into min/avg/max is single-threaded per stop, keeping the
	// accumulation free of shared-mutable hazards (§9: "mutable
	// destructive merge... isolate this inside the single-threaded
	// processor").
	return Reduce(arrivals, nStops)
}
