// Package access implements the cumulative-opportunities access-bin
// histogram (§3 "Access-bin histogram", §4.I step 5, §8 invariants 6–7).
package access

// Bins is the reference number of whole-minute bins.
const Bins = 120

// DefaultMaxDualN is the reference maximum dual-access N (§9.iii: treated
// as configurable rather than hard-coded).
const DefaultMaxDualN = 6

// DualUnreached marks a dual[n] slot as "never reaches n+1 opportunities
// within Bins minutes".
const DualUnreached = -1

// Histogram holds per-minute opportunity densities reached from one
// origin, plus its cumulative (prefix-sum) and dual (inverse-lookup)
// derived representations.
type Histogram struct {
	// Density[m] is the number of opportunities whose travel time falls in
	// minute bin m.
	Density [Bins]int32
	// Cumulative[m] = sum(Density[0..m]).
	Cumulative [Bins]int32
	// Dual[n] = smallest m such that Cumulative[m] >= n+1, else
	// DualUnreached.
	Dual []int32
}

// NewHistogram allocates a zeroed histogram with the given dual-access
// width.
func NewHistogram(maxDualN int) *Histogram {
	if maxDualN <= 0 {
		maxDualN = DefaultMaxDualN
	}
	dual := make([]int32, maxDualN)
	for i := range dual {
		dual[i] = DualUnreached
	}
	return &Histogram{Dual: dual}
}

// AddAt accumulates count opportunities reached in bin m (§4.I step 5:
// "per minute m = seconds/60: bin m += count where count > 0 and seconds <
// MAX_SEC"). Truncates count to an integer on accumulation.
func (h *Histogram) AddAt(m int, count float32) {
	if m < 0 || m >= Bins || count <= 0 {
		return
	}
	h.Density[m] += int32(count)
}

// Merge adds other's density bins into h elementwise, null-safe: a nil
// other is a no-op, matching the job-level histogram's "accumulate into
// the job's global histogram (elementwise add, null-safe)" (§4.I step 5).
func (h *Histogram) Merge(other *Histogram) {
	if other == nil {
		return
	}
	for m := 0; m < Bins; m++ {
		h.Density[m] += other.Density[m]
	}
}

// Finalize computes Cumulative and Dual from Density. Call once after all
// Merge/AddAt calls for a given histogram are complete.
func (h *Histogram) Finalize() {
	var running int32
	for m := 0; m < Bins; m++ {
		running += h.Density[m]
		h.Cumulative[m] = running
	}

	for i := range h.Dual {
		h.Dual[i] = DualUnreached
		target := int32(i + 1)
		for m := 0; m < Bins; m++ {
			if h.Cumulative[m] >= target {
				h.Dual[i] = int32(m)
				break
			}
		}
	}
}
