// Package batch implements the many-to-many batch job engine (§4.J, §4.K,
// §4.L): job lifecycle, a FIFO single-active-job manager, and a bounded
// worker pool pulling tasks from it.
package batch

import "math/bits"

// NeighborhoodRadiusCells bounds the opportunity-density filter applied at
// job construction (§4.K: "cell and neighbourhood of radius ≤ 4 cells").
const NeighborhoodRadiusCells = 4

// Options carries the request parameters that apply to every task in a
// job (percentiles, cutoffs, dual-N, modes, ...). Kept opaque to the batch
// package itself; it is threaded through to the one-to-many processor by
// the worker pool's task runner.
type Options struct {
	Percentiles []int
	Cutoffs     []int
	MaxDualN    int
	Modes       []string
}

// bitset is a flat, word-packed bit array indexed by origin flat index.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) Get(i int) bool { return b[i/64]&(1<<uint(i%64)) != 0 }
func (b bitset) Set(i int)      { b[i/64] |= 1 << uint(i%64) }

func (b bitset) Cardinality() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Job is one batch request (§3 "Batch job"): an origins opportunity grid,
// a destination reference, and the task-completion bookkeeping the
// manager mutates.
type Job struct {
	ID     string
	UserID string
	Owner  string // organisation id, checked by CancelCurrentJob
	Options Options

	OriginsWidth, OriginsHeight int
	nOrigins                    int

	completed bitset
	skipped   bitset
	nextTask  int
	remaining int

	Results *ResultsBuffer
}

// NewJob constructs a Job, filtering out origins whose cell and
// NeighborhoodRadiusCells-radius neighbourhood has zero opportunity
// density (§4.K). density(x, y) returns the opportunity count at cell
// (x, y); out-of-range cells are treated as zero.
func NewJob(id, userID, owner string, width, height int, nPercentiles, nBins, nDualN int, density func(x, y int) float32, opts Options) *Job {
	n := width * height
	j := &Job{
		ID: id, UserID: userID, Owner: owner,
		OriginsWidth: width, OriginsHeight: height,
		nOrigins:  n,
		completed: newBitset(n),
		skipped:   newBitset(n),
		Options:   opts,
		Results:   NewResultsBuffer(n, nPercentiles, nBins, nDualN),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !hasNearbyDensity(x, y, width, height, density) {
				j.skipped.Set(i)
				j.completed.Set(i)
			}
		}
	}
	j.remaining = n - j.completed.Cardinality()
	return j
}

func hasNearbyDensity(x, y, width, height int, density func(x, y int) float32) bool {
	for dy := -NeighborhoodRadiusCells; dy <= NeighborhoodRadiusCells; dy++ {
		ny := y + dy
		if ny < 0 || ny >= height {
			continue
		}
		for dx := -NeighborhoodRadiusCells; dx <= NeighborhoodRadiusCells; dx++ {
			nx := x + dx
			if nx < 0 || nx >= width {
				continue
			}
			if density(nx, ny) > 0 {
				return true
			}
		}
	}
	return false
}

// NTasksTotal returns the total number of origin cells.
func (j *Job) NTasksTotal() int { return j.nOrigins }

// NTasksRemaining returns the number of non-completed origins.
func (j *Job) NTasksRemaining() int { return j.remaining }

// nextTaskBlock returns up to maxTasks ascending, non-skipped, not-yet-
// issued origin indices, advancing nextTask past them (§4.K, §8 invariant
// 9: issued ids are disjoint across calls and exactly cover non-skipped
// origins).
func (j *Job) nextTaskBlock(maxTasks int) []int {
	var ids []int
	for len(ids) < maxTasks && j.nextTask < j.nOrigins {
		i := j.nextTask
		j.nextTask++
		if j.skipped.Get(i) {
			continue
		}
		ids = append(ids, i)
	}
	return ids
}

// markComplete records that task id finished, decrementing remaining
// exactly once per id.
func (j *Job) markComplete(id int) {
	if j.completed.Get(id) {
		return
	}
	j.completed.Set(id)
	j.remaining--
}
