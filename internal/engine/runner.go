// Package engine wires internal/analysis's one-to-many processor into an
// internal/batch.TaskRunner: the batch package stays free of analysis's
// dependency set, and this is the one place that bridges them.
package engine

import (
	"sync"

	"github.com/phase-five/access/internal/access"
	"github.com/phase-five/access/internal/analysis"
	"github.com/phase-five/access/internal/batch"
	"github.com/phase-five/access/internal/egress"
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/opportunity"
	"github.com/phase-five/access/internal/transit"
)

// JobContext carries everything a batch job's task runs need that a
// batch.Job itself doesn't: the origins grid geometry, the network data
// each task's one-to-many query runs against, and the departure window a
// transit-enabled job's Options.Modes requires.
type JobContext struct {
	Bounds          grid.Bounds
	Width, Height   int
	Network         analysis.NetworkData
	Table           *egress.SparseTable
	Opportunities   *opportunity.Grid
	MaxMinutes      int
	DepartureWindow transit.Window
	Options         batch.Options
}

func (c JobContext) originLatLon(taskID int) (lat, lon float64) {
	x := taskID % c.Width
	y := taskID / c.Width
	dlon := (c.Bounds.MaxLon - c.Bounds.MinLon) / float64(c.Width)
	dlat := (c.Bounds.MaxLat - c.Bounds.MinLat) / float64(c.Height)
	lon = c.Bounds.MinLon + (float64(x)+0.5)*dlon
	lat = c.Bounds.MinLat + (float64(y)+0.5)*dlat
	return lat, lon
}

// Runner holds the per-job contexts a running Manager's tasks are scored
// against, and exposes Run as a batch.TaskRunner.
type Runner struct {
	Processor *analysis.Processor

	mu       sync.Mutex
	contexts map[string]JobContext
}

// NewRunner constructs a Runner with an empty job registry.
func NewRunner() *Runner {
	return &Runner{Processor: &analysis.Processor{}, contexts: make(map[string]JobContext)}
}

// Register associates jobID with the context its tasks should run
// against; call before handing the job to the Manager.
func (r *Runner) Register(jobID string, ctx JobContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts[jobID] = ctx
}

// Unregister drops jobID's context once its batch job has finished.
func (r *Runner) Unregister(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, jobID)
}

// Run implements batch.TaskRunner (§4.L "runTask"): place the task's
// origin cell centre, run the one-to-many processor with the job's
// network data, and convert its per-percentile histograms into the
// batch result's access/dual arrays.
func (r *Runner) Run(jobID string, taskID int) batch.Result {
	r.mu.Lock()
	ctx, ok := r.contexts[jobID]
	r.mu.Unlock()
	if !ok {
		return batch.Result{JobID: jobID, TaskID: taskID, Err: errJobNotRegistered(jobID)}
	}

	lat, lon := ctx.originLatLon(taskID)
	req := analysis.Request{
		OriginLat:          lat,
		OriginLon:          lon,
		Modes:              ctx.Options.Modes,
		DepartureWindow:    ctx.DepartureWindow,
		MaxDurationMinutes: ctx.MaxMinutes,
		Cutoffs:            ctx.Options.Cutoffs,
		Percentiles:        ctx.Options.Percentiles,
		MaxDualN:           ctx.Options.MaxDualN,
	}

	res, err := r.Processor.Run(req, ctx.Network, ctx.Table, ctx.Opportunities)
	if err != nil {
		return batch.Result{JobID: jobID, TaskID: taskID, Err: err}
	}
	if !res.Placed {
		return batch.Result{JobID: jobID, TaskID: taskID}
	}

	accessArr := make([][]int32, len(res.Histograms))
	dualArr := make([][]int32, len(res.Histograms))
	for i, h := range res.Histograms {
		bins := make([]int32, access.Bins)
		copy(bins, h.Cumulative[:])
		accessArr[i] = bins
		dualArr[i] = append([]int32(nil), h.Dual...)
	}

	return batch.Result{JobID: jobID, TaskID: taskID, Access: accessArr, Dual: dualArr}
}

type errJobNotRegistered string

func (e errJobNotRegistered) Error() string { return "engine: no job context registered for " + string(e) }
