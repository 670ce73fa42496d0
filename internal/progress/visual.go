package progress

import (
	"sync"
	"time"
)

// Rect is one `{x0,y0,dx,dy}` cell rectangle (§4.M batch-sent/batch-
// finished payloads).
type Rect struct {
	X0, Y0, DX, DY int
}

// VisualEventSink is the external collaborator visual-progress rectangle
// streams are handed to.
type VisualEventSink interface {
	EmitBatchSent(jobID string, rects []Rect)
	EmitBatchFinished(jobID string, rect Rect)
}

// VisualProgress decimates and emits the two batch rectangle streams
// (§4.M), using the same time+count decimation shape as Sink but applied
// to a batch of rectangles rather than a single counter.
type VisualProgress struct {
	jobID string
	sink  VisualEventSink
	opts  Options

	mu       sync.Mutex
	pending  []Rect
	count    int64
	lastEmit time.Time
}

// NewVisualProgress constructs a VisualProgress for one job. Options
// outside the batch override range (§4.M: minTime 100-2000ms, pushAfter
// 20-50) are clamped into it.
func NewVisualProgress(jobID string, sink VisualEventSink, opts Options) *VisualProgress {
	if opts.MinTimeBetweenEventsMsec < BatchMinTimeBetweenEventsMsec {
		opts.MinTimeBetweenEventsMsec = BatchMinTimeBetweenEventsMsec
	}
	if opts.MinTimeBetweenEventsMsec > BatchMaxTimeBetweenEventsMsec {
		opts.MinTimeBetweenEventsMsec = BatchMaxTimeBetweenEventsMsec
	}
	if opts.PushEventAfter < BatchMinPushEventAfter {
		opts.PushEventAfter = BatchMinPushEventAfter
	}
	if opts.PushEventAfter > BatchMaxPushEventAfter {
		opts.PushEventAfter = BatchMaxPushEventAfter
	}
	return &VisualProgress{jobID: jobID, sink: sink, opts: opts}
}

// Sent records that a block of rectangles was issued to a worker,
// decimated the same way Sink.Increment is.
func (v *VisualProgress) Sent(rects []Rect) {
	if v.sink == nil || len(rects) == 0 {
		return
	}
	v.mu.Lock()
	v.pending = append(v.pending, rects...)
	v.count += int64(len(rects))
	flush := v.count%v.opts.PushEventAfter == 0 && v.dueLocked()
	var toEmit []Rect
	if flush {
		toEmit = v.pending
		v.pending = nil
	}
	v.mu.Unlock()

	if flush {
		v.sink.EmitBatchSent(v.jobID, toEmit)
	}
}

// Finished reports a single completed rectangle; unlike Sent, this is
// never decimated away (§4.M: "batch-finished: a single rectangle when a
// task completes" is the client's sole signal that a queued cell
// resolved, so every completion must reach it).
func (v *VisualProgress) Finished(rect Rect) {
	if v.sink == nil {
		return
	}
	v.sink.EmitBatchFinished(v.jobID, rect)
}

// dueLocked must be called with mu held.
func (v *VisualProgress) dueLocked() bool {
	now := time.Now()
	minGap := time.Duration(v.opts.MinTimeBetweenEventsMsec) * time.Millisecond
	if !v.lastEmit.IsZero() && now.Sub(v.lastEmit) < minGap {
		return false
	}
	v.lastEmit = now
	return true
}
