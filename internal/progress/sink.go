// Package progress implements the progress sink and visual progress
// streams (§4.M): decimated event emission over an external EventSink,
// adapted from the teacher's terminal progress bar into an
// event-emitting form.
package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hako/durafmt"
)

// DefaultMinTimeBetweenEventsMsec and DefaultPushEventAfter are the
// reference decimation parameters (§4.M); batch callers typically use the
// wider BatchMin/BatchMax range instead.
const DefaultMinTimeBetweenEventsMsec = 200
const DefaultPushEventAfter = 1

// BatchMinTimeBetweenEventsMsec and BatchMaxTimeBetweenEventsMsec bound the
// batch override range for minTimeBetweenEventsMsec (§4.M: "100-2000").
const BatchMinTimeBetweenEventsMsec = 100
const BatchMaxTimeBetweenEventsMsec = 2000

// BatchMinPushEventAfter and BatchMaxPushEventAfter bound the batch
// override range for pushEventAfter (§4.M: "20-50").
const BatchMinPushEventAfter = 20
const BatchMaxPushEventAfter = 50

// EventType distinguishes the three progress event kinds (§6).
type EventType string

const (
	EventBegin EventType = "begin"
	EventStep  EventType = "step"
	EventDone  EventType = "done"
)

// Event is one progress payload (§6): `{id, type, title?, total?, step?,
// secRemain?}`.
type Event struct {
	ID        string
	Type      EventType
	Title     string
	Total     int64
	Step      int64
	SecRemain float64
}

// EventSink is the external collaborator progress events are handed to
// (§6); the core never implements it.
type EventSink interface {
	Emit(Event)
}

// Options configures a Sink's decimation (§4.M).
type Options struct {
	// MinTimeBetweenEventsMsec: emit at most one event per this many
	// milliseconds. Zero uses DefaultMinTimeBetweenEventsMsec.
	MinTimeBetweenEventsMsec int
	// PushEventAfter: only every this many increments is even considered
	// for emission. Zero uses DefaultPushEventAfter.
	PushEventAfter int64
}

// Sink records one task's progress and emits decimated events to an
// EventSink (§4.M).
type Sink struct {
	id    string
	title string
	total int64
	sink  EventSink
	opts  Options

	step      atomic.Int64
	start     time.Time
	mu        sync.Mutex
	lastEmit  time.Time
}

// BeginTask starts tracking a new task and immediately emits an
// EventBegin.
func BeginTask(id, title string, total int64, sink EventSink, opts Options) *Sink {
	if opts.MinTimeBetweenEventsMsec <= 0 {
		opts.MinTimeBetweenEventsMsec = DefaultMinTimeBetweenEventsMsec
	}
	if opts.PushEventAfter <= 0 {
		opts.PushEventAfter = DefaultPushEventAfter
	}

	s := &Sink{id: id, title: title, total: total, sink: sink, opts: opts, start: time.Now()}
	if sink != nil {
		sink.Emit(Event{ID: id, Type: EventBegin, Title: title, Total: total})
	}
	return s
}

// Increment advances the step counter by n and, subject to decimation,
// emits an EventStep with an ETA computed from the rate since start.
func (s *Sink) Increment(n int64) {
	step := s.step.Add(n)
	if step%s.opts.PushEventAfter != 0 {
		return
	}
	s.maybeEmitStep(step)
}

func (s *Sink) maybeEmitStep(step int64) {
	s.mu.Lock()
	now := time.Now()
	minGap := time.Duration(s.opts.MinTimeBetweenEventsMsec) * time.Millisecond
	if !s.lastEmit.IsZero() && now.Sub(s.lastEmit) < minGap {
		s.mu.Unlock()
		return
	}
	s.lastEmit = now
	s.mu.Unlock()

	if s.sink == nil {
		return
	}
	s.sink.Emit(Event{ID: s.id, Type: EventStep, Total: s.total, Step: step, SecRemain: s.etaSeconds(step)})
}

func (s *Sink) etaSeconds(step int64) float64 {
	if step <= 0 || s.total <= 0 {
		return 0
	}
	elapsed := time.Since(s.start)
	rate := float64(step) / elapsed.Seconds()
	if rate <= 0 {
		return 0
	}
	remaining := s.total - step
	if remaining < 0 {
		remaining = 0
	}
	return float64(remaining) / rate
}

// Error emits an EventDone-equivalent failure notice; the event is still
// typed EventDone since the external interface carries no separate error
// variant (§6), with the error text folded into Title.
func (s *Sink) Error(err error) {
	if s.sink == nil || err == nil {
		return
	}
	s.sink.Emit(Event{ID: s.id, Type: EventDone, Title: err.Error()})
}

// Done emits the final EventDone.
func (s *Sink) Done() {
	if s.sink == nil {
		return
	}
	s.sink.Emit(Event{ID: s.id, Type: EventDone, Total: s.total, Step: s.step.Load()})
}

// HumanRemaining renders the sink's current ETA the way a CLI progress
// line would, via hako/durafmt, matching the teacher's terminal progress
// bar's elapsed-time formatting but for the remaining-time figure instead.
func (s *Sink) HumanRemaining() string {
	sec := s.etaSeconds(s.step.Load())
	d, err := durafmt.Parse(time.Duration(sec * float64(time.Second)))
	if err != nil {
		return ""
	}
	return d.LimitFirstN(2).String()
}
