package batch

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPoolSize is the default worker-pool sizing rule,
// max(1, cores/2) (§4.L).
func DefaultPoolSize() int {
	n := runtime.GOMAXPROCS(0) / 2
	if n < 1 {
		n = 1
	}
	return n
}

// QueueSizeMultiplier is the bounded work queue's size relative to pool
// size, pool_size*100 (§4.L).
const QueueSizeMultiplier = 100

// PollInterval is the sleep between empty/full queue checks (§4.L
// pseudocode's "sleep(1 s)").
const PollInterval = time.Second

// TaskRunner executes one task id against a job, returning its result.
// This is runTask (§4.L): "loads the job, looks up the cell's centre
// lat/lon, runs the one-to-many processor with writePng=false, converts
// access bins to the batch result." The batch package depends only on
// this function type, not on internal/analysis directly, so it stays free
// of the processor's own dependency set.
type TaskRunner func(jobID string, taskID int) Result

// WorkerPool is the fixed-size pool pulling tasks from a Manager via
// GetTasks and executing them through a TaskRunner (§4.L).
type WorkerPool struct {
	Manager *Manager
	Run     TaskRunner
	Size    int // defaults to DefaultPoolSize()

	Log *zap.SugaredLogger

	queueSem chan struct{} // bounds in-flight submissions
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func (p *WorkerPool) log() *zap.SugaredLogger {
	if p.Log == nil {
		return zap.NewNop().Sugar()
	}
	return p.Log
}

// Start launches the pool's dispatch loop and its fixed worker set on
// separate goroutines. Stop ends the dispatch loop and waits for
// in-flight tasks to finish.
func (p *WorkerPool) Start() {
	size := p.Size
	if size <= 0 {
		size = DefaultPoolSize()
	}
	p.queueSem = make(chan struct{}, size*QueueSizeMultiplier)
	p.stop = make(chan struct{})

	p.wg.Add(1)
	go p.dispatchLoop(size)
}

// Stop signals the dispatch loop to exit and waits for outstanding
// submissions to drain.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *WorkerPool) dispatchLoop(size int) {
	defer p.wg.Done()

	var tasksWg sync.WaitGroup
	defer tasksWg.Wait()

	// workers caps concurrently running tasks at size; queueSem bounds
	// queued plus running tasks at size*QueueSizeMultiplier.
	workers := make(chan struct{}, size)

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		remaining := cap(p.queueSem) - len(p.queueSem)
		if remaining <= 0 {
			sleep(p.stop, PollInterval)
			continue
		}
		n := remaining
		if n > size {
			n = size
		}

		block := p.Manager.GetTasks(n)
		if block == nil || len(block.IDs) == 0 {
			sleep(p.stop, PollInterval)
			continue
		}

		for _, id := range block.IDs {
			p.queueSem <- struct{}{}
			tasksWg.Add(1)
			go func(jobID string, taskID int) {
				defer tasksWg.Done()
				defer func() { <-p.queueSem }()
				workers <- struct{}{}
				defer func() { <-workers }()
				p.runTaskSafe(jobID, taskID)
			}(block.JobID, id)
		}
	}
}

func (p *WorkerPool) runTaskSafe(jobID string, taskID int) {
	defer func() {
		if r := recover(); r != nil {
			p.log().Errorw("task panicked, reporting as error result", "jobId", jobID, "taskId", taskID, "panic", r)
			p.Manager.SubmitResult(Result{JobID: jobID, TaskID: taskID, Err: fmtPanic(r)})
		}
	}()
	p.Manager.SubmitResult(p.Run(jobID, taskID))
}

func sleep(stop <-chan struct{}, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
	case <-t.C:
	}
}

type panicError struct{ v any }

func (e panicError) Error() string { return "panic in task runner" }

func fmtPanic(v any) error { return panicError{v: v} }
