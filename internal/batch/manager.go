package batch

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/phase-five/access/internal/tracker"
)

// TaskBlock is a batch of task ids pulled from the currently active job
// (§4.K "getTasks").
type TaskBlock struct {
	JobID string
	IDs   []int
}

// Result is one task's outcome, submitted back to the Manager (§4.L
// "runTask... submits back to the manager").
type Result struct {
	JobID  string
	TaskID int
	Access [][]int32 // [nPercentiles][nBins]
	Dual   [][]int32 // [nPercentiles][nDualN]
	Err    error      // non-nil: captured as an error-variant result (§7)
}

// Manager is the single-active-job FIFO scheduler (§4.K). All public
// methods take the same lock, matching the spec's "all public methods are
// mutually exclusive (single lock on the manager)".
type Manager struct {
	mu      sync.Mutex
	queue   []*Job
	current *Job

	Tracker *tracker.BackgroundItemTracker
	Log     *zap.SugaredLogger

	faultsMu sync.Mutex
	faults   *multierror.Error
}

func (m *Manager) log() *zap.SugaredLogger {
	if m.Log == nil {
		return zap.NewNop().Sugar()
	}
	return m.Log
}

// AddJob enqueues j; if no job is active, promotes it immediately (§4.K).
func (m *Manager) AddJob(j *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j.NTasksRemaining() == 0 {
		// §8 invariant 8: an all-skipped job completes immediately without
		// ever becoming current.
		return
	}

	if m.current == nil {
		m.current = j
		return
	}
	m.queue = append(m.queue, j)
}

// GetTasks returns up to maxTasks ascending task ids from the current job,
// or nil if no job is active. Pull-based and non-blocking (§4.K).
func (m *Manager) GetTasks(maxTasks int) *TaskBlock {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	ids := m.current.nextTaskBlock(maxTasks)
	return &TaskBlock{JobID: m.current.ID, IDs: ids}
}

// SubmitResult accepts a task result for the currently active job. A
// mismatched job id is a programmer error (the caller raced a cancel) and
// is dropped with a warning log rather than panicking, since the caller cannot act
// on a panic from a background worker.
func (m *Manager) SubmitResult(r Result) {
	m.mu.Lock()

	if m.current == nil || m.current.ID != r.JobID {
		m.mu.Unlock()
		m.log().Warnw("dropping result for inactive or unknown job", "jobId", r.JobID, "taskId", r.TaskID)
		return
	}

	if r.Err != nil {
		m.faultsMu.Lock()
		m.faults = multierror.Append(m.faults, r.Err)
		m.faultsMu.Unlock()
	} else {
		m.current.Results.Set(r.TaskID, r.Access, r.Dual)
	}
	m.current.markComplete(r.TaskID)

	finished := m.current.NTasksRemaining() == 0
	var finishedJob *Job
	if finished {
		finishedJob = m.current
		m.current = nil
		m.promoteNextLocked()
	}
	m.mu.Unlock()

	if finished && m.Tracker != nil {
		job := finishedJob
		m.Tracker.Run(func() { m.log().Infow("batch job finished", "jobId", job.ID) })
	}
}

// CancelCurrentJob drops the current job if orgId matches its owner, then
// promotes the next queued job. Results submitted for the cancelled job
// after this call are rejected by SubmitResult's id check.
func (m *Manager) CancelCurrentJob(orgID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.Owner != orgID {
		return false
	}
	m.current = nil
	m.promoteNextLocked()
	return true
}

// promoteNextLocked must be called with mu held.
func (m *Manager) promoteNextLocked() {
	for len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		if next.NTasksRemaining() == 0 {
			continue
		}
		m.current = next
		return
	}
}

// Errors returns the accumulated per-task faults across all jobs this
// manager has processed.
func (m *Manager) Errors() error {
	m.faultsMu.Lock()
	defer m.faultsMu.Unlock()
	if m.faults == nil {
		return nil
	}
	return m.faults.ErrorOrNil()
}

// CurrentJobID returns the active job's id, or "" if none.
func (m *Manager) CurrentJobID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.ID
}
