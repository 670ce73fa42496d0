package batch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func allDense(x, y int) float32 { return 1 }

func TestManagerAddJobPromotesWhenIdle(t *testing.T) {
	m := &Manager{}
	j := NewJob("j1", "u", "o", 2, 2, 1, 1, 1, allDense, Options{})
	m.AddJob(j)
	require.Equal(t, "j1", m.CurrentJobID())
}

func TestManagerAllSkippedJobNeverBecomesCurrent(t *testing.T) {
	m := &Manager{}
	j := NewJob("j1", "u", "o", 2, 2, 1, 1, 1, func(x, y int) float32 { return 0 }, Options{})
	require.Equal(t, 0, j.NTasksRemaining())

	m.AddJob(j)
	require.Equal(t, "", m.CurrentJobID())
}

func TestManagerGetTasksReturnsNilWhenIdle(t *testing.T) {
	m := &Manager{}
	require.Nil(t, m.GetTasks(10))
}

func TestManagerSubmitResultFinalizesAndPromotesNext(t *testing.T) {
	m := &Manager{}
	j1 := NewJob("j1", "u", "o", 1, 1, 1, 1, 1, allDense, Options{})
	j2 := NewJob("j2", "u", "o", 1, 1, 1, 1, 1, allDense, Options{})
	m.AddJob(j1)
	m.AddJob(j2)
	require.Equal(t, "j1", m.CurrentJobID())

	block := m.GetTasks(10)
	require.Equal(t, "j1", block.JobID)
	require.Equal(t, []int{0}, block.IDs)

	m.SubmitResult(Result{JobID: "j1", TaskID: 0, Access: [][]int32{{1}}})
	require.Equal(t, "j2", m.CurrentJobID())
}

func TestManagerSubmitResultRejectsWrongJobID(t *testing.T) {
	m := &Manager{}
	j1 := NewJob("j1", "u", "o", 2, 2, 1, 1, 1, allDense, Options{})
	m.AddJob(j1)

	m.SubmitResult(Result{JobID: "not-j1", TaskID: 0})
	require.Equal(t, 4, j1.NTasksRemaining(), "result for a non-active job must not mutate it")
}

func TestManagerCancelCurrentJobChecksOwner(t *testing.T) {
	m := &Manager{}
	j1 := NewJob("j1", "u", "org-a", 2, 2, 1, 1, 1, allDense, Options{})
	m.AddJob(j1)

	require.False(t, m.CancelCurrentJob("org-b"))
	require.Equal(t, "j1", m.CurrentJobID())

	require.True(t, m.CancelCurrentJob("org-a"))
	require.Equal(t, "", m.CurrentJobID())
}

func TestManagerRejectsResultsAfterCancel(t *testing.T) {
	m := &Manager{}
	j1 := NewJob("j1", "u", "org-a", 2, 2, 1, 1, 1, allDense, Options{})
	m.AddJob(j1)

	block := m.GetTasks(1)
	m.CancelCurrentJob("org-a")

	m.SubmitResult(Result{JobID: block.JobID, TaskID: block.IDs[0]})
	require.Equal(t, 4, j1.NTasksRemaining(), "post-cancel result must be rejected")
}
