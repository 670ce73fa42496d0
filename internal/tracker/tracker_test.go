package tracker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWaitRunsAllTasks(t *testing.T) {
	var count atomic.Int32
	tr := &BackgroundItemTracker{}
	for i := 0; i < 20; i++ {
		tr.Run(func() { count.Add(1) })
	}
	require.NoError(t, tr.Wait())
	require.Equal(t, int32(20), count.Load())
}

func TestRunRecoversPanicIntoError(t *testing.T) {
	tr := &BackgroundItemTracker{}
	tr.Run(func() { panic("boom") })
	require.Error(t, tr.Wait())
}
