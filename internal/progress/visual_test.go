package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingVisualSink struct {
	sent     [][]Rect
	finished []Rect
}

func (r *recordingVisualSink) EmitBatchSent(jobID string, rects []Rect) {
	r.sent = append(r.sent, rects)
}
func (r *recordingVisualSink) EmitBatchFinished(jobID string, rect Rect) {
	r.finished = append(r.finished, rect)
}

func TestVisualProgressClampsOptionsIntoBatchRange(t *testing.T) {
	vp := NewVisualProgress("job1", &recordingVisualSink{}, Options{MinTimeBetweenEventsMsec: 1, PushEventAfter: 1})
	require.Equal(t, BatchMinTimeBetweenEventsMsec, vp.opts.MinTimeBetweenEventsMsec)
	require.Equal(t, BatchMinPushEventAfter, vp.opts.PushEventAfter)
}

func TestVisualProgressFinishedAlwaysEmits(t *testing.T) {
	rs := &recordingVisualSink{}
	vp := NewVisualProgress("job1", rs, Options{})
	for i := 0; i < 5; i++ {
		vp.Finished(Rect{X0: i})
	}
	require.Len(t, rs.finished, 5)
}

func TestVisualProgressSentDecimatesByCount(t *testing.T) {
	rs := &recordingVisualSink{}
	vp := NewVisualProgress("job1", rs, Options{MinTimeBetweenEventsMsec: 100, PushEventAfter: 20})

	rects := make([]Rect, 19)
	vp.Sent(rects)
	require.Empty(t, rs.sent, "under pushEventAfter, nothing flushed yet")

	vp.Sent([]Rect{{}})
	require.Len(t, rs.sent, 1, "crossing the 20-count threshold flushes")
	require.Len(t, rs.sent[0], 20)
}
