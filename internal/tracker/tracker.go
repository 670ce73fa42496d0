// Package tracker implements BackgroundItemTracker (§6): fire-and-forget
// background work (e.g. batch-job finalization) that a shutdown path can
// still wait to drain and collect errors from.
package tracker

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BackgroundItemTracker runs Runnables on their own goroutine via an
// errgroup.Group, so a shutdown path can Wait for every outstanding item
// and see their combined error.
type BackgroundItemTracker struct {
	g   errgroup.Group
	Log *zap.SugaredLogger
}

func (t *BackgroundItemTracker) log() *zap.SugaredLogger {
	if t.Log == nil {
		return zap.NewNop().Sugar()
	}
	return t.Log
}

// Run launches fn on a new goroutine, recovering any panic into an error
// so one failed background item never takes down the process nor is
// silently lost.
func (t *BackgroundItemTracker) Run(fn func()) {
	t.g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("background task panicked: %v", r)
				t.log().Errorw("background task panicked", "panic", r)
			}
		}()
		fn()
		return nil
	})
}

// Wait blocks until every Run'd task has returned, returning the first
// non-nil error (if any).
func (t *BackgroundItemTracker) Wait() error {
	return t.g.Wait()
}
