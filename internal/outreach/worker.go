package outreach

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Worker triggers a recalculation sweep on a fixed period. A cycle never
// overlaps itself: if the previous one is still running when the timer
// fires, the trigger is skipped and the next tick picks up the work.
type Worker struct {
	svc      Service
	interval func() time.Duration
	running  atomic.Bool
}

func NewWorker(svc Service, interval func() time.Duration) *Worker {
	return &Worker{svc: svc, interval: interval}
}

// Run blocks until ctx is cancelled. The interval is re-read after each
// cycle so config reloads take effect between sweeps.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("[worker] started, interval=%s", w.interval())

	timer := time.NewTimer(w.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[worker] stopped")
			return
		case <-timer.C:
			if !w.TryRunOnce(ctx) {
				log.Println("[worker] previous cycle still running, skipping")
			}
			timer.Reset(w.interval())
		}
	}
}

// TryRunOnce runs a single sweep unless one is already in flight. It reports
// whether the sweep actually ran.
func (w *Worker) TryRunOnce(ctx context.Context) bool {
	if !w.running.CompareAndSwap(false, true) {
		return false
	}
	defer w.running.Store(false)

	started := time.Now()
	report, err := w.svc.RecalculateAll(ctx)
	if err != nil {
		log.Printf("[worker] cycle aborted: %v", err)
		return true
	}
	log.Printf("[worker] cycle done in %s: processed=%d transitions=%d failed=%d",
		time.Since(started).Round(time.Millisecond),
		report.Processed, report.Transitions, report.Failed,
	)
	return true
}
