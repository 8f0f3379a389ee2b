package scheduler

import (
	"context"
	"log"
	"time"
)

// Maintainer is the minimal interface the scheduler needs from the
// subscription use-case: apply due quota resets and prune old usage.
type Maintainer interface {
	ResetDue(ctx context.Context, limit int) (int, error)
	PruneUsage(ctx context.Context) (int64, error)
}

// Scheduler periodically runs quota-window maintenance.
type Scheduler struct {
	interval   time.Duration
	resetBatch int
	maint      Maintainer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that runs maintenance every interval.
// If interval <= 0 it defaults to 1 minute.
func NewScheduler(interval time.Duration, resetBatch int, maint Maintainer) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if resetBatch <= 0 {
		resetBatch = 200
	}
	return &Scheduler{
		interval:   interval,
		resetBatch: resetBatch,
		maint:      maint,
		done:       make(chan struct{}),
	}
}

// Start begins the scheduler loop in a background goroutine. Calling Start
// multiple times has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	log.Printf("[scheduler] started with interval %s\n", s.interval)
	for {
		select {
		case <-s.ctx.Done():
			log.Println("[scheduler] context cancelled; stopping")
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
			func() {
				defer cancel()
				reset, err := s.maint.ResetDue(runCtx, s.resetBatch)
				if err != nil {
					log.Printf("[scheduler] reset due error: %v", err)
				} else if reset > 0 {
					log.Printf("[scheduler] reset %d quota windows", reset)
				}
				pruned, err := s.maint.PruneUsage(runCtx)
				if err != nil {
					log.Printf("[scheduler] prune usage error: %v", err)
				} else if pruned > 0 {
					log.Printf("[scheduler] pruned %d usage records", pruned)
				}
			}()
		}
	}
}

// Stop cancels the scheduler and waits for the loop to finish. Idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.ctx = nil
}
