// Package scheduler drives the Reconciler on a configurable interval,
// isolating failures so the loop never dies.
package scheduler

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/coursesync/syncengine/internal/sync"
	"github.com/sirupsen/logrus"
)

// Scheduler is a cooperative periodic driver: sleep, invoke sync_all,
// repeat. A sync error is logged and swallowed; the loop never exits due
// to one.
type Scheduler struct {
	interval    time.Duration
	reconciler  *sync.Reconciler
	log         *logrus.Entry
	stopChan    chan struct{}
	wg          gosync.WaitGroup
	mu          gosync.Mutex
	running     bool
}

// New builds a Scheduler. interval must be positive.
func New(reconciler *sync.Reconciler, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler: interval must be positive, got %s", interval)
	}
	return &Scheduler{
		interval:   interval,
		reconciler: reconciler,
		log:        logrus.WithField("component", "scheduler"),
		stopChan:   make(chan struct{}),
	}, nil
}

// Start launches the scheduling loop as a detached goroutine. It is safe
// to call Start exactly once per Scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler: already running")
	}
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	s.log.WithField("interval", s.interval).Info("scheduler started")
	return nil
}

// Stop signals the loop to exit and waits for the current cycle, if any,
// to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopChan)
	s.wg.Wait()
	s.running = false
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			// The cycle is detached from ctx's cancellation so that a
			// shutdown lets an in-flight cycle finish; only the wait
			// between cycles is interrupted.
			s.runCycle(context.WithoutCancel(ctx))
		}
	}
}

// runCycle invokes one reconciliation cycle; any error is logged and
// swallowed so the loop lives as long as the process does.
func (s *Scheduler) runCycle(ctx context.Context) {
	stats, err := s.reconciler.SyncAll(ctx)
	if err != nil {
		s.log.WithError(err).Warn("scheduled sync cycle failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"courses_pushed": stats.CoursesPushed,
		"courses_pulled": stats.CoursesPulled,
		"todos_pushed":   stats.TodosPushed,
		"todos_pulled":   stats.TodosPulled,
	}).Debug("scheduled sync cycle completed")
}
