package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/clock"
	"github.com/dmitrijs2005/leadconsole/internal/logging"
)

// DefaultJobDelay is how long the console waits after a job start before
// looking at the results.
const DefaultJobDelay = 2 * time.Second

// DelayedTrigger starts a backend job that gives no completion signal and
// schedules a single re-fetch a fixed delay later.
//
// The re-fetch is a guess: the job may still be running when it happens, in
// which case the operator sees partial results until the next manual load.
type DelayedTrigger struct {
	Job       string
	Delay     time.Duration
	Start     func(ctx context.Context) error
	Reconcile func(ctx context.Context) error

	// Started is shown to the operator when the backend accepts the job.
	Started string

	Clock    clock.Clock
	Scope    *Scope
	Notices  notice.Sink
	Logger   logging.Logger
	Recorder Recorder
}

// Scheduled is the delayed re-fetch armed by an accepted trigger.
type Scheduled struct {
	mu    sync.Mutex
	timer *clock.Timer
	done  chan struct{}
	err   error
	fired bool
}

// Stop cancels the re-fetch if it has not run yet.
func (s *Scheduled) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired || !s.timer.Stop() {
		return false
	}
	s.fired = true
	close(s.done)
	return true
}

// Done is closed after the re-fetch has run or was stopped.
func (s *Scheduled) Done() <-chan struct{} { return s.done }

// Err is the re-fetch error. Only meaningful after Done is closed.
func (s *Scheduled) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Fire issues the job start. A rejection returns a *JobTriggerFailure and
// schedules nothing. An accepted start returns the armed re-fetch.
func (t *DelayedTrigger) Fire(ctx context.Context) (*Scheduled, error) {
	logger := t.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("job", t.Job)

	if t.Scope != nil && t.Scope.Closed() {
		return nil, ErrScopeClosed
	}

	err := t.Start(ctx)
	if t.Recorder != nil {
		if rerr := t.Recorder.RecordMutation(context.WithoutCancel(ctx), t.Job, KindJob, "", err); rerr != nil {
			logger.Error(ctx, "journal write failed", "error", rerr)
		}
	}
	if err != nil {
		jf := &JobTriggerFailure{Job: t.Job, Err: err}
		logger.Warn(ctx, "job start rejected", "error", err)
		t.notify(notice.Error(notice.ClassJobTriggerFailure, fmt.Sprintf("Could not start %s: %v", t.Job, err)))
		return nil, jf
	}

	delay := t.Delay
	if delay <= 0 {
		delay = DefaultJobDelay
	}
	logger.Info(ctx, "job started", "refetch_in", delay.String())
	if t.Started != "" {
		t.notify(notice.Info(t.Started))
	}

	s := &Scheduled{done: make(chan struct{})}
	s.mu.Lock()
	s.timer = t.clockOrReal().AfterFunc(delay, func() { t.refetch(s) })
	s.mu.Unlock()

	if t.Scope != nil {
		t.Scope.OnClose(func() { s.Stop() })
	}
	return s, nil
}

func (t *DelayedTrigger) refetch(s *Scheduled) {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	s.mu.Unlock()

	ctx := context.Background()
	if t.Scope != nil {
		ctx = t.Scope.Context()
	}
	err := t.Reconcile(ctx)

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

func (t *DelayedTrigger) clockOrReal() clock.Clock {
	if t.Clock == nil {
		return clock.Real()
	}
	return t.Clock
}

func (t *DelayedTrigger) notify(n notice.Notice) {
	if t.Notices == nil || (t.Scope != nil && t.Scope.Closed()) {
		return
	}
	t.Notices.Notify(n)
}
