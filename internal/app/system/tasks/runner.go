// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrJobNotFound is returned by RunOnce for an unregistered job name.
var ErrJobNotFound = errors.New("tasks: job not found")

// Job is a periodic maintenance task such as the integrity check. A job
// with a non-positive Interval is disabled and never scheduled.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// scheduled is a registered job plus its execution state.
type scheduled struct {
	Job
	active atomic.Bool
	passes atomic.Int64
}

// Runner runs each registered job on its own goroutine: once at Start,
// then every Interval until Stop.
type Runner struct {
	logger *zap.Logger
	jobs   []*scheduled

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns an empty runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{logger: logger}
}

// Register adds job. Disabled jobs are logged and dropped. Register must
// be called before Start.
func (r *Runner) Register(job Job) {
	if job.Interval <= 0 {
		r.logger.Info("background job disabled", zap.String("job", job.Name))
		return
	}
	r.jobs = append(r.jobs, &scheduled{Job: job})
}

// Start launches the registered jobs. A second Start is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	for _, s := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, s)
	}
	r.logger.Info("background jobs started", zap.Int("jobs", len(r.jobs)))
}

// Stop cancels every job and waits for them to return. If ctx ends first
// the jobs still executing are logged and ctx.Err() is returned.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background jobs stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("background jobs did not stop in time",
			zap.Strings("active", r.active()))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, s *scheduled) {
	defer r.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			r.execute(ctx, s)
			timer.Reset(s.Interval)
		}
	}
}

// execute runs one pass of s. Failures are logged, never returned, so a
// bad pass does not end the schedule.
func (r *Runner) execute(ctx context.Context, s *scheduled) error {
	s.active.Store(true)
	defer s.active.Store(false)

	pass := s.passes.Add(1)
	start := time.Now()
	err := s.Run(ctx)
	fields := []zap.Field{
		zap.String("job", s.Name),
		zap.Int64("pass", pass),
		zap.Duration("took", time.Since(start)),
	}
	switch {
	case err == nil:
		r.logger.Debug("background job finished", fields...)
	case ctx.Err() != nil:
		// shutting down
		r.logger.Debug("background job interrupted", fields...)
	default:
		r.logger.Error("background job failed", append(fields, zap.Error(err))...)
	}
	return err
}

func (r *Runner) active() []string {
	var names []string
	for _, s := range r.jobs {
		if s.active.Load() {
			names = append(names, s.Name)
		}
	}
	return names
}

// RunOnce runs the named job now, outside its schedule, and returns its
// error.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, s := range r.jobs {
		if s.Name == name {
			return r.execute(ctx, s)
		}
	}
	return ErrJobNotFound
}

// Jobs lists the registered job names in registration order.
func (r *Runner) Jobs() []string {
	names := make([]string, 0, len(r.jobs))
	for _, s := range r.jobs {
		names = append(names, s.Name)
	}
	return names
}
