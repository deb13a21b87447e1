// Package scheduler runs transcription jobs through a bounded, strictly
// FIFO pool. At most MaxConcurrency jobs execute at once; the rest wait in
// submission order.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/voicenote/component"
	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/observability"
	"github.com/kbukum/voicenote/pipeline"
)

// ErrStopped is the cause of jobs resolved because the scheduler stopped.
var ErrStopped = errors.New("scheduler stopped")

// Executor runs one job. *pipeline.Runner implements it.
type Executor interface {
	Run(ctx context.Context, jobID string, audio []byte, notifier pipeline.Notifier) (string, error)
}

// Scheduler admits jobs in submission order up to the concurrency limit.
type Scheduler struct {
	cfg     Config
	exec    Executor
	metrics *observability.JobMetrics
	log     *logger.Logger
	newID   func() string
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	queue     []*Job
	executing int
	stopped   bool
}

var _ component.Component = (*Scheduler)(nil)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMetrics records queue and job metrics on m.
func WithMetrics(m *observability.JobMetrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a Scheduler. It accepts jobs immediately.
func New(cfg Config, exec Executor, opts ...Option) *Scheduler {
	cfg.ApplyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:    cfg,
		exec:   exec,
		log:    logger.GetGlobalLogger(),
		newID:  uuid.NewString,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("scheduler")
	return s
}

// Submit enqueues audio and returns immediately. The notifier may be nil.
// After Stop, the returned Pending is already resolved with ErrStopped.
func (s *Scheduler) Submit(audio []byte, notifier pipeline.Notifier) *Pending {
	job := newJob(s.newID(), audio, notifier, s.now())

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		job.resolve("", apperrors.Internal(ErrStopped))
		return &Pending{job: job}
	}
	s.queue = append(s.queue, job)
	queued := len(s.queue)
	s.metrics.RecordSubmitted(s.ctx)
	s.admitLocked()
	s.mu.Unlock()

	s.log.Debug("job submitted", map[string]interface{}{
		logger.FieldJobID:     job.ID,
		logger.FieldSizeBytes: len(audio),
		"queued":              queued,
	})
	return &Pending{job: job}
}

// admitLocked starts queued jobs while slots are free. s.mu must be held.
func (s *Scheduler) admitLocked() {
	for !s.stopped && s.executing < s.cfg.MaxConcurrency && len(s.queue) > 0 {
		job := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.executing++
		job.setState(StateRunning)
		s.metrics.RecordAdmitted(s.ctx)
		s.wg.Add(1)
		go s.execute(job)
	}
}

func (s *Scheduler) execute(job *Job) {
	defer s.wg.Done()
	start := s.now()

	text, err := s.run(job)
	job.resolve(text, err)
	s.metrics.RecordFinished(s.ctx, string(apperrors.CodeOf(err)), s.now().Sub(start))

	s.mu.Lock()
	s.executing--
	s.admitLocked()
	s.mu.Unlock()
}

// run calls the executor, turning a panic into INTERNAL_ERROR so the slot
// is always released.
func (s *Scheduler) run(job *Job) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("job panicked", map[string]interface{}{
				logger.FieldJobID: job.ID,
				logger.FieldError: fmt.Sprint(rec),
				"stack":           string(debug.Stack()),
			})
			text, err = "", apperrors.Internal(fmt.Errorf("job panicked: %v", rec))
		}
	}()

	ctx := s.ctx
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}
	return s.exec.Run(ctx, job.ID, job.audio, job.notifier)
}

// Queued returns the number of jobs waiting for admission.
func (s *Scheduler) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Executing returns the number of jobs holding a slot.
func (s *Scheduler) Executing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executing
}

// --- component.Component ---

// Name returns the component name.
func (s *Scheduler) Name() string { return "scheduler" }

// Start logs the configuration; the scheduler accepts jobs from New on.
func (s *Scheduler) Start(_ context.Context) error {
	s.log.Info("scheduler ready", map[string]interface{}{"max_concurrency": s.cfg.MaxConcurrency})
	return nil
}

// Stop stops admission, resolves queued jobs with ErrStopped and waits for
// running jobs. If ctx ends first, running jobs are canceled and ctx.Err()
// is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	dropped := s.queue
	s.queue = nil
	running := s.executing
	s.mu.Unlock()

	for _, job := range dropped {
		err := apperrors.Internal(ErrStopped)
		job.resolve("", err)
		s.metrics.RecordDropped(s.ctx, string(err.Code))
	}
	s.log.Info("scheduler stopping", map[string]interface{}{
		"dropped": len(dropped),
		"running": running,
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// Health reports unhealthy once stopped.
func (s *Scheduler) Health(_ context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := component.Health{
		Name:    s.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("executing=%d queued=%d", s.executing, len(s.queue)),
	}
	if s.stopped {
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	}
	return h
}

// Describe returns the startup summary entry.
func (s *Scheduler) Describe() component.Description {
	return component.Description{
		Name:    "Scheduler",
		Type:    "scheduler",
		Details: fmt.Sprintf("max_concurrency=%d", s.cfg.MaxConcurrency),
	}
}
