package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/voicenote/pipeline"
)

// State is a job's lifecycle state.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Job is one submitted transcription.
type Job struct {
	ID          string
	SubmittedAt time.Time

	audio    []byte
	notifier pipeline.Notifier

	mu    sync.Mutex
	state State

	once sync.Once
	done chan struct{}
	text string
	err  error
}

func newJob(id string, audio []byte, notifier pipeline.Notifier, now time.Time) *Job {
	return &Job{
		ID:          id,
		SubmittedAt: now,
		audio:       audio,
		notifier:    notifier,
		state:       StateQueued,
		done:        make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// resolve delivers the result. Only the first call has any effect.
func (j *Job) resolve(text string, err error) bool {
	delivered := false
	j.once.Do(func() {
		j.text, j.err = text, err
		if err != nil {
			j.setState(StateFailed)
		} else {
			j.setState(StateSucceeded)
		}
		j.audio = nil
		close(j.done)
		delivered = true
	})
	return delivered
}

// Pending is the caller's handle on a submitted job.
type Pending struct {
	job *Job
}

// ID returns the job ID.
func (p *Pending) ID() string { return p.job.ID }

// State returns the job's lifecycle state.
func (p *Pending) State() State { return p.job.State() }

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} { return p.job.done }

// Wait blocks until the job finishes or ctx is done. Giving up on the wait
// does not cancel the job; it keeps its slot until it finishes.
func (p *Pending) Wait(ctx context.Context) (string, error) {
	select {
	case <-p.job.done:
		return p.job.text, p.job.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
