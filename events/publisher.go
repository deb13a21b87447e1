// Package events publishes job lifecycle events to Kafka.
//
// A Publisher is a pipeline.Notifier: attach it to a job and every hook
// plus the terminal result becomes a JobEvent keyed by job ID. Publishing
// is best effort; a slow or unreachable broker drops events and never
// delays or fails a job.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/voicenote/component"
	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/pipeline"
)

// Writer is the slice of kafka-go's Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher buffers job events and writes them from one goroutine.
type Publisher struct {
	cfg    Config
	writer Writer
	log    *logger.Logger
	now    func() time.Time

	mu      sync.RWMutex
	queue   chan kafkago.Message
	done    chan struct{}
	running bool

	dropped atomic.Int64
	failed  atomic.Int64
}

var (
	_ pipeline.Notifier       = (*Publisher)(nil)
	_ pipeline.ResultObserver = (*Publisher)(nil)
	_ component.Component     = (*Publisher)(nil)
)

// NewPublisher creates a Publisher on a kafka-go writer built from cfg.
func NewPublisher(cfg Config, log *logger.Logger) (*Publisher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.WithComponent("events")
	w, err := NewWriter(cfg, kafkago.LoggerFunc(func(msg string, args ...interface{}) {
		log.Error("writer: "+fmt.Sprintf(msg, args...))
	}))
	if err != nil {
		return nil, err
	}
	return newPublisher(cfg, w, log), nil
}

// NewPublisherWithWriter creates a Publisher on an existing writer.
func NewPublisherWithWriter(cfg Config, w Writer, log *logger.Logger) *Publisher {
	cfg.ApplyDefaults()
	return newPublisher(cfg, w, log.WithComponent("events"))
}

func newPublisher(cfg Config, w Writer, log *logger.Logger) *Publisher {
	return &Publisher{cfg: cfg, writer: w, log: log, now: time.Now}
}

// --- pipeline.Notifier ---

func (p *Publisher) OnStart(ctx context.Context, jobID string) {
	p.stage(ctx, jobID, pipeline.StageStart)
}

func (p *Publisher) OnConvert(ctx context.Context, jobID string) {
	p.stage(ctx, jobID, pipeline.StageConvert)
}

func (p *Publisher) OnUpload(ctx context.Context, jobID string) {
	p.stage(ctx, jobID, pipeline.StageUpload)
}

func (p *Publisher) OnProcess(ctx context.Context, jobID string) {
	p.stage(ctx, jobID, pipeline.StageProcess)
}

func (p *Publisher) OnComplete(ctx context.Context, jobID string) {
	p.stage(ctx, jobID, pipeline.StageComplete)
}

// OnResult publishes the terminal outcome.
func (p *Publisher) OnResult(_ context.Context, jobID string, err error) {
	ev := p.event(jobID, TypeSucceeded)
	if err != nil {
		ev.Type = TypeFailed
		ev.Code = string(apperrors.CodeOf(err))
	}
	p.enqueue(ev)
}

func (p *Publisher) stage(_ context.Context, jobID string, stage pipeline.Stage) {
	ev := p.event(jobID, TypeStage)
	ev.Stage = string(stage)
	p.enqueue(ev)
}

func (p *Publisher) event(jobID, typ string) JobEvent {
	return JobEvent{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Type:      typ,
		Source:    p.cfg.Source,
		Timestamp: p.now().UTC(),
	}
}

func (p *Publisher) enqueue(ev JobEvent) {
	data, err := ev.ToJSON()
	if err != nil {
		p.log.Warn("event marshal failed", map[string]interface{}{logger.FieldError: err.Error()})
		return
	}
	msg := kafkago.Message{
		Key:   []byte(ev.JobID),
		Value: data,
		Time:  ev.Timestamp,
		Headers: []kafkago.Header{
			{Key: "event-id", Value: []byte(ev.ID)},
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "event-source", Value: []byte(ev.Source)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.dropped.Add(1)
		p.log.Warn("event buffer full, dropping event", map[string]interface{}{
			logger.FieldJobID: ev.JobID,
			"type":            ev.Type,
		})
	}
}

func (p *Publisher) loop(queue <-chan kafkago.Message, done chan<- struct{}) {
	defer close(done)
	for msg := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.WriteTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			p.failed.Add(1)
			p.log.Warn("event publish failed", map[string]interface{}{
				logger.FieldJobID: string(msg.Key),
				logger.FieldError: err.Error(),
			})
		}
	}
}

// --- component.Component ---

// Name returns the component name.
func (p *Publisher) Name() string { return "events" }

// Start launches the writer goroutine.
func (p *Publisher) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.queue = make(chan kafkago.Message, p.cfg.BufferSize)
	p.done = make(chan struct{})
	p.running = true
	go p.loop(p.queue, p.done)
	p.log.Info("event publisher started", map[string]interface{}{
		"brokers": p.cfg.Brokers,
		"topic":   p.cfg.Topic,
	})
	return nil
}

// Stop flushes buffered events until ctx ends, then closes the writer.
func (p *Publisher) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.queue)
	done := p.done
	p.mu.Unlock()

	var flushErr error
	select {
	case <-done:
	case <-ctx.Done():
		flushErr = fmt.Errorf("events: flush interrupted: %w", ctx.Err())
	}
	return errors.Join(flushErr, p.writer.Close())
}

// Health dials the first broker.
func (p *Publisher) Health(ctx context.Context) component.Health {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if !running {
		return component.Health{Name: p.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}

	dialer, err := newDialer(&p.cfg)
	if err != nil {
		return component.Health{Name: p.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("dialer: %v", err)}
	}
	conn, err := dialer.DialContext(ctx, "tcp", p.cfg.Brokers[0])
	if err != nil {
		// Events are best effort; an unreachable broker degrades, never fails, the service.
		return component.Health{Name: p.Name(), Status: component.StatusDegraded, Message: fmt.Sprintf("broker unreachable: %v", err)}
	}
	defer conn.Close()
	return component.Health{Name: p.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary entry.
func (p *Publisher) Describe() component.Description {
	return component.Description{
		Name:    "Job Events",
		Type:    "events",
		Details: fmt.Sprintf("brokers=%v topic=%s", p.cfg.Brokers, p.cfg.Topic),
	}
}

// Stats reports how many events were dropped on a full buffer and how many
// writes failed.
func (p *Publisher) Stats() (dropped, failed int64) {
	return p.dropped.Load(), p.failed.Load()
}
