package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/observability"
	"github.com/kbukum/voicenote/recognition"
	"github.com/kbukum/voicenote/staging"
	"github.com/kbukum/voicenote/transcoder"
)

// Canonicalizer converts input audio to the canonical encoding.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, input []byte) (*transcoder.Artifact, error)
}

// Stager uploads canonical audio for async recognition.
type Stager interface {
	Upload(ctx context.Context, artifactPath string) (staging.Location, error)
	Delete(ctx context.Context, loc staging.Location)
}

// Runner executes jobs. It is safe for concurrent use; all per-job state
// lives on the stack of Run.
type Runner struct {
	cfg        Config
	canon      Canonicalizer
	stager     Stager
	recognizer recognition.Client
	recConfig  recognition.Config
	metrics    *observability.JobMetrics
	tracer     trace.Tracer
	log        *logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records stage durations on m.
func WithMetrics(m *observability.JobMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracer uses t instead of the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, canon Canonicalizer, stager Stager, recognizer recognition.Client, recConfig recognition.Config, opts ...Option) *Runner {
	cfg.ApplyDefaults()
	recConfig.ApplyDefaults()
	r := &Runner{
		cfg:        cfg,
		canon:      canon,
		stager:     stager,
		recognizer: recognizer,
		recConfig:  recConfig,
		tracer:     observability.Tracer(observability.MeterName + "/pipeline"),
		log:        logger.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("pipeline")
	return r
}

// execution is the per-job state that cleanup needs.
type execution struct {
	jobID    string
	notifier Notifier
	artifact *transcoder.Artifact
	location staging.Location
	strategy Strategy
}

// Run executes one job and returns its transcript. Every artifact it
// creates is removed before it returns. Errors are *errors.AppError,
// except a canceled ctx which is mapped to INTERNAL_ERROR with the context
// error as cause.
func (r *Runner) Run(ctx context.Context, jobID string, audio []byte, notifier Notifier) (text string, err error) {
	ctx, span := r.tracer.Start(ctx, observability.SpanJob,
		trace.WithAttributes(attribute.String(observability.AttrJobID, jobID)))
	ex := &execution{jobID: jobID, notifier: notifier}
	started := time.Now()

	defer func() {
		r.cleanup(ctx, ex)
		err = normalize(err)
		if code := apperrors.CodeOf(err); code != "" {
			span.SetAttributes(attribute.String(observability.AttrErrorCode, string(code)))
		}
		observability.EndSpan(span, err)
		r.observeResult(ctx, ex, err)
		fields := map[string]interface{}{
			logger.FieldJobID:    jobID,
			logger.FieldDuration: time.Since(started).String(),
		}
		if ex.strategy != "" {
			fields[logger.FieldStrategy] = string(ex.strategy)
		}
		if err != nil {
			fields[logger.FieldCode] = string(apperrors.CodeOf(err))
			fields[logger.FieldError] = err.Error()
			r.log.Warn("job failed", fields)
			return
		}
		r.log.Info("job succeeded", fields)
	}()

	r.notify(ctx, ex, StageStart)
	r.notify(ctx, ex, StageConvert)

	err = r.stage(ctx, StageConvert, func(ctx context.Context) error {
		art, err := r.canon.Canonicalize(ctx, audio)
		ex.artifact = art
		return err
	})
	if err != nil {
		return "", err
	}

	ex.strategy = Route(ex.artifact.Size, r.cfg.SyncThresholdBytes)
	span.SetAttributes(
		attribute.String(observability.AttrStrategy, string(ex.strategy)),
		attribute.Int64(observability.AttrSizeBytes, ex.artifact.Size),
	)
	r.log.Debug("job routed", map[string]interface{}{
		logger.FieldJobID:     jobID,
		logger.FieldStrategy:  string(ex.strategy),
		logger.FieldSizeBytes: ex.artifact.Size,
	})

	var resp *recognition.Response
	if ex.strategy == StrategyAsync {
		resp, err = r.recognizeAsync(ctx, ex)
	} else {
		resp, err = r.recognizeSync(ctx, ex)
	}
	if err != nil {
		return "", err
	}
	r.notify(ctx, ex, StageComplete)

	return recognition.Assemble(resp)
}

func (r *Runner) recognizeSync(ctx context.Context, ex *execution) (*recognition.Response, error) {
	var resp *recognition.Response
	err := r.stage(ctx, StageProcess, func(ctx context.Context) error {
		audio, err := ex.artifact.ReadOutput()
		if err != nil {
			return err
		}
		resp, err = r.recognizer.RecognizeSync(ctx, audio, r.recConfig)
		return err
	})
	return resp, err
}

func (r *Runner) recognizeAsync(ctx context.Context, ex *execution) (*recognition.Response, error) {
	r.notify(ctx, ex, StageUpload)
	err := r.stage(ctx, StageUpload, func(ctx context.Context) error {
		loc, err := r.stager.Upload(ctx, ex.artifact.OutputPath)
		ex.location = loc
		return err
	})
	if err != nil {
		return nil, err
	}

	r.notify(ctx, ex, StageProcess)
	var resp *recognition.Response
	err = r.stage(ctx, StageProcess, func(ctx context.Context) error {
		op, err := r.recognizer.RecognizeAsync(ctx, ex.location, r.recConfig)
		if err != nil {
			return err
		}
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("operation", op.Name()))
		resp, err = recognition.Await(ctx, op, r.cfg.RecognitionTimeout)
		return err
	})
	return resp, err
}

// stage runs fn inside a child span and records its duration.
func (r *Runner) stage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, observability.SpanStage+string(stage))
	start := time.Now()
	err := fn(ctx)
	r.metrics.RecordStage(ctx, string(stage), time.Since(start))
	observability.EndSpan(span, err)
	return err
}

// cleanup removes the input file, then the canonical file, then the staged
// object. Failures are logged and never returned.
func (r *Runner) cleanup(ctx context.Context, ex *execution) {
	start := time.Now()
	if art := ex.artifact; art != nil {
		if err := art.RemoveInput(); err != nil {
			r.logCleanup(ex.jobID, art.InputPath, err)
		}
		if err := art.RemoveOutput(); err != nil {
			r.logCleanup(ex.jobID, art.OutputPath, err)
		}
	}
	if !ex.location.IsZero() {
		r.stager.Delete(ctx, ex.location)
	}
	r.metrics.RecordStage(ctx, string(StageCleanup), time.Since(start))
}

func (r *Runner) logCleanup(jobID, path string, err error) {
	r.log.Warn("cleanup failed", map[string]interface{}{
		logger.FieldJobID: jobID,
		logger.FieldPath:  path,
		logger.FieldError: err.Error(),
	})
}

func (r *Runner) notify(ctx context.Context, ex *execution, stage Stage) {
	if ex.notifier == nil {
		return
	}
	defer r.recoverHook(ex.jobID, stage)
	switch stage {
	case StageStart:
		ex.notifier.OnStart(ctx, ex.jobID)
	case StageConvert:
		ex.notifier.OnConvert(ctx, ex.jobID)
	case StageUpload:
		ex.notifier.OnUpload(ctx, ex.jobID)
	case StageProcess:
		ex.notifier.OnProcess(ctx, ex.jobID)
	case StageComplete:
		ex.notifier.OnComplete(ctx, ex.jobID)
	}
}

func (r *Runner) observeResult(ctx context.Context, ex *execution, err error) {
	obs, ok := ex.notifier.(ResultObserver)
	if !ok {
		return
	}
	defer r.recoverHook(ex.jobID, "result")
	obs.OnResult(ctx, ex.jobID, err)
}

func (r *Runner) recoverHook(jobID string, stage Stage) {
	if rec := recover(); rec != nil {
		r.log.Error("notifier panicked", map[string]interface{}{
			logger.FieldJobID: jobID,
			logger.FieldStage: string(stage),
			logger.FieldError: fmt.Sprint(rec),
		})
	}
}

// normalize keeps every job error inside the closed taxonomy.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.Internal(err)
}
