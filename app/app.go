// Package app assembles the transcription service from its components and
// runs it under the bootstrap lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/kbukum/voicenote/bootstrap"
	"github.com/kbukum/voicenote/component"
	"github.com/kbukum/voicenote/events"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/observability"
	"github.com/kbukum/voicenote/pipeline"
	"github.com/kbukum/voicenote/process"
	"github.com/kbukum/voicenote/recognition"
	"github.com/kbukum/voicenote/scheduler"
	"github.com/kbukum/voicenote/server"
	"github.com/kbukum/voicenote/server/endpoint"
	"github.com/kbukum/voicenote/staging"
	"github.com/kbukum/voicenote/storage"
	"github.com/kbukum/voicenote/transcoder"
	"github.com/kbukum/voicenote/util"

	_ "github.com/kbukum/voicenote/recognition/google"
	_ "github.com/kbukum/voicenote/recognition/whisper"
	_ "github.com/kbukum/voicenote/storage/gcs"
	_ "github.com/kbukum/voicenote/storage/local"
	_ "github.com/kbukum/voicenote/storage/s3"
)

// App is the assembled service.
type App struct {
	*bootstrap.App[*Config]

	Scheduler *scheduler.Scheduler
	Server    *server.Server
	Staging   *staging.Store
	Publisher *events.Publisher
}

type options struct {
	runner    process.Runner
	bootstrap []bootstrap.Option
}

// Option configures New.
type Option func(*options)

// WithProcessRunner replaces the runner used to invoke ffmpeg. The startup
// check for the ffmpeg binary is skipped.
func WithProcessRunner(r process.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithBootstrapOptions passes options through to bootstrap.NewApp.
func WithBootstrapOptions(opts ...bootstrap.Option) Option {
	return func(o *options) { o.bootstrap = append(o.bootstrap, opts...) }
}

// New validates cfg, builds every component and registers them in start
// order: observability, storage, recognition, events, scheduler, server.
// Components stop in reverse, so the server stops accepting requests
// before the scheduler drains and the backends close.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	base, err := bootstrap.NewApp(cfg, o.bootstrap...)
	if err != nil {
		return nil, err
	}
	log := base.Logger
	a := &App{App: base}

	obs := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, log)
	metrics := obs.Metrics()

	backend, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	a.Staging = staging.New(backend, cfg.Staging, log)

	client, err := recognition.New(ctx, recognition.Options{Config: cfg.Recognition, Staging: backend, Log: log})
	if err != nil {
		return nil, fmt.Errorf("recognition: %w", err)
	}

	tc := transcoder.New(cfg.Transcoder, o.runner, log)
	runner := pipeline.NewRunner(cfg.Pipeline, tc, a.Staging, client, cfg.Recognition,
		pipeline.WithMetrics(metrics),
		pipeline.WithLogger(log),
	)
	a.Scheduler = scheduler.New(cfg.Scheduler, runner,
		scheduler.WithMetrics(metrics),
		scheduler.WithLogger(log),
	)

	var notifier pipeline.Notifier = pipeline.NewLogNotifier(log)
	if cfg.Events.Enabled {
		a.Publisher, err = events.NewPublisher(cfg.Events, log)
		if err != nil {
			return nil, fmt.Errorf("events: %w", err)
		}
		notifier = pipeline.Multi(notifier, a.Publisher)
	}

	a.Server = server.New(cfg.Server, log)
	a.Server.RegisterDefaultEndpoints(cfg.Name, base.Components.HealthAll, cfg.Settings(), a.stats)
	a.Server.RegisterTranscriptions(a.Scheduler, endpoint.TranscribeOptions{
		Notifier: notifier,
		Locale:   cfg.Server.Locale,
		Log:      log,
	})

	for _, c := range []component.Component{
		obs,
		storage.NewComponent(backend, cfg.Storage, log),
		&recognizerComponent{client: client, cfg: cfg.Recognition, log: log.WithComponent("recognition")},
	} {
		if err := base.RegisterComponent(c); err != nil {
			return nil, err
		}
	}
	if a.Publisher != nil {
		if err := base.RegisterComponent(a.Publisher); err != nil {
			return nil, err
		}
	}
	if err := base.RegisterComponent(a.Scheduler); err != nil {
		return nil, err
	}
	if err := base.RegisterComponent(server.NewComponent(a.Server)); err != nil {
		return nil, err
	}

	if o.runner == nil {
		base.OnStart(func(context.Context) error {
			if err := tc.CheckBinary(); err != nil {
				return fmt.Errorf("transcoder: %w", err)
			}
			return nil
		})
	}
	base.OnReady(a.sweepOrphans, a.logSettings)
	return a, nil
}

// sweepOrphans removes staged objects left behind by a previous process.
// Failures are logged; a stale object never blocks startup.
func (a *App) sweepOrphans(ctx context.Context) error {
	if _, err := a.Staging.SweepOrphans(ctx); err != nil {
		a.Logger.Warn("staging orphan sweep failed", map[string]interface{}{logger.FieldError: err.Error()})
	}
	return nil
}

func (a *App) logSettings(context.Context) error {
	fields := make(map[string]interface{}, 16)
	for k, v := range a.Cfg.Settings() {
		fields[k] = v
	}
	if s := a.Cfg.Server.AuthSecret; s != "" {
		fields["auth_secret"] = util.MaskSecret(s, 2)
	}
	if s := a.Cfg.Storage.SecretKey; s != "" {
		fields["storage_secret_key"] = util.MaskSecret(s, 2)
	}
	if s := a.Cfg.Events.Password; s != "" {
		fields["events_password"] = util.MaskSecret(s, 2)
	}
	a.Logger.Info("effective settings", fields)
	return nil
}

func (a *App) stats() map[string]any {
	st := map[string]any{
		"queued":    a.Scheduler.Queued(),
		"executing": a.Scheduler.Executing(),
	}
	if a.Publisher != nil {
		dropped, failed := a.Publisher.Stats()
		st["events_dropped"] = dropped
		st["events_failed"] = failed
	}
	return st
}
