package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/voicenote/component"
	"github.com/kbukum/voicenote/logger"
)

// Component owns the meter and tracer providers and the job instruments.
type Component struct {
	cfg            Config
	serviceName    string
	serviceVersion string
	environment    string
	log            *logger.Logger

	mp      *sdkmetric.MeterProvider
	tp      *sdktrace.TracerProvider
	metrics *JobMetrics
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the observability component. The job instruments are
// created on the global meter right away so callers can hold them before
// Start; they record nothing until Start installs an exporting provider.
func NewComponent(cfg Config, serviceName, serviceVersion, environment string, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	c := &Component{
		cfg:            cfg,
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
		environment:    environment,
		log:            log.WithComponent("observability"),
	}
	metrics, err := NewJobMetrics(Meter(MeterName))
	if err != nil {
		c.log.Warn("job metrics unavailable", map[string]interface{}{logger.FieldError: err.Error()})
	}
	c.metrics = metrics
	return c
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Metrics returns the job instruments. It may be nil, which records nothing.
func (c *Component) Metrics() *JobMetrics { return c.metrics }

// Start builds the exporters that are enabled.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	res, err := NewResource(c.serviceName, c.serviceVersion, c.environment)
	if err != nil {
		return fmt.Errorf("creating resource: %w", err)
	}

	if c.cfg.TracingEnabled {
		tp, err := InitTracer(ctx, c.cfg, res)
		if err != nil {
			return err
		}
		c.tp = tp
	}

	if c.cfg.MetricsEnabled {
		mp, err := InitMeter(ctx, c.cfg, res)
		if err != nil {
			return err
		}
		c.mp = mp
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Health reports healthy; exporters retry in the background.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "OpenTelemetry",
		Type:    "observability",
		Details: fmt.Sprintf("endpoint=%s metrics=%t tracing=%t", c.cfg.Endpoint, c.cfg.MetricsEnabled, c.cfg.TracingEnabled),
	}
}
