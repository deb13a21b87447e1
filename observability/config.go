package observability

import (
	"errors"
	"time"
)

// Default configuration values.
const (
	DefaultEndpoint   = "localhost:4318"
	DefaultInterval   = 15 * time.Second
	DefaultSampleRate = 1.0
)

// Config holds the exporter settings shared by the meter and tracer providers.
type Config struct {
	// MetricsEnabled exports job metrics over OTLP HTTP.
	MetricsEnabled bool `mapstructure:"metrics_enabled" json:"metrics_enabled"`
	// TracingEnabled exports job and stage spans over OTLP HTTP.
	TracingEnabled bool `mapstructure:"tracing_enabled" json:"tracing_enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Insecure allows plaintext connections (for development).
	Insecure bool `mapstructure:"insecure" json:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval" json:"interval"`
	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return errors.New("observability: sample_rate must be between 0 and 1")
	}
	if (c.MetricsEnabled || c.TracingEnabled) && c.Endpoint == "" {
		return errors.New("observability: endpoint is required when exporting")
	}
	return nil
}
