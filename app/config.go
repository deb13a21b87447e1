package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/voicenote/config"
	"github.com/kbukum/voicenote/events"
	"github.com/kbukum/voicenote/observability"
	"github.com/kbukum/voicenote/pipeline"
	"github.com/kbukum/voicenote/recognition"
	"github.com/kbukum/voicenote/scheduler"
	"github.com/kbukum/voicenote/server"
	"github.com/kbukum/voicenote/staging"
	"github.com/kbukum/voicenote/storage"
	"github.com/kbukum/voicenote/transcoder"
	"github.com/kbukum/voicenote/validation"
)

// ServiceName is the default service name and config file base name.
const ServiceName = "voicenote"

// Config is the complete service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Scheduler     scheduler.Config     `yaml:"scheduler" mapstructure:"scheduler"`
	Pipeline      pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Transcoder    transcoder.Config    `yaml:"transcoder" mapstructure:"transcoder"`
	Staging       staging.Config       `yaml:"staging" mapstructure:"staging"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Recognition   recognition.Config   `yaml:"recognition" mapstructure:"recognition"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Events        events.Config        `yaml:"events" mapstructure:"events"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills in every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Scheduler.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Recognition.ApplyDefaults()
	// The canonical file must match what the recognizer is told it receives.
	if c.Transcoder.TempDir == "" {
		c.Transcoder.TempDir = c.Pipeline.TempDir
	}
	if c.Transcoder.SampleRate == 0 {
		c.Transcoder.SampleRate = c.Recognition.SampleRate
	}
	if c.Transcoder.Channels == 0 {
		c.Transcoder.Channels = c.Recognition.Channels
	}
	c.Transcoder.ApplyDefaults()
	c.Staging.ApplyDefaults()
	c.Storage.ApplyDefaults()
	if c.Server.Locale == "" {
		c.Server.Locale = c.Recognition.Locale
	}
	c.Server.ApplyDefaults()
	if c.Events.Source == "" {
		c.Events.Source = c.Name
	}
	c.Events.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section and the settings that span sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}

	var errs []error
	check := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	check("scheduler", c.Scheduler.Validate())
	check("pipeline", c.Pipeline.Validate())
	check("transcoder", c.Transcoder.Validate())
	check("staging", c.Staging.Validate())
	check("storage", c.Storage.Validate())
	check("recognition", c.Recognition.Validate())
	check("server", c.Server.Validate())
	check("observability", c.Observability.Validate())
	check("events", c.Events.Validate())

	// A synchronous request must outlive the longest recognition wait.
	if wt := time.Duration(c.Server.WriteTimeout) * time.Second; wt > 0 && wt < c.Pipeline.RecognitionTimeout {
		errs = append(errs, fmt.Errorf("server.write_timeout (%s) is shorter than pipeline.recognition_timeout (%s)",
			wt, c.Pipeline.RecognitionTimeout))
	}
	return errors.Join(errs...)
}

// Settings returns the effective non-secret settings shown by /info.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"max_concurrency":      c.Scheduler.MaxConcurrency,
		"sync_threshold_bytes": c.Pipeline.SyncThresholdBytes,
		"recognition_timeout":  c.Pipeline.RecognitionTimeout.String(),
		"upload_retry_count":   c.Staging.UploadRetryCount,
		"upload_retry_delay":   c.Staging.UploadRetryDelay.String(),
		"storage_provider":     c.Storage.Provider,
		"recognition_provider": c.Recognition.Provider,
		"locale":               c.Recognition.Locale,
		"encoding":             c.Recognition.Encoding,
		"sample_rate":          c.Recognition.SampleRate,
		"events_enabled":       c.Events.Enabled,
	}
}
