package scheduler

import (
	"fmt"
	"time"
)

// DefaultMaxConcurrency is how many jobs execute at once.
const DefaultMaxConcurrency = 3

// Config configures the scheduler.
type Config struct {
	// MaxConcurrency bounds simultaneously executing jobs.
	MaxConcurrency int `mapstructure:"max_concurrency" json:"max_concurrency" validate:"gte=0"`
	// JobTimeout bounds one job's execution. Zero means no bound beyond the
	// stage timeouts.
	JobTimeout time.Duration `mapstructure:"job_timeout" json:"job_timeout"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("scheduler: max_concurrency must be at least 1 (got %d)", c.MaxConcurrency)
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("scheduler: job_timeout must not be negative")
	}
	return nil
}
