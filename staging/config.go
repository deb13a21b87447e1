package staging

import (
	"fmt"
	"time"
)

// Default staging policy.
const (
	DefaultUploadRetryCount = 3
	DefaultUploadRetryDelay = 2 * time.Second
	DefaultDeleteTimeout    = 30 * time.Second
	DefaultOrphanAge        = 24 * time.Hour
)

// Config controls how canonical audio is staged for long-running recognition.
type Config struct {
	// UploadRetryCount is the total number of upload attempts.
	UploadRetryCount int `mapstructure:"upload_retry_count" json:"upload_retry_count" validate:"gte=1"`
	// UploadRetryDelay is the fixed wait between attempts.
	UploadRetryDelay time.Duration `mapstructure:"upload_retry_delay" json:"upload_retry_delay"`
	// Prefix is prepended to every object name (e.g. "voicenote/").
	Prefix string `mapstructure:"prefix" json:"prefix"`
	// DeleteTimeout bounds the best-effort delete on job exit.
	DeleteTimeout time.Duration `mapstructure:"delete_timeout" json:"delete_timeout"`
	// OrphanAge is the minimum age of a staged object removed by the startup sweep.
	OrphanAge time.Duration `mapstructure:"orphan_age" json:"orphan_age"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.UploadRetryCount <= 0 {
		c.UploadRetryCount = DefaultUploadRetryCount
	}
	if c.UploadRetryDelay < 0 {
		c.UploadRetryDelay = 0
	} else if c.UploadRetryDelay == 0 {
		c.UploadRetryDelay = DefaultUploadRetryDelay
	}
	if c.DeleteTimeout <= 0 {
		c.DeleteTimeout = DefaultDeleteTimeout
	}
	if c.OrphanAge <= 0 {
		c.OrphanAge = DefaultOrphanAge
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.UploadRetryCount < 1 {
		return fmt.Errorf("staging: upload_retry_count must be at least 1 (got %d)", c.UploadRetryCount)
	}
	return nil
}
