package pipeline

import (
	"fmt"
	"time"

	"github.com/kbukum/voicenote/recognition"
)

// Config tunes job execution.
type Config struct {
	// SyncThresholdBytes is the routing threshold on canonical size.
	SyncThresholdBytes int64 `mapstructure:"sync_threshold_bytes" json:"sync_threshold_bytes"`
	// RecognitionTimeout bounds the wait for a long-running recognition.
	RecognitionTimeout time.Duration `mapstructure:"recognition_timeout" json:"recognition_timeout"`
	// TempDir holds per-job audio files. Empty uses os.TempDir.
	TempDir string `mapstructure:"temp_dir" json:"temp_dir"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.SyncThresholdBytes <= 0 {
		c.SyncThresholdBytes = DefaultSyncThresholdBytes
	}
	if c.RecognitionTimeout <= 0 {
		c.RecognitionTimeout = recognition.DefaultAwaitTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SyncThresholdBytes <= 0 {
		return fmt.Errorf("pipeline: sync_threshold_bytes must be positive")
	}
	if c.RecognitionTimeout <= 0 {
		return fmt.Errorf("pipeline: recognition_timeout must be positive")
	}
	return nil
}
