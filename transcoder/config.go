package transcoder

import (
	"fmt"
	"time"
)

// Default canonical encoding: mono Opus in Ogg at 48 kHz, tuned for speech.
const (
	DefaultBinary      = "ffmpeg"
	DefaultCodec       = "libopus"
	DefaultBitrate     = "128k"
	DefaultSampleRate  = 48000
	DefaultChannels    = 1
	DefaultApplication = "voip"
	DefaultFormat      = "ogg"
	DefaultTimeout     = 2 * time.Minute
)

// Config describes the ffmpeg invocation that produces canonical audio.
type Config struct {
	// Binary is the ffmpeg executable, resolved through PATH.
	Binary string `mapstructure:"binary" json:"binary"`
	// Bitrate is the target audio bitrate (ffmpeg -b:a).
	Bitrate string `mapstructure:"bitrate" json:"bitrate"`
	// SampleRate is the output sample rate in Hz.
	SampleRate int `mapstructure:"sample_rate" json:"sample_rate" validate:"gte=8000"`
	// Channels is the output channel count.
	Channels int `mapstructure:"channels" json:"channels" validate:"gte=1,lte=2"`
	// Timeout bounds a single conversion.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
	// TempDir holds the per-job input and output files. Empty uses os.TempDir.
	TempDir string `mapstructure:"temp_dir" json:"temp_dir"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.Bitrate == "" {
		c.Bitrate = DefaultBitrate
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("transcoder: binary is required")
	}
	if c.SampleRate < 8000 {
		return fmt.Errorf("transcoder: sample_rate must be at least 8000 (got %d)", c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 2 {
		return fmt.Errorf("transcoder: channels must be 1 or 2 (got %d)", c.Channels)
	}
	return nil
}
