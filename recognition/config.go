package recognition

import (
	"strings"
	"time"

	"github.com/kbukum/voicenote/validation"
)

// Provider names.
const (
	ProviderGoogle  = "google"
	ProviderWhisper = "whisper"
)

// Defaults match voice notes recorded by chat clients: Opus, 48 kHz, mono,
// Brazilian Portuguese, long-form model.
const (
	DefaultProvider       = ProviderGoogle
	DefaultEncoding       = "WEBM_OPUS"
	DefaultSampleRate     = 48000
	DefaultChannels       = 1
	DefaultLocale         = "pt-BR"
	DefaultModel          = "latest_long"
	DefaultRequestTimeout = 2 * time.Minute
	DefaultPollInterval   = 2 * time.Second
)

// Config is the recognition request configuration. It is immutable per deployment.
type Config struct {
	// Provider selects the backend: "google" or "whisper".
	Provider string `mapstructure:"provider" json:"provider"`
	// Encoding is the declared audio encoding. The canonical Opus-in-Ogg
	// output is declared as WEBM_OPUS, which the provider accepts.
	Encoding string `mapstructure:"encoding" json:"encoding"`
	// SampleRate is the declared sample rate in Hz.
	SampleRate int `mapstructure:"sample_rate" json:"sample_rate"`
	// Channels is the declared channel count.
	Channels int `mapstructure:"channels" json:"channels"`
	// Locale is the BCP-47 language of the speech.
	Locale string `mapstructure:"locale" json:"locale"`
	// Model is the provider model name.
	Model string `mapstructure:"model" json:"model"`
	// Punctuation enables automatic punctuation. Defaults to true.
	Punctuation *bool `mapstructure:"punctuation" json:"punctuation,omitempty"`
	// Enhanced selects the provider's enhanced model. Defaults to true.
	Enhanced *bool `mapstructure:"enhanced" json:"enhanced,omitempty"`
	// WordConfidence requests per-word confidence scores.
	WordConfidence bool `mapstructure:"word_confidence" json:"word_confidence"`
	// CredentialsFile is a service account JSON file for Google.
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`
	// Endpoint overrides the provider endpoint (Google emulator or proxy).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// WhisperURL is the base URL of the faster-whisper sidecar.
	WhisperURL string `mapstructure:"whisper_url" json:"whisper_url"`
	// WhisperToken is sent as a bearer token to the sidecar.
	WhisperToken string `mapstructure:"whisper_token" json:"-"`
	// RequestTimeout bounds a single synchronous request.
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	// PollInterval is how often the google backend polls a long-running operation.
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
	// BreakerFailures opens the circuit after this many consecutive provider
	// failures. Zero disables the breaker.
	BreakerFailures int `mapstructure:"breaker_failures" json:"breaker_failures"`
	// BreakerCooldown is how long the circuit stays open.
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" json:"breaker_cooldown"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Punctuation == nil {
		c.Punctuation = boolPtr(true)
	}
	if c.Enhanced == nil {
		c.Enhanced = boolPtr(true)
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.BreakerFailures > 0 && c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
}

// Validate checks the configuration. Failures are reported together as an
// INVALID_INPUT error listing each field.
func (c *Config) Validate() error {
	v := validation.New().
		Required("provider", c.Provider).
		Required("encoding", c.Encoding).
		Required("locale", c.Locale).
		Min("sample_rate", int64(c.SampleRate), 1).
		Min("channels", int64(c.Channels), 1).
		Min("breaker_failures", int64(c.BreakerFailures), 0)
	if c.Provider == ProviderWhisper {
		v.Required("whisper_url", c.WhisperURL)
	}
	v.Custom(c.WhisperURL == "" || strings.HasPrefix(c.WhisperURL, "http://") || strings.HasPrefix(c.WhisperURL, "https://"),
		"whisper_url", "must be an http or https URL")
	return v.Validate()
}

// PunctuationEnabled reports whether automatic punctuation is requested.
func (c Config) PunctuationEnabled() bool { return c.Punctuation == nil || *c.Punctuation }

// EnhancedEnabled reports whether the enhanced model is requested.
func (c Config) EnhancedEnabled() bool { return c.Enhanced == nil || *c.Enhanced }

func boolPtr(b bool) *bool { return &b }
