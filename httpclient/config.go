package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/voicenote/security"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a whole request including the body read. Defaults to 30s.
	// Request.Timeout overrides it per request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token" mapstructure:"token"`

	// TLS configures the transport.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return c.TLS.Validate()
}
