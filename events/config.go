package events

import (
	"fmt"
	"time"

	"github.com/kbukum/voicenote/security"
)

// Config configures the job event publisher.
type Config struct {
	// Enabled turns publishing on. When off, the publisher is not registered.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic receives every job event.
	Topic string `mapstructure:"topic"`
	// Source identifies this service in events.
	Source string `mapstructure:"source"`

	// TLS secures the broker connection.
	TLS security.TLSConfig `mapstructure:"tls"`

	// SASL
	EnableSASL    bool   `mapstructure:"enable_sasl"`
	SASLMechanism string `mapstructure:"sasl_mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`

	// Writer settings
	Compression  string        `mapstructure:"compression"` // none, gzip, snappy, lz4, zstd
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MetadataTTL  time.Duration `mapstructure:"metadata_ttl"`

	// BufferSize is how many events may wait for the writer. Events beyond
	// it are dropped so hooks never block a job.
	BufferSize int `mapstructure:"buffer_size"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.Topic == "" {
		c.Topic = "voicenote.jobs"
	}
	if c.Source == "" {
		c.Source = "voicenote"
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1 // all replicas
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Second
	}
	if c.MetadataTTL <= 0 {
		c.MetadataTTL = 6 * time.Second
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1024
	}
	if c.SASLMechanism == "" && c.EnableSASL {
		c.SASLMechanism = "PLAIN"
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("events: brokers are required")
	}
	if c.Topic == "" {
		return fmt.Errorf("events: topic is required")
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if c.EnableSASL {
		switch c.SASLMechanism {
		case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return fmt.Errorf("events: unsupported SASL mechanism: %s", c.SASLMechanism)
		}
		if c.Username == "" {
			return fmt.Errorf("events: SASL username is required")
		}
	}
	return nil
}
