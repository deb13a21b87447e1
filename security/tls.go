package security

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSConfig describes one end of a TLS connection. The same block serves
// the Kafka client (events.tls) and the HTTP listener (server.tls).
type TLSConfig struct {
	// Enabled turns TLS on. A client with no other settings verifies the
	// peer against the system roots.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// SkipVerify disables peer certificate verification. Client side only.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile verifies the peer: the broker for a client, client
	// certificates for a server (mutual TLS).
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// CertFile and KeyFile hold this end's certificate. Required for a server.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	// ServerName overrides the name checked against the peer certificate.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is the lowest accepted version. Defaults to TLS 1.2.
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`
}

// ClientConfig builds the client-side *tls.Config, or nil when disabled.
func (c *TLSConfig) ClientConfig() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	cfg := c.base()
	cfg.InsecureSkipVerify = c.SkipVerify //nolint:gosec // opt-in for test clusters
	cfg.ServerName = c.ServerName

	if c.CAFile != "" {
		pool, err := loadPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}
	if err := c.loadCertificate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ServerConfig builds the listener-side *tls.Config, or nil when disabled.
// With CAFile set, clients must present a certificate it signed.
func (c *TLSConfig) ServerConfig() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if c.CertFile == "" || c.KeyFile == "" {
		return nil, errors.New("security/tls: cert_file and key_file are required to serve TLS")
	}
	cfg := c.base()
	if err := c.loadCertificate(cfg); err != nil {
		return nil, err
	}
	if c.CAFile != "" {
		pool, err := loadPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

// Validate checks that the certificate pair is complete.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("security/tls: both cert_file and key_file must be provided together")
	}
	return nil
}

// IsEnabled reports whether TLS is on.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && c.Enabled
}

func (c *TLSConfig) base() *tls.Config {
	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	return &tls.Config{MinVersion: minVersion}
}

func (c *TLSConfig) loadCertificate(cfg *tls.Config) error {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return fmt.Errorf("security/tls: failed to load certificate: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return nil
}

func loadPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("security/tls: failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("security/tls: failed to parse CA certificate")
	}
	return pool, nil
}
