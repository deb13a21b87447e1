package security

import (
	"crypto/tls"
	"io"
	"testing"

	"github.com/kbukum/voicenote/security/tlstest"
)

func TestClientConfigDisabled(t *testing.T) {
	for name, cfg := range map[string]*TLSConfig{
		"nil":      nil,
		"zero":     {},
		"settings": {CAFile: "ca.pem", SkipVerify: true},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := cfg.ClientConfig()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != nil {
				t.Fatal("expected nil tls.Config while disabled")
			}
		})
	}
}

func TestClientConfig(t *testing.T) {
	certs := tlstest.Generate(t)

	tests := []struct {
		name  string
		cfg   TLSConfig
		check func(t *testing.T, c *tls.Config)
	}{
		{
			name: "system roots",
			cfg:  TLSConfig{Enabled: true},
			check: func(t *testing.T, c *tls.Config) {
				if c.RootCAs != nil || c.InsecureSkipVerify {
					t.Error("expected default verification")
				}
				if c.MinVersion != tls.VersionTLS12 {
					t.Errorf("MinVersion = %d, want TLS12", c.MinVersion)
				}
			},
		},
		{
			name: "skip verify and server name",
			cfg:  TLSConfig{Enabled: true, SkipVerify: true, ServerName: "kafka.internal", MinVersion: tls.VersionTLS13},
			check: func(t *testing.T, c *tls.Config) {
				if !c.InsecureSkipVerify || c.ServerName != "kafka.internal" || c.MinVersion != tls.VersionTLS13 {
					t.Errorf("unexpected config: skip=%v name=%q min=%d", c.InsecureSkipVerify, c.ServerName, c.MinVersion)
				}
			},
		},
		{
			name: "mutual tls",
			cfg:  TLSConfig{Enabled: true, CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile},
			check: func(t *testing.T, c *tls.Config) {
				if c.RootCAs == nil {
					t.Error("expected RootCAs")
				}
				if len(c.Certificates) != 1 {
					t.Errorf("certificates = %d, want 1", len(c.Certificates))
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.ClientConfig()
			if err != nil {
				t.Fatalf("ClientConfig: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestConfigErrors(t *testing.T) {
	bad := tlstest.WriteInvalidPEM(t, "bad-ca.pem")
	certs := tlstest.Generate(t)

	tests := []struct {
		name  string
		cfg   TLSConfig
		build func(*TLSConfig) (*tls.Config, error)
	}{
		{"client missing CA", TLSConfig{Enabled: true, CAFile: "/nonexistent/ca.pem"}, (*TLSConfig).ClientConfig},
		{"client invalid CA", TLSConfig{Enabled: true, CAFile: bad}, (*TLSConfig).ClientConfig},
		{"client missing cert", TLSConfig{Enabled: true, CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}, (*TLSConfig).ClientConfig},
		{"server without cert", TLSConfig{Enabled: true}, (*TLSConfig).ServerConfig},
		{"server invalid client CA", TLSConfig{Enabled: true, CertFile: certs.CertFile, KeyFile: certs.KeyFile, CAFile: bad}, (*TLSConfig).ServerConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.build(&tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestServerConfigClientAuth(t *testing.T) {
	certs := tlstest.Generate(t)

	plain, err := (&TLSConfig{Enabled: true, CertFile: certs.CertFile, KeyFile: certs.KeyFile}).ServerConfig()
	if err != nil {
		t.Fatalf("ServerConfig: %v", err)
	}
	if plain.ClientAuth != tls.NoClientCert {
		t.Errorf("ClientAuth = %v, want NoClientCert", plain.ClientAuth)
	}

	mutual, err := (&TLSConfig{Enabled: true, CertFile: certs.CertFile, KeyFile: certs.KeyFile, CAFile: certs.CAFile}).ServerConfig()
	if err != nil {
		t.Fatalf("ServerConfig: %v", err)
	}
	if mutual.ClientAuth != tls.RequireAndVerifyClientCert || mutual.ClientCAs == nil {
		t.Error("expected verified client certificates when ca_file is set")
	}
}

func TestMutualHandshake(t *testing.T) {
	certs := tlstest.Generate(t)
	pair := TLSConfig{Enabled: true, CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}

	serverCfg, err := pair.ServerConfig()
	if err != nil {
		t.Fatalf("ServerConfig: %v", err)
	}
	ln, err := tls.Listen("tcp", "127.0.0.1:0", serverCfg)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.WriteString(conn, "ok")
	}()

	clientCfg, err := pair.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig: %v", err)
	}
	conn, err := tls.Dial("tcp", ln.Addr().String(), clientCfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 2)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "ok" {
		t.Errorf("read %q, want ok", buf)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		wantErr bool
	}{
		{"nil", nil, false},
		{"pair", &TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}, false},
		{"cert only", &TLSConfig{CertFile: "cert.pem"}, true},
		{"key only", &TLSConfig{KeyFile: "key.pem"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
