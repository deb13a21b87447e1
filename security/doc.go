// Package security holds the TLS settings shared by the event publisher's
// Kafka connection and the HTTP listener.
//
//	cfg := security.TLSConfig{
//	    Enabled:  true,
//	    CAFile:   "/etc/voicenote/ca.pem",
//	    CertFile: "/etc/voicenote/client.pem",
//	    KeyFile:  "/etc/voicenote/client-key.pem",
//	}
//	tlsConfig, err := cfg.ClientConfig()
package security
