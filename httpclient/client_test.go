package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/voicenote/security"
	"github.com/kbukum/voicenote/security/tlstest"
)

func TestClient_DoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs" {
			t.Errorf("path = %s, want /v1/jobs", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Client"); got != "voicenote" {
			t.Errorf("X-Client = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"id":"42"}` {
			t.Errorf("body = %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"done"}`)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/", Token: "secret", Headers: map[string]string{"X-Client": "voicenote"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1/jobs",
		Body:   map[string]string{"id": "42"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var out struct{ Status string }
	if err := resp.DecodeJSON(&out); err != nil || out.Status != "done" {
		t.Errorf("decode = %+v, %v", out, err)
	}
}

func TestClient_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.FormValue("model") != "base" {
			t.Errorf("model = %q", r.FormValue("model"))
		}
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "opus" || hdr.Filename != `a"b.ogg` {
			t.Errorf("file = %q name = %q", data, hdr.Filename)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "application/octet-stream" {
			t.Errorf("part Content-Type = %q", ct)
		}
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &MultipartBody{
			Fields: map[string]string{"model": "base"},
			Files:  []FileField{{FieldName: "audio", FileName: `a"b.ogg`, Data: []byte("opus")}},
		},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		body      string
		code      ErrorCode
		retryable bool
		message   string
	}{
		{http.StatusUnauthorized, "", ErrCodeAuth, false, "Unauthorized"},
		{http.StatusNotFound, "no such route", ErrCodeNotFound, false, "no such route"},
		{http.StatusRequestEntityTooLarge, "", ErrCodeTooLarge, false, "Request Entity Too Large"},
		{http.StatusTooManyRequests, "slow down\n", ErrCodeRateLimit, true, "slow down"},
		{http.StatusBadRequest, "bad", ErrCodeClient, false, "bad"},
		{http.StatusServiceUnavailable, "", ErrCodeServer, true, "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, _ := New(Config{BaseURL: srv.URL})
			resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("expected response with status %d, got %+v", tt.status, resp)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if e.Code != tt.code || e.Retryable != tt.retryable || e.Message != tt.message {
				t.Errorf("got code=%s retryable=%v message=%q", e.Code, e.Retryable, e.Message)
			}
			if code, ok := CodeOf(err); !ok || code != tt.code {
				t.Errorf("CodeOf = %s, %v", code, ok)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v", IsRetryable(err))
			}
		})
	}
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := New(Config{BaseURL: url, Timeout: time.Second})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/health"})
	if code, ok := CodeOf(err); !ok || code != ErrCodeConnection {
		t.Fatalf("expected connection error, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("connection errors should be retryable")
	}
}

func TestClient_CanceledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { <-block }))
	defer srv.Close()
	defer close(block)

	c, _ := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}

func TestClient_RequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(150 * time.Millisecond)
		_, _ = io.WriteString(w, "late")
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if code, ok := CodeOf(err); !ok || code != ErrCodeConnection {
		t.Fatalf("expected connection error from client timeout, got %v", err)
	}

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/", Timeout: time.Second})
	if err != nil || string(resp.Body) != "late" {
		t.Fatalf("per-request timeout: resp=%v err=%v", resp, err)
	}

	resp, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/", Timeout: NoTimeout})
	if err != nil || string(resp.Body) != "late" {
		t.Fatalf("no timeout: resp=%v err=%v", resp, err)
	}
}

func TestClient_TLS(t *testing.T) {
	certs := tlstest.Generate(t)
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "secure")
	}))
	serverTLS, err := (&security.TLSConfig{Enabled: true, CertFile: certs.CertFile, KeyFile: certs.KeyFile}).ServerConfig()
	if err != nil {
		t.Fatalf("ServerConfig: %v", err)
	}
	srv.TLS = serverTLS
	srv.StartTLS()
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, TLS: security.TLSConfig{Enabled: true, CAFile: certs.CAFile}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "secure" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	cfg.TLS = security.TLSConfig{KeyFile: "key.pem"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "cert_file") {
		t.Errorf("expected TLS pair error, got %v", err)
	}
}
