package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type testProvider struct {
	name      string
	available bool
	closed    bool
}

func (p *testProvider) Name() string                     { return p.name }
func (p *testProvider) IsAvailable(context.Context) bool { return p.available }
func (p *testProvider) Close(context.Context) error {
	p.closed = true
	return nil
}

type testConfig struct {
	Endpoint string
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	reg := NewRegistry[*testProvider, testConfig]("test")
	reg.RegisterFactory("echo", func(_ context.Context, cfg testConfig) (*testProvider, error) {
		return &testProvider{name: "echo@" + cfg.Endpoint, available: true}, nil
	})

	p, err := reg.Create(context.Background(), "echo", testConfig{Endpoint: "local"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name() != "echo@local" {
		t.Errorf("expected name 'echo@local', got %q", p.Name())
	}
	if !reg.Has("echo") || reg.Has("missing") {
		t.Error("unexpected Has result")
	}
}

func TestRegistryCreateUnregistered(t *testing.T) {
	reg := NewRegistry[*testProvider, testConfig]("recognition")
	reg.RegisterFactory("google", func(context.Context, testConfig) (*testProvider, error) {
		return &testProvider{}, nil
	})

	_, err := reg.Create(context.Background(), "azure", testConfig{})
	if err == nil {
		t.Fatal("expected error for unregistered factory")
	}
	for _, want := range []string{"recognition", `"azure"`, "not registered", "google"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %q", want, err.Error())
		}
	}
}

func TestRegistryCreateWrapsFactoryError(t *testing.T) {
	boom := errors.New("no credentials")
	reg := NewRegistry[*testProvider, testConfig]("storage")
	reg.RegisterFactory("gcs", func(context.Context, testConfig) (*testProvider, error) {
		return nil, boom
	})

	_, err := reg.Create(context.Background(), "gcs", testConfig{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error in chain, got %v", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry[*testProvider, testConfig]("test")
	for _, name := range []string{"whisper", "google"} {
		reg.RegisterFactory(name, func(context.Context, testConfig) (*testProvider, error) {
			return &testProvider{}, nil
		})
	}

	names := reg.List()
	if len(names) != 2 || names[0] != "google" || names[1] != "whisper" {
		t.Errorf("expected sorted [google whisper], got %v", names)
	}
}

func TestCloseIfCloseable(t *testing.T) {
	p := &testProvider{}
	if err := CloseIfCloseable(context.Background(), p); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !p.closed {
		t.Error("expected Close to be called")
	}
	if err := CloseIfCloseable(context.Background(), struct{}{}); err != nil {
		t.Errorf("expected nil for non-closeable, got %v", err)
	}
}
