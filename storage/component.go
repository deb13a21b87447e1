package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/voicenote/component"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/provider"
)

// Component manages the lifecycle of a Storage backend built by New. The
// backend exists before Start so that dependents can be wired up front.
type Component struct {
	storage Storage
	cfg     Config
	log     *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps backend for use with the component registry.
func NewComponent(backend Storage, cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{
		storage: backend,
		cfg:     cfg,
		log:     log.WithComponent("storage"),
	}
}

// Storage returns the underlying Storage.
func (c *Component) Storage() Storage {
	return c.storage
}

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start verifies the backend is reachable. An unreachable backend is logged
// rather than fatal: only jobs above the sync threshold need it.
func (c *Component) Start(ctx context.Context) error {
	if c.storage == nil {
		return fmt.Errorf("storage start: no backend")
	}
	if !c.storage.IsAvailable(ctx) {
		c.log.Warn("storage backend not reachable at startup", map[string]interface{}{
			"provider": c.cfg.Provider,
			"bucket":   c.cfg.Bucket,
		})
	}
	return nil
}

// Stop releases the backend client.
func (c *Component) Stop(ctx context.Context) error {
	if c.storage == nil {
		return nil
	}
	return provider.CloseIfCloseable(ctx, c.storage)
}

// Health reports unhealthy when the backend cannot be reached.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.storage == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "storage not initialized",
		}
	}

	if !c.storage.IsAvailable(ctx) {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("%s backend unavailable", c.storage.Name()),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s", c.cfg.Provider)
	if c.cfg.Bucket != "" {
		details += fmt.Sprintf(" bucket=%s", c.cfg.Bucket)
	}
	if c.cfg.Provider == ProviderLocal {
		details += fmt.Sprintf(" path=%s", c.cfg.BasePath)
	}
	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: details,
	}
}
