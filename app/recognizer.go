package app

import (
	"context"
	"fmt"

	"github.com/kbukum/voicenote/component"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/provider"
	"github.com/kbukum/voicenote/recognition"
)

// recognizerComponent ties the recognition client to the app lifecycle so
// it is closed only after the scheduler has drained.
type recognizerComponent struct {
	client recognition.Client
	cfg    recognition.Config
	log    *logger.Logger
}

var (
	_ component.Component   = (*recognizerComponent)(nil)
	_ component.Describable = (*recognizerComponent)(nil)
)

func (r *recognizerComponent) Name() string { return "recognition" }

func (r *recognizerComponent) Start(ctx context.Context) error {
	if !r.client.IsAvailable(ctx) {
		r.log.Warn("recognition backend not reachable at startup", map[string]interface{}{
			"provider": r.client.Name(),
		})
	}
	return nil
}

func (r *recognizerComponent) Stop(ctx context.Context) error {
	return provider.CloseIfCloseable(ctx, r.client)
}

func (r *recognizerComponent) Health(ctx context.Context) component.Health {
	h := component.Health{Name: r.Name(), Status: component.StatusHealthy}
	if !r.client.IsAvailable(ctx) {
		h.Status = component.StatusDegraded
		h.Message = r.client.Name() + " unreachable"
	}
	return h
}

func (r *recognizerComponent) Describe() component.Description {
	return component.Description{
		Name:    "Recognition",
		Type:    "recognition",
		Details: fmt.Sprintf("provider=%s locale=%s encoding=%s", r.cfg.Provider, r.cfg.Locale, r.cfg.Encoding),
	}
}
