package storage

import (
	"context"

	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/provider"
)

// Providers holds the registered storage backends. Implementation packages
// register themselves from an init function, so the desired backend must be
// imported (e.g. _ "github.com/kbukum/voicenote/storage/gcs").
var Providers = provider.NewRegistry[Storage, Config]("storage")

// RegisterFactory registers a storage backend factory for the given provider name.
func RegisterFactory(name string, f provider.Factory[Storage, Config]) {
	Providers.RegisterFactory(name, f)
}

// New creates a Storage implementation based on the given Config.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log.WithComponent("storage").Info("initializing storage", map[string]interface{}{
		"provider": cfg.Provider,
		"bucket":   cfg.Bucket,
	})
	return Providers.Create(ctx, cfg.Provider, cfg)
}
