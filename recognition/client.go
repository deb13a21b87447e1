package recognition

import (
	"context"

	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/provider"
	"github.com/kbukum/voicenote/resilience"
	"github.com/kbukum/voicenote/staging"
	"github.com/kbukum/voicenote/storage"
)

// Client is a speech recognition backend.
type Client interface {
	provider.Provider

	// RecognizeSync recognizes audio sent inline in one request. It is not retried.
	RecognizeSync(ctx context.Context, audio []byte, cfg Config) (*Response, error)

	// RecognizeAsync starts recognition of staged audio and returns the
	// pending operation. Use Await to collect the result.
	RecognizeAsync(ctx context.Context, loc staging.Location, cfg Config) (Operation, error)
}

// Operation is a long-running recognition in progress.
type Operation interface {
	// Name identifies the operation at the provider.
	Name() string
	// Wait blocks until the operation finishes or ctx is done.
	Wait(ctx context.Context) (*Response, error)
}

// Options carries what a backend factory needs.
type Options struct {
	Config Config
	// Staging is the store async audio was uploaded to. Backends that cannot
	// read remote URIs themselves download from it.
	Staging storage.Storage
	Log     *logger.Logger
}

// Providers holds the registered recognition backends. Implementation
// packages register from init (e.g. _ "github.com/kbukum/voicenote/recognition/google").
var Providers = provider.NewRegistry[Client, Options]("recognition")

// New creates the configured backend, wrapped in a circuit breaker when
// BreakerFailures is set.
func New(ctx context.Context, opts Options) (Client, error) {
	opts.Config.ApplyDefaults()
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Log == nil {
		opts.Log = logger.GetGlobalLogger()
	}
	c, err := Providers.Create(ctx, opts.Config.Provider, opts)
	if err != nil {
		return nil, err
	}
	if opts.Config.BreakerFailures > 0 {
		log := opts.Log.WithComponent("recognition")
		c = WithBreaker(c, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             c.Name(),
			MaxFailures:      opts.Config.BreakerFailures,
			Timeout:          opts.Config.BreakerCooldown,
			HalfOpenMaxCalls: 1,
			IsFailure:        IsOutage,
			OnStateChange: func(name string, from, to resilience.State) {
				log.Warn("recognition circuit state changed", map[string]interface{}{
					"provider": name,
					"from":     from.String(),
					"to":       to.String(),
				})
			},
		}))
	}
	return c, nil
}
