package recognition

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/resilience"
	"github.com/kbukum/voicenote/staging"
)

// guarded fails fast while the provider keeps failing.
type guarded struct {
	Client
	cb *resilience.CircuitBreaker
}

// WithBreaker wraps c so calls are rejected while cb is open. Build cb with
// IsOutage as its IsFailure so quota and empty results do not trip it.
func WithBreaker(c Client, cb *resilience.CircuitBreaker) Client {
	return &guarded{Client: c, cb: cb}
}

// IsOutage reports whether err is a generic provider failure.
func IsOutage(err error) bool {
	return apperrors.Is(err, apperrors.ErrCodeRecognitionFailed)
}

func (g *guarded) RecognizeSync(ctx context.Context, audio []byte, cfg Config) (*Response, error) {
	var resp *Response
	err := g.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		resp, err = g.Client.RecognizeSync(ctx, audio, cfg)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, apperrors.RecognitionFailed(g.Name(), err)
	}
	return resp, err
}

func (g *guarded) RecognizeAsync(ctx context.Context, loc staging.Location, cfg Config) (Operation, error) {
	var op Operation
	err := g.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		op, err = g.Client.RecognizeAsync(ctx, loc, cfg)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, apperrors.RecognitionFailed(g.Name(), err)
	}
	return op, err
}
