// Package google implements recognition.Client on Cloud Speech-to-Text v1.
//
// Sync recognition sends the audio inline. Async recognition needs the
// audio staged on Cloud Storage and passes its gs:// URI.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/recognition"
	"github.com/kbukum/voicenote/staging"
)

// ProviderName is the registered name for this backend.
const ProviderName = recognition.ProviderGoogle

func init() {
	recognition.Providers.RegisterFactory(ProviderName, Factory)
}

// api is the slice of the Speech client this backend uses.
type api interface {
	recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	longRunning(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (longRunningOp, error)
	close() error
}

type longRunningOp interface {
	Name() string
	Poll(ctx context.Context) (*speechpb.LongRunningRecognizeResponse, error)
	Done() bool
}

// Client is the Cloud Speech backend.
type Client struct {
	api api
	log *logger.Logger
}

// Factory creates a Client from recognition options.
func Factory(ctx context.Context, opts recognition.Options) (recognition.Client, error) {
	var clientOpts []option.ClientOption
	if opts.Config.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.Config.CredentialsFile))
	}
	if opts.Config.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Config.Endpoint))
	}
	sc, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("google speech: create client: %w", err)
	}
	return newClient(&sdk{c: sc}, opts.Log), nil
}

func newClient(a api, log *logger.Logger) *Client {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Client{api: a, log: log.WithComponent("recognition.google")}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// IsAvailable reports whether the client was created. The Speech API has
// no cheap probe.
func (c *Client) IsAvailable(context.Context) bool { return c.api != nil }

// Close releases the gRPC connection.
func (c *Client) Close(context.Context) error { return c.api.close() }

// RecognizeSync recognizes inline audio. The call is bounded by
// cfg.RequestTimeout.
func (c *Client) RecognizeSync(ctx context.Context, audio []byte, cfg recognition.Config) (*recognition.Response, error) {
	rc, err := recognitionConfig(cfg)
	if err != nil {
		return nil, err
	}
	reqCtx := ctx
	if cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
	}
	resp, err := c.api.recognize(reqCtx, &speechpb.RecognizeRequest{
		Config: rc,
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	})
	if err != nil {
		if ctx.Err() == nil && reqCtx.Err() != nil {
			return nil, apperrors.RecognitionFailed(ProviderName,
				fmt.Errorf("recognize exceeded request timeout %s: %w", cfg.RequestTimeout, err)).
				WithDetail("request_timeout", cfg.RequestTimeout.String())
		}
		return nil, classify(ctx, err)
	}
	return toResponse(resp.GetResults()), nil
}

// RecognizeAsync starts a long-running recognition of audio staged on GCS.
func (c *Client) RecognizeAsync(ctx context.Context, loc staging.Location, cfg recognition.Config) (recognition.Operation, error) {
	if !strings.HasPrefix(loc.URI, "gs://") {
		err := apperrors.RecognitionFailed(ProviderName,
			fmt.Errorf("long-running recognition needs a gs:// location, got %q", loc.URI))
		err.Retryable = false
		return nil, err
	}
	rc, err := recognitionConfig(cfg)
	if err != nil {
		return nil, err
	}
	op, err := c.api.longRunning(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: rc,
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Uri{Uri: loc.URI}},
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	c.log.Debug("long-running recognition started", map[string]interface{}{
		logger.FieldOperation: op.Name(),
		logger.FieldLocation:  loc.URI,
	})
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = recognition.DefaultPollInterval
	}
	return &operation{op: op, interval: interval}, nil
}

type operation struct {
	op       longRunningOp
	interval time.Duration
}

func (o *operation) Name() string { return o.op.Name() }

// Wait polls the operation every interval until it completes or ctx ends.
func (o *operation) Wait(ctx context.Context) (*recognition.Response, error) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		resp, err := o.op.Poll(ctx)
		if err != nil {
			return nil, classify(ctx, err)
		}
		if o.op.Done() {
			return toResponse(resp.GetResults()), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func recognitionConfig(cfg recognition.Config) (*speechpb.RecognitionConfig, error) {
	enc, ok := speechpb.RecognitionConfig_AudioEncoding_value[strings.ToUpper(cfg.Encoding)]
	if !ok {
		err := apperrors.RecognitionFailed(ProviderName, fmt.Errorf("unknown encoding %q", cfg.Encoding))
		err.Retryable = false
		return nil, err
	}
	return &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_AudioEncoding(enc),
		SampleRateHertz:            int32(cfg.SampleRate),
		AudioChannelCount:          int32(cfg.Channels),
		LanguageCode:               cfg.Locale,
		Model:                      cfg.Model,
		EnableAutomaticPunctuation: cfg.PunctuationEnabled(),
		UseEnhanced:                cfg.EnhancedEnabled(),
		EnableWordConfidence:       cfg.WordConfidence,
	}, nil
}

func toResponse(results []*speechpb.SpeechRecognitionResult) *recognition.Response {
	resp := &recognition.Response{Segments: make([]recognition.Segment, 0, len(results))}
	for _, r := range results {
		seg := recognition.Segment{Alternatives: make([]recognition.Alternative, 0, len(r.GetAlternatives()))}
		for _, alt := range r.GetAlternatives() {
			seg.Alternatives = append(seg.Alternatives, recognition.Alternative{
				Transcript: alt.GetTranscript(),
				Confidence: alt.GetConfidence(),
			})
		}
		resp.Segments = append(resp.Segments, seg)
	}
	return resp
}

// classify maps a Speech API error onto the pipeline taxonomy. Quota and
// audio length limits come back as RESOURCE_EXHAUSTED or OUT_OF_RANGE.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.RecognitionFailed(ProviderName, err)
	}
	st, ok := status.FromError(err)
	if !ok {
		return apperrors.RecognitionFailed(ProviderName, err)
	}
	switch st.Code() {
	case codes.ResourceExhausted, codes.OutOfRange:
		return apperrors.ProviderQuota(ProviderName, err).WithDetail("grpc_code", st.Code().String())
	case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated, codes.NotFound:
		appErr := apperrors.RecognitionFailed(ProviderName, err).WithDetail("grpc_code", st.Code().String())
		appErr.Retryable = false
		return appErr
	default:
		return apperrors.RecognitionFailed(ProviderName, err).WithDetail("grpc_code", st.Code().String())
	}
}

// sdk adapts the generated client to api.
type sdk struct {
	c *speech.Client
}

func (s *sdk) recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return s.c.Recognize(ctx, req)
}

func (s *sdk) longRunning(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (longRunningOp, error) {
	op, err := s.c.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, err
	}
	return sdkOp{op: op}, nil
}

func (s *sdk) close() error { return s.c.Close() }

type sdkOp struct {
	op *speech.LongRunningRecognizeOperation
}

func (o sdkOp) Name() string { return o.op.Name() }

func (o sdkOp) Poll(ctx context.Context) (*speechpb.LongRunningRecognizeResponse, error) {
	return o.op.Poll(ctx)
}

func (o sdkOp) Done() bool { return o.op.Done() }
