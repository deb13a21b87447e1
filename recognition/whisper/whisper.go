// Package whisper implements recognition.Client on a faster-whisper HTTP
// sidecar. The sidecar has no job API, so async recognition downloads the
// staged object and runs the same request inside Operation.Wait.
package whisper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/httpclient"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/recognition"
	"github.com/kbukum/voicenote/staging"
	"github.com/kbukum/voicenote/storage"
	"github.com/kbukum/voicenote/version"
)

// ProviderName is the registered name for this backend.
const ProviderName = recognition.ProviderWhisper

const defaultModel = "base"

func init() {
	recognition.Providers.RegisterFactory(ProviderName, Factory)
}

// Client talks to the sidecar.
type Client struct {
	http    *httpclient.Client
	staging storage.Storage
	log     *logger.Logger
}

// Factory creates a Client from recognition options.
func Factory(_ context.Context, opts recognition.Options) (recognition.Client, error) {
	if opts.Config.WhisperURL == "" {
		return nil, fmt.Errorf("whisper: whisper_url is required")
	}
	hc, err := httpclient.New(httpclient.Config{
		BaseURL: opts.Config.WhisperURL,
		Timeout: opts.Config.RequestTimeout,
		Token:   opts.Config.WhisperToken,
		Headers: map[string]string{"User-Agent": version.UserAgent("voicenote")},
	})
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	return New(hc, opts.Staging, opts.Log), nil
}

// New creates a Client. staging may be nil when only sync recognition is used.
func New(hc *httpclient.Client, staging storage.Storage, log *logger.Logger) *Client {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Client{
		http:    hc,
		staging: staging,
		log:     log.WithComponent("recognition.whisper"),
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// IsAvailable checks if the sidecar is reachable.
func (c *Client) IsAvailable(ctx context.Context) bool {
	resp, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil && resp.StatusCode == http.StatusOK
}

// RecognizeSync sends the audio to the sidecar.
func (c *Client) RecognizeSync(ctx context.Context, audio []byte, cfg recognition.Config) (*recognition.Response, error) {
	return c.transcribe(ctx, audio, cfg, 0)
}

// RecognizeAsync returns an operation that fetches the staged audio and
// transcribes it when waited on.
func (c *Client) RecognizeAsync(_ context.Context, loc staging.Location, cfg recognition.Config) (recognition.Operation, error) {
	if c.staging == nil {
		err := apperrors.RecognitionFailed(ProviderName, fmt.Errorf("no staging backend to read %s", loc.URI))
		err.Retryable = false
		return nil, err
	}
	return &operation{client: c, loc: loc, cfg: cfg, name: "whisper/" + uuid.NewString()}, nil
}

type operation struct {
	client *Client
	loc    staging.Location
	cfg    recognition.Config
	name   string
}

func (o *operation) Name() string { return o.name }

func (o *operation) Wait(ctx context.Context) (*recognition.Response, error) {
	rc, err := o.client.staging.Download(ctx, o.loc.Name)
	if err != nil {
		return nil, apperrors.RecognitionFailed(ProviderName, fmt.Errorf("fetch %s: %w", o.loc.URI, err))
	}
	defer rc.Close()
	audio, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.RecognitionFailed(ProviderName, fmt.Errorf("read %s: %w", o.loc.URI, err))
	}
	// The Await deadline on ctx bounds the transcription, not the client's
	// per-request timeout.
	return o.client.transcribe(ctx, audio, o.cfg, httpclient.NoTimeout)
}

// transcribe posts audio to the sidecar. A zero timeout keeps the client's
// request timeout.
func (c *Client) transcribe(ctx context.Context, audio []byte, cfg recognition.Config, timeout time.Duration) (*recognition.Response, error) {
	model := cfg.Model
	if model == "" || model == recognition.DefaultModel {
		model = defaultModel
	}
	fields := map[string]string{"model": model}
	if lang := language(cfg.Locale); lang != "" {
		fields["language"] = lang
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/transcribe",
		Timeout: timeout,
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files:  []httpclient.FileField{{FieldName: "audio", FileName: "audio.ogg", ContentType: "audio/ogg", Data: audio}},
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		switch code, _ := httpclient.CodeOf(err); code {
		case httpclient.ErrCodeRateLimit, httpclient.ErrCodeTooLarge:
			return nil, apperrors.ProviderQuota(ProviderName, err)
		default:
			return nil, apperrors.RecognitionFailed(ProviderName, err)
		}
	}

	var result whisperResponse
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, apperrors.RecognitionFailed(ProviderName, err)
	}
	c.log.Debug("whisper transcription received", map[string]interface{}{
		"segments": len(result.Segments),
		"language": result.Language,
	})
	return toResponse(&result), nil
}

// language reduces a BCP-47 tag to the ISO 639-1 code whisper expects.
func language(locale string) string {
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		return strings.ToLower(locale[:i])
	}
	return strings.ToLower(locale)
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// toResponse keeps the sidecar's segments. A reply with text but no
// segments becomes a single segment.
func toResponse(r *whisperResponse) *recognition.Response {
	resp := &recognition.Response{}
	if len(r.Segments) == 0 && strings.TrimSpace(r.Text) != "" {
		resp.Segments = []recognition.Segment{{Alternatives: []recognition.Alternative{{Transcript: r.Text}}}}
		return resp
	}
	for _, seg := range r.Segments {
		resp.Segments = append(resp.Segments, recognition.Segment{
			Alternatives: []recognition.Alternative{{Transcript: seg.Text}},
		})
	}
	return resp
}
