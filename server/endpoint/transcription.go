package endpoint

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/pipeline"
	"github.com/kbukum/voicenote/scheduler"
	"github.com/kbukum/voicenote/server/middleware"
)

// JobIDHeader carries the job ID on transcription responses.
const JobIDHeader = middleware.JobIDHeader

// AudioField is the multipart form field holding the audio file.
const AudioField = "audio"

// Submitter queues audio for transcription. *scheduler.Scheduler implements it.
type Submitter interface {
	Submit(audio []byte, notifier pipeline.Notifier) *scheduler.Pending
}

// TranscribeOptions configures the transcription handler.
type TranscribeOptions struct {
	// Notifier receives the lifecycle hooks of every submitted job.
	Notifier pipeline.Notifier
	// Locale is used for error messages when the request names none.
	Locale string
	Log    *logger.Logger
}

// TranscriptionResponse is the success body of POST /v1/transcriptions.
type TranscriptionResponse struct {
	JobID string `json:"job_id"`
	Text  string `json:"text"`
}

// Transcribe returns a handler that accepts audio as the raw request body or
// as the multipart field "audio", submits it and answers once the job
// finishes. A client that disconnects stops waiting; the job still runs to
// completion so its files and staged object are cleaned up.
func Transcribe(sub Submitter, opts TranscribeOptions) gin.HandlerFunc {
	log := opts.Log
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return func(c *gin.Context) {
		locale := middleware.RequestLocale(c.Request, opts.Locale)

		audio, err := readAudio(c.Request)
		if err != nil {
			respondError(c, locale, err)
			return
		}

		pending := sub.Submit(audio, opts.Notifier)
		c.Header(JobIDHeader, pending.ID())

		text, err := pending.Wait(c.Request.Context())
		if err != nil {
			if c.Request.Context().Err() != nil {
				log.Warn("Client went away before the job finished", map[string]interface{}{
					logger.FieldJobID: pending.ID(),
				})
				c.Abort()
				return
			}
			respondError(c, locale, err)
			return
		}

		c.JSON(http.StatusOK, TranscriptionResponse{JobID: pending.ID(), Text: text})
	}
}

// readAudio extracts the audio bytes from a raw or multipart body.
func readAudio(r *http.Request) ([]byte, error) {
	var (
		audio []byte
		err   error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		audio, err = readMultipart(r)
	} else {
		audio, err = io.ReadAll(r.Body)
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.PayloadTooLarge(maxErr.Limit)
		}
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.InvalidInput(AudioField, "unreadable request body").WithCause(err)
	}
	if len(audio) == 0 {
		return nil, apperrors.InvalidInput(AudioField, "empty audio")
	}
	return audio, nil
}

func readMultipart(r *http.Request) ([]byte, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, apperrors.InvalidInput(AudioField, "missing multipart field \"audio\"")
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != AudioField {
			_ = part.Close()
			continue
		}
		defer part.Close()
		return io.ReadAll(part)
	}
}

func respondError(c *gin.Context, locale string, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToLocalizedResponse(locale))
}
