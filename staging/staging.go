// Package staging uploads canonical audio to durable object storage so a
// long-running recognizer can read it, and removes it when the job ends.
package staging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/resilience"
	"github.com/kbukum/voicenote/storage"
)

const (
	namePrefix = "audio_"
	nameSuffix = ".ogg"
)

// Location identifies one staged object.
type Location struct {
	// Backend is the storage provider holding the object (gcs, s3, local).
	Backend string
	// Name is the object key inside the bucket.
	Name string
	// URI is the backend-native address, e.g. gs://bucket/audio_1700000000000_<uuid>.ogg.
	URI string
}

// IsZero reports whether loc refers to nothing.
func (l Location) IsZero() bool { return l.Name == "" }

// Store stages audio through a storage backend.
type Store struct {
	backend storage.Storage
	cfg     Config
	log     *logger.Logger
	now     func() time.Time
	token   func() string
}

// New creates a Store on top of backend.
func New(backend storage.Storage, cfg Config, log *logger.Logger) *Store {
	cfg.ApplyDefaults()
	return &Store{
		backend: backend,
		cfg:     cfg,
		log:     log.WithComponent("staging"),
		now:     time.Now,
		token:   func() string { return uuid.NewString() },
	}
}

// Backend returns the underlying storage.
func (s *Store) Backend() storage.Storage { return s.backend }

// ObjectName returns a name unique across concurrent jobs:
// audio_<unix-millis>_<uuid>.ogg under the configured prefix.
func (s *Store) ObjectName() string {
	return fmt.Sprintf("%s%s%d_%s%s", s.cfg.Prefix, namePrefix, s.now().UnixMilli(), s.token(), nameSuffix)
}

// Upload stages the file at artifactPath. It makes up to UploadRetryCount
// attempts with a fixed delay; exhaustion yields a STAGING_FAILED error.
func (s *Store) Upload(ctx context.Context, artifactPath string) (Location, error) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return Location{}, apperrors.ResourceError("read", err)
	}

	name := s.ObjectName()
	retryCfg := resilience.FixedRetryConfig(s.cfg.UploadRetryCount, s.cfg.UploadRetryDelay)
	retryCfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		s.log.Warn("staging upload failed, retrying", map[string]interface{}{
			logger.FieldAttempt:  attempt,
			logger.FieldLocation: name,
			logger.FieldError:    err.Error(),
			"backoff":            backoff.String(),
		})
	}

	attempts := 0
	err = resilience.RetryFunc(ctx, retryCfg, func(attempt int) error {
		attempts = attempt
		return s.backend.Upload(ctx, name, bytes.NewReader(data))
	})
	if err != nil {
		var exhausted *resilience.ExhaustedError
		if errors.As(err, &exhausted) {
			err = exhausted.Last
		}
		s.log.Error("staging upload exhausted", map[string]interface{}{
			logger.FieldAttempt:  attempts,
			logger.FieldLocation: name,
			logger.FieldError:    err.Error(),
		})
		return Location{}, apperrors.StagingFailed(attempts, err)
	}

	loc := Location{Backend: s.backend.Name(), Name: name, URI: s.backend.URI(name)}
	s.log.Info("audio staged", map[string]interface{}{
		logger.FieldLocation:  loc.URI,
		logger.FieldSizeBytes: len(data),
		logger.FieldAttempt:   attempts,
	})
	return loc, nil
}

// Delete removes a staged object. It is best effort: failures are logged
// and never returned. It runs even when ctx is already canceled.
func (s *Store) Delete(ctx context.Context, loc Location) {
	if loc.IsZero() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DeleteTimeout)
	defer cancel()

	if err := s.backend.Delete(ctx, loc.Name); err != nil {
		s.log.Warn("staged object delete failed", map[string]interface{}{
			logger.FieldLocation: loc.URI,
			logger.FieldError:    err.Error(),
		})
		return
	}
	s.log.Debug("staged object deleted", map[string]interface{}{logger.FieldLocation: loc.URI})
}

// SweepOrphans deletes staged objects older than OrphanAge, left behind by
// a process that died between upload and cleanup. It returns how many were removed.
func (s *Store) SweepOrphans(ctx context.Context) (int, error) {
	files, err := s.backend.List(ctx, s.cfg.Prefix+namePrefix)
	if err != nil {
		return 0, fmt.Errorf("staging: list orphans: %w", err)
	}
	cutoff := s.now().Add(-s.cfg.OrphanAge)
	removed := 0
	var errs []error
	for _, f := range files {
		if !strings.HasSuffix(f.Path, nameSuffix) || f.LastModified.After(cutoff) {
			continue
		}
		if err := s.backend.Delete(ctx, f.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("staging orphans removed", map[string]interface{}{"count": removed})
	}
	return removed, errors.Join(errs...)
}
