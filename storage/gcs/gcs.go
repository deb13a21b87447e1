// Package gcs implements storage.Storage on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kbukum/voicenote/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderGCS, func(ctx context.Context, cfg storage.Config) (storage.Storage, error) {
		return NewStorage(ctx, cfg)
	})
}

// Storage implements storage.Storage using a single GCS bucket.
type Storage struct {
	client *gcstorage.Client
	bucket string
}

// NewStorage creates a GCS client for cfg.Bucket.
func NewStorage(ctx context.Context, cfg storage.Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	return &Storage{client: client, bucket: cfg.Bucket}, nil
}

// Name returns the backend name.
func (s *Storage) Name() string { return storage.ProviderGCS }

// IsAvailable reports whether the bucket attributes can be read.
func (s *Storage) IsAvailable(ctx context.Context) bool {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	return err == nil
}

// Close releases the underlying client.
func (s *Storage) Close(_ context.Context) error {
	return s.client.Close()
}

// Upload streams reader into the object at path.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = "audio/ogg"
	if _, err := io.Copy(w, reader); err != nil {
		w.Close() //nolint:errcheck // copy error takes precedence
		return fmt.Errorf("storage: gcs upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: gcs upload: %w", err)
	}
	return nil
}

// Download returns a reader for the object at path.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: gcs download: %w", err)
	}
	return r, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *Storage) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("storage: gcs delete: %w", err)
	}
	return nil
}

// Exists checks whether the object exists.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: gcs attrs: %w", err)
	}
	return true, nil
}

// URI returns the gs:// address Cloud Speech expects for long-running recognition.
func (s *Storage) URI(path string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, path)
}

// List returns metadata for all objects whose name starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcstorage.Query{Prefix: prefix})
	var files []storage.FileInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storage: gcs list: %w", err)
		}
		files = append(files, storage.FileInfo{
			Path:         attrs.Name,
			Size:         attrs.Size,
			LastModified: attrs.Updated,
			ContentType:  attrs.ContentType,
		})
	}
	return files, nil
}

// compile-time check
var _ storage.Storage = (*Storage)(nil)
