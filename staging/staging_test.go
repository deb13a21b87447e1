package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/testutil"
)

func writeArtifact(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canonical.ogg")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func newStore(backend *testutil.MemStorage, retries int) *Store {
	return New(backend, Config{
		UploadRetryCount: retries,
		UploadRetryDelay: time.Millisecond,
	}, logger.NewNop())
}

func TestUploadSucceedsAfterTwoFailures(t *testing.T) {
	backend := testutil.NewMemStorage()
	backend.FailUploads(2, nil)
	store := newStore(backend, 3)

	loc, err := store.Upload(context.Background(), writeArtifact(t, []byte("opus")))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got := backend.UploadCalls(); got != 3 {
		t.Errorf("upload calls = %d, want 3", got)
	}
	if ok, _ := backend.Exists(context.Background(), loc.Name); !ok {
		t.Errorf("object %q not stored", loc.Name)
	}
	if loc.URI != "mem://"+loc.Name || loc.Backend != "memory" {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestUploadExhausted(t *testing.T) {
	backend := testutil.NewMemStorage()
	backend.FailUploads(3, nil)
	store := newStore(backend, 3)

	loc, err := store.Upload(context.Background(), writeArtifact(t, []byte("opus")))
	if !apperrors.Is(err, apperrors.ErrCodeStagingFailed) {
		t.Fatalf("Upload() error = %v, want STAGING_FAILED", err)
	}
	if !errors.Is(err, testutil.ErrInjected) {
		t.Errorf("expected cause to be the last upload error, got %v", err)
	}
	if !loc.IsZero() {
		t.Errorf("expected zero location, got %+v", loc)
	}
	if got := backend.UploadCalls(); got != 3 {
		t.Errorf("upload calls = %d, want 3", got)
	}
	if backend.Len() != 0 {
		t.Errorf("expected nothing stored, got %d objects", backend.Len())
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["attempts"] != 3 {
		t.Errorf("attempts detail = %v, want 3", appErr.Details["attempts"])
	}
}

func TestUploadWaitsFixedDelay(t *testing.T) {
	backend := testutil.NewMemStorage()
	backend.FailUploads(2, nil)
	store := New(backend, Config{UploadRetryCount: 3, UploadRetryDelay: 20 * time.Millisecond}, logger.NewNop())

	start := time.Now()
	if _, err := store.Upload(context.Background(), writeArtifact(t, []byte("opus"))); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("elapsed %v, want at least two 20ms delays", elapsed)
	}
}

func TestUploadMissingArtifact(t *testing.T) {
	store := newStore(testutil.NewMemStorage(), 3)
	_, err := store.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.ogg"))
	if !apperrors.Is(err, apperrors.ErrCodeResourceError) {
		t.Fatalf("Upload() error = %v, want RESOURCE_ERROR", err)
	}
}

func TestObjectNameFormat(t *testing.T) {
	store := newStore(testutil.NewMemStorage(), 3)
	store.now = func() time.Time { return time.UnixMilli(1700000000123) }
	name := store.ObjectName()
	re := regexp.MustCompile(`^audio_1700000000123_[0-9a-f-]{36}\.ogg$`)
	if !re.MatchString(name) {
		t.Errorf("ObjectName() = %q", name)
	}
}

func TestObjectNamesUniqueAcrossJobs(t *testing.T) {
	store := newStore(testutil.NewMemStorage(), 3)
	store.now = func() time.Time { return time.UnixMilli(42) }

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := store.ObjectName()
			mu.Lock()
			defer mu.Unlock()
			if seen[name] {
				t.Errorf("duplicate name %q", name)
			}
			seen[name] = true
		}()
	}
	wg.Wait()
}

func TestDeleteIsBestEffort(t *testing.T) {
	backend := testutil.NewMemStorage()
	store := newStore(backend, 1)
	loc, err := store.Upload(context.Background(), writeArtifact(t, []byte("opus")))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	backend.FailDeletes(errors.New("permission denied"))
	store.Delete(context.Background(), loc)
	if backend.Len() != 1 {
		t.Fatalf("expected object to survive a failed delete")
	}

	backend.FailDeletes(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store.Delete(ctx, loc)
	if backend.Len() != 0 {
		t.Error("expected delete to run even with a canceled context")
	}
}

func TestDeleteZeroLocation(t *testing.T) {
	backend := testutil.NewMemStorage()
	newStore(backend, 1).Delete(context.Background(), Location{})
	if backend.DeleteCalls() != 0 {
		t.Error("expected no delete for zero location")
	}
}

func TestSweepOrphans(t *testing.T) {
	backend := testutil.NewMemStorage()
	now := time.Now()
	backend.Put("voicenote/audio_1_old.ogg", []byte("x"), now.Add(-48*time.Hour))
	backend.Put("voicenote/audio_2_new.ogg", []byte("x"), now)
	backend.Put("voicenote/other.txt", []byte("x"), now.Add(-48*time.Hour))

	store := New(backend, Config{Prefix: "voicenote/"}, logger.NewNop())
	removed, err := store.SweepOrphans(context.Background())
	if err != nil {
		t.Fatalf("SweepOrphans() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if ok, _ := backend.Exists(context.Background(), "voicenote/audio_2_new.ogg"); !ok {
		t.Error("recent object must survive the sweep")
	}
	if ok, _ := backend.Exists(context.Background(), "voicenote/other.txt"); !ok {
		t.Error("foreign object must survive the sweep")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.UploadRetryCount != 3 || cfg.UploadRetryDelay != 2*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
