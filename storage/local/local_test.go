package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/voicenote/storage"
)

func newStore(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestUploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if err := s.Upload(ctx, "voicenote/abc.ogg", strings.NewReader("audio")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	ok, err := s.Exists(ctx, "voicenote/abc.ogg")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	rc, err := s.Download(ctx, "voicenote/abc.ogg")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "audio" {
		t.Fatalf("expected audio, got %q", data)
	}

	if err := s.Delete(ctx, "voicenote/abc.ogg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "voicenote/abc.ogg"); err != nil {
		t.Fatalf("Delete of a missing object should succeed: %v", err)
	}
	if _, err := s.Download(ctx, "voicenote/abc.ogg"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, p := range []string{"voicenote/b.ogg", "voicenote/a.ogg", "other/c.ogg"} {
		if err := s.Upload(ctx, p, strings.NewReader("x")); err != nil {
			t.Fatal(err)
		}
	}

	files, err := s.List(ctx, "voicenote/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 || files[0].Path != "voicenote/a.ogg" || files[1].Path != "voicenote/b.ogg" {
		t.Fatalf("unexpected listing %+v", files)
	}
	if files[0].Size != 1 || files[0].LastModified.IsZero() {
		t.Errorf("expected size and mtime, got %+v", files[0])
	}
}

func TestPathEscapeIsContained(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if err := s.Upload(ctx, "../../escape.ogg", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	files, _ := s.List(ctx, "")
	if len(files) != 1 || files[0].Path != "escape.ogg" {
		t.Fatalf("expected the object to stay under the base path, got %+v", files)
	}
}

func TestURIAndAvailability(t *testing.T) {
	s := newStore(t)
	if uri := s.URI("voicenote/a.ogg"); !strings.HasPrefix(uri, "file://") || !strings.HasSuffix(uri, "/voicenote/a.ogg") {
		t.Errorf("unexpected URI %q", uri)
	}
	if !s.IsAvailable(context.Background()) {
		t.Error("expected base directory to be available")
	}
	if _, err := NewStorage(""); err == nil {
		t.Error("expected error for empty base path")
	}
}

func TestRegisteredFactory(t *testing.T) {
	cfg := storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}
	s, err := storage.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if s.Name() != storage.ProviderLocal {
		t.Fatalf("expected local backend, got %s", s.Name())
	}
}
