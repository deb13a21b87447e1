package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/voicenote/component"
	"github.com/kbukum/voicenote/storage"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("testutil: injected failure")

// memFile holds a stored object's data and metadata.
type memFile struct {
	data    []byte
	modTime time.Time
}

// MemStorage is an in-memory storage.Storage with failure injection.
// It starts ready to use; Start and Stop only matter when it is registered
// as a component.
type MemStorage struct {
	mu            sync.Mutex
	files         map[string]*memFile
	uploadFails   int
	uploadErr     error
	deleteErr     error
	uploadCalls   int
	deleteCalls   int
}

var (
	_ storage.Storage     = (*MemStorage)(nil)
	_ TestComponent       = (*MemStorage)(nil)
	_ component.Component = (*MemStorage)(nil)
)

// NewMemStorage creates an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{files: make(map[string]*memFile)}
}

// FailUploads makes the next n Upload calls fail with err (ErrInjected when nil).
func (m *MemStorage) FailUploads(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	m.uploadFails = n
	m.uploadErr = err
}

// FailDeletes makes every Delete call fail with err until cleared with nil.
func (m *MemStorage) FailDeletes(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// UploadCalls returns how many times Upload was called.
func (m *MemStorage) UploadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploadCalls
}

// DeleteCalls returns how many times Delete was called.
func (m *MemStorage) DeleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCalls
}

// Len returns the number of stored objects.
func (m *MemStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Put stores data directly, bypassing failure injection.
func (m *MemStorage) Put(path string, data []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &memFile{data: append([]byte(nil), data...), modTime: modTime}
}

// --- component.Component ---

// Name returns the component name.
func (m *MemStorage) Name() string { return "memory" }

// Start is a no-op; the store is usable right after construction.
func (m *MemStorage) Start(_ context.Context) error { return nil }

// Stop drops every object.
func (m *MemStorage) Stop(ctx context.Context) error { return m.Reset(ctx) }

// Health always reports healthy.
func (m *MemStorage) Health(_ context.Context) component.Health {
	return component.Health{Name: m.Name(), Status: component.StatusHealthy}
}

// --- TestComponent ---

// Reset drops every object and clears injected failures and counters.
func (m *MemStorage) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string]*memFile)
	m.uploadFails, m.uploadErr, m.deleteErr = 0, nil, nil
	m.uploadCalls, m.deleteCalls = 0, 0
	return nil
}

// Snapshot copies the stored objects.
func (m *MemStorage) Snapshot(_ context.Context) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]*memFile, len(m.files))
	for k, v := range m.files {
		cp := *v
		cp.data = append([]byte(nil), v.data...)
		snap[k] = &cp
	}
	return snap, nil
}

// Restore replaces the stored objects with a snapshot.
func (m *MemStorage) Restore(_ context.Context, snap interface{}) error {
	s, ok := snap.(map[string]*memFile)
	if !ok {
		return fmt.Errorf("invalid snapshot type: expected map[string]*memFile, got %T", snap)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string]*memFile, len(s))
	for k, v := range s {
		cp := *v
		cp.data = append([]byte(nil), v.data...)
		m.files[k] = &cp
	}
	return nil
}

// --- storage.Storage ---

// IsAvailable always reports true.
func (m *MemStorage) IsAvailable(_ context.Context) bool { return true }

// Upload stores the reader's content unless a failure is injected.
func (m *MemStorage) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload data: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadCalls++
	if m.uploadFails > 0 {
		m.uploadFails--
		return m.uploadErr
	}
	m.files[path] = &memFile{data: data, modTime: time.Now()}
	return nil
}

// Download returns the stored object.
func (m *MemStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// Delete removes the object unless a failure is injected.
func (m *MemStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, path)
	return nil
}

// Exists reports whether the object is stored.
func (m *MemStorage) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

// URI returns a mem:// address.
func (m *MemStorage) URI(path string) string {
	return "mem://" + path
}

// List returns objects whose path starts with prefix, sorted by path.
func (m *MemStorage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []storage.FileInfo
	for path, f := range m.files {
		if strings.HasPrefix(path, prefix) {
			result = append(result, storage.FileInfo{
				Path:         path,
				Size:         int64(len(f.data)),
				LastModified: f.modTime,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}
