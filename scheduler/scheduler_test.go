package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/pipeline"
	"github.com/kbukum/voicenote/recognition"
	rectest "github.com/kbukum/voicenote/recognition/testutil"
	"github.com/kbukum/voicenote/staging"
	"github.com/kbukum/voicenote/testutil"
	"github.com/kbukum/voicenote/transcoder"
)

// gatedExecutor blocks every job until released and tracks concurrency.
type gatedExecutor struct {
	mu      sync.Mutex
	started []string
	release map[string]chan error
	running atomic.Int32
	peak    atomic.Int32
	ready   chan string
}

func newGatedExecutor() *gatedExecutor {
	return &gatedExecutor{release: make(map[string]chan error), ready: make(chan string, 100)}
}

func (g *gatedExecutor) gate(jobID string) chan error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.release[jobID]
	if !ok {
		ch = make(chan error, 1)
		g.release[jobID] = ch
	}
	return ch
}

func (g *gatedExecutor) Run(ctx context.Context, jobID string, audio []byte, _ pipeline.Notifier) (string, error) {
	n := g.running.Add(1)
	defer g.running.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	g.mu.Lock()
	g.started = append(g.started, string(audio))
	g.mu.Unlock()
	g.ready <- jobID

	select {
	case err := <-g.gate(jobID):
		if err != nil {
			return "", err
		}
		return "text:" + string(audio), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedExecutor) finish(jobID string, err error) { g.gate(jobID) <- err }

func (g *gatedExecutor) startOrder() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.started...)
}

func (g *gatedExecutor) nextStarted(t *testing.T) string {
	t.Helper()
	select {
	case id := <-g.ready:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a job to start")
		return ""
	}
}

func sequentialIDs() func() string {
	var n atomic.Int32
	return func() string { return fmt.Sprintf("job-%d", n.Add(1)) }
}

func newTestScheduler(maxConcurrency int, exec Executor) *Scheduler {
	s := New(Config{MaxConcurrency: maxConcurrency}, exec, WithLogger(logger.NewNop()))
	s.newID = sequentialIDs()
	return s
}

func TestSubmit_ConcurrencyCeilingAndFIFO(t *testing.T) {
	exec := newGatedExecutor()
	s := newTestScheduler(3, exec)

	const total = 10
	pendings := make([]*Pending, total)
	for i := 0; i < total; i++ {
		pendings[i] = s.Submit([]byte(fmt.Sprintf("%02d", i)), nil)
	}

	for i := 0; i < 3; i++ {
		exec.nextStarted(t)
	}
	if got := s.Executing(); got != 3 {
		t.Fatalf("executing = %d, want 3", got)
	}
	if got := s.Queued(); got != total-3 {
		t.Fatalf("queued = %d, want %d", got, total-3)
	}
	if pendings[9].State() != StateQueued {
		t.Errorf("job 9 state = %s", pendings[9].State())
	}

	// Finish in submission order; every other job fails.
	for i := 0; i < total; i++ {
		var err error
		if i%2 == 1 {
			err = apperrors.ConversionFailed("bad input", nil)
		}
		exec.finish(pendings[i].ID(), err)
		if i+3 < total {
			exec.nextStarted(t)
		}
	}

	for i, p := range pendings {
		text, err := p.Wait(context.Background())
		if i%2 == 1 {
			if !apperrors.Is(err, apperrors.ErrCodeConversionFailed) || p.State() != StateFailed {
				t.Errorf("job %d: got %q, %v (%s)", i, text, err, p.State())
			}
			continue
		}
		if err != nil || text != fmt.Sprintf("text:%02d", i) || p.State() != StateSucceeded {
			t.Errorf("job %d: got %q, %v (%s)", i, text, err, p.State())
		}
	}

	if peak := exec.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
	order := exec.startOrder()
	for i, got := range order {
		if want := fmt.Sprintf("%02d", i); got != want {
			t.Fatalf("admission order = %v", order)
		}
	}
	testutil.Eventually(t, time.Second, func() bool { return s.Executing() == 0 }, "slots released")
}

func TestSubmit_OutOfOrderCompletion(t *testing.T) {
	exec := newGatedExecutor()
	s := newTestScheduler(3, exec)

	pendings := make([]*Pending, 5)
	for i := range pendings {
		pendings[i] = s.Submit([]byte(fmt.Sprintf("%02d", i)), nil)
	}
	for i := 0; i < 3; i++ {
		exec.nextStarted(t)
	}

	// Job 2 finishes while 0 and 1 are still running.
	exec.finish(pendings[2].ID(), nil)
	text, err := pendings[2].Wait(context.Background())
	if err != nil || text != "text:02" {
		t.Fatalf("job 2: got %q, %v", text, err)
	}
	if got := exec.nextStarted(t); got != pendings[3].ID() {
		t.Fatalf("freed slot went to %s, want %s", got, pendings[3].ID())
	}
	if pendings[0].State() != StateRunning {
		t.Errorf("job 0 state = %s, want running", pendings[0].State())
	}

	exec.finish(pendings[3].ID(), nil)
	exec.nextStarted(t)
	exec.finish(pendings[1].ID(), apperrors.ConversionFailed("bad input", nil))
	exec.finish(pendings[4].ID(), nil)
	exec.finish(pendings[0].ID(), nil)

	for _, i := range []int{0, 3, 4} {
		text, err := pendings[i].Wait(context.Background())
		if err != nil || text != fmt.Sprintf("text:%02d", i) {
			t.Errorf("job %d: got %q, %v", i, text, err)
		}
	}
	if _, err := pendings[1].Wait(context.Background()); !apperrors.Is(err, apperrors.ErrCodeConversionFailed) {
		t.Errorf("job 1: expected CONVERSION_FAILED, got %v", err)
	}
}

func TestSubmit_NoStarvationWhenSlotsFree(t *testing.T) {
	exec := newGatedExecutor()
	s := newTestScheduler(1, exec)

	first := s.Submit([]byte("a"), nil)
	exec.nextStarted(t)
	second := s.Submit([]byte("b"), nil)
	exec.finish(first.ID(), nil)
	exec.nextStarted(t)
	exec.finish(second.ID(), nil)

	if _, err := second.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type panicExecutor struct{ calls atomic.Int32 }

func (p *panicExecutor) Run(_ context.Context, _ string, audio []byte, _ pipeline.Notifier) (string, error) {
	p.calls.Add(1)
	if string(audio) == "panic" {
		panic("kaboom")
	}
	return "ok", nil
}

func TestSubmit_PanicReleasesSlot(t *testing.T) {
	exec := &panicExecutor{}
	s := newTestScheduler(1, exec)

	bad := s.Submit([]byte("panic"), nil)
	good := s.Submit([]byte("fine"), nil)

	if _, err := bad.Wait(context.Background()); !apperrors.Is(err, apperrors.ErrCodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if text, err := good.Wait(ctx); err != nil || text != "ok" {
		t.Errorf("second job: %q, %v", text, err)
	}
}

func TestPending_WaitContextDoesNotCancelJob(t *testing.T) {
	exec := newGatedExecutor()
	s := newTestScheduler(1, exec)
	p := s.Submit([]byte("slow"), nil)
	exec.nextStarted(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	exec.finish(p.ID(), nil)
	if text, err := p.Wait(context.Background()); err != nil || text != "text:slow" {
		t.Errorf("Wait = %q, %v", text, err)
	}
	// A second Wait sees the same result.
	if text, _ := p.Wait(context.Background()); text != "text:slow" {
		t.Errorf("second Wait = %q", text)
	}
}

func TestStop_ResolvesQueuedAndWaitsForRunning(t *testing.T) {
	exec := newGatedExecutor()
	s := newTestScheduler(1, exec)

	running := s.Submit([]byte("run"), nil)
	exec.nextStarted(t)
	queued := s.Submit([]byte("wait"), nil)

	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop(context.Background()) }()

	if _, err := queued.Wait(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("queued job: expected ErrStopped, got %v", err)
	}
	select {
	case <-stopped:
		t.Fatal("Stop returned before the running job finished")
	case <-time.After(20 * time.Millisecond):
	}

	exec.finish(running.ID(), nil)
	if err := <-stopped; err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := running.Wait(context.Background()); err != nil {
		t.Errorf("running job should finish normally: %v", err)
	}

	late := s.Submit([]byte("late"), nil)
	if _, err := late.Wait(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("submit after stop: expected ErrStopped, got %v", err)
	}
	if len(exec.startOrder()) != 1 {
		t.Errorf("only the running job should have executed, got %v", exec.startOrder())
	}
}

func TestStop_DeadlineCancelsRunning(t *testing.T) {
	exec := newGatedExecutor()
	s := newTestScheduler(1, exec)
	p := s.Submit([]byte("stuck"), nil)
	exec.nextStarted(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if _, err := p.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected running job to see cancellation, got %v", err)
	}
}

func TestHealthAndDescribe(t *testing.T) {
	s := newTestScheduler(2, &panicExecutor{})
	if h := s.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("health = %+v", h)
	}
	if d := s.Describe(); d.Details != "max_concurrency=2" {
		t.Errorf("describe = %+v", d)
	}
	_ = s.Stop(context.Background())
	if h := s.Health(context.Background()); h.Status != "unhealthy" {
		t.Errorf("health after stop = %+v", h)
	}
}

// TestEndToEnd runs more jobs than slots through the real pipeline with
// a mix of sync, async and failing inputs and checks nothing is left behind.
func TestEndToEnd(t *testing.T) {
	tempDir := t.TempDir()
	log := logger.NewNop()
	ffmpeg := &testutil.FFmpegRunner{Output: bytes.Repeat([]byte{'x'}, 100), Delay: 5 * time.Millisecond}
	store := testutil.NewMemStorage()
	store.FailUploads(1, nil)
	recognizer := &rectest.ScriptedRecognizer{Segments: []string{"ola", "", "mundo"}}

	runner := pipeline.NewRunner(
		pipeline.Config{SyncThresholdBytes: 50, RecognitionTimeout: time.Second},
		transcoder.New(transcoder.Config{TempDir: tempDir}, ffmpeg, log),
		staging.New(store, staging.Config{UploadRetryDelay: time.Millisecond}, log),
		recognizer,
		recognition.Config{},
		pipeline.WithLogger(log),
	)
	s := New(Config{MaxConcurrency: 2}, runner, WithLogger(log))

	const total = 7
	pendings := make([]*Pending, total)
	notifiers := make([]*testutil.RecordingNotifier, total)
	for i := range pendings {
		notifiers[i] = testutil.NewRecordingNotifier()
		pendings[i] = s.Submit([]byte("voice"), notifiers[i])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i, p := range pendings {
		text, err := p.Wait(ctx)
		if err != nil || text != "ola\nmundo" {
			t.Errorf("job %d: %q, %v", i, text, err)
		}
		if notifiers[i].JobIDs() != 1 {
			t.Errorf("job %d: notifier saw %d job ids", i, notifiers[i].JobIDs())
		}
	}

	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Errorf("temp files left: %d", len(entries))
	}
	if store.Len() != 0 {
		t.Errorf("staged objects left: %d", store.Len())
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
