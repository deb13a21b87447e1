package testutil

import (
	"context"
	"sync"
)

// Hook names recorded by RecordingNotifier.
const (
	HookStart    = "start"
	HookConvert  = "convert"
	HookUpload   = "upload"
	HookProcess  = "process"
	HookComplete = "complete"
	HookResult   = "result"
)

// RecordingNotifier records every progress hook it receives, in order.
// It satisfies pipeline.Notifier and pipeline.ResultObserver.
type RecordingNotifier struct {
	mu     sync.Mutex
	hooks  []string
	jobIDs map[string]struct{}
	result error
	done   chan struct{}
	once   sync.Once
}

// NewRecordingNotifier creates an empty recorder.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{jobIDs: make(map[string]struct{}), done: make(chan struct{})}
}

func (n *RecordingNotifier) record(jobID, hook string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, hook)
	n.jobIDs[jobID] = struct{}{}
}

func (n *RecordingNotifier) OnStart(_ context.Context, jobID string)    { n.record(jobID, HookStart) }
func (n *RecordingNotifier) OnConvert(_ context.Context, jobID string)  { n.record(jobID, HookConvert) }
func (n *RecordingNotifier) OnUpload(_ context.Context, jobID string)   { n.record(jobID, HookUpload) }
func (n *RecordingNotifier) OnProcess(_ context.Context, jobID string)  { n.record(jobID, HookProcess) }
func (n *RecordingNotifier) OnComplete(_ context.Context, jobID string) { n.record(jobID, HookComplete) }

// OnResult records the terminal outcome and releases Done.
func (n *RecordingNotifier) OnResult(_ context.Context, jobID string, err error) {
	n.mu.Lock()
	n.hooks = append(n.hooks, HookResult)
	n.jobIDs[jobID] = struct{}{}
	n.result = err
	n.mu.Unlock()
	n.once.Do(func() { close(n.done) })
}

// Hooks returns the recorded hook names.
func (n *RecordingNotifier) Hooks() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.hooks...)
}

// JobIDs returns how many distinct job IDs were seen.
func (n *RecordingNotifier) JobIDs() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.jobIDs)
}

// Result returns the error passed to OnResult.
func (n *RecordingNotifier) Result() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.result
}

// Done is closed after OnResult.
func (n *RecordingNotifier) Done() <-chan struct{} { return n.done }
