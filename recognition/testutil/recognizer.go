// Package testutil provides a scripted recognition.Client for tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/voicenote/recognition"
	"github.com/kbukum/voicenote/staging"
)

// Call records one request made to a ScriptedRecognizer.
type Call struct {
	Async    bool
	Size     int
	Location staging.Location
}

// ScriptedRecognizer returns canned results. Async operations complete
// after WaitDelay, or never when Hang is set.
type ScriptedRecognizer struct {
	// Segments is the transcript returned, one entry per segment.
	Segments []string
	// SyncErr fails RecognizeSync.
	SyncErr error
	// StartErr fails RecognizeAsync.
	StartErr error
	// WaitErr fails the async operation.
	WaitErr error
	// WaitDelay delays the async result.
	WaitDelay time.Duration
	// Hang makes the async operation block until its context ends.
	Hang bool

	mu    sync.Mutex
	calls []Call
}

var _ recognition.Client = (*ScriptedRecognizer)(nil)

// Name returns "scripted".
func (s *ScriptedRecognizer) Name() string { return "scripted" }

// IsAvailable always reports true.
func (s *ScriptedRecognizer) IsAvailable(context.Context) bool { return true }

// RecognizeSync returns the scripted response.
func (s *ScriptedRecognizer) RecognizeSync(_ context.Context, audio []byte, _ recognition.Config) (*recognition.Response, error) {
	s.record(Call{Size: len(audio)})
	if s.SyncErr != nil {
		return nil, s.SyncErr
	}
	return s.response(), nil
}

// RecognizeAsync returns a scripted operation.
func (s *ScriptedRecognizer) RecognizeAsync(_ context.Context, loc staging.Location, _ recognition.Config) (recognition.Operation, error) {
	s.record(Call{Async: true, Location: loc})
	if s.StartErr != nil {
		return nil, s.StartErr
	}
	return &scriptedOp{s: s}, nil
}

// Calls returns the recorded requests.
func (s *ScriptedRecognizer) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *ScriptedRecognizer) record(c Call) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

func (s *ScriptedRecognizer) response() *recognition.Response {
	resp := &recognition.Response{}
	for _, text := range s.Segments {
		resp.Segments = append(resp.Segments, recognition.Segment{
			Alternatives: []recognition.Alternative{{Transcript: text}},
		})
	}
	return resp
}

type scriptedOp struct{ s *ScriptedRecognizer }

func (o *scriptedOp) Name() string { return "operations/scripted" }

func (o *scriptedOp) Wait(ctx context.Context) (*recognition.Response, error) {
	if o.s.Hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if o.s.WaitDelay > 0 {
		select {
		case <-time.After(o.s.WaitDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if o.s.WaitErr != nil {
		return nil, o.s.WaitErr
	}
	return o.s.response(), nil
}
