package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kbukum/voicenote/process"
)

// FFmpegRunner is a scripted process.Runner standing in for ffmpeg. By
// default it writes Output to the last argument (the output path) and exits 0.
type FFmpegRunner struct {
	// Output is written to the output path on success.
	Output []byte
	// ExitCode, when non-zero, makes the run fail without writing output.
	ExitCode int
	// Stderr is returned in the result.
	Stderr string
	// Err, when set, is returned as the run error.
	Err error
	// Delay blocks each run before completing.
	Delay time.Duration

	mu    sync.Mutex
	calls []process.Command
}

var _ process.Runner = (*FFmpegRunner)(nil)

// Run records cmd and simulates ffmpeg.
func (r *FFmpegRunner) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return &process.Result{ExitCode: -1}, ctx.Err()
		}
	}

	res := &process.Result{Stderr: []byte(r.Stderr), ExitCode: r.ExitCode}
	if r.Err != nil {
		return res, r.Err
	}
	if r.ExitCode != 0 {
		return res, &exitError{code: r.ExitCode}
	}
	if len(cmd.Args) > 0 {
		if err := os.WriteFile(cmd.Args[len(cmd.Args)-1], r.Output, 0o600); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Calls returns the recorded commands.
func (r *FFmpegRunner) Calls() []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]process.Command(nil), r.calls...)
}

type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
