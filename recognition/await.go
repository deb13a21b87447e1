package recognition

import (
	"context"
	"time"

	apperrors "github.com/kbukum/voicenote/errors"
)

// DefaultAwaitTimeout is how long Await waits for a long-running recognition.
const DefaultAwaitTimeout = 300 * time.Second

type waitResult struct {
	resp *Response
	err  error
}

// Await races op.Wait against timeout. On timeout it returns a
// RECOGNITION_TIMEOUT error and abandons the operation: local waiting stops,
// the remote operation is left to finish or expire on its own.
func Await(ctx context.Context, op Operation, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = DefaultAwaitTimeout
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan waitResult, 1)
	go func() {
		resp, err := op.Wait(waitCtx)
		done <- waitResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-timer.C:
		return nil, apperrors.RecognitionTimeout(timeout).WithDetail("operation", op.Name())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
