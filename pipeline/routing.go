package pipeline

// Strategy is how canonical audio reaches the recognizer.
type Strategy string

const (
	// StrategySync sends the audio inline in one request.
	StrategySync Strategy = "sync"
	// StrategyAsync stages the audio and runs a long-running recognition.
	StrategyAsync Strategy = "async"
)

// DefaultSyncThresholdBytes is the largest canonical size sent inline (512 KiB).
const DefaultSyncThresholdBytes int64 = 524288

// Route picks the strategy for canonical audio of the given size. Audio at
// or below threshold goes sync.
func Route(size, threshold int64) Strategy {
	if size <= threshold {
		return StrategySync
	}
	return StrategyAsync
}
