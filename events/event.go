package events

import (
	"encoding/json"
	"time"
)

// Event types.
const (
	TypeStage     = "job.stage"
	TypeSucceeded = "job.succeeded"
	TypeFailed    = "job.failed"
)

// JobEvent is one lifecycle record of a transcription job.
type JobEvent struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Type      string    `json:"type"`
	Stage     string    `json:"stage,omitempty"`
	Code      string    `json:"code,omitempty"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON serializes the event.
func (e JobEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
