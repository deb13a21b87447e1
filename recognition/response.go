package recognition

import (
	"strings"

	apperrors "github.com/kbukum/voicenote/errors"
)

// Alternative is one hypothesis for a segment, best first.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float32 `json:"confidence,omitempty"`
}

// Segment is one consecutive portion of the audio.
type Segment struct {
	Alternatives []Alternative `json:"alternatives"`
}

// Response is a provider-neutral recognition result.
type Response struct {
	Segments []Segment `json:"segments"`
}

// Assemble joins the top alternative of every segment, in provider order,
// with newlines. Segments without alternatives or text are skipped. A
// response that yields no text is an EMPTY_TRANSCRIPT error.
func Assemble(resp *Response) (string, error) {
	if resp == nil || len(resp.Segments) == 0 {
		return "", apperrors.EmptyTranscript()
	}
	lines := make([]string, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		if len(seg.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(seg.Alternatives[0].Transcript); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", apperrors.EmptyTranscript()
	}
	return strings.Join(lines, "\n"), nil
}
