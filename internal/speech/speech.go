// Package speech wraps platform speech-to-text capabilities behind a common
// capture interface and assembles transcripts from recognition events.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// ErrCaptureUnavailable reports that no speech-to-text capability is
// configured or usable on this platform.
var ErrCaptureUnavailable = errors.New("speech capture is unavailable")

// ErrorCode classifies capture errors.
type ErrorCode string

// Capture error codes.
const (
	CodeNoSpeech     ErrorCode = "no-speech"
	CodeAudioCapture ErrorCode = "audio-capture"
	CodeNotAllowed   ErrorCode = "not-allowed"
	CodeAborted      ErrorCode = "aborted"
	CodeOther        ErrorCode = "other"
)

// CaptureError carries a machine-readable code and a human-readable message.
type CaptureError struct {
	Code    ErrorCode
	Message string
}

// Error implements error.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture error (%s): %s", e.Code, e.Message)
}

// Recoverable reports whether the user may simply retry. Permission denial
// is terminal for the session.
func (e *CaptureError) Recoverable() bool {
	switch e.Code {
	case CodeNoSpeech, CodeAudioCapture:
		return true
	default:
		return false
	}
}

// Alternative is one recognition hypothesis.
type Alternative struct {
	Text       string
	Confidence float64
}

// Result is a single recognition segment, interim or final. Alternatives are
// ordered by descending confidence.
type Result struct {
	Final        bool
	Alternatives []Alternative
}

// Best returns the top alternative; only it is ever used.
func (r Result) Best() Alternative {
	if len(r.Alternatives) == 0 {
		return Alternative{}
	}
	return r.Alternatives[0]
}

// Event is one unit of the capture stream: a recognition result, a capture
// error, or the end-of-stream marker.
type Event struct {
	Result *Result
	Err    *CaptureError
	End    bool
}

// Capability abstracts a continuous, interim-result-enabled recognizer so any
// platform engine can be substituted without touching analysis or recording.
type Capability interface {
	// Start begins capture. It returns ErrCaptureUnavailable when the
	// platform offers no recognizer.
	Start(ctx context.Context) error
	// Stop ends capture. Safe to call multiple times and before any result.
	Stop()
	// Events delivers results and errors in arrival order. The channel is
	// closed after the end-of-stream event.
	Events() <-chan Event
}
