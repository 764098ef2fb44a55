package speech

import (
	"context"
	"sync"
)

// MockCapability replays a scripted event stream. It backs tests and the
// demo mode used when no recognizer is configured with a key or command.
type MockCapability struct {
	script []Event

	mu      sync.Mutex
	events  chan Event
	started bool
	stopped bool
}

// NewMockCapability builds a capability that emits the given events followed
// by the end-of-stream marker.
func NewMockCapability(script ...Event) *MockCapability {
	return &MockCapability{script: script}
}

// Start implements Capability.
func (m *MockCapability) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true
	m.events = make(chan Event, len(m.script)+1)
	for _, ev := range m.script {
		m.events <- ev
	}
	m.events <- Event{End: true}
	close(m.events)
	return nil
}

// Stop implements Capability.
func (m *MockCapability) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Events implements Capability.
func (m *MockCapability) Events() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

// FinalResult builds a single-alternative final recognition event.
func FinalResult(text string, confidence float64) Event {
	return Event{Result: &Result{Final: true, Alternatives: []Alternative{{Text: text, Confidence: confidence}}}}
}

// InterimResult builds a single-alternative interim recognition event.
func InterimResult(text string, confidence float64) Event {
	return Event{Result: &Result{Final: false, Alternatives: []Alternative{{Text: text, Confidence: confidence}}}}
}

// ErrorEvent builds a capture error event.
func ErrorEvent(code ErrorCode, message string) Event {
	return Event{Err: &CaptureError{Code: code, Message: message}}
}
