package speech

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func drain(t *testing.T, a *Adapter) {
	t.Helper()
	for ev := range a.Events() {
		a.Apply(ev)
	}
}

func TestAdapterFinalSegmentsOnly(t *testing.T) {
	capability := NewMockCapability(
		InterimResult("i went", 0.5),
		InterimResult("i went to a", 0.6),
		FinalResult("I went to a concert", 0.9),
		InterimResult("last", 0.4),
		FinalResult("last month", 0.8),
	)
	adapter := NewAdapter(capability)
	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(t, adapter)

	if got := adapter.Transcript(); got != "I went to a concert last month" {
		t.Fatalf("unexpected transcript: %q", got)
	}
	if !adapter.Ended() {
		t.Fatalf("expected end-of-stream to be observed")
	}
}

func TestAdapterInterimReplacedNotConcatenated(t *testing.T) {
	adapter := NewAdapter(NewMockCapability())
	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	adapter.Apply(InterimResult("hel", 0.3))
	if adapter.Caption() != "hel" {
		t.Fatalf("caption should show interim, got %q", adapter.Caption())
	}
	adapter.Apply(InterimResult("hello eve", 0.5))
	if adapter.Caption() != "hello eve" {
		t.Fatalf("interim must replace, not concatenate: %q", adapter.Caption())
	}
	adapter.Apply(FinalResult("hello everyone", 0.9))
	if adapter.Transcript() != "hello everyone" {
		t.Fatalf("unexpected transcript: %q", adapter.Transcript())
	}
	if adapter.Caption() != "hello everyone" {
		t.Fatalf("final must clear pending interim: %q", adapter.Caption())
	}
}

func TestAdapterTopAlternativeUsed(t *testing.T) {
	adapter := NewAdapter(NewMockCapability())
	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	adapter.Apply(Event{Result: &Result{Final: true, Alternatives: []Alternative{
		{Text: "best guess", Confidence: 0.95},
		{Text: "worse guess", Confidence: 0.40},
	}}})
	if adapter.Transcript() != "best guess" {
		t.Fatalf("expected top alternative, got %q", adapter.Transcript())
	}
}

func TestAdapterStopIsIdempotent(t *testing.T) {
	adapter := NewAdapter(NewMockCapability(FinalResult("hello", 1)))
	// Stop before start must not panic.
	adapter.Stop()
	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	adapter.Stop()
	adapter.Stop()

	// Events after stop are discarded.
	if adapter.Apply(FinalResult("late arrival", 1)) {
		t.Fatalf("result after stop must be discarded")
	}
	if adapter.Transcript() != "" {
		t.Fatalf("transcript mutated after stop: %q", adapter.Transcript())
	}
	// The natural end is still acknowledged, exactly once.
	if !adapter.Apply(Event{End: true}) {
		t.Fatalf("end-of-stream must be acknowledged")
	}
	if adapter.Apply(Event{End: true}) {
		t.Fatalf("end-of-stream must be reported exactly once")
	}
}

func TestAdapterEndWithoutStopIsNotAnError(t *testing.T) {
	adapter := NewAdapter(NewMockCapability(FinalResult("short talk", 1)))
	if err := adapter.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(t, adapter)
	if !adapter.Ended() {
		t.Fatalf("expected natural end")
	}
	if adapter.Transcript() != "short talk" {
		t.Fatalf("unexpected transcript: %q", adapter.Transcript())
	}
	if adapter.ElapsedSeconds() < 0 {
		t.Fatalf("elapsed must be non-negative")
	}
}

func TestCaptureErrorRecoverable(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{CodeNoSpeech, true},
		{CodeAudioCapture, true},
		{CodeNotAllowed, false},
		{CodeAborted, false},
		{CodeOther, false},
	}
	for _, tt := range tests {
		err := &CaptureError{Code: tt.code, Message: "x"}
		if err.Recoverable() != tt.want {
			t.Fatalf("code %s: recoverable = %v, want %v", tt.code, err.Recoverable(), tt.want)
		}
	}
}

func TestExecCapabilityUnavailable(t *testing.T) {
	logger := testLogger()
	capability := NewExecCapability("", "en-US", logger)
	if err := capability.Start(context.Background()); err == nil {
		t.Fatalf("expected error for empty command")
	}
	capability = NewExecCapability("definitely-not-a-real-recognizer-binary", "en-US", logger)
	err := capability.Start(context.Background())
	if err == nil {
		t.Fatalf("expected unavailable error for missing binary")
	}
}

func TestEventFromLine(t *testing.T) {
	ev := eventFromLine(execLine{Text: "hello world", Confidence: 0.95, Final: true})
	if ev.Result == nil || !ev.Result.Final || ev.Result.Best().Text != "hello world" {
		t.Fatalf("unexpected result event: %+v", ev)
	}
	ev = eventFromLine(execLine{Error: "no-speech", Message: "silence"})
	if ev.Err == nil || ev.Err.Code != CodeNoSpeech || ev.Err.Message != "silence" {
		t.Fatalf("unexpected error event: %+v", ev)
	}
	ev = eventFromLine(execLine{Error: "something-novel"})
	if ev.Err == nil || ev.Err.Code != CodeOther || ev.Err.Message != "something-novel" {
		t.Fatalf("unknown codes must map to other: %+v", ev)
	}
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}
