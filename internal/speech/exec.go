package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// execCapability spawns a recognizer command that captures the microphone
// itself and emits one JSON object per line on stdout:
//
//	{"text": "...", "confidence": 0.92, "final": false}
//	{"error": "not-allowed", "message": "microphone permission denied"}
//
// The process exiting ends the stream.
type execCapability struct {
	command string
	locale  string
	logger  *log.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	events  chan Event
	started bool
}

type execLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Final      bool    `json:"final"`
	Error      string  `json:"error"`
	Message    string  `json:"message"`
}

// NewExecCapability wraps a JSONL-emitting recognizer command. The practice
// locale is appended as a --language argument.
func NewExecCapability(command, locale string, logger *log.Logger) Capability {
	return &execCapability{command: command, locale: locale, logger: logger}
}

// Start implements Capability.
func (c *execCapability) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("capture already started")
	}
	parts := strings.Fields(c.command)
	if len(parts) == 0 {
		return ErrCaptureUnavailable
	}
	args := parts[1:]
	if c.locale != "" {
		args = append(args, "--language", c.locale)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, parts[0], args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return fmt.Errorf("%w: %s", ErrCaptureUnavailable, c.command)
		}
		return err
	}

	c.cmd = cmd
	c.cancel = cancel
	c.started = true
	c.events = make(chan Event, 32)

	go func() {
		defer close(c.events)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var parsed execLine
			if err := json.Unmarshal([]byte(line), &parsed); err != nil {
				c.logger.Warn("recognizer emitted invalid line", "line", line, "err", err)
				continue
			}
			c.events <- eventFromLine(parsed)
		}
		if err := scanner.Err(); err != nil && runCtx.Err() == nil {
			c.events <- Event{Err: &CaptureError{Code: CodeAudioCapture, Message: err.Error()}}
		}
		if err := cmd.Wait(); err != nil && runCtx.Err() == nil {
			c.logger.Warn("recognizer exited", "err", err)
		}
		c.events <- Event{End: true}
	}()
	return nil
}

func eventFromLine(parsed execLine) Event {
	if parsed.Error != "" {
		code := ErrorCode(parsed.Error)
		switch code {
		case CodeNoSpeech, CodeAudioCapture, CodeNotAllowed, CodeAborted:
		default:
			code = CodeOther
		}
		message := parsed.Message
		if message == "" {
			message = parsed.Error
		}
		return Event{Err: &CaptureError{Code: code, Message: message}}
	}
	return Event{Result: &Result{
		Final:        parsed.Final,
		Alternatives: []Alternative{{Text: parsed.Text, Confidence: parsed.Confidence}},
	}}
}

// Stop implements Capability.
func (c *execCapability) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Events implements Capability.
func (c *execCapability) Events() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}
