package speech

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/charmbracelet/log"
)

const (
	dgSampleRate    = 16000
	dgDefaultRecord = "arecord -q -f S16_LE -r 16000 -c 1 -t raw"
)

// deepgramCapability streams microphone audio from a record command to the
// Deepgram live transcription API and surfaces interim and final results.
type deepgramCapability struct {
	apiKey        string
	model         string
	locale        string
	recordCommand string
	logger        *log.Logger

	mu      sync.Mutex
	client  *listenClient.WSCallback
	record  *exec.Cmd
	cancel  context.CancelFunc
	events  chan Event
	done    chan struct{}
	started bool

	// emitMu serializes event sends against the channel close in end().
	emitMu sync.Mutex
}

// dgCallback embeds the default handler and overrides only the messages the
// capture stream cares about.
type dgCallback struct {
	*websocketv1api.DefaultCallbackHandler
	onMessage func(*msginterfaces.MessageResponse)
	onError   func(*msginterfaces.ErrorResponse)
}

func (c *dgCallback) Message(msg *msginterfaces.MessageResponse) error {
	c.onMessage(msg)
	return nil
}

func (c *dgCallback) Error(er *msginterfaces.ErrorResponse) error {
	c.onError(er)
	return nil
}

// NewDeepgramCapability builds a live-streaming capture backend. recordCommand
// must write raw 16 kHz mono little-endian PCM to stdout; empty selects the
// arecord default.
func NewDeepgramCapability(apiKey, dgModel, locale, recordCommand string, logger *log.Logger) Capability {
	if recordCommand == "" {
		recordCommand = dgDefaultRecord
	}
	return &deepgramCapability{
		apiKey:        apiKey,
		model:         dgModel,
		locale:        locale,
		recordCommand: recordCommand,
		logger:        logger,
	}
}

// Start implements Capability.
func (c *deepgramCapability) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("capture already started")
	}
	if c.apiKey == "" {
		return fmt.Errorf("%w: no Deepgram API key configured", ErrCaptureUnavailable)
	}

	c.events = make(chan Event, 32)
	c.done = make(chan struct{})
	var endOnce sync.Once
	end := func() {
		endOnce.Do(func() {
			c.emitMu.Lock()
			defer c.emitMu.Unlock()
			close(c.done)
			c.events <- Event{End: true}
			close(c.events)
		})
	}

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          c.model,
		Language:       c.locale,
		Punctuate:      true,
		InterimResults: true,
		Encoding:       "linear16",
		Channels:       1,
		SampleRate:     dgSampleRate,
	}
	callback := &dgCallback{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		onMessage:              c.handleMessage,
		onError: func(er *msginterfaces.ErrorResponse) {
			c.logger.Error("deepgram error", "response", fmt.Sprintf("%+v", er))
			c.emit(Event{Err: &CaptureError{Code: CodeOther, Message: er.Description}})
		},
	}

	runCtx, cancel := context.WithCancel(ctx)
	client, err := listenClient.NewWSUsingCallback(runCtx, c.apiKey, nil, tOptions, callback)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create deepgram client: %w", err)
	}

	parts := strings.Fields(c.recordCommand)
	record := exec.CommandContext(runCtx, parts[0], parts[1:]...)
	stdout, err := record.StdoutPipe()
	if err != nil {
		cancel()
		return err
	}
	if err := record.Start(); err != nil {
		cancel()
		return &CaptureError{Code: CodeAudioCapture, Message: fmt.Sprintf("failed to start %q: %v", parts[0], err)}
	}

	c.client = client
	c.record = record
	c.cancel = cancel
	c.started = true

	go func() {
		defer end()
		buf := make([]byte, 4096)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				if _, werr := client.Write(buf[:n]); werr != nil {
					if runCtx.Err() == nil {
						c.emit(Event{Err: &CaptureError{Code: CodeOther, Message: werr.Error()}})
					}
					break
				}
			}
			if err != nil {
				if err != io.EOF && runCtx.Err() == nil {
					c.emit(Event{Err: &CaptureError{Code: CodeAudioCapture, Message: err.Error()}})
				}
				break
			}
		}
		client.Finish()
		if err := record.Wait(); err != nil && runCtx.Err() == nil {
			c.logger.Warn("record command exited", "err", err)
		}
	}()
	return nil
}

func (c *deepgramCapability) handleMessage(msg *msginterfaces.MessageResponse) {
	if msg == nil || len(msg.Channel.Alternatives) == 0 {
		return
	}
	alternatives := make([]Alternative, 0, len(msg.Channel.Alternatives))
	for _, alt := range msg.Channel.Alternatives {
		if alt.Transcript == "" {
			continue
		}
		alternatives = append(alternatives, Alternative{Text: alt.Transcript, Confidence: alt.Confidence})
	}
	if len(alternatives) == 0 {
		return
	}
	c.emit(Event{Result: &Result{Final: msg.IsFinal, Alternatives: alternatives}})
}

// emit sends without blocking and never touches a finished stream.
func (c *deepgramCapability) emit(ev Event) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event channel full, dropping event")
	}
}

// Stop implements Capability.
func (c *deepgramCapability) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Events implements Capability.
func (c *deepgramCapability) Events() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}
