package speech

import (
	"context"
	"strings"
	"time"
)

// Adapter assembles the authoritative transcript from a capability's event
// stream. Final segments are append-only in finalization order; interim text
// only feeds the live caption and never enters the transcript.
type Adapter struct {
	capability Capability

	finals    []string
	interim   string
	startedAt time.Time
	stoppedAt time.Time
	started   bool
	stopped   bool
	ended     bool
}

// NewAdapter wraps a capability.
func NewAdapter(capability Capability) *Adapter {
	return &Adapter{capability: capability}
}

// Start begins capture and starts the session clock.
func (a *Adapter) Start(ctx context.Context) error {
	if err := a.capability.Start(ctx); err != nil {
		return err
	}
	a.started = true
	a.startedAt = time.Now()
	return nil
}

// Stop ends capture and freezes the session clock. Idempotent.
func (a *Adapter) Stop() {
	if !a.started || a.stopped {
		return
	}
	a.stopped = true
	a.stoppedAt = time.Now()
	a.capability.Stop()
}

// Events exposes the underlying capability stream.
func (a *Adapter) Events() <-chan Event {
	return a.capability.Events()
}

// Apply folds one event into the assembled state and reports whether it was
// consumed. Events after Stop are discarded, except that the natural end of
// the stream is still acknowledged (once) and is not an error on its own.
func (a *Adapter) Apply(ev Event) bool {
	if ev.End {
		if a.ended {
			return false
		}
		a.ended = true
		if !a.stopped && a.started {
			a.stopped = true
			a.stoppedAt = time.Now()
		}
		return true
	}
	if a.stopped {
		return false
	}
	if ev.Result != nil {
		text := strings.TrimSpace(ev.Result.Best().Text)
		if ev.Result.Final {
			// Final text is authoritative; the interim it replaces is dropped.
			a.interim = ""
			if text != "" {
				a.finals = append(a.finals, text)
			}
		} else {
			a.interim = text
		}
		return true
	}
	return ev.Err != nil
}

// Transcript returns the ordered concatenation of final segments only.
func (a *Adapter) Transcript() string {
	return strings.Join(a.finals, " ")
}

// Caption returns the live caption: finalized text plus the pending interim.
func (a *Adapter) Caption() string {
	if a.interim == "" {
		return a.Transcript()
	}
	if len(a.finals) == 0 {
		return a.interim
	}
	return a.Transcript() + " " + a.interim
}

// Ended reports whether the stream's natural end has been seen.
func (a *Adapter) Ended() bool {
	return a.ended
}

// ElapsedSeconds measures from Start to the stop point, not to the last
// result, so trailing silence before Stop lowers the speaking rate.
func (a *Adapter) ElapsedSeconds() float64 {
	if !a.started {
		return 0
	}
	end := a.stoppedAt
	if !a.stopped {
		end = time.Now()
	}
	return end.Sub(a.startedAt).Seconds()
}
