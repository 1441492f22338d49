// Package speech drives the speech engine: one active utterance at a time, with
// immediate cancellation.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-translator/internal/core"
)

// State of the controller.
type State int

// Controller states.
const (
	Idle State = iota
	Speaking
)

func (s State) String() string {
	if s == Speaking {
		return "speaking"
	}

	return "idle"
}

// ErrCancelled is the playback result of an utterance that was stopped or replaced.
var ErrCancelled = errors.New("utterance cancelled")

const (
	logFmtSpeakStarted   = "Speaking %d characters with voice %q (%s)"
	logFmtSpeakFinished  = "Utterance %d finished"
	logFmtSpeakCancelled = "Utterance %d cancelled"
	logFmtEngineError    = "Speech engine error on utterance %d: %v"
)

// Playback is the pending result of one utterance.
type Playback struct {
	id     uint64
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// ID identifies the playback within its controller.
func (p *Playback) ID() uint64 {
	return p.id
}

// Done is closed when the utterance finished, failed or was cancelled.
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Err returns nil after natural completion, ErrCancelled after Stop or
// replacement, or a *core.EngineError. It must only be called after Done is closed.
func (p *Playback) Err() error {
	return p.err
}

// Wait blocks until the playback ends or ctx is done.
func (p *Playback) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Playback) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Controller owns the speech engine and enforces a single active utterance.
type Controller struct {
	engine  core.SpeechEngine
	log     *logger.Logger
	mu      sync.Mutex
	current *Playback
	nextID  uint64
}

// NewController creates a controller for engine.
func NewController(engine core.SpeechEngine, log *logger.Logger) *Controller {
	return &Controller{
		engine:  engine,
		log:     log,
		mu:      sync.Mutex{},
		current: nil,
		nextID:  0,
	}
}

// State reports whether an utterance is active.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.finished() {
		return Idle
	}

	return Speaking
}

// Speak starts speaking text with v. Any active utterance is cancelled and
// awaited first. Empty text and a nil voice are rejected without a state change.
func (c *Controller) Speak(ctx context.Context, text string, v *core.Voice) (*Playback, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, core.ErrNoInputText
	}

	if v == nil {
		return nil, core.ErrNoVoiceAvailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	c.nextID++

	speakCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	playback := &Playback{
		id:     c.nextID,
		done:   make(chan struct{}),
		cancel: cancel,
		err:    nil,
	}
	c.current = playback

	utterance := core.Utterance{Text: trimmed, Voice: *v}

	c.log.Info(logFmtSpeakStarted, len(trimmed), v.Name, v.Lang)

	go c.run(speakCtx, playback, utterance)

	return playback, nil
}

// Stop cancels the active utterance and waits for the engine to release it.
// It reports whether anything was playing.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopLocked()
}

func (c *Controller) stopLocked() bool {
	playback := c.current
	if playback == nil {
		return false
	}

	c.current = nil

	if playback.finished() {
		return false
	}

	playback.cancel()
	<-playback.done

	return true
}

func (c *Controller) run(ctx context.Context, playback *Playback, utterance core.Utterance) {
	defer close(playback.done)
	defer playback.cancel()

	err := c.engine.Speak(ctx, utterance)

	switch {
	case ctx.Err() != nil:
		playback.err = ErrCancelled

		c.log.Info(logFmtSpeakCancelled, playback.id)
	case err != nil:
		var engineErr *core.EngineError
		if !errors.As(err, &engineErr) {
			engineErr = &core.EngineError{Reason: err.Error()}
		}

		playback.err = engineErr

		c.log.Error(logFmtEngineError, playback.id, err)
	default:
		c.log.Info(logFmtSpeakFinished, playback.id)
	}
}
