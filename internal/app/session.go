package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-translator/internal/core"
	"github.com/book-expert/speech-translator/internal/speech"
	"github.com/book-expert/speech-translator/internal/voice"
)

// ErrStaleTranslation is returned when a translation result is discarded because a
// newer request replaced it or the source text changed while it was in flight.
var ErrStaleTranslation = errors.New("stale translation discarded")

const (
	logFmtVoicesFailed      = "Failed to load speech voices: %v"
	logFmtVoicesApplied     = "Applied %d voices; selected %q for %s"
	logFmtEngineFailed      = "Utterance %d failed: %v"
	logFmtTranslateStart    = "Translation %d started (%d characters to %s)"
	logFmtTranslateStale    = "Translation %d discarded: %s"
	logFmtTranslateFailed   = "Translation %d failed: %v"
	logFmtTranslateComplete = "Translation %d complete (%d characters)"
	reasonSuperseded        = "superseded by a newer request"
	reasonSourceChanged     = "source text changed"
)

// Session owns one user's state and performs the effects its handlers need.
// All methods are safe for concurrent use.
type Session struct {
	engine     core.SpeechEngine
	controller *speech.Controller
	translator core.Translator
	log        *logger.Logger

	mu              sync.Mutex
	state           State
	playback        *speech.Playback
	translateSeq    uint64
	translateCancel context.CancelFunc
	sourceRevision  uint64
}

// NewSession creates a session that speaks through engine and translates through translator.
func NewSession(
	engine core.SpeechEngine,
	translator core.Translator,
	log *logger.Logger,
	initial State,
) *Session {
	return &Session{
		engine:          engine,
		controller:      speech.NewController(engine, log),
		translator:      translator,
		log:             log,
		mu:              sync.Mutex{},
		state:           initial,
		playback:        nil,
		translateSeq:    0,
		translateCancel: nil,
		sourceRevision:  0,
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}

// RefreshVoices reads the engine voice list and re-resolves the voice when it changed.
func (s *Session) RefreshVoices(ctx context.Context) (State, error) {
	voices, err := s.engine.Voices(ctx)
	if err != nil {
		s.log.Error(logFmtVoicesFailed, err)

		return s.Snapshot(), fmt.Errorf("failed to refresh voices: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = ApplyVoices(s.state, voices)

	selected := ""
	if s.state.Voice != nil {
		selected = s.state.Voice.Name
	}

	s.log.Info(logFmtVoicesApplied, len(voices), selected, s.state.SpeechLanguage)

	return s.state.Clone(), nil
}

// WatchVoices refreshes the voice list every interval until ctx is done. Engines
// that load voices late become usable without a restart.
func (s *Session) WatchVoices(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := s.RefreshVoices(ctx)
			if err != nil && ctx.Err() != nil {
				return
			}
		}
	}
}

// SetSourceText replaces the source buffer. A translation in flight for the old
// text will be discarded when it completes.
func (s *Session) SetSourceText(text string) State {
	return s.update(func(state State) State {
		s.sourceRevision++
		state.SourceText = text

		return state
	})
}

// SetTranslatedText replaces the translated buffer.
func (s *Session) SetTranslatedText(text string) State {
	return s.update(func(state State) State {
		state.TranslatedText = text

		return state
	})
}

// SetSpeechLanguage changes the speech language and re-resolves the voice.
func (s *Session) SetSpeechLanguage(tag string) State {
	return s.update(func(state State) State {
		state.SpeechLanguage = tag

		return SelectVoice(state)
	})
}

// SetTranslateLanguage changes the translation target.
func (s *Session) SetTranslateLanguage(tag string) State {
	return s.update(func(state State) State {
		state.TranslateLanguage = tag

		return state
	})
}

// SetGender changes the preferred voice gender and re-resolves the voice.
func (s *Session) SetGender(gender core.Gender) State {
	return s.update(func(state State) State {
		state.Gender = gender

		return SelectVoice(state)
	})
}

// Speak speaks the translated text, or the source text when there is no
// translation. An active utterance is cancelled first.
func (s *Session) Speak(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := SpeechText(s.state)
	if text == "" {
		s.state.Status = StatusNoSpeechText

		return s.state.Clone(), core.ErrNoInputText
	}

	if s.state.Voice == nil {
		s.state.Status = StatusNoSpeechVoice

		return s.state.Clone(), core.ErrNoVoiceAvailable
	}

	playback, err := s.controller.Speak(ctx, text, s.state.Voice)
	if err != nil {
		return s.state.Clone(), fmt.Errorf("failed to start speech: %w", err)
	}

	s.playback = playback
	s.state = BeginSpeaking(s.state)

	go s.watch(playback)

	return s.state.Clone(), nil
}

// Stop cancels the active utterance, if any.
func (s *Session) Stop() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controller.Stop() {
		s.playback = nil
		s.state = EndSpeaking(s.state, StatusSpeechStopped)
	}

	return s.state.Clone()
}

// Clear empties both text buffers and stops speech. The session is always idle afterwards.
func (s *Session) Clear() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.controller.Stop()
	s.playback = nil
	s.sourceRevision++

	s.state = EndSpeaking(s.state, StatusCleared)
	s.state = ClearText(s.state)

	return s.state.Clone()
}

// Translate translates the source text into the selected target language. A new
// call cancels the one in flight; results that are no longer current are
// discarded with ErrStaleTranslation and leave the buffers untouched.
func (s *Session) Translate(ctx context.Context) (State, error) {
	s.mu.Lock()

	text := strings.TrimSpace(s.state.SourceText)
	if text == "" {
		s.state.Status = StatusNoTranslateText
		snapshot := s.state.Clone()
		s.mu.Unlock()

		return snapshot, core.ErrNoInputText
	}

	if s.translateCancel != nil {
		s.translateCancel()
	}

	s.translateSeq++
	seq := s.translateSeq
	revision := s.sourceRevision
	target := s.state.TranslateLanguage
	languageName := voice.LanguageName(target)

	translateCtx, cancel := context.WithCancel(ctx)
	s.translateCancel = cancel

	s.state.Translating = true
	s.state.TranslateEnabled = false
	s.state.Status = TranslatingStatus(languageName)

	s.mu.Unlock()

	s.log.Info(logFmtTranslateStart, seq, len(text), languageName)

	translated, err := s.translator.Translate(translateCtx, text, languageName)

	s.mu.Lock()
	defer s.mu.Unlock()

	cancel()

	current := seq == s.translateSeq
	if current {
		s.translateCancel = nil
		s.state.Translating = false
		s.state.TranslateEnabled = true
	}

	switch {
	case !current:
		s.log.Info(logFmtTranslateStale, seq, reasonSuperseded)

		return s.state.Clone(), fmt.Errorf("%w: %s", ErrStaleTranslation, reasonSuperseded)
	case err != nil:
		s.log.Error(logFmtTranslateFailed, seq, err)

		if errors.Is(err, core.ErrMalformedResponse) {
			s.state.Status = StatusTranslationFailed
		} else {
			s.state.Status = TranslationErrorStatus(err)
		}

		return s.state.Clone(), fmt.Errorf("translation failed: %w", err)
	case revision != s.sourceRevision:
		s.log.Info(logFmtTranslateStale, seq, reasonSourceChanged)
		s.state.Status = StatusTranslationDropped

		return s.state.Clone(), fmt.Errorf("%w: %s", ErrStaleTranslation, reasonSourceChanged)
	}

	s.log.Info(logFmtTranslateComplete, seq, len(translated))
	s.state = ApplyTranslation(s.state, target, translated)

	return s.state.Clone(), nil
}

// Close stops speech and cancels any translation in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.translateCancel != nil {
		s.translateCancel()
		s.translateCancel = nil
	}

	if s.controller.Stop() {
		s.playback = nil
		s.state = EndSpeaking(s.state, StatusSpeechStopped)
	}
}

func (s *Session) update(transition func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = transition(s.state)

	return s.state.Clone()
}

// watch applies the outcome of playback unless it was stopped or replaced meanwhile.
func (s *Session) watch(playback *speech.Playback) {
	<-playback.Done()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playback != playback {
		return
	}

	s.playback = nil

	playbackErr := playback.Err()

	var engineErr *core.EngineError

	switch {
	case playbackErr == nil:
		s.state = EndSpeaking(s.state, StatusSpeechFinished)
	case errors.As(playbackErr, &engineErr):
		s.log.Error(logFmtEngineFailed, playback.ID(), playbackErr)
		s.state = EndSpeaking(s.state, EngineErrorStatus(engineErr.Reason))
	default:
		s.state = EndSpeaking(s.state, StatusSpeechStopped)
	}
}
