// Package app holds the speech-translator session: an explicit state object, the
// pure transitions over it, and the Session that performs engine and network effects.
package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/book-expert/speech-translator/internal/core"
	"github.com/book-expert/speech-translator/internal/voice"
)

// Status messages shown in the single status region.
const (
	StatusLoadingVoices      = "Loading voices... Please wait or try refreshing if voices do not appear."
	StatusNoVoicesLoaded     = "No voices loaded yet. Please wait."
	StatusNoVoiceAvailable   = "No speech synthesis voices available. Please check the speech engine installation."
	StatusGenericEnglish     = "No specific voice found for selected speech language/gender. Using a default English voice."
	StatusNoSpeechText       = "Please enter some text or translate to speak."
	StatusNoSpeechVoice      = "No speech voice selected or available. Please try again or check the speech engine."
	StatusSpeaking           = "Speaking..."
	StatusSpeechFinished     = "Speech finished."
	StatusSpeechStopped      = "Speech stopped."
	StatusCleared            = "All text cleared."
	StatusNoTranslateText    = `Please enter text in the "Enter Text" box to translate.`
	StatusTranslationDone    = "Translation complete."
	StatusTranslationFailed  = "Translation failed: No valid response from API. Please try again."
	StatusTranslationDropped = "Source text changed during translation. Translation discarded."

	statusFmtVoiceSelected       = "Speech Voice selected: %s."
	statusFmtVoiceSelectedAccent = "Speech Voice selected: %s (Indian Accent Preferred)."
	statusFmtTranslating         = "Translating to %s..."
	statusFmtTranslationError    = "Translation error: %s."
	statusFmtEngineError         = "Error: %s. Try a different voice or language."
)

// State is the complete observable session state.
type State struct {
	SourceText        string       `json:"source_text"`
	TranslatedText    string       `json:"translated_text"`
	SpeechLanguage    string       `json:"speech_language"`
	TranslateLanguage string       `json:"translate_language"`
	Gender            core.Gender  `json:"gender"`
	Voices            []core.Voice `json:"voices,omitempty"`
	Voice             *core.Voice  `json:"voice,omitempty"`
	Status            string       `json:"status"`
	Speaking          bool         `json:"speaking"`
	Translating       bool         `json:"translating"`
	SpeakEnabled      bool         `json:"speak_enabled"`
	StopEnabled       bool         `json:"stop_enabled"`
	TranslateEnabled  bool         `json:"translate_enabled"`

	// languageDefaulted is set once the first voice list has been applied.
	languageDefaulted bool
}

// InitialState returns the state of a fresh session before any voices are known.
func InitialState(text, speechLanguage, translateLanguage string, gender core.Gender) State {
	return State{
		SourceText:        text,
		TranslatedText:    "",
		SpeechLanguage:    speechLanguage,
		TranslateLanguage: translateLanguage,
		Gender:            gender,
		Voices:            nil,
		Voice:             nil,
		Status:            StatusLoadingVoices,
		Speaking:          false,
		Translating:       false,
		SpeakEnabled:      false,
		StopEnabled:       false,
		TranslateEnabled:  true,
		languageDefaulted: false,
	}
}

// Clone returns a copy that shares no mutable memory with s.
func (s State) Clone() State {
	s.Voices = slices.Clone(s.Voices)

	if s.Voice != nil {
		selected := *s.Voice
		s.Voice = &selected
	}

	return s
}

// ApplyVoices installs a new engine voice list and re-resolves the voice. An
// unchanged list leaves the state as it is, and the status of an active utterance
// is kept. On the first non-empty list, speech and translation default to en-IN
// when an Indian English voice is available.
func ApplyVoices(s State, voices []core.Voice) State {
	if slices.Equal(voices, s.Voices) {
		return s
	}

	status := s.Status
	s = applyChangedVoices(s, voices)

	if s.Speaking {
		s.Status = status
	}

	return s
}

func applyChangedVoices(s State, voices []core.Voice) State {
	s.Voices = slices.Clone(voices)

	if len(s.Voices) == 0 {
		s.Voice = nil
		s.SpeakEnabled = false
		s.Status = StatusLoadingVoices

		return s
	}

	s = SelectVoice(s)

	if !s.languageDefaulted {
		s.languageDefaulted = true

		if voice.HasIndianEnglishVoice(s.Voices) {
			s.SpeechLanguage = voice.TagEnglishIndia
			s.TranslateLanguage = voice.TagEnglishIndia
			s = SelectVoice(s)
		}
	}

	return s
}

// SelectVoice resolves the voice for the current speech language and gender and
// reports the outcome in the status region.
func SelectVoice(s State) State {
	if len(s.Voices) == 0 {
		s.Voice = nil
		s.SpeakEnabled = false
		s.Status = StatusNoVoicesLoaded

		return s
	}

	resolution := voice.Resolve(s.Voices, s.SpeechLanguage, s.Gender)
	if !resolution.Found() {
		s.Voice = nil
		s.SpeakEnabled = false
		s.Status = StatusNoVoiceAvailable

		return s
	}

	selected := *resolution.Voice
	s.Voice = &selected
	s.SpeakEnabled = true

	var notices []string

	if resolution.Substituted {
		notices = append(notices, voice.SubstitutionNotice)
	}

	if resolution.GenericEnglish() {
		notices = append(notices, StatusGenericEnglish)
	}

	notices = append(notices, selectedMessage(selected, s.SpeechLanguage))
	s.Status = strings.Join(notices, " ")

	return s
}

// ClearText empties both text buffers.
func ClearText(s State) State {
	s.SourceText = ""
	s.TranslatedText = ""
	s.Status = StatusCleared

	return s
}

// SpeechText returns the text to speak: the translated buffer when it has
// content, otherwise the source buffer. Both are trimmed.
func SpeechText(s State) string {
	translated := strings.TrimSpace(s.TranslatedText)
	if translated != "" {
		return translated
	}

	return strings.TrimSpace(s.SourceText)
}

// ApplyTranslation stores a translation for targetTag verbatim. When the speech
// language differs from the target it follows the target and the voice is re-resolved.
func ApplyTranslation(s State, targetTag, translated string) State {
	s.TranslatedText = translated
	s.Status = StatusTranslationDone

	if s.SpeechLanguage != targetTag {
		s.SpeechLanguage = targetTag
		s = SelectVoice(s)
	}

	return s
}

// BeginSpeaking marks an utterance as active.
func BeginSpeaking(s State) State {
	s.Speaking = true
	s.StopEnabled = true
	s.Status = StatusSpeaking

	return s
}

// EndSpeaking returns to idle with status.
func EndSpeaking(s State, status string) State {
	s.Speaking = false
	s.StopEnabled = false
	s.Status = status

	return s
}

// EngineErrorStatus formats an engine failure for the status region.
func EngineErrorStatus(reason string) string {
	return fmt.Sprintf(statusFmtEngineError, reason)
}

// TranslationErrorStatus formats a transport failure for the status region.
func TranslationErrorStatus(err error) string {
	return fmt.Sprintf(statusFmtTranslationError, err.Error())
}

// TranslatingStatus formats the in-progress translation message.
func TranslatingStatus(languageName string) string {
	return fmt.Sprintf(statusFmtTranslating, languageName)
}

func selectedMessage(selected core.Voice, speechLanguage string) string {
	if voice.HasAccentCue(selected.Name) &&
		(voice.IsIndianRegion(speechLanguage) || speechLanguage == voice.TagEnglishUS) {
		return fmt.Sprintf(statusFmtVoiceSelectedAccent, selected.Name)
	}

	return fmt.Sprintf(statusFmtVoiceSelected, selected.Name)
}
