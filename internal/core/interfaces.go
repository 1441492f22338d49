// Package core defines the domain types, errors and engine boundaries shared by the
// speech-translator packages.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Gender is the preferred voice gender.
type Gender string

// Supported genders.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ErrUnknownGender indicates that a gender string could not be parsed.
var ErrUnknownGender = errors.New("unknown gender")

// ParseGender converts user input into a Gender.
func ParseGender(value string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(value))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGender, value)
	}
}

// Voice describes a synthesis voice as reported by the speech engine.
type Voice struct {
	// ID is the engine-specific voice identifier.
	ID   string `json:"id"`
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// Utterance is one unit of text submitted to the speech engine.
type Utterance struct {
	Text  string
	Voice Voice
}

// Lang returns the language the utterance is spoken in, which is always the voice language.
func (u Utterance) Lang() string {
	return u.Voice.Lang
}

// SpeechEngine is the on-device speech synthesis boundary.
//
// Speak blocks until the utterance finishes. Cancelling ctx cancels the utterance.
type SpeechEngine interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, utterance Utterance) error
}

// Translator sends text to a remote translation service.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguageName string) (string, error)
}
