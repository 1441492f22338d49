package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInputText indicates that there is no text to speak or translate.
	ErrNoInputText = errors.New("no input text")
	// ErrNoVoiceAvailable indicates that no synthesis voice could be resolved.
	ErrNoVoiceAvailable = errors.New("no speech voice available")
	// ErrMalformedResponse indicates that the translation API answered with an unexpected shape.
	ErrMalformedResponse = errors.New("malformed translation response")
)

// EngineError is reported when the speech engine fails an utterance.
type EngineError struct {
	Reason string
}

func (e *EngineError) Error() string {
	return "speech engine error: " + e.Reason
}

// TransportError is reported when a translation request could not complete.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("translation transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
