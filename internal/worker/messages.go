package worker

import (
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/speech-translator/internal/app"
	"github.com/google/uuid"
)

// Actions, appended to the subject prefix to form a request subject.
const (
	ActionState     = "state"
	ActionVoices    = "voices"
	ActionUpdate    = "update"
	ActionSpeak     = "speak"
	ActionStop      = "stop"
	ActionClear     = "clear"
	ActionTranslate = "translate"
)

// Actions lists every action the worker serves.
func Actions() []string {
	return []string{
		ActionState, ActionVoices, ActionUpdate, ActionSpeak, ActionStop, ActionClear, ActionTranslate,
	}
}

// Subject returns the request subject for action.
func Subject(prefix, action string) string {
	return prefix + "." + action
}

// Request is the payload of every request. Optional fields are applied to the
// session before the action runs.
type Request struct {
	Header            events.EventHeader `json:"header"`
	SourceText        *string            `json:"source_text,omitempty"`
	TranslatedText    *string            `json:"translated_text,omitempty"`
	SpeechLanguage    *string            `json:"speech_language,omitempty"`
	TranslateLanguage *string            `json:"translate_language,omitempty"`
	Gender            *string            `json:"gender,omitempty"`
}

// Reply carries the session state after the action and the failure message, if any.
type Reply struct {
	Header events.EventHeader `json:"header"`
	State  app.State          `json:"state"`
	Error  string             `json:"error,omitempty"`
}

// NewHeader returns a header for a new workflow.
func NewHeader() events.EventHeader {
	return events.EventHeader{
		Timestamp:  time.Now(),
		WorkflowID: uuid.NewString(),
		EventID:    uuid.NewString(),
		UserID:     "",
		TenantID:   "",
	}
}

// replyHeader continues the request workflow with a fresh event ID.
func replyHeader(request events.EventHeader) events.EventHeader {
	header := request
	if header.WorkflowID == "" {
		header.WorkflowID = uuid.NewString()
	}

	header.EventID = uuid.NewString()
	header.Timestamp = time.Now()

	return header
}
