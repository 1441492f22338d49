// Package worker provides a NATS worker that serves speech-translator session requests.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-translator/internal/app"
	"github.com/book-expert/speech-translator/internal/core"
	"github.com/nats-io/nats.go"
)

const (
	defaultHandleMessageTimeout = 30 * time.Second
	subjectWildcard             = "*"
)

var (
	// ErrUnknownAction indicates a request on a subject the worker does not serve.
	ErrUnknownAction = errors.New("unknown action")
	// ErrSubjectPrefixEmpty indicates that no subject prefix was configured.
	ErrSubjectPrefixEmpty = errors.New("subject prefix cannot be empty")
)

// NatsWorker listens for session requests on NATS subjects and replies with the session state.
type NatsWorker struct {
	natsConnection *nats.Conn
	prefix         string
	session        *app.Session
	timeout        time.Duration
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	prefix string,
	session *app.Session,
	timeout time.Duration,
	log *logger.Logger,
) (*NatsWorker, error) {
	if prefix == "" {
		return nil, ErrSubjectPrefixEmpty
	}

	if timeout <= 0 {
		timeout = defaultHandleMessageTimeout
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		prefix:         prefix,
		session:        session,
		timeout:        timeout,
		log:            log,
	}, nil
}

// Run subscribes to the action subjects and serves requests until ctx is done.
// A single wildcard subscription delivers requests in arrival order.
func (w *NatsWorker) Run(ctx context.Context) error {
	subject := Subject(w.prefix, subjectWildcard)

	sub, err := w.natsConnection.Subscribe(subject, w.handleRequest)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	w.log.System("Listening for session requests on %s", subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

// handleRequest applies the request fields on the subscription goroutine, then
// runs the action. Translations run on their own goroutine so a newer translate
// request can replace one in flight.
func (w *NatsWorker) handleRequest(msg *nats.Msg) {
	action := strings.TrimPrefix(msg.Subject, w.prefix+".")

	request, err := w.parseRequest(msg)
	if err != nil {
		w.log.Error("Failed to parse %s request: %v", action, err)
		w.reply(msg, request, w.session.Snapshot(), err)

		return
	}

	if !slices.Contains(Actions(), action) {
		w.log.Warn("Rejected request on unknown action %q", action)
		w.reply(msg, request, w.session.Snapshot(), fmt.Errorf("%w: %s", ErrUnknownAction, action))

		return
	}

	err = w.applyUpdate(request)
	if err != nil {
		w.reply(msg, request, w.session.Snapshot(), err)

		return
	}

	if action == ActionTranslate {
		go w.handleMessage(action, request, msg)

		return
	}

	w.handleMessage(action, request, msg)
}

func (w *NatsWorker) handleMessage(action string, request Request, msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	state, actionErr := w.dispatch(ctx, action)
	if actionErr != nil {
		w.log.Warn("Action %s for workflow %s failed: %v", action, request.Header.WorkflowID, actionErr)
	}

	w.reply(msg, request, state, actionErr)
}

func (w *NatsWorker) dispatch(ctx context.Context, action string) (app.State, error) {
	switch action {
	case ActionState, ActionUpdate:
		return w.session.Snapshot(), nil
	case ActionVoices:
		return w.session.RefreshVoices(ctx)
	case ActionSpeak:
		return w.session.Speak(ctx)
	case ActionStop:
		return w.session.Stop(), nil
	case ActionClear:
		return w.session.Clear(), nil
	case ActionTranslate:
		return w.session.Translate(ctx)
	default:
		return w.session.Snapshot(), fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

// applyUpdate copies the optional request fields into the session. The speech
// language is applied last so the voice is resolved against the final gender.
func (w *NatsWorker) applyUpdate(request Request) error {
	if request.Gender != nil {
		gender, err := core.ParseGender(*request.Gender)
		if err != nil {
			return fmt.Errorf("invalid update: %w", err)
		}

		w.session.SetGender(gender)
	}

	if request.SourceText != nil {
		w.session.SetSourceText(*request.SourceText)
	}

	if request.TranslatedText != nil {
		w.session.SetTranslatedText(*request.TranslatedText)
	}

	if request.TranslateLanguage != nil {
		w.session.SetTranslateLanguage(*request.TranslateLanguage)
	}

	if request.SpeechLanguage != nil {
		w.session.SetSpeechLanguage(*request.SpeechLanguage)
	}

	return nil
}

func (w *NatsWorker) parseRequest(msg *nats.Msg) (Request, error) {
	var request Request

	if len(msg.Data) == 0 {
		return request, nil
	}

	err := json.Unmarshal(msg.Data, &request)
	if err != nil {
		return Request{}, fmt.Errorf("failed to unmarshal request: %w", err)
	}

	return request, nil
}

func (w *NatsWorker) reply(msg *nats.Msg, request Request, state app.State, actionErr error) {
	reply := Reply{Header: replyHeader(request.Header), State: state, Error: ""}
	if actionErr != nil {
		reply.Error = actionErr.Error()
	}

	w.respond(msg, reply)
}

// respond marshals and sends reply if the request expects one.
func (w *NatsWorker) respond(msg *nats.Msg, reply Reply) {
	if msg.Reply == "" {
		return
	}

	replyData, err := json.Marshal(reply)
	if err != nil {
		w.log.Error("Failed to marshal reply for workflow %s: %v", reply.Header.WorkflowID, err)

		return
	}

	err = msg.Respond(replyData)
	if err != nil {
		w.log.Error("Failed to publish reply for workflow %s: %v", reply.Header.WorkflowID, err)
	}
}
