package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-translator/internal/app"
	"github.com/book-expert/speech-translator/internal/config"
	"github.com/book-expert/speech-translator/internal/core"
	"github.com/book-expert/speech-translator/internal/worker"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentEngine reports one voice and holds utterances until cancelled.
type silentEngine struct{}

func (silentEngine) Voices(_ context.Context) ([]core.Voice, error) {
	return []core.Voice{{ID: "hi-m", Name: "Ravi Indian Male", Lang: "hi-IN"}}, nil
}

func (silentEngine) Speak(ctx context.Context, _ core.Utterance) error {
	<-ctx.Done()

	return ctx.Err()
}

// echoTranslator returns the source text unchanged.
type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantAction string
		wantSet    []string
		wantErr    bool
	}{
		{
			name:       "defaults to state",
			args:       nil,
			wantAction: worker.ActionState,
			wantSet:    nil,
			wantErr:    false,
		},
		{
			name:       "speak with text and language",
			args:       []string{"-action", "speak", "-text", "नमस्ते", "-lang", "hi-IN", "-gender", "male"},
			wantAction: worker.ActionSpeak,
			wantSet:    []string{flagText, flagLang, flagGender},
			wantErr:    false,
		},
		{
			name:       "unknown action",
			args:       []string{"-action", "sing"},
			wantAction: "",
			wantSet:    nil,
			wantErr:    true,
		},
		{
			name:       "unknown flag",
			args:       []string{"-volume", "11"},
			wantAction: "",
			wantSet:    nil,
			wantErr:    true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			flags, err := parseFlags(testCase.args)
			if testCase.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.wantAction, flags.action)
			assert.Equal(t, defaultTimeout, flags.timeout)

			for _, name := range testCase.wantSet {
				assert.True(t, flags.set[name], "flag %s should be recorded as set", name)
			}
		})
	}
}

func TestBuildRequest(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{"-text", "", "-translate-to", "ta-IN", "-gender", "Female"})
	require.NoError(t, err)

	request, err := buildRequest(flags)
	require.NoError(t, err)

	require.NotNil(t, request.SourceText)
	assert.Empty(t, *request.SourceText)
	require.NotNil(t, request.TranslateLanguage)
	assert.Equal(t, "ta-IN", *request.TranslateLanguage)
	require.NotNil(t, request.Gender)
	assert.Equal(t, "female", *request.Gender)
	assert.Nil(t, request.TranslatedText)
	assert.Nil(t, request.SpeechLanguage)
	assert.NotEmpty(t, request.Header.WorkflowID)
}

func TestBuildRequest_InvalidGender(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{"-gender", "robot"})
	require.NoError(t, err)

	_, err = buildRequest(flags)
	require.ErrorIs(t, err, core.ErrUnknownGender)
}

func TestConnectionSettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "project.toml")
	err := os.WriteFile(path, []byte("[nats]\nurl = \"nats://config:4222\"\nsubject_prefix = \"desk\"\n"), 0o600)
	require.NoError(t, err)

	flags, err := parseFlags([]string{"-config", path})
	require.NoError(t, err)

	url, prefix, err := connectionSettings(flags)
	require.NoError(t, err)
	assert.Equal(t, "nats://config:4222", url)
	assert.Equal(t, "desk", prefix)

	flags, err = parseFlags([]string{"-nats-url", "nats://override:4222"})
	require.NoError(t, err)

	url, prefix, err = connectionSettings(flags)
	require.NoError(t, err)
	assert.Equal(t, "nats://override:4222", url)
	assert.Equal(t, config.DefaultSubjectPrefix, prefix)
}

func TestRun_SpeakOverNATS(t *testing.T) {
	t.Parallel()

	opts := test.DefaultTestOptions
	opts.Port = -1
	server := test.RunServer(&opts)
	t.Cleanup(server.Shutdown)

	natsConnection, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	testLogger, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = testLogger.Close() })

	session := app.NewSession(silentEngine{}, echoTranslator{}, testLogger,
		app.InitialState("", "hi-IN", "hi-IN", core.GenderMale))
	t.Cleanup(session.Close)

	_, err = session.RefreshVoices(context.Background())
	require.NoError(t, err)

	natsWorker, err := worker.NewNatsWorker(natsConnection, config.DefaultSubjectPrefix, session, 5*time.Second, testLogger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() { _ = natsWorker.Run(ctx) }()

	var out bytes.Buffer

	require.Eventually(t, func() bool {
		out.Reset()

		return run([]string{"-nats-url", server.ClientURL(), "-action", "speak", "-text", "नमस्ते"}, &out) == nil
	}, 5*time.Second, 20*time.Millisecond)

	assert.Contains(t, out.String(), "Status: "+app.StatusSpeaking)
	assert.True(t, session.Snapshot().Speaking)

	out.Reset()

	err = run([]string{"-nats-url", server.ClientURL(), "-action", "speak", "-text", ""}, &out)
	require.ErrorIs(t, err, errActionFailed)
	assert.Contains(t, out.String(), "Status: "+app.StatusNoSpeechText)
}
