// Package speech_test tests the speech controller and the espeak-ng engine.
package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-translator/internal/core"
	"github.com/book-expert/speech-translator/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

var errMockEngine = errors.New("audio-busy")

// mockEngine speaks until its utterance is released or cancelled.
type mockEngine struct {
	mu              sync.Mutex
	speakShouldFail bool
	started         chan core.Utterance
	release         chan struct{}
	active          int
	maxActive       int
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		mu:              sync.Mutex{},
		speakShouldFail: false,
		started:         make(chan core.Utterance, 16),
		release:         make(chan struct{}),
		active:          0,
		maxActive:       0,
	}
}

func (m *mockEngine) Voices(_ context.Context) ([]core.Voice, error) {
	return []core.Voice{testVoice()}, nil
}

func (m *mockEngine) Speak(ctx context.Context, utterance core.Utterance) error {
	m.mu.Lock()
	m.active++
	m.maxActive = max(m.maxActive, m.active)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	m.started <- utterance

	if m.speakShouldFail {
		return errMockEngine
	}

	select {
	case <-m.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockEngine) activeCount() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active, m.maxActive
}

func testVoice() core.Voice {
	return core.Voice{ID: "hi+f3", Name: "Hindi India Female", Lang: "hi-IN"}
}

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	return log
}

func waitStarted(t *testing.T, engine *mockEngine) core.Utterance {
	t.Helper()

	select {
	case utterance := <-engine.started:
		return utterance
	case <-time.After(waitTimeout):
		t.Fatal("utterance did not start")

		return core.Utterance{Text: "", Voice: core.Voice{ID: "", Name: "", Lang: ""}}
	}
}

func TestController_SpeakAndNaturalCompletion(t *testing.T) {
	t.Parallel()

	engine := newMockEngine()
	controller := speech.NewController(engine, createTestLogger(t))
	v := testVoice()

	playback, err := controller.Speak(context.Background(), "  नमस्ते  ", &v)
	require.NoError(t, err)

	utterance := waitStarted(t, engine)
	assert.Equal(t, "नमस्ते", utterance.Text)
	assert.Equal(t, "hi-IN", utterance.Lang())
	assert.Equal(t, speech.Speaking, controller.State())

	close(engine.release)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	require.NoError(t, playback.Wait(ctx))
	assert.Equal(t, speech.Idle, controller.State())
	assert.False(t, controller.Stop())
}

func TestController_RejectsEmptyTextAndMissingVoice(t *testing.T) {
	t.Parallel()

	engine := newMockEngine()
	controller := speech.NewController(engine, createTestLogger(t))
	v := testVoice()

	_, err := controller.Speak(context.Background(), " \n\t ", &v)
	require.ErrorIs(t, err, core.ErrNoInputText)

	_, err = controller.Speak(context.Background(), "hello", nil)
	require.ErrorIs(t, err, core.ErrNoVoiceAvailable)

	assert.Equal(t, speech.Idle, controller.State())
}

func TestController_StopCancels(t *testing.T) {
	t.Parallel()

	engine := newMockEngine()
	controller := speech.NewController(engine, createTestLogger(t))
	v := testVoice()

	playback, err := controller.Speak(context.Background(), "hello", &v)
	require.NoError(t, err)
	waitStarted(t, engine)

	assert.True(t, controller.Stop())
	assert.Equal(t, speech.Idle, controller.State())

	<-playback.Done()
	require.ErrorIs(t, playback.Err(), speech.ErrCancelled)
}

func TestController_SpeakReplacesActiveUtterance(t *testing.T) {
	t.Parallel()

	engine := newMockEngine()
	controller := speech.NewController(engine, createTestLogger(t))
	v := testVoice()

	first, err := controller.Speak(context.Background(), "first", &v)
	require.NoError(t, err)
	waitStarted(t, engine)

	second, err := controller.Speak(context.Background(), "second", &v)
	require.NoError(t, err)
	waitStarted(t, engine)

	require.ErrorIs(t, first.Err(), speech.ErrCancelled)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, speech.Speaking, controller.State())

	active, maxActive := engine.activeCount()
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, maxActive)

	controller.Stop()
}

func TestController_EngineError(t *testing.T) {
	t.Parallel()

	engine := newMockEngine()
	engine.speakShouldFail = true
	controller := speech.NewController(engine, createTestLogger(t))
	v := testVoice()

	playback, err := controller.Speak(context.Background(), "hello", &v)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	waitErr := playback.Wait(ctx)

	var engineErr *core.EngineError
	require.ErrorAs(t, waitErr, &engineErr)
	assert.Equal(t, "audio-busy", engineErr.Reason)
	assert.Equal(t, speech.Idle, controller.State())
}

func TestController_CallerContextDoesNotCancelUtterance(t *testing.T) {
	t.Parallel()

	engine := newMockEngine()
	controller := speech.NewController(engine, createTestLogger(t))
	v := testVoice()

	requestCtx, cancelRequest := context.WithCancel(context.Background())

	playback, err := controller.Speak(requestCtx, "hello", &v)
	require.NoError(t, err)
	waitStarted(t, engine)

	cancelRequest()
	assert.Equal(t, speech.Speaking, controller.State())

	close(engine.release)
	<-playback.Done()
	require.NoError(t, playback.Err())
}
