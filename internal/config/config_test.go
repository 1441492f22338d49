// Package config_test tests the configuration loading for the speech-translator.
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/speech-translator/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[nats]
url = "nats://127.0.0.1:4222"
subject_prefix = "tts"
request_timeout_seconds = 45

[translator]
base_url = "http://localhost:9999/v1beta"
model = "gemini-2.0-flash"
api_key_env = "TEST_TRANSLATOR_KEY"
timeout_seconds = 20

[speech]
binary_path = "/usr/bin/espeak-ng"
words_per_minute = 150
pitch = 40
voice_refresh_seconds = 60

[speech.default_regions]
hi = "IN"

[defaults]
speech_language = "hi-IN"
translate_language = "ta-IN"
gender = "male"

[paths]
base_logs_dir = "/var/log/speech"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	cfg.ApplyDefaults()

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "tts", cfg.NATS.SubjectPrefix)
	assert.Equal(t, 45*time.Second, cfg.NATS.RequestTimeout())
	assert.Equal(t, "http://localhost:9999/v1beta", cfg.Translator.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Translator.Model)
	assert.Equal(t, 20*time.Second, cfg.Translator.Timeout())
	assert.Equal(t, "/usr/bin/espeak-ng", cfg.Speech.BinaryPath)
	assert.Equal(t, 150, cfg.Speech.WordsPerMinute)
	assert.Equal(t, 40, cfg.Speech.Pitch)
	assert.Equal(t, time.Minute, cfg.Speech.VoiceRefreshInterval())
	assert.Equal(t, map[string]string{"hi": "IN"}, cfg.Speech.DefaultRegions)
	assert.Equal(t, "hi-IN", cfg.Defaults.SpeechLanguage)
	assert.Equal(t, "ta-IN", cfg.Defaults.TranslateLanguage)
	assert.Equal(t, "male", cfg.Defaults.Gender)
	assert.Equal(t, config.DefaultText, cfg.Defaults.Text)
	assert.Equal(t, "/var/log/speech", cfg.Paths.BaseLogsDir)
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	cfg.ApplyDefaults()

	assert.Equal(t, config.DefaultNATSURL, cfg.NATS.URL)
	assert.Equal(t, config.DefaultSubjectPrefix, cfg.NATS.SubjectPrefix)
	assert.Equal(t, config.DefaultTranslatorBaseURL, cfg.Translator.BaseURL)
	assert.Equal(t, config.DefaultTranslatorModel, cfg.Translator.Model)
	assert.Equal(t, config.DefaultAPIKeyEnv, cfg.Translator.APIKeyEnv)
	assert.Zero(t, cfg.Translator.Timeout())
	assert.Equal(t, config.DefaultBinaryPath, cfg.Speech.BinaryPath)
	assert.Equal(t, config.DefaultWordsPerMinute, cfg.Speech.WordsPerMinute)
	assert.Equal(t, "IN", cfg.Speech.DefaultRegions["mr"])
	assert.Equal(t, config.DefaultGender, cfg.Defaults.Gender)
	assert.NotEmpty(t, cfg.Paths.BaseLogsDir)
}

func TestTranslatorAPIKey(t *testing.T) {
	t.Setenv("SPEECH_TRANSLATOR_TEST_KEY", "secret")

	cfg := config.TranslatorConfig{
		BaseURL:        "",
		Model:          "",
		APIKeyEnv:      "SPEECH_TRANSLATOR_TEST_KEY",
		TimeoutSeconds: 0,
	}

	assert.Equal(t, "secret", cfg.APIKey())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "project.toml")
	err := os.WriteFile(path, []byte("[nats]\nurl = \"nats://example:4222\"\n"), 0o600)
	require.NoError(t, err)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://example:4222", cfg.NATS.URL)
	assert.Equal(t, config.DefaultSubjectPrefix, cfg.NATS.SubjectPrefix)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[nats\n"), 0o600))

	_, err = config.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
