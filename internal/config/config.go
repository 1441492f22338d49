// Package config provides the configuration structure for the speech-translator.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// Defaults applied to zero-valued settings after loading.
const (
	DefaultNATSURL            = "nats://127.0.0.1:4222"
	DefaultSubjectPrefix      = "speech"
	DefaultTranslatorBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTranslatorModel    = "gemini-2.0-flash"
	DefaultAPIKeyEnv          = "GEMINI_API_KEY"
	DefaultBinaryPath         = "espeak-ng"
	DefaultWordsPerMinute     = 160
	DefaultPitch              = 50
	DefaultSpeechLanguage     = "en-US"
	DefaultTranslateLanguage  = "en-US"
	DefaultGender             = "female"
	DefaultRequestTimeoutSecs = 30
	DefaultText               = "Hello! This is a multi-language text-to-speech and translation converter."
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                   string `toml:"url"`
	SubjectPrefix         string `toml:"subject_prefix"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// TranslatorConfig holds the configuration for the remote translation API.
type TranslatorConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	// APIKeyEnv names the environment variable that holds the API key.
	APIKeyEnv string `toml:"api_key_env"`
	// TimeoutSeconds of zero disables the request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// SpeechConfig holds the configuration for the local speech engine.
type SpeechConfig struct {
	BinaryPath          string `toml:"binary_path"`
	WordsPerMinute      int    `toml:"words_per_minute"`
	Pitch               int    `toml:"pitch"`
	VoiceRefreshSeconds int    `toml:"voice_refresh_seconds"`
	// DefaultRegions completes region-less engine language codes, e.g. "hi" -> "IN".
	DefaultRegions map[string]string `toml:"default_regions"`
}

// DefaultsConfig holds the initial session selections.
type DefaultsConfig struct {
	SpeechLanguage    string `toml:"speech_language"`
	TranslateLanguage string `toml:"translate_language"`
	Gender            string `toml:"gender"`
	Text              string `toml:"text"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS       NATSConfig       `toml:"nats"`
	Translator TranslatorConfig `toml:"translator"`
	Speech     SpeechConfig     `toml:"speech"`
	Defaults   DefaultsConfig   `toml:"defaults"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads the configuration for the speech-translator.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// LoadFile reads the configuration from a TOML file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills zero-valued settings.
func (c *Config) ApplyDefaults() {
	setDefault(&c.NATS.URL, DefaultNATSURL)
	setDefault(&c.NATS.SubjectPrefix, DefaultSubjectPrefix)
	setDefault(&c.Translator.BaseURL, DefaultTranslatorBaseURL)
	setDefault(&c.Translator.Model, DefaultTranslatorModel)
	setDefault(&c.Translator.APIKeyEnv, DefaultAPIKeyEnv)
	setDefault(&c.Speech.BinaryPath, DefaultBinaryPath)
	setDefault(&c.Defaults.SpeechLanguage, DefaultSpeechLanguage)
	setDefault(&c.Defaults.TranslateLanguage, DefaultTranslateLanguage)
	setDefault(&c.Defaults.Gender, DefaultGender)
	setDefault(&c.Defaults.Text, DefaultText)

	if c.NATS.RequestTimeoutSeconds <= 0 {
		c.NATS.RequestTimeoutSeconds = DefaultRequestTimeoutSecs
	}

	if c.Speech.WordsPerMinute <= 0 {
		c.Speech.WordsPerMinute = DefaultWordsPerMinute
	}

	if c.Speech.Pitch <= 0 {
		c.Speech.Pitch = DefaultPitch
	}

	if c.Speech.DefaultRegions == nil {
		c.Speech.DefaultRegions = map[string]string{"hi": "IN", "mr": "IN", "ta": "IN"}
	}

	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = os.TempDir()
	}
}

// APIKey returns the translation API key from the environment. An empty key is allowed.
func (t TranslatorConfig) APIKey() string {
	return os.Getenv(t.APIKeyEnv)
}

// Timeout returns the translation request timeout; zero means none.
func (t TranslatorConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// VoiceRefreshInterval returns how often engine voices are re-read; zero disables refreshing.
func (s SpeechConfig) VoiceRefreshInterval() time.Duration {
	return time.Duration(s.VoiceRefreshSeconds) * time.Second
}

// RequestTimeout bounds the handling of one NATS request.
func (n NATSConfig) RequestTimeout() time.Duration {
	return time.Duration(n.RequestTimeoutSeconds) * time.Second
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
