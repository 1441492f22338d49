package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-translator/internal/config"
	"github.com/book-expert/speech-translator/internal/core"
	"github.com/book-expert/speech-translator/internal/speech/text"
)

// espeak-ng voice listing columns: Pty Language Age/Gender VoiceName File [Other Languages].
const (
	voiceListMinFields = 5
	voiceListLangCol   = 1
	voiceListNameCol   = 3
	voiceListHeader    = "Pty"
)

// Gendered variants exposed for every espeak voice.
const (
	variantMale   = "+m3"
	variantFemale = "+f3"
	labelMale     = "Male"
	labelFemale   = "Female"
	regionIndia   = "IN"
	labelIndia    = "India"
)

const (
	errFmtListVoices  = "failed to list espeak-ng voices: %w - output: %s"
	logFmtVoicesFound = "Found %d espeak-ng voices (%d descriptors)"
)

// ESpeakEngine implements core.SpeechEngine by running the espeak-ng binary.
// Each espeak voice is offered as a male and a female descriptor.
type ESpeakEngine struct {
	config     config.SpeechConfig
	normalizer *text.Normalizer
	log        *logger.Logger
}

// NewESpeakEngine creates an engine for the configured espeak-ng binary.
func NewESpeakEngine(cfg config.SpeechConfig, log *logger.Logger) *ESpeakEngine {
	return &ESpeakEngine{
		config:     cfg,
		normalizer: text.NewNormalizer(),
		log:        log,
	}
}

// Voices lists the voices installed for espeak-ng.
func (e *ESpeakEngine) Voices(ctx context.Context) ([]core.Voice, error) {
	// #nosec G204 -- binary path comes from trusted configuration
	cmd := exec.CommandContext(ctx, e.config.BinaryPath, "--voices")

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf(errFmtListVoices, err, string(output))
	}

	voices, count := parseVoiceList(output, e.config.DefaultRegions)

	e.log.Info(logFmtVoicesFound, count, len(voices))

	return voices, nil
}

// Speak runs espeak-ng for the utterance and blocks until it exits.
// Cancelling ctx kills the process.
func (e *ESpeakEngine) Speak(ctx context.Context, utterance core.Utterance) error {
	spoken := e.normalizer.Normalize(utterance.Text)
	if spoken == "" {
		return core.ErrNoInputText
	}

	args := []string{
		"-v", utterance.Voice.ID,
		"-s", strconv.Itoa(e.config.WordsPerMinute),
		"-p", strconv.Itoa(e.config.Pitch),
		"--", spoken,
	}

	// #nosec G204 -- text is passed as a single argument after "--"
	cmd := exec.CommandContext(ctx, e.config.BinaryPath, args...)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("espeak-ng interrupted: %w", ctx.Err())
		}

		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = err.Error()
		}

		return &core.EngineError{Reason: reason}
	}

	return nil
}

// parseVoiceList converts "espeak-ng --voices" output into descriptors and
// returns them with the number of espeak voices read.
func parseVoiceList(output []byte, regions map[string]string) ([]core.Voice, int) {
	var (
		voices []core.Voice
		count  int
	)

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < voiceListMinFields || fields[0] == voiceListHeader {
			continue
		}

		code := fields[voiceListLangCol]
		tag := languageTag(code, regions)
		name := strings.ReplaceAll(fields[voiceListNameCol], "_", " ")

		if strings.HasSuffix(tag, "-"+regionIndia) && !strings.Contains(name, labelIndia) {
			name += " " + labelIndia
		}

		count++

		voices = append(voices,
			core.Voice{ID: code + variantMale, Name: name + " " + labelMale, Lang: tag},
			core.Voice{ID: code + variantFemale, Name: name + " " + labelFemale, Lang: tag},
		)
	}

	return voices, count
}

// languageTag converts an espeak language code such as "en-gb" into "en-GB".
// Region-less codes get their configured default region.
func languageTag(code string, regions map[string]string) string {
	parts := strings.Split(code, "-")

	if len(parts) == 1 {
		region, ok := regions[code]
		if !ok {
			return code
		}

		return code + "-" + strings.ToUpper(region)
	}

	// Only a two-letter second subtag is a region; "en-029" or "en-gb-x-rp" keep their shape.
	if len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}

	return strings.Join(parts, "-")
}
