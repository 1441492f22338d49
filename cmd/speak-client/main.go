// main package for the speak-client command, which drives a speech-translator
// session over NATS.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"time"

	"github.com/book-expert/speech-translator/internal/config"
	"github.com/book-expert/speech-translator/internal/core"
	"github.com/book-expert/speech-translator/internal/worker"
	"github.com/nats-io/nats.go"
)

// Flag names.
const (
	flagAction      = "action"
	flagText        = "text"
	flagTranslated  = "translated"
	flagLang        = "lang"
	flagTranslateTo = "translate-to"
	flagGender      = "gender"
	flagConfig      = "config"
	flagNATSURL     = "nats-url"
	flagTimeout     = "timeout"
)

// Flag descriptions.
const (
	flagActionDesc      = "Action to perform: state, voices, update, speak, stop, clear or translate"
	flagTextDesc        = "Source text to set before the action"
	flagTranslatedDesc  = "Translated text to set before the action"
	flagLangDesc        = "Speech language tag, e.g. hi-IN"
	flagTranslateToDesc = "Translation target language tag, e.g. ta-IN"
	flagGenderDesc      = "Preferred voice gender: male or female"
	flagConfigDesc      = "Path to project.toml holding the NATS settings"
	flagNATSURLDesc     = "NATS server URL; overrides the config file"
	flagTimeoutDesc     = "How long to wait for the reply"
)

const defaultTimeout = 30 * time.Second

var (
	errUnknownAction = errors.New("unknown action")
	errActionFailed  = errors.New("action failed")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	action      string
	text        string
	translated  string
	lang        string
	translateTo string
	gender      string
	config      string
	natsURL     string
	timeout     time.Duration
	// set records which optional flags were given explicitly.
	set map[string]bool
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	request, err := buildRequest(flags)
	if err != nil {
		return err
	}

	url, prefix, err := connectionSettings(flags)
	if err != nil {
		return err
	}

	natsConnection, err := nats.Connect(url)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	defer natsConnection.Close()

	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	replyMsg, err := natsConnection.Request(worker.Subject(prefix, flags.action), data, flags.timeout)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", flags.action, err)
	}

	var reply worker.Reply

	err = json.Unmarshal(replyMsg.Data, &reply)
	if err != nil {
		return fmt.Errorf("failed to unmarshal reply: %w", err)
	}

	err = printReply(out, reply)
	if err != nil {
		return err
	}

	if reply.Error != "" {
		return fmt.Errorf("%w: %s", errActionFailed, reply.Error)
	}

	return nil
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	flags := appFlags{set: make(map[string]bool)}

	flagSet := flag.NewFlagSet("speak-client", flag.ContinueOnError)
	flagSet.StringVar(&flags.action, flagAction, worker.ActionState, flagActionDesc)
	flagSet.StringVar(&flags.text, flagText, "", flagTextDesc)
	flagSet.StringVar(&flags.translated, flagTranslated, "", flagTranslatedDesc)
	flagSet.StringVar(&flags.lang, flagLang, "", flagLangDesc)
	flagSet.StringVar(&flags.translateTo, flagTranslateTo, "", flagTranslateToDesc)
	flagSet.StringVar(&flags.gender, flagGender, "", flagGenderDesc)
	flagSet.StringVar(&flags.config, flagConfig, "", flagConfigDesc)
	flagSet.StringVar(&flags.natsURL, flagNATSURL, "", flagNATSURLDesc)
	flagSet.DurationVar(&flags.timeout, flagTimeout, defaultTimeout, flagTimeoutDesc)

	err := flagSet.Parse(args)
	if err != nil {
		return appFlags{}, fmt.Errorf("failed to parse flags: %w", err)
	}

	flagSet.Visit(func(f *flag.Flag) { flags.set[f.Name] = true })

	if !slices.Contains(worker.Actions(), flags.action) {
		return appFlags{}, fmt.Errorf("%w: %q", errUnknownAction, flags.action)
	}

	return flags, nil
}

// buildRequest copies the explicitly given flags into a request. An empty -text
// still clears the source buffer.
func buildRequest(flags appFlags) (worker.Request, error) {
	request := worker.Request{
		Header:            worker.NewHeader(),
		SourceText:        optional(flags, flagText, flags.text),
		TranslatedText:    optional(flags, flagTranslated, flags.translated),
		SpeechLanguage:    optional(flags, flagLang, flags.lang),
		TranslateLanguage: optional(flags, flagTranslateTo, flags.translateTo),
		Gender:            nil,
	}

	if flags.set[flagGender] {
		gender, err := core.ParseGender(flags.gender)
		if err != nil {
			return worker.Request{}, fmt.Errorf("invalid -%s: %w", flagGender, err)
		}

		value := string(gender)
		request.Gender = &value
	}

	return request, nil
}

// connectionSettings resolves the NATS URL and subject prefix from the config
// file, if any, and the -nats-url override.
func connectionSettings(flags appFlags) (string, string, error) {
	var cfg config.Config

	if flags.config != "" {
		loaded, err := config.LoadFile(flags.config)
		if err != nil {
			return "", "", fmt.Errorf("failed to load configuration: %w", err)
		}

		cfg = *loaded
	} else {
		cfg.ApplyDefaults()
	}

	url := cfg.NATS.URL
	if flags.natsURL != "" {
		url = flags.natsURL
	}

	return url, cfg.NATS.SubjectPrefix, nil
}

func printReply(out io.Writer, reply worker.Reply) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(reply.State)
	if err != nil {
		return fmt.Errorf("failed to print state: %w", err)
	}

	_, err = fmt.Fprintf(out, "Status: %s\n", reply.State.Status)
	if err != nil {
		return fmt.Errorf("failed to print status: %w", err)
	}

	return nil
}

func optional(flags appFlags, name, value string) *string {
	if !flags.set[name] {
		return nil
	}

	return &value
}
