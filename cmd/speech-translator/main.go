// main package for the speech-translator service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-translator/internal/app"
	"github.com/book-expert/speech-translator/internal/config"
	"github.com/book-expert/speech-translator/internal/core"
	"github.com/book-expert/speech-translator/internal/speech"
	"github.com/book-expert/speech-translator/internal/translate"
	"github.com/book-expert/speech-translator/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "speech-translator.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := logger.New(os.TempDir(), "speech-translator-bootstrap.log")
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	defer func() { _ = bootstrapLog.Close() }()

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return err
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	gender, err := core.ParseGender(cfg.Defaults.Gender)
	if err != nil {
		finalLog.Error("Invalid default gender: %v", err)

		return fmt.Errorf("invalid default gender: %w", err)
	}

	// 4. Connect to NATS
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		finalLog.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	// 5. Build the session
	engine := speech.NewESpeakEngine(cfg.Speech, finalLog)
	translator := translate.NewClient(
		cfg.Translator.BaseURL, cfg.Translator.Model, cfg.Translator.APIKey(), cfg.Translator.Timeout(),
	)
	initial := app.InitialState(
		cfg.Defaults.Text, cfg.Defaults.SpeechLanguage, cfg.Defaults.TranslateLanguage, gender,
	)

	session := app.NewSession(engine, translator, finalLog, initial)
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = session.RefreshVoices(ctx)
	if err != nil {
		finalLog.Warn("Initial voice load failed; voices will be retried: %v", err)
	}

	if interval := cfg.Speech.VoiceRefreshInterval(); interval > 0 {
		go session.WatchVoices(ctx, interval)
	}

	// 6. Serve requests until interrupted
	natsWorker, err := worker.NewNatsWorker(
		natsConnection, cfg.NATS.SubjectPrefix, session, cfg.NATS.RequestTimeout(), finalLog,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	finalLog.System("Speech-translator initialized. Serving requests on subjects %s.*", cfg.NATS.SubjectPrefix)

	err = natsWorker.Run(ctx)
	if err != nil {
		finalLog.Error("Worker stopped with error: %v", err)

		return fmt.Errorf("worker failed: %w", err)
	}

	finalLog.System("Speech-translator shut down.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
