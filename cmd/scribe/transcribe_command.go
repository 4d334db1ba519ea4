package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/journal"
	"scribe/internal/language"
	"scribe/internal/pipeline"
	"scribe/internal/services"
	"scribe/internal/transcribe"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		freeText     string
		outputPath   string
		backendFlag  string
		modelFlag    string
		languageFlag string
		diarizeFlag  bool
		chunkFlag    int
	)

	cmd := &cobra.Command{
		Use:   "transcribe <url-or-file>",
		Short: "Transcribe a shared recording link or a local media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyOverrides(cfg, cmd, backendFlag, modelFlag, languageFlag, diarizeFlag, chunkFlag)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			backend, err := buildBackend(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Backend %s, language %s\n",
				backend.Name(), languageLabel(cfg.Transcription.Language))

			p, err := pipeline.New(pipeline.Options{
				Config:   cfg,
				Backend:  backend,
				Logger:   logger,
				Reporter: cliReporter{out: cmd.ErrOrStderr()},
			})
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			request := buildRequest(args[0], freeText)
			result, runErr := p.Run(runCtx, request)
			recordJournal(cfg, args[0], result, runErr)
			if runErr != nil {
				return runErr
			}

			if result.NoSpeech {
				fmt.Fprintln(cmd.ErrOrStderr(), "No speech detected in the recording.")
				return nil
			}
			return writeTranscript(cmd.OutOrStdout(), outputPath, result.Transcript)
		},
	}

	cmd.Flags().StringVarP(&freeText, "text", "t", "", "Message text accompanying the link (scanned for a passcode)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the transcript to a file instead of stdout")
	cmd.Flags().StringVar(&backendFlag, "backend", "", "Transcription backend (remote or local)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Backend model name")
	cmd.Flags().StringVar(&languageFlag, "language", "", "Language code, or auto")
	cmd.Flags().BoolVar(&diarizeFlag, "diarize", false, "Label speakers in the transcript")
	cmd.Flags().IntVar(&chunkFlag, "chunk-seconds", 0, "Maximum segment length fed to the backend")
	return cmd
}

// applyOverrides folds explicitly set flags into the loaded configuration.
func applyOverrides(cfg *config.Config, cmd *cobra.Command, backend, model, language string, diarize bool, chunk int) {
	if cmd.Flags().Changed("backend") {
		cfg.Transcription.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if cmd.Flags().Changed("model") {
		cfg.Transcription.Model = strings.TrimSpace(model)
	}
	if cmd.Flags().Changed("language") {
		cfg.Transcription.Language = strings.TrimSpace(language)
	}
	if cmd.Flags().Changed("diarize") {
		cfg.Transcription.Diarize = diarize
	}
	if cmd.Flags().Changed("chunk-seconds") && chunk > 0 {
		cfg.Media.ChunkSeconds = chunk
	}
}

// buildRequest treats a source that exists on disk as a local file and
// anything else as a URL.
func buildRequest(source, freeText string) pipeline.Request {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return pipeline.Request{FilePath: source, FreeText: freeText}
	}
	return pipeline.Request{URL: source, FreeText: freeText}
}

// languageLabel renders the configured language for people: "Russian (ru)",
// or "auto-detect" when the backend picks.
func languageLabel(value string) string {
	if language.IsAuto(value) {
		return "auto-detect"
	}
	code := language.Canonical(value)
	if code == "" {
		return value
	}
	return fmt.Sprintf("%s (%s)", language.DisplayName(code), code)
}

func buildBackend(cfg *config.Config) (transcribe.Backend, error) {
	language := cfg.Transcription.Language
	if strings.EqualFold(language, "auto") {
		language = ""
	}

	if cfg.Transcription.Backend == config.BackendLocal {
		model := cfg.Transcription.Model
		// The configured default model names the remote backend's; local
		// whisperx picks its own default instead.
		if model == "nova-2" {
			model = ""
		}
		return transcribe.NewWhisper(transcribe.WhisperConfig{
			Model:          model,
			ComputeProfile: cfg.Transcription.ComputeProfile,
			Language:       language,
			WorkDir:        cfg.Paths.StagingDir,
		}), nil
	}

	if cfg.Transcription.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "", "api_key is required for the remote backend", nil)
	}
	return transcribe.NewDeepgram(transcribe.DeepgramConfig{
		APIKey:   cfg.Transcription.APIKey,
		BaseURL:  cfg.Transcription.BaseURL,
		Model:    cfg.Transcription.Model,
		Language: language,
		Diarize:  cfg.Transcription.Diarize,
		Timeout:  time.Duration(cfg.Transcription.RequestTimeout) * time.Second,
	}, nil), nil
}

// recordJournal best-effort records the run outcome; journal problems never
// mask the pipeline result.
func recordJournal(cfg *config.Config, source string, result pipeline.Result, runErr error) {
	if !cfg.Journal.Enabled || cfg.Journal.Path == "" {
		return
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return
	}
	defer store.Close()

	entry := journal.Entry{
		RequestID:       result.RequestID,
		Source:          source,
		Provider:        result.Provider,
		Backend:         result.Backend,
		Status:          journal.StatusCompleted,
		DurationSeconds: result.DurationSeconds,
		Segments:        result.Segments,
		TranscriptChars: len(result.Transcript),
	}
	switch {
	case runErr != nil:
		entry.Status = journal.StatusFailed
		entry.FailureKind = services.Kind(runErr)
	case result.NoSpeech:
		entry.Status = journal.StatusNoSpeech
	}
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = store.Record(recordCtx, entry)
}

func writeTranscript(stdout io.Writer, outputPath, transcript string) error {
	if outputPath == "" {
		fmt.Fprintln(stdout, transcript)
		return nil
	}
	expanded, err := config.ExpandPath(outputPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(expanded, []byte(transcript+"\n"), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// cliReporter prints stage transitions for interactive runs.
type cliReporter struct {
	out io.Writer
}

func (r cliReporter) StageStarted(_ context.Context, stage, detail string) {
	if detail != "" {
		fmt.Fprintf(r.out, "==> %s (%s)\n", stage, detail)
		return
	}
	fmt.Fprintf(r.out, "==> %s\n", stage)
}
