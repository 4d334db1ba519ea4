// Package pipeline orchestrates one transcription request end to end:
// resolve, fetch, guard, normalize, chunk, transcribe, assemble. The pipeline
// holds no state between runs; every run works inside its own staging
// directory which is removed on completion, success or failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"scribe/internal/chunking"
	"scribe/internal/config"
	"scribe/internal/fetch"
	"scribe/internal/links"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/services"
	"scribe/internal/transcribe"
	"scribe/internal/transcript"
)

// Request describes one transcription job. Exactly one of URL and FilePath
// must be set.
type Request struct {
	// URL is a remote source link, possibly a provider share link.
	URL string
	// FilePath is a local source file, bypassing acquisition.
	FilePath string
	// FreeText is the message text accompanying the link; scanned for an
	// access secret.
	FreeText string
}

// Result is the outcome of a completed run.
type Result struct {
	RequestID  string
	Transcript string
	// NoSpeech marks a run that completed normally but found nothing to
	// transcribe. Distinct from failure.
	NoSpeech        bool
	Provider        string
	Backend         string
	DurationSeconds float64
	Segments        int
}

// Options assembles a pipeline. Config and Backend are required; the rest
// default sensibly.
type Options struct {
	Config   *config.Config
	Backend  transcribe.Backend
	Logger   *slog.Logger
	Reporter Reporter
	// Client overrides the HTTP client used for acquisition. It must carry a
	// cookie jar for session-gated providers.
	Client fetch.Doer
	// Toolchain overrides the media toolchain, for tests.
	Toolchain *media.Toolchain
}

// Pipeline runs transcription requests. Safe for sequential reuse; one
// Pipeline processes one request at a time.
type Pipeline struct {
	cfg       *config.Config
	backend   transcribe.Backend
	logger    *slog.Logger
	reporter  Reporter
	client    fetch.Doer
	toolchain *media.Toolchain
}

// New validates the options and assembles a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline requires a config")
	}
	if opts.Backend == nil {
		return nil, errors.New("pipeline requires a transcription backend")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}
	client := opts.Client
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("build cookie jar: %w", err)
		}
		client = &http.Client{
			Jar:     jar,
			Timeout: time.Duration(opts.Config.Acquisition.FetchTimeout) * time.Second,
		}
	}
	toolchain := opts.Toolchain
	if toolchain == nil {
		toolchain = media.NewToolchain(
			opts.Config.Media.FFmpegBinary,
			opts.Config.Media.FFprobeBinary,
			time.Duration(opts.Config.Media.NormalizeTimeoutBase)*time.Second,
		)
	}
	return &Pipeline{
		cfg:       opts.Config,
		backend:   opts.Backend,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		reporter:  reporter,
		client:    client,
		toolchain: toolchain,
	}, nil
}

// Run executes one request. All intermediate files live under a per-request
// staging directory which is removed before Run returns.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	result := Result{RequestID: requestID, Backend: p.backend.Name()}

	if (req.URL == "") == (req.FilePath == "") {
		return result, services.Wrap(services.ErrLinkUnsupported, "run", "",
			"exactly one of URL and FilePath must be set", nil)
	}

	workDir := filepath.Join(p.cfg.Paths.StagingDir, "req-"+requestID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logging.WithContext(ctx, p.logger).Warn("staging cleanup failed",
				logging.String("dir", workDir), logging.Error(err))
		}
	}()

	sourcePath, provider, err := p.acquire(ctx, req, workDir)
	if err != nil {
		return result, err
	}
	result.Provider = provider

	p.reporter.StageStarted(ctx, "normalize", "")
	ctx = services.WithStage(ctx, "normalize")
	audio, err := p.toolchain.Normalize(ctx, sourcePath, filepath.Join(workDir, "audio.wav"))
	if err != nil {
		return result, err
	}
	result.DurationSeconds = audio.DurationSeconds
	// The raw source is no longer needed once the waveform exists.
	if sourcePath != req.FilePath {
		_ = os.Remove(sourcePath)
	}

	segments := chunking.Plan(audio.DurationSeconds, float64(p.cfg.Media.ChunkSeconds))
	result.Segments = len(segments)
	logging.WithContext(ctx, p.logger).Info("chunk plan ready",
		logging.Float64("duration_seconds", audio.DurationSeconds),
		logging.Int("segments", len(segments)))

	text, err := p.transcribeSegments(ctx, audio.Path, workDir, segments)
	if err != nil {
		return result, err
	}

	result.Transcript = text
	result.NoSpeech = text == ""
	return result, nil
}

// acquire produces a local source file for the request, fetching remote
// links through the provider-specific strategy and validating the payload.
func (p *Pipeline) acquire(ctx context.Context, req Request, workDir string) (string, string, error) {
	if req.FilePath != "" {
		p.reporter.StageStarted(ctx, "acquire", "local file")
		info, err := os.Stat(req.FilePath)
		if err != nil {
			return "", "", services.Wrap(services.ErrFetchFailed, "acquire", "local", "source file", err)
		}
		result := fetch.Result{Path: req.FilePath, Bytes: info.Size()}
		if err := fetch.Validate(result, p.cfg.Acquisition.MinBytes); err != nil {
			return "", "", err
		}
		return req.FilePath, "local", nil
	}

	ctx = services.WithStage(ctx, "acquire")
	link, err := links.Resolve(req.URL, req.FreeText)
	if err != nil {
		return "", "", err
	}
	provider := link.Provider.String()
	p.reporter.StageStarted(ctx, "acquire", provider)
	logging.WithContext(ctx, p.logger).Info("fetching source",
		logging.String("provider", provider),
		logging.String("url", link.FetchURL))

	fetcher := fetch.New(link.Provider, p.client, p.cfg.Acquisition.UserAgent)
	dest := filepath.Join(workDir, "source.bin")
	fetched, err := fetcher.Fetch(ctx, link, dest)
	if err != nil {
		return "", provider, err
	}
	if err := fetch.Validate(fetched, p.cfg.Acquisition.MinBytes); err != nil {
		return "", provider, err
	}
	return fetched.Path, provider, nil
}

// transcribeSegments materializes and transcribes each planned segment in
// ordinal order, holding at most one cut segment on disk at a time.
func (p *Pipeline) transcribeSegments(ctx context.Context, audioPath, workDir string, segments []chunking.Segment) (string, error) {
	ctx = services.WithStage(ctx, "transcribe")
	materializer := chunking.NewMaterializer(audioPath, workDir, p.toolchain, len(segments))
	assembler := transcript.NewAssembler(len(segments))

	for _, seg := range segments {
		p.reporter.StageStarted(ctx, "transcribe", fmt.Sprintf("segment %d/%d", seg.Index+1, len(segments)))
		segPath, owned, err := materializer.Materialize(ctx, seg)
		if err != nil {
			return "", err
		}
		text, err := p.backend.Transcribe(ctx, segPath)
		if owned {
			_ = os.Remove(segPath)
		}
		if err != nil {
			return "", err
		}
		if err := assembler.Add(transcript.Fragment{Index: seg.Index, Text: text}); err != nil {
			return "", services.Wrap(services.ErrTranscriptionFailed, "assemble", "", "collect fragment", err)
		}
	}

	text, err := assembler.Assemble()
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "assemble", "", "join fragments", err)
	}
	return text, nil
}
