package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	langpkg "scribe/internal/language"
	"scribe/internal/services"
)

// Command and argument defaults for local transcription.
const (
	uvxCommand          = "uvx"
	whisperTool         = "whisperx"
	defaultWhisperModel = "large-v3"
	defaultCompute      = "float32"
	whisperBatchSize    = "4"
	whisperOutputFormat = "json"

	lockRetryDelay = 250 * time.Millisecond
)

// WhisperConfig carries the local backend settings.
type WhisperConfig struct {
	Model string
	// ComputeProfile maps to whisperx --compute_type (float32, int8, ...).
	ComputeProfile string
	// Language is an ISO code; empty lets the model detect.
	Language string
	// WorkDir receives whisperx JSON output and the inter-process lock file.
	WorkDir string
}

// Whisper runs transcription through a local whisperx install launched via
// uvx. Model inference saturates the machine, so concurrent runs are
// serialized both within the process (mutex) and across processes (lock
// file).
type Whisper struct {
	cfg    WhisperConfig
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)

	mu   sync.Mutex
	lock *flock.Flock

	initOnce sync.Once
	initErr  error
}

// NewWhisper constructs the local backend.
func NewWhisper(cfg WhisperConfig) *Whisper {
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.ComputeProfile == "" {
		cfg.ComputeProfile = defaultCompute
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &Whisper{
		cfg:  cfg,
		lock: flock.New(filepath.Join(cfg.WorkDir, "whisper.lock")),
	}
}

// WithRunner sets a custom command runner for testing.
func (w *Whisper) WithRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) *Whisper {
	w.runner = runner
	return w
}

func (w *Whisper) Name() string { return "whisper" }

// Transcribe runs whisperx on the waveform and joins the resulting segment
// texts. It blocks until any other local transcription, in this process or
// another, finishes.
func (w *Whisper) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if err := w.ensureTool(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.cfg.WorkDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "whisper", "ensure work dir", err)
	}
	if _, err := w.lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "whisper", "acquire transcription lock", err)
	}
	defer func() { _ = w.lock.Unlock() }()

	outputDir, err := os.MkdirTemp(w.cfg.WorkDir, "whisper-")
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "whisper", "create output dir", err)
	}
	defer os.RemoveAll(outputDir)

	args := w.buildArgs(wavPath, outputDir)
	output, err := w.run(ctx, uvxCommand, args...)
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "whisper",
			fmt.Sprintf("whisperx: %s", strings.TrimSpace(string(output))), err)
	}

	baseName := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	return loadTranscriptText(filepath.Join(outputDir, baseName+".json"))
}

// ensureTool verifies once per process that the launcher binary exists. An
// injected runner skips the check.
func (w *Whisper) ensureTool() error {
	w.initOnce.Do(func() {
		if w.runner != nil {
			return
		}
		if _, err := exec.LookPath(uvxCommand); err != nil {
			w.initErr = services.Wrap(services.ErrTranscriptionFailed, "transcribe", "whisper",
				uvxCommand+" not found on PATH", err)
		}
	})
	return w.initErr
}

func (w *Whisper) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if w.runner != nil {
		return w.runner(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (w *Whisper) buildArgs(source, outputDir string) []string {
	args := []string{
		whisperTool,
		source,
		"--model", w.cfg.Model,
		"--batch_size", whisperBatchSize,
		"--output_dir", outputDir,
		"--output_format", whisperOutputFormat,
		"--device", "cpu",
		"--compute_type", w.cfg.ComputeProfile,
	}
	if lang := langpkg.Canonical(w.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

// whisperSegment is one transcribed span from the whisperx JSON output.
type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperPayload struct {
	Segments []whisperSegment `json:"segments"`
}

// loadTranscriptText joins segment texts from a whisperx JSON file. A file
// with no segments yields empty text, which callers treat as no speech.
func loadTranscriptText(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "whisper", "read whisperx output", err)
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "whisper", "parse whisperx output", err)
	}
	var parts []string
	for _, seg := range payload.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
