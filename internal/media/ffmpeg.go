// Package media wraps the external ffmpeg/ffprobe toolchain used to
// normalize arbitrary container input into mono 16 kHz PCM and to cut
// bounded-length segments from it.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"scribe/internal/services"
)

// loudnormFilter is the fixed loudness-normalization profile applied during
// full-file normalization. Segment trims never re-apply it.
const loudnormFilter = "loudnorm=I=-16:TP=-1.5:LRA=11"

// stderrTailLimit bounds how much tool diagnostic output is carried in errors.
const stderrTailLimit = 2048

// CommandRunner executes an external command and returns its combined output.
// Injectable for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Toolchain invokes ffmpeg and ffprobe with a fixed argument vocabulary.
type Toolchain struct {
	FFmpeg  string
	FFprobe string
	// TimeoutBase is the minimum timeout for a normalization run; the
	// effective timeout grows with input size.
	TimeoutBase time.Duration
	runner      CommandRunner
}

// NewToolchain constructs a toolchain around the configured binaries.
func NewToolchain(ffmpeg, ffprobe string, timeoutBase time.Duration) *Toolchain {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	if timeoutBase <= 0 {
		timeoutBase = 2 * time.Minute
	}
	return &Toolchain{FFmpeg: ffmpeg, FFprobe: ffprobe, TimeoutBase: timeoutBase, runner: defaultRunner}
}

// WithRunner sets a custom command runner (for testing).
func (t *Toolchain) WithRunner(runner CommandRunner) *Toolchain {
	t.runner = runner
	return t
}

// NormalizedAudio describes the canonical waveform produced by Normalize.
type NormalizedAudio struct {
	Path string
	// DurationSeconds is 0 when probing failed; callers degrade to
	// single-segment processing rather than aborting.
	DurationSeconds float64
}

// Normalize decodes the input, strips video, downmixes to mono 16 kHz PCM
// with loudness normalization, and writes the result to dest. The invocation
// is bounded by a size-scaled timeout.
func (t *Toolchain) Normalize(ctx context.Context, input, dest string) (NormalizedAudio, error) {
	timeout := t.normalizeTimeout(input)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-af", loudnormFilter,
		dest,
	}
	output, err := t.runner(runCtx, t.FFmpeg, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return NormalizedAudio{}, services.Wrap(services.ErrNormalizationTimeout, "normalize", "ffmpeg",
				fmt.Sprintf("exceeded %s", timeout), nil)
		}
		return NormalizedAudio{}, services.Wrap(services.ErrNormalizationFailed, "normalize", "ffmpeg", tail(output), err)
	}

	// Zero exit does not guarantee usable output; verify the file landed.
	info, statErr := os.Stat(dest)
	if statErr != nil || info.Size() == 0 {
		return NormalizedAudio{}, services.Wrap(services.ErrNormalizationFailed, "normalize", "ffmpeg",
			"tool exited cleanly but produced no output file", statErr)
	}

	duration, probeErr := t.ProbeDuration(ctx, dest)
	if probeErr != nil {
		duration = 0
	}
	return NormalizedAudio{Path: dest, DurationSeconds: duration}, nil
}

// ExtractSegment cuts [startSec, startSec+lengthSec) out of an already
// normalized waveform. The source is already mono 16 kHz, so the trim
// re-encodes to PCM without touching loudness.
func (t *Toolchain) ExtractSegment(ctx context.Context, src string, startSec, lengthSec float64, dest string) error {
	if lengthSec <= 0 {
		return services.Wrap(services.ErrNormalizationFailed, "segment", "ffmpeg",
			fmt.Sprintf("invalid segment length %.3f", lengthSec), nil)
	}
	runCtx, cancel := context.WithTimeout(ctx, t.TimeoutBase)
	defer cancel()

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(lengthSec),
		"-i", src,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	output, err := t.runner(runCtx, t.FFmpeg, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrNormalizationTimeout, "segment", "ffmpeg",
				fmt.Sprintf("exceeded %s", t.TimeoutBase), nil)
		}
		return services.Wrap(services.ErrNormalizationFailed, "segment", "ffmpeg", tail(output), err)
	}
	if info, statErr := os.Stat(dest); statErr != nil || info.Size() == 0 {
		return services.Wrap(services.ErrNormalizationFailed, "segment", "ffmpeg",
			"tool exited cleanly but produced no segment file", statErr)
	}
	return nil
}

// normalizeTimeout scales the base timeout by input size: one extra minute
// per 100 MB.
func (t *Toolchain) normalizeTimeout(input string) time.Duration {
	timeout := t.TimeoutBase
	if info, err := os.Stat(input); err == nil {
		extra := time.Duration(info.Size()/(100<<20)) * time.Minute
		timeout += extra
	}
	return timeout
}

func formatSeconds(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

// tail returns the last bounded chunk of tool output for error reporting.
func tail(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) <= stderrTailLimit {
		return trimmed
	}
	return "..." + trimmed[len(trimmed)-stderrTailLimit:]
}
