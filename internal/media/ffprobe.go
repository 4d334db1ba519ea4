package media

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// probeTimeout bounds one ffprobe invocation. Probing is metadata-only and
// never legitimately slow.
const probeTimeout = 30 * time.Second

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeResult struct {
	Format probeFormat `json:"format"`
}

// ProbeDuration asks ffprobe for the container duration in seconds. Callers
// treat any error or zero result as "unknown duration" and degrade to
// single-segment processing.
func (t *Toolchain) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if strings.TrimSpace(path) == "" {
		return 0, errors.New("probe duration: empty path")
	}
	runCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_entries", "format=duration",
		"-of", "json",
		"--", path,
	}
	output, err := t.runner(runCtx, t.FFprobe, args...)
	if err != nil {
		return 0, errors.New("ffprobe: " + tail(output))
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, errors.New("ffprobe parse: " + err.Error())
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(result.Format.Duration), 64)
	if err != nil || duration < 0 {
		return 0, errors.New("ffprobe: no usable duration in output")
	}
	return duration, nil
}
