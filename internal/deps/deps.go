// Package deps checks the external tools the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"scribe/internal/config"
)

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ForConfig returns the requirements implied by the configuration. The local
// whisper backend additionally needs uvx to launch whisperx.
func ForConfig(cfg *config.Config) []Requirement {
	requirements := []Requirement{
		{Name: "FFmpeg", Command: cfg.Media.FFmpegBinary, Description: "audio normalization and segment extraction"},
		{Name: "FFprobe", Command: cfg.Media.FFprobeBinary, Description: "duration probing"},
	}
	if cfg.Transcription.Backend == config.BackendLocal {
		requirements = append(requirements, Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "launches whisperx for local transcription",
		})
	}
	return requirements
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
