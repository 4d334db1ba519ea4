package config

import (
	"fmt"
	"strings"
)

// normalize expands paths and trims string fields in place.
func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(strings.TrimSpace(c.Paths.StagingDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	if c.Journal.Path, err = expandPath(strings.TrimSpace(c.Journal.Path)); err != nil {
		return err
	}

	c.Acquisition.UserAgent = strings.TrimSpace(c.Acquisition.UserAgent)
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	c.Transcription.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcription.BaseURL), "/")
	c.Transcription.ComputeProfile = strings.TrimSpace(c.Transcription.ComputeProfile)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Acquisition.UserAgent == "" {
		c.Acquisition.UserAgent = defaultUserAgent
	}
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = defaultDeepgramBaseURL
	}
	return nil
}

// Validate reports configuration values that cannot drive a pipeline run.
func (c *Config) Validate() error {
	if c.Paths.StagingDir == "" {
		return fmt.Errorf("config: staging_dir is required")
	}
	if c.Acquisition.MinBytes < 0 {
		return fmt.Errorf("config: min_bytes must not be negative")
	}
	if c.Acquisition.FetchTimeout <= 0 {
		return fmt.Errorf("config: fetch_timeout must be positive")
	}
	if c.Media.ChunkSeconds <= 0 {
		return fmt.Errorf("config: chunk_seconds must be positive")
	}
	if c.Media.NormalizeTimeoutBase <= 0 {
		return fmt.Errorf("config: normalize_timeout_base must be positive")
	}
	switch c.Transcription.Backend {
	case BackendRemote, BackendLocal:
	default:
		return fmt.Errorf("config: backend must be %q or %q, got %q", BackendRemote, BackendLocal, c.Transcription.Backend)
	}
	if c.Transcription.RequestTimeout <= 0 {
		return fmt.Errorf("config: request_timeout must be positive")
	}
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("config: log format must be auto, console, or json, got %q", c.Logging.Format)
	}
	return nil
}
