package config

const (
	defaultStagingDir = "~/.local/share/scribe/staging"
	defaultLogDir     = "~/.local/share/scribe/logs"
	defaultJournalDB  = "~/.local/share/scribe/journal.db"

	// defaultMinBytes rejects transfers that are obviously truncated or an
	// HTML error page saved as a file.
	defaultMinBytes     = 10_000
	defaultUserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultFetchTimeout = 1800

	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultChunkSeconds         = 900
	defaultNormalizeTimeoutBase = 120

	defaultBackend           = "remote"
	defaultRemoteModel       = "nova-2"
	defaultLanguage          = "auto"
	defaultComputeProfile    = "float32"
	defaultDeepgramBaseURL   = "https://api.deepgram.com"
	defaultRequestTimeout    = 3600
	defaultTranscribeDiarize = true

	defaultLogFormat = "auto"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Acquisition: Acquisition{
			MinBytes:     defaultMinBytes,
			UserAgent:    defaultUserAgent,
			FetchTimeout: defaultFetchTimeout,
		},
		Media: Media{
			FFmpegBinary:         defaultFFmpegBinary,
			FFprobeBinary:        defaultFFprobeBinary,
			ChunkSeconds:         defaultChunkSeconds,
			NormalizeTimeoutBase: defaultNormalizeTimeoutBase,
		},
		Transcription: Transcription{
			Backend:        defaultBackend,
			Model:          defaultRemoteModel,
			Language:       defaultLanguage,
			Diarize:        defaultTranscribeDiarize,
			ComputeProfile: defaultComputeProfile,
			BaseURL:        defaultDeepgramBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Journal: Journal{
			Enabled: true,
			Path:    defaultJournalDB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
