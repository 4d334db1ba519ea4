// Package transcribe converts normalized waveforms into text through one of
// two fixed backends: the Deepgram HTTP API or a local whisperx install.
package transcribe

import "context"

// Backend converts one waveform file into transcript text. Empty text with a
// nil error means the backend found no speech; that outcome is valid and must
// stay distinguishable from failure.
type Backend interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
	// Name identifies the backend for logging and journal entries.
	Name() string
}
