package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/services"
)

// fakeBackend returns canned text per call and records the paths it saw.
type fakeBackend struct {
	texts []string
	calls []string
	err   error
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Transcribe(_ context.Context, wavPath string) (string, error) {
	f.calls = append(f.calls, wavPath)
	if f.err != nil {
		return "", f.err
	}
	if len(f.texts) == 0 {
		return "", nil
	}
	text := f.texts[0]
	f.texts = f.texts[1:]
	return text, nil
}

// stubToolchain fakes ffmpeg/ffprobe: output files are created empty-ish and
// every probe reports the given duration.
func stubToolchain(t *testing.T, durationSeconds float64) *media.Toolchain {
	t.Helper()
	return media.NewToolchain("ffmpeg", "ffprobe", time.Minute).
		WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
			if name == "ffprobe" {
				return fmt.Appendf(nil, `{"format":{"duration":"%f"}}`, durationSeconds), nil
			}
			dest := args[len(args)-1]
			if err := os.WriteFile(dest, []byte("RIFF....WAVEfmt "), 0o644); err != nil {
				t.Fatalf("stub ffmpeg write: %v", err)
			}
			return nil, nil
		})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Acquisition.MinBytes = 64
	return &cfg
}

func writeSourceFile(t *testing.T, size int) string {
	t.Helper()
	payload := append([]byte("RIFF....WAVEfmt "), bytes.Repeat([]byte{0}, size)...)
	path := filepath.Join(t.TempDir(), "source.wav")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestRunLocalFileSingleSegment(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	backend := &fakeBackend{texts: []string{"hello world"}}
	p, err := New(Options{Config: cfg, Backend: backend, Toolchain: stubToolchain(t, 120)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := p.Run(t.Context(), Request{FilePath: writeSourceFile(t, 4096)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Transcript != "hello world" || result.NoSpeech {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Segments != 1 || result.Provider != "local" || result.DurationSeconds != 120 {
		t.Fatalf("unexpected result metadata: %+v", result)
	}
	if result.RequestID == "" {
		t.Fatal("request ID missing")
	}
	if len(backend.calls) != 1 || !strings.HasSuffix(backend.calls[0], "audio.wav") {
		t.Fatalf("backend should see the whole normalized file: %v", backend.calls)
	}
	assertStagingEmpty(t, cfg.Paths.StagingDir)
}

func TestRunChunksLongRecording(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	backend := &fakeBackend{texts: []string{"part one", "part two", "part three"}}
	p, err := New(Options{Config: cfg, Backend: backend, Toolchain: stubToolchain(t, 2400)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := p.Run(t.Context(), Request{FilePath: writeSourceFile(t, 4096)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Segments != 3 {
		t.Fatalf("expected 3 segments, got %d", result.Segments)
	}
	if result.Transcript != "part one\n\npart two\n\npart three" {
		t.Fatalf("transcript = %q", result.Transcript)
	}
	if len(backend.calls) != 3 {
		t.Fatalf("expected 3 backend calls, got %d", len(backend.calls))
	}
	for i, call := range backend.calls {
		if !strings.Contains(call, fmt.Sprintf("segment_%03d", i)) {
			t.Fatalf("call %d used unexpected path %q", i, call)
		}
	}
	assertStagingEmpty(t, cfg.Paths.StagingDir)
}

func TestRunNoSpeech(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	backend := &fakeBackend{}
	p, err := New(Options{Config: cfg, Backend: backend, Toolchain: stubToolchain(t, 30)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := p.Run(t.Context(), Request{FilePath: writeSourceFile(t, 4096)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.NoSpeech || result.Transcript != "" {
		t.Fatalf("expected no-speech outcome, got %+v", result)
	}
}

func TestRunBackendFailureCleansStaging(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	backend := &fakeBackend{err: services.Wrap(services.ErrTranscriptionFailed, "transcribe", "fake", "boom", nil)}
	p, err := New(Options{Config: cfg, Backend: backend, Toolchain: stubToolchain(t, 30)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = p.Run(t.Context(), Request{FilePath: writeSourceFile(t, 4096)})
	if !errors.Is(err, services.ErrTranscriptionFailed) {
		t.Fatalf("expected transcription failure, got %v", err)
	}
	assertStagingEmpty(t, cfg.Paths.StagingDir)
}

func TestRunFetchesRemoteSource(t *testing.T) {
	t.Parallel()
	payload := append([]byte("RIFF....WAVEfmt "), bytes.Repeat([]byte{1}, 4096)...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(payload)
	}))
	defer server.Close()

	cfg := testConfig(t)
	backend := &fakeBackend{texts: []string{"remote text"}}
	p, err := New(Options{Config: cfg, Backend: backend, Toolchain: stubToolchain(t, 45), Client: server.Client()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := p.Run(t.Context(), Request{URL: server.URL + "/recording.mp3"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Provider != "generic" || result.Transcript != "remote text" {
		t.Fatalf("unexpected result: %+v", result)
	}
	assertStagingEmpty(t, cfg.Paths.StagingDir)
}

func TestRunUndersizedRemotePayloadRejected(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("tiny"))
	}))
	defer server.Close()

	cfg := testConfig(t)
	p, err := New(Options{Config: cfg, Backend: &fakeBackend{}, Toolchain: stubToolchain(t, 45), Client: server.Client()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = p.Run(t.Context(), Request{URL: server.URL + "/clip.mp3"})
	if !errors.Is(err, services.ErrAcquisitionTooSmall) {
		t.Fatalf("expected undersized rejection, got %v", err)
	}
	assertStagingEmpty(t, cfg.Paths.StagingDir)
}

func TestRunRejectsAmbiguousRequest(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	p, err := New(Options{Config: cfg, Backend: &fakeBackend{}, Toolchain: stubToolchain(t, 45)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, req := range []Request{{}, {URL: "https://example.com/a.mp3", FilePath: "/tmp/a.mp3"}} {
		if _, err := p.Run(t.Context(), req); !errors.Is(err, services.ErrLinkUnsupported) {
			t.Fatalf("request %+v: expected rejection, got %v", req, err)
		}
	}
}

func TestRunLogsCarryRequestID(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "run.log")
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}

	cfg := testConfig(t)
	backend := &fakeBackend{texts: []string{"logged"}}
	p, err := New(Options{Config: cfg, Backend: backend, Logger: logger, Toolchain: stubToolchain(t, 120)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := p.Run(t.Context(), Request{FilePath: writeSourceFile(t, 4096)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "request_id="+result.RequestID) {
		t.Fatalf("log lines missing request correlation:\n%s", data)
	}
	if !strings.Contains(string(data), "stage=") {
		t.Fatalf("log lines missing stage field:\n%s", data)
	}
}

func assertStagingEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging dir not cleaned: %d entries remain", len(entries))
	}
}
