package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
	"scribe/internal/services"
)

func TestBuildRequestDistinguishesLocalFiles(t *testing.T) {
	t.Parallel()
	local := filepath.Join(t.TempDir(), "meeting.mp4")
	if err := os.WriteFile(local, []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	req := buildRequest(local, "note")
	if req.FilePath != local || req.URL != "" || req.FreeText != "note" {
		t.Fatalf("local source misclassified: %+v", req)
	}

	req = buildRequest("https://example.com/rec.mp3", "")
	if req.URL == "" || req.FilePath != "" {
		t.Fatalf("remote source misclassified: %+v", req)
	}
}

func TestBuildBackendRemoteRequiresAPIKey(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Transcription.Backend = config.BackendRemote
	cfg.Transcription.APIKey = ""

	_, err := buildBackend(&cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	cfg.Transcription.APIKey = "key"
	backend, err := buildBackend(&cfg)
	if err != nil {
		t.Fatalf("buildBackend failed: %v", err)
	}
	if backend.Name() != "deepgram" {
		t.Fatalf("backend = %q, want deepgram", backend.Name())
	}
}

func TestLanguageLabel(t *testing.T) {
	t.Parallel()
	cases := []struct {
		value string
		want  string
	}{
		{"auto", "auto-detect"},
		{"", "auto-detect"},
		{"ru", "Russian (ru)"},
		{"russian", "Russian (ru)"},
		{"en", "English (en)"},
		{"not a language", "not a language"},
	}
	for _, tc := range cases {
		if got := languageLabel(tc.value); got != tc.want {
			t.Fatalf("languageLabel(%q) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestBuildBackendLocal(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Transcription.Backend = config.BackendLocal
	cfg.Paths.StagingDir = t.TempDir()

	backend, err := buildBackend(&cfg)
	if err != nil {
		t.Fatalf("buildBackend failed: %v", err)
	}
	if backend.Name() != "whisper" {
		t.Fatalf("backend = %q, want whisper", backend.Name())
	}
}
