package fetch

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/services"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func fakeMediaBytes(n int) []byte {
	// RIFF/WAVE header followed by zeros so content sniffing sees media.
	data := make([]byte, n)
	copy(data, []byte("RIFF"))
	copy(data[8:], []byte("WAVE"))
	return data
}

func TestValidateAcceptsMedia(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "audio.wav", fakeMediaBytes(4096))
	result := Result{Path: path, Bytes: 4096, ContentType: "audio/wav"}
	if err := Validate(result, 1024); err != nil {
		t.Fatalf("Validate rejected valid media: %v", err)
	}
}

func TestValidateRejectsSmallTransfer(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "tiny.bin", fakeMediaBytes(100))
	err := Validate(Result{Path: path, Bytes: 100, ContentType: "audio/mpeg"}, 10_000)
	if !errors.Is(err, services.ErrAcquisitionTooSmall) {
		t.Fatalf("expected ErrAcquisitionTooSmall, got %v", err)
	}
}

func TestValidateRejectsDeclaredHTML(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "page.bin", fakeMediaBytes(4096))
	for _, ct := range []string{"text/html", "text/html; charset=utf-8", "text/plain", "application/xhtml+xml"} {
		err := Validate(Result{Path: path, Bytes: 4096, ContentType: ct}, 1024)
		if !errors.Is(err, services.ErrAcquisitionWrongType) {
			t.Errorf("content type %q: expected ErrAcquisitionWrongType, got %v", ct, err)
		}
	}
}

func TestValidateSniffsUndeclaredHTML(t *testing.T) {
	t.Parallel()
	page := bytes.Repeat([]byte("<html><body>error page</body></html>\n"), 100)
	path := writeTempFile(t, "sneaky.bin", page)
	err := Validate(Result{Path: path, Bytes: int64(len(page)), ContentType: "application/octet-stream"}, 1024)
	if !errors.Is(err, services.ErrAcquisitionWrongType) {
		t.Fatalf("expected sniff to catch HTML, got %v", err)
	}
}
