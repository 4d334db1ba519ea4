package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	t.Parallel()
	base := errors.New("connection reset")
	err := Wrap(ErrFetchFailed, "fetch", "bulk-storage", "second request", base)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	for _, want := range []string{"fetch", "bulk-storage", "second request", "connection reset"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("message %q missing %q", err.Error(), want)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	t.Parallel()
	err := Wrap(ErrAuthRequired, "fetch", "conferencing", "no access secret supplied", nil)
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestKindClassification(t *testing.T) {
	t.Parallel()
	cases := []struct {
		marker error
		want   string
	}{
		{ErrLinkUnsupported, "link_unsupported"},
		{ErrAuthRequired, "auth_required"},
		{ErrConfirmationTokenMissing, "confirmation_token_missing"},
		{ErrFetchFailed, "fetch_failed"},
		{ErrAcquisitionTooSmall, "acquisition_too_small"},
		{ErrAcquisitionWrongType, "acquisition_wrong_type"},
		{ErrNormalizationFailed, "normalization_failed"},
		{ErrNormalizationTimeout, "normalization_timeout"},
		{ErrTranscriptionFailed, "transcription_failed"},
	}
	for _, tc := range cases {
		err := Wrap(tc.marker, "stage", "op", "", nil)
		if got := Kind(err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.marker, got, tc.want)
		}
	}
	if got := Kind(errors.New("boom")); got != "internal" {
		t.Fatalf("untagged error classified as %q", got)
	}
	if got := Kind(nil); got != "" {
		t.Fatalf("nil error classified as %q", got)
	}
}
