package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the acquisition and transcription failure taxonomy.
// Every stage wraps its failures with exactly one of these so callers can
// classify outcomes with errors.Is without parsing messages.
var (
	ErrLinkUnsupported          = errors.New("link unsupported")
	ErrAuthRequired             = errors.New("authorization required")
	ErrConfirmationTokenMissing = errors.New("confirmation token missing")
	ErrFetchFailed              = errors.New("fetch failed")
	ErrAcquisitionTooSmall      = errors.New("acquisition too small")
	ErrAcquisitionWrongType     = errors.New("acquisition wrong type")
	ErrNormalizationFailed      = errors.New("normalization failed")
	ErrNormalizationTimeout     = errors.New("normalization timeout")
	ErrTranscriptionFailed      = errors.New("transcription failed")
	ErrConfiguration            = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFetchFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the short taxonomy name for a wrapped pipeline error. Unknown
// errors report as "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLinkUnsupported):
		return "link_unsupported"
	case errors.Is(err, ErrAuthRequired):
		return "auth_required"
	case errors.Is(err, ErrConfirmationTokenMissing):
		return "confirmation_token_missing"
	case errors.Is(err, ErrAcquisitionTooSmall):
		return "acquisition_too_small"
	case errors.Is(err, ErrAcquisitionWrongType):
		return "acquisition_wrong_type"
	case errors.Is(err, ErrFetchFailed):
		return "fetch_failed"
	case errors.Is(err, ErrNormalizationTimeout):
		return "normalization_timeout"
	case errors.Is(err, ErrNormalizationFailed):
		return "normalization_failed"
	case errors.Is(err, ErrTranscriptionFailed):
		return "transcription_failed"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
