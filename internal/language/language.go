// Package language normalizes user-supplied language options into the codes
// the transcription backends expect.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// IsAuto reports whether the value requests backend-side language detection.
func IsAuto(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "" || v == "auto"
}

// Canonical converts any recognized language identifier ("ru", "rus",
// "ru-RU", "russian") to its base code. Returns empty string for "auto" and
// for unrecognized input, which callers treat as detection.
func Canonical(value string) string {
	if IsAuto(value) {
		return ""
	}
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		// Full language names ("russian") are not BCP 47; try matching
		// against display names before giving up.
		if base := matchName(value); base != "" {
			return base
		}
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

// DisplayName returns a human-readable English name for a language code, or
// "auto" for detection.
func DisplayName(value string) string {
	if IsAuto(value) {
		return "auto"
	}
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(value))
	}
	return display.English.Tags().Name(tag)
}

var commonNames = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"ukrainian":  "uk",
}

func matchName(value string) string {
	return commonNames[strings.ToLower(strings.TrimSpace(value))]
}
