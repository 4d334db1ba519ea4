// Package links rewrites share URLs from known hosting providers into
// directly fetchable download URLs and extracts access secrets from
// accompanying free text.
package links

import (
	"net/url"
	"regexp"
	"strings"

	"scribe/internal/services"
)

// Provider identifies the fetch strategy a resolved link requires.
type Provider int

const (
	// ProviderGeneric is a plain HTTP download.
	ProviderGeneric Provider = iota
	// ProviderBulkStorage is a Google Drive style host whose large-file
	// downloads are gated behind a confirmation token.
	ProviderBulkStorage
	// ProviderConferencing is a Zoom style recording host gated by a session
	// cookie and an access secret.
	ProviderConferencing
)

func (p Provider) String() string {
	switch p {
	case ProviderBulkStorage:
		return "bulk-storage"
	case ProviderConferencing:
		return "conferencing"
	default:
		return "generic"
	}
}

// Resolved is the canonical, fetchable form of a raw share link.
type Resolved struct {
	// FetchURL is the URL the fetch strategy should request.
	FetchURL string
	Provider Provider
	// Secret is the access secret, decoded. It is re-encoded exactly once
	// when folded into a URL; callers must not encode it again.
	Secret string
	// Referer is the original share URL, required by session-gated hosts.
	Referer string
	// NeedsSecret marks link shapes that cannot be fetched anonymously.
	NeedsSecret bool
}

var (
	driveFilePattern = regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`)
	secretPattern    = regexp.MustCompile(`(?i)(?:pwd|passcode|password|пароль|код\s+доступа)\s*[:=]\s*([^\s]+)`)
)

// ExtractSecret scans free-form text for an access secret under the known
// label forms ("pwd:", "passcode:", localized equivalents). The first match
// wins; absence is not an error at this stage.
func ExtractSecret(text string) string {
	match := secretPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimRight(match[1], ".,;:!?)»\"'")
}

// Resolve classifies the raw URL against the known provider patterns and
// rewrites it into its canonical download form. Provider detection order is
// fixed: conferencing before bulk storage before generic. The free text is
// consulted only for an access secret. Resolve is pure and idempotent on
// already-canonical URLs.
func Resolve(rawURL, freeText string) (Resolved, error) {
	trimmed := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Resolved{}, services.Wrap(services.ErrLinkUnsupported, "resolve", "", "not an absolute http(s) URL: "+trimmed, err)
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case isConferencingHost(host):
		return resolveConferencing(parsed, trimmed, freeText)
	case isBulkStorageHost(host):
		return resolveBulkStorage(parsed)
	default:
		return Resolved{FetchURL: trimmed, Provider: ProviderGeneric}, nil
	}
}

func isConferencingHost(host string) bool {
	return host == "zoom.us" || strings.HasSuffix(host, ".zoom.us")
}

func isBulkStorageHost(host string) bool {
	return host == "drive.google.com" || host == "docs.google.com" || host == "drive.usercontent.google.com"
}

// resolveBulkStorage rewrites any known share-link shape to the canonical
// export=download form. Known shapes:
//
//	/file/d/<id>/view
//	/open?id=<id>
//	/uc?export=download&id=<id>  (already canonical)
//	/uc?id=<id>&confirm=<tok>
func resolveBulkStorage(parsed *url.URL) (Resolved, error) {
	id := ""
	if match := driveFilePattern.FindStringSubmatch(parsed.Path); match != nil {
		id = match[1]
	} else if v := parsed.Query().Get("id"); v != "" {
		id = v
	}
	if id == "" {
		return Resolved{}, services.Wrap(services.ErrLinkUnsupported, "resolve", "bulk-storage", "no file id in "+parsed.String(), nil)
	}

	canonical := url.URL{
		Scheme:   "https",
		Host:     "drive.google.com",
		Path:     "/uc",
		RawQuery: url.Values{"export": {"download"}, "id": {id}}.Encode(),
	}
	return Resolved{FetchURL: canonical.String(), Provider: ProviderBulkStorage}, nil
}

// resolveConferencing rewrites play/share recording paths to the download
// endpoint and folds the access secret into the query. The secret may arrive
// via the URL's own pwd parameter or via the accompanying free text; either
// way it is percent-encoded exactly once, here.
func resolveConferencing(parsed *url.URL, original, freeText string) (Resolved, error) {
	query := parsed.Query()

	secret := query.Get("pwd")
	if secret == "" {
		secret = ExtractSecret(freeText)
	}

	// Share links are passcode-gated by default; play/download links carry
	// their own session context.
	needsSecret := strings.Contains(parsed.Path, "/share/")

	path := parsed.Path
	for _, segment := range []string{"/play/", "/share/"} {
		if strings.Contains(path, segment) {
			path = strings.Replace(path, segment, "/download/", 1)
			break
		}
	}

	download := *parsed
	download.Path = path
	if secret != "" {
		query.Set("pwd", secret)
	}
	download.RawQuery = query.Encode()
	download.Fragment = ""

	return Resolved{
		FetchURL:    download.String(),
		Provider:    ProviderConferencing,
		Secret:      secret,
		Referer:     original,
		NeedsSecret: needsSecret,
	}, nil
}
