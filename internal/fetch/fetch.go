// Package fetch downloads remote media through one of three fixed provider
// strategies and validates the acquired bytes.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"scribe/internal/links"
	"scribe/internal/services"
)

// Result describes a completed transfer on local storage.
type Result struct {
	Path        string
	Bytes       int64
	ContentType string
}

// Doer is the HTTP client surface the fetchers need. Conferencing fetches
// require the supplied client to carry a cookie jar.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads one resolved link to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, link links.Resolved, dest string) (Result, error)
}

// New returns the fetch strategy for the link's provider.
func New(provider links.Provider, client Doer, userAgent string) Fetcher {
	switch provider {
	case links.ProviderBulkStorage:
		return &bulkStorageFetcher{client: client, userAgent: userAgent}
	case links.ProviderConferencing:
		return &conferencingFetcher{client: client, userAgent: userAgent}
	default:
		return &genericFetcher{client: client, userAgent: userAgent}
	}
}

func newRequest(ctx context.Context, rawURL, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

// htmlLike reports whether a declared content type indicates an HTML or text
// interstitial rather than a media payload.
func htmlLike(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	switch ct {
	case "text/html", "text/plain", "application/xhtml+xml":
		return true
	}
	return false
}

// streamToFile writes the response body to dest incrementally so transfers in
// the hundreds-of-megabytes range never buffer in memory.
func streamToFile(body io.Reader, dest string) (int64, error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, err
	}
	return written, nil
}

func statusFailure(stage string, resp *http.Response) error {
	return services.Wrap(services.ErrFetchFailed, stage, "", fmt.Sprintf("unexpected HTTP status %d for %s", resp.StatusCode, resp.Request.URL), nil)
}
