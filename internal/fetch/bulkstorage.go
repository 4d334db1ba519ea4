package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"scribe/internal/links"
	"scribe/internal/services"
)

// confirmCookiePrefix is the cookie name prefix under which the bulk-storage
// provider exposes the large-file confirmation token.
const confirmCookiePrefix = "download_warning"

// interstitialScanLimit bounds how much of an HTML warning page is read while
// searching for the embedded confirmation token.
const interstitialScanLimit = 2 << 20

var confirmTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`confirm=([0-9A-Za-z_-]+)`),
	regexp.MustCompile(`name="confirm"\s+value="([0-9A-Za-z_-]+)"`),
}

// bulkStorageFetcher handles confirmation-gated downloads: the first GET may
// return an HTML warning page carrying a token that must be echoed back on a
// second request before the provider serves the actual bytes.
type bulkStorageFetcher struct {
	client    Doer
	userAgent string
}

func (b *bulkStorageFetcher) Fetch(ctx context.Context, link links.Resolved, dest string) (Result, error) {
	req, err := newRequest(ctx, link.FetchURL, b.userAgent)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "bulk-storage", "build request", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "bulk-storage", link.FetchURL, err)
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return Result{}, statusFailure("fetch: bulk-storage", resp)
	}

	contentType := resp.Header.Get("Content-Type")
	if !htmlLike(contentType) {
		// Small files skip the interstitial entirely.
		defer resp.Body.Close()
		written, err := streamToFile(resp.Body, dest)
		if err != nil {
			return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "bulk-storage", "stream to disk", err)
		}
		return Result{Path: dest, Bytes: written, ContentType: contentType}, nil
	}

	token := findConfirmToken(resp)
	resp.Body.Close()
	if token == "" {
		return Result{}, services.Wrap(services.ErrConfirmationTokenMissing, "fetch", "bulk-storage",
			"interstitial page carried no confirm token in body or cookies", nil)
	}

	confirmURL := appendQuery(link.FetchURL, "confirm", token)
	req, err = newRequest(ctx, confirmURL, b.userAgent)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "bulk-storage", "build confirm request", err)
	}
	resp, err = b.client.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "bulk-storage", "confirm request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, statusFailure("fetch: bulk-storage", resp)
	}
	contentType = resp.Header.Get("Content-Type")
	if htmlLike(contentType) {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "bulk-storage",
			"still an HTML page after confirmation token", nil)
	}

	written, err := streamToFile(resp.Body, dest)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "bulk-storage", "stream to disk", err)
	}
	return Result{Path: dest, Bytes: written, ContentType: contentType}, nil
}

// findConfirmToken searches the interstitial body for an embedded token and
// falls back to scanning response cookies under the known name prefix.
func findConfirmToken(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, interstitialScanLimit))
	for _, pattern := range confirmTokenPatterns {
		if match := pattern.FindSubmatch(body); match != nil {
			return string(match[1])
		}
	}
	for _, cookie := range resp.Cookies() {
		if strings.HasPrefix(cookie.Name, confirmCookiePrefix) && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

func appendQuery(rawURL, key, value string) string {
	separator := "?"
	if strings.Contains(rawURL, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s%s=%s", rawURL, separator, key, value)
}
