package fetch

import (
	"context"
	"io"

	"scribe/internal/links"
	"scribe/internal/services"
)

// conferencingFetcher performs the two-step session-gated download: a GET
// against the original share URL seeds session cookies, then the rewritten
// download URL is fetched with the same session and a Referer header.
type conferencingFetcher struct {
	client    Doer
	userAgent string
}

func (c *conferencingFetcher) Fetch(ctx context.Context, link links.Resolved, dest string) (Result, error) {
	if link.NeedsSecret && link.Secret == "" {
		// Fail before touching the network: this link shape cannot be
		// fetched anonymously.
		return Result{}, services.Wrap(services.ErrAuthRequired, "fetch", "conferencing",
			"recording requires an access secret and none was supplied", nil)
	}

	// First request establishes the session and presents the secret.
	req, err := newRequest(ctx, link.Referer, c.userAgent)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "conferencing", "build session request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "conferencing", link.Referer, err)
	}
	// The page body is irrelevant; only the cookies matter.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, interstitialScanLimit))
	resp.Body.Close()

	req, err = newRequest(ctx, link.FetchURL, c.userAgent)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "conferencing", "build download request", err)
	}
	req.Header.Set("Referer", link.Referer)
	resp, err = c.client.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "conferencing", link.FetchURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, statusFailure("fetch: conferencing", resp)
	}
	contentType := resp.Header.Get("Content-Type")
	if htmlLike(contentType) {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "conferencing",
			"download endpoint returned a page: secret rejected or downloads disabled", nil)
	}

	written, err := streamToFile(resp.Body, dest)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "conferencing", "stream to disk", err)
	}
	return Result{Path: dest, Bytes: written, ContentType: contentType}, nil
}
