package fetch

import (
	"context"

	"scribe/internal/links"
	"scribe/internal/services"
)

// genericFetcher issues a single browser-like GET and streams the response to
// disk. It refuses HTML responses before streaming so error pages never get
// saved as media.
type genericFetcher struct {
	client    Doer
	userAgent string
}

func (g *genericFetcher) Fetch(ctx context.Context, link links.Resolved, dest string) (Result, error) {
	req, err := newRequest(ctx, link.FetchURL, g.userAgent)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "generic", "build request", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "generic", link.FetchURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, statusFailure("fetch: generic", resp)
	}
	contentType := resp.Header.Get("Content-Type")
	if htmlLike(contentType) {
		return Result{}, services.Wrap(services.ErrAcquisitionWrongType, "fetch", "generic", "server returned "+contentType+" instead of media", nil)
	}

	written, err := streamToFile(resp.Body, dest)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetchFailed, "fetch", "generic", "stream to disk", err)
	}
	return Result{Path: dest, Bytes: written, ContentType: contentType}, nil
}
