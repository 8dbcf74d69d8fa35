package repository

import "context"

// PageFetcher defines the contract for retrieving the HTML of a page to crawl.
type PageFetcher interface {
	// FetchPage returns the page document, or an error for unreachable / non-2xx pages.
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// AssetFetcher defines the contract for downloading image assets.
type AssetFetcher interface {
	// ContentType issues a metadata-only request and returns the Content-Type header.
	ContentType(ctx context.Context, url string) (string, error)
	// Fetch downloads the full body of url.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
