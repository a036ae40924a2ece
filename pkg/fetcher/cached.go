package fetcher

import (
	"context"

	"github.com/ultrawiki/refpipe/models"
	"github.com/ultrawiki/refpipe/pkg/caching"
	"github.com/ultrawiki/refpipe/pkg/refs"
)

// Cached wraps a backend with the on-disk page cache. Only pages that pass
// the quality filter are stored, so refetch rounds still reach the backend.
type Cached struct {
	inner Fetcher
	cache *caching.Cache
}

// WithCache decorates a fetcher with a cache. A nil cache returns the
// fetcher unchanged.
func WithCache(inner Fetcher, cache *caching.Cache) Fetcher {
	if cache == nil {
		return inner
	}
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Fetch(ctx context.Context, url string) (*models.FetchedPage, error) {
	if page, ok := c.cache.GetPage(c.inner.Name(), url); ok {
		return page, nil
	}
	page, err := c.inner.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if ok, _ := refs.QualityCheck(page.Content); ok {
		_ = c.cache.SetPage(c.inner.Name(), url, page)
	}
	return page, nil
}
