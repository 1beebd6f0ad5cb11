package scraper

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Fetcher retrieves a detail page; nil means the page is unavailable
type Fetcher interface {
	FetchDetail(ctx context.Context, url string) *DetailPage
}

// CachedScraper remembers detail pages by URL for a TTL.
// Showings of one title often share a page, so a populate run fetches it once.
// Unavailable pages are not cached.
type CachedScraper struct {
	next  Fetcher
	pages *cache.Cache
}

// NewCached wraps next with a cache whose entries expire after ttl
func NewCached(next Fetcher, ttl time.Duration) *CachedScraper {
	return &CachedScraper{
		next:  next,
		pages: cache.New(ttl, 0),
	}
}

// FetchDetail returns the cached page for url or fetches it
func (c *CachedScraper) FetchDetail(ctx context.Context, url string) *DetailPage {
	if v, ok := c.pages.Get(url); ok {
		return v.(*DetailPage)
	}
	page := c.next.FetchDetail(ctx, url)
	if page != nil {
		c.pages.SetDefault(url, page)
	}
	return page
}

// Len returns the number of cached pages, expired or not
func (c *CachedScraper) Len() int {
	return c.pages.ItemCount()
}
