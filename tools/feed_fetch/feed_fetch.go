package feed_fetch

import (
	"context"
	"errors"
	"time"

	"github.com/autofyn/linkedgen/tools/feed_fetch/gofeed"
	"github.com/autofyn/linkedgen/tools/feed_fetch/models"
)

const (
	// DefaultMaxItems caps how many entries a fetch returns when the call
	// does not say otherwise.
	DefaultMaxItems = 8
	DefaultTimeout  = 15 * time.Second
)

// FeedFetcher retrieves an RSS or Atom feed and normalizes its entries.
// Implementations fold fetch and parse failures into the result payload.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string, maxItems int) (models.Result, error)
}

type FetcherType string

const (
	GofeedFetcherType FetcherType = "gofeed"
)

var ErrUnsupportedFetcher = errors.New("unsupported fetcher type")

func NewFeedFetcher(fetcherType FetcherType, timeout time.Duration) (FeedFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch fetcherType {
	case GofeedFetcherType, "":
		return &gofeed.Fetch{Timeout: timeout}, nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}
