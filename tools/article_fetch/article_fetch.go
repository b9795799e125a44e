package article_fetch

import (
	"context"
	"errors"
	"time"

	"github.com/autofyn/linkedgen/tools/article_fetch/chromedp"
	"github.com/autofyn/linkedgen/tools/article_fetch/models"
	"github.com/autofyn/linkedgen/tools/article_fetch/standard"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 3000
)

// ArticleFetcher pulls an article and reduces it to readable plain text.
// Implementations fold fetch and extraction failures into the result payload
// instead of returning them.
type ArticleFetcher interface {
	Exec(ctx context.Context, url string) (models.Result, error)
}

type FetcherType string

const (
	StandardFetcherType FetcherType = "standard"
	ChromedpFetcherType FetcherType = "chromedp"
)

var ErrUnsupportedFetcher = errors.New("unsupported fetcher type")

func NewArticleFetcher(fetcherType FetcherType, timeout time.Duration, maxChars int) (ArticleFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch fetcherType {
	case StandardFetcherType, "":
		return &standard.Fetch{Timeout: timeout, MaxChars: maxChars}, nil
	case ChromedpFetcherType:
		return &chromedp.Fetch{Timeout: timeout, MaxChars: maxChars}, nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}
