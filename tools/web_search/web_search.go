package web_search

import (
	"context"
	"errors"

	"github.com/autofyn/linkedgen/tools/web_search/brave"
	"github.com/autofyn/linkedgen/tools/web_search/duckduckgo"
	"github.com/autofyn/linkedgen/tools/web_search/models"
)

type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	BraveProvider      Provider = "brave"
	DuckDuckGoProvider Provider = "duckduckgo"
)

// DefaultMaxResults is used when a query does not say how many hits it wants.
const DefaultMaxResults = 5

var ErrUnsupportedProvider = errors.New("unsupported provider")

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	switch provider {
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	case DuckDuckGoProvider:
		return duckduckgo.Search{}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// Client answers search queries. It prefers the Brave API when a key is
// configured and falls back to DuckDuckGo scraping when Brave is missing or
// failing at query time.
type Client struct {
	brave WebSearcher
	ddg   WebSearcher
}

// NewClient builds the default search client. An empty braveKey leaves the
// Brave leg out entirely.
func NewClient(braveKey string) *Client {
	c := &Client{ddg: duckduckgo.Search{}}
	if braveKey != "" {
		c.brave = brave.Search{ApiKey: braveKey}
	}
	return c
}

// Search runs q and folds failures into the payload, never into a Go error.
func (c *Client) Search(ctx context.Context, q string, k int) models.ResultSet {
	if k <= 0 {
		k = DefaultMaxResults
	}
	if c.brave != nil {
		results, err := c.brave.Discover(ctx, q, k)
		if err == nil {
			if results == nil {
				results = []models.Result{}
			}
			return models.ResultSet{Query: q, Results: results}
		}
	}
	results, err := c.ddg.Discover(ctx, q, k)
	if err != nil {
		return models.ResultSet{Error: "Search failed: " + err.Error(), Query: q, Results: []models.Result{}}
	}
	if results == nil {
		results = []models.Result{}
	}
	return models.ResultSet{Query: q, Results: results, Source: string(DuckDuckGoProvider)}
}
