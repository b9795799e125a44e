package gofeed

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/autofyn/linkedgen/tools/feed_fetch/models"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxItems = 8
	summaryMaxChars = 500
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

type Fetch struct {
	Timeout time.Duration
}

func (f Fetch) Fetch(ctx context.Context, url string, maxItems int) (models.Result, error) {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	parsed, err := fp.ParseURLWithContext(url, ctx)
	if err != nil || len(parsed.Items) == 0 {
		// An empty feed is as useless to the caller as a broken one.
		return models.Result{Error: "Failed to parse RSS feed: " + url, Items: []models.Item{}}, nil
	}

	items := make([]models.Item, 0, maxItems)
	for i, entry := range parsed.Items {
		if i >= maxItems {
			break
		}
		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}
		items = append(items, models.Item{
			Title:     strings.TrimSpace(entry.Title),
			Link:      entry.Link,
			Summary:   cleanSummary(summary),
			Published: published,
			Author:    author,
		})
	}

	return models.Result{FeedTitle: parsed.Title, Items: items}, nil
}

// cleanSummary drops markup from a feed summary and cuts it down to a size
// that fits into a model prompt.
func cleanSummary(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > summaryMaxChars {
		s = string(runes[:summaryMaxChars])
	}
	return s
}
