package standard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/autofyn/linkedgen/tools/article_fetch/models"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetch retrieves articles with a plain HTTP GET. Good enough for most news
// sites; JS-heavy pages need the chromedp fetcher instead.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int
}

func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Result, error) {
	if strings.TrimSpace(rawURL) == "" {
		return models.Result{Error: "missing article url", Text: ""}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return failure(rawURL, err), nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return failure(rawURL, err), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return failure(rawURL, fmt.Errorf("status %d", resp.StatusCode)), nil
	}

	article, err := readability.FromReader(resp.Body, mustParseURL(rawURL))
	if err != nil {
		return failure(rawURL, err), nil
	}

	text := models.CleanText(article.TextContent, f.MaxChars)
	return models.Result{
		URL:       rawURL,
		Title:     strings.TrimSpace(article.Title),
		Text:      text,
		CharCount: utf8.RuneCountInString(text),
	}, nil
}

func failure(rawURL string, err error) models.Result {
	return models.Result{Error: err.Error(), URL: rawURL, Text: ""}
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
