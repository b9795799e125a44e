package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/autofyn/linkedgen/tools/web_search/models"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	baseURL    = "https://html.duckduckgo.com/html/"
	httpClient = &http.Client{Timeout: 10 * time.Second}
)

// Search scrapes the DuckDuckGo HTML endpoint. It needs no API key, which
// makes it the fallback when Brave is not configured.
type Search struct{}

func (Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	endpoint := baseURL + "?q=" + url.QueryEscape(q)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var out []models.Result
	doc.Find("div.result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(out) >= k {
			return false
		}
		link := sel.Find("a.result__a").First()
		if link.Length() == 0 {
			return true
		}
		href, _ := link.Attr("href")
		out = append(out, models.Result{
			Title:       strings.TrimSpace(link.Text()),
			URL:         unwrapRedirect(href),
			Description: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return true
	})
	return out, nil
}

// unwrapRedirect resolves the uddg redirect wrapper around result links.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
