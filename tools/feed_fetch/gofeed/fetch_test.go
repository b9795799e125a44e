package gofeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>OpenAI Blog</title>
  <link>https://openai.com/blog</link>
  <item>
    <title>Neues Modell vorgestellt</title>
    <link>https://openai.com/blog/neues-modell</link>
    <description>&lt;p&gt;Das neue Modell ist &lt;b&gt;deutlich&lt;/b&gt; schneller &amp;amp; günstiger.&lt;/p&gt;</description>
    <pubDate>Mon, 24 Aug 2026 09:00:00 GMT</pubDate>
    <author>press@openai.com (Presseteam)</author>
  </item>
  <item>
    <title>Zweiter Beitrag</title>
    <link>https://openai.com/blog/zweiter</link>
    <description>Kurz.</description>
  </item>
  <item>
    <title>Dritter Beitrag</title>
    <link>https://openai.com/blog/dritter</link>
    <description>Auch kurz.</description>
  </item>
</channel>
</rss>`

func TestFetchParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	f := Fetch{Timeout: 5 * time.Second}
	res, err := f.Fetch(context.Background(), srv.URL, 2)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Error != "" {
		t.Fatalf("unexpected payload error %q", res.Error)
	}
	if res.FeedTitle != "OpenAI Blog" {
		t.Fatalf("feed_title = %q", res.FeedTitle)
	}
	if len(res.Items) != 2 {
		t.Fatalf("max_items not applied, got %d items", len(res.Items))
	}
	first := res.Items[0]
	if first.Title != "Neues Modell vorgestellt" {
		t.Fatalf("title = %q", first.Title)
	}
	if strings.Contains(first.Summary, "<") {
		t.Fatalf("summary still contains markup: %q", first.Summary)
	}
	if !strings.Contains(first.Summary, "schneller & günstiger") {
		t.Fatalf("entities not unescaped: %q", first.Summary)
	}
	if first.Published == "" {
		t.Fatalf("published missing")
	}
}

func TestFetchLongSummaryTruncated(t *testing.T) {
	long := strings.Repeat("Wort ", 300)
	feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>` +
		`<item><title>A</title><link>https://x</link><description>` + long + `</description></item>` +
		`</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	f := Fetch{Timeout: 5 * time.Second}
	res, err := f.Fetch(context.Background(), srv.URL, 0)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	if got := len([]rune(res.Items[0].Summary)); got > summaryMaxChars {
		t.Fatalf("summary not truncated: %d runes", got)
	}
}

func TestFetchEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Leer</title></channel></rss>`))
	}))
	defer srv.Close()

	f := Fetch{Timeout: 5 * time.Second}
	res, err := f.Fetch(context.Background(), srv.URL, 8)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.HasPrefix(res.Error, "Failed to parse RSS feed: ") {
		t.Fatalf("feed without entries must error, got %q", res.Error)
	}
}

func TestFetchBrokenFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a feed</html>"))
	}))
	defer srv.Close()

	f := Fetch{Timeout: 5 * time.Second}
	res, err := f.Fetch(context.Background(), srv.URL, 8)
	if err != nil {
		t.Fatalf("failures must not surface as Go errors, got %v", err)
	}
	if !strings.HasPrefix(res.Error, "Failed to parse RSS feed: ") {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("expected empty item list, got %+v", res.Items)
	}
}
