package standard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const articleHTML = `<!DOCTYPE html>
<html lang="de">
<head><title>KI Finanzierungsrunde</title></head>
<body>
<nav>Menü Menü Menü</nav>
<article>
<h1>KI Finanzierungsrunde</h1>
<p>Ein Berliner Startup hat eine große Finanzierungsrunde abgeschlossen. Die Investoren kommen aus Europa und den USA und wollen das Wachstum im Enterprise-Segment beschleunigen.</p>
<p>Das Unternehmen will mit dem Geld sein Entwicklerteam verdoppeln und die Produktpalette um Agentenfunktionen erweitern, die repetitive Arbeit automatisieren.</p>
</article>
<footer>Impressum</footer>
</body>
</html>`

func TestExecExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Language"); !strings.HasPrefix(got, "de-DE") {
			t.Errorf("Accept-Language = %q", got)
		}
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := Fetch{Timeout: 5 * time.Second, MaxChars: 3000}
	res, err := f.Exec(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if res.Error != "" {
		t.Fatalf("unexpected payload error %q", res.Error)
	}
	if res.Title != "KI Finanzierungsrunde" {
		t.Fatalf("unexpected title %q", res.Title)
	}
	if !strings.Contains(res.Text, "Finanzierungsrunde abgeschlossen") {
		t.Fatalf("article text missing, got %q", res.Text)
	}
	if strings.Contains(res.Text, "Menü Menü") {
		t.Fatalf("navigation noise survived extraction: %q", res.Text)
	}
	if res.CharCount == 0 || res.CharCount > 3000 {
		t.Fatalf("char_count out of range: %d", res.CharCount)
	}
}

func TestExecTruncatesLongArticles(t *testing.T) {
	long := strings.Repeat("Sehr langer Absatz über künstliche Intelligenz und Automatisierung. ", 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>Lang</title></head><body><article><p>" + long + "</p></article></body></html>"))
	}))
	defer srv.Close()

	f := Fetch{Timeout: 5 * time.Second, MaxChars: 100}
	res, err := f.Exec(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if res.CharCount > 100 {
		t.Fatalf("text not truncated: %d chars", res.CharCount)
	}
}

func TestExecFoldsFailuresIntoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := Fetch{Timeout: 5 * time.Second, MaxChars: 3000}
	res, err := f.Exec(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("failures must not surface as Go errors, got %v", err)
	}
	if res.Error == "" {
		t.Fatalf("expected payload error for 404")
	}
	if res.URL != srv.URL {
		t.Fatalf("url missing from failure payload")
	}
	if res.Text != "" {
		t.Fatalf("failure payload must carry empty text")
	}
}

func TestExecEmptyURL(t *testing.T) {
	t.Parallel()
	f := Fetch{Timeout: time.Second, MaxChars: 100}
	res, err := f.Exec(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if res.Error == "" {
		t.Fatalf("expected payload error for empty url")
	}
}
