package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/autofyn/linkedgen/internal/helpers"
	"github.com/autofyn/linkedgen/models"
)

// Caps applied when folding caller input into the user message. They keep a
// fat newsletter or a noisy feed from eating the whole context window.
const (
	emailMaxChars   = 4000
	feedMaxItems    = 6
	summaryMaxChars = 200
)

// buildIdeasMessage formats the caller-supplied source material for the
// single-phase idea generator.
func buildIdeasMessage(in models.GenerateInput, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Heute ist %s. Hier sind die Content-Quellen für heute:\n\n", helpers.BerlinDate(now))

	if email := strings.TrimSpace(in.EmailContent); email != "" {
		subject := strings.TrimSpace(in.Subject)
		if subject == "" {
			subject = "Startup Insider Daily"
		}
		fmt.Fprintf(&b, "## Newsletter: %s\n", subject)
		b.WriteString(truncateRunes(email, emailMaxChars))
		b.WriteString("\n\n")
	}

	writeFeedSection(&b, "## OpenAI Blog (neueste Artikel)", in.RSSOpenAI)
	writeFeedSection(&b, "## Anthropic Blog (neueste Artikel)", in.RSSAnthropic)

	b.WriteString("Analysiere die Quellen. Nutze fetch_article um interessante Artikel vollständig zu lesen " +
		"und web_search für deutschen Kontext oder aktuelle Reaktionen.\n" +
		"Erstelle dann genau 10 LinkedIn-Post-Ideen als JSON-Array. " +
		"Denke immer: Was ist der autofyn-Winkel? Nicht reporten – Standpunkt nehmen.")
	return b.String()
}

func writeFeedSection(b *strings.Builder, heading string, items []models.FeedItem) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading)
	b.WriteByte('\n')
	if len(items) > feedMaxItems {
		items = items[:feedMaxItems]
	}
	for _, item := range items {
		fmt.Fprintf(b, "- [%s](%s)\n", item.Title, item.Link)
		if item.Summary != "" {
			fmt.Fprintf(b, "  %s\n", truncateRunes(item.Summary, summaryMaxChars))
		}
	}
	b.WriteByte('\n')
}

// buildSynthesisMessage lists the feeds phase 1 must gather itself.
func buildSynthesisMessage(feeds []models.FeedSource, in models.GenerateInput, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Heute ist %s. Sammle die News aus diesen Feeds ein:\n\n", helpers.BerlinDate(now))
	for _, feed := range feeds {
		fmt.Fprintf(&b, "- %s: %s\n", feed.Name, feed.URL)
	}
	b.WriteByte('\n')

	if email := strings.TrimSpace(in.EmailContent); email != "" {
		subject := strings.TrimSpace(in.Subject)
		if subject == "" {
			subject = "Startup Insider Daily"
		}
		fmt.Fprintf(&b, "## Newsletter: %s\n", subject)
		b.WriteString(truncateRunes(email, emailMaxChars))
		b.WriteString("\n\n")
	}

	b.WriteString("Hole jeden Feed mit fetch_rss, filtere auf die letzten 48 Stunden und führe " +
		"doppelte Stories zusammen. Gib dann das JSON-Array mit 15-30 Topics zurück.")
	return b.String()
}

// buildIdeationMessage renders the phase-1 topics as the complete input of
// phase 2. The topics are the only data crossing the phase boundary.
func buildIdeationMessage(topics []models.Topic, now time.Time) (string, error) {
	payload, err := json.MarshalIndent(topics, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render topics: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Heute ist %s. Hier sind die vorbereiteten Topics (dedupliziert, letzte 48h):\n\n", helpers.BerlinDate(now))
	b.Write(payload)
	b.WriteString("\n\nWähle die 10 besten Topics aus und erstelle für jeden eine LinkedIn-Post-Idee. " +
		"Nutze fetch_article um interessante Artikel vollständig zu lesen " +
		"und web_search für deutschen Kontext oder aktuelle Reaktionen.\n" +
		"Erstelle dann genau 10 LinkedIn-Post-Ideen als JSON-Array. " +
		"Denke immer: Was ist der autofyn-Winkel? Nicht reporten – Standpunkt nehmen.")
	return b.String(), nil
}

// buildPostMessage formats one idea for the post writer and steers its
// research depending on where the idea came from.
func buildPostMessage(idea models.Idea) string {
	var b strings.Builder
	b.WriteString("Schreibe einen vollständigen LinkedIn-Post basierend auf dieser Idee:\n\n")
	fmt.Fprintf(&b, "**Titel**: %s\n", idea.Title)
	fmt.Fprintf(&b, "**Hook (erste Zeile)**: %s\n", idea.Hook)
	fmt.Fprintf(&b, "**Winkel / Kernaussage**: %s\n", idea.Angle)

	switch {
	case idea.SourceURL != "":
		fmt.Fprintf(&b, "**Quell-URL**: %s\n", idea.SourceURL)
		source := idea.SourceTitle
		if source == "" {
			source = string(idea.Source)
		}
		fmt.Fprintf(&b, "**Quelle**: %s\n", source)
		b.WriteString("\nNutze fetch_article um den Quell-Artikel zu lesen und konkrete Details " +
			"(Zahlen, Zitate, spezifische Features) in den Post einzubauen. " +
			"Dann schreibe den fertigen Post.")
	case idea.Source == models.SourceWebResearch:
		b.WriteString("\nNutze web_search um aktuelle Details zu diesem Thema zu finden. " +
			"Dann schreibe den fertigen Post.")
	default:
		b.WriteString("\nSchreibe direkt den fertigen Post basierend auf dem Hook und dem Winkel.")
	}
	return b.String()
}

// truncateRunes cuts s to at most max runes without splitting a character.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
