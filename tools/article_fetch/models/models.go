package models

import (
	"regexp"
	"strings"
)

// Result is the payload of one article fetch. Failures carry Error plus the
// URL and an empty text so the model can keep reasoning about them.
type Result struct {
	Error     string `json:"error,omitempty"`
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	CharCount int    `json:"char_count,omitempty"`
}

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(` {2,}`)
)

// CleanText collapses the whitespace that article extraction leaves behind
// and cuts the text to maxChars runes.
func CleanText(s string, maxChars int) string {
	s = blankLines.ReplaceAllString(s, "\n\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if maxChars > 0 {
		if runes := []rune(s); len(runes) > maxChars {
			s = string(runes[:maxChars])
		}
	}
	return s
}
