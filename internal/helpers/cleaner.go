package helpers

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// diagnosticPrefixLen bounds how much offending model text a parse error
// carries along for diagnostics.
const diagnosticPrefixLen = 500

// NoArrayError reports model output that contained no JSON array.
type NoArrayError struct {
	Prefix string
}

func (e *NoArrayError) Error() string {
	return fmt.Sprintf("no JSON array found in model output: %q", e.Prefix)
}

// ExtractJSONArray finds and returns the first JSON array in s. Fenced code
// blocks win over bare text: a ``` or ```json block containing an array is
// used before any bare [...] span outside a fence. Brackets inside strings
// are ignored while scanning for the balanced span.
func ExtractJSONArray(s string) (string, error) {
	s = trimBOM(strings.TrimSpace(s))

	if out, ok := arrayFromFences(s); ok {
		return out, nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '[' {
			if out, ok := extractBalancedArrayFrom(s, i); ok {
				return out, nil
			}
		}
	}
	return "", &NoArrayError{Prefix: boundedPrefix(s)}
}

// UnmarshalArray extracts the first JSON array from s and decodes it into v.
// Both a missing array and an undecodable one are reported as errors; the
// caller decides whether that fails the run.
func UnmarshalArray(s string, v interface{}) error {
	raw, err := ExtractJSONArray(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode JSON array: %w", err)
	}
	return nil
}

// arrayFromFences walks ``` fenced blocks in order and returns the first
// array found inside one. Blocks tagged with a language other than json are
// skipped; untagged blocks are accepted.
func arrayFromFences(s string) (string, bool) {
	start := 0
	for {
		i := strings.Index(s[start:], "```")
		if i == -1 {
			return "", false
		}
		i += start
		afterFence := i + 3
		nl := strings.IndexByte(s[afterFence:], '\n')
		if nl == -1 {
			return "", false
		}
		info := strings.ToLower(strings.TrimSpace(s[afterFence : afterFence+nl]))
		contentStart := afterFence + nl + 1

		j := strings.Index(s[contentStart:], "```")
		if j == -1 {
			// Unterminated block; let the bare-array scan have a go.
			return "", false
		}
		closeIdx := contentStart + j
		content := s[contentStart:closeIdx]

		if info == "" || info == "json" {
			for k := 0; k < len(content); k++ {
				if content[k] == '[' {
					if out, ok := extractBalancedArrayFrom(content, k); ok {
						return out, true
					}
				}
			}
		}
		start = closeIdx + 3
	}
}

// extractBalancedArrayFrom attempts to extract a balanced JSON array starting
// at startIdx. It correctly handles strings and escape sequences.
func extractBalancedArrayFrom(s string, startIdx int) (string, bool) {
	if startIdx < 0 || startIdx >= len(s) || s[startIdx] != '[' {
		return "", false
	}

	var (
		stack    []byte
		inString bool
		escape   bool
	)

	push := func(b byte) { stack = append(stack, b) }
	popMatches := func(b byte) bool {
		if len(stack) == 0 {
			return false
		}
		top := stack[len(stack)-1]
		if (top == '{' && b == '}') || (top == '[' && b == ']') {
			stack = stack[:len(stack)-1]
			return true
		}
		return false
	}

	push('[')

	for i := startIdx + 1; i < len(s); i++ {
		c := s[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			push(c)
		case '}', ']':
			if !popMatches(c) {
				return "", false
			}
			if len(stack) == 0 {
				// Found the matching close for the initial opener.
				return s[startIdx : i+1], true
			}
		}
	}

	return "", false
}

// boundedPrefix cuts s to the diagnostic length without splitting a rune.
func boundedPrefix(s string) string {
	if len(s) <= diagnosticPrefixLen {
		return s
	}
	cut := s[:diagnosticPrefixLen]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// trimBOM removes an optional UTF-8 BOM.
func trimBOM(s string) string {
	if strings.HasPrefix(s, "\uFEFF") {
		return strings.TrimPrefix(s, "\uFEFF")
	}
	// Handle malformed BOM-like prefix (rare)
	if len(s) >= 3 {
		b0, b1, b2 := s[0], s[1], s[2]
		if b0 == 0xEF && b1 == 0xBB && b2 == 0xBF && utf8.ValidString(s[3:]) {
			return s[3:]
		}
	}
	return s
}
