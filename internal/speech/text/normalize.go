// Package text cleans utterance text before it is handed to a speech engine binary.
//
// Only the engine argument is normalized. The text buffers a user sees are never
// rewritten, so translations stay verbatim.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// Regex patterns for text normalization.
const (
	urlRegexPattern        = `https?://\S+`
	whitespaceRegexPattern = `\s+`
	urlReplacement         = "link"
)

// Punctuation and formatting constants.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
)

// Normalizer prepares text for speech engines that read it from the command line.
type Normalizer struct {
	urlPattern        *regexp.Regexp
	whitespacePattern *regexp.Regexp
	punctuation       *strings.Replacer
}

// NewNormalizer creates a Normalizer with compiled patterns.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		urlPattern:        regexp.MustCompile(urlRegexPattern),
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
		punctuation: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Normalize replaces URLs with a spoken placeholder, strips control characters,
// collapses repeated punctuation and whitespace and unifies quotes and dashes.
// Scripts other than Latin pass through unchanged.
func (n *Normalizer) Normalize(input string) string {
	if input == "" {
		return input
	}

	normalized := n.urlPattern.ReplaceAllString(input, urlReplacement)
	normalized = stripControl(normalized)
	normalized = n.punctuation.Replace(normalized)
	normalized = collapseRepeatedPunctuation(normalized)
	normalized = n.whitespacePattern.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

func stripControl(input string) string {
	return strings.Map(func(char rune) rune {
		if unicode.IsSpace(char) {
			return ' '
		}

		if unicode.IsControl(char) {
			return -1
		}

		return char
	}, input)
}

// collapseRepeatedPunctuation keeps the first of a run of identical punctuation
// marks. The three-dot ellipsis is preserved.
func collapseRepeatedPunctuation(input string) string {
	var (
		result   strings.Builder
		last     rune
		runCount int
	)

	for _, char := range input {
		if unicode.IsPunct(char) && char == last {
			runCount++
			if char == '.' && runCount <= len(ellipsis) {
				result.WriteRune(char)
			}

			continue
		}

		last = char
		runCount = 1

		result.WriteRune(char)
	}

	return result.String()
}
