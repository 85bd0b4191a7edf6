package sentence

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minLen       = 20
	maxLen       = 150
	maxSentences = 50
)

var terminalRun = regexp.MustCompile(`[.!?]+`)

// Split segments text on runs of sentence-terminal punctuation and keeps
// candidates whose length is strictly between 20 and 150 characters,
// capped at the first 50 matches. The length filter applies to the raw
// split piece; the returned sentences are trimmed of surrounding
// whitespace. Pure and deterministic: same input, same output.
func Split(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	for _, piece := range terminalRun.Split(text, -1) {
		n := utf8.RuneCountInString(piece)
		if n <= minLen || n >= maxLen {
			continue
		}
		sentences = append(sentences, strings.TrimSpace(piece))
		if len(sentences) >= maxSentences {
			break
		}
	}
	return sentences
}
