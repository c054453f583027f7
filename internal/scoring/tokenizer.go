package scoring

import (
	"regexp"
	"strings"
)

var (
	wordRe  = regexp.MustCompile(`\b\w+\b`)
	tokenRe = regexp.MustCompile(`\w+|[^\w\s]`)
)

// Words extracts lowercase word tokens from text. Word boundaries follow
// the \b\w+\b convention, so punctuation never appears in the output.
// Both texts of a word-edit-distance comparison must go through this
// function so the distances are comparable.
func Words(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// TokenCount measures text length in tokens for compress-rate purposes.
// Words and individual punctuation marks each count as one token. The
// same measure is applied to reference and candidate texts, which is the
// only property compress rates depend on.
func TokenCount(text string) int {
	return len(tokenRe.FindAllString(text, -1))
}
