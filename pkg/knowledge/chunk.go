package knowledge

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMinChunkLength is the length in characters a chunk must exceed to be kept.
const DefaultMinChunkLength = 150

var (
	blankLine = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)
	lineBreak = regexp.MustCompile(`\s*\n\s*`)
)

// SplitChunks cuts page text at blank lines, trims every piece, joins its lines with single
// spaces and drops pieces of minLength characters or fewer.
func SplitChunks(text string, minLength int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	for _, piece := range blankLine.Split(text, -1) {
		piece = lineBreak.ReplaceAllString(strings.TrimSpace(piece), " ")
		if utf8.RuneCountInString(piece) <= minLength {
			continue
		}
		chunks = append(chunks, piece)
	}
	return chunks
}
