// Package transcript splits input text into sentence-oriented chunks small
// enough to send as individual synthesis requests.
package transcript

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxCharsPerChunk is the default upper bound on a chunk's length.
const MaxCharsPerChunk = 900

// ErrInvalidMaxChars is returned for a non-positive chunk bound.
var ErrInvalidMaxChars = errors.New("max chars per chunk must be positive")

// Chunk is one piece of the transcript in send order. Continue is true for
// every chunk except the last.
type Chunk struct {
	Index    int
	Text     string
	Continue bool
}

// Normalize collapses whitespace runs to a single space and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Split normalizes text and packs it into chunks of at most maxChars runes,
// preferring to cut after '.', '!' or '?'. Empty input yields no chunks.
func Split(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxChars, maxChars)
	}

	cleaned := Normalize(text)
	if cleaned == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(cleaned) <= maxChars {
		return []string{cleaned}, nil
	}

	var (
		chunks  []string
		current string
	)
	for _, sentence := range sentences(cleaned) {
		pending := sentence
		if current != "" {
			pending = current + " " + sentence
		}
		if utf8.RuneCountInString(pending) <= maxChars {
			current = pending
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
		}
		if utf8.RuneCountInString(sentence) <= maxChars {
			current = sentence
			continue
		}
		chunks = append(chunks, slice(sentence, maxChars)...)
		current = ""
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks, nil
}

// Chunks is Split with send order and continuation flags attached.
func Chunks(text string, maxChars int) ([]Chunk, error) {
	parts, err := Split(text, maxChars)
	if err != nil {
		return nil, err
	}

	out := make([]Chunk, len(parts))
	for i, p := range parts {
		out[i] = Chunk{Index: i, Text: p, Continue: i < len(parts)-1}
	}
	return out, nil
}

// sentences cuts s right after each terminator. Spans are trimmed and
// empty spans dropped.
func sentences(s string) []string {
	var spans []string
	start := 0
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if span := strings.TrimSpace(s[start : i+1]); span != "" {
			spans = append(spans, span)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		spans = append(spans, tail)
	}
	return spans
}

// slice hard-splits s into pieces of n runes. Whitespace at a cut is
// trimmed so no piece is blank.
func slice(s string, n int) []string {
	var pieces []string
	for s != "" {
		cut, count := len(s), 0
		for i := range s {
			if count == n {
				cut = i
				break
			}
			count++
		}
		if piece := strings.TrimSpace(s[:cut]); piece != "" {
			pieces = append(pieces, piece)
		}
		s = s[cut:]
	}
	return pieces
}
