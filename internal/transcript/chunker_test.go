package transcript

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func sentenceOf(n int) string {
	return strings.Repeat("a", n-1) + "."
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		expected []string
	}{
		{
			name:     "short text is a single chunk",
			text:     "Hello there.",
			maxChars: 900,
			expected: []string{"Hello there."},
		},
		{
			name:     "whitespace is normalized",
			text:     "  Hello \n\t there.  ",
			maxChars: 900,
			expected: []string{"Hello there."},
		},
		{
			name:     "empty input",
			text:     "",
			maxChars: 900,
			expected: nil,
		},
		{
			name:     "whitespace only",
			text:     " \n\t ",
			maxChars: 10,
			expected: nil,
		},
		{
			name:     "sentences packed greedily",
			text:     "One one. Two two. Three three.",
			maxChars: 17,
			expected: []string{"One one. Two two.", "Three three."},
		},
		{
			name:     "all terminators split",
			text:     "Stop! Why? Because.",
			maxChars: 9,
			expected: []string{"Stop!", "Why?", "Because."},
		},
		{
			name:     "trailing text without terminator",
			text:     "First sentence. and then some",
			maxChars: 16,
			expected: []string{"First sentence.", "and then some"},
		},
		{
			name:     "long word is hard sliced",
			text:     "abcdefghij",
			maxChars: 4,
			expected: []string{"abcd", "efgh", "ij"},
		},
		{
			name:     "long sentence sliced after flushing current",
			text:     "Hi. abcdefghij. Yo.",
			maxChars: 5,
			expected: []string{"Hi.", "abcde", "fghij", ".", "Yo."},
		},
		{
			name:     "multibyte runes are never split",
			text:     "ąęśćżźńół",
			maxChars: 4,
			expected: []string{"ąęść", "żźńó", "ł"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(tt.text, tt.maxChars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, chunks)
		})
	}
}

func TestSplitInvalidMaxChars(t *testing.T) {
	for _, n := range []int{0, -1, -900} {
		chunks, err := Split("Hello there.", n)
		assert.ErrorIs(t, err, ErrInvalidMaxChars)
		assert.Nil(t, chunks)
	}
}

func TestSplitThreeLongSentences(t *testing.T) {
	s := sentenceOf(400)
	text := s + " " + s + " " + s

	chunks, err := Split(text, 900)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, s+" "+s, chunks[0])
	assert.Equal(t, s, chunks[1])
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 900)
	}
}

func TestSplitDefaultBound(t *testing.T) {
	text := strings.Repeat("A. ", MaxCharsPerChunk/2)
	chunks, err := Split(text, MaxCharsPerChunk)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), MaxCharsPerChunk)
	}
}

func TestChunksContinuation(t *testing.T) {
	chunks, err := Chunks("One. Two. Three.", 6)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, i < 2, c.Continue)
	}
}

func TestChunksEmpty(t *testing.T) {
	chunks, err := Chunks("   ", 5)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

// textGen builds text from words and terminators, with arbitrary whitespace.
func textGen(maxWord int) *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		n := rapid.IntRange(0, 40).Draw(t, "words")
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteString(rapid.StringMatching(`[ \t\n]{0,3}`).Draw(t, "ws"))
			b.WriteString(rapid.StringMatching(`[a-zA-Zé]{1,`+strconv.Itoa(maxWord)+`}`).Draw(t, "word"))
			b.WriteString(rapid.SampledFrom([]string{"", "", ".", "!", "?", ","}).Draw(t, "punct"))
		}
		return b.String()
	})
}

func TestSplitProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := textGen(12).Draw(rt, "text")
		maxChars := rapid.IntRange(1, 60).Draw(rt, "maxChars")

		chunks, err := Split(text, maxChars)
		require.NoError(rt, err)

		normalized := Normalize(text)
		if normalized == "" {
			assert.Empty(rt, chunks)
			return
		}
		for _, c := range chunks {
			assert.NotEmpty(rt, strings.TrimSpace(c))
			assert.LessOrEqual(rt, utf8.RuneCountInString(c), maxChars)
		}

		strip := func(s string) string { return strings.ReplaceAll(s, " ", "") }
		assert.Equal(rt, strip(normalized), strip(strings.Join(chunks, "")))
	})
}

func TestSplitRejoinWithoutSlicing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "sentences")
		parts := make([]string, n)
		for i := range parts {
			words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}`), 1, 5).Draw(rt, "words")
			parts[i] = strings.Join(words, " ") + "."
		}
		text := strings.Join(parts, "  \n ")
		// Every sentence fits, so no hard slicing happens.
		maxChars := rapid.IntRange(42, 200).Draw(rt, "maxChars")

		chunks, err := Split(text, maxChars)
		require.NoError(rt, err)
		assert.Equal(rt, Normalize(text), Normalize(strings.Join(chunks, " ")))
	})
}
