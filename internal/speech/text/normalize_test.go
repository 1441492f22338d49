package text_test

import (
	"testing"

	"github.com/book-expert/speech-translator/internal/speech/text"
	"github.com/stretchr/testify/assert"
)

// normalizerTestCase defines a standard test case for the normalizer.
type normalizerTestCase struct {
	name     string
	input    string
	expected string
}

func TestNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	tests := []normalizerTestCase{
		{name: "empty", input: "", expected: ""},
		{name: "plain", input: "Hello world", expected: "Hello world"},
		{name: "whitespace", input: "  Hello\n\tworld\r\n ", expected: "Hello world"},
		{name: "dashes and quotes", input: "“Go”—it’s fast", expected: `"Go"-it's fast`},
		{name: "ellipsis char", input: "wait…", expected: "wait..."},
		{name: "repeated bangs", input: "Stop!!!", expected: "Stop!"},
		{name: "long dot run", input: "and.....", expected: "and..."},
		{name: "url", input: "see https://example.com/a?b=c now", expected: "see link now"},
		{name: "control chars", input: "a\x00b\x07c", expected: "abc"},
		{name: "devanagari", input: "नमस्ते  दुनिया", expected: "नमस्ते दुनिया"},
	}

	normalizer := text.NewNormalizer()

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, normalizer.Normalize(testCase.input))
		})
	}
}
