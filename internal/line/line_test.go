package line

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		cursor     int
		words      []string
		wordIndex  int
		wordCursor int
		word       string
	}{
		{name: "simple", text: "cmd arg1 arg2", cursor: 13, words: []string{"cmd", "arg1", "arg2"}, wordIndex: 2, wordCursor: 4, word: "arg2"},
		{name: "trailing space", text: "cmd ", cursor: 4, words: []string{"cmd"}, wordIndex: 1, word: ""},
		{name: "empty", text: "", cursor: 0, words: nil, wordIndex: 0},
		{name: "blank", text: "   ", cursor: 3, words: []string{""}, wordIndex: 0},
		{name: "double quoted", text: `say "hello world"`, cursor: 17, words: []string{"say", "hello world"}, wordIndex: 1, wordCursor: 11, word: "hello world"},
		{name: "escaped space", text: `a\ b c`, cursor: 0, words: []string{"a b", "c"}, wordIndex: 0, word: "a b"},
		{name: "single quotes keep backslash", text: `'a\b'`, cursor: 5, words: []string{`a\b`}, wordIndex: 0, wordCursor: 3, word: `a\b`},
		{name: "mid word", text: "hello", cursor: 2, words: []string{"hello"}, wordIndex: 0, wordCursor: 2, word: "hello"},
		{name: "start of second word", text: "ab cd", cursor: 3, words: []string{"ab", "cd"}, wordIndex: 1, word: "cd"},
		{name: "end of first word", text: "ab cd", cursor: 2, words: []string{"ab", "cd"}, wordIndex: 0, wordCursor: 2, word: "ab"},
		{name: "between words", text: "ab   cd", cursor: 3, words: []string{"ab", "cd"}, wordIndex: 1, word: "cd"},
		{name: "cursor clamped", text: "ab", cursor: 99, words: []string{"ab"}, wordIndex: 0, wordCursor: 2, word: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pl, err := Parser{}.Parse(tt.text, tt.cursor, ContextAccept)
			require.NoError(t, err)
			if tt.words == nil {
				assert.Empty(t, pl.Words)
			} else {
				assert.Equal(t, tt.words, pl.Texts())
			}
			assert.Equal(t, tt.wordIndex, pl.WordIndex)
			assert.Equal(t, tt.wordCursor, pl.WordCursor)
			assert.Equal(t, tt.word, pl.Word())
		})
	}
}

func TestParseOffsets(t *testing.T) {
	t.Parallel()

	pl, err := Parser{}.Parse(`say "hi there" x`, 0, ContextComplete)
	require.NoError(t, err)
	require.Len(t, pl.Words, 3)
	assert.Equal(t, Word{Text: "say", Start: 0, End: 3}, pl.Words[0])
	assert.Equal(t, Word{Text: "hi there", Start: 4, End: 14}, pl.Words[1])
	assert.Equal(t, Word{Text: "x", Start: 15, End: 16}, pl.Words[2])
	assert.Equal(t, "say", pl.Head())
	assert.Equal(t, []string{"hi there", "x"}, pl.Args())
	assert.True(t, pl.Contains("x"))
	assert.False(t, pl.Contains("hi"))
}

func TestParsePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cursor int
		want   string
	}{
		{4, ""},
		{6, "ch"},
		{7, "che"},
		{12, "checkout"},
	}
	for _, tt := range tests {
		pl, err := Parser{}.Parse("git checkout", tt.cursor, ContextComplete)
		require.NoError(t, err)
		assert.Equal(t, "checkout", pl.Word())
		assert.Equal(t, tt.want, pl.Prefix(), "cursor %d", tt.cursor)
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typed string
		quote byte
	}{
		{"cmd ", 0},
		{`cmd "`, '"'},
		{"cmd '", '\''},
	}
	for _, tt := range tests {
		for _, word := range []string{"plain", "two words", `it's`, `say "x"`, `back\slash`, "tab\there"} {
			pl, err := Parser{}.Parse(tt.typed, len(tt.typed), ContextComplete)
			require.NoError(t, err)
			assert.Equal(t, tt.quote, pl.Quote)

			text := tt.typed + Escape(word, tt.quote)
			if tt.quote != 0 {
				text += string(tt.quote)
			}
			pl, err = Parser{EOFOnUnclosedQuote: true}.Parse(text, len(text), ContextAccept)
			require.NoError(t, err, text)
			assert.Equal(t, []string{"cmd", word}, pl.Texts(), text)
		}
	}
}

func TestParseContinuation(t *testing.T) {
	t.Parallel()

	quotes := Parser{EOFOnUnclosedQuote: true}
	brackets := Parser{EOFOnUnclosedBrackets: Brackets(Curly, Round, Square)}

	tests := []struct {
		name    string
		parser  Parser
		text    string
		missing string
		depth   int
	}{
		{name: "unclosed dquote", parser: quotes, text: `echo "abc`, missing: "dquote"},
		{name: "unclosed quote", parser: quotes, text: `echo 'abc`, missing: "quote"},
		{name: "closed quote", parser: quotes, text: `echo 'abc'`},
		{name: "quotes ignored without option", parser: Parser{}, text: `echo "abc`},
		{name: "nested brackets", parser: brackets, text: "foo(a, {b", missing: "add: })", depth: 2},
		{name: "balanced", parser: brackets, text: "foo(a, {b})"},
		{name: "bracket in quotes", parser: brackets, text: `foo "("`},
		{name: "unconfigured kind", parser: Parser{EOFOnUnclosedBrackets: Brackets(Curly)}, text: "f("},
		{name: "stray closer", parser: brackets, text: "a)"},
		{name: "escaped newline", parser: Parser{EOFOnEscapedNewLine: true}, text: `abc \`, missing: "newline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pl, err := tt.parser.Parse(tt.text, len(tt.text), ContextAccept)
			require.NotNil(t, pl)
			if tt.missing == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIncomplete))
			var inc *IncompleteError
			require.True(t, errors.As(err, &inc))
			assert.Equal(t, tt.missing, inc.Missing)
			assert.Equal(t, tt.depth, inc.Depth)
			assert.Equal(t, tt.depth, pl.Depth)

			_, err = tt.parser.Parse(tt.text, len(tt.text), ContextComplete)
			assert.NoError(t, err, "completion parsing never fails")
		})
	}
}

func TestCommandName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ls":          "ls",
		"  ls  ":      "ls",
		"FOO=ls":      "ls",
		"X_1=bar-baz": "bar-baz",
		":cmd":        ":cmd",
		"a-b_c9":      "a-b_c9",
		"9abc":        "",
		"?":           "",
		"":            "",
		"ls -l":       "ls",
	}
	for in, want := range tests {
		assert.Equal(t, want, CommandName(in), "CommandName(%q)", in)
	}
}

func TestSecondaryPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		primary string
		missing string
		lineNo  int
		want    string
	}{
		{"narrow primary", "%M%P > ", "prompt> ", "dquote", 1, "dquote > "},
		{"padded", "%M%P > ", "long-prompt> ", "add: }", 1, "add: }     > "},
		{"line number", "%N> ", "p> ", "", 2, "2> "},
		{"percent", "100%% ", "p> ", "", 1, "100% "},
		{"unknown escape kept", "%X ", "p> ", "", 1, "%X "},
		{"colored multi-line primary", "%P> ", "\x1b[42mfoo\x1b[0m@bar\nbaz> ", "", 1, "   > "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SecondaryPrompt(tt.pattern, tt.primary, tt.missing, tt.lineNo))
		})
	}
}
