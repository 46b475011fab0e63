package picker

import (
	"strings"
	"unicode/utf8"

	"github.com/runger/lineloop/internal/term"
)

// Sanitize makes an item safe to draw on one row: escape sequences are
// removed, invalid UTF-8 is replaced and control characters become spaces.
func Sanitize(s string) string {
	s = ValidateUTF8(term.StripANSI(s))
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
}

// ValidateUTF8 replaces invalid UTF-8 byte sequences with the Unicode
// replacement character (U+FFFD).
func ValidateUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			i++
		} else {
			b.WriteRune(r)
			i += size
		}
	}
	return b.String()
}

// PrettyEscapeLiterals replaces common *literal* escape-sequence spellings in
// shell commands (like "\033[" or "\x1b[") with a more readable token.
//
// This is intended for display-only rendering in pickers; it must not be used
// on strings that will be executed.
func PrettyEscapeLiterals(s string) string {
	if s == "" {
		return s
	}
	// Common ANSI escape spellings found in shell commands, including printf.
	// Note: these are *literal* backslashes, not actual ESC bytes.
	r := strings.NewReplacer(
		"\\033[", "<ESC>[",
		"\\033]", "<ESC>]",
		"\\x1b[", "<ESC>[",
		"\\x1B[", "<ESC>[",
		"\\x1b]", "<ESC>]",
		"\\x1B]", "<ESC>]",
		"\\e[", "<ESC>[",
		"\\e]", "<ESC>]",
	)
	return r.Replace(s)
}
