// Package line splits raw input into words and tracks the cursor within them.
package line

import (
	"regexp"
	"strings"
)

// Word is one token of a parsed line. Text has quotes and escapes removed;
// Start and End are byte offsets into the raw line.
type Word struct {
	Text  string
	Start int
	End   int
}

// ParsedLine is the result of splitting a raw line.
type ParsedLine struct {
	Line   string
	Words  []Word
	Cursor int

	// WordIndex is the index of the word containing Cursor, or len(Words)
	// when the cursor sits in trailing whitespace.
	WordIndex int

	// WordCursor is the cursor offset within the unquoted text of the
	// current word.
	WordCursor int

	// Depth is the number of brackets left open at the end of the line.
	Depth int

	// Quote is the quote character open at the cursor, 0 outside quotes.
	Quote byte
}

// Word returns the text of the word under the cursor, or "" when the
// cursor is past the last word.
func (p *ParsedLine) Word() string {
	if p.WordIndex < 0 || p.WordIndex >= len(p.Words) {
		return ""
	}
	return p.Words[p.WordIndex].Text
}

// Prefix returns the part of the current word before the cursor.
func (p *ParsedLine) Prefix() string {
	w := p.Word()
	if p.WordCursor <= 0 {
		return ""
	}
	if p.WordCursor >= len(w) {
		return w
	}
	return w[:p.WordCursor]
}

// Texts returns the text of every word.
func (p *ParsedLine) Texts() []string {
	out := make([]string, len(p.Words))
	for i, w := range p.Words {
		out[i] = w.Text
	}
	return out
}

// Head returns the first word, or "".
func (p *ParsedLine) Head() string {
	if len(p.Words) == 0 {
		return ""
	}
	return p.Words[0].Text
}

// Args returns every word after the head.
func (p *ParsedLine) Args() []string {
	if len(p.Words) < 2 {
		return nil
	}
	return p.Texts()[1:]
}

// Contains reports whether any word equals s.
func (p *ParsedLine) Contains(s string) bool {
	for _, w := range p.Words {
		if w.Text == s {
			return true
		}
	}
	return false
}

var (
	commandRE    = regexp.MustCompile(`^[:]?[a-zA-Z]+[a-zA-Z0-9_-]*$`)
	assignmentRE = regexp.MustCompile(`^[a-zA-Z_]+[a-zA-Z0-9_-]*=`)
)

// CommandName extracts the command from the leading word of a line,
// dropping a "NAME=" assignment prefix. It returns "" when what remains is
// not a valid command name.
func CommandName(word string) string {
	word = strings.TrimSpace(word)
	if f := strings.Fields(word); len(f) > 0 {
		word = f[0]
	}
	if loc := assignmentRE.FindStringIndex(word); loc != nil {
		word = word[loc[1]:]
	}
	if !commandRE.MatchString(word) {
		return ""
	}
	return word
}
