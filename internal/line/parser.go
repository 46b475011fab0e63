package line

import (
	"errors"
	"strings"
)

// Bracket identifies one bracket kind.
type Bracket uint8

// Bracket kinds recognised by the parser.
const (
	Round  Bracket = 1 << iota // ( )
	Curly                      // { }
	Square                     // [ ]
	Angle                      // < >
)

// BracketSet is a set of bracket kinds.
type BracketSet uint8

// Brackets builds a set from individual kinds.
func Brackets(kinds ...Bracket) BracketSet {
	var s BracketSet
	for _, k := range kinds {
		s |= BracketSet(k)
	}
	return s
}

// Has reports whether k is in the set.
func (s BracketSet) Has(k Bracket) bool {
	return s&BracketSet(k) != 0
}

var bracketPairs = []struct {
	kind        Bracket
	open, close byte
}{
	{Round, '(', ')'},
	{Curly, '{', '}'},
	{Square, '[', ']'},
	{Angle, '<', '>'},
}

func (s BracketSet) opening(c byte) (Bracket, bool) {
	for _, p := range bracketPairs {
		if p.open == c && s.Has(p.kind) {
			return p.kind, true
		}
	}
	return 0, false
}

func (s BracketSet) closing(c byte) (Bracket, bool) {
	for _, p := range bracketPairs {
		if p.close == c && s.Has(p.kind) {
			return p.kind, true
		}
	}
	return 0, false
}

func closer(k Bracket) byte {
	for _, p := range bracketPairs {
		if p.kind == k {
			return p.close
		}
	}
	return 0
}

// Context tells the parser why the line is being parsed.
type Context int

const (
	// ContextAccept is used when the user pressed enter. Continuation
	// rules apply and Parse may return an *IncompleteError.
	ContextAccept Context = iota
	// ContextComplete is used for completion and dispatch. Parse never
	// fails in this context.
	ContextComplete
)

// ErrIncomplete is matched by every *IncompleteError.
var ErrIncomplete = errors.New("incomplete input")

// IncompleteError reports that the line needs more input before it can be
// accepted. Missing names what is outstanding: "quote", "dquote",
// "newline", or "add: " followed by the closing brackets still owed.
type IncompleteError struct {
	Missing string
	Depth   int
}

func (e *IncompleteError) Error() string {
	return "incomplete input: missing " + e.Missing
}

// Is makes errors.Is(err, ErrIncomplete) succeed.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// Parser splits lines into words. The zero value never asks for
// continuation.
type Parser struct {
	EOFOnUnclosedQuote    bool
	EOFOnUnclosedBrackets BracketSet
	EOFOnEscapedNewLine   bool
}

// Parse splits text into words and locates cursor among them. A cursor
// outside the text is clamped to its end.
func (p Parser) Parse(text string, cursor int, ctx Context) (*ParsedLine, error) {
	if cursor < 0 || cursor > len(text) {
		cursor = len(text)
	}

	var (
		words   []Word
		cur     strings.Builder
		inWord  bool
		start   int
		quote   byte
		escaped bool
		stack   []Bracket
	)
	// emitted[i] is the length of the current word buffer before byte i.
	emitted := make([]int, len(text)+1)

	begin := func(i int) {
		if !inWord {
			inWord = true
			start = i
		}
	}
	flush := func(end int) {
		words = append(words, Word{Text: cur.String(), Start: start, End: end})
		cur.Reset()
		inWord = false
	}

	openAt := byte(0)
	for i := 0; i < len(text); i++ {
		emitted[i] = cur.Len()
		if i == cursor {
			openAt = quote
		}
		c := text[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case quote != 0:
			switch {
			case c == quote:
				quote = 0
			case c == '\\' && quote == '"':
				escaped = true
			default:
				cur.WriteByte(c)
			}
		case c == '\\':
			begin(i)
			escaped = true
		case c == '\'' || c == '"':
			begin(i)
			quote = c
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if inWord {
				flush(i)
			}
		default:
			begin(i)
			if k, ok := p.EOFOnUnclosedBrackets.opening(c); ok {
				stack = append(stack, k)
			} else if k, ok := p.EOFOnUnclosedBrackets.closing(c); ok {
				if n := len(stack); n > 0 && stack[n-1] == k {
					stack = stack[:n-1]
				}
			}
			cur.WriteByte(c)
		}
	}
	emitted[len(text)] = cur.Len()
	if cursor == len(text) {
		openAt = quote
	}
	if inWord {
		flush(len(text))
	}

	pl := &ParsedLine{Line: text, Words: words, Cursor: cursor, Depth: len(stack), Quote: openAt}
	pl.locate(emitted)

	if ctx != ContextAccept {
		return pl, nil
	}
	switch {
	case escaped && p.EOFOnEscapedNewLine:
		return pl, &IncompleteError{Missing: "newline", Depth: len(stack)}
	case quote != 0 && p.EOFOnUnclosedQuote:
		missing := "quote"
		if quote == '"' {
			missing = "dquote"
		}
		return pl, &IncompleteError{Missing: missing, Depth: len(stack)}
	case len(stack) > 0:
		var b strings.Builder
		b.WriteString("add: ")
		for i := len(stack) - 1; i >= 0; i-- {
			b.WriteByte(closer(stack[i]))
		}
		return pl, &IncompleteError{Missing: b.String(), Depth: len(stack)}
	}
	return pl, nil
}

func (p *ParsedLine) locate(emitted []int) {
	if len(p.Words) == 0 {
		if len(p.Line) > 0 {
			p.Words = []Word{{Start: p.Cursor, End: p.Cursor}}
		}
		return
	}
	for i, w := range p.Words {
		if p.Cursor >= w.Start && p.Cursor <= w.End {
			p.WordIndex = i
			p.WordCursor = emitted[p.Cursor]
			if p.Cursor == w.Start {
				p.WordCursor = 0
			}
			return
		}
		if p.Cursor < w.Start {
			// Between two words: the cursor starts a new one here.
			p.WordIndex = i
			p.WordCursor = 0
			return
		}
	}
	p.WordIndex = len(p.Words)
}

// Escape returns s written so that Parse reads it back as the rest of one
// word. quote is the quote open where s is inserted, 0 if none.
func Escape(s string, quote byte) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch quote {
		case '\'':
			if c == '\'' {
				b.WriteString(`'\''`)
				continue
			}
		case '"':
			if c == '"' || c == '\\' {
				b.WriteByte('\\')
			}
		default:
			switch c {
			case ' ', '\t', '\n', '\r', '\'', '"', '\\':
				b.WriteByte('\\')
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
