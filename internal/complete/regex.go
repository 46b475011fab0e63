package complete

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/runger/lineloop/internal/line"
)

// ErrPattern is wrapped by every regex grammar syntax error.
var ErrPattern = errors.New("invalid completion pattern")

// Regex completes against a pattern over symbols, such as
// "C1 C11* C12+ | C2 C21* C22+". Each symbol names a completer; a word
// matches a symbol when it is one of that completer's candidates.
// Postfix *, + and ? repeat, | alternates and parentheses group.
type Regex struct {
	start   *nfaState
	resolve func(symbol string) Completer
}

// NewRegex compiles pattern. resolve maps symbols to completers and may
// return nil for symbols that never match.
func NewRegex(pattern string, resolve func(symbol string) Completer) (*Regex, error) {
	p := &patternParser{}
	if err := p.tokenize(pattern); err != nil {
		return nil, err
	}
	frag, err := p.alternation()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrPattern, p.tokens[p.pos])
	}
	frag.patch(&nfaState{match: true})
	return &Regex{start: frag.start, resolve: resolve}, nil
}

// MustRegex is NewRegex for patterns known to be valid.
func MustRegex(pattern string, resolve func(symbol string) Completer) *Regex {
	r, err := NewRegex(pattern, resolve)
	if err != nil {
		panic(err)
	}
	return r
}

// Complete implements Completer.
func (r *Regex) Complete(pl *line.ParsedLine) []Candidate {
	live := closure([]*nfaState{r.start})
	for i := 0; i < pl.WordIndex && i < len(pl.Words); i++ {
		word := pl.Words[i].Text
		var next []*nfaState
		for _, s := range live {
			if s.symbol != "" && accepts(r.resolve(s.symbol), word) {
				next = append(next, s.out)
			}
		}
		live = closure(next)
		if len(live) == 0 {
			return nil
		}
	}

	var out []Candidate
	seen := make(map[string]bool)
	for _, s := range live {
		if s.symbol == "" || seen[s.symbol] {
			continue
		}
		seen[s.symbol] = true
		if c := r.resolve(s.symbol); c != nil {
			out = append(out, c.Complete(pl)...)
		}
	}
	return Dedupe(out)
}

// nfaState is a Thompson NFA state: a symbol edge, an epsilon split, or
// the accepting state.
type nfaState struct {
	symbol string
	out    *nfaState
	alt    *nfaState
	split  bool
	match  bool
}

// closure returns the states reachable through epsilon edges that
// consume a word or accept.
func closure(states []*nfaState) []*nfaState {
	var out []*nfaState
	seen := make(map[*nfaState]bool)
	var walk func(s *nfaState)
	walk = func(s *nfaState) {
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		if s.split {
			walk(s.out)
			walk(s.alt)
			return
		}
		out = append(out, s)
	}
	for _, s := range states {
		walk(s)
	}
	return out
}

// fragment is a partially built NFA with dangling exits.
type fragment struct {
	start *nfaState
	exits []**nfaState
}

func (f fragment) patch(s *nfaState) {
	for _, e := range f.exits {
		*e = s
	}
}

type patternParser struct {
	tokens []string
	pos    int
}

func (p *patternParser) tokenize(pattern string) error {
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '*' || c == '+' || c == '?' || c == '|' || c == '(' || c == ')':
			p.tokens = append(p.tokens, string(c))
			i++
		case c == '_' || c == '-' || unicode.IsLetter(c) || unicode.IsDigit(c):
			j := i
			for j < len(runes) && (runes[j] == '_' || runes[j] == '-' || unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			p.tokens = append(p.tokens, string(runes[i:j]))
			i = j
		default:
			return fmt.Errorf("%w: unexpected character %q", ErrPattern, c)
		}
	}
	if len(p.tokens) == 0 {
		return fmt.Errorf("%w: empty pattern", ErrPattern)
	}
	return nil
}

func (p *patternParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *patternParser) alternation() (fragment, error) {
	left, err := p.sequence()
	if err != nil {
		return fragment{}, err
	}
	for p.peek() == "|" {
		p.pos++
		right, err := p.sequence()
		if err != nil {
			return fragment{}, err
		}
		s := &nfaState{split: true, out: left.start, alt: right.start}
		left = fragment{start: s, exits: append(left.exits, right.exits...)}
	}
	return left, nil
}

func (p *patternParser) sequence() (fragment, error) {
	var frag *fragment
	for {
		tok := p.peek()
		if tok == "" || tok == "|" || tok == ")" {
			break
		}
		f, err := p.factor()
		if err != nil {
			return fragment{}, err
		}
		if frag == nil {
			frag = &f
			continue
		}
		frag.patch(f.start)
		frag.exits = f.exits
	}
	if frag == nil {
		return fragment{}, fmt.Errorf("%w: empty alternative at token %d", ErrPattern, p.pos)
	}
	return *frag, nil
}

func (p *patternParser) factor() (fragment, error) {
	f, err := p.atom()
	if err != nil {
		return fragment{}, err
	}
	for {
		switch p.peek() {
		case "*":
			s := &nfaState{split: true, out: f.start}
			f.patch(s)
			f = fragment{start: s, exits: []**nfaState{&s.alt}}
		case "+":
			s := &nfaState{split: true, out: f.start}
			f.patch(s)
			f = fragment{start: f.start, exits: []**nfaState{&s.alt}}
		case "?":
			s := &nfaState{split: true, out: f.start}
			f = fragment{start: s, exits: append(f.exits, &s.alt)}
		default:
			return f, nil
		}
		p.pos++
	}
}

func (p *patternParser) atom() (fragment, error) {
	tok := p.peek()
	switch tok {
	case "(":
		p.pos++
		f, err := p.alternation()
		if err != nil {
			return fragment{}, err
		}
		if p.peek() != ")" {
			return fragment{}, fmt.Errorf("%w: missing )", ErrPattern)
		}
		p.pos++
		return f, nil
	case "", ")", "|", "*", "+", "?":
		return fragment{}, fmt.Errorf("%w: unexpected %q at token %d", ErrPattern, tok, p.pos)
	}
	p.pos++
	s := &nfaState{symbol: tok}
	return fragment{start: s, exits: []**nfaState{&s.out}}, nil
}
