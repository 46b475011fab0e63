// Package complete provides completion strategies that turn a partially
// typed line into candidates, and the aggregate that merges them.
package complete

import (
	"strings"

	"github.com/runger/lineloop/internal/line"
	"github.com/runger/lineloop/internal/term"
)

// Candidate is one completion suggestion. Two candidates are the same
// candidate when their Value matches.
type Candidate struct {
	Value       string
	Display     string
	Group       string
	Description string
	// Suffix is appended after Value when the candidate is accepted.
	Suffix string
	// Key overrides Value for sorting.
	Key string
	// Complete marks a finished token. Incomplete candidates do not get a
	// trailing separator.
	Complete bool
}

// NewCandidate builds a complete candidate. Escape sequences are kept for
// display and removed from the value.
func NewCandidate(value string) Candidate {
	return Candidate{Value: term.StripANSI(value), Display: value, Complete: true}
}

// Label returns the text to show for the candidate.
func (c Candidate) Label() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Value
}

// Completer produces candidates for the word under the cursor. The line
// editor narrows the result to the typed prefix, so a completer may return
// every candidate valid at the cursor's position.
type Completer interface {
	Complete(pl *line.ParsedLine) []Candidate
}

// Func adapts a function to the Completer interface.
type Func func(pl *line.ParsedLine) []Candidate

// Complete implements Completer.
func (f Func) Complete(pl *line.ParsedLine) []Candidate {
	return f(pl)
}

// Null never completes anything. As the last completer of an Argument it
// stops completion after the preceding positions.
var Null Completer = Func(func(*line.ParsedLine) []Candidate { return nil })

// Dedupe removes candidates whose value was already seen, keeping the
// first occurrence and the original order.
func Dedupe(cands []Candidate) []Candidate {
	if len(cands) < 2 {
		return cands
	}
	seen := make(map[string]bool, len(cands))
	out := cands[:0:0]
	for _, c := range cands {
		if seen[c.Value] {
			continue
		}
		seen[c.Value] = true
		out = append(out, c)
	}
	return out
}

// Filter keeps the candidates whose value starts with prefix.
func Filter(cands []Candidate, prefix string, foldCase bool) []Candidate {
	if prefix == "" {
		return cands
	}
	if foldCase {
		prefix = strings.ToLower(prefix)
	}
	var out []Candidate
	for _, c := range cands {
		v := c.Value
		if foldCase {
			v = strings.ToLower(v)
		}
		if strings.HasPrefix(v, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Values returns the value of every candidate.
func Values(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Value
	}
	return out
}

// CommonPrefix returns the longest prefix shared by every value.
func CommonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, v := range values[1:] {
		n := 0
		for n < len(prefix) && n < len(v) && prefix[n] == v[n] {
			n++
		}
		prefix = prefix[:n]
		if prefix == "" {
			break
		}
	}
	return prefix
}

// single builds a one word line, used to test whether a word is one of a
// completer's candidates.
func single(word string) *line.ParsedLine {
	return &line.ParsedLine{
		Line:       word,
		Words:      []line.Word{{Text: word, End: len(word)}},
		Cursor:     len(word),
		WordCursor: len(word),
	}
}

// accepts reports whether word is among c's candidates.
func accepts(c Completer, word string) bool {
	if c == nil {
		return false
	}
	for _, cand := range c.Complete(single(word)) {
		if cand.Value == word {
			return true
		}
	}
	return false
}
