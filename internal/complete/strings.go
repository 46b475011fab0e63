package complete

import "github.com/runger/lineloop/internal/line"

// Strings completes from a fixed vocabulary or from a supplier that is
// consulted on every call.
type Strings struct {
	cands    []Candidate
	supplier func() []string
}

// NewStrings completes the given values.
func NewStrings(values ...string) *Strings {
	s := &Strings{cands: make([]Candidate, 0, len(values))}
	for _, v := range values {
		s.cands = append(s.cands, NewCandidate(v))
	}
	return s
}

// StringsOf completes pre-built candidates.
func StringsOf(cands ...Candidate) *Strings {
	return &Strings{cands: cands}
}

// StringsFrom completes whatever supplier returns at call time.
func StringsFrom(supplier func() []string) *Strings {
	return &Strings{supplier: supplier}
}

// Complete implements Completer.
func (s *Strings) Complete(*line.ParsedLine) []Candidate {
	if s.supplier == nil {
		out := make([]Candidate, len(s.cands))
		copy(out, s.cands)
		return out
	}
	values := s.supplier()
	out := make([]Candidate, 0, len(values))
	for _, v := range values {
		out = append(out, NewCandidate(v))
	}
	return out
}
