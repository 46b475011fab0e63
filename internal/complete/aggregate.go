package complete

import "github.com/runger/lineloop/internal/line"

// Aggregate merges the candidates of several completers in declaration
// order, dropping later duplicates. Aggregates may contain aggregates; an
// aggregate must not contain itself, directly or indirectly.
type Aggregate struct {
	completers []Completer
}

// NewAggregate builds an aggregate. Nil completers are skipped.
func NewAggregate(completers ...Completer) *Aggregate {
	a := &Aggregate{}
	for _, c := range completers {
		a.Add(c)
	}
	return a
}

// Add appends a completer.
func (a *Aggregate) Add(c Completer) {
	if c != nil {
		a.completers = append(a.completers, c)
	}
}

// Complete implements Completer.
func (a *Aggregate) Complete(pl *line.ParsedLine) []Candidate {
	var out []Candidate
	for _, c := range a.completers {
		out = append(out, c.Complete(pl)...)
	}
	return Dedupe(out)
}
