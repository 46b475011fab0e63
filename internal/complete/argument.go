package complete

import "github.com/runger/lineloop/internal/line"

// Argument completes a linear argument list: the completer at position i
// handles word i, and the last completer handles every later word. In
// strict mode each earlier word must be one of its completer's candidates
// before later positions complete at all.
type Argument struct {
	Completers []Completer
	Strict     bool
}

// NewArgument builds a strict argument completer.
func NewArgument(completers ...Completer) *Argument {
	return &Argument{Completers: completers, Strict: true}
}

func (a *Argument) at(i int) Completer {
	if i >= len(a.Completers) {
		return a.Completers[len(a.Completers)-1]
	}
	return a.Completers[i]
}

// Complete implements Completer.
func (a *Argument) Complete(pl *line.ParsedLine) []Candidate {
	if len(a.Completers) == 0 || pl.WordIndex < 0 {
		return nil
	}
	if a.Strict {
		for i := 0; i < pl.WordIndex; i++ {
			word := ""
			if i < len(pl.Words) {
				word = pl.Words[i].Text
			}
			if !accepts(a.at(i), word) {
				return nil
			}
		}
	}
	c := a.at(pl.WordIndex)
	if c == nil {
		return nil
	}
	return c.Complete(pl)
}
