package complete

import (
	"errors"
	"fmt"

	"github.com/runger/lineloop/internal/line"
)

// ErrCyclicTree is returned when a grammar node is its own descendant.
var ErrCyclicTree = errors.New("tree grammar contains a cycle")

// Node is one position of a tree grammar. A word is accepted at a node
// when it equals one of Values or is a candidate of Completer; the words
// after it are completed from Children.
type Node struct {
	Values    []string
	Completer Completer
	Children  []*Node
}

// TreeNode builds a node accepting name.
func TreeNode(name string, children ...*Node) *Node {
	return &Node{Values: []string{name}, Children: children}
}

// TreeLeaf builds a childless node accepting any of values.
func TreeLeaf(values ...string) *Node {
	return &Node{Values: values}
}

func (n *Node) candidates(pl *line.ParsedLine) []Candidate {
	out := make([]Candidate, 0, len(n.Values))
	for _, v := range n.Values {
		out = append(out, NewCandidate(v))
	}
	if n.Completer != nil {
		out = append(out, n.Completer.Complete(pl)...)
	}
	return out
}

func (n *Node) accepts(word string) bool {
	for _, v := range n.Values {
		if v == word {
			return true
		}
	}
	return n.Completer != nil && accepts(n.Completer, word)
}

// Tree completes by walking a grammar one word per level.
type Tree struct {
	roots []*Node
}

// NewTree builds a tree completer over the given top level nodes.
func NewTree(roots ...*Node) (*Tree, error) {
	onPath := make(map[*Node]bool)
	var visit func(n *Node, depth int) error
	visit = func(n *Node, depth int) error {
		if onPath[n] {
			return fmt.Errorf("%w: node %v at depth %d", ErrCyclicTree, n.Values, depth)
		}
		onPath[n] = true
		defer delete(onPath, n)
		for _, c := range n.Children {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := visit(r, 0); err != nil {
			return nil, err
		}
	}
	return &Tree{roots: roots}, nil
}

// MustTree is NewTree for grammars known to be valid.
func MustTree(roots ...*Node) *Tree {
	t, err := NewTree(roots...)
	if err != nil {
		panic(err)
	}
	return t
}

// Complete implements Completer.
func (t *Tree) Complete(pl *line.ParsedLine) []Candidate {
	level := t.roots
	for i := 0; i < pl.WordIndex && i < len(pl.Words); i++ {
		var next *Node
		for _, n := range level {
			if n.accepts(pl.Words[i].Text) {
				next = n
				break
			}
		}
		if next == nil {
			return nil
		}
		level = next.Children
	}

	var out []Candidate
	for _, n := range level {
		out = append(out, n.candidates(pl)...)
	}
	return Dedupe(out)
}
