package complete

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/lineloop/internal/line"
)

// at parses text with the cursor at its end.
func at(t *testing.T, text string) *line.ParsedLine {
	t.Helper()
	pl, err := line.Parser{}.Parse(text, len(text), line.ContextComplete)
	require.NoError(t, err)
	return pl
}

func sorted(cands []Candidate) []string {
	v := Values(cands)
	sort.Strings(v)
	return v
}

func TestNewCandidateStripsEscapes(t *testing.T) {
	t.Parallel()

	c := NewCandidate("\x1b[1mfoo\x1b[0m")
	assert.Equal(t, "foo", c.Value)
	assert.Equal(t, "\x1b[1mfoo\x1b[0m", c.Label())
	assert.True(t, c.Complete)
	assert.Equal(t, "bar", Candidate{Value: "bar"}.Label())
}

func TestStrings(t *testing.T) {
	t.Parallel()

	s := NewStrings("foo", "bar", "baz")
	assert.Equal(t, []string{"foo", "bar", "baz"}, Values(s.Complete(at(t, ""))))

	// Callers may modify the result without touching the vocabulary.
	got := s.Complete(at(t, ""))
	got[0].Value = "changed"
	assert.Equal(t, "foo", s.Complete(at(t, ""))[0].Value)

	n := 0
	dyn := StringsFrom(func() []string {
		n++
		if n == 1 {
			return []string{"one"}
		}
		return []string{"two", "three"}
	})
	assert.Equal(t, []string{"one"}, Values(dyn.Complete(at(t, ""))))
	assert.Equal(t, []string{"two", "three"}, Values(dyn.Complete(at(t, ""))))
}

func TestAggregateDedupesByValue(t *testing.T) {
	t.Parallel()

	first := StringsOf(Candidate{Value: "a", Description: "first"}, Candidate{Value: "b"})
	second := StringsOf(Candidate{Value: "b", Description: "second"}, Candidate{Value: "c"}, Candidate{Value: "a"})
	nested := NewAggregate(NewAggregate(first, nil), second, NewAggregate(second))

	got := nested.Complete(at(t, ""))
	want := []Candidate{{Value: "a", Description: "first"}, {Value: "b"}, {Value: "c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}

	seen := map[string]bool{}
	for _, c := range got {
		assert.False(t, seen[c.Value], "duplicate %q", c.Value)
		seen[c.Value] = true
	}
}

func TestArgument(t *testing.T) {
	t.Parallel()

	arg := NewArgument(
		NewStrings("foo11", "foo12"),
		NewStrings("foo21", "foo22"),
		StringsOf(Candidate{Value: "", Description: "frequency in MHz"}),
	)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"first word", "fo", []string{"foo11", "foo12"}},
		{"second word", "foo11 ", []string{"foo21", "foo22"}},
		{"third word", "foo11 foo21 ", []string{""}},
		{"strict rejects unknown first word", "nope ", nil},
		{"strict rejects unknown second word", "foo11 nope ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := arg.Complete(at(t, tt.text))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, Values(got))
		})
	}

	repeat := NewArgument(NewStrings("a"), NewStrings("b"))
	assert.Equal(t, []string{"b"}, Values(repeat.Complete(at(t, "a b "))), "last completer repeats")

	lax := &Argument{Completers: []Completer{NewStrings("a"), NewStrings("b")}}
	assert.Equal(t, []string{"b"}, Values(lax.Complete(at(t, "zzz "))))

	stop := NewArgument(NewStrings("a"), Null)
	assert.Empty(t, stop.Complete(at(t, "a ")))
	assert.Empty(t, (&Argument{}).Complete(at(t, "")))
}

func TestTree(t *testing.T) {
	t.Parallel()

	tree := MustTree(
		TreeNode("Command1",
			TreeNode("Option1",
				TreeLeaf("Param1", "Param2")),
			TreeNode("Option2"),
			TreeNode("Option3")),
		TreeNode("Command2"),
	)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"root", "", []string{"Command1", "Command2"}},
		{"typing root", "Com", []string{"Command1", "Command2"}},
		{"branch", "Command1 ", []string{"Option1", "Option2", "Option3"}},
		{"leaf values", "Command1 Option1 ", []string{"Param1", "Param2"}},
		{"past leaf", "Command1 Option1 Param1 ", nil},
		{"childless node", "Command1 Option2 ", nil},
		{"dead branch", "Command3 ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tree.Complete(at(t, tt.text))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, sorted(got))
		})
	}
}

func TestTreeDynamicNode(t *testing.T) {
	t.Parallel()

	tree := MustTree(&Node{
		Completer: NewStrings("start", "stop"),
		Children:  []*Node{TreeLeaf("now", "later")},
	})
	assert.Equal(t, []string{"start", "stop"}, Values(tree.Complete(at(t, "st"))))
	assert.Equal(t, []string{"later", "now"}, sorted(tree.Complete(at(t, "stop "))))
}

func TestTreeRejectsCycles(t *testing.T) {
	t.Parallel()

	a := TreeNode("a")
	b := TreeNode("b", a)
	a.Children = []*Node{b}

	_, err := NewTree(a)
	require.ErrorIs(t, err, ErrCyclicTree)
	assert.Panics(t, func() { MustTree(a) })

	// Sharing a subtree without a cycle is fine.
	shared := TreeLeaf("x")
	_, err = NewTree(TreeNode("p", shared), TreeNode("q", shared))
	assert.NoError(t, err)
}

func regexGrammar(t *testing.T) *Regex {
	t.Helper()
	symbols := map[string]Completer{
		"C1":  NewStrings("cmd1"),
		"C11": NewStrings("--opt11", "--opt12"),
		"C12": NewStrings("arg11", "arg12", "arg13"),
		"C2":  NewStrings("cmd2"),
		"C21": NewStrings("--opt21", "--opt22"),
		"C22": NewStrings("arg21", "arg22", "arg23"),
	}
	r, err := NewRegex("C1 C11* C12+ | C2 C21* C22+", func(s string) Completer { return symbols[s] })
	require.NoError(t, err)
	return r
}

func TestRegex(t *testing.T) {
	t.Parallel()

	r := regexGrammar(t)
	opts11 := []string{"--opt11", "--opt12"}
	args11 := []string{"arg11", "arg12", "arg13"}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"first word", "", []string{"cmd1", "cmd2"}},
		{"star may match zero times", "cmd1 ", append(append([]string{}, opts11...), args11...)},
		{"star repeats", "cmd1 --opt11 --opt11 ", append(append([]string{}, opts11...), args11...)},
		{"inside plus", "cmd1 arg11 ", args11},
		{"plus repeats", "cmd1 arg11 arg12 ", args11},
		{"other branch", "cmd2 ", []string{"--opt21", "--opt22", "arg21", "arg22", "arg23"}},
		{"option after argument is dead", "cmd1 arg11 --opt11 ", nil},
		{"unknown command", "cmd3 ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := r.Complete(at(t, tt.text))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, Values(got))
		})
	}
}

func TestRegexOperators(t *testing.T) {
	t.Parallel()

	symbols := map[string]Completer{
		"A": NewStrings("a"),
		"B": NewStrings("b"),
		"C": NewStrings("c"),
	}
	resolve := func(s string) Completer { return symbols[s] }

	r := MustRegex("A (B | C)? C", resolve)
	assert.Equal(t, []string{"b", "c"}, Values(r.Complete(at(t, "a "))))
	assert.Equal(t, []string{"c"}, Values(r.Complete(at(t, "a b "))))

	unknown := MustRegex("A X", resolve)
	assert.Empty(t, unknown.Complete(at(t, "a ")))
}

func TestRegexSyntaxErrors(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"", "A |", "(A", "A)", "* A", "A $", "A | | B"} {
		_, err := NewRegex(p, func(string) Completer { return nil })
		assert.ErrorIs(t, err, ErrPattern, "pattern %q", p)
	}
}

func TestFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.txt"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "inner.go"), nil, 0o600))

	f := &Files{Dir: func() string { return dir }}

	got := f.Complete(at(t, "cat "))
	assert.Equal(t, []string{"alpha.txt", "sub/"}, sorted(got))
	for _, c := range got {
		if c.Value == "sub/" {
			assert.False(t, c.Complete, "directories stay open for more input")
		}
	}

	assert.Equal(t, []string{"sub/inner.go"}, Values(f.Complete(at(t, "cat sub/"))))
	assert.Contains(t, Values(f.Complete(at(t, "cat ."))), ".hidden")

	assert.Empty(t, f.Complete(at(t, "cat missing/")), "unreadable directories fail soft")

	limited := &Files{Dir: func() string { return dir }, Limit: 1}
	assert.LessOrEqual(t, len(limited.Complete(at(t, "cat "))), 1)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	cands := []Candidate{{Value: "Foo"}, {Value: "foobar"}, {Value: "bar"}}
	assert.Equal(t, []string{"foobar"}, Values(Filter(cands, "foo", false)))
	assert.Equal(t, []string{"Foo", "foobar"}, Values(Filter(cands, "foo", true)))
	assert.Len(t, Filter(cands, "", false), 3)
}

func TestCommonPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo", CommonPrefix([]string{"foobar", "foo", "foobaz"}))
	assert.Equal(t, "", CommonPrefix([]string{"a", "b"}))
	assert.Equal(t, "", CommonPrefix(nil))
	assert.Equal(t, "only", CommonPrefix([]string{"only"}))
}

func TestFunc(t *testing.T) {
	t.Parallel()

	param := Func(func(pl *line.ParsedLine) []Candidate {
		if pl.WordIndex == 0 {
			return []Candidate{NewCandidate("Command1")}
		}
		return nil
	})
	assert.Equal(t, []string{"Command1"}, Values(param.Complete(at(t, "Co"))))
	assert.Empty(t, param.Complete(at(t, "Command1 ")))
	assert.Empty(t, Null.Complete(at(t, "")))
}
