package describe

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/lineloop/internal/term"
)

func fixtures() Static {
	return Static{
		"widget": {
			Main: Plain(
				"widget -N new-widget [function-name]",
				"widget -D widget ...",
				"widget -A old-widget new-widget",
				"widget -U string ...",
				"widget -l [options]",
			),
			Args: ArgNames("[pN...]"),
			Options: map[string][]Line{
				"-N": Plain("Create new widget"),
				"-D": Plain("Delete widgets"),
				"-A": Plain("Create alias to widget"),
				"-U": Plain("Push characters to the stack"),
				"-l": Plain("List user-defined widgets"),
			},
		},
		"foo12": {Args: ArgNames("param1", "param2", "[paramN...]")},
		"foo11": {
			Args: []ArgDesc{
				{Name: "param1", Desc: Plain(
					"Param1 description...",
					"line 2: This is a very long line that does exceed the terminal width.",
					"line 3", "line 4", "line 5", "line 6",
				)},
				{Name: "param2", Desc: Plain("Param2 description...", "line 2")},
				{Name: "param3"},
			},
			Options: map[string][]Line{
				"--optionA": Plain("optionA description..."),
				"--noitpoB": Plain("noitpoB description..."),
				"--optionC": Plain("optionC description...", "line2"),
			},
		},
	}
}

func strip(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = term.StripANSI(l)
	}
	return out
}

func TestClassify(t *testing.T) {
	t.Parallel()

	isCommand := func(name string) bool { return name == "widget" || name == "echo" }

	tests := []struct {
		name   string
		buffer string
		ok     bool
		typ    Type
		head   string
		args   []string
	}{
		{name: "command", buffer: "widget -N", ok: true, typ: Command, head: "widget", args: []string{"widget", "-N"}},
		{name: "command with assignment", buffer: "X=1 widget", ok: false},
		{name: "unknown command", buffer: "frobnicate arg", ok: false},
		{name: "empty", buffer: "", ok: false},
		{name: "blank", buffer: "   ", ok: false},
		{name: "method", buffer: "obj.method1(1, ", ok: true, typ: Method, head: "obj.method1", args: []string{"1"}},
		{name: "keyword call", buffer: "if (", ok: true, typ: Method, head: "if "},
		{name: "open block", buffer: "while x {", ok: true, typ: Syntax, head: "while x"},
		{name: "bare paren", buffer: "( a", ok: true, typ: Syntax},
		{name: "closed call", buffer: "f(a)", ok: false},
		{name: "paren in quotes", buffer: `echo "("`, ok: true, typ: Command, head: "echo", args: []string{"echo", "("}},
		{name: "inner call wins", buffer: "{ a.b(", ok: true, typ: Method, head: "{ a.b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cl, ok := Classify(tt.buffer, isCommand)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.typ, cl.Type)
			assert.Equal(t, tt.head, cl.Head)
			assert.Equal(t, tt.args, cl.Args)
			assert.Equal(t, tt.buffer, cl.Line)
		})
	}
}

type fakeCommands map[string]*CmdDesc

func (f fakeCommands) HasCommand(name string) bool { _, ok := f[name]; return ok }
func (f fakeCommands) Descriptor(name string) *CmdDesc {
	return f[name]
}

func demoResolver() *StaticResolver {
	return &StaticResolver{
		Fallback: []Signature{
			{Name: "method1", Params: []string{"int arg1", "List<String> arg2"}},
			{Name: "method1", Params: []string{"int arg1", "Map<String,Object> arg2"}},
		},
		MaxSource: 20,
	}
}

func TestGeneratorCommand(t *testing.T) {
	t.Parallel()

	desc := &CmdDesc{Main: Plain("usage")}
	g := &Generator{Commands: fakeCommands{"history": desc, "bare": nil}}

	assert.True(t, g.HasCommand("history"))
	assert.False(t, g.HasCommand("nope"))
	assert.Same(t, desc, g.Describe(CmdLine{Type: Command, Head: "history", Args: []string{"history"}}))
	assert.Nil(t, g.Describe(CmdLine{Type: Command, Head: "bare", Args: []string{"bare"}}),
		"commands without a descriptor describe as nothing")
	assert.Nil(t, (&Generator{}).Describe(CmdLine{Type: Command, Head: "x", Args: []string{"x"}}))
}

func TestGeneratorSyntax(t *testing.T) {
	t.Parallel()

	d := (&Generator{}).Describe(CmdLine{Type: Syntax, Line: "while x {"})
	require.NotNil(t, d)
	assert.False(t, d.Valid())
	assert.True(t, d.Empty())
}

func TestGeneratorMethod(t *testing.T) {
	t.Parallel()

	g := &Generator{Resolver: demoResolver()}

	for _, buf := range []string{"if (", "x = 1; while(", "for (", "if  ("} {
		cl, ok := Classify(buf, nil)
		require.True(t, ok, buf)
		assert.Nil(t, g.Describe(cl), "keyword continuation %q", buf)
	}

	cl, ok := Classify("a.method1(", nil)
	require.True(t, ok)
	d := g.Describe(cl)
	require.NotNil(t, d)
	assert.Equal(t, Plain("method1(int arg1, List<String> arg2)", "method1(int arg1, Map<String,Object> arg2)"), d.Main)

	long := "someObject.longMethodName("
	cl, ok = Classify(long, nil)
	require.True(t, ok)
	d = g.Describe(cl)
	require.NotNil(t, d)
	require.Len(t, d.Main, 1)
	assert.Equal(t, Line{Text: "Failed to create object from source: " + long, Severity: Error}, d.Main[0])
	assert.True(t, d.Valid())

	assert.Nil(t, (&Generator{}).Describe(cl), "no resolver, no description")
}

func TestGeneratorNeverPanics(t *testing.T) {
	t.Parallel()

	g := &Generator{Resolver: ResolverFunc(func(string) ([]Signature, error) {
		panic("resolver exploded")
	})}
	var d *CmdDesc
	require.NotPanics(t, func() { d = g.Describe(CmdLine{Type: Method, Head: "x", Line: "x("}) })
	require.NotNil(t, d)
	assert.Equal(t, []Line{{Text: "resolver exploded", Severity: Error}}, d.Main)

	g.Resolver = ResolverFunc(func(string) ([]Signature, error) {
		return nil, errors.New("first\nsecond")
	})
	d = g.Describe(CmdLine{Type: Method, Head: "x", Line: "x("})
	assert.Equal(t, []Line{{Text: "first", Severity: Error}, {Text: "second", Severity: Error}}, d.Main)
}

func TestStaticResolver(t *testing.T) {
	t.Parallel()

	r := &StaticResolver{Methods: map[string][]Signature{"len": {{Name: "len", Params: []string{"v any"}}}}}
	sigs, err := r.Resolve("x := len(")
	require.NoError(t, err)
	assert.Equal(t, "len(v any)", sigs[0].String())

	_, err = r.Resolve("cap(")
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), `"cap"`)
}

func TestStaticDescriber(t *testing.T) {
	t.Parallel()

	s := fixtures()
	assert.True(t, s.HasCommand("foo11"))
	assert.False(t, s.HasCommand("foo13"))
	assert.Equal(t, []string{"foo11", "foo12", "widget"}, s.Names())
	assert.NotNil(t, s.Describe(CmdLine{Type: Command, Head: "foo12"}))
	assert.False(t, s.Describe(CmdLine{Type: Syntax}).Valid())
	assert.Nil(t, s.Describe(CmdLine{Type: Method}))
}

func render(t *testing.T, s Static, buffer string, width int) []string {
	t.Helper()
	cl, ok := Classify(buffer, s.HasCommand)
	require.True(t, ok, buffer)
	return strip(Render(s.Describe(cl), cl, width, DefaultRows))
}

func TestRender(t *testing.T) {
	t.Parallel()

	s := fixtures()

	got := render(t, s, "foo11 ", 40)
	require.Len(t, got, DefaultRows, "row budget caps output")
	assert.Equal(t, "Param1 description...", got[0])
	assert.Equal(t, "line 2: This is a very long line that do", got[1])
	for _, l := range got {
		assert.LessOrEqual(t, len(l), 40)
	}

	assert.Equal(t, []string{"Param2 description...", "line 2"}, render(t, s, "foo11 a ", 80))
	assert.Equal(t, []string{"Param2 description...", "line 2"}, render(t, s, "foo11 a b", 80), "typing the second argument")
	assert.Equal(t, []string{"param1 param2 param3"}, render(t, s, "foo11 a b ", 80))

	assert.Equal(t, []string{"optionC description...", "line2"}, render(t, s, "foo11 --optionC", 80))
	assert.Equal(t, []string{"noitpoB description..."}, render(t, s, "foo11 --noi", 80))
	assert.Equal(t, []string{
		"--optionA  optionA description...",
		"--optionC  optionC description...",
	}, render(t, s, "foo11 --opt", 80))

	assert.Equal(t, []string{"Create new widget"}, render(t, s, "widget -N", 80))
	assert.Equal(t, "widget -N new-widget [function-name]", render(t, s, "widget ", 80)[0])
	assert.Equal(t, []string{"param1 param2 [paramN...]"}, render(t, s, "foo12 ", 80))
}

func TestRenderNothing(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Render(nil, CmdLine{}, 80, 5))
	assert.Nil(t, Render(InvalidSyntax(), CmdLine{Type: Syntax}, 80, 5))
	assert.Nil(t, Render(&CmdDesc{}, CmdLine{Type: Command}, 80, 5))
}

func TestRenderMethodAndErrors(t *testing.T) {
	t.Parallel()

	d := &CmdDesc{Main: []Line{{Text: "boom " + strings.Repeat("x", 50), Severity: Error}}}
	got := Render(d, CmdLine{Type: Method}, 10, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "boom xxxxx", term.StripANSI(got[0]))
}

func TestInlineHint(t *testing.T) {
	t.Parallel()

	s := fixtures()
	hint := func(buffer string) string {
		cl, ok := Classify(buffer, s.HasCommand)
		require.True(t, ok)
		return InlineHint(s.Describe(cl), cl)
	}

	assert.Equal(t, "param1 param2 [paramN...]", hint("foo12 "))
	assert.Equal(t, "param2 [paramN...]", hint("foo12 a "))
	assert.Equal(t, "[paramN...]", hint("foo12 a b c d "))
	assert.Equal(t, "", hint("foo12 a"))
	assert.Equal(t, "", hint("foo11 a b c "))
	assert.Equal(t, "param2 param3", hint("foo11 --optionA a "))
	assert.Equal(t, "", InlineHint(nil, CmdLine{}))
}
