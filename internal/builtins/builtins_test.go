package builtins

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/history"
	"github.com/runger/lineloop/internal/line"
	"github.com/runger/lineloop/internal/registry"
)

type fakeScreens struct {
	calls []string
}

func (f *fakeScreens) Page(_ context.Context, files []string, numbers bool) error {
	call := "page " + strings.Join(files, ",")
	if numbers {
		call += " -N"
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeScreens) Edit(_ context.Context, file string) error {
	f.calls = append(f.calls, "edit "+file)
	return nil
}

func (f *fakeScreens) Top(_ context.Context, opts TopOptions) error {
	f.calls = append(f.calls, "top")
	f.calls = append(f.calls, strings.Join([]string{opts.Order, strconv.Itoa(opts.Rows), strconv.Itoa(opts.Interval)}, "/"))
	return nil
}

type fixture struct {
	reg      *registry.Registry
	env      *Env
	screens  *fakeScreens
	prefill  string
	injected []byte
	query    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{reg: registry.New(), screens: &fakeScreens{}}
	f.env = &Env{
		History: history.NewStore(10),
		Options: NewOptions(),
		Vars:    NewVars(map[string]string{VarIndentation: "2", VarSecondaryPrompt: "%M%P > "}),
		Keymaps: NewKeymaps(),
		Widgets: NewWidgetTable(),
		Screens: f.screens,
		Pick: func(_ context.Context, q string) (string, error) {
			f.query = q
			return "git status", nil
		},
		Prefill: func(s string) { f.prefill = s },
		Inject:  func(b []byte) { f.injected = append(f.injected, b...) },
	}
	require.NoError(t, Register(f.reg, f.env))
	return f
}

func (f *fixture) run(t *testing.T, input string) (string, error) {
	t.Helper()
	words := strings.Fields(input)
	var out bytes.Buffer
	err := f.reg.Execute(context.Background(), words[0], words[1:], strings.NewReader(""), &out, &out)
	return out.String(), err
}

func (f *fixture) ok(t *testing.T, input string) string {
	t.Helper()
	out, err := f.run(t, input)
	require.NoError(t, err, input)
	return out
}

func TestRegisterNames(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	assert.Equal(t, []string{
		"complete", "history", "keymap", "less", "nano", "setopt",
		"setvar", "top", "unsetopt", "widget",
	}, f.reg.Names())
	assert.Equal(t, map[string]string{"zle": "widget", "bindkey": "keymap"}, f.reg.Aliases())

	_, err := f.run(t, "complete")
	assert.ErrorIs(t, err, registry.ErrUnavailable)

	assert.True(t, f.reg.HasCommand("top"))
	assert.False(t, f.reg.HasCommand("ttop"), "registered as ttop and renamed to top")
	top, ok := f.reg.Lookup("top")
	require.True(t, ok)
	assert.Equal(t, "ttop", top.ID)
	assert.True(t, strings.HasPrefix(top.Usage, "top -  display"))
	require.NoError(t, f.reg.Rename("ttop", "ttop"))
	assert.True(t, f.reg.HasCommand("ttop"))
	assert.False(t, f.reg.HasCommand("top"))

	assert.Error(t, Register(f.reg, f.env), "second registration clashes")
}

func TestHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, l := range []string{"ls", "pwd", "echo hi"} {
		f.env.History.Add(l)
	}

	assert.Equal(t, "    1  ls\n    2  pwd\n    3  echo hi\n", f.ok(t, "history"))
	assert.Equal(t, "    2  pwd\n    3  echo hi\n", f.ok(t, "history 2"))
	assert.Equal(t, "    1  ls\n    2  pwd\n    3  echo hi\n", f.ok(t, "history 10"))
	assert.Regexp(t, `^    1  \d\d:\d\d:\d\d  ls\n`, f.ok(t, "history -d"))

	_, err := f.run(t, "history many")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	_, err = f.run(t, "history --bogus")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	assert.True(t, strings.HasPrefix(err.Error(), "history: "), "flag errors name the command: %v", err)

	assert.Empty(t, f.ok(t, "history -s git st"))
	assert.Equal(t, "git st", f.query)
	assert.Equal(t, "git status", f.prefill)

	f.ok(t, "history -c")
	assert.Equal(t, 0, f.env.History.Len())
}

func TestHistoryImport(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "bash_history")
	require.NoError(t, os.WriteFile(path, []byte("make test\ngit diff\n"), 0o600))

	assert.Equal(t, "Imported 2 entries\n", f.ok(t, "history -r -f bash "+path))
	assert.Equal(t, []string{"make test", "git diff"}, f.env.History.Lines())

	_, err := f.run(t, "history -r "+filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = f.run(t, "history -r -f csh "+path)
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
}

func TestHistoryUnavailable(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, Register(reg, &Env{}))
	for _, input := range []string{"history", "less x", "nano", "top"} {
		words := strings.Fields(input)
		err := reg.Execute(context.Background(), words[0], words[1:], nil, &bytes.Buffer{}, &bytes.Buffer{})
		assert.ErrorIs(t, err, registry.ErrUnavailable, input)
	}
	for _, name := range []string{"setopt", "unsetopt", "setvar", "keymap", "widget"} {
		cmd, ok := reg.Lookup(name)
		require.True(t, ok)
		assert.Nil(t, cmd.Run, name)
	}
}

func TestSetoptUnsetopt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var changes []string
	f.env.Options.OnChange = func(name string, on bool) {
		if on {
			changes = append(changes, "+"+name)
		} else {
			changes = append(changes, "-"+name)
		}
	}

	unset := complete.Values(f.env.Options.Completer(false).Complete(&line.ParsedLine{}))
	assert.Contains(t, unset, OptMouse)

	f.ok(t, "setopt MOUSE")
	assert.True(t, f.env.Options.IsSet(OptMouse))
	assert.NotContains(t, complete.Values(f.env.Options.Completer(false).Complete(&line.ParsedLine{})), OptMouse)

	f.ok(t, "setopt mouse")
	f.ok(t, "unsetopt no_case_insensitive")
	assert.True(t, f.env.Options.IsSet(OptCaseInsensitive))
	f.ok(t, "setopt noinsert-tab")
	assert.False(t, f.env.Options.IsSet(OptInsertTab))
	f.ok(t, "unsetopt auto-list")
	assert.Equal(t, []string{"+mouse", "+case-insensitive", "-auto-list"}, changes, "only real changes are reported")

	listed := f.ok(t, "setopt")
	assert.Contains(t, listed, "mouse\n")
	assert.NotContains(t, listed, "auto-list\n")
	assert.Contains(t, f.ok(t, "unsetopt"), "auto-list\n")

	f.ok(t, "setopt -m history-*")
	assert.True(t, f.env.Options.IsSet("history-verify"))

	_, err := f.run(t, "setopt bogus")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	_, err = f.run(t, "setopt -m zz*")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
}

func TestSetvar(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var seen []string
	f.env.Vars.OnChange = func(name, value string) { seen = append(seen, name+"="+value) }

	assert.Equal(t, "indentation: 2\nsecondary-prompt-pattern: %M%P > \n", f.ok(t, "setvar"))
	assert.Equal(t, "2\n", f.ok(t, "setvar indentation"))

	f.ok(t, "setvar indentation 4")
	f.ok(t, "setvar editor vim")
	assert.Equal(t, 4, f.env.Vars.Int(VarIndentation, 0))
	assert.Equal(t, 7, f.env.Vars.Int(VarListMax, 7))
	assert.Equal(t, []string{"indentation=4", "editor=vim"}, seen)

	_, err := f.run(t, "setvar indentation wide")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	_, err = f.run(t, "setvar nope")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	_, err = f.run(t, "setvar a b c")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
}

func TestKeymap(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var selected []string
	f.env.Keymaps.OnSelect = func(name string) { selected = append(selected, name) }

	assert.Equal(t, "emacs\nmain\nvicmd\nviins\n", f.ok(t, "keymap -l"))
	assert.Equal(t, "\"^A\" beginning-of-line\n", f.ok(t, "bindkey ^A"))

	f.ok(t, "keymap -v")
	assert.Equal(t, KeymapViIns, f.env.Keymaps.Main())
	assert.True(t, strings.HasPrefix(f.ok(t, "keymap"), "\"^[\" vi-cmd-mode\n"))
	assert.Contains(t, f.ok(t, "keymap -M vicmd"), "\"h\" vi-backward-char\n")

	f.ok(t, "keymap -e")
	assert.Equal(t, []string{KeymapViIns, KeymapEmacs}, selected)

	_, err := f.run(t, "keymap -e -v")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	_, err = f.run(t, "keymap -M nope")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
}

func TestWidget(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.ok(t, "widget -N home beginning-of-line")
	f.ok(t, "zle -A home start")
	assert.Equal(t, "home (beginning-of-line)\nstart (home)\n", f.ok(t, "widget -l"))

	target, ok := f.env.Widgets.Resolve("start")
	require.True(t, ok)
	assert.Equal(t, "beginning-of-line", target)
	assert.Contains(t, f.ok(t, "widget -l -a"), "accept-line\n")

	f.ok(t, "widget -D start")
	assert.Equal(t, "home (beginning-of-line)\n", f.ok(t, "widget -l"))

	f.ok(t, "widget -U ls xy")
	assert.Equal(t, "lsxy", string(f.injected))

	for _, input := range []string{
		"widget -N only",
		"widget -N x no-such-widget",
		"widget -N accept-line beginning-of-line",
		"widget -D never-defined",
		"widget -A one",
		"widget -N -D x",
		"widget",
	} {
		_, err := f.run(t, input)
		assert.ErrorIs(t, err, registry.ErrInvalidArgument, input)
	}
}

func TestScreens(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	file := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello\n"), 0o600))

	f.ok(t, "less -N "+file)
	f.ok(t, "nano "+file)
	f.ok(t, "nano")
	f.ok(t, "top -o cpu -n 5 -d 2")
	assert.Equal(t, []string{"page " + file + " -N", "edit " + file, "edit ", "top", "cpu/5/2"}, f.screens.calls)

	_, err := f.run(t, "less "+filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = f.run(t, "less")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	_, err = f.run(t, "nano a b")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	_, err = f.run(t, "top -d 0")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
}

func TestDescriptorsFromUsage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	d := f.reg.Descriptor("history")
	require.NotNil(t, d)
	assert.Contains(t, d.Options, "-c")
	assert.Contains(t, d.Options, "--clear")
	assert.Equal(t, "history [-d] [-c] [N]", d.Main[0].Text)
}

func TestTmuxOutsideTmux(t *testing.T) {
	t.Setenv("TMUX", "")
	err := Tmux(context.Background(), &registry.Invocation{Name: "tmux"})
	assert.ErrorIs(t, err, registry.ErrUnavailable)
	assert.Equal(t, "tmux: UNAVAILABLE", err.Error())
}
