package editor

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/lineloop/internal/builtins"
	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/describe"
	"github.com/runger/lineloop/internal/history"
	"github.com/runger/lineloop/internal/line"
	"github.com/runger/lineloop/internal/session"
	"github.com/runger/lineloop/internal/term"
)

func newHooks(t *testing.T) *hooks {
	t.Helper()
	store := history.NewStore(10)
	store.Add("widget -l")
	store.Add("history 5")
	opts := builtins.NewOptions()
	return &hooks{
		completer: complete.NewStrings("history", "help", "widget", "keymap"),
		history:   store,
		describer: describe.Static{
			"widget": {Main: describe.Plain("widget -  manipulate widgets"), Args: describe.ArgNames("name", "target")},
		},
		settings: opts,
		vars:     builtins.NewVars(nil),
		width:    func() int { return 40 },
		state:    session.NewState("prompt> "),
		prompt:   "prompt> ",
	}
}

func runes(s string) []rune { return []rune(s) }

func TestAutopair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prev    string
		buf     string
		pos     int
		key     rune
		want    string
		wantPos int
		changed bool
	}{
		{"insert closer", "add", "add(", 4, '(', "add()", 4, true},
		{"insert quote pair", "", `"`, 1, '"', `""`, 1, true},
		{"overtype closer", "()", "())", 2, ')', "()", 2, true},
		{"overtype quote", `""`, `"""`, 2, '"', `""`, 2, true},
		{"delete empty pair", "()", ")", 0, readline.CharBackspace, "", 0, true},
		{"no pair before a word", "ab", "(ab", 1, '(', "(ab", 1, false},
		{"plain key", "ab", "abc", 3, 'c', "abc", 3, false},
		{"cursor move", "ab", "ab", 1, readline.CharBackward, "ab", 1, false},
		{"backspace without pair", "(a", "(", 1, readline.CharBackspace, "(", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, pos, changed := autopair(runes(tt.prev), runes(tt.buf), tt.pos, tt.key)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestCompleterDo(t *testing.T) {
	t.Parallel()

	h := newHooks(t)
	got, n := h.Do(runes("h"), 1)
	assert.Equal(t, 1, n)
	var suffixes []string
	for _, s := range got {
		suffixes = append(suffixes, string(s))
	}
	assert.ElementsMatch(t, []string{"istory ", "elp "}, suffixes)

	got, _ = h.Do(runes("H"), 1)
	assert.Empty(t, got, "case sensitive by default")

	require.NoError(t, h.settings.(*builtins.Options).Set(builtins.OptCaseInsensitive, true))
	got, _ = h.Do(runes("H"), 1)
	assert.Len(t, got, 2)
}

func TestCompleterEscapesInsertedText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my file.txt"), nil, 0o600))

	tests := []struct {
		name      string
		completer complete.Completer
		buf       string
		want      string
		wantWord  string
	}{
		{"space in file name", &complete.Files{Dir: func() string { return dir }}, "cat my", `\ file.txt `, "my file.txt"},
		{"inside double quotes", complete.NewStrings(`say "hi" now`), `cat "say`, ` \"hi\" now" `, `say "hi" now`},
		{"inside single quotes", complete.NewStrings("it's here"), "cat 'it", `'\''s here' `, "it's here"},
		{"backslash", complete.NewStrings(`a\b`), "cat a", `\\b `, `a\b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHooks(t)
			h.completer = tt.completer
			got, _ := h.Do(runes(tt.buf), len(tt.buf))
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, string(got[0]))

			text := tt.buf + string(got[0])
			pl, err := line.Parser{}.Parse(text, len(text), line.ContextAccept)
			require.NoError(t, err)
			assert.Equal(t, []string{"cat", tt.wantWord}, pl.Texts())
		})
	}
}

func TestCompleterInsertTab(t *testing.T) {
	t.Parallel()

	h := newHooks(t)
	got, _ := h.Do(runes(""), 0)
	assert.Len(t, got, 4, "an empty line completes every command")

	require.NoError(t, h.settings.(*builtins.Options).Set(builtins.OptInsertTab, true))
	got, n := h.Do(runes("  "), 2)
	assert.Equal(t, [][]rune{{'\t'}}, got)
	assert.Zero(t, n)
}

func TestCompleterListMax(t *testing.T) {
	t.Parallel()

	h := newHooks(t)
	require.NoError(t, h.vars.(*builtins.Vars).Set(builtins.VarListMax, "1"))
	got, _ := h.Do(runes("h"), 1)
	assert.Len(t, got, 1)
}

func TestGhost(t *testing.T) {
	t.Parallel()

	h := newHooks(t)
	st := session.NewState("")

	g, ok := h.ghost(st, "hist")
	assert.Empty(t, g, "no suggestions by default")
	assert.False(t, ok)

	g, ok = h.ghost(st.WithSuggestion(session.SuggestHistory), "wid")
	assert.Equal(t, "get -l", g)
	assert.True(t, ok)

	g, ok = h.ghost(st.WithSuggestion(session.SuggestCompleter), "key")
	assert.Equal(t, "map", g)
	assert.True(t, ok)

	tail := st.WithTailTip(session.TipTailTip)
	g, ok = h.ghost(tail, "widget ")
	assert.Equal(t, "name target", g)
	assert.False(t, ok, "argument hints are not inserted")

	g, _ = h.ghost(st.WithSuggestion(session.SuggestHistory), "   ")
	assert.Empty(t, g)
}

func TestPaint(t *testing.T) {
	t.Parallel()

	h := newHooks(t)
	h.state = h.state.WithSuggestion(session.SuggestHistory)
	h.right = "R"

	raw := string(h.Paint(runes("wid"), 3))
	// prompt and buffer use 11 columns; ghost and padded right prompt
	// fill the rest of the row but the last.
	assert.True(t, strings.HasSuffix(raw, "R"+term.CursorLeft(40-11-1)), raw)
	out := term.StripANSI(raw)
	require.True(t, strings.HasPrefix(out, "widget -l"), out)
	assert.Equal(t, 40-8-1, term.Width(out))

	h.masked = true
	assert.Equal(t, "wid", string(h.Paint(runes("wid"), 3)))
}

func TestPaintSkipsGhostInsideLine(t *testing.T) {
	t.Parallel()

	h := newHooks(t)
	h.state = h.state.WithSuggestion(session.SuggestHistory)
	assert.Equal(t, "wid", string(h.Paint(runes("wid"), 1)))
}

func TestOnChangeAcceptsSuggestion(t *testing.T) {
	t.Parallel()

	h := newHooks(t)
	h.state = h.state.WithSuggestion(session.SuggestHistory)

	_, _, changed := h.OnChange(nil, 0, 0)
	assert.False(t, changed)
	_, _, changed = h.OnChange(runes("wid"), 3, 'd')
	assert.False(t, changed)

	buf, pos, changed := h.OnChange(runes("wid"), 3, readline.CharForward)
	require.True(t, changed)
	assert.Equal(t, "widget -l", string(buf))
	assert.Equal(t, 9, pos)
}

func TestOnChangeAutopairAndTips(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var shown [][]string
	h := newHooks(t)
	h.tips = func(rows []string) {
		mu.Lock()
		defer mu.Unlock()
		shown = append(shown, rows)
	}
	h.state = h.state.ToggleAutopair().WithTailTip(session.TipTailTip)

	h.OnChange(nil, 0, 0)
	buf, pos, changed := h.OnChange(runes("("), 1, '(')
	require.True(t, changed)
	assert.Equal(t, "()", string(buf))
	assert.Equal(t, 1, pos)

	h.OnChange(runes("widget "), 7, ' ')
	mu.Lock()
	require.NotEmpty(t, shown)
	assert.Contains(t, shown[len(shown)-1][0], "manipulate widgets")
	mu.Unlock()

	h.setState(h.state.WithSuggestion(session.SuggestNone))
	mu.Lock()
	assert.Nil(t, shown[len(shown)-1], "leaving tail tips clears the rows")
	mu.Unlock()
}

func TestOnChangeMasked(t *testing.T) {
	t.Parallel()

	h := newHooks(t)
	h.begin(session.ReadRequest{Prompt: "password> ", Mask: '*', State: h.state.ToggleAutopair()})
	buf, _, changed := h.OnChange(runes("("), 1, '(')
	assert.False(t, changed)
	assert.Nil(t, buf)
	got, _ := h.Do(runes("h"), 1)
	assert.Empty(t, got)
}
