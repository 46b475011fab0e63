package editor

import (
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/mattn/go-runewidth"

	"github.com/runger/lineloop/internal/builtins"
	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/describe"
	"github.com/runger/lineloop/internal/history"
	"github.com/runger/lineloop/internal/line"
	"github.com/runger/lineloop/internal/session"
	"github.com/runger/lineloop/internal/term"
)

var ghostStyle = lipgloss.NewStyle().Faint(true)

// pairs maps every autopair opener to its closer.
var pairs = map[rune]rune{'(': ')', '[': ']', '{': '}', '"': '"', '\'': '\'', '`': '`'}

// hooks implements the readline completer, painter and listener. It
// holds no reference to the readline instance so it can be driven
// directly.
type hooks struct {
	completer complete.Completer
	parser    line.Parser
	history   *history.Store
	describer describe.Describer
	settings  Settings
	vars      Variables
	width     func() int
	// tips receives the description rows; nil rows clear them.
	tips func(rows []string)

	mu       sync.Mutex
	state    session.State
	prompt   string
	right    string
	masked   bool
	last     []rune
	lastPos  int
	lastTips []string
}

// begin prepares for a new read.
func (h *hooks) begin(req session.ReadRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = req.State
	h.prompt = req.Prompt
	h.right = req.RightPrompt
	h.masked = req.Mask != 0
	h.last = nil
	h.lastPos = 0
}

func (h *hooks) setState(st session.State) {
	h.mu.Lock()
	h.state = st
	h.mu.Unlock()
	if !st.Descriptions() {
		h.showTips(nil)
	}
}

func (h *hooks) snapshot() (st session.State, prompt, right string, masked bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.prompt, h.right, h.masked
}

func (h *hooks) isSet(name string) bool {
	return h.settings != nil && h.settings.IsSet(name)
}

func (h *hooks) intVar(name string, def int) int {
	if h.vars == nil {
		return def
	}
	return h.vars.Int(name, def)
}

func (h *hooks) termWidth() int {
	if h.width == nil {
		return term.DefaultWidth
	}
	return h.width()
}

// candidates parses text for completion at cursor and returns the
// candidates matching the word being typed.
func (h *hooks) candidates(text string, cursor int) (*line.ParsedLine, []complete.Candidate) {
	pl, err := h.parser.Parse(text, cursor, line.ContextComplete)
	if err != nil || h.completer == nil {
		return pl, nil
	}
	cands := h.completer.Complete(pl)
	cands = complete.Filter(cands, pl.Prefix(), h.isSet(builtins.OptCaseInsensitive))
	return pl, complete.Dedupe(cands)
}

// Do implements readline.AutoCompleter. It returns the text each
// candidate adds after the cursor and the number of runes of the current
// word already typed.
func (h *hooks) Do(buf []rune, pos int) ([][]rune, int) {
	if _, _, _, masked := h.snapshot(); masked {
		return nil, 0
	}
	before := string(buf[:pos])
	if strings.TrimSpace(before) == "" && h.isSet(builtins.OptInsertTab) {
		return [][]rune{{'\t'}}, 0
	}
	pl, cands := h.candidates(string(buf), len(before))
	if len(cands) == 0 {
		return nil, 0
	}
	if limit := h.intVar(builtins.VarListMax, 0); limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}

	start := len(before)
	if pl.WordIndex < len(pl.Words) {
		start = min(pl.Words[pl.WordIndex].Start, start)
	}
	prefix := pl.Prefix()
	out := make([][]rune, 0, len(cands))
	for _, c := range cands {
		if len(c.Value) < len(prefix) {
			continue
		}
		suffix := line.Escape(c.Value[len(prefix):], pl.Quote)
		switch {
		case c.Suffix != "":
			suffix += line.Escape(c.Suffix, pl.Quote)
		case c.Complete:
			if pl.Quote != 0 {
				suffix += string(pl.Quote)
			}
			suffix += " "
		}
		out = append(out, []rune(suffix))
	}
	return out, utf8.RuneCountInString(before[start:])
}

// ghost returns the suggestion shown after the cursor and whether
// accepting it inserts it into the buffer.
func (h *hooks) ghost(st session.State, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if st.Suggestion == session.SuggestHistory {
		if h.history == nil {
			return "", false
		}
		if s := h.history.Suggestion(text); s != "" {
			return s[len(text):], true
		}
		return "", false
	}
	if st.CompleterHints() {
		if g := h.completionHint(text); g != "" {
			return g, true
		}
	}
	if st.ArgumentHints() && h.describer != nil {
		if cl, ok := describe.Classify(text, h.describer.HasCommand); ok {
			if hint := describe.InlineHint(h.describer.Describe(cl), cl); hint != "" {
				return hint, false
			}
		}
	}
	return "", false
}

// completionHint is the part of the candidates' common prefix not typed
// yet.
func (h *hooks) completionHint(text string) string {
	pl, cands := h.candidates(text, len(text))
	if len(cands) == 0 {
		return ""
	}
	prefix := pl.Prefix()
	common := complete.CommonPrefix(complete.Values(cands))
	if len(common) <= len(prefix) || !strings.HasPrefix(common, prefix) {
		return ""
	}
	return line.Escape(common[len(prefix):], pl.Quote)
}

// Paint implements readline.Painter. It appends the suggestion and the
// right prompt, then moves the cursor back to where the buffer ends. It
// runs under the readline buffer lock and must not write to the terminal.
func (h *hooks) Paint(buf []rune, pos int) []rune {
	st, prompt, right, masked := h.snapshot()
	if masked {
		return buf
	}
	width := h.termWidth()
	used := term.Width(prompt) + runewidth.StringWidth(string(buf))
	var extra strings.Builder
	extraWidth := 0

	if pos == len(buf) {
		if g, _ := h.ghost(st, string(buf)); g != "" {
			avail := width - used%width - 1
			if g = term.Truncate(g, avail); g != "" {
				extra.WriteString(ghostStyle.Render(g))
				extraWidth += term.Width(g)
			}
		}
	}
	if right != "" {
		rw := term.Width(right)
		if pad := width - used - extraWidth - rw - 1; pad > 0 {
			extra.WriteString(strings.Repeat(" ", pad))
			extra.WriteString(right)
			extraWidth += pad + rw
		}
	}
	if extraWidth == 0 {
		return buf
	}
	extra.WriteString(term.CursorLeft(extraWidth))
	return append(slices.Clone(buf), []rune(extra.String())...)
}

// OnChange implements readline.Listener. It is called after every key
// with the resulting buffer, and once with a nil buffer when a read
// starts.
func (h *hooks) OnChange(buf []rune, pos int, key rune) ([]rune, int, bool) {
	h.mu.Lock()
	st, masked := h.state, h.masked
	last, lastPos := h.last, h.lastPos
	h.mu.Unlock()
	if masked {
		return nil, 0, false
	}

	newBuf, newPos, changed := buf, pos, false
	if key != 0 {
		if st.Autopair {
			newBuf, newPos, changed = autopair(last, buf, pos, key)
		}
		if !changed && key == readline.CharForward && pos == len(buf) && lastPos == len(last) && slices.Equal(last, buf) {
			if g, ok := h.ghost(st, string(buf)); ok && g != "" {
				newBuf = append(slices.Clone(buf), []rune(g)...)
				newPos, changed = len(newBuf), true
			}
		}
	}

	h.mu.Lock()
	h.last, h.lastPos = slices.Clone(newBuf), newPos
	h.mu.Unlock()

	if st.Descriptions() {
		h.showTips(h.descriptionRows(string(newBuf[:newPos])))
	}
	return newBuf, newPos, changed
}

func (h *hooks) descriptionRows(text string) []string {
	if h.describer == nil {
		return nil
	}
	cl, ok := describe.Classify(text, h.describer.HasCommand)
	if !ok {
		return nil
	}
	rows := h.intVar(builtins.VarTailTipRows, describe.DefaultRows)
	return describe.Render(h.describer.Describe(cl), cl, h.termWidth(), rows)
}

func (h *hooks) showTips(rows []string) {
	h.mu.Lock()
	if slices.Equal(rows, h.lastTips) || h.tips == nil {
		h.mu.Unlock()
		return
	}
	h.lastTips = slices.Clone(rows)
	fn := h.tips
	h.mu.Unlock()
	fn(rows)
}

// autopair applies bracket and quote pairing to the edit that turned prev
// into buf. It inserts the closer after a typed opener, types over a
// closer that is already there, and removes the closer when backspace
// empties a pair.
func autopair(prev, buf []rune, pos int, key rune) ([]rune, int, bool) {
	switch {
	case (key == readline.CharBackspace || key == readline.CharCtrlH) && len(buf) == len(prev)-1:
		if pos < len(prev)-1 && pos < len(buf) {
			if closer, ok := pairs[prev[pos]]; ok && prev[pos+1] == closer && buf[pos] == closer {
				return slices.Delete(slices.Clone(buf), pos, pos+1), pos, true
			}
		}
		return buf, pos, false
	case pos == 0 || len(buf) != len(prev)+1 || buf[pos-1] != key:
		return buf, pos, false
	}

	if pos < len(buf) && buf[pos] == key && pos-1 < len(prev) && prev[pos-1] == key && isCloser(key) {
		return slices.Delete(slices.Clone(buf), pos, pos+1), pos, true
	}
	closer, ok := pairs[key]
	if !ok {
		return buf, pos, false
	}
	if pos < len(buf) && !isSpace(buf[pos]) && !isCloser(buf[pos]) {
		return buf, pos, false
	}
	return slices.Insert(slices.Clone(buf), pos, closer), pos, true
}

func isCloser(r rune) bool {
	for _, c := range pairs {
		if c == r {
			return true
		}
	}
	return false
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
