// Package editor adapts chzyer/readline to the session loop: it reads
// lines with completion, suggestions, autopairing, tail tips and mouse
// support, and serves the raw key reads of the intrinsic commands.
package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/runger/lineloop/internal/builtins"
	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/describe"
	"github.com/runger/lineloop/internal/history"
	"github.com/runger/lineloop/internal/line"
	"github.com/runger/lineloop/internal/mouse"
	"github.com/runger/lineloop/internal/session"
	"github.com/runger/lineloop/internal/status"
	"github.com/runger/lineloop/internal/term"
)

// Settings reports whether a reader option is set.
type Settings interface {
	IsSet(name string) bool
}

// Variables resolves integer reader variables.
type Variables interface {
	Int(name string, def int) int
}

// Config wires an Editor. Input is required.
type Config struct {
	Input  *term.Input
	Stdout io.Writer
	Stderr io.Writer
	// Fd is the terminal put in raw mode for ReadKeys.
	Fd   uintptr
	Size func() (width, height int)

	History   *history.Store
	Completer complete.Completer
	Parser    line.Parser
	Describer describe.Describer
	Region    *status.Region
	Settings  Settings
	Vars      Variables

	// Stream reads lines without raw mode or line editing, as when the
	// session is attached to plain streams instead of the system terminal.
	Stream  bool
	VimMode bool

	// Mouse is the tracking mode. When Off, the mouse option selects
	// Normal tracking instead.
	Mouse mouse.Tracking

	Logger *slog.Logger
}

// Editor implements session.LineReader, session.Terminal and
// session.Widgets.
type Editor struct {
	rl     *readline.Instance
	cfg    Config
	hooks  *hooks
	logger *slog.Logger

	mu      sync.Mutex
	prefill string
	synced  uint64
}

var (
	_ session.LineReader = (*Editor)(nil)
	_ session.Terminal   = (*Editor)(nil)
	_ session.Widgets    = (*Editor)(nil)
)

// New creates the readline instance.
func New(cfg Config) (*Editor, error) {
	if cfg.Input == nil {
		return nil, errors.New("editor: input is required")
	}
	if cfg.Size == nil {
		cfg.Size = func() (int, int) { return term.Size(cfg.Fd) }
	}
	if cfg.History == nil {
		cfg.History = history.NewStore(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	width := func() int {
		w, _ := cfg.Size()
		return w
	}

	h := &hooks{
		completer: cfg.Completer,
		parser:    cfg.Parser,
		history:   cfg.History,
		describer: cfg.Describer,
		settings:  cfg.Settings,
		vars:      cfg.Vars,
		width:     width,
	}
	rl, err := readline.NewEx(&readline.Config{
		HistoryLimit:           cfg.History.Cap(),
		DisableAutoSaveHistory: true,
		HistorySearchFold:      true,
		AutoComplete:           h,
		Listener:               h,
		Painter:                h,
		InterruptPrompt:        "^C",
		EOFPrompt:              "",
		Stdin:                  cfg.Input,
		Stdout:                 cfg.Stdout,
		Stderr:                 cfg.Stderr,
		FuncGetWidth:           width,
		VimMode:                cfg.VimMode,
		FuncIsTerminal:         isTerminal(cfg),
	})
	if err != nil {
		return nil, err
	}

	e := &Editor{rl: rl, cfg: cfg, hooks: h, logger: logger}
	if cfg.Region != nil {
		cfg.Region.SetRaw(cfg.Stdout)
		cfg.Region.SetAbove(rl.Stdout())
		h.tips = func(rows []string) { cfg.Region.Update(status.SlotTailTip, rows) }
	}
	return e, nil
}

// Stdout returns a writer that prints above the prompt while a line is
// being read.
func (e *Editor) Stdout() io.Writer {
	return e.rl.Stdout()
}

// Read implements session.LineReader.
func (e *Editor) Read(ctx context.Context, req session.ReadRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.syncHistory()
	lead, prompt, right := splitPrompt(req.Prompt, req.RightPrompt, e.hooks.termWidth())
	if lead != "" {
		e.writeRaw(lead)
	}
	req.Prompt, req.RightPrompt = prompt, right
	e.hooks.begin(req)
	e.rl.SetPrompt(req.Prompt)
	e.rl.Config.EnableMask = req.Mask != 0
	e.rl.Config.MaskRune = req.Mask

	if mode := e.mouseMode(); mode != mouse.Off && req.Mask == 0 {
		e.cfg.Input.SetHandler(&mouse.Dispatcher{
			Mode:    mode,
			Cursor:  e.cfg.Input,
			Surface: e.surface(),
			Keys:    e.cfg.Input,
			Width:   e.hooks.termWidth,
			Logger:  e.logger,
		})
		e.writeRaw(mode.Enable())
		defer func() {
			e.writeRaw(mode.Disable())
			e.cfg.Input.SetHandler(nil)
		}()
	}

	// Closing the input is the only way to abandon a blocked read.
	stop := context.AfterFunc(ctx, func() { _ = e.cfg.Input.Close() })
	defer stop()

	text, err := e.rl.ReadlineWithDefault(req.Initial + e.takePrefill())
	e.hooks.showTips(nil)
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", session.ErrInterrupt
	case err != nil:
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, term.ErrClosed) {
			return "", io.EOF
		}
		return "", err
	}

	if req.Mask == 0 && e.cfg.History.Add(text) {
		if err := e.rl.SaveHistory(text); err != nil {
			e.logger.Debug("save history", "error", err)
		}
		e.mu.Lock()
		e.synced = e.cfg.History.Generation()
		e.mu.Unlock()
	}
	return text, nil
}

// syncHistory reloads the readline history when the store was changed by
// something other than Read, such as history -c or an import.
func (e *Editor) syncHistory() {
	gen := e.cfg.History.Generation()
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen == e.synced {
		return
	}
	e.rl.ResetHistory()
	for _, l := range e.cfg.History.Lines() {
		if err := e.rl.SaveHistory(l); err != nil {
			e.logger.Debug("save history", "error", err)
		}
	}
	e.synced = gen
}

// Prefill places text in the buffer of the next read.
func (e *Editor) Prefill(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefill = text
}

func (e *Editor) takePrefill() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.prefill
	e.prefill = ""
	return p
}

// SetVimMode switches between vi and emacs editing.
func (e *Editor) SetVimMode(on bool) {
	e.rl.SetVimMode(on)
}

// Apply implements session.Widgets.
func (e *Editor) Apply(st session.State) {
	e.hooks.setState(st)
	e.rl.Refresh()
}

// ReadKeys implements session.Terminal. It reads the raw bytes typed up to
// CR or LF, bypassing the line editor.
func (e *Editor) ReadKeys(ctx context.Context) (string, error) {
	tap := e.cfg.Input.Tap()
	defer tap.Close()
	stop := context.AfterFunc(ctx, func() { _ = tap.Close() })
	defer stop()

	var keys []byte
	err := term.WithRaw(e.cfg.Fd, func() error {
		buf := make([]byte, 64)
		for {
			n, err := tap.Read(buf)
			for _, b := range buf[:n] {
				if b == '\r' || b == '\n' {
					return nil
				}
				keys = append(keys, b)
			}
			if err != nil {
				return err
			}
		}
	})
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return string(keys), nil
}

// Redraw implements session.Terminal.
func (e *Editor) Redraw() {
	if e.cfg.Region != nil {
		e.cfg.Region.Redraw()
	}
	e.rl.Refresh()
}

// Refresh redraws the line being edited.
func (e *Editor) Refresh() {
	e.rl.Refresh()
}

// Close releases the terminal.
func (e *Editor) Close() error {
	return e.rl.Close()
}

func isTerminal(cfg Config) func() bool {
	return func() bool {
		return !cfg.Stream && term.IsTerminal(cfg.Fd)
	}
}

// splitPrompt separates the rows of a multi-line prompt above its last
// row. Rows of the right prompt are aligned with the prompt rows from the
// top; the row matching the last prompt row is returned as last right.
func splitPrompt(prompt, right string, width int) (lead, last, lastRight string) {
	rows := strings.Split(prompt, "\n")
	var rights []string
	if right != "" {
		rights = strings.Split(right, "\n")
	}
	n := len(rows) - 1
	var b strings.Builder
	for i, row := range rows[:n] {
		b.WriteString(row)
		if i < len(rights) {
			if pad := width - term.Width(row) - term.Width(rights[i]) - 1; pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
				b.WriteString(rights[i])
			}
		}
		b.WriteString("\n")
	}
	if n < len(rights) {
		lastRight = rights[n]
	}
	return b.String(), rows[n], lastRight
}

func (e *Editor) mouseMode() mouse.Tracking {
	if e.cfg.Mouse != mouse.Off {
		return e.cfg.Mouse
	}
	if e.hooks.isSet(builtins.OptMouse) {
		return mouse.Normal
	}
	return mouse.Off
}

func (e *Editor) surface() mouse.Surface {
	if e.cfg.Region != nil {
		return e.cfg.Region
	}
	return &rawSurface{w: e.cfg.Stdout}
}

func (e *Editor) writeRaw(seq string) {
	if seq == "" || e.cfg.Stdout == nil {
		return
	}
	if _, err := io.WriteString(e.cfg.Stdout, seq); err != nil {
		e.logger.Debug("write terminal", "error", err)
	}
}

// rawSurface serializes overlay writes when there is no status region.
type rawSurface struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *rawSurface) Overlay(seq string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		_, _ = io.WriteString(s.w, seq)
	}
}
