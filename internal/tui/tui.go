// Package tui holds the full-screen tools the builtins open: a pager, an
// editor, a goroutine viewer and the history picker.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/lineloop/internal/builtins"
	"github.com/runger/lineloop/internal/history"
	"github.com/runger/lineloop/internal/picker"
	"github.com/runger/lineloop/internal/term"
)

// Screens runs the tools on the session terminal. Keys are taken from
// Input through a tap so the line editor does not see them.
type Screens struct {
	Input *term.Input
	Out   io.Writer
	Fd    uintptr
	Size  func() (width, height int)

	History  *history.Store
	Commands func() []string

	Logger *slog.Logger
}

var _ builtins.Screens = (*Screens)(nil)

// Page shows files in the pager.
func (s *Screens) Page(ctx context.Context, files []string, lineNumbers bool) error {
	docs := make([]document, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		docs = append(docs, document{name: f, text: string(data)})
	}
	w, h := s.size()
	_, err := s.run(ctx, newPager(docs, lineNumbers, w, h))
	return err
}

// Edit opens file in the editor. A missing file starts an empty buffer
// that is created on save.
func (s *Screens) Edit(ctx context.Context, file string) error {
	text := ""
	if file != "" {
		data, err := os.ReadFile(file)
		switch {
		case err == nil:
			text = string(data)
		case !errors.Is(err, os.ErrNotExist):
			return err
		}
	}
	w, h := s.size()
	_, err := s.run(ctx, newEditor(file, text, writeFile, w, h))
	return err
}

// Top shows the goroutines of the process.
func (s *Screens) Top(ctx context.Context, opts builtins.TopOptions) error {
	order, err := parseOrder(opts.Order)
	if err != nil {
		return err
	}
	w, h := s.size()
	_, err = s.run(ctx, newTop(sampleRuntime, order, opts, w, h))
	return err
}

// Pick lets the user choose a history entry or command name; "" means the
// picker was cancelled.
func (s *Screens) Pick(ctx context.Context, query string) (string, error) {
	m := picker.NewModel(picker.DefaultTabs(), &picker.StoreProvider{Store: s.History, Commands: s.Commands})
	if query != "" {
		m = m.WithQuery(query)
	}
	var result string
	err := s.withInput(func(in io.Reader) error {
		var err error
		result, err = picker.Run(ctx, m, in, s.Out)
		return err
	})
	return result, err
}

func (s *Screens) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	var final tea.Model
	err := s.withInput(func(in io.Reader) error {
		p := tea.NewProgram(m,
			tea.WithContext(ctx),
			tea.WithAltScreen(),
			tea.WithInput(in),
			tea.WithOutput(s.Out),
		)
		var err error
		final, err = p.Run()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	return final, nil
}

// withInput gives fn the keys typed while it runs, with the terminal in
// raw mode.
func (s *Screens) withInput(fn func(in io.Reader) error) error {
	if s.Input == nil {
		return errors.New("tui: no input")
	}
	tap := s.Input.Tap()
	defer func() {
		if err := tap.Close(); err != nil {
			s.logger().Debug("close tap", "error", err)
		}
	}()
	return term.WithRaw(s.Fd, func() error { return fn(tap) })
}

func (s *Screens) size() (int, int) {
	if s.Size == nil {
		return term.DefaultWidth, term.DefaultHeight
	}
	return s.Size()
}

func (s *Screens) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func writeFile(name, text string) error {
	return os.WriteFile(name, []byte(text), 0o644) //nolint:gosec // G306: files edited by the user keep the usual mode
}
