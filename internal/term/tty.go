// Package term holds the terminal plumbing shared by the session: capability
// sequences, tty detection and sizing, raw mode, and the input router that
// sits between the tty and the line editor.
package term

import (
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	goterm "golang.org/x/term"
)

// Default dimensions used when the size of the terminal cannot be read.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// IsTerminal reports whether fd refers to a terminal.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Size returns the width and height of the terminal behind fd. It falls
// back to $COLUMNS/$LINES and then to 80x24.
func Size(fd uintptr) (width, height int) {
	if w, h, err := goterm.GetSize(int(fd)); err == nil && w > 0 && h > 0 {
		return w, h
	}
	if w, h := sizeIoctl(fd); w > 0 && h > 0 {
		return w, h
	}
	width, height = DefaultWidth, DefaultHeight
	if v, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && v > 0 {
		width = v
	}
	if v, err := strconv.Atoi(os.Getenv("LINES")); err == nil && v > 0 {
		height = v
	}
	return width, height
}

// Type returns the terminal type from $TERM, or "dumb".
func Type() string {
	if t := os.Getenv("TERM"); t != "" {
		return t
	}
	return "dumb"
}

// Name describes the terminal the session is attached to.
func Name(f *os.File) string {
	if IsTerminal(f.Fd()) {
		return "lineloop terminal"
	}
	return "dumb terminal"
}

// WithRaw runs fn with fd in raw mode and restores the previous mode
// afterwards. When fd is not a terminal fn runs unchanged.
func WithRaw(fd uintptr, fn func() error) error {
	if !IsTerminal(fd) {
		return fn()
	}
	state, err := goterm.MakeRaw(int(fd))
	if err != nil {
		return err
	}
	defer func() { _ = goterm.Restore(int(fd), state) }()
	return fn()
}
