package mouse

import (
	"log/slog"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/runger/lineloop/internal/term"
)

// Tracking selects which mouse reports the terminal sends.
type Tracking int

// Tracking modes.
const (
	Off Tracking = iota
	// Normal reports presses, releases and the wheel. Clicks on the input
	// row move the line cursor.
	Normal
	// Any also reports motion. Every event is echoed at the right edge of
	// the screen.
	Any
)

// Enable returns the sequence that turns tracking on. SGR encoding is
// requested as well so that large coordinates survive.
func (t Tracking) Enable() string {
	switch t {
	case Normal:
		return "\x1b[?1000h\x1b[?1006h"
	case Any:
		return "\x1b[?1003h\x1b[?1006h"
	}
	return ""
}

// Disable returns the sequence that turns tracking off again.
func (t Tracking) Disable() string {
	switch t {
	case Normal:
		return "\x1b[?1006l\x1b[?1000l"
	case Any:
		return "\x1b[?1006l\x1b[?1003l"
	}
	return ""
}

// CursorQuerier performs a cursor position round trip with the terminal.
type CursorQuerier interface {
	QueryCursor() (row, col int, err error)
}

// Surface accepts raw output that must not interleave with other writers.
type Surface interface {
	Overlay(seq string)
}

// Injector pushes synthetic key input back into the stream.
type Injector interface {
	Inject(keys []byte)
}

// Dispatcher implements term.SequenceHandler for mouse reports.
type Dispatcher struct {
	Mode    Tracking
	Cursor  CursorQuerier
	Surface Surface
	Keys    Injector
	Width   func() int
	Logger  *slog.Logger

	decoder Decoder
}

// Match implements term.SequenceHandler.
func (d *Dispatcher) Match(data []byte) int {
	return Match(data)
}

// Handle implements term.SequenceHandler.
func (d *Dispatcher) Handle(seq []byte) {
	ev, ok := d.decoder.Decode(seq)
	if !ok {
		return
	}
	row, col, err := d.Cursor.QueryCursor()
	if err != nil {
		d.logger().Debug("cursor query failed", "error", err)
		return
	}

	switch d.Mode {
	case Any:
		d.overlay(ev, row, col)
	case Normal:
		d.moveCursor(ev, row, col)
	}
}

func (d *Dispatcher) overlay(ev Event, row, col int) {
	msg := strings.Repeat(" ", 10) + ev.String()
	width := term.DefaultWidth
	if d.Width != nil {
		width = d.Width()
	}
	x := max(0, width-runewidth.StringWidth(msg))
	msg = term.Truncate(msg, width)
	d.Surface.Overlay(term.CursorAddress(row, x) + msg + term.CursorAddress(row, col))
}

// moveCursor turns a click on the input row into arrow keys.
func (d *Dispatcher) moveCursor(ev Event, row, col int) {
	if ev.Type != Pressed || ev.Button != Button1 || ev.Y != row || d.Keys == nil {
		return
	}
	delta := ev.X - col
	key := "\x1b[C"
	if delta < 0 {
		key = "\x1b[D"
		delta = -delta
	}
	if delta > 0 {
		d.Keys.Inject([]byte(strings.Repeat(key, delta)))
	}
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.DiscardHandler)
}
