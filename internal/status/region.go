// Package status draws a status region below the prompt and runs the
// background tasks that update it.
package status

import (
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/runger/lineloop/internal/term"
)

// Slot names used by the session.
const (
	SlotTailTip = "tailtip"
	SlotCounter = "counter"
)

// Region is a block of status rows pinned to the bottom of the terminal.
// Rows come from named slots drawn in registration order. Every mutation
// flushes while holding the region's lock, so background tasks and the
// editor can update it concurrently.
type Region struct {
	mu       sync.Mutex
	out      io.Writer
	raw      io.Writer
	above    io.Writer
	size     func() (width, height int)
	refresh  func()
	order    []string
	slots    map[string][]string
	reserved int
	closed   bool
}

// NewRegion returns a region writing to out. size reports the terminal
// dimensions; slots are drawn top to bottom in the given order.
func NewRegion(out io.Writer, size func() (int, int), slots ...string) *Region {
	if size == nil {
		size = func() (int, int) { return term.DefaultWidth, term.DefaultHeight }
	}
	return &Region{
		out:   out,
		size:  size,
		order: slots,
		slots: make(map[string][]string),
	}
}

// OnFlush sets a callback run after every flush, usually the editor's
// redraw.
func (r *Region) OnFlush(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh = fn
}

// SetRaw sets the writer Overlay uses. Without one Overlay writes to the
// region's output.
func (r *Region) SetRaw(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw = w
}

// SetAbove sets the writer Print uses. It must keep the prompt intact by
// itself, as the editor's output writer does; Print then skips the
// refresh.
func (r *Region) SetAbove(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.above = w
}

// Update replaces the rows of slot and redraws. nil rows remove the slot.
func (r *Region) Update(slot string, rows []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if !slices.Contains(r.order, slot) {
		r.order = append(r.order, slot)
	}
	if len(rows) == 0 {
		if _, ok := r.slots[slot]; !ok {
			return
		}
		delete(r.slots, slot)
	} else {
		r.slots[slot] = slices.Clone(rows)
	}
	r.flushLocked()
}

// Rows returns the rows currently shown, top to bottom.
func (r *Region) Rows() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rowsLocked()
}

// Redraw draws the region again, for example after the screen was cleared.
func (r *Region) Redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.flushLocked()
	}
}

// Print writes text above the prompt.
func (r *Region) Print(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.above != nil {
		_, _ = io.WriteString(r.above, text)
		return
	}
	_, _ = io.WriteString(r.out, text)
	if r.refresh != nil {
		r.refresh()
	}
}

// Overlay writes a raw sequence without touching the reserved rows. It
// implements the mouse dispatcher's surface.
func (r *Region) Overlay(seq string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	w := r.raw
	if w == nil {
		w = r.out
	}
	_, _ = io.WriteString(w, seq)
}

// Close clears the region and gives the rows back to the scroll area.
// Later updates are ignored.
func (r *Region) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	clear(r.slots)
	r.flushLocked()
	r.closed = true
}

func (r *Region) rowsLocked() []string {
	var rows []string
	for _, name := range r.order {
		rows = append(rows, r.slots[name]...)
	}
	return rows
}

func (r *Region) flushLocked() {
	width, height := r.size()
	rows := r.rowsLocked()
	if limit := height - 1; len(rows) > limit {
		rows = rows[:max(limit, 0)]
	}
	n := len(rows)
	if n == 0 && r.reserved == 0 {
		return
	}

	var b strings.Builder
	if grow := n - r.reserved; grow > 0 {
		b.WriteString(strings.Repeat("\n", grow))
		b.WriteString(term.CursorUp(grow))
	}
	b.WriteString(term.SaveCursor)
	if n != r.reserved {
		for i := 0; i < r.reserved; i++ {
			b.WriteString(term.CursorAddress(height-1-i, 0))
			b.WriteString(term.ClearLine)
		}
		if n > 0 {
			b.WriteString(term.ScrollRegion(0, height-1-n))
		} else {
			b.WriteString(term.ResetScroll)
		}
	}
	for i, row := range rows {
		b.WriteString(term.CursorAddress(height-n+i, 0))
		b.WriteString(term.ClearLine)
		b.WriteString(term.TruncateStyled(row, width))
	}
	b.WriteString(term.RestoreCursor)
	r.reserved = n

	_, _ = io.WriteString(r.out, b.String())
	if r.refresh != nil {
		r.refresh()
	}
}
