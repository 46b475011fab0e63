// Package mouse decodes xterm mouse reports and reacts to them without
// disturbing the line being edited.
package mouse

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Type is the kind of mouse event.
type Type int

// Event types.
const (
	Released Type = iota
	Pressed
	Wheel
	Moved
	Dragged
)

var typeNames = [...]string{"Released", "Pressed", "Wheel", "Moved", "Dragged"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// Button identifies the button involved in an event.
type Button int

// Buttons.
const (
	NoButton Button = iota
	Button1
	Button2
	Button3
	WheelUp
	WheelDown
)

var buttonNames = [...]string{"NoButton", "Button1", "Button2", "Button3", "WheelUp", "WheelDown"}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "Button(" + strconv.Itoa(int(b)) + ")"
}

// Mod is a bit set of keyboard modifiers held during the event.
type Mod uint8

// Modifiers.
const (
	Shift Mod = 1 << iota
	Alt
	Control
)

func (m Mod) String() string {
	var names []string
	if m&Shift != 0 {
		names = append(names, "Shift")
	}
	if m&Alt != 0 {
		names = append(names, "Alt")
	}
	if m&Control != 0 {
		names = append(names, "Control")
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Event is one decoded mouse report. X and Y are zero based.
type Event struct {
	Type   Type
	Button Button
	Mod    Mod
	X, Y   int
}

func (e Event) String() string {
	return fmt.Sprintf("MouseEvent[type=%s, button=%s, modifiers=%s, x=%d, y=%d]",
		e.Type, e.Button, e.Mod, e.X, e.Y)
}

// Match reports the length of the mouse report at the start of data: 0
// when data does not start with one, -1 when more bytes are needed.
// Both the X10 form (ESC [ M b x y) and the SGR form (ESC [ < b ; x ; y M)
// are recognised.
func Match(data []byte) int {
	if len(data) == 0 || data[0] != 0x1b {
		return 0
	}
	if len(data) < 3 {
		if len(data) == 2 && data[1] != '[' {
			return 0
		}
		return -1
	}
	if data[1] != '[' {
		return 0
	}
	switch data[2] {
	case 'M':
		if len(data) < 6 {
			return -1
		}
		return 6
	case '<':
		for i := 3; i < len(data); i++ {
			c := data[i]
			switch {
			case c == 'M' || c == 'm':
				return i + 1
			case c == ';' || (c >= '0' && c <= '9'):
				if i > 32 {
					return 0
				}
			default:
				return 0
			}
		}
		return -1
	}
	return 0
}

// Decoder turns reports into events. It remembers the last pressed
// button so that motion and X10 releases can be attributed.
type Decoder struct {
	last Button
}

// Decode parses one complete report as returned by Match.
func (d *Decoder) Decode(seq []byte) (Event, bool) {
	if Match(seq) != len(seq) || len(seq) < 6 {
		return Event{}, false
	}
	if seq[2] == 'M' {
		cb := int(seq[3]) - 32
		x := int(seq[4]) - 32 - 1
		y := int(seq[5]) - 32 - 1
		return d.event(cb, x, y, cb&3 == 3), true
	}

	body := seq[3 : len(seq)-1]
	parts := bytes.Split(body, []byte{';'})
	if len(parts) != 3 {
		return Event{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(string(p))
		if err != nil {
			return Event{}, false
		}
		nums[i] = n
	}
	release := seq[len(seq)-1] == 'm'
	return d.event(nums[0], nums[1]-1, nums[2]-1, release), true
}

func (d *Decoder) event(cb, x, y int, release bool) Event {
	ev := Event{X: max(x, 0), Y: max(y, 0)}
	if cb&4 != 0 {
		ev.Mod |= Shift
	}
	if cb&8 != 0 {
		ev.Mod |= Alt
	}
	if cb&16 != 0 {
		ev.Mod |= Control
	}

	if cb&64 != 0 {
		ev.Type = Wheel
		ev.Button = WheelUp
		if cb&1 != 0 {
			ev.Button = WheelDown
		}
		return ev
	}

	var b Button
	switch cb & 3 {
	case 0:
		b = Button1
	case 1:
		b = Button2
	case 2:
		b = Button3
	default:
		b = NoButton
	}

	switch {
	case cb&32 != 0:
		if b == NoButton {
			ev.Type = Moved
		} else {
			ev.Type = Dragged
			ev.Button = b
		}
	case release:
		ev.Type = Released
		ev.Button = b
		if b == NoButton {
			ev.Button = d.last
		}
		d.last = NoButton
	default:
		ev.Type = Pressed
		ev.Button = b
		d.last = b
	}
	return ev
}
