package term

import (
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(s string) string {
	return xansi.Strip(s)
}

// Width returns the display width of s ignoring escape sequences.
func Width(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}

// Truncate returns the longest prefix of s whose display width does not
// exceed maxWidth. s must not contain escape sequences.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth {
			return s[:i]
		}
		w += rw
	}
	return s
}

// TruncateStyled is Truncate for text that may carry escape sequences;
// styling is kept and the visible width is limited to maxWidth.
func TruncateStyled(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return xansi.Truncate(s, maxWidth, "")
}

// TruncateRight returns the longest suffix of s whose display width does
// not exceed maxWidth.
func TruncateRight(s string, maxWidth int) string {
	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > maxWidth {
			break
		}
		w += rw
		start = i
	}
	return string(runes[start:])
}

// MiddleTruncate shortens s to maxWidth columns by replacing its middle
// with an ellipsis.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return Truncate(s, maxWidth)
	}
	remaining := maxWidth - 1
	head := Truncate(s, (remaining+1)/2)
	tail := TruncateRight(s, remaining/2)
	return head + "…" + tail
}
