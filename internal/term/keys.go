package term

import (
	"strings"
	"unicode"
)

// DisplayKeys renders a raw key sequence in caret notation, quoted.
// Control characters become ^X, DEL becomes ^? and the caret and
// backslash are escaped.
func DisplayKeys(keys string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range keys {
		switch {
		case r < 32:
			b.WriteByte('^')
			b.WriteRune(r + 'A' - 1)
		case r == 127:
			b.WriteString("^?")
		case r == '^' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r >= 128 && !unicode.IsPrint(r):
			b.WriteString(`\u`)
			const hex = "0123456789abcdef"
			for shift := 12; shift >= 0; shift -= 4 {
				b.WriteByte(hex[(r>>uint(shift))&0xf])
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
