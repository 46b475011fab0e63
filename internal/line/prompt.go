package line

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/runger/lineloop/internal/term"
)

// DefaultSecondaryPattern is the continuation prompt pattern used when
// none is configured.
const DefaultSecondaryPattern = "%M%P > "

// SecondaryPrompt expands a continuation prompt pattern.
//
//	%M  what the parser says is missing
//	%N  the continuation line number, starting at 1
//	%P  padding that aligns the result with the primary prompt
//	%%  a literal percent sign
func SecondaryPrompt(pattern, primary, missing string, lineNo int) string {
	expand := func(pad string) string {
		var b strings.Builder
		for i := 0; i < len(pattern); i++ {
			c := pattern[i]
			if c != '%' || i+1 == len(pattern) {
				b.WriteByte(c)
				continue
			}
			i++
			switch pattern[i] {
			case 'M':
				b.WriteString(missing)
			case 'N':
				b.WriteString(strconv.Itoa(lineNo))
			case 'P':
				b.WriteString(pad)
			case '%':
				b.WriteByte('%')
			default:
				b.WriteByte('%')
				b.WriteByte(pattern[i])
			}
		}
		return b.String()
	}

	unpadded := expand("")
	if !strings.Contains(pattern, "%P") {
		return unpadded
	}
	last := primary
	if i := strings.LastIndexByte(primary, '\n'); i >= 0 {
		last = primary[i+1:]
	}
	gap := runewidth.StringWidth(term.StripANSI(last)) - runewidth.StringWidth(term.StripANSI(unpadded))
	if gap < 0 {
		gap = 0
	}
	return expand(strings.Repeat(" ", gap))
}
