package describe

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runger/lineloop/internal/term"
)

// DefaultRows is the number of description rows shown under the prompt.
const DefaultRows = 5

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Render selects the description lines relevant to the word being typed
// and fits them into width columns and at most rows lines. Options that
// match the current word win over positional arguments, which win over
// the main description.
func Render(desc *CmdDesc, cl CmdLine, width, rows int) []string {
	if !desc.Valid() || desc.Empty() {
		return nil
	}
	if width <= 0 {
		width = term.DefaultWidth
	}
	if rows <= 0 {
		rows = DefaultRows
	}

	lines := pick(desc, cl)
	if len(lines) > rows {
		lines = lines[:rows]
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		text := term.Truncate(l.Text, width)
		if l.Severity == Error {
			text = errorStyle.Render(text)
		}
		out = append(out, text)
	}
	return out
}

func pick(desc *CmdDesc, cl CmdLine) []Line {
	if cl.Type != Command || len(cl.Args) == 0 {
		return mainLines(desc)
	}
	words := cl.Args[1:]
	current := ""
	if !cl.Trailing() && len(words) > 0 {
		current = words[len(words)-1]
	}

	if strings.HasPrefix(current, "-") && len(desc.Options) > 0 {
		if lines, ok := desc.Options[current]; ok {
			return lines
		}
		var keys []string
		for k := range desc.Options {
			if strings.HasPrefix(k, current) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		switch len(keys) {
		case 0:
		case 1:
			return desc.Options[keys[0]]
		default:
			lines := make([]Line, 0, len(keys))
			for _, k := range keys {
				text := optionStyle.Render(k)
				if d := desc.Options[k]; len(d) > 0 {
					text += "  " + d[0].Text
				}
				lines = append(lines, Line{Text: text})
			}
			return lines
		}
	}

	if a, ok := positional(desc, words, current); ok && len(a.Desc) > 0 {
		return a.Desc
	}
	return mainLines(desc)
}

// positional finds the argument the cursor is on.
func positional(desc *CmdDesc, words []string, current string) (ArgDesc, bool) {
	if len(desc.Args) == 0 || strings.HasPrefix(current, "-") {
		return ArgDesc{}, false
	}
	idx := 0
	for _, w := range words {
		if !strings.HasPrefix(w, "-") {
			idx++
		}
	}
	if current != "" {
		idx--
	}
	if idx < len(desc.Args) {
		return desc.Args[idx], true
	}
	if last := desc.Args[len(desc.Args)-1]; last.repeats() {
		return last, true
	}
	return ArgDesc{}, false
}

func mainLines(desc *CmdDesc) []Line {
	if len(desc.Main) > 0 {
		return desc.Main
	}
	if len(desc.Args) > 0 {
		return []Line{{Text: argNames(desc.Args)}}
	}
	return nil
}

func argNames(args []ArgDesc) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name
	}
	return strings.Join(names, " ")
}

// InlineHint returns the names of the arguments still to be typed, shown
// after the cursor when the line ends in whitespace.
func InlineHint(desc *CmdDesc, cl CmdLine) string {
	if !desc.Valid() || cl.Type != Command || !cl.Trailing() || len(desc.Args) == 0 {
		return ""
	}
	idx := 0
	for _, w := range cl.Args[1:] {
		if !strings.HasPrefix(w, "-") {
			idx++
		}
	}
	if idx >= len(desc.Args) {
		if last := desc.Args[len(desc.Args)-1]; last.repeats() {
			return last.Name
		}
		return ""
	}
	return argNames(desc.Args[idx:])
}
