package describe

import (
	"strings"
	"unicode"

	"github.com/runger/lineloop/internal/line"
)

type openBracket struct {
	char byte
	pos  int
}

// Classify decides how buffer should be described. isCommand reports
// whether a name is a registered command. It returns false when the
// buffer needs no description.
func Classify(buffer string, isCommand func(string) bool) (CmdLine, bool) {
	var (
		stack []openBracket
		quote byte
	)
	for i := 0; i < len(buffer); i++ {
		c := buffer[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else if c == '\\' && quote == '"' {
				i++
			}
		case c == '\\':
			i++
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '{' || c == '[':
			stack = append(stack, openBracket{c, i})
		case c == ')' || c == '}' || c == ']':
			if n := len(stack); n > 0 && matches(stack[n-1].char, c) {
				stack = stack[:n-1]
			}
		}
	}

	if n := len(stack); n > 0 {
		top := stack[n-1]
		before := strings.TrimRight(buffer[:top.pos], " \t")
		if top.char == '(' && endsWithIdentifier(before) {
			return CmdLine{
				Line: buffer,
				Head: buffer[:top.pos],
				Args: splitCallArgs(buffer[top.pos+1:]),
				Type: Method,
			}, true
		}
		return CmdLine{Line: buffer, Head: strings.TrimSpace(buffer[:top.pos]), Type: Syntax}, true
	}

	pl, _ := line.Parser{}.Parse(buffer, len(buffer), line.ContextComplete)
	if len(pl.Words) == 0 || pl.Head() == "" {
		return CmdLine{}, false
	}
	name := line.CommandName(pl.Head())
	if name == "" || isCommand == nil || !isCommand(name) {
		return CmdLine{}, false
	}
	return CmdLine{Line: buffer, Head: name, Args: pl.Texts(), Type: Command}, true
}

func matches(open, close byte) bool {
	return (open == '(' && close == ')') || (open == '{' && close == '}') || (open == '[' && close == ']')
}

func endsWithIdentifier(s string) bool {
	if s == "" {
		return false
	}
	r := rune(s[len(s)-1])
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func splitCallArgs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
