// Package describe classifies the line being typed and produces the
// description shown under the prompt while it is edited.
package describe

import "strings"

// Type classifies a command line for description purposes.
type Type int

const (
	// Command lines start with a registered command.
	Command Type = iota + 1
	// Method lines are inside a call such as "obj.method(a, ".
	Method
	// Syntax lines are inside an unterminated block.
	Syntax
)

func (t Type) String() string {
	switch t {
	case Command:
		return "COMMAND"
	case Method:
		return "METHOD"
	case Syntax:
		return "SYNTAX"
	}
	return "UNKNOWN"
}

// CmdLine is a classified command line.
type CmdLine struct {
	// Line is the full buffer.
	Line string
	// Head is the command name for Command lines and the text before the
	// open bracket otherwise.
	Head string
	// Args holds the words of a Command line, command included, or the
	// comma separated arguments typed so far inside a call.
	Args []string
	Type Type
}

// Trailing reports whether the buffer ends in whitespace, meaning the
// next word has not been started.
func (c CmdLine) Trailing() bool {
	return c.Line != "" && strings.ContainsAny(c.Line[len(c.Line)-1:], " \t")
}

// Severity marks how a description line should be presented.
type Severity int

// Severities.
const (
	Normal Severity = iota
	Error
)

// Line is one line of description text.
type Line struct {
	Text     string
	Severity Severity
}

// Plain turns strings into normal description lines.
func Plain(texts ...string) []Line {
	out := make([]Line, len(texts))
	for i, t := range texts {
		out[i] = Line{Text: t}
	}
	return out
}

// ArgDesc describes one positional argument.
type ArgDesc struct {
	Name string
	Desc []Line
}

// ArgNames builds argument descriptions that carry only names.
func ArgNames(names ...string) []ArgDesc {
	out := make([]ArgDesc, len(names))
	for i, n := range names {
		out[i] = ArgDesc{Name: n}
	}
	return out
}

// repeats reports whether the argument accepts any number of values.
func (a ArgDesc) repeats() bool {
	return strings.Contains(a.Name, "...")
}

// CmdDesc is the structured description of a command.
type CmdDesc struct {
	Main    []Line
	Args    []ArgDesc
	Options map[string][]Line
	// Invalid is set for unterminated constructs; nothing is rendered.
	Invalid bool
}

// Valid reports whether the description may be rendered.
func (d *CmdDesc) Valid() bool {
	return d != nil && !d.Invalid
}

// Empty reports whether the description carries no content.
func (d *CmdDesc) Empty() bool {
	return d == nil || (len(d.Main) == 0 && len(d.Args) == 0 && len(d.Options) == 0)
}

// InvalidSyntax is the description of an unterminated construct.
func InvalidSyntax() *CmdDesc {
	return &CmdDesc{Invalid: true}
}
