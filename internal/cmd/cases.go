package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/runger/lineloop/internal/builtins"
	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/describe"
	"github.com/runger/lineloop/internal/line"
	"github.com/runger/lineloop/internal/mouse"
)

const usageText = `Usage: lineloop [cases... [trigger mask]]
  Terminal:
    -system          attach to plain streams instead of the system terminal
    +system          attach to the system terminal
  Completors:
    aggregate        an aggregate completor with strings supplier
    argument         an argument completor & autosuggestion
    files            a completor that completes file names
    none             no completors
    param            a parameter completer using a callback
    regexp           a regex completer
    simple           a string completor that completes "foo", "bar" and "baz"
    tree             a tree completer
  Multiline:
    brackets         eof on unclosed bracket
    quotes           eof on unclosed quotes
  Mouse:
    mouse            enable mouse
    mousetrack       enable tracking mouse
  Miscellaneous:
    color            colored left and right prompts
    status           multi-thread test of the status line
    timer            widget 'Hello world'
    <trigger> <mask> password mask
  Example:
    lineloop simple su '*'`

// errUsage asks the caller to print the usage text and stop.
var errUsage = errors.New("usage requested")

const defaultPrompt = "prompt> "

// harness is the session a list of case words asks for.
type harness struct {
	prompt      string
	rightPrompt string
	completer   complete.Completer
	describer   describe.Describer // nil means the registry-backed generator
	parser      line.Parser

	trigger string
	mask    rune

	color  bool
	timer  bool
	status bool
	// stream detaches the session from the system terminal.
	stream bool
	mouse  mouse.Tracking
}

var (
	promptHostStyle = lipgloss.NewStyle().Background(lipgloss.Color("2"))
	promptDirStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	rightDateStyle  = lipgloss.NewStyle().Background(lipgloss.Color("1"))
	rightTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// parseCases builds the harness for words. Unknown words other than the
// first are reported on out and skipped; a trailing pair of unknown words
// is the mask trigger and the mask character.
func parseCases(words []string, opts *builtins.Options, now time.Time, out io.Writer) (*harness, error) {
	if len(words) == 0 {
		return nil, errUsage
	}
	h := &harness{prompt: defaultPrompt}

	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "timer":
			h.timer = true
		case "-system":
			h.stream = true
		case "+system":
			h.stream = false
		case "none":
		case "files":
			h.completer = &complete.Files{}
		case "simple":
			h.completer = complete.NewStrings("foo", "bar", "baz")
		case "quotes":
			h.parser = line.Parser{EOFOnUnclosedQuote: true}
		case "brackets":
			h.prompt = "long-prompt> "
			h.parser = line.Parser{EOFOnUnclosedBrackets: line.Brackets(line.Curly, line.Round, line.Square)}
		case "status":
			h.status = true
			h.completer = complete.NewStrings("foo", "bar", "baz")
		case "aggregate":
			h.completer = complete.NewAggregate(
				complete.NewArgument(complete.NewStrings("setopt"), opts.Completer(false)),
				complete.NewArgument(complete.NewStrings("unsetopt"), opts.Completer(true)),
			)
		case "argument":
			h.completer = argumentCompleter()
			h.describer = argumentTips()
		case "param":
			h.completer = complete.Func(paramCandidates)
		case "tree":
			h.completer = complete.MustTree(
				complete.TreeNode("Command1",
					complete.TreeNode("Option1", complete.TreeLeaf("Param1", "Param2")),
					complete.TreeNode("Option2"),
					complete.TreeNode("Option3"),
				),
			)
		case "regexp":
			h.completer = regexCompleter()
		case "color":
			h.color = true
			h.prompt = promptHostStyle.Render("foo") + "@bar\n" + promptDirStyle.Render("baz") + "> "
			h.rightPrompt = rightDateStyle.Render(now.Format(time.DateOnly)) + "\n" + rightTimeStyle.Render(now.Format("15:04"))
			h.completer = complete.NewStrings("\x1b[1mfoo\x1b[0m", "bar", "\x1b[32mbaz\x1b[0m", "foobar")
		case "mouse":
			h.mouse = mouse.Normal
		case "mousetrack":
			h.mouse = mouse.Any
		default:
			switch {
			case i == 0:
				return nil, errUsage
			case len(words) == i+2 && words[i+1] != "":
				h.trigger = words[i]
				h.mask = []rune(words[i+1])[0]
				i = len(words)
			default:
				fmt.Fprintf(out, "Bad test case: %s\n", words[i])
			}
		}
	}
	return h, nil
}

func argumentCompleter() complete.Completer {
	return complete.NewArgument(
		complete.StringsOf(
			complete.Candidate{Value: "foo11", Description: "complete cmdDesc", Complete: true},
			complete.Candidate{Value: "foo12", Description: "cmdDesc -names only", Complete: true},
			complete.Candidate{Value: "foo13", Description: "-", Complete: true},
			complete.Candidate{Value: "widget", Description: "cmdDesc with short options", Complete: true},
		),
		complete.NewStrings("foo21", "foo22", "foo23"),
		complete.StringsOf(complete.Candidate{Description: "frequency in MHz"}),
	)
}

// argumentTips are the descriptions shown for the argument case instead of
// the registry's.
func argumentTips() describe.Static {
	return describe.Static{
		"widget": {
			Main: describe.Plain(
				"widget -N new-widget [function-name]",
				"widget -D widget ...",
				"widget -A old-widget new-widget",
				"widget -U string ...",
				"widget -l [options]",
			),
			Args: describe.ArgNames("[pN...]"),
			Options: map[string][]describe.Line{
				"-N": describe.Plain("Create new widget"),
				"-D": describe.Plain("Delete widgets"),
				"-A": describe.Plain("Create alias to widget"),
				"-U": describe.Plain("Push characters to the stack"),
				"-l": describe.Plain("List user-defined widgets"),
			},
		},
		"foo12": {Args: describe.ArgNames("param1", "param2", "[paramN...]")},
		"foo11": {
			Args: []describe.ArgDesc{
				{Name: "param1", Desc: describe.Plain(
					"Param1 description...",
					"line 2: This is a very long line that does exceed the terminal width."+
						" The line will be truncated automatically before printing out.",
					"line 3", "line 4", "line 5", "line 6",
				)},
				{Name: "param2", Desc: describe.Plain("Param2 description...", "line 2")},
				{Name: "param3"},
			},
			Options: map[string][]describe.Line{
				"--optionA": describe.Plain("optionA description..."),
				"--noitpoB": describe.Plain("noitpoB description..."),
				"--optionC": describe.Plain("optionC description...", "line2"),
			},
		},
	}
}

// paramCandidates offers Command1, then its options, then the parameters
// of Option1. Options already on the line are not offered again.
func paramCandidates(pl *line.ParsedLine) []complete.Candidate {
	if pl.WordIndex == 0 {
		return []complete.Candidate{complete.NewCandidate("Command1")}
	}
	words := pl.Texts()
	if len(words) == 0 || words[0] != "Command1" {
		return nil
	}
	if pl.WordIndex-1 < len(words) && words[pl.WordIndex-1] == "Option1" {
		return []complete.Candidate{complete.NewCandidate("Param1"), complete.NewCandidate("Param2")}
	}
	var out []complete.Candidate
	if pl.WordIndex == 1 {
		out = append(out, complete.NewCandidate("Option1"))
	}
	for _, opt := range []string{"Option2", "Option3"} {
		if !pl.Contains(opt) {
			out = append(out, complete.NewCandidate(opt))
		}
	}
	return out
}

func regexCompleter() complete.Completer {
	symbols := map[string]complete.Completer{
		"C1":  complete.NewStrings("cmd1"),
		"C11": complete.NewStrings("--opt11", "--opt12"),
		"C12": complete.NewStrings("arg11", "arg12", "arg13"),
		"C2":  complete.NewStrings("cmd2"),
		"C21": complete.NewStrings("--opt21", "--opt22"),
		"C22": complete.NewStrings("arg21", "arg22", "arg23"),
	}
	return complete.MustRegex("C1 C11* C12+ | C2 C21* C22+", func(sym string) complete.Completer {
		return symbols[sym]
	})
}
