package registry

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpError is returned when a command is asked for its usage.
type HelpError struct {
	Command string
	Usage   string
}

func (e *HelpError) Error() string { return e.Usage }

// ArgumentError reports bad arguments to a command. Its message is shown
// to the user as is.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return e.Msg }

// Is makes errors.Is(err, ErrInvalidArgument) match.
func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// Errorf returns an *ArgumentError.
func Errorf(format string, args ...any) error {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

var (
	helpTitleStyle  = lipgloss.NewStyle().Bold(true)
	helpOptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	helpUsageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// HighlightHelp styles usage text: the summary line in bold, "Usage:"
// in yellow and option spellings in cyan.
func HighlightHelp(usage string) string {
	lines := strings.Split(strings.TrimRight(usage, "\n"), "\n")
	for i, l := range lines {
		t := strings.TrimLeft(l, " ")
		indent := l[:len(l)-len(t)]
		switch {
		case i == 0 && !strings.HasPrefix(t, "Usage:"):
			lines[i] = helpTitleStyle.Render(l)
		case strings.HasPrefix(t, "Usage:"):
			lines[i] = indent + helpUsageStyle.Render("Usage:") + strings.TrimPrefix(t, "Usage:")
		case strings.HasPrefix(t, "-"):
			head, rest, found := strings.Cut(t, "  ")
			lines[i] = indent + helpOptionStyle.Render(head)
			if found {
				lines[i] += "  " + rest
			}
		}
	}
	return strings.Join(lines, "\n")
}
