package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runger/lineloop/internal/registry"
	"github.com/runger/lineloop/internal/term"
)

type intrinsic func(ctx context.Context, l *Loop, args []string) error

// intrinsics are the commands the loop handles itself. help is matched
// before this table since "?" is not a command name.
var intrinsics = map[string]intrinsic{
	"autopair":       autopair,
	"autosuggestion": autosuggestion,
	"cls":            cls,
	"sleep":          sleep,
	"testkey":        testkey,
	"tput":           tput,
}

// intrinsicHelp lists the intrinsics in help order.
var intrinsicHelp = []struct{ name, summary string }{
	{"autopair", "toggle brackets/quotes autopair key bindings"},
	{"autosuggestion", "history, completer, tailtip [tailtip|completer|combined] or none"},
	{"cls", "clear screen"},
	{"help", "list available commands"},
	{"exit", "exit from example app"},
	{"sleep", "sleep 3 seconds"},
	{"testkey", "display key events"},
	{"tput", "set terminal capability"},
}

func autopair(_ context.Context, l *Loop, _ []string) error {
	l.setState(l.State.ToggleAutopair())
	if l.State.Autopair {
		fmt.Fprintln(l.Out, "Autopair widgets are enabled.")
	} else {
		fmt.Fprintln(l.Out, "Autopair widgets are disabled.")
	}
	return nil
}

func autosuggestion(_ context.Context, l *Loop, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(l.Out, "Autosuggestion: "+l.State.Describe())
		return nil
	}
	s := l.State
	switch kind := strings.ToLower(args[0]); {
	case strings.HasPrefix(kind, "his"):
		s = s.WithSuggestion(SuggestHistory)
	case strings.HasPrefix(kind, "tai"):
		tip := s.TipType
		if len(args) > 1 {
			switch mode := strings.ToLower(args[1]); {
			case strings.HasPrefix(mode, "tai"):
				tip = TipTailTip
			case strings.HasPrefix(mode, "comp"):
				tip = TipCompleter
			case strings.HasPrefix(mode, "comb"):
				tip = TipCombined
			}
		}
		s = s.WithTailTip(tip)
	case strings.HasPrefix(kind, "com"):
		s = s.WithSuggestion(SuggestCompleter)
	case strings.HasPrefix(kind, "non"):
		s = s.WithSuggestion(SuggestNone)
	default:
		fmt.Fprintln(l.Out, "Usage: autosuggestion history|completer|tailtip|none")
		return nil
	}
	l.setState(s)
	return nil
}

func cls(_ context.Context, l *Loop, _ []string) error {
	fmt.Fprint(l.Out, term.ClearScreen)
	if l.Terminal != nil {
		l.Terminal.Redraw()
	}
	return nil
}

func sleep(ctx context.Context, l *Loop, _ []string) error {
	t := time.NewTimer(l.Sleep)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func testkey(ctx context.Context, l *Loop, _ []string) error {
	if l.Terminal == nil {
		return fmt.Errorf("testkey: %w", registry.ErrUnavailable)
	}
	fmt.Fprint(l.Out, "Input the key event(Enter to complete): ")
	keys, err := l.Terminal.ReadKeys(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(l.Out, term.DisplayKeys(keys))
	return nil
}

func tput(_ context.Context, l *Loop, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(l.Out, "Usage: tput <capability>")
		return nil
	}
	c, ok := term.Lookup(args[0])
	if !ok {
		fmt.Fprintln(l.Out, "Unknown capability")
		return nil
	}
	fmt.Fprint(l.Out, c.Sequence())
	return nil
}

// help lists the registered commands followed by the intrinsics.
func (l *Loop) help() {
	var b strings.Builder
	b.WriteString("List of available commands:\n")
	if cmds := l.Registry.Commands(); len(cmds) > 0 {
		b.WriteString("  Builtin:\n")
		for _, c := range cmds {
			summary := c.Summary
			if c.Run == nil && summary == "" {
				summary = "UNAVAILABLE"
			}
			fmt.Fprintf(&b, "    %-15s %s\n", c.Name, summary)
		}
	}
	b.WriteString("  Example:\n")
	for _, c := range intrinsicHelp {
		fmt.Fprintf(&b, "    %-15s %s\n", c.name, c.summary)
	}
	b.WriteString("  Additional help:\n")
	b.WriteString("    <command> --help\n")
	fmt.Fprint(l.Out, b.String())
}
