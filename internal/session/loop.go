// Package session runs the interactive read-dispatch loop: it reads
// logical lines, handles the intrinsic commands and routes everything else
// through the command registry.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/runger/lineloop/internal/line"
	"github.com/runger/lineloop/internal/registry"
)

// Phase is the position of the loop in its read-dispatch cycle.
type Phase int

// Loop phases. Terminated and Aborted are final.
const (
	AwaitingLine Phase = iota
	Parsing
	Dispatching
	Terminated
	Aborted
)

func (p Phase) String() string {
	switch p {
	case AwaitingLine:
		return "awaiting-line"
	case Parsing:
		return "parsing"
	case Dispatching:
		return "dispatching"
	case Terminated:
		return "terminated"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ReadRequest describes one physical line read.
type ReadRequest struct {
	Prompt      string
	RightPrompt string
	// Initial is placed in the buffer before the user types.
	Initial string
	// Mask hides every typed character behind itself when non-zero.
	Mask  rune
	State State
}

// LineReader reads one physical line. Implementations return ErrInterrupt
// when the user cancels the line and io.EOF at end of input.
type LineReader interface {
	Read(ctx context.Context, req ReadRequest) (string, error)
}

// Terminal is the part of the terminal the intrinsic commands use beyond
// the output writer.
type Terminal interface {
	// ReadKeys reads raw keys up to, and not including, CR or LF.
	ReadKeys(ctx context.Context) (string, error)
	// Redraw repaints the editing surface after the screen was cleared.
	Redraw()
}

// Widgets receives the session state whenever it changes.
type Widgets interface {
	Apply(State)
}

// Stopper is a group of background tasks tied to the session.
type Stopper interface {
	Stop()
}

// DefaultSleep is how long the sleep intrinsic waits.
const DefaultSleep = 3 * time.Second

var echoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

// Loop is the dispatch loop of one interactive session. Reader and
// Registry are required; every other collaborator is optional.
type Loop struct {
	Reader   LineReader
	Registry *registry.Registry
	Terminal Terminal
	Widgets  Widgets
	Tasks    Stopper
	Parser   line.Parser

	// Expand returns the words of a configured alias.
	Expand func(name string) ([]string, bool)
	// Residual handles names that are neither intrinsic nor registered.
	Residual map[string]registry.Handler

	In  io.Reader
	Out io.Writer
	Err io.Writer

	Logger *slog.Logger

	// State is the current widget configuration. Intrinsic commands
	// replace it; Widgets.Apply is told about every change.
	State State

	// Color styles the echo line.
	Color            bool
	SecondaryPattern string
	Indentation      int
	Sleep            time.Duration

	// OnPhase observes every phase change.
	OnPhase func(Phase)

	phase Phase
}

// Phase returns the phase the loop is in.
func (l *Loop) Phase() Phase {
	return l.phase
}

func (l *Loop) setPhase(p Phase) {
	l.phase = p
	if l.OnPhase != nil {
		l.OnPhase(p)
	}
}

func (l *Loop) setState(s State) {
	l.State = s
	if l.Widgets != nil {
		l.Widgets.Apply(s)
	}
}

func (l *Loop) defaults() {
	if l.Logger == nil {
		l.Logger = slog.New(slog.DiscardHandler)
	}
	if l.Out == nil {
		l.Out = io.Discard
	}
	if l.Err == nil {
		l.Err = l.Out
	}
	if l.In == nil {
		l.In = strings.NewReader("")
	}
	if l.SecondaryPattern == "" {
		l.SecondaryPattern = line.DefaultSecondaryPattern
	}
	if l.Sleep == 0 {
		l.Sleep = DefaultSleep
	}
}

// Run reads and dispatches lines until end of input, an exit command or
// cancellation of ctx, all of which return nil. A read failure other than
// an interrupt aborts the session and is returned. Background tasks are
// stopped before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if l.Reader == nil || l.Registry == nil {
		return errors.New("session: Reader and Registry are required")
	}
	l.defaults()
	if l.Tasks != nil {
		defer l.Tasks.Stop()
	}
	l.setState(l.State)

	for {
		l.setPhase(AwaitingLine)
		text, err := l.readLogical(ctx)
		if err != nil {
			switch {
			case errors.Is(err, ErrInterrupt):
				continue
			case errors.Is(err, io.EOF), ctx.Err() != nil:
				l.setPhase(Terminated)
				return nil
			default:
				l.setPhase(Aborted)
				return fmt.Errorf("read line: %w", err)
			}
		}

		done, err := l.handle(ctx, text)
		if err != nil {
			l.setPhase(Aborted)
			return err
		}
		if done || ctx.Err() != nil {
			l.setPhase(Terminated)
			return nil
		}
	}
}

// readLogical reads physical lines until the parser accepts them as one
// logical line.
func (l *Loop) readLogical(ctx context.Context) (string, error) {
	req := ReadRequest{Prompt: l.State.Prompt, RightPrompt: l.State.RightPrompt, State: l.State}
	var acc string
	for n := 1; ; n++ {
		text, err := l.Reader.Read(ctx, req)
		if err != nil {
			return "", err
		}
		if n > 1 {
			text = acc + "\n" + text
		}
		_, err = l.Parser.Parse(text, len(text), line.ContextAccept)
		var inc *line.IncompleteError
		if !errors.As(err, &inc) {
			return text, nil
		}
		acc = text
		req = ReadRequest{
			Prompt:  line.SecondaryPrompt(l.SecondaryPattern, l.State.Prompt, inc.Missing, n+1),
			Initial: strings.Repeat(" ", l.Indentation*inc.Depth),
			State:   l.State,
		}
	}
}

// handle processes one logical line. It reports whether the session is
// over; an error means it must abort.
func (l *Loop) handle(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	l.echo(text)

	if l.State.Trigger != "" && text == l.State.Trigger {
		masked, err := l.Reader.Read(ctx, ReadRequest{Prompt: "password> ", Mask: l.State.Mask, State: l.State})
		switch {
		case err == nil:
			text = masked
		case errors.Is(err, ErrInterrupt):
			return false, nil
		case errors.Is(err, io.EOF), ctx.Err() != nil:
			return true, nil
		default:
			return false, fmt.Errorf("read masked line: %w", err)
		}
	}

	if strings.EqualFold(text, "exit") || strings.EqualFold(text, "quit") {
		return true, nil
	}

	l.setPhase(Parsing)
	pl, _ := l.Parser.Parse(text, len(text), line.ContextComplete)
	if len(pl.Words) == 0 {
		return false, nil
	}

	l.setPhase(Dispatching)
	err := l.dispatch(ctx, pl.Head(), pl.Args())
	return l.classify(pl.Head(), err), nil
}

func (l *Loop) echo(text string) {
	arrow := "======>"
	if l.Color {
		arrow = echoStyle.Render(arrow)
	}
	fmt.Fprintf(l.Out, "%s\"%s\"\n", arrow, text)
}

// dispatch routes a command: configured aliases are expanded once, then
// intrinsics win over registered commands, which win over residual
// handlers. Unknown names are accepted silently.
func (l *Loop) dispatch(ctx context.Context, head string, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	if l.Expand != nil {
		if words, ok := l.Expand(head); ok && len(words) > 0 {
			head, args = words[0], append(words[1:len(words):len(words)], args...)
		}
	}

	if head == "help" || head == "?" {
		l.help()
		return nil
	}
	if fn, ok := intrinsics[line.CommandName(head)]; ok {
		return fn(ctx, l, args)
	}

	name := line.CommandName(head)
	if name != "" && l.Registry.HasCommand(name) {
		return l.Registry.Execute(ctx, name, args, l.In, l.Out, l.Err)
	}
	if h, ok := l.Residual[name]; ok && name != "" {
		return h(ctx, &registry.Invocation{Name: name, Args: args, Stdin: l.In, Stdout: l.Out, Stderr: l.Err})
	}
	l.Logger.Debug("no command", "name", head)
	return nil
}

// classify turns a dispatch error into output and reports whether the
// session is over.
func (l *Loop) classify(name string, err error) bool {
	var helpErr *registry.HelpError
	switch {
	case err == nil:
	case errors.As(err, &helpErr):
		fmt.Fprintln(l.Out, registry.HighlightHelp(helpErr.Usage))
	case errors.Is(err, ErrInterrupt), errors.Is(err, context.Canceled):
	case errors.Is(err, registry.ErrInvalidArgument),
		errors.Is(err, registry.ErrUnavailable),
		errors.Is(err, fs.ErrNotExist):
		fmt.Fprintln(l.Out, err.Error())
	default:
		attrs := []any{"command", name, "error", err}
		var pe *PanicError
		if errors.As(err, &pe) {
			attrs = append(attrs, "stack", string(pe.Stack))
		}
		l.Logger.Error("command failed", attrs...)
		fmt.Fprintf(l.Err, "%s: %v\n", name, err)
	}
	return false
}
