// Package registry holds the commands a session can dispatch to, their
// aliases, usage text and descriptions.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/describe"
	"github.com/runger/lineloop/internal/line"
)

var (
	// ErrUnknownCommand is returned for names that resolve to nothing.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidArgument is matched by every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDuplicate is returned when a name is already taken.
	ErrDuplicate = errors.New("name already registered")
)

// Invocation is one call of a command.
type Invocation struct {
	Name   string
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Printf writes to the invocation's stdout.
func (inv *Invocation) Printf(format string, args ...any) {
	fmt.Fprintf(inv.Stdout, format, args...)
}

// Println writes a line to the invocation's stdout.
func (inv *Invocation) Println(args ...any) {
	fmt.Fprintln(inv.Stdout, args...)
}

// Handler runs a command.
type Handler func(ctx context.Context, inv *Invocation) error

// Command is a registered command.
type Command struct {
	// ID identifies the command across renames; defaults to Name.
	ID      string
	Name    string
	Summary string
	// Usage is shown for --help. Its "Usage:" lines and option lines also
	// yield the description when Desc is nil.
	Usage     string
	Desc      *describe.CmdDesc
	Completer complete.Completer
	Run       Handler
}

// Registry maps names and aliases to commands. It is safe for concurrent
// use; the editor reads it while the session mutates it.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	aliases  map[string]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
}

// Register adds cmd.
func (r *Registry) Register(cmd Command) error {
	if cmd.Name == "" {
		return fmt.Errorf("%w: command without a name", ErrInvalidArgument)
	}
	if cmd.ID == "" {
		cmd.ID = cmd.Name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takenLocked(cmd.Name) {
		return fmt.Errorf("%w: %s", ErrDuplicate, cmd.Name)
	}
	c := cmd
	r.commands[cmd.Name] = &c
	return nil
}

// MustRegister is Register for static command sets.
func (r *Registry) MustRegister(cmds ...Command) {
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) takenLocked(name string) bool {
	_, cmd := r.commands[name]
	_, alias := r.aliases[name]
	return cmd || alias
}

// Resolve maps a name or alias to the canonical command name.
func (r *Registry) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(name)
}

func (r *Registry) resolveLocked(name string) (string, bool) {
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	_, ok := r.commands[name]
	return name, ok
}

// HasCommand reports whether name or an alias resolves to a command.
func (r *Registry) HasCommand(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// Lookup returns the command name resolves to.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.resolveLocked(name)
	if !ok {
		return nil, false
	}
	return r.commands[canonical], true
}

// Execute runs the command name resolves to. A --help or -? argument
// returns a *HelpError carrying the usage instead.
func (r *Registry) Execute(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	for _, a := range args {
		if a == "--help" || a == "-?" {
			return &HelpError{Command: cmd.Name, Usage: cmd.usage()}
		}
	}
	if cmd.Run == nil {
		return fmt.Errorf("%s: %w", cmd.Name, ErrUnavailable)
	}
	return cmd.Run(ctx, &Invocation{
		Name:   cmd.Name,
		Args:   args,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	})
}

// ErrUnavailable is returned by commands that exist but cannot run here.
var ErrUnavailable = errors.New("UNAVAILABLE")

func (c *Command) usage() string {
	if c.Usage != "" {
		return c.Usage
	}
	if c.Summary != "" {
		return c.Name + " - " + c.Summary
	}
	return c.Name
}

// Descriptor returns the description of the named command, derived from
// its usage text when none is declared. It returns nil for commands
// without either.
func (r *Registry) Descriptor(name string) *describe.CmdDesc {
	cmd, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	if cmd.Desc != nil {
		return cmd.Desc
	}
	if cmd.Usage == "" {
		return nil
	}
	return ParseUsage(cmd.Name, cmd.Usage)
}

// Alias makes name resolve to target.
func (r *Registry) Alias(name, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	canonical, ok := r.resolveLocked(target)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, target)
	}
	if r.takenLocked(name) {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.aliases[name] = canonical
	return nil
}

// Rename gives the command with the given ID a new name. Aliases follow.
func (r *Registry) Rename(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cmd *Command
	for _, c := range r.commands {
		if c.ID == id {
			cmd = c
			break
		}
	}
	if cmd == nil {
		return fmt.Errorf("%w: id %s", ErrUnknownCommand, id)
	}
	if cmd.Name == name {
		return nil
	}
	if r.takenLocked(name) {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	old := cmd.Name
	delete(r.commands, old)
	cmd.Name = name
	r.commands[name] = cmd
	for a, t := range r.aliases {
		if t == old {
			r.aliases[a] = name
		}
	}
	return nil
}

// Names returns the canonical command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// Commands returns the registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, 0, len(names))
	for _, n := range names {
		out = append(out, r.commands[n])
	}
	return out
}

// Completer completes command names and aliases in the first word and
// delegates the remaining words to the command's own completer.
func (r *Registry) Completer() complete.Completer {
	return complete.Func(func(pl *line.ParsedLine) []complete.Candidate {
		if pl.WordIndex == 0 {
			return r.nameCandidates()
		}
		cmd, ok := r.Lookup(line.CommandName(pl.Head()))
		if !ok || cmd.Completer == nil {
			return nil
		}
		return cmd.Completer.Complete(pl)
	})
}

func (r *Registry) nameCandidates() []complete.Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]complete.Candidate, 0, len(r.commands)+len(r.aliases))
	for n, c := range r.commands {
		out = append(out, complete.Candidate{Value: n, Description: c.Summary, Group: "commands", Complete: true})
	}
	for a, t := range r.aliases {
		out = append(out, complete.Candidate{Value: a, Description: "alias for " + t, Group: "aliases", Complete: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// ParseUsage derives a description from usage text. "Usage:" lines and
// their continuations become the main description; indented lines that
// start with an option become option descriptions keyed by every
// spelling of the option.
func ParseUsage(name, usage string) *describe.CmdDesc {
	desc := &describe.CmdDesc{}
	for _, l := range strings.Split(usage, "\n") {
		t := strings.TrimSpace(l)
		switch {
		case t == "":
		case strings.HasPrefix(t, "Usage:"):
			desc.Main = append(desc.Main, describe.Line{Text: strings.TrimSpace(strings.TrimPrefix(t, "Usage:"))})
		case strings.HasPrefix(t, name+" ") && len(desc.Main) > 0:
			desc.Main = append(desc.Main, describe.Line{Text: t})
		case strings.HasPrefix(t, "-"):
			names, text := splitOption(t)
			for _, n := range names {
				if desc.Options == nil {
					desc.Options = make(map[string][]describe.Line)
				}
				desc.Options[n] = describe.Plain(text)
			}
		}
	}
	if desc.Empty() {
		return nil
	}
	return desc
}

// splitOption splits "-c --clear   Clear history" into its option
// spellings and the description after the first run of two spaces.
func splitOption(t string) ([]string, string) {
	head, text, _ := strings.Cut(t, "  ")
	var names []string
	for _, f := range strings.FieldsFunc(head, func(r rune) bool { return r == ' ' || r == ',' }) {
		if strings.HasPrefix(f, "-") {
			if i := strings.IndexByte(f, '='); i > 0 {
				f = f[:i]
			}
			names = append(names, f)
		}
	}
	return names, strings.TrimSpace(text)
}
