// Package builtins provides the registry-backed commands every session
// starts with.
package builtins

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/history"
	"github.com/runger/lineloop/internal/registry"
)

// Screens runs the full-screen tools.
type Screens interface {
	Page(ctx context.Context, files []string, lineNumbers bool) error
	Edit(ctx context.Context, file string) error
	Top(ctx context.Context, opts TopOptions) error
}

// TopOptions configures the goroutine viewer.
type TopOptions struct {
	Interval int // seconds between refreshes
	Rows     int // zero shows every goroutine
	Order    string
}

// Env is the state the builtins operate on. Nil fields make the commands
// that need them report UNAVAILABLE.
type Env struct {
	History *history.Store
	Options *Options
	Vars    *Vars
	Keymaps *Keymaps
	Widgets *WidgetTable
	Screens Screens

	// Pick lets the user choose a history line; "" means nothing was
	// chosen.
	Pick func(ctx context.Context, query string) (string, error)
	// Prefill places text in the buffer of the next prompt.
	Prefill func(text string)
	// Inject pushes keys onto the input stream.
	Inject func(keys []byte)

	Logger *slog.Logger
}

// Register adds the builtins to reg. Names clash only with commands that
// were registered earlier.
func Register(reg *registry.Registry, env *Env) error {
	if env.Logger == nil {
		env.Logger = slog.New(slog.DiscardHandler)
	}
	cmds := []registry.Command{
		{ID: "complete", Name: "complete", Summary: "UNAVAILABLE"},
		historyCommand(env),
		keymapCommand(env),
		lessCommand(env),
		nanoCommand(env),
		optionCommand(env, true),
		optionCommand(env, false),
		setvarCommand(env),
		topCommand(env),
		widgetCommand(env),
	}
	for _, c := range cmds {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register %s: %w", c.Name, err)
		}
	}
	if err := reg.Rename("ttop", "top"); err != nil {
		return fmt.Errorf("rename ttop: %w", err)
	}
	for alias, target := range map[string]string{"zle": "widget", "bindkey": "keymap"} {
		if err := reg.Alias(alias, target); err != nil {
			return fmt.Errorf("alias %s: %w", alias, err)
		}
	}
	return nil
}

// flags returns a flag set that reports errors as argument errors instead
// of printing them.
func flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(true)
	return fs
}

func parse(name string, fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return registry.Errorf("%s: %v", name, err)
	}
	return nil
}

func unavailable(name string) error {
	return fmt.Errorf("%s: %w", name, registry.ErrUnavailable)
}

// optionNames completes the long option spellings found in usage text.
func optionNames(usage string) complete.Completer {
	var names []string
	for _, l := range strings.Split(usage, "\n") {
		t := strings.TrimSpace(l)
		if !strings.HasPrefix(t, "-") {
			continue
		}
		head, _, _ := strings.Cut(t, "  ")
		for _, f := range strings.Fields(head) {
			if strings.HasPrefix(f, "-") {
				names = append(names, strings.SplitN(f, "=", 2)[0])
			}
		}
	}
	return complete.NewStrings(names...)
}
