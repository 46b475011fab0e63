package builtins

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/history"
	"github.com/runger/lineloop/internal/registry"
)

const historyUsage = `history -  list history of commands
Usage: history [-d] [-c] [N]
       history -s [QUERY]
       history -r [-f FORMAT] [FILE]
  -? --help       Displays command help
  -c --clear      Clear the session history
  -d --time       Print the time of each entry
  -s --search     Pick a line from the history and edit it
  -r --read       Import a shell history file
  -f --format     Format of the file read by -r: bash, zsh or fish`

func historyCommand(env *Env) registry.Command {
	return registry.Command{
		ID:      "history",
		Name:    "history",
		Summary: "list history of commands",
		Usage:   historyUsage,
		Completer: complete.NewAggregate(
			optionNames(historyUsage),
			&complete.Files{},
		),
		Run: func(ctx context.Context, inv *registry.Invocation) error {
			return runHistory(ctx, env, inv)
		},
	}
}

func runHistory(ctx context.Context, env *Env, inv *registry.Invocation) error {
	if env.History == nil {
		return unavailable(inv.Name)
	}
	fs := flags(inv.Name)
	clearAll := fs.BoolP("clear", "c", false, "")
	withTime := fs.BoolP("time", "d", false, "")
	search := fs.BoolP("search", "s", false, "")
	read := fs.BoolP("read", "r", false, "")
	format := fs.StringP("format", "f", "", "")
	if err := parse(inv.Name, fs, inv.Args); err != nil {
		return err
	}
	rest := fs.Args()

	switch {
	case *clearAll:
		env.History.Clear()
		return nil
	case *search:
		return searchHistory(ctx, env, inv, strings.Join(rest, " "))
	case *read:
		return importHistory(env, inv, rest, *format)
	}

	entries := env.History.Entries()
	first := 0
	if len(rest) > 0 {
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 0 {
			return registry.Errorf("history: bad count: %s", rest[0])
		}
		if n < len(entries) {
			first = len(entries) - n
		}
	}
	for i := first; i < len(entries); i++ {
		e := entries[i]
		if *withTime {
			inv.Printf("%5d  %s  %s\n", i+1, e.Time.Format("15:04:05"), e.Line)
		} else {
			inv.Printf("%5d  %s\n", i+1, e.Line)
		}
	}
	return nil
}

func searchHistory(ctx context.Context, env *Env, inv *registry.Invocation, query string) error {
	if env.Pick == nil || env.Prefill == nil {
		return unavailable(inv.Name + " -s")
	}
	chosen, err := env.Pick(ctx, query)
	if err != nil {
		return fmt.Errorf("history picker: %w", err)
	}
	if chosen != "" {
		env.Prefill(chosen)
	}
	return nil
}

func importHistory(env *Env, inv *registry.Invocation, rest []string, format string) error {
	if len(rest) > 1 {
		return registry.Errorf("history: -r takes at most one file")
	}
	f, err := history.ParseFormat(format)
	if err != nil {
		return registry.Errorf("history: %v", err)
	}
	path := ""
	if len(rest) == 1 {
		path = rest[0]
	}
	entries, err := history.ReadFile(path, f)
	if err != nil {
		return err
	}
	n := env.History.Import(entries)
	env.Logger.Debug("imported shell history", "path", path, "entries", n)
	inv.Printf("Imported %d entries\n", n)
	return nil
}
