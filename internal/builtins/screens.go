package builtins

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/registry"
)

const lessUsage = `less -  file pager
Usage: less [OPTIONS] [FILES]
  -? --help              Show help
  -N --LINE-NUMBERS      Display line number at the beginning of each line`

const nanoUsage = `nano -  nano editor
Usage: nano [FILES]
  -? --help       Displays command help`

const topUsage = `top -  display and update sorted information about threads
Usage: top [OPTIONS]
  -? --help              Show help
  -o --order=ORDER       Comma separated list of sorting keys
  -n --nthreads=NTHREADS Number of threads to display
  -d --delay=DELAY       The delay between updates in seconds`

func lessCommand(env *Env) registry.Command {
	return registry.Command{
		ID: "less", Name: "less", Summary: "file pager", Usage: lessUsage,
		Completer: complete.NewAggregate(optionNames(lessUsage), &complete.Files{}),
		Run: func(ctx context.Context, inv *registry.Invocation) error {
			if env.Screens == nil {
				return unavailable(inv.Name)
			}
			fs := flags(inv.Name)
			numbers := fs.BoolP("LINE-NUMBERS", "N", false, "")
			if err := parse(inv.Name, fs, inv.Args); err != nil {
				return err
			}
			files := fs.Args()
			if len(files) == 0 {
				return registry.Errorf("Usage: less [OPTIONS] [FILES]")
			}
			for _, f := range files {
				if _, err := os.Stat(f); err != nil {
					return err
				}
			}
			return env.Screens.Page(ctx, files, *numbers)
		},
	}
}

func nanoCommand(env *Env) registry.Command {
	return registry.Command{
		ID: "nano", Name: "nano", Summary: "nano editor", Usage: nanoUsage,
		Completer: complete.NewArgument(&complete.Files{}, complete.Null),
		Run: func(ctx context.Context, inv *registry.Invocation) error {
			if env.Screens == nil {
				return unavailable(inv.Name)
			}
			if len(inv.Args) > 1 {
				return registry.Errorf("nano: one file at a time")
			}
			file := ""
			if len(inv.Args) == 1 {
				file = inv.Args[0]
			}
			return env.Screens.Edit(ctx, file)
		},
	}
}

// topCommand is registered under the id of the thread viewer it
// replaces and the name top.
func topCommand(env *Env) registry.Command {
	return registry.Command{
		ID: "ttop", Name: "ttop", Summary: "display and update sorted information about threads", Usage: topUsage,
		Completer: optionNames(topUsage),
		Run: func(ctx context.Context, inv *registry.Invocation) error {
			if env.Screens == nil {
				return unavailable(inv.Name)
			}
			fs := flags(inv.Name)
			order := fs.StringP("order", "o", "", "")
			rows := fs.IntP("nthreads", "n", 0, "")
			delay := fs.IntP("delay", "d", 1, "")
			if err := parse(inv.Name, fs, inv.Args); err != nil {
				return err
			}
			if *delay <= 0 || *rows < 0 {
				return registry.Errorf("top: delay and nthreads must be positive")
			}
			return env.Screens.Top(ctx, TopOptions{Interval: *delay, Rows: *rows, Order: *order})
		},
	}
}

// Tmux runs tmux with the invocation's arguments when the session is
// inside tmux and reports UNAVAILABLE otherwise.
func Tmux(ctx context.Context, inv *registry.Invocation) error {
	if os.Getenv("TMUX") == "" {
		return unavailable(inv.Name)
	}
	c := exec.CommandContext(ctx, "tmux", inv.Args...) //nolint:gosec // G204: arguments come from the interactive user
	c.Stdin, c.Stdout, c.Stderr = inv.Stdin, inv.Stdout, inv.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("tmux: %w", err)
	}
	return nil
}
