package builtins

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/line"
	"github.com/runger/lineloop/internal/registry"
)

// Reader options the editor consults.
const (
	OptCaseInsensitive    = "case-insensitive"
	OptInsertTab          = "insert-tab"
	OptMouse              = "mouse"
	OptHistoryIgnoreDups  = "history-ignore-dups"
	OptHistoryIgnoreSpace = "history-ignore-space"
	OptAutoList           = "auto-list"
)

// defaultOptions are the known options and whether they start out set.
var defaultOptions = map[string]bool{
	"auto-fresh-line":         false,
	"auto-group":              true,
	OptAutoList:               true,
	"auto-menu":               true,
	"auto-param-slash":        true,
	"auto-remove-slash":       true,
	"bracketed-paste":         true,
	OptCaseInsensitive:        false,
	"case-insensitive-search": false,
	"complete-in-word":        false,
	"disable-event-expansion": false,
	"empty-word-options":      true,
	"erase-line-on-finish":    false,
	"group":                   true,
	"history-beep":            true,
	OptHistoryIgnoreDups:      true,
	OptHistoryIgnoreSpace:     true,
	"history-incremental":     true,
	"history-reduce-blanks":   true,
	"history-verify":          false,
	OptInsertTab:              false,
	"list-ambiguous":          false,
	"list-packed":             false,
	"list-rows-first":         false,
	"menu-complete":           false,
	OptMouse:                  false,
}

// Options holds the reader options. It is safe for concurrent use; the
// editor reads it while commands change it.
type Options struct {
	mu  sync.RWMutex
	set map[string]bool

	// OnChange is called after an option changed value.
	OnChange func(name string, on bool)
}

// NewOptions returns the options with their default values.
func NewOptions() *Options {
	o := &Options{set: make(map[string]bool, len(defaultOptions))}
	for k, v := range defaultOptions {
		o.set[k] = v
	}
	return o
}

// normalizeOption maps "NO_AUTO_LIST", "noautolist" style spellings to
// the canonical name and whether the name was negated.
func normalizeOption(name string) (string, bool, bool) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if _, ok := defaultOptions[n]; ok {
		return n, false, true
	}
	if rest, ok := strings.CutPrefix(n, "no-"); ok {
		if _, known := defaultOptions[rest]; known {
			return rest, true, true
		}
	}
	if rest, ok := strings.CutPrefix(n, "no"); ok {
		if _, known := defaultOptions[rest]; known {
			return rest, true, true
		}
	}
	return "", false, false
}

// Set changes an option. A "no-" prefix inverts on.
func (o *Options) Set(name string, on bool) error {
	canonical, negated, ok := normalizeOption(name)
	if !ok {
		return registry.Errorf("no such option: %s", name)
	}
	if negated {
		on = !on
	}
	o.mu.Lock()
	changed := o.set[canonical] != on
	o.set[canonical] = on
	fn := o.OnChange
	o.mu.Unlock()
	if changed && fn != nil {
		fn(canonical, on)
	}
	return nil
}

// IsSet reports whether the named option is set.
func (o *Options) IsSet(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.set[name]
}

// Names returns the options whose value is on, sorted.
func (o *Options) Names(on bool) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var names []string
	for k, v := range o.set {
		if v == on {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Completer completes the options whose value is on, read at call time:
// setopt offers the unset options and unsetopt the set ones.
func (o *Options) Completer(on bool) complete.Completer {
	return complete.Func(func(*line.ParsedLine) []complete.Candidate {
		names := o.Names(on)
		out := make([]complete.Candidate, 0, len(names))
		for _, n := range names {
			out = append(out, complete.NewCandidate(n))
		}
		return out
	})
}

const setoptUsage = `setopt -  set options
Usage: setopt [-m] option ...
       setopt
  -? --help       Displays command help
  -m              Use pattern matching`

const unsetoptUsage = `unsetopt -  unset options
Usage: unsetopt [-m] option ...
       unsetopt
  -? --help       Displays command help
  -m              Use pattern matching`

// optionCommand builds setopt (set is true) or unsetopt.
func optionCommand(env *Env, set bool) registry.Command {
	name, summary, usage := "setopt", "set options", setoptUsage
	if !set {
		name, summary, usage = "unsetopt", "unset options", unsetoptUsage
	}
	cmd := registry.Command{ID: name, Name: name, Summary: summary, Usage: usage}
	if env.Options == nil {
		return cmd
	}
	cmd.Completer = env.Options.Completer(!set)
	cmd.Run = func(_ context.Context, inv *registry.Invocation) error {
		fs := flags(inv.Name)
		match := fs.BoolP("match", "m", false, "")
		if err := parse(inv.Name, fs, inv.Args); err != nil {
			return err
		}
		args := fs.Args()
		if len(args) == 0 {
			for _, n := range env.Options.Names(set) {
				inv.Println(n)
			}
			return nil
		}
		for _, a := range args {
			if !*match {
				if err := env.Options.Set(a, set); err != nil {
					return err
				}
				continue
			}
			matched := false
			for n := range defaultOptions {
				if ok, _ := pathMatch(a, n); ok {
					matched = true
					if err := env.Options.Set(n, set); err != nil {
						return err
					}
				}
			}
			if !matched {
				return registry.Errorf("%s: no option matches %s", inv.Name, a)
			}
		}
		return nil
	}
	return cmd
}

func pathMatch(pattern, name string) (bool, error) {
	return path.Match(strings.ReplaceAll(strings.ToLower(pattern), "_", "-"), name)
}
