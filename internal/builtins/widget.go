package builtins

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/registry"
)

// WidgetTable holds the user-defined widgets. Each maps a name to the
// builtin widget it runs.
type WidgetTable struct {
	mu      sync.RWMutex
	builtin map[string]bool
	user    map[string]string
}

// NewWidgetTable returns a table that knows the widgets of every keymap.
func NewWidgetTable() *WidgetTable {
	t := &WidgetTable{builtin: map[string]bool{}, user: map[string]string{}}
	for _, n := range widgetNames() {
		t.builtin[n] = true
	}
	for _, n := range []string{"autopair-insert", "autopair-delete", "autosuggest-accept", "tailtip-toggle"} {
		t.builtin[n] = true
	}
	return t
}

// Resolve follows user-defined widgets to the builtin they run.
func (t *WidgetTable) Resolve(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for range len(t.user) + 1 {
		if t.builtin[name] {
			return name, true
		}
		next, ok := t.user[name]
		if !ok {
			return "", false
		}
		name = next
	}
	return "", false
}

// Define makes name run target, which must resolve to a builtin widget.
func (t *WidgetTable) Define(name, target string) error {
	if _, ok := t.Resolve(target); !ok {
		return registry.Errorf("widget: no such widget `%s'", target)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.builtin[name] {
		return registry.Errorf("widget: cannot redefine builtin widget `%s'", name)
	}
	t.user[name] = target
	return nil
}

// Delete removes user-defined widgets.
func (t *WidgetTable) Delete(names ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range names {
		if _, ok := t.user[n]; !ok {
			return registry.Errorf("widget: no such user widget `%s'", n)
		}
		delete(t.user, n)
	}
	return nil
}

// User returns the user-defined widgets sorted by name, as "name (target)".
func (t *WidgetTable) User() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.user))
	for n, target := range t.user {
		out = append(out, n+" ("+target+")")
	}
	sort.Strings(out)
	return out
}

// Names returns every widget name, builtin and user-defined.
func (t *WidgetTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.builtin)+len(t.user))
	for n := range t.builtin {
		names = append(names, n)
	}
	for n := range t.user {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const widgetUsage = `widget -  manipulate widgets
Usage: widget -N new-widget function-name
       widget -D widget ...
       widget -A old-widget new-widget
       widget -U string ...
       widget -l [options]
  -? --help       Displays command help
  -A              Create alias to widget
  -N              Create new widget
  -D              Delete widgets
  -U              Push characters to the stack
  -l              List user-defined widgets
  -a              With -l, list also aliases`

func widgetCommand(env *Env) registry.Command {
	cmd := registry.Command{ID: "widget", Name: "widget", Summary: "manipulate widgets", Usage: widgetUsage}
	if env.Widgets == nil {
		return cmd
	}
	cmd.Completer = complete.NewAggregate(optionNames(widgetUsage), complete.StringsFrom(env.Widgets.Names))
	cmd.Run = func(_ context.Context, inv *registry.Invocation) error {
		fs := flags(inv.Name)
		newWidget := fs.BoolP("new", "N", false, "")
		del := fs.BoolP("delete", "D", false, "")
		alias := fs.BoolP("alias", "A", false, "")
		push := fs.BoolP("push", "U", false, "")
		list := fs.BoolP("list", "l", false, "")
		all := fs.BoolP("all", "a", false, "")
		if err := parse(inv.Name, fs, inv.Args); err != nil {
			return err
		}
		args := fs.Args()

		selected := 0
		for _, b := range []bool{*newWidget, *del, *alias, *push, *list} {
			if b {
				selected++
			}
		}
		if selected > 1 {
			return registry.Errorf("widget: incompatible operation selection options")
		}

		switch {
		case *newWidget:
			if len(args) != 2 {
				return registry.Errorf("widget: -N takes a new widget and the widget it runs")
			}
			return env.Widgets.Define(args[0], args[1])
		case *del:
			if len(args) == 0 {
				return registry.Errorf("widget: -D needs at least one widget")
			}
			return env.Widgets.Delete(args...)
		case *alias:
			if len(args) != 2 {
				return registry.Errorf("widget: -A takes two arguments")
			}
			return env.Widgets.Define(args[1], args[0])
		case *push:
			if env.Inject == nil {
				return unavailable("widget -U")
			}
			env.Inject([]byte(strings.Join(args, "")))
			return nil
		case *list:
			entries := env.Widgets.User()
			if *all {
				entries = env.Widgets.Names()
			}
			for _, e := range entries {
				inv.Println(e)
			}
			return nil
		}
		return registry.Errorf("Usage: widget -N|-D|-A|-U|-l")
	}
	return cmd
}
