package builtins

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/registry"
)

// Session variables with a meaning to the editor or the loop.
const (
	VarIndentation     = "indentation"
	VarSecondaryPrompt = "secondary-prompt-pattern"
	VarTailTipRows     = "tailtip-rows"
	VarListMax         = "list-max"
)

var intVars = map[string]bool{
	VarIndentation: true,
	VarTailTipRows: true,
	VarListMax:     true,
}

// Vars holds the session variables. Any name may be set; the known
// numeric ones must hold integers.
type Vars struct {
	mu   sync.RWMutex
	vals map[string]string

	// OnChange is called after a variable was set.
	OnChange func(name, value string)
}

// NewVars returns variables holding the given initial values.
func NewVars(initial map[string]string) *Vars {
	v := &Vars{vals: make(map[string]string, len(initial))}
	for k, val := range initial {
		v.vals[k] = val
	}
	return v
}

// Get returns the value of name.
func (v *Vars) Get(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.vals[name]
	return val, ok
}

// Int returns name as an integer, or def when it is unset or not a
// number.
func (v *Vars) Int(name string, def int) int {
	s, ok := v.Get(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Set assigns value to name.
func (v *Vars) Set(name, value string) error {
	if intVars[name] {
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			return registry.Errorf("setvar: %s needs a non-negative number, got %q", name, value)
		}
	}
	v.mu.Lock()
	v.vals[name] = value
	fn := v.OnChange
	v.mu.Unlock()
	if fn != nil {
		fn(name, value)
	}
	return nil
}

// Names returns the variable names, sorted.
func (v *Vars) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.vals))
	for k := range v.vals {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

const setvarUsage = `setvar -  set lineReader variable
Usage: setvar [variable [value]]
  -? --help       Displays command help`

func setvarCommand(env *Env) registry.Command {
	cmd := registry.Command{ID: "setvar", Name: "setvar", Summary: "set lineReader variable", Usage: setvarUsage}
	if env.Vars == nil {
		return cmd
	}
	cmd.Completer = complete.NewArgument(complete.StringsFrom(env.Vars.Names), complete.Null)
	cmd.Run = func(_ context.Context, inv *registry.Invocation) error {
		switch len(inv.Args) {
		case 0:
			for _, n := range env.Vars.Names() {
				val, _ := env.Vars.Get(n)
				inv.Printf("%s: %s\n", n, val)
			}
			return nil
		case 1:
			val, ok := env.Vars.Get(inv.Args[0])
			if !ok {
				return registry.Errorf("setvar: no such variable: %s", inv.Args[0])
			}
			inv.Println(val)
			return nil
		case 2:
			return env.Vars.Set(inv.Args[0], inv.Args[1])
		}
		return registry.Errorf("Usage: setvar [variable [value]]")
	}
	return cmd
}
