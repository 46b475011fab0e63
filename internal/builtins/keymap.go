package builtins

import (
	"context"
	"sort"
	"sync"

	"github.com/runger/lineloop/internal/complete"
	"github.com/runger/lineloop/internal/registry"
	"github.com/runger/lineloop/internal/term"
)

// Keymap names.
const (
	KeymapEmacs = "emacs"
	KeymapViIns = "viins"
	KeymapViCmd = "vicmd"
	KeymapMain  = "main"
)

// Binding maps a key sequence to a widget.
type Binding struct {
	Keys   string
	Widget string
}

var emacsBindings = []Binding{
	{"\x01", "beginning-of-line"},
	{"\x02", "backward-char"},
	{"\x04", "delete-char-or-list"},
	{"\x05", "end-of-line"},
	{"\x06", "forward-char"},
	{"\x07", "send-break"},
	{"\x08", "backward-delete-char"},
	{"\t", "complete-word"},
	{"\x0b", "kill-line"},
	{"\x0c", "clear-screen"},
	{"\r", "accept-line"},
	{"\x0e", "down-line-or-history"},
	{"\x10", "up-line-or-history"},
	{"\x12", "history-incremental-search-backward"},
	{"\x13", "history-incremental-search-forward"},
	{"\x14", "transpose-chars"},
	{"\x15", "backward-kill-line"},
	{"\x17", "backward-kill-word"},
	{"\x19", "yank"},
	{"\x1bb", "backward-word"},
	{"\x1bd", "kill-word"},
	{"\x1bf", "forward-word"},
	{"\x1b\x7f", "backward-kill-word"},
	{"\x7f", "backward-delete-char"},
}

var viCmdBindings = []Binding{
	{"$", "end-of-line"},
	{"0", "beginning-of-line"},
	{"A", "vi-add-eol"},
	{"B", "vi-backward-blank-word"},
	{"D", "vi-kill-eol"},
	{"I", "vi-insert-bol"},
	{"W", "vi-forward-blank-word"},
	{"a", "vi-add-next"},
	{"b", "vi-backward-word"},
	{"h", "vi-backward-char"},
	{"i", "vi-insert"},
	{"j", "down-line-or-history"},
	{"k", "up-line-or-history"},
	{"l", "vi-forward-char"},
	{"w", "vi-forward-word"},
	{"x", "vi-delete-char"},
}

var viInsBindings = append([]Binding{{"\x1b", "vi-cmd-mode"}}, emacsBindings[:12]...)

var keymapTables = map[string][]Binding{
	KeymapEmacs: emacsBindings,
	KeymapViIns: viInsBindings,
	KeymapViCmd: viCmdBindings,
}

// Keymaps tracks which keymap is bound to main.
type Keymaps struct {
	mu   sync.Mutex
	main string

	// OnSelect is called when main is rebound.
	OnSelect func(name string)
}

// NewKeymaps starts with emacs bound to main.
func NewKeymaps() *Keymaps {
	return &Keymaps{main: KeymapEmacs}
}

// Main returns the keymap bound to main.
func (k *Keymaps) Main() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.main
}

// Select binds name to main.
func (k *Keymaps) Select(name string) error {
	if _, ok := keymapTables[name]; !ok {
		return registry.Errorf("keymap: no such keymap `%s'", name)
	}
	k.mu.Lock()
	k.main = name
	fn := k.OnSelect
	k.mu.Unlock()
	if fn != nil {
		fn(name)
	}
	return nil
}

// Bindings returns the bindings of a keymap; "main" means the selected one.
func (k *Keymaps) Bindings(name string) ([]Binding, error) {
	if name == KeymapMain {
		name = k.Main()
	}
	b, ok := keymapTables[name]
	if !ok {
		return nil, registry.Errorf("keymap: no such keymap `%s'", name)
	}
	return b, nil
}

// Names lists the keymaps, main included.
func (k *Keymaps) Names() []string {
	names := []string{KeymapMain}
	for n := range keymapTables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// widgetNames returns every widget some keymap binds.
func widgetNames() []string {
	seen := map[string]bool{}
	for _, table := range keymapTables {
		for _, b := range table {
			seen[b.Widget] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const keymapUsage = `keymap -  manipulate keymaps
Usage: keymap [options] -l [keymap ...]
       keymap [options] [in-string]
  -? --help       Displays command help
  -e              Select emacs keymap and bind it to main
  -l              List existing keymap names
  -M              Specify keymap to select (default=main)
  -v              Select viins keymap and bind it to main`

func keymapCommand(env *Env) registry.Command {
	cmd := registry.Command{ID: "keymap", Name: "keymap", Summary: "manipulate keymaps", Usage: keymapUsage}
	if env.Keymaps == nil {
		return cmd
	}
	cmd.Completer = complete.NewAggregate(optionNames(keymapUsage), complete.StringsFrom(env.Keymaps.Names))
	cmd.Run = func(_ context.Context, inv *registry.Invocation) error {
		fs := flags(inv.Name)
		emacs := fs.BoolP("emacs", "e", false, "")
		vi := fs.BoolP("vi", "v", false, "")
		list := fs.BoolP("list", "l", false, "")
		keymap := fs.StringP("keymap", "M", KeymapMain, "")
		if err := parse(inv.Name, fs, inv.Args); err != nil {
			return err
		}
		switch {
		case *emacs && *vi:
			return registry.Errorf("keymap: incompatible operation selection options")
		case *emacs:
			return env.Keymaps.Select(KeymapEmacs)
		case *vi:
			return env.Keymaps.Select(KeymapViIns)
		case *list:
			names := fs.Args()
			if len(names) == 0 {
				names = env.Keymaps.Names()
			}
			for _, n := range names {
				inv.Println(n)
			}
			return nil
		}

		bindings, err := env.Keymaps.Bindings(*keymap)
		if err != nil {
			return err
		}
		filter := ""
		if rest := fs.Args(); len(rest) > 0 {
			filter = rest[0]
		}
		for _, b := range bindings {
			if filter != "" && b.Keys != filter && term.DisplayKeys(b.Keys) != `"`+filter+`"` {
				continue
			}
			inv.Printf("%s %s\n", term.DisplayKeys(b.Keys), b.Widget)
		}
		return nil
	}
	return cmd
}
