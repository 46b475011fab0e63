package term

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/xo/terminfo"
)

// Capability is one terminal capability, known by its terminfo long name
// and its short capname.
type Capability struct {
	Name    string
	CapName string
	params  int
	format  string
	offset  int // added to each parameter before formatting

	// raw is the terminfo string; it takes precedence over format.
	raw []byte
}

// Sequence renders the capability. Missing parameters default to zero.
func (c Capability) Sequence(args ...int) string {
	if c.raw != nil {
		vals := make([]any, 9)
		for i := range vals {
			vals[i] = 0
			if i < len(args) {
				vals[i] = args[i]
			}
		}
		return terminfo.Printf(c.raw, vals...)
	}
	if c.params == 0 {
		return c.format
	}
	vals := make([]any, c.params)
	for i := range vals {
		v := 0
		if i < len(args) {
			v = args[i]
		}
		vals[i] = v + c.offset
	}
	return fmt.Sprintf(c.format, vals...)
}

// Parameterised sequences are zero based like terminfo; the offset turns
// them into the one based values xterm expects.
var capabilities = []Capability{
	{Name: "bell", CapName: "bel", format: "\a"},
	{Name: "carriage_return", CapName: "cr", format: "\r"},
	{Name: "change_scroll_region", CapName: "csr", params: 2, format: "\x1b[%d;%dr", offset: 1},
	{Name: "clear_screen", CapName: "clear", format: "\x1b[H\x1b[2J"},
	{Name: "clr_eol", CapName: "el", format: "\x1b[K"},
	{Name: "clr_eos", CapName: "ed", format: "\x1b[J"},
	{Name: "column_address", CapName: "hpa", params: 1, format: "\x1b[%dG", offset: 1},
	{Name: "cursor_address", CapName: "cup", params: 2, format: "\x1b[%d;%dH", offset: 1},
	{Name: "cursor_down", CapName: "cud1", format: "\n"},
	{Name: "cursor_home", CapName: "home", format: "\x1b[H"},
	{Name: "cursor_invisible", CapName: "civis", format: "\x1b[?25l"},
	{Name: "cursor_left", CapName: "cub1", format: "\b"},
	{Name: "cursor_normal", CapName: "cnorm", format: "\x1b[?12l\x1b[?25h"},
	{Name: "cursor_right", CapName: "cuf1", format: "\x1b[C"},
	{Name: "cursor_up", CapName: "cuu1", format: "\x1b[A"},
	{Name: "cursor_visible", CapName: "cvvis", format: "\x1b[?12;25h"},
	{Name: "enter_bold_mode", CapName: "bold", format: "\x1b[1m"},
	{Name: "enter_ca_mode", CapName: "smcup", format: "\x1b[?1049h"},
	{Name: "enter_dim_mode", CapName: "dim", format: "\x1b[2m"},
	{Name: "enter_reverse_mode", CapName: "rev", format: "\x1b[7m"},
	{Name: "enter_underline_mode", CapName: "smul", format: "\x1b[4m"},
	{Name: "exit_attribute_mode", CapName: "sgr0", format: "\x1b(B\x1b[m"},
	{Name: "exit_ca_mode", CapName: "rmcup", format: "\x1b[?1049l"},
	{Name: "exit_underline_mode", CapName: "rmul", format: "\x1b[24m"},
	{Name: "flash_screen", CapName: "flash", format: "\x1b[?5h\x1b[?5l"},
	{Name: "keypad_local", CapName: "rmkx", format: "\x1b[?1l\x1b>"},
	{Name: "keypad_xmit", CapName: "smkx", format: "\x1b[?1h\x1b="},
	{Name: "parm_left_cursor", CapName: "cub", params: 1, format: "\x1b[%dD"},
	{Name: "parm_right_cursor", CapName: "cuf", params: 1, format: "\x1b[%dC"},
	{Name: "parm_up_cursor", CapName: "cuu", params: 1, format: "\x1b[%dA"},
	{Name: "restore_cursor", CapName: "rc", format: "\x1b8"},
	{Name: "save_cursor", CapName: "sc", format: "\x1b7"},
}

// database is the terminfo entry of $TERM, nil when there is none.
var database = sync.OnceValue(func() *terminfo.Terminfo {
	if os.Getenv("TERM") == "" {
		return nil
	}
	ti, err := terminfo.LoadFromEnv()
	if err != nil {
		return nil
	}
	return ti
})

// Lookup finds a capability of the current terminal by long name or
// capname. Without a terminfo entry for $TERM the built in xterm table
// answers.
func Lookup(name string) (Capability, bool) {
	return lookupIn(database(), name)
}

// lookupIn resolves name against ti, or the xterm table when ti is nil.
func lookupIn(ti *terminfo.Terminfo, name string) (Capability, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if ti == nil {
		return xterm(name)
	}
	for i := 0; i < terminfo.CapCountString; i++ {
		long, short := terminfo.StringCapName(i), terminfo.StringCapNameShort(i)
		if name != long && name != short {
			continue
		}
		raw, ok := ti.Strings[i]
		if !ok || len(raw) == 0 {
			return Capability{}, false
		}
		return Capability{Name: long, CapName: short, raw: raw}, true
	}
	return Capability{}, false
}

// xterm finds a capability in the built in table.
func xterm(name string) (Capability, bool) {
	for _, c := range capabilities {
		if c.Name == name || c.CapName == name {
			return c, true
		}
	}
	return Capability{}, false
}

// Capabilities lists the long names of every known capability, sorted.
func Capabilities() []string {
	names := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// mustLookup reads the xterm table. The session draws its status region
// and overlays with these sequences on every terminal.
func mustLookup(name string) Capability {
	c, ok := xterm(name)
	if !ok {
		panic("term: unknown capability " + name)
	}
	return c
}

// Frequently used sequences.
var (
	ClearScreen   = mustLookup("clear_screen").Sequence()
	ClearLine     = "\x1b[2K"
	SaveCursor    = mustLookup("save_cursor").Sequence()
	RestoreCursor = mustLookup("restore_cursor").Sequence()
	ResetScroll   = "\x1b[r"
)

// CursorAddress moves the cursor to a zero based row and column.
func CursorAddress(row, col int) string {
	return mustLookup("cursor_address").Sequence(row, col)
}

// ScrollRegion limits scrolling to the zero based rows top..bottom.
func ScrollRegion(top, bottom int) string {
	return mustLookup("change_scroll_region").Sequence(top, bottom)
}

// CursorLeft moves the cursor n columns left. It returns "" for n <= 0.
func CursorLeft(n int) string {
	if n <= 0 {
		return ""
	}
	return mustLookup("parm_left_cursor").Sequence(n)
}

// CursorUp moves the cursor n rows up. It returns "" for n <= 0.
func CursorUp(n int) string {
	if n <= 0 {
		return ""
	}
	return mustLookup("parm_up_cursor").Sequence(n)
}
