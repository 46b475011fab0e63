package tui

import (
	"bufio"
	"bytes"
	"cmp"
	"fmt"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/lineloop/internal/builtins"
	"github.com/runger/lineloop/internal/registry"
)

// goroutine is one entry of a full stack dump.
type goroutine struct {
	ID     int
	State  string
	Wait   string
	Func   string
	Frames int
}

// sample is what the viewer shows on each refresh.
type sample struct {
	Goroutines []goroutine
	HeapAlloc  uint64
	NumGC      uint32
}

var headerRE = regexp.MustCompile(`^goroutine (\d+) \[([^\]]*)\]:$`)

// parseStacks reads the output of runtime.Stack(buf, true).
func parseStacks(dump []byte) []goroutine {
	var (
		out []goroutine
		cur *goroutine
	)
	sc := bufio.NewScanner(bytes.NewReader(dump))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		text := sc.Text()
		if m := headerRE.FindStringSubmatch(text); m != nil {
			id, _ := strconv.Atoi(m[1])
			state, wait, _ := strings.Cut(m[2], ", ")
			out = append(out, goroutine{ID: id, State: state, Wait: wait})
			cur = &out[len(out)-1]
			continue
		}
		if cur == nil || text == "" || strings.HasPrefix(text, "\t") || strings.HasPrefix(text, "created by ") {
			continue
		}
		if cur.Func == "" {
			cur.Func = funcName(text)
		}
		cur.Frames++
	}
	return out
}

// funcName drops the argument list of a stack frame line.
func funcName(frame string) string {
	if i := strings.LastIndex(frame, "("); i > 0 {
		return frame[:i]
	}
	return frame
}

func sampleRuntime() sample {
	buf := make([]byte, 1<<16)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, 2*len(buf))
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return sample{Goroutines: parseStacks(buf), HeapAlloc: ms.HeapAlloc, NumGC: ms.NumGC}
}

// sortKey orders goroutines by one column, descending when desc is set.
type sortKey struct {
	name string
	desc bool
}

var comparators = map[string]func(a, b goroutine) int{
	"id":     func(a, b goroutine) int { return cmp.Compare(a.ID, b.ID) },
	"state":  func(a, b goroutine) int { return strings.Compare(a.State, b.State) },
	"func":   func(a, b goroutine) int { return strings.Compare(a.Func, b.Func) },
	"frames": func(a, b goroutine) int { return cmp.Compare(a.Frames, b.Frames) },
}

// parseOrder reads a comma separated list of keys, each optionally
// prefixed with - for descending order.
func parseOrder(spec string) ([]sortKey, error) {
	if strings.TrimSpace(spec) == "" {
		return []sortKey{{name: "id"}}, nil
	}
	var keys []sortKey
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		k := sortKey{name: strings.TrimPrefix(part, "-"), desc: strings.HasPrefix(part, "-")}
		if _, ok := comparators[k.name]; !ok {
			return nil, registry.Errorf("top: unknown sort key `%s'", k.name)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func sortGoroutines(gs []goroutine, keys []sortKey) {
	slices.SortStableFunc(gs, func(a, b goroutine) int {
		for _, k := range keys {
			c := comparators[k.name](a, b)
			if k.desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

type tickMsg time.Time

// top refreshes a table of goroutines every interval.
type top struct {
	sample   func() sample
	order    []sortKey
	limit    int
	interval time.Duration
	table    table.Model
	last     sample
}

func newTop(fn func() sample, order []sortKey, opts builtins.TopOptions, width, height int) top {
	t := top{
		sample:   fn,
		order:    order,
		limit:    opts.Rows,
		interval: time.Duration(max(opts.Interval, 1)) * time.Second,
	}
	t.table = table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(max(height-2, 1)),
	)
	t.refresh()
	return t
}

func columns(width int) []table.Column {
	fixed := 8 + 16 + 8 + 4*2
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "STATE", Width: 16},
		{Title: "FRAMES", Width: 8},
		{Title: "FUNCTION", Width: max(width-fixed, 10)},
	}
}

func (t *top) refresh() {
	t.last = t.sample()
	gs := slices.Clone(t.last.Goroutines)
	sortGoroutines(gs, t.order)
	if t.limit > 0 && len(gs) > t.limit {
		gs = gs[:t.limit]
	}
	rows := make([]table.Row, 0, len(gs))
	for _, g := range gs {
		state := g.State
		if g.Wait != "" {
			state += " " + g.Wait
		}
		rows = append(rows, table.Row{strconv.Itoa(g.ID), state, strconv.Itoa(g.Frames), g.Func})
	}
	t.table.SetRows(rows)
}

func (t top) tick() tea.Cmd {
	return tea.Tick(t.interval, func(at time.Time) tea.Msg { return tickMsg(at) })
}

func (t top) Init() tea.Cmd { return t.tick() }

func (t top) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		t.refresh()
		return t, t.tick()
	case tea.WindowSizeMsg:
		t.table.SetColumns(columns(msg.Width))
		t.table.SetHeight(max(msg.Height-2, 1))
		return t, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return t, tea.Quit
		}
	}
	var cmd tea.Cmd
	t.table, cmd = t.table.Update(msg)
	return t, cmd
}

func (t top) View() string {
	header := fmt.Sprintf(" goroutines: %d  heap: %.1f MiB  gc: %d  refresh: %s  q:quit",
		len(t.last.Goroutines), float64(t.last.HeapAlloc)/(1<<20), t.last.NumGC, t.interval)
	return barStyle.Render(header) + "\n" + t.table.View()
}
