package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle    = lipgloss.NewStyle().Reverse(true)
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type document struct {
	name string
	text string
}

// pager shows one document at a time; n and p switch between them.
type pager struct {
	docs    []document
	current int
	numbers bool
	view    viewport.Model
}

func newPager(docs []document, numbers bool, width, height int) pager {
	p := pager{docs: docs, numbers: numbers, view: viewport.New(width, max(height-1, 1))}
	p.load()
	return p
}

func (p *pager) load() {
	if len(p.docs) == 0 {
		p.view.SetContent("")
		return
	}
	text := strings.TrimSuffix(p.docs[p.current].text, "\n")
	if p.numbers {
		lines := strings.Split(text, "\n")
		for i, l := range lines {
			lines[i] = numberStyle.Render(fmt.Sprintf("%6d ", i+1)) + l
		}
		text = strings.Join(lines, "\n")
	}
	p.view.SetContent(text)
	p.view.GotoTop()
}

func (p pager) Init() tea.Cmd { return nil }

func (p pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.view.Width = msg.Width
		p.view.Height = max(msg.Height-1, 1)
		return p, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		case "n":
			if p.current < len(p.docs)-1 {
				p.current++
				p.load()
			}
			return p, nil
		case "p":
			if p.current > 0 {
				p.current--
				p.load()
			}
			return p, nil
		case "g", "home":
			p.view.GotoTop()
			return p, nil
		case "G", "end":
			p.view.GotoBottom()
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.view, cmd = p.view.Update(msg)
	return p, cmd
}

func (p pager) View() string {
	return p.view.View() + "\n" + p.statusLine()
}

func (p pager) statusLine() string {
	name := ""
	if len(p.docs) > 0 {
		name = p.docs[p.current].name
	}
	status := fmt.Sprintf(" %s  (file %d of %d)  %3.f%%  q:quit n/p:file", name, p.current+1, len(p.docs), p.view.ScrollPercent()*100)
	return barStyle.Render(status)
}
