package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// editor is a small nano: ctrl+s writes the file, ctrl+x leaves. Leaving a
// modified buffer needs a second ctrl+x.
type editor struct {
	file    string
	area    textarea.Model
	saved   string
	status  string
	confirm bool
	write   func(name, text string) error
}

func newEditor(file, text string, write func(name, text string) error, width, height int) editor {
	area := textarea.New()
	area.CharLimit = 0
	area.MaxHeight = 0
	area.ShowLineNumbers = false
	area.SetWidth(width)
	area.SetHeight(max(height-2, 1))
	area.SetValue(text)
	area.Focus()
	return editor{file: file, area: area, saved: text, write: write}
}

func (e editor) modified() bool {
	return e.area.Value() != e.saved
}

func (e editor) Init() tea.Cmd { return textarea.Blink }

func (e editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.area.SetWidth(msg.Width)
		e.area.SetHeight(max(msg.Height-2, 1))
		return e, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s", "ctrl+o":
			e.save()
			return e, nil
		case "ctrl+x", "ctrl+q":
			if e.modified() && !e.confirm {
				e.confirm = true
				e.status = "Buffer modified: ctrl+s saves, ctrl+x again discards"
				return e, nil
			}
			return e, tea.Quit
		}
		e.confirm = false
	}
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	return e, cmd
}

func (e *editor) save() {
	if e.file == "" {
		e.status = "No file name"
		return
	}
	text := e.area.Value()
	if err := e.write(e.file, text); err != nil {
		e.status = "Error writing " + e.file + ": " + err.Error()
		return
	}
	e.saved = text
	e.confirm = false
	e.status = "Wrote " + e.file
}

func (e editor) View() string {
	title := e.file
	if title == "" {
		title = "New Buffer"
	}
	if e.modified() {
		title += "  Modified"
	}
	status := e.status
	if status == "" {
		status = "^S Save  ^X Exit"
	}
	return barStyle.Render(" nano  "+title) + "\n" + e.area.View() + "\n" + status
}
