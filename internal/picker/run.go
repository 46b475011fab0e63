package picker

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows m on out, reading keys from in, and returns the chosen item.
// A cancelled picker returns "".
func Run(ctx context.Context, m Model, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return "", errors.New("picker: unexpected model type")
	}
	if fm.IsCancelled() {
		return "", nil
	}
	return fm.Result(), nil
}
