package cmd

import (
	"os"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The color tests change package state and must not run in parallel.

func withColorMode(t *testing.T, mode string) {
	t.Helper()
	origMode := colorMode
	origProfile := lipgloss.ColorProfile()
	t.Cleanup(func() {
		colorMode = origMode
		lipgloss.SetColorProfile(origProfile)
	})
	colorMode = mode
}

func pipeFile(t *testing.T) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return w
}

func TestApplyColorMode_Always(t *testing.T) {
	withColorMode(t, "always")
	t.Setenv("TERM", "dumb")

	on, err := applyColorMode(pipeFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if !on {
		t.Error("applyColorMode(\"always\") should enable colors even when auto would disable")
	}
}

func TestApplyColorMode_Never(t *testing.T) {
	withColorMode(t, "never")

	on, err := applyColorMode(pipeFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if on || lipgloss.ColorProfile() != termenv.Ascii {
		t.Error("applyColorMode(\"never\") should disable colors")
	}
}

func TestApplyColorMode_Auto(t *testing.T) {
	withColorMode(t, "auto")

	// A pipe is not a terminal, so auto disables colors.
	on, err := applyColorMode(pipeFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if on {
		t.Error("applyColorMode(\"auto\") should disable colors when the output is not a TTY")
	}
}

func TestApplyColorMode_Invalid(t *testing.T) {
	withColorMode(t, "sometimes")

	if _, err := applyColorMode(pipeFile(t)); err == nil {
		t.Error("applyColorMode should reject unknown modes")
	}
}

func TestShouldDisableColors_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if !shouldDisableColors() {
		t.Error("shouldDisableColors should return true when NO_COLOR is set")
	}
}

func TestShouldDisableColors_TermDumb(t *testing.T) {
	t.Setenv("TERM", "dumb")
	// Unset NO_COLOR to isolate this test
	t.Setenv("NO_COLOR", "")
	if !shouldDisableColors() {
		t.Error("shouldDisableColors should return true when TERM=dumb")
	}
}
