package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/runger/lineloop/internal/term"
)

// colorMode is set by --color: auto, always, or never.
var colorMode = "auto"

// applyColorMode sets the color profile lipgloss renders with for out and
// reports whether colors are on.
func applyColorMode(out *os.File) (bool, error) {
	switch colorMode {
	case "always":
		p := termenv.NewOutput(out, termenv.WithTTY(true)).EnvColorProfile()
		if p == termenv.Ascii {
			p = termenv.ANSI
		}
		lipgloss.SetColorProfile(p)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	case "auto", "":
		if shouldDisableColors() || !term.IsTerminal(out.Fd()) {
			lipgloss.SetColorProfile(termenv.Ascii)
		} else {
			lipgloss.SetColorProfile(termenv.NewOutput(out).ColorProfile())
		}
	default:
		return false, fmt.Errorf("invalid --color value %q: use auto, always, or never", colorMode)
	}
	return lipgloss.ColorProfile() != termenv.Ascii, nil
}

func shouldDisableColors() bool {
	// Check NO_COLOR environment variable (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return true
	}

	if os.Getenv("TERM") == "dumb" {
		return true
	}

	// On Windows, check if ANSI is supported
	if runtime.GOOS == "windows" {
		if os.Getenv("WT_SESSION") != "" {
			return false // Windows Terminal supports ANSI
		}
		if os.Getenv("TERM_PROGRAM") != "" {
			return false // Modern terminal emulator
		}
		// Disable by default on older Windows consoles
		return os.Getenv("ANSICON") == "" && os.Getenv("ConEmuANSI") != "ON"
	}

	return false
}
