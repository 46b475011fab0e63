// Package expect drives lineloop sessions through a pseudo terminal using
// go-expect.
package expect

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"
)

// Key constants for special keys (ANSI escape sequences)
const (
	KeyRight  = "\x1b[C"
	KeyLeft   = "\x1b[D"
	KeyUp     = "\x1b[A"
	KeyDown   = "\x1b[B"
	KeyEscape = "\x1b"
	KeyEnter  = "\r"
	KeyTab    = "\t"
	KeyCtrlC  = "\x03"
	KeyCtrlD  = "\x04"
)

// Terminal size every session starts with.
const (
	Rows = 24
	Cols = 80
)

// Session wraps a go-expect console attached to a running lineloop.
type Session struct {
	Console *expect.Console
	Timeout time.Duration
	cmd     *exec.Cmd
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	timeout    time.Duration
	env        []string
	showOutput bool
}

// WithTimeout sets the default timeout for expect operations.
func WithTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.timeout = d
	}
}

// WithEnv adds environment variables to the session.
func WithEnv(env ...string) SessionOption {
	return func(c *sessionConfig) {
		c.env = append(c.env, env...)
	}
}

// WithOutput copies the session output to stdout for debugging.
func WithOutput(show bool) SessionOption {
	return func(c *sessionConfig) {
		c.showOutput = show
	}
}

// Binary returns the lineloop binary under test: $LINELOOP_BIN or the one
// on PATH.
func Binary() (string, error) {
	if p := os.Getenv("LINELOOP_BIN"); p != "" {
		return p, nil
	}
	return exec.LookPath("lineloop")
}

// NewSession starts lineloop with the given case words on a fresh pty of
// Rows x Cols. The config and log file are isolated in dir.
func NewSession(dir string, args []string, opts ...SessionOption) (*Session, error) {
	cfg := &sessionConfig{
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	bin, err := Binary()
	if err != nil {
		return nil, fmt.Errorf("lineloop not found: %w", err)
	}

	var consoleOpts []expect.ConsoleOpt
	consoleOpts = append(consoleOpts, expect.WithDefaultTimeout(cfg.timeout))
	if cfg.showOutput {
		consoleOpts = append(consoleOpts, expect.WithStdout(os.Stdout))
	}
	console, err := expect.NewConsole(consoleOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console: %w", err)
	}
	if err := pty.Setsize(console.Tty(), &pty.Winsize{Rows: Rows, Cols: Cols}); err != nil {
		console.Close()
		return nil, fmt.Errorf("failed to size pty: %w", err)
	}

	cmd := exec.Command(bin, append([]string{"--color", "never"}, args...)...) //nolint:gosec // G204: test binary
	cmd.Stdin = console.Tty()
	cmd.Stdout = console.Tty()
	cmd.Stderr = console.Tty()
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LINELOOP_CONFIG="+dir+"/config.yaml",
		"LINELOOP_LOG_FILE="+dir+"/lineloop.log",
	)
	cmd.Env = append(cmd.Env, cfg.env...)

	if err := cmd.Start(); err != nil {
		console.Close()
		return nil, fmt.Errorf("failed to start lineloop: %w", err)
	}
	return &Session{Console: console, Timeout: cfg.timeout, cmd: cmd}, nil
}

// Send sends text without a newline.
func (s *Session) Send(text string) error {
	_, err := s.Console.Send(text)
	return err
}

// SendLine sends text followed by Enter.
func (s *Session) SendLine(text string) error {
	_, err := s.Console.Send(text + KeyEnter)
	return err
}

// Expect waits for an exact string match in the output.
func (s *Session) Expect(str string) (string, error) {
	return s.Console.ExpectString(str)
}

// ExpectTimeout waits for an exact string match with a specific timeout.
func (s *Session) ExpectTimeout(str string, timeout time.Duration) (string, error) {
	return s.Console.Expect(expect.String(str), expect.WithTimeout(timeout))
}

// ExpectRegex waits for a regex pattern match in the output.
func (s *Session) ExpectRegex(pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex: %w", err)
	}
	return s.Console.Expect(expect.Regexp(re))
}

// Wait waits for lineloop to exit.
func (s *Session) Wait(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case err := <-done:
		s.cmd = nil
		return err
	case <-time.After(timeout):
		return fmt.Errorf("lineloop still running after %s", timeout)
	}
}

// Close kills lineloop if it is still running and closes the pty.
func (s *Session) Close() error {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return s.Console.Close()
}

// SkipIfLineloopMissing skips the test if no lineloop binary is available.
func SkipIfLineloopMissing(t testing.TB) {
	if _, err := Binary(); err != nil {
		t.Skip("lineloop not available, skipping")
	}
}

// SkipIfShort skips the test if running in short mode.
func SkipIfShort(t testing.TB, reason string) {
	if testing.Short() {
		t.Skip("skipping in short mode: " + reason)
	}
}
