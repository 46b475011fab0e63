package history

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MaxImportEntries bounds how many entries one import reads.
const MaxImportEntries = 25000

// ImportEntry is one entry read from a shell history file.
type ImportEntry struct {
	Timestamp time.Time // Zero value if timestamp not available
	Command   string
}

// Format is a shell history file format.
type Format string

// Supported formats.
const (
	FormatAuto Format = ""
	FormatBash Format = "bash"
	FormatZsh  Format = "zsh"
	FormatFish Format = "fish"
)

// ParseFormat maps a shell name to its history format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatBash, FormatZsh, FormatFish:
		return f, nil
	case "auto":
		return FormatAuto, nil
	}
	return "", fmt.Errorf("unknown history format: %s", s)
}

// ReadFile reads a history file. FormatAuto picks the format from the file
// name and its first line. An empty path means the default file of the
// user's shell.
func ReadFile(path string, format Format) ([]ImportEntry, error) {
	if path == "" {
		if format == FormatAuto {
			format = DetectShell()
		}
		path = DefaultFile(format)
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from the user or a well-known default
	if err != nil {
		return nil, err
	}
	if format == FormatAuto {
		format = DetectFormat(path, data)
	}
	return Read(bytes.NewReader(data), format)
}

// DetectFormat guesses the format of a history file.
func DetectFormat(path string, data []byte) Format {
	if strings.Contains(filepath.Base(path), "fish") {
		return FormatFish
	}
	first, _, _ := bytes.Cut(data, []byte("\n"))
	switch {
	case bytes.HasPrefix(first, []byte("- cmd: ")):
		return FormatFish
	case bytes.HasPrefix(first, []byte(": ")) && bytes.Contains(first, []byte(";")):
		return FormatZsh
	case strings.Contains(filepath.Base(path), "zsh"):
		return FormatZsh
	}
	return FormatBash
}

// Read parses history in the given format, keeping the most recent
// MaxImportEntries entries.
func Read(r io.Reader, format Format) ([]ImportEntry, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var p lineParser
	switch format {
	case FormatZsh:
		p = &zshParser{}
	case FormatFish:
		p = &fishParser{}
	default:
		p = &bashParser{}
	}
	for scanner.Scan() {
		p.parseLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return trimToLimit(p.finish(), MaxImportEntries), nil
}

type lineParser interface {
	parseLine(line string)
	finish() []ImportEntry
}

// bashParser reads one command per line. With HISTTIMEFORMAT set, bash
// precedes commands with #<unix_ts> lines.
type bashParser struct {
	pending time.Time
	entries []ImportEntry
}

func (p *bashParser) parseLine(line string) {
	if line == "" {
		return
	}
	if strings.HasPrefix(line, "#") && len(line) > 1 {
		if ts, err := strconv.ParseInt(line[1:], 10, 64); err == nil {
			p.pending = time.Unix(ts, 0)
			return
		}
	}
	p.entries = append(p.entries, ImportEntry{Command: line, Timestamp: p.pending})
	p.pending = time.Time{}
}

func (p *bashParser) finish() []ImportEntry { return p.entries }

// zshParser reads the extended format `: <timestamp>:<duration>;<command>`
// as well as plain lines, joining backslash continued commands.
type zshParser struct {
	multiline strings.Builder
	pending   time.Time
	entries   []ImportEntry
}

func (p *zshParser) parseLine(line string) {
	if p.multiline.Len() > 0 {
		p.addCommand(line)
		return
	}
	if strings.HasPrefix(line, ": ") {
		if idx := strings.Index(line, ";"); idx != -1 {
			meta := line[2:idx]
			if colon := strings.Index(meta, ":"); colon != -1 {
				if ts, err := strconv.ParseInt(meta[:colon], 10, 64); err == nil {
					p.pending = time.Unix(ts, 0)
				}
			}
			line = line[idx+1:]
		}
	}
	p.addCommand(line)
}

func (p *zshParser) addCommand(cmd string) {
	if hasUnescapedTrailingBackslash(cmd) {
		p.multiline.WriteString(cmd[:len(cmd)-1])
		p.multiline.WriteString("\n")
		return
	}
	if p.multiline.Len() > 0 {
		p.multiline.WriteString(cmd)
		cmd = p.multiline.String()
		p.multiline.Reset()
	}
	if cmd != "" {
		p.entries = append(p.entries, ImportEntry{Command: cmd, Timestamp: p.pending})
	}
	p.pending = time.Time{}
}

func (p *zshParser) finish() []ImportEntry {
	if p.multiline.Len() > 0 {
		p.entries = append(p.entries, ImportEntry{
			Command:   strings.TrimSuffix(p.multiline.String(), "\n"),
			Timestamp: p.pending,
		})
		p.multiline.Reset()
	}
	return p.entries
}

// hasUnescapedTrailingBackslash reports whether s ends in an odd number of
// backslashes.
func hasUnescapedTrailingBackslash(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// fishParser reads fish's pseudo-YAML:
//
//   - cmd: <command>
//     when: <unix_timestamp>
type fishParser struct {
	when    time.Time
	cmd     string
	entries []ImportEntry
	inPaths bool
}

func (p *fishParser) parseLine(line string) {
	switch {
	case strings.HasPrefix(line, "- cmd: "):
		p.flush()
		p.cmd = strings.TrimPrefix(line, "- cmd: ")
		p.inPaths = false
	case strings.HasPrefix(line, "  when: "):
		if ts, err := strconv.ParseInt(strings.TrimPrefix(line, "  when: "), 10, 64); err == nil {
			p.when = time.Unix(ts, 0)
		}
		p.inPaths = false
	case strings.HasPrefix(line, "  paths:"):
		p.inPaths = true
	case p.inPaths && strings.HasPrefix(line, "    "):
	case !strings.HasPrefix(line, " "):
		p.inPaths = false
	}
}

func (p *fishParser) flush() {
	if p.cmd != "" {
		p.entries = append(p.entries, ImportEntry{Command: decodeFishEscapes(p.cmd), Timestamp: p.when})
	}
	p.cmd = ""
	p.when = time.Time{}
}

func (p *fishParser) finish() []ImportEntry {
	p.flush()
	return p.entries
}

// decodeFishEscapes decodes \\ and \n.
func decodeFishEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// DefaultFile returns the usual history file of a shell, or "".
func DefaultFile(format Format) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch format {
	case FormatBash:
		if f := os.Getenv("HISTFILE"); f != "" {
			return f
		}
		return filepath.Join(home, ".bash_history")
	case FormatZsh:
		if f := os.Getenv("HISTFILE"); f != "" {
			return f
		}
		return filepath.Join(home, ".zsh_history")
	case FormatFish:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "fish", "fish_history")
		}
		return filepath.Join(home, ".local", "share", "fish", "fish_history")
	}
	return ""
}

// DetectShell returns the history format of the shell in $SHELL.
func DetectShell() Format {
	switch filepath.Base(os.Getenv("SHELL")) {
	case "bash":
		return FormatBash
	case "zsh":
		return FormatZsh
	case "fish":
		return FormatFish
	}
	return FormatAuto
}

// trimToLimit returns the last n entries.
func trimToLimit(entries []ImportEntry, n int) []ImportEntry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
