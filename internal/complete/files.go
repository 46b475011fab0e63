package complete

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/runger/lineloop/internal/line"
)

// DefaultFileLimit bounds how many directory entries Files reads.
const DefaultFileLimit = 1000

// Files completes file names relative to the working directory. Errors
// reading the directory yield no candidates.
type Files struct {
	// Dir returns the directory relative paths resolve against. Nil
	// means the process working directory.
	Dir func() string
	// Limit caps the number of entries read; zero means DefaultFileLimit.
	Limit int
}

// Complete implements Completer.
func (f *Files) Complete(pl *line.ParsedLine) []Candidate {
	typed := pl.Prefix()
	dirPart, namePart := "", typed
	if i := strings.LastIndexByte(typed, '/'); i >= 0 {
		dirPart, namePart = typed[:i+1], typed[i+1:]
	}

	dir := f.resolve(dirPart)
	fh, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer fh.Close()

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultFileLimit
	}
	entries, err := fh.ReadDir(limit)
	if err != nil && len(entries) == 0 {
		return nil
	}

	hidden := strings.HasPrefix(namePart, ".")
	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && !hidden {
			continue
		}
		c := Candidate{Value: dirPart + name, Display: name, Complete: true}
		if isDir(dir, e) {
			c.Value += "/"
			c.Display += "/"
			c.Complete = false
		}
		out = append(out, c)
	}
	return out
}

func (f *Files) resolve(dirPart string) string {
	switch {
	case strings.HasPrefix(dirPart, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dirPart[2:])
		}
	case filepath.IsAbs(dirPart):
		return dirPart
	}
	base := "."
	if f.Dir != nil {
		base = f.Dir()
	}
	return filepath.Join(base, dirPart)
}

func isDir(dir string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink != 0 {
		st, err := os.Stat(filepath.Join(dir, e.Name()))
		return err == nil && st.IsDir()
	}
	return false
}
