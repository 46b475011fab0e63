package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commands(entries []ImportEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Command
	}
	return out
}

func TestReadBash(t *testing.T) {
	t.Parallel()

	entries, err := Read(strings.NewReader("#1706000001\nls -la\n\ngit status\n#notatime\n"), FormatBash)
	require.NoError(t, err)
	assert.Equal(t, []string{"ls -la", "git status", "#notatime"}, commands(entries))
	assert.Equal(t, time.Unix(1706000001, 0), entries[0].Timestamp)
	assert.True(t, entries[1].Timestamp.IsZero())
}

func TestReadZsh(t *testing.T) {
	t.Parallel()

	input := ": 1706000001:0;ls -la\n" +
		": 1706000002:0;echo one \\\n" +
		"two\n" +
		"plain line\n" +
		": 1706000003:0;echo trailing \\\\\n" +
		": 1706000004:0;unfinished \\"
	entries, err := Read(strings.NewReader(input), FormatZsh)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ls -la",
		"echo one \ntwo",
		"plain line",
		"echo trailing \\\\",
		"unfinished ",
	}, commands(entries))
	assert.Equal(t, time.Unix(1706000002, 0), entries[1].Timestamp)
	assert.True(t, entries[2].Timestamp.IsZero())
}

func TestReadFish(t *testing.T) {
	t.Parallel()

	input := `- cmd: echo a\nb
  when: 1706000001
  paths:
    - /tmp
- cmd: cd C:\\dir
  when: 1706000002
`
	entries, err := Read(strings.NewReader(input), FormatFish)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo a\nb", `cd C:\dir`}, commands(entries))
	assert.Equal(t, time.Unix(1706000002, 0), entries[1].Timestamp)
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatFish, DetectFormat("/x/fish_history", nil))
	assert.Equal(t, FormatFish, DetectFormat("/x/h", []byte("- cmd: ls\n")))
	assert.Equal(t, FormatZsh, DetectFormat("/x/h", []byte(": 1:0;ls\n")))
	assert.Equal(t, FormatZsh, DetectFormat("/x/.zsh_history", []byte("ls\n")))
	assert.Equal(t, FormatBash, DetectFormat("/x/.bash_history", []byte("ls\n")))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatAuto, "auto": FormatAuto, "ZSH": FormatZsh, "fish": FormatFish} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("tcsh")
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hist")
	require.NoError(t, os.WriteFile(path, []byte(": 1:0;make test\n"), 0o600))

	entries, err := ReadFile(path, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"make test"}, commands(entries))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"), FormatBash)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTrimToLimit(t *testing.T) {
	t.Parallel()

	in := []ImportEntry{{Command: "a"}, {Command: "b"}, {Command: "c"}}
	assert.Equal(t, []string{"b", "c"}, commands(trimToLimit(in, 2)))
	assert.Len(t, trimToLimit(in, 5), 3)
}
