package allowlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGate_ExactCaseSensitiveMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.txt")
	writeList(t, path, "a@x.com\n# comment\n\nb@y.com\n")

	g := NewGate(path)
	require.True(t, g.IsAuthorized("a@x.com"))
	require.True(t, g.IsAuthorized("b@y.com"))
	require.False(t, g.IsAuthorized("A@x.com"))
	require.False(t, g.IsAuthorized("a@X.COM"))
	require.False(t, g.IsAuthorized("c@z.com"))
	require.False(t, g.IsAuthorized(""))
	require.Equal(t, 2, g.Len())
}

func TestGate_MissingFileFailsClosed(t *testing.T) {
	g := NewGate(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	require.False(t, g.IsAuthorized("a@x.com"))
	require.Equal(t, 0, g.Len())
}

func TestGate_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.txt")
	writeList(t, path, "a@x.com\n")

	g := NewGate(path)
	require.True(t, g.IsAuthorized("a@x.com"))
	require.False(t, g.IsAuthorized("b@y.com"))

	// mtime granularity on some filesystems is one second
	newTime := time.Now().Add(2 * time.Second)
	writeList(t, path, "b@y.com\n")
	require.NoError(t, os.Chtimes(path, newTime, newTime))

	require.True(t, g.IsAuthorized("b@y.com"))
	require.False(t, g.IsAuthorized("a@x.com"))
}

func TestGate_FileRemovedFailsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.txt")
	writeList(t, path, "a@x.com\n")

	g := NewGate(path)
	require.True(t, g.IsAuthorized("a@x.com"))

	require.NoError(t, os.Remove(path))
	require.False(t, g.IsAuthorized("a@x.com"))
}
