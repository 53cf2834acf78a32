package pluginhost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDiscoverReturnsOnlySOFilesAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.so", "b.so", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.so"), 0o755))

	d := NewDiscovery(dir, zerolog.Nop())

	first := d.Discover()
	second := d.Discover()

	want := []string{filepath.Join(dir, "a.so"), filepath.Join(dir, "b.so")}
	require.Equal(t, want, first)
	require.Equal(t, want, second, "discovery must be idempotent across repeated calls")
}

func TestDiscoverToleratesMissingDirectory(t *testing.T) {
	d := NewDiscovery("/nonexistent/path/for/test", zerolog.Nop())
	require.Empty(t, d.Discover())
}
