package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.kst", "")
	writeFile(t, dir, "a.kst", "")
	writeFile(t, dir, "notes.txt", "")
	writeFile(t, dir, "sub/c.kst", "")
	writeFile(t, dir, ".hidden/d.kst", "")
	single := writeFile(t, t.TempDir(), "script.txt", "")

	files, err := Discover([]string{dir, filepath.Join(dir, "sub"), single})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.kst"),
		filepath.Join(dir, "b.kst"),
		filepath.Join(dir, "sub", "c.kst"),
		single,
	}, files)

	_, err = Discover([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestWatcherRecompiles(t *testing.T) {
	dir := t.TempDir()
	c := newCompiler(t, nil)
	w, err := NewWatcher(c, []string{dir}, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	units := make(chan *Unit, 16)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(u *Unit) { units <- u }) }()

	path := filepath.Join(dir, "live.kst")
	require.NoError(t, os.WriteFile(path, []byte("x: int32 = missing;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	// Create and write may be delivered in separate bursts.
	deadline := time.After(5 * time.Second)
	for failed := false; !failed; {
		select {
		case u := <-units:
			assert.Equal(t, path, u.Path)
			failed = u.Failed()
		case <-deadline:
			t.Fatal("no recompilation after write")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
