package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, src LineSource) []string {
	t.Helper()
	require.NoError(t, src.Open())
	defer src.Close()

	var lines []string
	for {
		line, err := src.ReadLine()
		if err == ErrEndOfInput {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestStringSource(t *testing.T) {
	src := NewStringSource("mem.kst", "x: int32;\r\ny: int64;\n\nz := 1;")
	assert.Equal(t, []string{"x: int32;", "y: int64;", "", "z := 1;"}, readAll(t, src))
	assert.Equal(t, "mem.kst", src.Name())
}

func TestReadBeforeOpen(t *testing.T) {
	_, err := NewStringSource("a", "b").ReadLine()
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.kst")
	require.NoError(t, os.WriteFile(path, []byte("a: bool;\nb: char;\n"), 0o644))

	assert.Equal(t, []string{"a: bool;", "b: char;"}, readAll(t, NewFileSource(path)))

	missing := NewFileSource(filepath.Join(dir, "missing.kst"))
	assert.Error(t, missing.Open())
}
