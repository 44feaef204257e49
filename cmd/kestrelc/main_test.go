package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/internal/build"
	kcli "github.com/kestrel-lang/kestrel/internal/cli"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/format"
)

type testEnv struct {
	*env
	out, err *bytes.Buffer
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	out, errb := new(bytes.Buffer), new(bytes.Buffer)
	return testEnv{
		env: &env{
			cfg:   build.DefaultConfig,
			log:   kcli.NewLoggerTo(errb, false, false, false),
			color: diagnostics.ColorNever,
			out:   out,
			err:   errb,
		},
		out: out,
		err: errb,
	}
}

func (te testEnv) compiler(t *testing.T) *build.Compiler {
	c, err := te.env.compiler()
	require.NoError(t, err)
	return c
}

func writeSource(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "good.kst", "x: int32 = 1;\n")
	bad := writeSource(t, dir, "bad.kst", "y: int32 = nothing;\n")

	te := newTestEnv(t)
	failed, err := runCheck(context.Background(), te.env, te.compiler(t), []string{dir})
	require.NoError(t, err)
	assert.True(t, failed)
	assert.Equal(t, "2 files checked: 1 error, 0 warnings\n", te.out.String())
	assert.Contains(t, te.err.String(), "error[")
	assert.Contains(t, te.err.String(), bad+":1:")
	assert.Contains(t, te.err.String(), "y: int32 = nothing;")
}

func TestRunCheckClean(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.kst", "loop { }\n")

	te := newTestEnv(t)
	failed, err := runCheck(context.Background(), te.env, te.compiler(t), []string{dir})
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Equal(t, "1 files checked: 0 errors, 2 warnings\n", te.out.String())

	te = newTestEnv(t)
	failed, err = runCheck(context.Background(), te.env, te.compiler(t), []string{t.TempDir()})
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Contains(t, te.err.String(), "no .kst files found")
}

func TestPrintTokens(t *testing.T) {
	path := writeSource(t, t.TempDir(), "t.kst", "x := 1;\n")
	te := newTestEnv(t)
	require.NoError(t, printTokens(te.env, path))
	lines := strings.Split(strings.TrimSpace(te.out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "1:1 identifier x", lines[0])
	assert.Empty(t, te.err.String())
}

func TestDumpRaw(t *testing.T) {
	te := newTestEnv(t)
	u := te.compiler(t).CompileSource("raw.kst", "x := 1;\n")
	var buf bytes.Buffer
	require.NoError(t, dumpRaw(&buf, u.Arena))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "#1 "), out)
	assert.Contains(t, out, "parent=#")
}

func TestFormatFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "f.kst", "x:int32=1;\n")

	te := newTestEnv(t)
	require.NoError(t, formatFile(te.env, path, fmtMode{opts: format.DefaultOptions()}))
	assert.Equal(t, "x: int32 = 1;\n", te.out.String())

	te = newTestEnv(t)
	require.NoError(t, formatFile(te.env, path, fmtMode{diff: true, opts: format.DefaultOptions()}))
	assert.Contains(t, te.out.String(), "+x: int32 = 1;\n")

	te = newTestEnv(t)
	require.NoError(t, formatFile(te.env, path, fmtMode{write: true, opts: format.DefaultOptions()}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x: int32 = 1;\n", string(data))
	assert.Empty(t, te.out.String())

	bad := writeSource(t, dir, "bad.kst", "x: int32 y;\n")
	te = newTestEnv(t)
	err = formatFile(te.env, bad, fmtMode{opts: format.DefaultOptions()})
	assert.ErrorIs(t, err, format.ErrSyntax)
	assert.NotEmpty(t, te.err.String())
}

func TestSession(t *testing.T) {
	te := newTestEnv(t)
	s := newSession(te.env, te.compiler(t))

	assert.True(t, s.eval("x: int32 = 1;"))
	assert.Contains(t, te.out.String(), "x: int32")

	te.out.Reset()
	assert.False(t, s.eval("y := missing;"))
	assert.Contains(t, te.err.String(), "missing")
	assert.Equal(t, []string{"x: int32 = 1;"}, s.lines)

	te.err.Reset()
	assert.True(t, s.eval("z := x + 1;"))
	assert.Empty(t, te.err.String())

	te.out.Reset()
	assert.False(t, s.handle(":source"))
	assert.Equal(t, "x: int32 = 1;\nz := x + 1;\n", te.out.String())

	te.out.Reset()
	assert.False(t, s.handle(":symbols"))
	assert.Contains(t, te.out.String(), "z")

	assert.False(t, s.handle(":reset"))
	assert.Empty(t, s.lines)
	assert.False(t, s.handle("   "))
	assert.True(t, s.handle(":quit"))
}

func TestSessionOnlyShowsNewDiagnostics(t *testing.T) {
	te := newTestEnv(t)
	s := newSession(te.env, te.compiler(t))

	assert.True(t, s.eval("loop { }"))
	assert.Contains(t, te.err.String(), "warning")

	te.err.Reset()
	assert.True(t, s.eval("a := 1;"))
	assert.Empty(t, te.err.String())
}

func TestAppVersion(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"kestrelc", "version"}))
	assert.True(t, strings.HasPrefix(out.String(), "kestrelc v"+kcli.Version), out.String())
}

func TestAppFmtUsesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSource(t, dir, build.ConfigFileName, "Color = \"never\"\n")
	src := writeSource(t, dir, "a.kst", "loop{break;}\n")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"kestrelc", "--config", cfg, "fmt", "--tabs", src}))
	assert.Equal(t, "loop {\n\tbreak;\n}\n", out.String())
}

func TestAppRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSource(t, dir, build.ConfigFileName, "Jobs = 0\n")

	app := newApp()
	app.Writer = new(bytes.Buffer)
	err := app.Run([]string{"kestrelc", "--config", cfg, "tokens", cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Jobs")
}
