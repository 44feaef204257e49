package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/internal/position"
)

func pos(line, col int) position.Position {
	return position.Position{Line: line, Column: col}
}

func TestKindMetadata(t *testing.T) {
	tests := []struct {
		kind     Kind
		code     string
		name     string
		level    DiagnosticLevel
		category DiagnosticCategory
	}{
		{KindUnterminatedComment, "L001", "unterminated-comment", DiagnosticError, CategorySyntax},
		{KindUnexpectedToken, "P001", "unexpected-token", DiagnosticError, CategoryParsing},
		{KindLoopInterruptionNotAllowed, "S009", "loop-interruption-not-allowed", DiagnosticError, CategoryControlFlow},
		{KindLoopWithoutBreak, "S010", "loop-without-break", DiagnosticWarning, CategoryInfiniteLoop},
		{KindNarrowingConversion, "S017", "narrowing-conversion", DiagnosticWarning, CategoryTypeError},
		{KindInternalCompilerError, "D001", "internal-compiler-error", DiagnosticError, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.Code())
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.level, tt.kind.DefaultLevel())
			assert.Equal(t, tt.category, tt.kind.Category())
		})
	}
}

func TestEveryKindHasUniqueCode(t *testing.T) {
	seen := make(map[string]Kind)
	for k := KindUnterminatedComment; k <= KindLanguageVersion; k++ {
		info, ok := kindTable[k]
		require.True(t, ok, "kind %d has no table entry", k)
		prev, dup := seen[info.code]
		require.False(t, dup, "code %s shared by %s and %s", info.code, prev, k)
		seen[info.code] = k
	}
}

func TestUnexpectedTokenCarriesKinds(t *testing.T) {
	d := UnexpectedToken(pos(3, 7), "';'", "'}'")
	assert.Equal(t, PhaseParser, d.Phase)
	assert.Equal(t, "';'", d.Expected)
	assert.Equal(t, "'}'", d.Actual)
	assert.Equal(t, "3:7: error[P001]: expected ';', got '}'", d.String())
}

func TestMulticast(t *testing.T) {
	var a, b []Diagnostic
	sink := Multicast{
		SinkFunc(func(d Diagnostic) { a = append(a, d) }),
		nil,
		SinkFunc(func(d Diagnostic) { b = append(b, d) }),
	}
	sink.Report(Lexical(KindUnrecognizedSequence, pos(1, 1), "unrecognized '$'"))

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0], b[0])
}

func TestManagerCounts(t *testing.T) {
	dm := NewDiagnosticManager()
	dm.SetSourceFile("main.kst")
	dm.Report(Semantic(KindLoopWithoutBreak, position.SpanAt(pos(2, 1)), "loop has no break"))
	dm.Report(Semantic(KindUndeclaredIdentifier, position.SpanAt(pos(1, 1)), "undeclared identifier %q", "x"))

	assert.True(t, dm.HasErrors())
	assert.Equal(t, 1, dm.GetErrorCount())
	assert.Equal(t, 1, dm.GetWarningCount())
	assert.True(t, dm.HasKind(KindLoopWithoutBreak))
	assert.False(t, dm.HasKind(KindIncompatibleTypes))

	dm.SortDiagnostics()
	diags := dm.GetDiagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, KindUndeclaredIdentifier, diags[0].Kind)
	assert.Equal(t, "main.kst", diags[0].SourceFile)

	assert.Len(t, dm.GetDiagnosticsByLevel(DiagnosticWarning), 1)
	assert.Len(t, dm.GetDiagnosticsByCategory(CategoryUndefinedVariable), 1)
	assert.Contains(t, dm.FormatSummary(), "Found 1 error(s) and 1 warning(s).")
}

func TestManagerLimitsAndSuppression(t *testing.T) {
	dm := NewDiagnosticManager()
	dm.SetErrorLimit(1)
	dm.SetWarningsEnabled(false)

	for i := 0; i < 3; i++ {
		dm.Report(Semantic(KindIncompatibleTypes, position.SpanAt(pos(i+1, 1)), "mismatch"))
	}
	dm.Report(Semantic(KindRedundantInfiniteLoop, position.SpanAt(pos(9, 1)), "redundant"))

	assert.Equal(t, 3, dm.GetErrorCount(), "errors past the limit are still counted")
	assert.Len(t, dm.GetDiagnostics(), 1)
	assert.Equal(t, 0, dm.GetWarningCount())

	dm.Reset()
	assert.False(t, dm.HasErrors())
	assert.Equal(t, "No diagnostics.", dm.FormatSummary())

	dm.SetWarningsEnabled(true)
	dm.SuppressCategory(CategoryInfiniteLoop)
	dm.Report(Semantic(KindLoopWithoutBreak, position.Span{}, "no break"))
	assert.Empty(t, dm.GetDiagnostics())
}

func TestBuilder(t *testing.T) {
	var got []Diagnostic
	NewDiagnosticBuilder(PhaseDriver, KindInternalCompilerError).
		WithMessagef("panic in %s", "parser").
		AtPosition(pos(4, 2)).
		WithSourceFile("a.kst").
		WithStackTrace([]string{"parser.go:10"}).
		ReportTo(SinkFunc(func(d Diagnostic) { got = append(got, d) }))

	require.Len(t, got, 1)
	assert.Equal(t, DiagnosticError, got[0].Level)
	assert.Equal(t, "panic in parser", got[0].Message)
	assert.Equal(t, []string{"parser.go:10"}, got[0].StackTrace)

	w := NewDiagnosticBuilder(PhaseSemantic, KindNarrowingConversion).Build()
	assert.Equal(t, DiagnosticWarning, w.Level, "level defaults to the kind's")
}

func TestConstructorsUseBuilderLevels(t *testing.T) {
	lx := Lexical(KindUnterminatedString, pos(1, 3), "unterminated string")
	assert.Equal(t, PhaseLexer, lx.Phase)
	assert.Equal(t, DiagnosticError, lx.Level)
	assert.Equal(t, position.SpanAt(pos(1, 3)), lx.Span)

	sx := Syntax(KindUnexpectedToken, pos(2, 1), "bad")
	assert.Equal(t, PhaseParser, sx.Phase)
	assert.Equal(t, position.SpanAt(pos(2, 1)), sx.Span)

	span := position.Span{Start: pos(3, 1), End: pos(3, 4)}
	sm := Semantic(KindNarrowingConversion, span, "narrow %s", "x")
	assert.Equal(t, DiagnosticWarning, sm.Level)
	assert.Equal(t, "narrow x", sm.Message)
	assert.Equal(t, span, sm.Span)
}

func TestRendererQuotesSource(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(&buf)
	r.AddSource(position.NewSourceFile("main.kst", "x: int32;\nbreak;\n"))

	d := Semantic(KindLoopInterruptionNotAllowed,
		position.Span{Start: pos(2, 1), End: pos(2, 6)}, "break outside of a loop")
	d.SourceFile = "main.kst"
	require.NoError(t, r.Render(d))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "error[S009]: break outside of a loop\n"), out)
	assert.Contains(t, out, "  --> main.kst:2:1\n")
	assert.Contains(t, out, "   2 | break;\n")
	assert.Contains(t, out, "     | ^^^^^\n")
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"": ColorAuto, "auto": ColorAuto, "Always": ColorAlways, "never": ColorNever} {
		got, err := ParseColorMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseColorMode("sometimes")
	assert.Error(t, err)
	assert.False(t, UseColor(nil, ColorAuto))
}
