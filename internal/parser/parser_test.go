package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

type parsed struct {
	arena *ast.Arena
	table *resolver.SymbolTable
	root  ast.NodeID
	diags *diagnostics.DiagnosticManager
}

func parse(t *testing.T, src string) parsed {
	t.Helper()
	dm := diagnostics.NewDiagnosticManager()
	lex := lexer.NewFromString("test.kst", src, dm)
	arena := ast.NewArena()
	table := resolver.NewSymbolTable()
	root := Parse(lex, table, arena, dm, "test")
	require.NotEqual(t, ast.NoNode, root)
	return parsed{arena: arena, table: table, root: root, diags: dm}
}

func parseClean(t *testing.T, src string) parsed {
	t.Helper()
	p := parse(t, src)
	require.False(t, p.diags.HasErrors(), "unexpected diagnostics:\n%s", messages(p.diags))
	return p
}

func messages(dm *diagnostics.DiagnosticManager) string {
	var sb strings.Builder
	for _, d := range dm.GetDiagnostics() {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (p parsed) statements() []ast.NodeID {
	prog, _ := ast.Get[*ast.Program](p.arena, p.root)
	return prog.Statements
}

// sexpr renders an expression fully parenthesised.
func sexpr(a *ast.Arena, id ast.NodeID) string {
	switch n := a.Node(id).(type) {
	case *ast.Identifier:
		return n.Name
	case *ast.Literal:
		return n.Value.String()
	case *ast.Unary:
		return fmt.Sprintf("(%s%s)", op(n.Op), sexpr(a, n.Operand))
	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", sexpr(a, n.Left), op(n.Op), sexpr(a, n.Right))
	case *ast.MemberAccess:
		return fmt.Sprintf("%s.%s", sexpr(a, n.Object), n.Member)
	case *ast.IndexedAccess:
		return fmt.Sprintf("%s[%s]", sexpr(a, n.Object), sexpr(a, n.Index))
	case *ast.FunctionCall:
		var args []string
		for _, arg := range n.Args {
			args = append(args, sexpr(a, arg))
		}
		return fmt.Sprintf("%s(%s)", sexpr(a, n.Callee), strings.Join(args, ", "))
	}
	return "?"
}

func op(tt lexer.TokenType) string { return strings.Trim(tt.String(), "'") }

func TestDeclarations(t *testing.T) {
	p := parseClean(t, "x, y: int32; z := 1; w: *char = null;")
	stmts := p.statements()
	require.Len(t, stmts, 3)

	xy, ok := ast.Get[*ast.Declaration](p.arena, stmts[0])
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, xy.Names)
	assert.Equal(t, ast.KindPrimitiveType, p.arena.Kind(xy.TypeNode))
	assert.False(t, xy.Deferred)

	z, ok := ast.Get[*ast.Declaration](p.arena, stmts[1])
	require.True(t, ok)
	assert.True(t, z.Deferred)
	assert.Equal(t, z.Init, z.TypeInfo(), "the initializer stands in for the type")

	w, _ := ast.Get[*ast.Declaration](p.arena, stmts[2])
	assert.True(t, w.Attrs.Has(ast.AttrPointer))
	assert.Equal(t, ast.KindLiteral, p.arena.Kind(w.Init))

	assert.Equal(t, 1, p.table.ScopeCount(), "declarations create no scopes")
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a := 1 + 2 * 3 == 7;", "((1 + (2 * 3)) == 7)"},
		{"a := x - y - z;", "((x - y) - z)"},
		{"a := x / y * z;", "((x / y) * z)"},
		{"a := x < y == y > z;", "((x < y) == (y > z))"},
		{"a := p && q || !r;", "((p && q) || (!r))"},
		{"a := -x * *ptr;", "((-x) * (*ptr))"},
		{"a := &s.field[1];", "(&s.field[1])"},
		{"a := (x + y) * z;", "((x + y) * z)"},
		{"a := f(x, g(y))[0].m;", "f(x, g(y))[0].m"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := parseClean(t, tt.src)
			decl, ok := ast.Get[*ast.Declaration](p.arena, p.statements()[0])
			require.True(t, ok)
			assert.Equal(t, tt.want, sexpr(p.arena, decl.Init))
		})
	}
}

func TestAssignmentAndExpressionStatements(t *testing.T) {
	p := parseClean(t, "x = y + 1; p.x = 2; print(\"hi\"); break; continue;")
	stmts := p.statements()
	require.Len(t, stmts, 5)

	kinds := make([]ast.Kind, len(stmts))
	for i, s := range stmts {
		kinds[i] = p.arena.Kind(s)
	}
	assert.Equal(t, []ast.Kind{ast.KindAssignment, ast.KindAssignment, ast.KindFunctionCall, ast.KindBreak, ast.KindContinue}, kinds)

	as, _ := ast.Get[*ast.Assignment](p.arena, stmts[1])
	assert.Equal(t, "p.x", sexpr(p.arena, as.Target))
}

func TestDefinitionAndClosure(t *testing.T) {
	src := `add: (a: int32, b: int32) -> int32 = [base] (a: int32, b: int32) -> int32 {
		sum := a + b;
		return sum;
	};
	noop := () -> void { };`
	p := parseClean(t, src)
	stmts := p.statements()
	require.Len(t, stmts, 2)

	def, ok := ast.Get[*ast.Definition](p.arena, stmts[0])
	require.True(t, ok)
	decl, _ := ast.Get[*ast.Declaration](p.arena, def.Decl)
	assert.Equal(t, []string{"add"}, decl.Names)
	assert.Equal(t, ast.NoNode, decl.Init)
	assert.Equal(t, ast.KindFunctionDecl, p.arena.Kind(decl.TypeNode))

	closure, ok := ast.Get[*ast.FunctionClosure](p.arena, def.Closure)
	require.True(t, ok)
	assert.Equal(t, []string{"base"}, closure.Captures)
	sig, _ := ast.Get[*ast.FunctionDecl](p.arena, closure.Signature)
	args, _ := ast.Get[*ast.FunctionArgs](p.arena, sig.Args)
	assert.Len(t, args.Args, 2)
	body, _ := ast.Get[*ast.Block](p.arena, closure.Body)
	assert.Len(t, body.Statements, 2)

	noop, ok := ast.Get[*ast.Declaration](p.arena, stmts[1])
	require.True(t, ok)
	assert.True(t, noop.Deferred)
	assert.Equal(t, ast.KindFunctionClosure, p.arena.Kind(noop.Init))

	// One scope per closure; the function type of `add` opens none.
	assert.Equal(t, 3, p.table.ScopeCount())
}

func TestScopeShape(t *testing.T) {
	src := `
	{ { } }
	if c { } else if d { } else { }
	loop { break; }
	while c { }
	struct S { a: int32; }
	enum E { A }`
	p := parseClean(t, src)

	global := p.table.Scope(resolver.GlobalScope)
	assert.Len(t, global.Anonymous, 6)
	assert.Len(t, global.Named, 2)
	first := p.table.Scope(global.Anonymous[0])
	assert.Len(t, first.Anonymous, 1)

	sid, ok := p.table.LookupNamedScope("S")
	require.True(t, ok)
	assert.Equal(t, resolver.ScopeKindStruct, p.table.Scope(sid).Kind)
}

func TestStructFieldsAreForwardDeclared(t *testing.T) {
	p := parseClean(t, "struct Node { value: int32 = 7; next: *Node; }")
	sd, ok := ast.Get[*ast.StructDecl](p.arena, p.statements()[0])
	require.True(t, ok)
	assert.Equal(t, "Node", sd.Name)
	require.Len(t, sd.Fields, 2)

	sid, _ := p.table.LookupNamedScope("Node")
	value, ok := p.table.LookupIn(sid, "value")
	require.True(t, ok)
	assert.Nil(t, value.Type, "types are filled in by the analyser")
	assert.True(t, value.Attrs.Has(ast.AttrStructField))
	assert.NotEqual(t, ast.NoNode, value.Init)

	next, ok := p.table.LookupIn(sid, "next")
	require.True(t, ok)
	assert.True(t, next.Attrs.Has(ast.AttrStructField|ast.AttrPointer))

	_, ok = p.table.Lookup("value")
	assert.False(t, ok, "fields stay inside the struct scope")
}

func TestEnumeratorChaining(t *testing.T) {
	p := parseClean(t, "enum Color { Red, Green = 5, Blue, }")
	ed, ok := ast.Get[*ast.EnumDecl](p.arena, p.statements()[0])
	require.True(t, ok)
	require.Len(t, ed.Enumerators, 3)

	var inits []string
	for _, e := range ed.Enumerators {
		d, _ := ast.Get[*ast.Declaration](p.arena, e)
		assert.True(t, d.Attrs.Has(ast.AttrStatic))
		inits = append(inits, d.Names[0]+"="+sexpr(p.arena, d.Init))
	}
	assert.Equal(t, []string{"Red=0", "Green=5", "Blue=(Green + 1)"}, inits)

	sid, _ := p.table.LookupNamedScope("Color")
	for _, name := range []string{"Red", "Green", "Blue"} {
		_, ok := p.table.LookupIn(sid, name)
		assert.True(t, ok, name)
	}
}

func TestInvalidEnumeratorName(t *testing.T) {
	p := parse(t, "enum E { 1, A }")
	assert.True(t, p.diags.HasKind(diagnostics.KindInvalidEnumeratorName))

	ed, ok := ast.Get[*ast.EnumDecl](p.arena, p.statements()[0])
	require.True(t, ok)
	require.Len(t, ed.Enumerators, 1)
	d, _ := ast.Get[*ast.Declaration](p.arena, ed.Enumerators[0])
	assert.Equal(t, "A", d.Names[0])
	assert.Equal(t, "0", sexpr(p.arena, d.Init))
}

func TestDuplicateNamedScope(t *testing.T) {
	p := parse(t, "struct P { x: int32; } struct P { y: int32; } z: int32;")
	assert.True(t, p.diags.HasKind(diagnostics.KindAlreadyDeclared))
	assert.Len(t, p.statements(), 2, "the duplicate struct is skipped, parsing goes on")
	assert.Equal(t, 2, p.table.ScopeCount())
}

func TestMissingSemicolon(t *testing.T) {
	p := parse(t, "x: int32 y: int32; z: bool;")
	diags := p.diags.GetDiagnostics()
	require.NotEmpty(t, diags)

	d := diags[0]
	assert.Equal(t, diagnostics.KindUnexpectedToken, d.Kind)
	assert.Equal(t, lexer.TokenSemicolon.String(), d.Expected)
	assert.Equal(t, "identifier 'y'", d.Actual)
	assert.Equal(t, 1, d.Span.Start.Line)
	assert.Equal(t, 10, d.Span.Start.Column)

	stmts := p.statements()
	require.Len(t, stmts, 2)
	last, _ := ast.Get[*ast.Declaration](p.arena, stmts[1])
	assert.Equal(t, []string{"z"}, last.Names)
}

func TestImport(t *testing.T) {
	p := parseClean(t, `import "std/io.kst";`)
	imp, ok := ast.Get[*ast.Import](p.arena, p.statements()[0])
	require.True(t, ok)
	assert.Equal(t, "std/io.kst", imp.Path)

	sid, ok := p.table.LookupNamedScope("io")
	require.True(t, ok)
	assert.Equal(t, resolver.ScopeKindModule, p.table.Scope(sid).Kind)
	assert.Equal(t, resolver.GlobalScope, p.table.Current())
}

func TestRecoveryAlwaysTerminates(t *testing.T) {
	inputs := []string{
		") ) ) } x := ;",
		"if { } else",
		"struct { a b c",
		"f := (a: int32) -> { return 1; }; y: int32;",
		"enum E { A = , B }",
		"x: [3 int32;",
		"loop",
		"a := [x] (;",
		"{ { {",
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			p := parse(t, src)
			assert.True(t, p.diags.HasErrors())
			assert.Equal(t, resolver.GlobalScope, p.table.Current(), "every created scope was left")
		})
	}
}

func TestScopesSurviveMalformedBodies(t *testing.T) {
	p := parse(t, "loop { x := ; } while c { y: ; }")
	assert.True(t, p.diags.HasErrors())

	stmts := p.statements()
	require.Len(t, stmts, 2, "constructs that opened a scope still produce nodes")
	assert.Equal(t, 3, p.table.ScopeCount())
}

func TestInvalidEnvironmentPanics(t *testing.T) {
	lex := lexer.NewFromString("t", "", nil)
	assert.Panics(t, func() { Parse(nil, resolver.NewSymbolTable(), ast.NewArena(), nil, "m") })
	assert.Panics(t, func() { Parse(lex, nil, ast.NewArena(), nil, "m") })
	assert.Panics(t, func() { Parse(lex, resolver.NewSymbolTable(), nil, nil, "m") })

	read := resolver.NewSymbolTable()
	read.BeginRead()
	assert.Panics(t, func() { Parse(lex, read, ast.NewArena(), nil, "m") })
}
