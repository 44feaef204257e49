package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/literal"
	"github.com/kestrel-lang/kestrel/internal/position"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

var at = position.Position{Filename: "t.kst", Line: 1, Column: 1}

func prim(k TypeKind) *Type { return NewPrimitiveType(k) }

func TestPrimitiveSizes(t *testing.T) {
	tests := []struct {
		kind TypeKind
		size int
	}{
		{TypeKindInt8, 1}, {TypeKindUint8, 1}, {TypeKindInt16, 2}, {TypeKindUint16, 2},
		{TypeKindInt32, 4}, {TypeKindUint32, 4}, {TypeKindInt64, 8}, {TypeKindUint64, 8},
		{TypeKindFloat, 4}, {TypeKindDouble, 8}, {TypeKindBool, 1}, {TypeKindChar, 1},
		{TypeKindString, 8}, {TypeKindVoid, 0},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			typ := prim(tt.kind)
			assert.Equal(t, tt.size, typ.SizeOf())
			assert.True(t, typ.IsPrimitive())
			byName, ok := PrimitiveByName(tt.kind.String())
			require.True(t, ok)
			assert.True(t, byName.SameAs(typ))
		})
	}

	assert.Equal(t, PointerSize, NewPointerType(prim(TypeKindInt8)).SizeOf())
	assert.Equal(t, 40, NewArrayType(prim(TypeKindInt32), 10).SizeOf())
	assert.Panics(t, func() { NewPrimitiveType(TypeKindPointer) })
}

func TestIntegerWideningIsConvertibleNotSame(t *testing.T) {
	i8, i32 := prim(TypeKindInt8), prim(TypeKindInt32)

	assert.False(t, i8.SameAs(i32))
	assert.True(t, i8.ConvertibleTo(i32))
	assert.True(t, i32.ConvertibleTo(i8))
	assert.True(t, i32.IsNarrowingTo(i8))
	assert.False(t, i8.IsNarrowingTo(i32))

	u32, i64, u64 := prim(TypeKindUint32), prim(TypeKindInt64), prim(TypeKindUint64)
	assert.True(t, i32.IsNarrowingTo(u32), "sign change")
	assert.True(t, u32.IsNarrowingTo(i32), "sign change")
	assert.True(t, i64.IsNarrowingTo(u64))
	assert.True(t, i8.IsNarrowingTo(u64), "widening sign change")
	assert.False(t, u32.IsNarrowingTo(u64))
	assert.False(t, u32.IsNarrowingTo(i64))
}

func TestConvertibility(t *testing.T) {
	ptr := NewPointerType(prim(TypeKindInt32))
	fn := NewFunctionType("", nil, prim(TypeKindVoid), ast.AttrNone)

	tests := []struct {
		name     string
		from, to *Type
		want     bool
	}{
		{"float to double", prim(TypeKindFloat), prim(TypeKindDouble), true},
		{"double to float", prim(TypeKindDouble), prim(TypeKindFloat), true},
		{"char to string", prim(TypeKindChar), prim(TypeKindString), true},
		{"string to char", prim(TypeKindString), prim(TypeKindChar), false},
		{"int to double", prim(TypeKindInt32), prim(TypeKindDouble), false},
		{"bool to int", prim(TypeKindBool), prim(TypeKindInt32), false},
		{"null to pointer", NewNullType(), ptr, true},
		{"null to function", NewNullType(), fn, true},
		{"pointer to null", ptr, NewNullType(), false},
		{"uint64 to int8", prim(TypeKindUint64), prim(TypeKindInt8), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.ConvertibleTo(tt.to))
		})
	}
}

func TestSameAsIgnoresUsageAttributes(t *testing.T) {
	a := prim(TypeKindInt32).WithAttrs(ast.AttrRValue | ast.AttrFunctionArg)
	b := prim(TypeKindInt32)
	assert.True(t, a.SameAs(b))
	assert.False(t, a.WithAttrs(ast.AttrStatic).SameAs(b))

	f1 := NewFunctionType("f", []Field{{Name: "a", Type: prim(TypeKindInt32)}}, prim(TypeKindBool), ast.AttrNone)
	f2 := NewFunctionType("g", []Field{{Name: "b", Type: prim(TypeKindInt32).WithAttrs(ast.AttrFunctionArg)}}, prim(TypeKindBool), ast.AttrNone)
	f3 := NewFunctionType("h", []Field{{Name: "a", Type: prim(TypeKindInt64)}}, prim(TypeKindBool), ast.AttrNone)
	assert.True(t, f1.SameAs(f2), "argument names do not matter")
	assert.False(t, f1.SameAs(f3))
	assert.Equal(t, "(a: int32) -> bool", f1.String())
}

func TestDefaultValues(t *testing.T) {
	assert.Equal(t, literal.NewInt32(0), prim(TypeKindInt16).DefaultValue())
	assert.Equal(t, literal.NewUint64(0), prim(TypeKindUint64).DefaultValue())
	assert.Equal(t, literal.NewDouble(0), prim(TypeKindDouble).DefaultValue())
	assert.Equal(t, literal.NewString(""), prim(TypeKindString).DefaultValue())
	assert.Equal(t, literal.NewBool(true), prim(TypeKindBool).DefaultValue())
	assert.True(t, NewPointerType(prim(TypeKindInt8)).DefaultValue().IsNull())
	assert.True(t, NewFunctionType("", nil, prim(TypeKindVoid), 0).DefaultValue().IsNull())
	assert.True(t, NewStructType("S", nil, 0).DefaultValue().IsNull())
}

// linkedList builds `struct Node { value: int32; next: *Node; }` the way the
// parser would, and leaves the table in read mode.
func linkedList(t *testing.T, byValue bool) (*ast.Arena, *resolver.SymbolTable, ast.NodeID) {
	t.Helper()
	arena := ast.NewArena()
	st := resolver.NewSymbolTable()

	_, err := st.CreateNamedScope("Node", resolver.ScopeKindStruct)
	require.NoError(t, err)

	value := arena.NewDeclaration(at, []string{"value"}, arena.NewPrimitiveType(at, lexer.TokenInt32), ast.NoNode, ast.AttrStructField)
	var nextType ast.NodeID = arena.NewNamedType(at, "Node")
	if !byValue {
		nextType = arena.NewPointerType(at, nextType)
	}
	next := arena.NewDeclaration(at, []string{"next"}, nextType, ast.NoNode, ast.AttrStructField)
	for _, name := range []string{"value", "next"} {
		_, err := st.AddVariable(resolver.Descriptor{Name: name, Attrs: ast.AttrStructField})
		require.NoError(t, err)
	}
	require.NoError(t, st.LeaveScope())

	decl := arena.NewStructDecl(at, "Node", []ast.NodeID{value, next})
	st.BeginRead()
	return arena, st, decl
}

func TestSelfReferentialStruct(t *testing.T) {
	arena, st, decl := linkedList(t, false)
	r := NewResolver(arena, st)

	node, err := r.Resolve(decl)
	require.NoError(t, err)
	scope, ok := node.NamedScope()
	require.True(t, ok)
	require.NoError(t, st.SetOwnerType(scope, node))

	s := node.Struct()
	require.NotNil(t, s)
	require.Len(t, s.Fields, 2)
	assert.Equal(t, 4+PointerSize, node.SizeOf())

	next := s.Fields[1].Type
	assert.Equal(t, TypeKindPointer, next.Kind)
	assert.True(t, next.DefaultValue().IsNull())
	assert.Equal(t, "*Node", next.String())

	inner := next.Pointer().Inner
	assert.Equal(t, TypeKindDependentNamed, inner.Kind)
	assert.True(t, inner.SameAs(node), "the dependent name resolves to the struct")
	assert.True(t, inner.Resolve().SameAs(node))

	defaults := node.FieldDefaults()
	require.Len(t, defaults, 2)
	assert.Equal(t, literal.NewInt32(0), defaults[0])
	assert.True(t, defaults[1].IsNull())
}

func TestRecursiveStructByValue(t *testing.T) {
	arena, st, decl := linkedList(t, true)
	_, err := NewResolver(arena, st).Resolve(decl)
	re, ok := AsResolveError(err)
	require.True(t, ok)
	assert.Equal(t, diagnostics.KindInvalidRecursiveType, re.Kind)
}

func TestResolveArray(t *testing.T) {
	arena := ast.NewArena()
	st := resolver.NewSymbolTable()
	n := arena.NewLiteral(at, literal.NewInt32(3))
	_, err := st.AddVariable(resolver.Descriptor{Name: "n", Init: n})
	require.NoError(t, err)
	st.BeginRead()
	r := NewResolver(arena, st)

	// [n * 2 + 1]int16
	size := arena.NewBinary(at, lexer.TokenPlus,
		arena.NewBinary(at, lexer.TokenStar, arena.NewIdentifier(at, "n", 0), arena.NewLiteral(at, literal.NewInt32(2))),
		arena.NewLiteral(at, literal.NewInt32(1)))
	arr := arena.NewArrayType(at, size, arena.NewPrimitiveType(at, lexer.TokenInt16))

	typ, err := r.Resolve(arr)
	require.NoError(t, err)
	require.NotNil(t, typ.Array())
	assert.Equal(t, uint32(7), typ.Array().Count)
	assert.Equal(t, 14, typ.SizeOf())
	assert.Equal(t, "[7]int16", typ.String())
}

func TestConstantRequired(t *testing.T) {
	tests := []struct {
		name string
		size func(a *ast.Arena) ast.NodeID
	}{
		{"unknown identifier", func(a *ast.Arena) ast.NodeID { return a.NewIdentifier(at, "m", 0) }},
		{"string literal", func(a *ast.Arena) ast.NodeID { return a.NewLiteral(at, literal.NewString("x")) }},
		{"negative", func(a *ast.Arena) ast.NodeID {
			return a.NewUnary(at, lexer.TokenMinus, a.NewLiteral(at, literal.NewInt32(1)))
		}},
		{"division by zero", func(a *ast.Arena) ast.NodeID {
			return a.NewBinary(at, lexer.TokenSlash, a.NewLiteral(at, literal.NewInt32(1)), a.NewLiteral(at, literal.NewInt32(0)))
		}},
		{"overflow", func(a *ast.Arena) ast.NodeID {
			big := func() ast.NodeID { return a.NewLiteral(at, literal.NewInt64(1<<32)) }
			return a.NewBinary(at, lexer.TokenPlus,
				a.NewBinary(at, lexer.TokenStar, big(), big()),
				a.NewLiteral(at, literal.NewInt32(3)))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arena := ast.NewArena()
			st := resolver.NewSymbolTable()
			st.BeginRead()
			arr := arena.NewArrayType(at, tt.size(arena), arena.NewPrimitiveType(at, lexer.TokenInt8))

			_, err := NewResolver(arena, st).Resolve(arr)
			re, ok := AsResolveError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, diagnostics.KindConstantRequired, re.Kind)
		})
	}
}

func TestResolveNamedAndFunction(t *testing.T) {
	arena := ast.NewArena()
	st := resolver.NewSymbolTable()
	st.BeginRead()
	r := NewResolver(arena, st)

	_, err := r.Resolve(arena.NewNamedType(at, "Missing"))
	re, ok := AsResolveError(err)
	require.True(t, ok)
	assert.Equal(t, diagnostics.KindUndefinedType, re.Kind)

	arg := arena.NewDeclaration(at, []string{"a"}, arena.NewPointerType(at, arena.NewPrimitiveType(at, lexer.TokenChar)), ast.NoNode, ast.AttrFunctionArg)
	sig := arena.NewFunctionDecl(at, arena.NewFunctionArgs(at, []ast.NodeID{arg}), arena.NewPrimitiveType(at, lexer.TokenBool))
	fn, err := r.Resolve(sig)
	require.NoError(t, err)
	require.NotNil(t, fn.Function())
	assert.True(t, fn.Function().Args[0].Type.Attributes().Has(ast.AttrFunctionArg|ast.AttrPointer))
	assert.Equal(t, "(a: *char) -> bool", fn.String())

	two := arena.NewDeclaration(at, []string{"a", "b"}, arena.NewPrimitiveType(at, lexer.TokenInt32), ast.NoNode, ast.AttrFunctionArg)
	bad := arena.NewFunctionDecl(at, arena.NewFunctionArgs(at, []ast.NodeID{two}), ast.NoNode)
	_, err = r.Resolve(bad)
	re, ok = AsResolveError(err)
	require.True(t, ok)
	assert.Equal(t, diagnostics.KindMultipleParametersPerArgument, re.Kind)
}

func TestFoldOverflow(t *testing.T) {
	tests := []struct {
		op   lexer.TokenType
		l, r int64
		want error
	}{
		{lexer.TokenPlus, math.MaxInt64, 1, ErrOutOfRange},
		{lexer.TokenPlus, math.MinInt64, -1, ErrOutOfRange},
		{lexer.TokenPlus, math.MaxInt64, math.MinInt64, nil},
		{lexer.TokenMinus, math.MinInt64, 1, ErrOutOfRange},
		{lexer.TokenMinus, 0, math.MinInt64, ErrOutOfRange},
		{lexer.TokenMinus, -1, math.MinInt64, nil},
		{lexer.TokenStar, 1 << 32, 1 << 32, ErrOutOfRange},
		{lexer.TokenStar, -1, math.MinInt64, ErrOutOfRange},
		{lexer.TokenStar, 1 << 31, 1 << 31, nil},
		{lexer.TokenSlash, math.MinInt64, -1, ErrOutOfRange},
		{lexer.TokenSlash, 7, 0, ErrDivisionByZero},
	}
	for _, tt := range tests {
		_, err := fold(tt.op, tt.l, tt.r)
		if tt.want == nil {
			assert.NoError(t, err, "%d %s %d", tt.l, tt.op, tt.r)
		} else {
			assert.ErrorIs(t, err, tt.want, "%d %s %d", tt.l, tt.op, tt.r)
		}
	}
}

func TestConstEvaluatorChains(t *testing.T) {
	arena := ast.NewArena()
	st := resolver.NewSymbolTable()
	// a := 4; b := a - 6;
	a := arena.NewLiteral(at, literal.NewInt32(4))
	_, _ = st.AddVariable(resolver.Descriptor{Name: "a", Init: a})
	b := arena.NewBinary(at, lexer.TokenMinus, arena.NewIdentifier(at, "a", 0), arena.NewLiteral(at, literal.NewInt32(6)))
	_, _ = st.AddVariable(resolver.Descriptor{Name: "b", Init: b})
	st.BeginRead()

	e := NewConstEvaluator(arena, st)
	v, err := e.EvalInt(arena.NewIdentifier(at, "b", 0))
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)

	_, err = e.Eval(arena.NewIdentifier(at, "b", 0))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = e.EvalInt(arena.NewUnary(at, lexer.TokenBang, arena.NewLiteral(at, literal.NewBool(true))))
	assert.ErrorIs(t, err, ErrNotConstant)
}
