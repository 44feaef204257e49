package resolver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/internal/ast"
)

type namedType string

func (n namedType) String() string { return string(n) }

func add(t *testing.T, st *SymbolTable, name string, typ TypeInfo) Handle {
	t.Helper()
	h, err := st.AddVariable(Descriptor{Name: name, Type: typ})
	require.NoError(t, err)
	require.True(t, h.IsValid())
	return h
}

func typeOf(t *testing.T, st *SymbolTable, name string) string {
	t.Helper()
	d, ok := st.Lookup(name)
	require.True(t, ok, "%s not found", name)
	return d.Type.String()
}

func TestMultipleDeclarationsGetDistinctHandles(t *testing.T) {
	st := NewSymbolTable()
	handles := map[Handle]bool{}
	for _, name := range []string{"x", "y", "z"} {
		handles[add(t, st, name, namedType("int32"))] = true
	}
	assert.Len(t, handles, 3)

	for _, name := range []string{"x", "y", "z"} {
		assert.Equal(t, "int32", typeOf(t, st, name))
	}
	_, ok := st.Lookup("unknown")
	assert.False(t, ok)

	for h := range handles {
		d, ok := st.LookupHandle(h)
		require.True(t, ok)
		assert.Equal(t, h, d.Handle)
	}
}

func TestDuplicateInSameScope(t *testing.T) {
	st := NewSymbolTable()
	add(t, st, "x", namedType("int32"))

	h, err := st.AddVariable(Descriptor{Name: "x"})
	assert.Equal(t, InvalidHandle, h)
	assert.ErrorIs(t, err, ErrDuplicateSymbol)
}

func TestShadowingDoesNotLeak(t *testing.T) {
	st := NewSymbolTable()
	add(t, st, "x", namedType("int32"))

	_, err := st.CreateScope()
	require.NoError(t, err)
	add(t, st, "x", namedType("int16"))
	assert.Equal(t, "int16", typeOf(t, st, "x"))
	require.NoError(t, st.LeaveScope())

	assert.Equal(t, "int32", typeOf(t, st, "x"))
}

func TestNamedScopeIsolation(t *testing.T) {
	st := NewSymbolTable()
	add(t, st, "outer", namedType("bool"))

	_, err := st.CreateNamedScope("Point", ScopeKindStruct)
	require.NoError(t, err)
	add(t, st, "px", namedType("int32"))

	assert.Equal(t, "int32", typeOf(t, st, "px"))
	assert.Equal(t, "bool", typeOf(t, st, "outer"), "outer variables stay visible")

	require.NoError(t, st.LeaveScope())
	_, ok := st.Lookup("px")
	assert.False(t, ok)
	assert.Equal(t, "bool", typeOf(t, st, "outer"))

	_, err = st.CreateNamedScope("Point", ScopeKindStruct)
	assert.ErrorIs(t, err, ErrDuplicateScope)
}

func TestLocking(t *testing.T) {
	st := NewSymbolTable()
	st.Lock()
	assert.True(t, st.IsLocked())

	h, err := st.AddVariable(Descriptor{Name: "arg"})
	assert.Equal(t, InvalidHandle, h)
	assert.ErrorIs(t, err, ErrLocked)
	_, ok := st.Lookup("arg")
	assert.False(t, ok)

	st.Unlock()
	h, err = st.AddVariable(Descriptor{Name: "arg"})
	require.NoError(t, err)
	assert.True(t, h.IsValid())
}

func TestLeaveAtRoot(t *testing.T) {
	st := NewSymbolTable()
	assert.ErrorIs(t, st.LeaveScope(), ErrAtRoot)

	st.BeginRead()
	assert.ErrorIs(t, st.LeaveScope(), ErrAtRoot)
}

func TestModeGuards(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.VisitScope()
	assert.ErrorIs(t, err, ErrWrongMode)
	_, err = st.VisitNamedScope("S")
	assert.ErrorIs(t, err, ErrWrongMode)

	st.BeginRead()
	_, err = st.CreateScope()
	assert.ErrorIs(t, err, ErrWrongMode)
	_, err = st.CreateNamedScope("S", ScopeKindStruct)
	assert.ErrorIs(t, err, ErrWrongMode)
	_, err = st.VisitScope()
	assert.ErrorIs(t, err, ErrNoScope)
}

// shape is a fixed tree of scopes: anonymous children and named children,
// in the order a parser would create them.
type shape struct {
	name     string
	children []shape
}

func build(t *testing.T, st *SymbolTable, s shape, created *[]ScopeID) {
	for _, c := range s.children {
		var id ScopeID
		var err error
		if c.name == "" {
			id, err = st.CreateScope()
		} else {
			id, err = st.CreateNamedScope(c.name, ScopeKindStruct)
		}
		require.NoError(t, err)
		*created = append(*created, id)
		build(t, st, c, created)
		require.NoError(t, st.LeaveScope())
	}
}

func visit(t *testing.T, st *SymbolTable, s shape, visited *[]ScopeID) {
	for _, c := range s.children {
		var id ScopeID
		var err error
		if c.name == "" {
			id, err = st.VisitScope()
		} else {
			id, err = st.VisitNamedScope(c.name)
		}
		require.NoError(t, err)
		*visited = append(*visited, id)
		visit(t, st, c, visited)
		require.NoError(t, st.LeaveScope())
	}
}

func TestReadWriteCursorRoundTrip(t *testing.T) {
	tree := shape{children: []shape{
		{children: []shape{{}, {children: []shape{{}}}}},
		{name: "Node", children: []shape{{}, {}}},
		{},
		{children: []shape{{name: "Inner"}, {}, {}}},
	}}

	st := NewSymbolTable()
	var created []ScopeID
	build(t, st, tree, &created)
	assert.Equal(t, GlobalScope, st.Current())

	st.BeginRead()
	var visited []ScopeID
	visit(t, st, tree, &visited)

	assert.Equal(t, created, visited)
	assert.Equal(t, GlobalScope, st.Current())
}

func TestNamedVisitFromNestedScopeRestoresCursor(t *testing.T) {
	st := NewSymbolTable()
	_, _ = st.CreateNamedScope("S", ScopeKindStruct)
	_ = st.LeaveScope()
	first, _ := st.CreateScope()
	inner1, _ := st.CreateScope()
	_ = st.LeaveScope()
	inner2, _ := st.CreateScope()
	_ = st.LeaveScope()
	_ = st.LeaveScope()

	st.BeginRead()
	got, err := st.VisitScope()
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = st.VisitScope()
	require.NoError(t, err)
	assert.Equal(t, inner1, got)

	// From inside inner1, jump to the global struct scope and come back.
	s, err := st.VisitNamedScope("S")
	require.NoError(t, err)
	assert.Equal(t, "S", st.Scope(s).Name)
	require.NoError(t, st.LeaveScope())
	assert.Equal(t, inner1, st.Current())

	require.NoError(t, st.LeaveScope())
	got, err = st.VisitScope()
	require.NoError(t, err)
	assert.Equal(t, inner2, got, "the named detour did not disturb the sibling cursor")
}

func TestVisitNamedScopeWithRestore(t *testing.T) {
	st := NewSymbolTable()
	_, _ = st.CreateNamedScope("Point", ScopeKindStruct)
	add(t, st, "x", namedType("int32"))
	_ = st.LeaveScope()
	block, _ := st.CreateScope()
	_ = st.LeaveScope()

	st.BeginRead()
	var found *Descriptor
	err := st.VisitNamedScopeWithRestore("Point", func(ScopeID) error {
		found, _ = st.LookupLocal("x")
		_, _ = st.VisitNamedScope("Point") // left unbalanced on purpose
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, GlobalScope, st.Current())

	got, err := st.VisitScope()
	require.NoError(t, err)
	assert.Equal(t, block, got)

	err = st.VisitNamedScopeWithRestore("Missing", func(ScopeID) error { return nil })
	assert.ErrorIs(t, err, ErrNoScope)
}

func TestReservedIdentifiers(t *testing.T) {
	st := NewSymbolTable()
	h := add(t, st, "main", nil)
	d, ok := st.LookupHandle(h)
	require.True(t, ok)
	assert.NotEqual(t, "main", d.Name)
	assert.Equal(t, "main", d.Source)
	assert.True(t, d.Attrs.Has(ast.AttrEntryPoint))

	viaName, ok := st.Lookup("main")
	require.True(t, ok)
	assert.Equal(t, h, viaName.Handle)

	p := add(t, st, "print", nil)
	d, _ = st.LookupHandle(p)
	assert.True(t, d.Attrs.Has(ast.AttrNative))

	name, attrs := Rewrite("other")
	assert.Equal(t, "other", name)
	assert.Equal(t, ast.AttrNone, attrs)
}

func TestInvalidateAndSetType(t *testing.T) {
	st := NewSymbolTable()
	h := add(t, st, "field", nil)

	require.NoError(t, st.SetType(h, namedType("int8")))
	assert.ErrorIs(t, st.SetType(h, namedType("int16")), ErrAlreadyTyped)
	assert.Equal(t, "int8", typeOf(t, st, "field"))

	st.Invalidate(h)
	_, ok := st.LookupHandle(h)
	assert.False(t, ok)
	_, ok = st.Lookup("field")
	assert.False(t, ok)
	assert.ErrorIs(t, st.SetType(h, namedType("int8")), ErrNoSymbol)

	next := add(t, st, "other", nil)
	assert.NotEqual(t, h, next, "handles are never reused")
	assert.Len(t, st.Symbols(), 1)
}

func TestDump(t *testing.T) {
	st := NewSymbolTable()
	add(t, st, "count", namedType("int32"))
	_, _ = st.CreateNamedScope("Point", ScopeKindStruct)
	add(t, st, "x", namedType("double"))
	_ = st.LeaveScope()

	var buf bytes.Buffer
	st.Dump(&buf)
	out := buf.String()
	assert.Contains(t, out, "count")
	assert.Contains(t, out, "global/Point")
	assert.Contains(t, out, "double")
	assert.Equal(t, "global/Point", st.Path(2))
}
