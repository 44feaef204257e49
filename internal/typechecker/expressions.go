package typechecker

import (
	"math"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/literal"
	"github.com/kestrel-lang/kestrel/internal/resolver"
	"github.com/kestrel-lang/kestrel/internal/types"
)

var literalTypes = map[literal.Kind]types.TypeKind{
	literal.Int32:  types.TypeKindInt32,
	literal.Uint32: types.TypeKindUint32,
	literal.Int64:  types.TypeKindInt64,
	literal.Uint64: types.TypeKindUint64,
	literal.Float:  types.TypeKindFloat,
	literal.Double: types.TypeKindDouble,
	literal.String: types.TypeKindString,
	literal.Char:   types.TypeKindChar,
	literal.Bool:   types.TypeKindBool,
}

// value types id in a context that needs a value. Naming a struct, enum or
// module on its own is an error there.
func (a *Analyzer) value(id ast.NodeID) *types.Type {
	t := a.expr(id)
	if a.typeRefs[id] {
		a.report(diagnostics.KindTypeUsedAsValue, id, "%s is a type, not a value", t)
		return nil
	}
	return t
}

// expr types an expression and records the result. nil means the type is
// unknown; the cause has already been reported.
func (a *Analyzer) expr(id ast.NodeID) *types.Type {
	var t *types.Type

	switch n := a.arena.Node(id).(type) {
	case *ast.Literal:
		if n.Value.IsNull() {
			t = types.NewNullType()
		} else if kind, ok := literalTypes[n.Value.Kind]; ok {
			t = types.NewPrimitiveType(kind).WithAttrs(ast.AttrRValue)
		}

	case *ast.Identifier:
		t = a.identifier(id, n)

	case *ast.Unary:
		t = a.unary(id, n)

	case *ast.Binary:
		t = a.binary(id, n)

	case *ast.Assignment:
		t = a.assignment(id, n)

	case *ast.FunctionCall:
		t = a.call(id, n)

	case *ast.MemberAccess:
		t = a.member(id, n)

	case *ast.IndexedAccess:
		t = a.index(id, n)

	case *ast.FunctionClosure:
		t = a.resolveType(n.Signature)
		a.closure(id, n, t)

	case nil:
		return nil

	default:
		a.report(diagnostics.KindInvalidOperand, id, "%s is not an expression", a.arena.Kind(id))
		return nil
	}

	return a.record(id, t)
}

func (a *Analyzer) identifier(id ast.NodeID, n *ast.Identifier) *types.Type {
	if d, ok := a.table.Lookup(n.Name); ok {
		a.bind(id, d.Handle)
		t := descriptorType(d)
		if d.Attrs.Has(ast.AttrStatic) {
			t = t.WithAttrs(ast.AttrStatic)
		}
		return t
	}

	if sid, ok := a.table.LookupNamedScope(n.Name); ok {
		a.typeRefs[id] = true
		if owner, ok := a.table.Scope(sid).OwnerType.(*types.Type); ok {
			return owner
		}
		return types.NewDependentNamedType(n.Name, a.table, sid)
	}

	a.report(diagnostics.KindUndeclaredIdentifier, id, "undeclared identifier %q", n.Name)
	return nil
}

func (a *Analyzer) unary(id ast.NodeID, n *ast.Unary) *types.Type {
	t := a.value(n.Operand)
	if t == nil {
		return nil
	}
	r := t.Resolve()
	if r == nil {
		return nil
	}

	switch n.Op {
	case lexer.TokenMinus:
		if r.Kind.IsNumeric() {
			return r.WithAttrs(ast.AttrRValue)
		}
	case lexer.TokenBang:
		if r.Kind == types.TypeKindBool {
			return r.WithAttrs(ast.AttrRValue)
		}
	case lexer.TokenAmpersand:
		if !t.Attributes().Has(ast.AttrRValue) {
			return types.NewPointerType(t.WithoutAttrs(ast.AttrStatic | ast.AttrEntryPoint)).WithAttrs(ast.AttrRValue)
		}
		a.report(diagnostics.KindInvalidOperand, id, "cannot take the address of a temporary %s", t)
		return nil
	case lexer.TokenStar:
		if r.Kind == types.TypeKindPointer {
			return r.Pointer().Inner
		}
	}

	a.report(diagnostics.KindInvalidOperand, id, "invalid operand %s for unary %s", t, n.Op)
	return nil
}

func (a *Analyzer) binary(id ast.NodeID, n *ast.Binary) *types.Type {
	lt, rt := a.value(n.Left), a.value(n.Right)
	if lt == nil || rt == nil {
		return nil
	}
	l, r := lt.Resolve(), rt.Resolve()
	if l == nil || r == nil {
		return nil
	}
	boolean := types.NewPrimitiveType(types.TypeKindBool).WithAttrs(ast.AttrRValue)

	switch n.Op {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash:
		if n.Op == lexer.TokenPlus && l.Kind == types.TypeKindString && r.Kind == types.TypeKindString {
			return l.WithAttrs(ast.AttrRValue)
		}
		if res := arithmetic(l, r); res != nil {
			return res.WithAttrs(ast.AttrRValue)
		}

	case lexer.TokenLt, lexer.TokenLe, lexer.TokenGt, lexer.TokenGe:
		if arithmetic(l, r) != nil || (l.Kind == types.TypeKindChar && r.Kind == types.TypeKindChar) {
			return boolean
		}

	case lexer.TokenEq, lexer.TokenNe:
		if lt.ConvertibleTo(rt) || rt.ConvertibleTo(lt) {
			return boolean
		}

	case lexer.TokenAndAnd, lexer.TokenOrOr:
		if l.Kind == types.TypeKindBool && r.Kind == types.TypeKindBool {
			return boolean
		}
	}

	a.report(diagnostics.KindIncompatibleTypes, id, "invalid operands %s and %s for %s", lt, rt, n.Op)
	return nil
}

// arithmetic returns the result type of a numeric operation, or nil when
// the operands cannot be combined. Integers and floating point numbers do
// not mix; otherwise the wider operand wins.
func arithmetic(l, r *types.Type) *types.Type {
	switch {
	case l.Kind.IsInteger() && r.Kind.IsInteger(), l.Kind.IsFloat() && r.Kind.IsFloat():
		if r.Size > l.Size {
			return r
		}
		return l
	}
	return nil
}

func (a *Analyzer) assignment(id ast.NodeID, n *ast.Assignment) *types.Type {
	target := a.expr(n.Target)
	value := a.value(n.Value)

	if !a.assignableTarget(n.Target) {
		a.report(diagnostics.KindNotAssignable, n.Target, "cannot assign to this expression")
		return nil
	}
	if target == nil {
		return nil
	}
	a.assignable(value, target, n.Value)
	return target.WithAttrs(ast.AttrRValue)
}

func (a *Analyzer) assignableTarget(id ast.NodeID) bool {
	if a.typeRefs[id] {
		return false
	}
	switch n := a.arena.Node(id).(type) {
	case *ast.Identifier:
		t := a.result.Types[id]
		return !t.Attributes().Has(ast.AttrStatic)
	case *ast.MemberAccess:
		return !a.typeRefs[n.Object]
	case *ast.IndexedAccess:
		return true
	case *ast.Unary:
		return n.Op == lexer.TokenStar
	}
	return false
}

func (a *Analyzer) call(id ast.NodeID, n *ast.FunctionCall) *types.Type {
	callee := a.value(n.Callee)
	argTypes := make([]*types.Type, len(n.Args))
	for i, arg := range n.Args {
		argTypes[i] = a.value(arg)
	}
	if callee == nil {
		return nil
	}

	fn := callee.Resolve().Function()
	if fn == nil {
		a.report(diagnostics.KindNotCallable, n.Callee, "%s is not callable", callee)
		return nil
	}
	if len(fn.Args) != len(n.Args) {
		a.report(diagnostics.KindArgumentCountMismatch, id,
			"expected %d arguments, got %d", len(fn.Args), len(n.Args))
	} else {
		for i, arg := range n.Args {
			a.assignable(argTypes[i], fn.Args[i].Type, arg)
		}
	}
	return fn.Return.WithAttrs(ast.AttrRValue)
}

func (a *Analyzer) member(id ast.NodeID, n *ast.MemberAccess) *types.Type {
	obj := a.expr(n.Object)
	if obj == nil {
		return nil
	}

	if a.typeRefs[n.Object] {
		r := obj.Resolve()
		if r != nil && r.Kind == types.TypeKindEnum {
			if d, ok := a.table.LookupIn(r.Enum().Scope, n.Member); ok {
				a.bind(id, d.Handle)
				return r.WithAttrs(ast.AttrRValue)
			}
		}
		if sid, ok := obj.NamedScope(); ok {
			if t, ok := a.nestedScope(id, sid, n.Member); ok {
				return t
			}
		}
		if r != nil && r.Kind == types.TypeKindEnum {
			a.report(diagnostics.KindUndefinedField, id, "enum %s has no enumerator %q", r, n.Member)
		} else {
			a.report(diagnostics.KindUndefinedField, id, "%s has no member %q", obj, n.Member)
		}
		return nil
	}

	r := obj.Resolve()
	if r != nil && r.Kind == types.TypeKindPointer {
		r = r.Pointer().Inner.Resolve()
	}
	if r == nil || r.Kind != types.TypeKindStruct {
		a.report(diagnostics.KindInvalidOperand, id, "%s has no fields", obj)
		return nil
	}

	d, ok := a.table.LookupIn(r.Struct().Scope, n.Member)
	if !ok {
		if t, ok := a.nestedScope(id, r.Struct().Scope, n.Member); ok {
			return t
		}
		a.report(diagnostics.KindUndefinedField, id, "struct %s has no field %q", r, n.Member)
		return nil
	}
	a.bind(id, d.Handle)
	return descriptorType(d)
}

// nestedScope resolves member as a named scope declared directly inside
// scope. The result is a type reference.
func (a *Analyzer) nestedScope(id ast.NodeID, scope resolver.ScopeID, member string) (*types.Type, bool) {
	s := a.table.Scope(scope)
	if s == nil {
		return nil, false
	}
	sid, ok := s.Named[member]
	if !ok {
		return nil, false
	}
	a.typeRefs[id] = true
	if owner, ok := a.table.Scope(sid).OwnerType.(*types.Type); ok {
		return owner, true
	}
	return types.NewDependentNamedType(member, a.table, sid), true
}

func (a *Analyzer) index(id ast.NodeID, n *ast.IndexedAccess) *types.Type {
	obj := a.value(n.Object)
	idx := a.value(n.Index)
	if obj == nil {
		return nil
	}

	if idx != nil {
		if r := idx.Resolve(); r == nil || !r.Kind.IsInteger() {
			a.report(diagnostics.KindInvalidOperand, n.Index, "index must be an integer, got %s", idx)
		}
	}

	switch r := obj.Resolve(); {
	case r != nil && r.Kind == types.TypeKindArray:
		return r.Array().Element
	case r != nil && r.Kind == types.TypeKindPointer:
		return r.Pointer().Inner
	}
	a.report(diagnostics.KindNotIndexable, id, "%s cannot be indexed", obj)
	return nil
}

// ====== Assignability ======

// assignable checks that a value of type from can be stored where to is
// expected. Implicit integer narrowing is allowed with a warning unless the
// value is a literal that fits.
func (a *Analyzer) assignable(from, to *types.Type, node ast.NodeID) {
	if from == nil || to == nil {
		return
	}
	if from.SameAs(to) {
		return
	}
	if !from.ConvertibleTo(to) {
		a.report(diagnostics.KindIncompatibleTypes, node, "cannot use %s as %s", from, to)
		return
	}
	if from.IsNarrowingTo(to) && !a.literalFits(node, to) {
		a.report(diagnostics.KindNarrowingConversion, node, "implicit conversion from %s to %s may lose data", from, to)
	}
}

var integerRanges = map[types.TypeKind][2]float64{
	types.TypeKindInt8:   {math.MinInt8, math.MaxInt8},
	types.TypeKindInt16:  {math.MinInt16, math.MaxInt16},
	types.TypeKindInt32:  {math.MinInt32, math.MaxInt32},
	types.TypeKindInt64:  {math.MinInt64, math.MaxInt64},
	types.TypeKindUint8:  {0, math.MaxUint8},
	types.TypeKindUint16: {0, math.MaxUint16},
	types.TypeKindUint32: {0, math.MaxUint32},
	types.TypeKindUint64: {0, math.MaxUint64},
}

func (a *Analyzer) literalFits(node ast.NodeID, to *types.Type) bool {
	var v int64
	switch n := a.arena.Node(node).(type) {
	case *ast.Literal:
		var ok bool
		if v, ok = n.Value.AsInt64(); !ok {
			return false
		}
	case *ast.Unary:
		lit, ok := ast.Get[*ast.Literal](a.arena, n.Operand)
		if n.Op != lexer.TokenMinus || !ok {
			return false
		}
		if v, ok = lit.Value.AsInt64(); !ok {
			return false
		}
		v = -v
	default:
		return false
	}

	r := to.Resolve()
	if r == nil {
		return false
	}
	bounds, ok := integerRanges[r.Kind]
	return ok && float64(v) >= bounds[0] && float64(v) <= bounds[1]
}
