package types

import "github.com/kestrel-lang/kestrel/internal/ast"

// comparedAttrs are the attributes that take part in SameAs. The remaining
// flags describe how a value is used, not what it is.
const comparedAttrs = ast.AttrStatic | ast.AttrPointer

// maxResolveDepth bounds how many dependent named types SameAs follows
// before it gives up on a comparison.
const maxResolveDepth = 64

// SameAs reports whether t and other are structurally the same type.
func (t *Type) SameAs(other *Type) bool {
	return sameAs(t, other, 0)
}

func sameAs(a, b *Type, depth int) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	if depth > maxResolveDepth {
		return false
	}

	// Two references to the same named scope are the same type without
	// looking inside, which keeps self-referential structs finite.
	if a.Kind == TypeKindDependentNamed && b.Kind == TypeKindDependentNamed {
		da, db := a.Data.(*DependentNamedType), b.Data.(*DependentNamedType)
		if da.Table == db.Table && da.Scope == db.Scope {
			return a.Attrs&comparedAttrs == b.Attrs&comparedAttrs
		}
	}
	if a.Kind == TypeKindDependentNamed || b.Kind == TypeKindDependentNamed {
		if sa, ok := a.NamedScope(); ok {
			if sb, ok := b.NamedScope(); ok && sa == sb && sameTable(a, b) {
				return a.Attrs&comparedAttrs == b.Attrs&comparedAttrs
			}
		}
		ra, rb := a.Resolve(), b.Resolve()
		if ra == nil || rb == nil {
			return false
		}
		return sameAs(ra, rb, depth+1)
	}

	if a.Kind != b.Kind || a.Attrs&comparedAttrs != b.Attrs&comparedAttrs {
		return false
	}

	switch a.Kind {
	case TypeKindPointer:
		return sameAs(a.Pointer().Inner, b.Pointer().Inner, depth+1)
	case TypeKindArray:
		aa, ab := a.Array(), b.Array()
		return aa.Count == ab.Count && sameAs(aa.Element, ab.Element, depth+1)
	case TypeKindStruct:
		sa, sb := a.Struct(), b.Struct()
		if sa.Scope != 0 && sa.Scope == sb.Scope {
			return true
		}
		if len(sa.Fields) != len(sb.Fields) {
			return false
		}
		for i := range sa.Fields {
			if !sameAs(sa.Fields[i].Type, sb.Fields[i].Type, depth+1) {
				return false
			}
		}
		return true
	case TypeKindFunction:
		fa, fb := a.Function(), b.Function()
		if len(fa.Args) != len(fb.Args) {
			return false
		}
		for i := range fa.Args {
			if !sameAs(fa.Args[i].Type, fb.Args[i].Type, depth+1) {
				return false
			}
		}
		return sameAs(fa.Return, fb.Return, depth+1)
	case TypeKindEnum:
		return a.Enum().Scope == b.Enum().Scope
	case TypeKindModule:
		return a.Module().Name == b.Module().Name
	}
	return a.Size == b.Size
}

// sameTable reports whether the dependent operands of a comparison come
// from one symbol table. Concrete types carry no table and always match.
func sameTable(a, b *Type) bool {
	da, okA := a.Data.(*DependentNamedType)
	db, okB := b.Data.(*DependentNamedType)
	if okA && okB {
		return da.Table == db.Table
	}
	return true
}

// conversions lists the implicit conversions allowed besides identity.
// The table is symmetric except where noted.
var conversions = map[TypeKind]map[TypeKind]bool{}

func allow(from, to TypeKind) {
	if conversions[from] == nil {
		conversions[from] = map[TypeKind]bool{}
	}
	conversions[from][to] = true
}

func init() {
	for a := TypeKindInt8; a <= TypeKindUint64; a++ {
		for b := TypeKindInt8; b <= TypeKindUint64; b++ {
			allow(a, b)
		}
	}
	allow(TypeKindFloat, TypeKindDouble)
	allow(TypeKindDouble, TypeKindFloat)

	// one way only
	allow(TypeKindChar, TypeKindString)
	allow(TypeKindNull, TypeKindPointer)
	allow(TypeKindNull, TypeKindFunction)
	allow(TypeKindNull, TypeKindStruct)
}

// ConvertibleTo reports whether a value of type t may be used where other
// is expected without an explicit conversion.
func (t *Type) ConvertibleTo(other *Type) bool {
	if t.SameAs(other) {
		return true
	}
	from, to := t.Resolve(), other.Resolve()
	if from == nil || to == nil {
		return false
	}
	return conversions[from.Kind][to.Kind]
}

// IsNarrowingTo reports whether converting an integer of type t to other
// can change its value: the target is smaller, or it differs in signedness
// and cannot hold every value of t.
func (t *Type) IsNarrowingTo(other *Type) bool {
	from, to := t.Resolve(), other.Resolve()
	if from == nil || to == nil || !from.Kind.IsInteger() || !to.Kind.IsInteger() {
		return false
	}
	switch {
	case from.Size > to.Size:
		return true
	case from.Kind.IsUnsigned() == to.Kind.IsUnsigned():
		return false
	}
	// an unsigned value always fits a wider signed type
	return !from.Kind.IsUnsigned() || from.Size == to.Size
}
