package types

import "github.com/kestrel-lang/kestrel/internal/literal"

// DefaultValue returns the value a variable of type t holds when it is
// declared without an initializer. Aggregates, pointers and functions
// default to null. Named types default through their resolved type, except
// that a named struct reference stays null without being expanded.
func (t *Type) DefaultValue() literal.Value {
	if t == nil {
		return literal.NewNull()
	}

	switch t.Kind {
	case TypeKindInt8, TypeKindInt16, TypeKindInt32, TypeKindUint8, TypeKindUint16:
		return literal.NewInt32(0)
	case TypeKindUint32:
		return literal.NewUint32(0)
	case TypeKindInt64:
		return literal.NewInt64(0)
	case TypeKindUint64:
		return literal.NewUint64(0)
	case TypeKindFloat:
		return literal.NewFloat(0)
	case TypeKindDouble:
		return literal.NewDouble(0)
	case TypeKindBool:
		return literal.NewBool(true)
	case TypeKindChar:
		return literal.NewChar(0)
	case TypeKindString:
		return literal.NewString("")
	case TypeKindEnum:
		return literal.NewInt32(0)
	case TypeKindDependentNamed:
		if r := t.Resolve(); r != nil && r.Kind == TypeKindEnum {
			return literal.NewInt32(0)
		}
		return literal.NewNull()
	}
	return literal.NewNull()
}

// FieldDefaults returns the default value of every field of a struct type,
// in declaration order. Fields that refer back to a struct are not expanded.
func (t *Type) FieldDefaults() []literal.Value {
	r := t.Resolve()
	if r == nil || r.Struct() == nil {
		return nil
	}
	fields := r.Struct().Fields
	out := make([]literal.Value, len(fields))
	for i, f := range fields {
		out[i] = f.Type.DefaultValue()
	}
	return out
}
