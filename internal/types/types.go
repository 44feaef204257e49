// Package types implements the Kestrel type system: the closed set of type
// variants, structural comparison, the implicit conversion table, default
// values, and the resolver that turns type syntax into types.
package types

import (
	"fmt"
	"strings"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

// ====== Core Type System ======

// TypeKind represents the kind of a type in the Kestrel type system
type TypeKind int

const (
	// Primitive types
	TypeKindVoid TypeKind = iota
	TypeKindBool
	TypeKindInt8
	TypeKindInt16
	TypeKindInt32
	TypeKindInt64
	TypeKindUint8
	TypeKindUint16
	TypeKindUint32
	TypeKindUint64
	TypeKindFloat
	TypeKindDouble
	TypeKindChar
	TypeKindString

	// Compound types
	TypeKindPointer
	TypeKindArray
	TypeKindStruct
	TypeKindFunction
	TypeKindEnum
	TypeKindModule
	TypeKindDependentNamed

	// Special types
	TypeKindNull
)

var kindNames = map[TypeKind]string{
	TypeKindVoid:           "void",
	TypeKindBool:           "bool",
	TypeKindInt8:           "int8",
	TypeKindInt16:          "int16",
	TypeKindInt32:          "int32",
	TypeKindInt64:          "int64",
	TypeKindUint8:          "uint8",
	TypeKindUint16:         "uint16",
	TypeKindUint32:         "uint32",
	TypeKindUint64:         "uint64",
	TypeKindFloat:          "float",
	TypeKindDouble:         "double",
	TypeKindChar:           "char",
	TypeKindString:         "string",
	TypeKindPointer:        "pointer",
	TypeKindArray:          "array",
	TypeKindStruct:         "struct",
	TypeKindFunction:       "function",
	TypeKindEnum:           "enum",
	TypeKindModule:         "module",
	TypeKindDependentNamed: "named",
	TypeKindNull:           "null",
}

// String returns the string representation of a TypeKind
func (tk TypeKind) String() string {
	if name, ok := kindNames[tk]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(tk))
}

// IsPrimitive reports whether the kind is one of the builtin types.
func (tk TypeKind) IsPrimitive() bool { return tk <= TypeKindString }

// IsInteger reports whether the kind is a signed or unsigned integer.
func (tk TypeKind) IsInteger() bool { return tk >= TypeKindInt8 && tk <= TypeKindUint64 }

// IsUnsigned reports whether the kind is an unsigned integer.
func (tk TypeKind) IsUnsigned() bool { return tk >= TypeKindUint8 && tk <= TypeKindUint64 }

// IsFloat reports whether the kind is float or double.
func (tk TypeKind) IsFloat() bool { return tk == TypeKindFloat || tk == TypeKindDouble }

// IsNumeric reports whether the kind is an integer or floating point kind.
func (tk TypeKind) IsNumeric() bool { return tk.IsInteger() || tk.IsFloat() }

// builtinSizes is the size in bytes of each primitive kind.
var builtinSizes = map[TypeKind]int{
	TypeKindVoid:   0,
	TypeKindBool:   1,
	TypeKindInt8:   1,
	TypeKindInt16:  2,
	TypeKindInt32:  4,
	TypeKindInt64:  8,
	TypeKindUint8:  1,
	TypeKindUint16: 2,
	TypeKindUint32: 4,
	TypeKindUint64: 8,
	TypeKindFloat:  4,
	TypeKindDouble: 8,
	TypeKindChar:   1,
	TypeKindString: 8,
}

// PointerSize is the size of pointers and function handles.
const PointerSize = 8

// Type represents a type in the Kestrel type system
type Type struct {
	Kind  TypeKind
	Size  int // Size in bytes, 0 for void and unresolved named types
	Attrs ast.Attr
	Data  interface{} // Type-specific data
}

// ====== Compound Types ======

// PointerType represents a pointer type
type PointerType struct {
	Inner *Type
}

// ArrayType represents a fixed-size array type
type ArrayType struct {
	Element *Type
	Count   uint32
}

// Field is a named member of a struct or an argument of a function.
type Field struct {
	Name string
	Type *Type
}

// StructType represents a struct type
type StructType struct {
	Name   string
	Fields []Field
	Scope  resolver.ScopeID
}

// FunctionType represents a function signature
type FunctionType struct {
	Name   string
	Args   []Field
	Return *Type
}

// EnumType represents an enum backed by a named scope
type EnumType struct {
	Name  string
	Scope resolver.ScopeID
}

// ModuleType represents an imported module
type ModuleType struct {
	Name  string
	Scope resolver.ScopeID
}

// DependentNamedType refers to a named scope by name and resolves through
// the symbol table every time it is queried.
type DependentNamedType struct {
	Name  string
	Table *resolver.SymbolTable
	Scope resolver.ScopeID
}

// ====== Type Construction Functions ======

var primitiveKinds = map[string]TypeKind{}

func init() {
	for k := TypeKindVoid; k <= TypeKindString; k++ {
		primitiveKinds[k.String()] = k
	}
}

// NewPrimitiveType creates a new primitive type
func NewPrimitiveType(kind TypeKind) *Type {
	if !kind.IsPrimitive() {
		panic(fmt.Sprintf("types: %s is not primitive", kind))
	}
	return &Type{Kind: kind, Size: builtinSizes[kind]}
}

// PrimitiveByName returns the primitive type spelled name.
func PrimitiveByName(name string) (*Type, bool) {
	k, ok := primitiveKinds[name]
	if !ok {
		return nil, false
	}
	return NewPrimitiveType(k), true
}

// NewPointerType creates a new pointer type
func NewPointerType(inner *Type) *Type {
	return &Type{Kind: TypeKindPointer, Size: PointerSize, Attrs: ast.AttrPointer, Data: &PointerType{Inner: inner}}
}

// NewArrayType creates a new array type
func NewArrayType(element *Type, count uint32) *Type {
	return &Type{
		Kind: TypeKindArray,
		Size: element.SizeOf() * int(count),
		Data: &ArrayType{Element: element, Count: count},
	}
}

// NewStructType creates a new struct type. Its size is the sum of its
// field sizes.
func NewStructType(name string, fields []Field, scope resolver.ScopeID) *Type {
	t := &Type{Kind: TypeKindStruct, Data: &StructType{Name: name, Fields: fields, Scope: scope}}
	for _, f := range fields {
		t.Size += f.Type.SizeOf()
	}
	return t
}

// NewFunctionType creates a new function type
func NewFunctionType(name string, args []Field, ret *Type, attrs ast.Attr) *Type {
	return &Type{
		Kind:  TypeKindFunction,
		Size:  PointerSize,
		Attrs: attrs,
		Data:  &FunctionType{Name: name, Args: args, Return: ret},
	}
}

// NewEnumType creates a new enum type
func NewEnumType(name string, scope resolver.ScopeID) *Type {
	return &Type{Kind: TypeKindEnum, Size: builtinSizes[TypeKindInt32], Data: &EnumType{Name: name, Scope: scope}}
}

// NewModuleType creates a new module type
func NewModuleType(name string, scope resolver.ScopeID) *Type {
	return &Type{Kind: TypeKindModule, Data: &ModuleType{Name: name, Scope: scope}}
}

// NewDependentNamedType creates a lazily resolved reference to the named
// scope id of table.
func NewDependentNamedType(name string, table *resolver.SymbolTable, id resolver.ScopeID) *Type {
	return &Type{Kind: TypeKindDependentNamed, Data: &DependentNamedType{Name: name, Table: table, Scope: id}}
}

// NewNullType is the type of the null literal.
func NewNullType() *Type {
	return &Type{Kind: TypeKindNull, Size: PointerSize, Attrs: ast.AttrRValue}
}

// ====== Accessors ======

// IsPrimitive reports whether t is a builtin type.
func (t *Type) IsPrimitive() bool { return t != nil && t.Kind.IsPrimitive() }

// Attributes returns the attribute set of t.
func (t *Type) Attributes() ast.Attr {
	if t == nil {
		return ast.AttrNone
	}
	return t.Attrs
}

// WithAttrs returns a shallow copy of t with attrs added.
func (t *Type) WithAttrs(attrs ast.Attr) *Type {
	if t == nil {
		return nil
	}
	c := *t
	c.Attrs |= attrs
	return &c
}

// WithoutAttrs returns a shallow copy of t with attrs cleared.
func (t *Type) WithoutAttrs(attrs ast.Attr) *Type {
	if t == nil {
		return nil
	}
	c := *t
	c.Attrs &^= attrs
	return &c
}

// Pointer returns the pointer payload, or nil.
func (t *Type) Pointer() *PointerType { p, _ := t.data().(*PointerType); return p }

// Array returns the array payload, or nil.
func (t *Type) Array() *ArrayType { a, _ := t.data().(*ArrayType); return a }

// Struct returns the struct payload, or nil.
func (t *Type) Struct() *StructType { s, _ := t.data().(*StructType); return s }

// Function returns the function payload, or nil.
func (t *Type) Function() *FunctionType { f, _ := t.data().(*FunctionType); return f }

// Enum returns the enum payload, or nil.
func (t *Type) Enum() *EnumType { e, _ := t.data().(*EnumType); return e }

// Module returns the module payload, or nil.
func (t *Type) Module() *ModuleType { m, _ := t.data().(*ModuleType); return m }

func (t *Type) data() interface{} {
	if t == nil {
		return nil
	}
	return t.Data
}

// Resolve follows a dependent named type to the type its named scope
// stands for. Other types resolve to themselves. The result is nil when the
// scope has no owner type yet.
func (t *Type) Resolve() *Type {
	if t == nil || t.Kind != TypeKindDependentNamed {
		return t
	}
	dn := t.Data.(*DependentNamedType)
	s := dn.Table.Scope(dn.Scope)
	if s == nil || s.OwnerType == nil {
		return nil
	}
	owner, ok := s.OwnerType.(*Type)
	if !ok {
		return nil
	}
	return owner.WithAttrs(t.Attrs)
}

// NamedScope returns the scope a struct, enum, module or dependent named
// type is backed by.
func (t *Type) NamedScope() (resolver.ScopeID, bool) {
	switch d := t.data().(type) {
	case *StructType:
		return d.Scope, d.Scope != resolver.NoScope
	case *EnumType:
		return d.Scope, true
	case *ModuleType:
		return d.Scope, true
	case *DependentNamedType:
		return d.Scope, true
	}
	return resolver.NoScope, false
}

// SizeOf returns the size of t in bytes, resolving named types.
func (t *Type) SizeOf() int {
	if t == nil {
		return 0
	}
	if t.Kind == TypeKindDependentNamed {
		if r := t.Resolve(); r != nil {
			return r.Size
		}
		return 0
	}
	return t.Size
}

// ====== String Representation ======

// String returns the string representation of the type
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	switch d := t.Data.(type) {
	case *PointerType:
		return "*" + d.Inner.String()
	case *ArrayType:
		return fmt.Sprintf("[%d]%s", d.Count, d.Element.String())
	case *StructType:
		if d.Name != "" {
			return d.Name
		}
		var fields []string
		for _, f := range d.Fields {
			fields = append(fields, fmt.Sprintf("%s: %s", f.Name, f.Type))
		}
		return fmt.Sprintf("struct { %s }", strings.Join(fields, "; "))
	case *FunctionType:
		var args []string
		for _, a := range d.Args {
			args = append(args, fmt.Sprintf("%s: %s", a.Name, a.Type))
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(args, ", "), d.Return)
	case *EnumType:
		return d.Name
	case *ModuleType:
		return "module " + d.Name
	case *DependentNamedType:
		return d.Name
	}
	return t.Kind.String()
}
