// Package literal defines the typed payload carried by literal tokens and
// literal AST nodes, and produced by the type system as default values.
package literal

import (
	"fmt"
	"strconv"
)

// Kind identifies the concrete type of a literal value.
type Kind int

const (
	Invalid Kind = iota
	Int32
	Uint32
	Int64
	Uint64
	Float
	Double
	String
	Char
	Bool
	Null
)

func (k Kind) String() string {
	switch k {
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case Char:
		return "char"
	case Bool:
		return "bool"
	case Null:
		return "null"
	default:
		return "invalid"
	}
}

// Value is an immutable literal value. Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int64   // Int32, Int64, Char
	Uint  uint64  // Uint32, Uint64
	Float float64 // Float, Double
	Str   string  // String
	Bool  bool    // Bool
}

func NewInt32(v int32) Value    { return Value{Kind: Int32, Int: int64(v)} }
func NewUint32(v uint32) Value  { return Value{Kind: Uint32, Uint: uint64(v)} }
func NewInt64(v int64) Value    { return Value{Kind: Int64, Int: v} }
func NewUint64(v uint64) Value  { return Value{Kind: Uint64, Uint: v} }
func NewFloat(v float32) Value  { return Value{Kind: Float, Float: float64(v)} }
func NewDouble(v float64) Value { return Value{Kind: Double, Float: v} }
func NewString(v string) Value  { return Value{Kind: String, Str: v} }
func NewChar(v byte) Value      { return Value{Kind: Char, Int: int64(v)} }
func NewBool(v bool) Value      { return Value{Kind: Bool, Bool: v} }
func NewNull() Value            { return Value{Kind: Null} }

// IsInteger reports whether the value is one of the integer kinds.
func (v Value) IsInteger() bool {
	switch v.Kind {
	case Int32, Uint32, Int64, Uint64:
		return true
	}
	return false
}

// IsNull reports whether the value is the null handle.
func (v Value) IsNull() bool { return v.Kind == Null }

// AsInt64 returns the value as a signed integer. ok is false for
// non-integer kinds and for unsigned values that do not fit.
func (v Value) AsInt64() (n int64, ok bool) {
	switch v.Kind {
	case Int32, Int64, Char:
		return v.Int, true
	case Uint32, Uint64:
		if v.Uint > 1<<63-1 {
			return 0, false
		}
		return int64(v.Uint), true
	}
	return 0, false
}

// String renders the value the way it would be written in source.
func (v Value) String() string {
	switch v.Kind {
	case Int32:
		return strconv.FormatInt(v.Int, 10)
	case Int64:
		return strconv.FormatInt(v.Int, 10) + "L"
	case Uint32:
		return strconv.FormatUint(v.Uint, 10) + "u"
	case Uint64:
		return strconv.FormatUint(v.Uint, 10) + "uL"
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 32) + "f"
	case Double:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !containsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case String:
		return strconv.Quote(v.Str)
	case Char:
		return quoteChar(byte(v.Int))
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Null:
		return "null"
	default:
		return fmt.Sprintf("<invalid literal %d>", int(v.Kind))
	}
}

func quoteChar(c byte) string {
	switch c {
	case '\n':
		return `'\n'`
	case '\t':
		return `'\t'`
	case '\r':
		return `'\r'`
	case 0:
		return `'\0'`
	case '\\':
		return `'\\'`
	case '\'':
		return `'\''`
	}
	return "'" + string(rune(c)) + "'"
}

func containsAny(s, chars string) bool {
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(chars); j++ {
			if s[i] == chars[j] {
				return true
			}
		}
	}
	return false
}
