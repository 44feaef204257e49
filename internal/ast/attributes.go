package ast

import "strings"

// Attr is a set of independent flags carried by declarations, identifiers
// and types. Check membership with Has, never with equality.
type Attr uint16

const (
	AttrRValue Attr = 1 << iota
	AttrFunctionArg
	AttrStructField
	AttrNative
	AttrStatic
	AttrEntryPoint
	AttrPointer
	AttrKeepUninitialized

	AttrNone Attr = 0
)

var attrNames = []struct {
	flag Attr
	name string
}{
	{AttrRValue, "rvalue"},
	{AttrFunctionArg, "function-arg"},
	{AttrStructField, "struct-field"},
	{AttrNative, "native"},
	{AttrStatic, "static"},
	{AttrEntryPoint, "entry-point"},
	{AttrPointer, "pointer"},
	{AttrKeepUninitialized, "keep-uninitialized"},
}

// Has reports whether every flag in f is set.
func (a Attr) Has(f Attr) bool { return a&f == f }

// With returns a with f added.
func (a Attr) With(f Attr) Attr { return a | f }

// Without returns a with f cleared.
func (a Attr) Without(f Attr) Attr { return a &^ f }

func (a Attr) String() string {
	if a == AttrNone {
		return "-"
	}
	var parts []string
	for _, n := range attrNames {
		if a.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
