package resolver

import "github.com/kestrel-lang/kestrel/internal/ast"

const (
	// EntryPointName is the source name of the program entry point.
	EntryPointName = "main"
	// PrintName is the source name bound to the native print primitive.
	PrintName = "print"
)

type reservedName struct {
	internal string
	attrs    ast.Attr
}

var reservedNames = map[string]reservedName{
	EntryPointName: {internal: "__kestrel_entry", attrs: ast.AttrEntryPoint},
	PrintName:      {internal: "__kestrel_native_print", attrs: ast.AttrNative},
}

// Rewrite maps a source identifier to the internal identifier it is stored
// under, with the attributes that come with it. Other names map to themselves.
func Rewrite(name string) (string, ast.Attr) {
	if r, ok := reservedNames[name]; ok {
		return r.internal, r.attrs
	}
	return name, ast.AttrNone
}
