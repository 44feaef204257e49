package types

import (
	"errors"
	"fmt"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/position"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

// ResolveError reports type syntax that does not denote a valid type.
type ResolveError struct {
	Kind    diagnostics.Kind
	Pos     position.Position
	Message string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Diagnostic converts e into a semantic diagnostic.
func (e *ResolveError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.Semantic(e.Kind, position.SpanAt(e.Pos), "%s", e.Message)
}

// AsResolveError unwraps err into a *ResolveError.
func AsResolveError(err error) (*ResolveError, bool) {
	var re *ResolveError
	ok := errors.As(err, &re)
	return re, ok
}

var primitiveTokens = map[lexer.TokenType]TypeKind{
	lexer.TokenInt8:   TypeKindInt8,
	lexer.TokenInt16:  TypeKindInt16,
	lexer.TokenInt32:  TypeKindInt32,
	lexer.TokenInt64:  TypeKindInt64,
	lexer.TokenUint8:  TypeKindUint8,
	lexer.TokenUint16: TypeKindUint16,
	lexer.TokenUint32: TypeKindUint32,
	lexer.TokenUint64: TypeKindUint64,
	lexer.TokenFloat:  TypeKindFloat,
	lexer.TokenDouble: TypeKindDouble,
	lexer.TokenBool:   TypeKindBool,
	lexer.TokenChar:   TypeKindChar,
	lexer.TokenString: TypeKindString,
	lexer.TokenVoid:   TypeKindVoid,
}

// Resolver turns type syntax into types. Names are looked up from the
// symbol table's current scope.
type Resolver struct {
	arena *ast.Arena
	table *resolver.SymbolTable
	eval  *ConstEvaluator
}

// NewResolver creates a resolver over arena and table.
func NewResolver(arena *ast.Arena, table *resolver.SymbolTable) *Resolver {
	if arena == nil || table == nil {
		panic("types: NewResolver requires an arena and a symbol table")
	}
	return &Resolver{arena: arena, table: table, eval: NewConstEvaluator(arena, table)}
}

// Evaluator returns the constant evaluator used for array bounds.
func (r *Resolver) Evaluator() *ConstEvaluator { return r.eval }

func (r *Resolver) errorf(id ast.NodeID, kind diagnostics.Kind, format string, args ...interface{}) error {
	return &ResolveError{Kind: kind, Pos: r.arena.Pos(id), Message: fmt.Sprintf(format, args...)}
}

// Resolve returns the type denoted by node id.
func (r *Resolver) Resolve(id ast.NodeID) (*Type, error) {
	switch n := r.arena.Node(id).(type) {
	case *ast.PrimitiveType:
		kind, ok := primitiveTokens[n.Prim]
		if !ok {
			return nil, r.errorf(id, diagnostics.KindUndefinedType, "%s is not a type", n.Prim)
		}
		return NewPrimitiveType(kind), nil

	case *ast.PointerType:
		inner, err := r.Resolve(n.Inner)
		if err != nil {
			return nil, err
		}
		return NewPointerType(inner), nil

	case *ast.ArrayType:
		return r.resolveArray(id, n)

	case *ast.NamedType:
		scope, ok := r.table.LookupNamedScope(n.Name)
		if !ok {
			return nil, r.errorf(id, diagnostics.KindUndefinedType, "undefined type %q", n.Name)
		}
		return NewDependentNamedType(n.Name, r.table, scope), nil

	case *ast.StructDecl:
		return r.resolveStruct(id, n)

	case *ast.EnumDecl:
		scope, ok := r.table.LookupNamedScope(n.Name)
		if !ok {
			return nil, r.errorf(id, diagnostics.KindUndefinedType, "undefined enum %q", n.Name)
		}
		return NewEnumType(n.Name, scope), nil

	case *ast.FunctionDecl:
		return r.resolveFunction(n)

	case *ast.FunctionClosure:
		return r.Resolve(n.Signature)

	case nil:
		return nil, r.errorf(id, diagnostics.KindUndefinedType, "missing type")
	}
	return nil, r.errorf(id, diagnostics.KindUndefinedType, "%s does not denote a type", r.arena.Kind(id))
}

func (r *Resolver) resolveArray(id ast.NodeID, n *ast.ArrayType) (*Type, error) {
	elem, err := r.Resolve(n.Element)
	if err != nil {
		return nil, err
	}
	count, err := r.eval.Eval(n.Size)
	if err != nil {
		return nil, r.errorf(id, diagnostics.KindConstantRequired, "array size: %v", err)
	}
	return NewArrayType(elem, count), nil
}

func (r *Resolver) resolveStruct(id ast.NodeID, n *ast.StructDecl) (*Type, error) {
	var (
		fields []Field
		scope  resolver.ScopeID
	)
	err := r.table.VisitNamedScopeWithRestore(n.Name, func(sid resolver.ScopeID) error {
		scope = sid
		for _, fid := range n.Fields {
			decl, ok := ast.Get[*ast.Declaration](r.arena, fid)
			if !ok {
				continue
			}
			if decl.Deferred || decl.TypeNode == ast.NoNode {
				return r.errorf(fid, diagnostics.KindUndefinedType, "field %q has no declared type", decl.Names[0])
			}
			ft, err := r.Resolve(decl.TypeNode)
			if err != nil {
				return err
			}
			for _, name := range decl.Names {
				fields = append(fields, Field{Name: name, Type: ft})
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := AsResolveError(err); ok {
			return nil, err
		}
		return nil, r.errorf(id, diagnostics.KindUndefinedType, "undefined struct %q", n.Name)
	}

	for _, f := range fields {
		if embeds(f.Type, scope, map[resolver.ScopeID]bool{}) {
			return nil, r.errorf(id, diagnostics.KindInvalidRecursiveType,
				"struct %q contains itself through field %q; use a pointer", n.Name, f.Name)
		}
	}
	return NewStructType(n.Name, fields, scope), nil
}

// embeds reports whether a value of type t holds the struct backed by scope
// by value, directly or through the fields of other structs.
func embeds(t *Type, scope resolver.ScopeID, seen map[resolver.ScopeID]bool) bool {
	for t != nil && t.Kind == TypeKindArray {
		t = t.Array().Element
	}
	if t == nil || (t.Kind != TypeKindStruct && t.Kind != TypeKindDependentNamed) {
		return false
	}
	s, ok := t.NamedScope()
	if !ok {
		return false
	}
	if s == scope {
		return true
	}
	if seen[s] {
		return false
	}
	seen[s] = true

	st := t.Resolve().Struct()
	if st == nil {
		return false
	}
	for _, f := range st.Fields {
		if embeds(f.Type, scope, seen) {
			return true
		}
	}
	return false
}

func (r *Resolver) resolveFunction(n *ast.FunctionDecl) (*Type, error) {
	var args []Field
	if list, ok := ast.Get[*ast.FunctionArgs](r.arena, n.Args); ok {
		for _, aid := range list.Args {
			decl, ok := ast.Get[*ast.Declaration](r.arena, aid)
			if !ok {
				continue
			}
			if len(decl.Names) != 1 {
				return nil, r.errorf(aid, diagnostics.KindMultipleParametersPerArgument,
					"only one parameter per argument declaration is allowed, got %d", len(decl.Names))
			}
			at, err := r.Resolve(decl.TypeNode)
			if err != nil {
				return nil, err
			}
			args = append(args, Field{Name: decl.Names[0], Type: at.WithAttrs(decl.Attrs | ast.AttrFunctionArg)})
		}
	}

	ret := NewPrimitiveType(TypeKindVoid)
	if n.Return != ast.NoNode {
		var err error
		if ret, err = r.Resolve(n.Return); err != nil {
			return nil, err
		}
	}
	return NewFunctionType("", args, ret, ast.AttrNone), nil
}
