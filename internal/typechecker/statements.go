package typechecker

import (
	"errors"

	mapset "github.com/deckarep/golang-set"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/resolver"
	"github.com/kestrel-lang/kestrel/internal/types"
)

func (a *Analyzer) statement(id ast.NodeID) {
	switch n := a.arena.Node(id).(type) {
	case *ast.Block:
		a.enter()
		a.statements(n.Statements)
		a.leave()

	case *ast.Declaration:
		a.declaration(id, n)

	case *ast.Definition:
		a.definition(id, n)

	case *ast.If:
		a.condition(n.Cond)
		a.statement(n.Then)
		if n.Else != ast.NoNode {
			a.statement(n.Else)
		}

	case *ast.Loop:
		a.loop(id, n)

	case *ast.While:
		a.condition(n.Cond)
		inLoop, breakFound := a.inLoop, a.breakFound
		a.inLoop = true
		a.statement(n.Body)
		a.inLoop, a.breakFound = inLoop, breakFound

	case *ast.Break:
		if !a.inLoop {
			a.report(diagnostics.KindLoopInterruptionNotAllowed, id, "break is only allowed inside a loop")
			return
		}
		a.breakFound = true

	case *ast.Continue:
		if !a.inLoop {
			a.report(diagnostics.KindLoopInterruptionNotAllowed, id, "continue is only allowed inside a loop")
		}

	case *ast.Return:
		a.returnStmt(id, n)

	case *ast.StructDecl:
		a.structDecl(id, n)

	case *ast.EnumDecl:
		a.enumDecl(id, n)

	case *ast.Import:
		if sid, ok := a.table.LookupNamedScope(n.ModuleName()); ok {
			mt := types.NewModuleType(n.ModuleName(), sid)
			_ = a.table.SetOwnerType(sid, mt)
			a.record(id, mt)
		}

	case nil:

	default:
		a.value(id)
	}
}

func (a *Analyzer) statements(ids []ast.NodeID) {
	for _, s := range ids {
		a.statement(s)
	}
}

func (a *Analyzer) condition(id ast.NodeID) {
	t := a.value(id)
	if t == nil {
		return
	}
	if r := t.Resolve(); r == nil || r.Kind != types.TypeKindBool {
		a.report(diagnostics.KindConditionNotBoolean, id, "condition must be bool, got %s", t)
	}
}

func (a *Analyzer) loop(id ast.NodeID, n *ast.Loop) {
	inLoop, breakFound := a.inLoop, a.breakFound
	a.inLoop, a.breakFound = true, false

	if body, ok := ast.Get[*ast.Block](a.arena, n.Body); ok && len(body.Statements) == 0 {
		a.report(diagnostics.KindRedundantInfiniteLoop, id, "possibly redundant infinite loop with an empty body")
	}
	a.statement(n.Body)
	if !a.breakFound {
		a.report(diagnostics.KindLoopWithoutBreak, id, "no break found in infinite loop")
	}

	a.inLoop, a.breakFound = inLoop, breakFound
}

func (a *Analyzer) returnStmt(id ast.NodeID, n *ast.Return) {
	var got *types.Type
	if n.Value != ast.NoNode {
		if got = a.value(n.Value); got == nil {
			return
		}
	} else {
		got = types.NewPrimitiveType(types.TypeKindVoid)
	}

	if len(a.returns) == 0 {
		a.report(diagnostics.KindReturnOutsideFunction, id, "return outside of a function")
		return
	}
	want := a.returns[len(a.returns)-1]
	if want == nil {
		return
	}
	if !got.SameAs(want) && !got.ConvertibleTo(want) {
		a.report(diagnostics.KindReturnTypeMismatch, id, "cannot return %s from a function returning %s", got, want)
	}
}

// ====== Declarations ======

func (a *Analyzer) declaration(id ast.NodeID, d *ast.Declaration) {
	var typ *types.Type

	inferred := d.Deferred || a.arena.Settled(id)
	switch {
	case inferred && a.arena.Kind(d.Init) == ast.KindFunctionClosure:
		a.deferredClosure(id, d)
		return

	case inferred:
		typ = a.inferred(d.Init)
		if err := a.arena.SettleDeferred(id); err != nil && !errors.Is(err, ast.ErrAlreadySettled) {
			panic(err)
		}

	default:
		typ = a.resolveType(d.TypeNode)
		if d.Init != ast.NoNode {
			a.assignable(a.value(d.Init), typ, d.Init)
		}
	}

	if typ != nil && typ.Resolve() != nil && typ.Resolve().Kind == types.TypeKindVoid {
		a.report(diagnostics.KindIncompatibleTypes, id, "variable cannot have type void")
		typ = nil
	}
	a.record(id, typ)
	a.declare(id, d.Names, typ, d.Init, d.Attrs)
}

// inferred types the initializer of `x := e`.
func (a *Analyzer) inferred(init ast.NodeID) *types.Type {
	t := a.value(init)
	if t == nil {
		return nil
	}
	if t.Kind == types.TypeKindNull {
		a.report(diagnostics.KindIncompatibleTypes, init, "cannot infer a type from null")
		return nil
	}
	return t.WithoutAttrs(ast.AttrRValue | ast.AttrStatic)
}

// declare registers names in the current scope.
func (a *Analyzer) declare(id ast.NodeID, names []string, typ *types.Type, init ast.NodeID, attrs ast.Attr) {
	for _, name := range names {
		t := typ
		if _, extra := resolver.Rewrite(name); extra.Has(ast.AttrEntryPoint) && t != nil {
			t = t.WithAttrs(ast.AttrEntryPoint)
		}
		h, err := a.table.AddVariable(resolver.Descriptor{
			Name:  name,
			Init:  init,
			Type:  typeInfo(t),
			Attrs: attrs,
			Pos:   a.arena.Pos(id),
		})
		if err != nil {
			a.report(diagnostics.KindAlreadyDeclared, id, "%q is already declared in this scope", name)
			continue
		}
		a.bind(id, h)
	}
}

// definition checks `name: signature = closure;`.
func (a *Analyzer) definition(id ast.NodeID, def *ast.Definition) {
	decl, _ := ast.Get[*ast.Declaration](a.arena, def.Decl)
	closure, _ := ast.Get[*ast.FunctionClosure](a.arena, def.Closure)

	declared := a.resolveType(decl.TypeNode)
	actual := a.resolveType(closure.Signature)
	if declared != nil && actual != nil && !declared.SameAs(actual) {
		a.report(diagnostics.KindIncompatibleLambdaType, id,
			"closure of type %s does not match the declared type %s", actual, declared)
	}

	if len(decl.Names) != 1 {
		a.report(diagnostics.KindSingleIdentifierPerDefinition, id,
			"a function definition takes exactly one identifier, got %d", len(decl.Names))
	} else {
		typ := declared
		if typ == nil {
			typ = actual
		}
		a.record(def.Decl, typ)
		a.record(id, typ)
		// Registered before the body so that the function can call itself.
		a.declare(id, decl.Names, typ, ast.NoNode, decl.Attrs)
	}

	a.closure(def.Closure, closure, actual)
}

// deferredClosure handles `name := closure;`.
func (a *Analyzer) deferredClosure(id ast.NodeID, d *ast.Declaration) {
	closure, _ := ast.Get[*ast.FunctionClosure](a.arena, d.Init)
	typ := a.resolveType(closure.Signature)
	if err := a.arena.SettleDeferred(id); err != nil && !errors.Is(err, ast.ErrAlreadySettled) {
		panic(err)
	}

	if len(d.Names) != 1 {
		a.report(diagnostics.KindSingleIdentifierPerDefinition, id,
			"a function definition takes exactly one identifier, got %d", len(d.Names))
	} else {
		a.record(id, typ)
		a.declare(id, d.Names, typ, ast.NoNode, d.Attrs)
	}
	a.closure(d.Init, closure, typ)
}

// closure checks the capture list, then analyses the body inside the
// closure's scope with the arguments declared.
func (a *Analyzer) closure(id ast.NodeID, c *ast.FunctionClosure, fn *types.Type) {
	seen := mapset.NewSet()
	for i, name := range c.Captures {
		pos := a.arena.Pos(id)
		if i < len(c.CapturePos) {
			pos = c.CapturePos[i]
		}
		if !seen.Add(name) {
			a.reportAt(diagnostics.KindDuplicateCapture, pos, "%q is captured more than once", name)
			continue
		}
		if _, ok := a.table.Lookup(name); !ok {
			a.reportAt(diagnostics.KindUndeclaredIdentifier, pos, "captured identifier %q is not declared", name)
		}
	}
	a.record(id, fn)

	a.enter()
	defer a.leave()

	var (
		argTypes []types.Field
		ret      *types.Type
	)
	if fn != nil && fn.Function() != nil {
		argTypes = fn.Function().Args
		ret = fn.Function().Return
	}

	sig, _ := ast.Get[*ast.FunctionDecl](a.arena, c.Signature)
	if args, ok := ast.Get[*ast.FunctionArgs](a.arena, sig.Args); ok {
		i := 0
		for _, argID := range args.Args {
			arg, _ := ast.Get[*ast.Declaration](a.arena, argID)
			for _, name := range arg.Names {
				var t *types.Type
				if i < len(argTypes) && len(arg.Names) == 1 {
					t = argTypes[i].Type
				}
				a.record(argID, t)
				a.declare(argID, []string{name}, t, ast.NoNode, arg.Attrs|ast.AttrFunctionArg)
			}
			i++
		}
	}

	inLoop, breakFound := a.inLoop, a.breakFound
	a.inLoop, a.breakFound = false, false
	a.returns = append(a.returns, ret)

	if body, ok := ast.Get[*ast.Block](a.arena, c.Body); ok {
		a.statements(body.Statements)
	}

	a.returns = a.returns[:len(a.returns)-1]
	a.inLoop, a.breakFound = inLoop, breakFound
}

// ====== Aggregates ======

// structDecl resolves the struct type, publishes it on the struct's named
// scope, and back-fills the type of every field the parser registered.
func (a *Analyzer) structDecl(id ast.NodeID, n *ast.StructDecl) {
	t, err := a.resolver.Resolve(id)
	if err != nil {
		a.reportResolve(err, id)
	}
	sid, ok := a.table.LookupNamedScope(n.Name)
	if !ok {
		return
	}
	if t != nil {
		_ = a.table.SetOwnerType(sid, t)
		a.record(id, t)
	}

	if _, err := a.table.VisitNamedScope(n.Name); err != nil {
		return
	}
	defer a.leave()

	var fields []types.Field
	if t != nil {
		fields = t.Struct().Fields
	}
	i := 0
	for _, fid := range n.Fields {
		decl, _ := ast.Get[*ast.Declaration](a.arena, fid)
		for _, name := range decl.Names {
			var ft *types.Type
			if i < len(fields) {
				ft = fields[i].Type
			}
			i++
			d, ok := a.table.LookupLocal(name)
			if !ok {
				continue
			}
			if ft != nil {
				_ = a.table.SetType(d.Handle, ft)
			}
			a.bind(fid, d.Handle)
			a.record(fid, ft)
		}
		if decl.Init != ast.NoNode && i > 0 && i <= len(fields) {
			a.assignable(a.value(decl.Init), fields[i-1].Type, decl.Init)
		}
	}
}

// enumDecl publishes the enum type and folds every enumerator.
func (a *Analyzer) enumDecl(id ast.NodeID, n *ast.EnumDecl) {
	t, err := a.resolver.Resolve(id)
	if err != nil {
		a.reportResolve(err, id)
		return
	}
	sid := t.Enum().Scope
	_ = a.table.SetOwnerType(sid, t)
	a.record(id, t)

	if _, err := a.table.VisitNamedScope(n.Name); err != nil {
		return
	}
	defer a.leave()

	valueType := types.NewPrimitiveType(types.TypeKindInt32)
	member := t.WithAttrs(ast.AttrStatic)
	for _, eid := range n.Enumerators {
		decl, _ := ast.Get[*ast.Declaration](a.arena, eid)
		name := decl.Names[0]
		d, ok := a.table.LookupLocal(name)
		if !ok {
			continue
		}
		_ = a.table.SetType(d.Handle, member)
		a.bind(eid, d.Handle)
		a.record(eid, member)

		v, err := a.eval.EvalInt(decl.Init)
		if err != nil {
			a.report(diagnostics.KindConstantRequired, decl.Init, "enumerator %q: %v", name, err)
			continue
		}
		if v < -1<<31 || v > 1<<31-1 {
			a.report(diagnostics.KindConstantRequired, decl.Init, "enumerator %q: value %d does not fit in int32", name, v)
			continue
		}
		a.result.Constants[d.Handle] = v
		a.record(decl.Init, valueType)
	}
}
