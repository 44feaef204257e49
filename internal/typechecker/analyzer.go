// Package typechecker implements the Kestrel semantic analyser.
//
// The analyser makes one pass over the AST in the order the parser built it,
// re-entering the parser's scopes through the symbol table's read mode. It
// types every expression, registers ordinary declarations, back-fills the
// types of forward-declared struct fields and enumerators, and checks
// control flow. Problems are reported to a diagnostics.Sink.
package typechecker

import (
	"fmt"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/position"
	"github.com/kestrel-lang/kestrel/internal/resolver"
	"github.com/kestrel-lang/kestrel/internal/types"
)

// Result is what the analyser hands to later passes together with the
// populated symbol table.
type Result struct {
	// Types holds the type of every expression, declaration, closure and
	// aggregate declaration that could be typed.
	Types map[ast.NodeID]*types.Type
	// Symbols maps declarations to the handles they registered and
	// identifiers to the handle they refer to.
	Symbols map[ast.NodeID][]resolver.Handle
	// Constants holds the folded value of every enumerator.
	Constants map[resolver.Handle]int64
	// Failed is set when at least one error was reported.
	Failed bool

	Errors   int
	Warnings int
}

// TypeOf returns the recorded type of id, or nil.
func (r *Result) TypeOf(id ast.NodeID) *types.Type { return r.Types[id] }

// Analyzer is the semantic analyser for one translation unit.
type Analyzer struct {
	arena    *ast.Arena
	table    *resolver.SymbolTable
	sink     diagnostics.Sink
	resolver *types.Resolver
	eval     *types.ConstEvaluator

	result *Result

	// typeRefs marks identifiers that named a type instead of a value.
	typeRefs map[ast.NodeID]bool

	inLoop     bool
	breakFound bool
	returns    []*types.Type // return types of the enclosing functions
}

// New creates an analyser. Every collaborator is required.
func New(arena *ast.Arena, table *resolver.SymbolTable, sink diagnostics.Sink) *Analyzer {
	switch {
	case arena == nil:
		panic("typechecker: invalid environment: nil arena")
	case table == nil:
		panic("typechecker: invalid environment: nil symbol table")
	case sink == nil:
		panic("typechecker: invalid environment: nil diagnostics sink")
	}
	r := types.NewResolver(arena, table)
	return &Analyzer{
		arena:    arena,
		table:    table,
		sink:     sink,
		resolver: r,
		eval:     r.Evaluator(),
	}
}

// Resolver returns the type resolver bound to the analysed unit.
func (a *Analyzer) Resolver() *types.Resolver { return a.resolver }

// Analyze checks the program rooted at root. The symbol table is switched
// to read mode and rewound first. Analysis registers declarations in the
// table, so a table should be analysed once.
func (a *Analyzer) Analyze(root ast.NodeID) *Result {
	a.result = &Result{
		Types:     make(map[ast.NodeID]*types.Type),
		Symbols:   make(map[ast.NodeID][]resolver.Handle),
		Constants: make(map[resolver.Handle]int64),
	}
	a.typeRefs = make(map[ast.NodeID]bool)
	a.inLoop, a.breakFound, a.returns = false, false, nil

	a.table.BeginRead()
	a.registerBuiltins()

	prog, ok := ast.Get[*ast.Program](a.arena, root)
	if !ok {
		panic(fmt.Sprintf("typechecker: root %d is not a program", root))
	}
	for _, stmt := range prog.Statements {
		a.statement(stmt)
	}

	a.result.Failed = a.result.Errors > 0
	return a.result
}

// registerBuiltins declares the native functions every program can call.
func (a *Analyzer) registerBuiltins() {
	if _, ok := a.table.LookupLocal(resolver.PrintName); ok {
		return
	}
	str := types.NewPrimitiveType(types.TypeKindString)
	void := types.NewPrimitiveType(types.TypeKindVoid)
	print := types.NewFunctionType(resolver.PrintName,
		[]types.Field{{Name: "value", Type: str.WithAttrs(ast.AttrFunctionArg)}}, void, ast.AttrNative)

	if _, err := a.table.AddVariable(resolver.Descriptor{Name: resolver.PrintName, Type: print, Attrs: ast.AttrNative}); err != nil {
		panic(fmt.Sprintf("typechecker: registering builtins: %v", err))
	}
}

// ====== Reporting ======

func (a *Analyzer) report(kind diagnostics.Kind, id ast.NodeID, format string, args ...interface{}) {
	a.reportSpan(kind, a.arena.Span(id), format, args...)
}

func (a *Analyzer) reportAt(kind diagnostics.Kind, pos position.Position, format string, args ...interface{}) {
	a.reportSpan(kind, position.SpanAt(pos), format, args...)
}

func (a *Analyzer) reportSpan(kind diagnostics.Kind, span position.Span, format string, args ...interface{}) {
	d := diagnostics.Semantic(kind, span, format, args...)
	switch d.Level {
	case diagnostics.DiagnosticError:
		a.result.Errors++
	case diagnostics.DiagnosticWarning:
		a.result.Warnings++
	}
	a.sink.Report(d)
}

func (a *Analyzer) reportResolve(err error, fallback ast.NodeID) {
	if re, ok := types.AsResolveError(err); ok {
		a.result.Errors++
		a.sink.Report(re.Diagnostic())
		return
	}
	a.report(diagnostics.KindUndefinedType, fallback, "%v", err)
}

// ====== Helpers ======

// typeInfo converts t for storage in a descriptor without producing a
// non-nil interface around a nil pointer.
func typeInfo(t *types.Type) resolver.TypeInfo {
	if t == nil {
		return nil
	}
	return t
}

// descriptorType returns the type stored in d, or nil when it is unknown.
func descriptorType(d *resolver.Descriptor) *types.Type {
	t, _ := d.Type.(*types.Type)
	return t
}

func (a *Analyzer) record(id ast.NodeID, t *types.Type) *types.Type {
	if t != nil {
		a.result.Types[id] = t
	}
	return t
}

func (a *Analyzer) bind(id ast.NodeID, h resolver.Handle) {
	a.result.Symbols[id] = append(a.result.Symbols[id], h)
}

// resolveType resolves type syntax. A bare function signature is resolved
// with the table locked so that argument names cannot leak into the
// enclosing scope.
func (a *Analyzer) resolveType(id ast.NodeID) *types.Type {
	if a.arena.Kind(id) == ast.KindFunctionDecl {
		a.table.Lock()
		defer a.table.Unlock()
	}
	t, err := a.resolver.Resolve(id)
	if err != nil {
		a.reportResolve(err, id)
		return nil
	}
	return t
}

// enter visits the next anonymous scope. A mismatch means the parser and
// the analyser disagree on the tree shape.
func (a *Analyzer) enter() {
	if _, err := a.table.VisitScope(); err != nil {
		panic(fmt.Sprintf("typechecker: scope walk out of step: %v", err))
	}
}

func (a *Analyzer) leave() {
	if err := a.table.LeaveScope(); err != nil {
		panic(fmt.Sprintf("typechecker: scope walk out of step: %v", err))
	}
}
