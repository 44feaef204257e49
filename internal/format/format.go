// Package format prints Kestrel programs in canonical form.
//
// The printer works on a parsed unit: indentation, spacing and parentheses
// are derived from the tree, so two programs that parse to the same tree
// print identically. Comments are not preserved.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/parser"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

// ErrSyntax is returned by File when the input does not parse.
var ErrSyntax = errors.New("source has syntax errors")

// Options controls formatting style.
type Options struct {
	// IndentSize is the number of spaces per level when PreferTabs is off.
	IndentSize int
	// PreferTabs indents with one tab per level.
	PreferTabs bool
	// PreserveNewlineStyle keeps CRLF line endings when the input uses them.
	PreserveNewlineStyle bool
}

// DefaultOptions returns sane defaults.
func DefaultOptions() Options {
	return Options{IndentSize: 4, PreserveNewlineStyle: true}
}

// Source prints the program rooted at root.
func Source(arena *ast.Arena, root ast.NodeID, opts Options) string {
	p := &printer{arena: arena, opts: opts}
	prog, ok := ast.Get[*ast.Program](arena, root)
	if !ok {
		panic(fmt.Sprintf("format: root %d is not a program", root))
	}
	for _, stmt := range prog.Statements {
		p.stmt(stmt)
	}
	return p.buf.String()
}

// File parses src and returns its canonical form. When the input has
// syntax errors they go to sink and nothing is printed.
func File(name, src string, opts Options, sink diagnostics.Sink) (string, error) {
	if sink == nil {
		sink = diagnostics.Discard
	}
	errs := 0
	counting := diagnostics.SinkFunc(func(d diagnostics.Diagnostic) {
		if d.Level == diagnostics.DiagnosticError {
			errs++
		}
		sink.Report(d)
	})

	lex := lexer.NewFromString(name, src, counting)
	arena := ast.NewArena()
	root := parser.Parse(lex, resolver.NewSymbolTable(), arena, counting, moduleName(name))
	if errs > 0 {
		return "", fmt.Errorf("%s: %d errors: %w", name, errs, ErrSyntax)
	}

	out := Source(arena, root, opts)
	if opts.PreserveNewlineStyle && strings.Contains(src, "\r\n") {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	return out, nil
}

func moduleName(file string) string {
	name := file
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".kst")
}
