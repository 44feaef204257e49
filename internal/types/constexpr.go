package types

import (
	"errors"
	"fmt"
	"math"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

var (
	ErrNotConstant    = errors.New("expression is not a compile-time constant")
	ErrDivisionByZero = errors.New("division by zero in constant expression")
	ErrOutOfRange     = errors.New("constant out of range")
)

// maxFoldDepth bounds how many initializers an identifier chain may follow.
const maxFoldDepth = 256

// ConstEvaluator folds integer constant expressions: literals, identifiers
// whose descriptor carries an initializer, unary minus and the four
// arithmetic operators. Identifiers are looked up from the table's current
// scope.
type ConstEvaluator struct {
	arena *ast.Arena
	table *resolver.SymbolTable
}

// NewConstEvaluator creates an evaluator over arena and table.
func NewConstEvaluator(arena *ast.Arena, table *resolver.SymbolTable) *ConstEvaluator {
	if arena == nil || table == nil {
		panic("types: NewConstEvaluator requires an arena and a symbol table")
	}
	return &ConstEvaluator{arena: arena, table: table}
}

// Eval folds expr to an unsigned 32-bit value, as needed for array bounds.
func (e *ConstEvaluator) Eval(expr ast.NodeID) (uint32, error) {
	v, err := e.EvalInt(expr)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%d: %w", v, ErrOutOfRange)
	}
	return uint32(v), nil
}

// EvalInt folds expr to a signed 64-bit value.
func (e *ConstEvaluator) EvalInt(expr ast.NodeID) (int64, error) {
	return e.eval(expr, 0)
}

func (e *ConstEvaluator) eval(id ast.NodeID, depth int) (int64, error) {
	if depth > maxFoldDepth {
		return 0, fmt.Errorf("initializer chain too deep: %w", ErrNotConstant)
	}

	switch n := e.arena.Node(id).(type) {
	case *ast.Literal:
		v, ok := n.Value.AsInt64()
		if !ok {
			return 0, fmt.Errorf("%s literal: %w", n.Value.Kind, ErrNotConstant)
		}
		return v, nil

	case *ast.Identifier:
		d, ok := e.table.Lookup(n.Name)
		if !ok || d.Init == ast.NoNode || d.Init == id {
			return 0, fmt.Errorf("%q: %w", n.Name, ErrNotConstant)
		}
		return e.eval(d.Init, depth+1)

	case *ast.Unary:
		if n.Op != lexer.TokenMinus {
			return 0, fmt.Errorf("unary %s: %w", n.Op, ErrNotConstant)
		}
		v, err := e.eval(n.Operand, depth+1)
		if err != nil {
			return 0, err
		}
		if v == math.MinInt64 {
			return 0, fmt.Errorf("-(%d): %w", v, ErrOutOfRange)
		}
		return -v, nil

	case *ast.Binary:
		l, err := e.eval(n.Left, depth+1)
		if err != nil {
			return 0, err
		}
		r, err := e.eval(n.Right, depth+1)
		if err != nil {
			return 0, err
		}
		return fold(n.Op, l, r)

	case nil:
		return 0, fmt.Errorf("missing expression: %w", ErrNotConstant)
	}
	return 0, fmt.Errorf("%s: %w", e.arena.Kind(id), ErrNotConstant)
}

// fold applies a binary operator, failing instead of wrapping when the
// result does not fit in 64 bits.
func fold(op lexer.TokenType, l, r int64) (int64, error) {
	var v int64
	overflow := false
	switch op {
	case lexer.TokenPlus:
		v = l + r
		overflow = (l > 0 && r > 0 && v < 0) || (l < 0 && r < 0 && v >= 0)
	case lexer.TokenMinus:
		v = l - r
		overflow = (l >= 0 && r < 0 && v < 0) || (l < 0 && r > 0 && v >= 0)
	case lexer.TokenStar:
		v = l * r
		overflow = l != 0 && (v/l != r || (l == -1 && r == math.MinInt64))
	case lexer.TokenSlash:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		if l == math.MinInt64 && r == -1 {
			overflow = true
			break
		}
		v = l / r
	default:
		return 0, fmt.Errorf("binary %s: %w", op, ErrNotConstant)
	}
	if overflow {
		return 0, fmt.Errorf("%d %s %d: %w", l, op, r, ErrOutOfRange)
	}
	return v, nil
}
