package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/parser"
)

type printer struct {
	arena *ast.Arena
	opts  Options
	depth int
	buf   strings.Builder
}

// ====== Writing helpers ======

func (p *printer) writeIndent() {
	if p.opts.PreferTabs {
		p.buf.WriteString(strings.Repeat("\t", p.depth))
		return
	}
	p.buf.WriteString(strings.Repeat(" ", p.depth*p.opts.IndentSize))
}

func (p *printer) line(format string, args ...interface{}) {
	p.writeIndent()
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

func (p *printer) body(stmts []ast.NodeID) {
	p.depth++
	for _, s := range stmts {
		p.stmt(s)
	}
	p.depth--
}

func (p *printer) block(id ast.NodeID) {
	if b, ok := ast.Get[*ast.Block](p.arena, id); ok {
		p.body(b.Statements)
	}
}

// ====== Statements ======

func (p *printer) stmt(id ast.NodeID) {
	switch n := p.arena.Node(id).(type) {
	case *ast.Block:
		p.line("{")
		p.body(n.Statements)
		p.line("}")

	case *ast.Declaration:
		if c, ok := ast.Get[*ast.FunctionClosure](p.arena, n.Init); ok {
			p.closure(strings.Join(n.Names, ", ")+" := ", c)
			return
		}
		p.line("%s;", p.decl(id, n))

	case *ast.Definition:
		decl, _ := ast.Get[*ast.Declaration](p.arena, n.Decl)
		c, _ := ast.Get[*ast.FunctionClosure](p.arena, n.Closure)
		p.closure(fmt.Sprintf("%s: %s = ", strings.Join(decl.Names, ", "), p.typ(decl.TypeNode)), c)

	case *ast.If:
		p.ifChain(n, false)

	case *ast.Loop:
		p.line("loop {")
		p.block(n.Body)
		p.line("}")

	case *ast.While:
		p.line("while %s {", p.expr(n.Cond))
		p.block(n.Body)
		p.line("}")

	case *ast.Return:
		if n.Value == ast.NoNode {
			p.line("return;")
			return
		}
		p.line("return %s;", p.expr(n.Value))

	case *ast.Break:
		p.line("break;")

	case *ast.Continue:
		p.line("continue;")

	case *ast.StructDecl:
		p.line("struct %s {", n.Name)
		p.depth++
		for _, f := range n.Fields {
			d, _ := ast.Get[*ast.Declaration](p.arena, f)
			p.line("%s;", p.decl(f, d))
		}
		p.depth--
		p.line("}")

	case *ast.EnumDecl:
		p.line("enum %s {", n.Name)
		p.depth++
		for _, e := range n.Enumerators {
			d, _ := ast.Get[*ast.Declaration](p.arena, e)
			if p.synthesized(e, d) {
				p.line("%s,", d.Names[0])
				continue
			}
			p.line("%s = %s,", d.Names[0], p.expr(d.Init))
		}
		p.depth--
		p.line("}")

	case *ast.Import:
		p.line("import %s;", strconv.Quote(n.Path))

	case nil:

	default:
		p.line("%s;", p.expr(id))
	}
}

func (p *printer) decl(id ast.NodeID, d *ast.Declaration) string {
	names := strings.Join(d.Names, ", ")
	if d.Deferred || p.arena.Settled(id) {
		return names + " := " + p.expr(d.Init)
	}
	s := names + ": " + p.typ(d.TypeNode)
	if d.Init != ast.NoNode {
		s += " = " + p.expr(d.Init)
	}
	return s
}

// synthesized reports whether an enumerator's value was filled in by the
// parser. Synthesised initializers share the enumerator's position.
func (p *printer) synthesized(id ast.NodeID, d *ast.Declaration) bool {
	return p.arena.Pos(d.Init) == p.arena.Pos(id)
}

func (p *printer) closure(prefix string, c *ast.FunctionClosure) {
	head := prefix
	if len(c.Captures) > 0 {
		head += "[" + strings.Join(c.Captures, ", ") + "] "
	}
	p.line("%s%s {", head, p.typ(c.Signature))
	p.block(c.Body)
	p.line("};")
}

// ifChain prints an if statement. An inline chain continues an `else if`
// on the current line.
func (p *printer) ifChain(n *ast.If, inline bool) {
	head := fmt.Sprintf("if %s {", p.expr(n.Cond))
	if inline {
		p.buf.WriteString(head + "\n")
	} else {
		p.line("%s", head)
	}
	p.block(n.Then)

	switch e := p.arena.Node(n.Else).(type) {
	case *ast.If:
		p.writeIndent()
		p.buf.WriteString("} else ")
		p.ifChain(e, true)
		return
	case *ast.Block:
		p.line("} else {")
		p.body(e.Statements)
	}
	p.line("}")
}

// ====== Types ======

func (p *printer) typ(id ast.NodeID) string {
	switch n := p.arena.Node(id).(type) {
	case *ast.PrimitiveType:
		return n.Prim.Spelling()
	case *ast.NamedType:
		return n.Name
	case *ast.PointerType:
		return "*" + p.typ(n.Inner)
	case *ast.ArrayType:
		return "[" + p.expr(n.Size) + "]" + p.typ(n.Element)
	case *ast.FunctionDecl:
		var args []string
		if list, ok := ast.Get[*ast.FunctionArgs](p.arena, n.Args); ok {
			for _, a := range list.Args {
				d, _ := ast.Get[*ast.Declaration](p.arena, a)
				args = append(args, strings.Join(d.Names, ", ")+": "+p.typ(d.TypeNode))
			}
		}
		return "(" + strings.Join(args, ", ") + ") -> " + p.typ(n.Return)
	}
	return "void"
}

// ====== Expressions ======

func (p *printer) expr(id ast.NodeID) string {
	switch n := p.arena.Node(id).(type) {
	case *ast.Identifier:
		return n.Name
	case *ast.Literal:
		return n.Value.String()
	case *ast.Unary:
		return n.Op.Spelling() + p.operand(n.Operand)
	case *ast.Binary:
		return p.binary(n)
	case *ast.Assignment:
		return p.expr(n.Target) + " = " + p.expr(n.Value)
	case *ast.FunctionCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.expr(a)
		}
		return p.operand(n.Callee) + "(" + strings.Join(args, ", ") + ")"
	case *ast.MemberAccess:
		return p.operand(n.Object) + "." + n.Member
	case *ast.IndexedAccess:
		return p.operand(n.Object) + "[" + p.expr(n.Index) + "]"
	}
	return ""
}

// operand prints id as the operand of a prefix or postfix operator.
func (p *printer) operand(id ast.NodeID) string {
	switch p.arena.Node(id).(type) {
	case *ast.Binary, *ast.Unary, *ast.Assignment:
		return "(" + p.expr(id) + ")"
	}
	return p.expr(id)
}

// binary parenthesises a child only when the tree could not be recovered
// from the text otherwise. Operators of one level associate to the left.
func (p *printer) binary(n *ast.Binary) string {
	prec := parser.PrecedenceOf(n.Op)

	left := p.expr(n.Left)
	if l, ok := ast.Get[*ast.Binary](p.arena, n.Left); ok && parser.PrecedenceOf(l.Op) < prec {
		left = "(" + left + ")"
	}
	right := p.expr(n.Right)
	if r, ok := ast.Get[*ast.Binary](p.arena, n.Right); ok && parser.PrecedenceOf(r.Op) <= prec {
		right = "(" + right + ")"
	}
	return left + " " + n.Op.Spelling() + " " + right
}
