package ast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/literal"
	"github.com/kestrel-lang/kestrel/internal/position"
)

var (
	// ErrNotDeferred is returned when settling a declaration that has an explicit type.
	ErrNotDeferred = errors.New("declaration type is not deferred")
	// ErrAlreadySettled is returned on a second settle of the same declaration.
	ErrAlreadySettled = errors.New("deferred declaration already settled")
)

// Arena allocates and owns every node of one translation unit. Node
// references are indices; dropping the arena frees the whole tree.
type Arena struct {
	nodes []Node // index 0 is NoNode
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{nodes: make([]Node, 1, 256)}
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int { return len(a.nodes) - 1 }

// Node returns the node for id, or nil for NoNode and out of range ids.
func (a *Arena) Node(id NodeID) Node {
	if id == NoNode || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}

// Kind returns the kind of id. It panics for NoNode.
func (a *Arena) Kind(id NodeID) Kind {
	n := a.Node(id)
	if n == nil {
		panic(fmt.Sprintf("ast: kind of invalid node %d", id))
	}
	return n.Kind()
}

// Pos returns the start position of id, or the zero position for NoNode.
func (a *Arena) Pos(id NodeID) position.Position {
	if n := a.Node(id); n != nil {
		return n.Position()
	}
	return position.Position{}
}

// Span returns the source range of an expression, widened from its own
// token to cover its operands. Other nodes get an empty span at their
// position.
func (a *Arena) Span(id NodeID) position.Span {
	switch n := a.Node(id).(type) {
	case nil:
		return position.Span{}
	case *Identifier:
		return extent(n.Position(), len(n.Name))
	case *Literal:
		return extent(n.Position(), literalWidth(n.Value))
	case *Unary:
		return position.SpanAt(n.Position()).Union(a.Span(n.Operand))
	case *Binary:
		return a.Span(n.Left).Union(a.Span(n.Right))
	case *Assignment:
		return a.Span(n.Target).Union(a.Span(n.Value))
	case *FunctionCall:
		s := a.Span(n.Callee).Union(position.SpanAt(n.Position()))
		for _, arg := range n.Args {
			s = s.Union(a.Span(arg))
		}
		s.End.Column++ // closing parenthesis
		return s
	}
	return position.SpanAt(a.Pos(id))
}

func extent(pos position.Position, width int) position.Span {
	end := pos
	end.Column += width
	return position.Span{Start: pos, End: end}
}

// literalWidth is the length of v written without a type suffix.
func literalWidth(v literal.Value) int {
	text := v.String()
	switch v.Kind {
	case literal.Int32, literal.Int64, literal.Uint32, literal.Uint64, literal.Float:
		text = strings.TrimRight(text, "uLf")
	}
	return len(text)
}

// Parent returns the node that owns id.
func (a *Arena) Parent(id NodeID) NodeID {
	if n := a.Node(id); n != nil {
		return n.base().parent
	}
	return NoNode
}

// Get returns the node id as type T.
func Get[T Node](a *Arena, id NodeID) (T, bool) {
	t, ok := a.Node(id).(T)
	return t, ok
}

func (a *Arena) add(n Node, pos position.Position) NodeID {
	id := NodeID(len(a.nodes))
	b := n.base()
	b.id = id
	b.Pos = pos
	a.nodes = append(a.nodes, n)
	return id
}

// adopt makes parent the owner of every child. A node can have only one
// owner; attaching it twice is a programming error.
func (a *Arena) adopt(parent NodeID, children ...NodeID) {
	for _, c := range children {
		if c == NoNode {
			continue
		}
		n := a.Node(c)
		if n == nil {
			panic(fmt.Sprintf("ast: child %d of node %d does not exist", c, parent))
		}
		b := n.base()
		if b.parent != NoNode {
			panic(fmt.Sprintf("ast: node %d (%s) already owned by %d", c, n.Kind(), b.parent))
		}
		if c == parent {
			panic(fmt.Sprintf("ast: node %d cannot own itself", c))
		}
		b.parent = parent
	}
}

func (a *Arena) NewProgram(pos position.Position, module string, stmts []NodeID) NodeID {
	id := a.add(&Program{Module: module, Statements: stmts}, pos)
	a.adopt(id, stmts...)
	return id
}

func (a *Arena) NewBlock(pos position.Position, stmts []NodeID) NodeID {
	id := a.add(&Block{Statements: stmts}, pos)
	a.adopt(id, stmts...)
	return id
}

// NewDeclaration creates a declaration with an explicit type node.
func (a *Arena) NewDeclaration(pos position.Position, names []string, typeNode, init NodeID, attrs Attr) NodeID {
	if typeNode != NoNode && attrs&AttrPointer == 0 {
		if _, ok := a.Node(typeNode).(*PointerType); ok {
			attrs |= AttrPointer
		}
	}
	id := a.add(&Declaration{Names: names, TypeNode: typeNode, Init: init, Attrs: attrs}, pos)
	a.adopt(id, typeNode, init)
	return id
}

// NewDeferredDeclaration creates `names := init`. The initializer doubles as
// the placeholder type info until SettleDeferred.
func (a *Arena) NewDeferredDeclaration(pos position.Position, names []string, init NodeID, attrs Attr) NodeID {
	id := a.add(&Declaration{Names: names, TypeNode: init, Init: init, Attrs: attrs, Deferred: true}, pos)
	a.adopt(id, init)
	return id
}

// SettleDeferred clears the placeholder of a deferred declaration once its
// type has been inferred. It can succeed only once per declaration.
func (a *Arena) SettleDeferred(id NodeID) error {
	d, ok := Get[*Declaration](a, id)
	if !ok {
		return fmt.Errorf("node %d: %w", id, ErrNotDeferred)
	}
	if d.settled {
		return ErrAlreadySettled
	}
	if !d.Deferred {
		return ErrNotDeferred
	}
	d.TypeNode = NoNode
	d.Deferred = false
	d.settled = true
	return nil
}

// Settled reports whether id is a declaration whose type was inferred.
func (a *Arena) Settled(id NodeID) bool {
	d, ok := Get[*Declaration](a, id)
	return ok && d.settled
}

func (a *Arena) NewDefinition(pos position.Position, decl, closure NodeID) NodeID {
	id := a.add(&Definition{Decl: decl, Closure: closure}, pos)
	a.adopt(id, decl, closure)
	return id
}

func (a *Arena) NewImport(pos position.Position, path string) NodeID {
	return a.add(&Import{Path: path}, pos)
}

func (a *Arena) NewIdentifier(pos position.Position, name string, attrs Attr) NodeID {
	return a.add(&Identifier{Name: name, Attrs: attrs}, pos)
}

func (a *Arena) NewLiteral(pos position.Position, v literal.Value) NodeID {
	return a.add(&Literal{Value: v}, pos)
}

func (a *Arena) NewUnary(pos position.Position, op lexer.TokenType, operand NodeID) NodeID {
	id := a.add(&Unary{Op: op, Operand: operand}, pos)
	a.adopt(id, operand)
	return id
}

func (a *Arena) NewBinary(pos position.Position, op lexer.TokenType, left, right NodeID) NodeID {
	id := a.add(&Binary{Op: op, Left: left, Right: right}, pos)
	a.adopt(id, left, right)
	return id
}

func (a *Arena) NewAssignment(pos position.Position, target, value NodeID) NodeID {
	id := a.add(&Assignment{Target: target, Value: value}, pos)
	a.adopt(id, target, value)
	return id
}

func (a *Arena) NewFunctionCall(pos position.Position, callee NodeID, args []NodeID) NodeID {
	id := a.add(&FunctionCall{Callee: callee, Args: args}, pos)
	a.adopt(id, callee)
	a.adopt(id, args...)
	return id
}

func (a *Arena) NewMemberAccess(pos position.Position, object NodeID, member string) NodeID {
	id := a.add(&MemberAccess{Object: object, Member: member}, pos)
	a.adopt(id, object)
	return id
}

func (a *Arena) NewIndexedAccess(pos position.Position, object, index NodeID) NodeID {
	id := a.add(&IndexedAccess{Object: object, Index: index}, pos)
	a.adopt(id, object, index)
	return id
}

func (a *Arena) NewIf(pos position.Position, cond, then, els NodeID) NodeID {
	id := a.add(&If{Cond: cond, Then: then, Else: els}, pos)
	a.adopt(id, cond, then, els)
	return id
}

func (a *Arena) NewLoop(pos position.Position, body NodeID) NodeID {
	id := a.add(&Loop{Body: body}, pos)
	a.adopt(id, body)
	return id
}

func (a *Arena) NewWhile(pos position.Position, cond, body NodeID) NodeID {
	id := a.add(&While{Cond: cond, Body: body}, pos)
	a.adopt(id, cond, body)
	return id
}

func (a *Arena) NewReturn(pos position.Position, value NodeID) NodeID {
	id := a.add(&Return{Value: value}, pos)
	a.adopt(id, value)
	return id
}

func (a *Arena) NewBreak(pos position.Position) NodeID {
	return a.add(&Break{}, pos)
}

func (a *Arena) NewContinue(pos position.Position) NodeID {
	return a.add(&Continue{}, pos)
}

func (a *Arena) NewFunctionDecl(pos position.Position, args, ret NodeID) NodeID {
	id := a.add(&FunctionDecl{Args: args, Return: ret}, pos)
	a.adopt(id, args, ret)
	return id
}

func (a *Arena) NewFunctionArgs(pos position.Position, args []NodeID) NodeID {
	id := a.add(&FunctionArgs{Args: args}, pos)
	a.adopt(id, args...)
	return id
}

func (a *Arena) NewFunctionClosure(pos position.Position, captures []string, capturePos []position.Position, sig, body NodeID) NodeID {
	id := a.add(&FunctionClosure{Captures: captures, CapturePos: capturePos, Signature: sig, Body: body}, pos)
	a.adopt(id, sig, body)
	return id
}

func (a *Arena) NewStructDecl(pos position.Position, name string, fields []NodeID) NodeID {
	id := a.add(&StructDecl{Name: name, Fields: fields}, pos)
	a.adopt(id, fields...)
	return id
}

func (a *Arena) NewEnumDecl(pos position.Position, name string, enumerators []NodeID) NodeID {
	id := a.add(&EnumDecl{Name: name, Enumerators: enumerators}, pos)
	a.adopt(id, enumerators...)
	return id
}

func (a *Arena) NewPrimitiveType(pos position.Position, prim lexer.TokenType) NodeID {
	return a.add(&PrimitiveType{Prim: prim}, pos)
}

func (a *Arena) NewNamedType(pos position.Position, name string) NodeID {
	return a.add(&NamedType{Name: name}, pos)
}

func (a *Arena) NewPointerType(pos position.Position, inner NodeID) NodeID {
	id := a.add(&PointerType{Inner: inner}, pos)
	a.adopt(id, inner)
	return id
}

func (a *Arena) NewArrayType(pos position.Position, size, element NodeID) NodeID {
	id := a.add(&ArrayType{Size: size, Element: element}, pos)
	a.adopt(id, size, element)
	return id
}
