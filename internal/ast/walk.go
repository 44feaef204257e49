package ast

// Children returns the nodes owned by id in source order.
func (a *Arena) Children(id NodeID) []NodeID {
	var out []NodeID
	add := func(ids ...NodeID) {
		for _, c := range ids {
			if c != NoNode {
				out = append(out, c)
			}
		}
	}

	switch n := a.Node(id).(type) {
	case *Program:
		add(n.Statements...)
	case *Block:
		add(n.Statements...)
	case *Declaration:
		if !n.Deferred {
			add(n.TypeNode)
		}
		add(n.Init)
	case *Definition:
		add(n.Decl, n.Closure)
	case *Unary:
		add(n.Operand)
	case *Binary:
		add(n.Left, n.Right)
	case *Assignment:
		add(n.Target, n.Value)
	case *FunctionCall:
		add(n.Callee)
		add(n.Args...)
	case *MemberAccess:
		add(n.Object)
	case *IndexedAccess:
		add(n.Object, n.Index)
	case *If:
		add(n.Cond, n.Then, n.Else)
	case *Loop:
		add(n.Body)
	case *While:
		add(n.Cond, n.Body)
	case *Return:
		add(n.Value)
	case *FunctionDecl:
		add(n.Args, n.Return)
	case *FunctionArgs:
		add(n.Args...)
	case *FunctionClosure:
		add(n.Signature, n.Body)
	case *StructDecl:
		add(n.Fields...)
	case *EnumDecl:
		add(n.Enumerators...)
	case *PointerType:
		add(n.Inner)
	case *ArrayType:
		add(n.Size, n.Element)
	case *Import, *Identifier, *Literal, *Break, *Continue, *PrimitiveType, *NamedType, nil:
	}
	return out
}

// Walk visits id and its descendants depth first in source order. When fn
// returns false the children of that node are skipped.
func Walk(a *Arena, id NodeID, fn func(id NodeID, n Node) bool) {
	n := a.Node(id)
	if n == nil {
		return
	}
	if !fn(id, n) {
		return
	}
	for _, c := range a.Children(id) {
		Walk(a, c, fn)
	}
}
