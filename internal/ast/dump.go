package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the tree rooted at id.
func Dump(w io.Writer, a *Arena, id NodeID) error {
	return dump(w, a, id, 0)
}

func dump(w io.Writer, a *Arena, id NodeID, depth int) error {
	n := a.Node(id)
	if n == nil {
		return nil
	}
	pos := n.Position()
	line := fmt.Sprintf("%s%s%s @%d:%d\n", strings.Repeat("  ", depth), n.Kind(), details(n), pos.Line, pos.Column)
	if _, err := io.WriteString(w, line); err != nil {
		return err
	}
	for _, c := range a.Children(id) {
		if err := dump(w, a, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func details(n Node) string {
	switch n := n.(type) {
	case *Program:
		return fmt.Sprintf(" module=%s", n.Module)
	case *Declaration:
		s := fmt.Sprintf(" %s", strings.Join(n.Names, ","))
		if n.Deferred {
			s += " deferred"
		}
		if n.Attrs != AttrNone {
			s += " [" + n.Attrs.String() + "]"
		}
		return s
	case *Identifier:
		return " " + n.Name
	case *Literal:
		return " " + n.Value.String()
	case *Unary:
		return " " + n.Op.String()
	case *Binary:
		return " " + n.Op.String()
	case *MemberAccess:
		return " ." + n.Member
	case *FunctionClosure:
		if len(n.Captures) > 0 {
			return " [" + strings.Join(n.Captures, ",") + "]"
		}
	case *StructDecl:
		return " " + n.Name
	case *EnumDecl:
		return " " + n.Name
	case *PrimitiveType:
		return " " + strings.Trim(n.Prim.String(), "'")
	case *NamedType:
		return " " + n.Name
	case *Import:
		return fmt.Sprintf(" %q", n.Path)
	}
	return ""
}
