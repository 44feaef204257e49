// Package ast defines the Abstract Syntax Tree (AST) nodes for the Kestrel
// programming language.
//
// Nodes live in an Arena owned by one translation unit and refer to their
// children by NodeID. The node set is closed: every pass switches over the
// concrete node types, and the unexported marker method keeps other packages
// from adding kinds.
package ast

import (
	"path"
	"strings"

	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/literal"
	"github.com/kestrel-lang/kestrel/internal/position"
)

// NodeID references a node inside an Arena. The zero value is NoNode.
type NodeID uint32

// NoNode is the absent node reference.
const NoNode NodeID = 0

// IsValid reports whether id refers to a node.
func (id NodeID) IsValid() bool { return id != NoNode }

// Kind identifies the concrete node type.
type Kind int

const (
	KindProgram Kind = iota
	KindBlock
	KindDeclaration
	KindDefinition
	KindIdentifier
	KindLiteral
	KindUnary
	KindBinary
	KindAssignment
	KindIf
	KindLoop
	KindWhile
	KindFunctionDecl
	KindFunctionClosure
	KindFunctionArgs
	KindFunctionCall
	KindReturn
	KindEnumDecl
	KindStructDecl
	KindBreak
	KindContinue
	KindMemberAccess
	KindIndexedAccess
	KindPointerType
	KindArrayType
	KindNamedType
	KindPrimitiveType
	KindImport
)

var kindNames = [...]string{
	KindProgram:         "Program",
	KindBlock:           "Block",
	KindDeclaration:     "Declaration",
	KindDefinition:      "Definition",
	KindIdentifier:      "Identifier",
	KindLiteral:         "Literal",
	KindUnary:           "Unary",
	KindBinary:          "Binary",
	KindAssignment:      "Assignment",
	KindIf:              "If",
	KindLoop:            "Loop",
	KindWhile:           "While",
	KindFunctionDecl:    "FunctionDecl",
	KindFunctionClosure: "FunctionClosure",
	KindFunctionArgs:    "FunctionArgs",
	KindFunctionCall:    "FunctionCall",
	KindReturn:          "Return",
	KindEnumDecl:        "EnumDecl",
	KindStructDecl:      "StructDecl",
	KindBreak:           "Break",
	KindContinue:        "Continue",
	KindMemberAccess:    "MemberAccess",
	KindIndexedAccess:   "IndexedAccess",
	KindPointerType:     "PointerType",
	KindArrayType:       "ArrayType",
	KindNamedType:       "NamedType",
	KindPrimitiveType:   "PrimitiveType",
	KindImport:          "Import",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node is implemented by every node type in this package.
type Node interface {
	Kind() Kind
	// Position returns where the node starts in the source.
	Position() position.Position
	base() *nodeBase
}

type nodeBase struct {
	id     NodeID
	parent NodeID
	Pos    position.Position
}

func (b *nodeBase) Position() position.Position { return b.Pos }
func (b *nodeBase) base() *nodeBase             { return b }

// ===== Program Structure =====

// Program is the root of one translation unit.
type Program struct {
	nodeBase
	Module     string
	Statements []NodeID
}

// Block is a braced statement list. It opens an anonymous scope unless it
// is the body of a closure, whose scope it shares.
type Block struct {
	nodeBase
	Statements []NodeID
}

// Declaration declares one or more names of the same type.
//
// For `x := e` the parser has no type syntax to record; TypeNode then refers
// to the initializer as a placeholder and Deferred is set until the analyser
// settles it. TypeNode is never an owned child while Deferred.
type Declaration struct {
	nodeBase
	Names    []string
	TypeNode NodeID
	Init     NodeID
	Attrs    Attr
	Deferred bool
	settled  bool
}

// TypeInfo returns the recorded type node, or the initializer placeholder
// for a deferred declaration.
func (d *Declaration) TypeInfo() NodeID { return d.TypeNode }

// Definition binds a single name to a function closure.
type Definition struct {
	nodeBase
	Decl    NodeID // *Declaration without initializer
	Closure NodeID // *FunctionClosure
}

// Import names a module. Nothing is loaded.
type Import struct {
	nodeBase
	Path string
}

// ModuleName is the name the import is registered under: the last element
// of Path without its extension.
func (i *Import) ModuleName() string {
	base := path.Base(i.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// ===== Expressions =====

// Identifier references a name.
type Identifier struct {
	nodeBase
	Name  string
	Attrs Attr
}

// Literal holds a constant value.
type Literal struct {
	nodeBase
	Value literal.Value
}

// Unary is a prefix operation: -, !, & or *.
type Unary struct {
	nodeBase
	Op      lexer.TokenType
	Operand NodeID
}

// Binary is an infix operation.
type Binary struct {
	nodeBase
	Op    lexer.TokenType
	Left  NodeID
	Right NodeID
}

// Assignment stores Value into Target.
type Assignment struct {
	nodeBase
	Target NodeID
	Value  NodeID
}

// FunctionCall applies Callee to Args.
type FunctionCall struct {
	nodeBase
	Callee NodeID
	Args   []NodeID
}

// MemberAccess selects Member from Object.
type MemberAccess struct {
	nodeBase
	Object NodeID
	Member string
}

// IndexedAccess indexes Object by Index.
type IndexedAccess struct {
	nodeBase
	Object NodeID
	Index  NodeID
}

// ===== Control Flow =====

// If is a conditional. Else is a *Block, an *If or NoNode.
type If struct {
	nodeBase
	Cond NodeID
	Then NodeID
	Else NodeID
}

// Loop repeats its body until a break.
type Loop struct {
	nodeBase
	Body NodeID
}

// While repeats its body while Cond holds.
type While struct {
	nodeBase
	Cond NodeID
	Body NodeID
}

// Return leaves the enclosing function. Value may be NoNode.
type Return struct {
	nodeBase
	Value NodeID
}

// Break leaves the innermost loop.
type Break struct{ nodeBase }

// Continue starts the next iteration of the innermost loop.
type Continue struct{ nodeBase }

// ===== Functions =====

// FunctionDecl is a function signature. It appears as a type and as the
// signature of a closure.
type FunctionDecl struct {
	nodeBase
	Args   NodeID // *FunctionArgs
	Return NodeID // type node
}

// FunctionArgs lists the argument declarations of a signature.
type FunctionArgs struct {
	nodeBase
	Args []NodeID // *Declaration
}

// FunctionClosure is a function body with its signature and capture list.
type FunctionClosure struct {
	nodeBase
	Captures   []string
	CapturePos []position.Position
	Signature  NodeID // *FunctionDecl
	Body       NodeID // *Block
}

// ===== Aggregates =====

// StructDecl declares a struct and its named scope.
type StructDecl struct {
	nodeBase
	Name   string
	Fields []NodeID // *Declaration
}

// EnumDecl declares an enum and its named scope. Every enumerator carries
// an initializer; omitted ones are synthesised by the parser.
type EnumDecl struct {
	nodeBase
	Name        string
	Enumerators []NodeID // *Declaration
}

// ===== Types =====

// PrimitiveType is a builtin type keyword.
type PrimitiveType struct {
	nodeBase
	Prim lexer.TokenType
}

// NamedType references a struct, enum or module by name.
type NamedType struct {
	nodeBase
	Name string
}

// PointerType is `*Inner`.
type PointerType struct {
	nodeBase
	Inner NodeID
}

// ArrayType is `[Size]Element`.
type ArrayType struct {
	nodeBase
	Size    NodeID
	Element NodeID
}

func (*Program) Kind() Kind         { return KindProgram }
func (*Block) Kind() Kind           { return KindBlock }
func (*Declaration) Kind() Kind     { return KindDeclaration }
func (*Definition) Kind() Kind      { return KindDefinition }
func (*Import) Kind() Kind          { return KindImport }
func (*Identifier) Kind() Kind      { return KindIdentifier }
func (*Literal) Kind() Kind         { return KindLiteral }
func (*Unary) Kind() Kind           { return KindUnary }
func (*Binary) Kind() Kind          { return KindBinary }
func (*Assignment) Kind() Kind      { return KindAssignment }
func (*FunctionCall) Kind() Kind    { return KindFunctionCall }
func (*MemberAccess) Kind() Kind    { return KindMemberAccess }
func (*IndexedAccess) Kind() Kind   { return KindIndexedAccess }
func (*If) Kind() Kind              { return KindIf }
func (*Loop) Kind() Kind            { return KindLoop }
func (*While) Kind() Kind           { return KindWhile }
func (*Return) Kind() Kind          { return KindReturn }
func (*Break) Kind() Kind           { return KindBreak }
func (*Continue) Kind() Kind        { return KindContinue }
func (*FunctionDecl) Kind() Kind    { return KindFunctionDecl }
func (*FunctionArgs) Kind() Kind    { return KindFunctionArgs }
func (*FunctionClosure) Kind() Kind { return KindFunctionClosure }
func (*StructDecl) Kind() Kind      { return KindStructDecl }
func (*EnumDecl) Kind() Kind        { return KindEnumDecl }
func (*PrimitiveType) Kind() Kind   { return KindPrimitiveType }
func (*NamedType) Kind() Kind       { return KindNamedType }
func (*PointerType) Kind() Kind     { return KindPointerType }
func (*ArrayType) Kind() Kind       { return KindArrayType }

// IsTypeNode reports whether k is one of the type syntax kinds.
func (k Kind) IsTypeNode() bool {
	switch k {
	case KindPrimitiveType, KindNamedType, KindPointerType, KindArrayType, KindFunctionDecl:
		return true
	}
	return false
}
