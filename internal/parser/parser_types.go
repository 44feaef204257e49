package parser

import (
	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/lexer"
)

// parseType parses type syntax:
//
//	primitive | IDENT | '*' type | '[' expr ']' type | signature
//
// A bare signature is a function type and creates no scope.
func (p *Parser) parseType() ast.NodeID {
	tok := p.cur()
	switch {
	case tok.IsPrimitiveType():
		p.next()
		return p.arena.NewPrimitiveType(tok.Pos, tok.Type)

	case tok.Type == lexer.TokenIdentifier:
		p.next()
		return p.arena.NewNamedType(tok.Pos, tok.Name)

	case tok.Type == lexer.TokenStar:
		p.next()
		inner := p.parseType()
		if inner == ast.NoNode {
			return ast.NoNode
		}
		return p.arena.NewPointerType(tok.Pos, inner)

	case tok.Type == lexer.TokenLBracket:
		p.next()
		size := p.parseExpression()
		if size == ast.NoNode {
			return ast.NoNode
		}
		if _, ok := p.expect(lexer.TokenRBracket); !ok {
			return ast.NoNode
		}
		elem := p.parseType()
		if elem == ast.NoNode {
			return ast.NoNode
		}
		return p.arena.NewArrayType(tok.Pos, size, elem)

	case tok.Type == lexer.TokenLParen:
		return p.parseSignature()
	}

	p.unexpected("type")
	return ast.NoNode
}
