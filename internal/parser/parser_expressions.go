package parser

import (
	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/lexer"
)

// Precedence represents operator precedence levels
type Precedence int

const (
	LOWEST Precedence = iota
	LOGICAL_OR
	LOGICAL_AND
	EQUALS
	LESSGREATER
	SUM
	PRODUCT
)

// precedences maps binary operator tokens to their precedence
var precedences = map[lexer.TokenType]Precedence{
	lexer.TokenOrOr:   LOGICAL_OR,
	lexer.TokenAndAnd: LOGICAL_AND,

	lexer.TokenEq: EQUALS,
	lexer.TokenNe: EQUALS,
	lexer.TokenLt: LESSGREATER,
	lexer.TokenLe: LESSGREATER,
	lexer.TokenGt: LESSGREATER,
	lexer.TokenGe: LESSGREATER,

	lexer.TokenPlus:  SUM,
	lexer.TokenMinus: SUM,

	lexer.TokenStar:  PRODUCT,
	lexer.TokenSlash: PRODUCT,
}

// PrecedenceOf returns the binding strength of a binary operator, or
// LOWEST for tokens that are not binary operators.
func PrecedenceOf(tt lexer.TokenType) Precedence {
	if prec, ok := precedences[tt]; ok {
		return prec
	}
	return LOWEST
}

// parseExpression parses a full expression.
func (p *Parser) parseExpression() ast.NodeID {
	return p.parseBinary(LOGICAL_OR)
}

// parseBinary parses operators binding at least as tightly as min. Operators
// of one level fold to the left in a loop.
func (p *Parser) parseBinary(min Precedence) ast.NodeID {
	left := p.parseUnary()
	if left == ast.NoNode {
		return ast.NoNode
	}

	for {
		prec := PrecedenceOf(p.cur().Type)
		if prec == LOWEST || prec < min {
			return left
		}
		op := p.next()
		right := p.parseBinary(prec + 1)
		if right == ast.NoNode {
			return ast.NoNode
		}
		left = p.arena.NewBinary(op.Pos, op.Type, left, right)
	}
}

// parseUnary parses prefix operators.
func (p *Parser) parseUnary() ast.NodeID {
	switch tok := p.cur(); tok.Type {
	case lexer.TokenMinus, lexer.TokenBang, lexer.TokenAmpersand, lexer.TokenStar:
		p.next()
		operand := p.parseUnary()
		if operand == ast.NoNode {
			return ast.NoNode
		}
		return p.arena.NewUnary(tok.Pos, tok.Type, operand)
	}
	return p.parsePostfix()
}

// parsePostfix parses member access, calls and indexing after a primary.
func (p *Parser) parsePostfix() ast.NodeID {
	expr := p.parsePrimary()
	if expr == ast.NoNode {
		return ast.NoNode
	}

	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TokenDot:
			p.next()
			member, ok := p.expectIdentifier()
			if !ok {
				return ast.NoNode
			}
			expr = p.arena.NewMemberAccess(tok.Pos, expr, member.Name)

		case lexer.TokenLParen:
			p.next()
			args, ok := p.parseCallArguments()
			if !ok {
				return ast.NoNode
			}
			expr = p.arena.NewFunctionCall(tok.Pos, expr, args)

		case lexer.TokenLBracket:
			p.next()
			index := p.parseExpression()
			if index == ast.NoNode {
				return ast.NoNode
			}
			if _, ok := p.expect(lexer.TokenRBracket); !ok {
				return ast.NoNode
			}
			expr = p.arena.NewIndexedAccess(tok.Pos, expr, index)

		default:
			return expr
		}
	}
}

// parseCallArguments parses `expr (',' expr)* ')'` after the '('.
func (p *Parser) parseCallArguments() ([]ast.NodeID, bool) {
	var args []ast.NodeID
	if p.accept(lexer.TokenRParen) {
		return args, true
	}
	for {
		arg := p.parseExpression()
		if arg == ast.NoNode {
			return nil, false
		}
		args = append(args, arg)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, ok := p.expect(lexer.TokenRParen); !ok {
		return nil, false
	}
	return args, true
}

// parsePrimary parses identifiers, literals and parenthesised expressions.
func (p *Parser) parsePrimary() ast.NodeID {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenIdentifier:
		p.next()
		return p.arena.NewIdentifier(tok.Pos, tok.Name, ast.AttrNone)
	case lexer.TokenLiteral:
		p.next()
		return p.arena.NewLiteral(tok.Pos, tok.Value)
	case lexer.TokenLParen:
		p.next()
		expr := p.parseExpression()
		if expr == ast.NoNode {
			return ast.NoNode
		}
		if _, ok := p.expect(lexer.TokenRParen); !ok {
			return ast.NoNode
		}
		return expr
	}
	p.unexpected("expression")
	return ast.NoNode
}
