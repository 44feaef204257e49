package parser

import (
	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/literal"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

// parseStatement parses a statement
func (p *Parser) parseStatement() ast.NodeID {
	switch p.cur().Type {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenLoop:
		return p.parseLoop()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenEnum:
		return p.parseEnum()
	case lexer.TokenStruct:
		return p.parseStruct()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenImport:
		return p.parseImport()
	}

	op := p.parseOperator()
	if op == ast.NoNode {
		p.sync()
		return ast.NoNode
	}
	if _, ok := p.expect(lexer.TokenSemicolon); !ok {
		p.sync()
	}
	return op
}

// parseOperator parses the statements that end in ';': declarations,
// assignments, expressions, break and continue.
func (p *Parser) parseOperator() ast.NodeID {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenBreak:
		p.next()
		return p.arena.NewBreak(tok.Pos)
	case lexer.TokenContinue:
		p.next()
		return p.arena.NewContinue(tok.Pos)
	case lexer.TokenIdentifier:
		switch p.peek(1).Type {
		case lexer.TokenComma, lexer.TokenColon:
			return p.parseDeclaration(ast.AttrNone)
		}
	}

	target := p.parseExpression()
	if target == ast.NoNode {
		return ast.NoNode
	}
	if !p.at(lexer.TokenAssign) {
		return target
	}
	eq := p.next()
	value := p.parseExpression()
	if value == ast.NoNode {
		return ast.NoNode
	}
	return p.arena.NewAssignment(eq.Pos, target, value)
}

// parseBlock parses a braced statement list in a new anonymous scope.
func (p *Parser) parseBlock() ast.NodeID {
	open, ok := p.expect(lexer.TokenLBrace)
	if !ok {
		return ast.NoNode
	}
	p.enterScope()
	stmts := p.parseStatementsUntilBrace()
	p.leaveScope()
	return p.arena.NewBlock(open.Pos, stmts)
}

// parseStatementsUntilBrace parses statements up to and including the
// closing '}'. The caller has consumed the opening brace.
func (p *Parser) parseStatementsUntilBrace() []ast.NodeID {
	var stmts []ast.NodeID
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		before := p.consumed
		if s := p.parseStatement(); s != ast.NoNode {
			stmts = append(stmts, s)
		}
		if p.consumed == before && !p.at(lexer.TokenRBrace) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBrace)
	return stmts
}

// parseIf parses `if cond { } else if cond { } else { }`.
func (p *Parser) parseIf() ast.NodeID {
	kw := p.next()
	cond := p.parseExpression()
	if cond == ast.NoNode {
		p.sync()
		return ast.NoNode
	}
	then := p.parseBlock()
	if then == ast.NoNode {
		p.sync()
		return ast.NoNode
	}

	els := ast.NoNode
	if p.accept(lexer.TokenElse) {
		if p.at(lexer.TokenIf) {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	}
	return p.arena.NewIf(kw.Pos, cond, then, els)
}

// parseLoop parses an infinite `loop { }`.
func (p *Parser) parseLoop() ast.NodeID {
	kw := p.next()
	body := p.parseBlock()
	if body == ast.NoNode {
		p.sync()
		return ast.NoNode
	}
	return p.arena.NewLoop(kw.Pos, body)
}

// parseWhile parses `while cond { }`.
func (p *Parser) parseWhile() ast.NodeID {
	kw := p.next()
	cond := p.parseExpression()
	if cond == ast.NoNode {
		p.sync()
		return ast.NoNode
	}
	body := p.parseBlock()
	if body == ast.NoNode {
		p.sync()
		return ast.NoNode
	}
	return p.arena.NewWhile(kw.Pos, cond, body)
}

// parseReturn parses `return expr?;`.
func (p *Parser) parseReturn() ast.NodeID {
	kw := p.next()
	value := ast.NoNode
	if !p.at(lexer.TokenSemicolon) {
		if value = p.parseExpression(); value == ast.NoNode {
			p.sync()
			return ast.NoNode
		}
	}
	if _, ok := p.expect(lexer.TokenSemicolon); !ok {
		p.sync()
	}
	return p.arena.NewReturn(kw.Pos, value)
}

// parseImport parses `import "path";` and registers the module's named
// scope. Nothing is loaded.
func (p *Parser) parseImport() ast.NodeID {
	kw := p.next()
	tok := p.cur()
	if tok.Type != lexer.TokenLiteral || tok.Value.Kind != literal.String {
		p.unexpected("module path string")
		p.sync()
		return ast.NoNode
	}
	p.next()

	id := p.arena.NewImport(kw.Pos, tok.Value.Str)
	imp, _ := ast.Get[*ast.Import](p.arena, id)
	if _, err := p.table.CreateNamedScope(imp.ModuleName(), resolver.ScopeKindModule); err != nil {
		p.errorf(diagnostics.KindAlreadyDeclared, kw.Pos, "module %q is already imported", imp.ModuleName())
		p.sync()
		return ast.NoNode
	}
	p.leaveScope()

	if _, ok := p.expect(lexer.TokenSemicolon); !ok {
		p.sync()
	}
	return id
}
