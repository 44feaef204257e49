package parser

import (
	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/literal"
	"github.com/kestrel-lang/kestrel/internal/position"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

// parseNames parses `IDENT (',' IDENT)*`.
func (p *Parser) parseNames() ([]string, bool) {
	var names []string
	for {
		tok, ok := p.expectIdentifier()
		if !ok {
			return nil, false
		}
		names = append(names, tok.Name)
		if !p.accept(lexer.TokenComma) {
			return names, true
		}
	}
}

// parseDeclaration parses
//
//	names ':' type ('=' initializer)?
//	names ':' '=' initializer
//
// A typed declaration whose initializer is a closure becomes a Definition.
func (p *Parser) parseDeclaration(attrs ast.Attr) ast.NodeID {
	pos := p.cur().Pos
	names, ok := p.parseNames()
	if !ok {
		return ast.NoNode
	}
	if _, ok := p.expect(lexer.TokenColon); !ok {
		return ast.NoNode
	}

	if p.accept(lexer.TokenAssign) {
		init := p.parseInitializer()
		if init == ast.NoNode {
			return ast.NoNode
		}
		return p.arena.NewDeferredDeclaration(pos, names, init, attrs)
	}

	typ := p.parseType()
	if typ == ast.NoNode {
		return ast.NoNode
	}
	if !p.accept(lexer.TokenAssign) {
		return p.arena.NewDeclaration(pos, names, typ, ast.NoNode, attrs)
	}

	init := p.parseInitializer()
	if init == ast.NoNode {
		return ast.NoNode
	}
	if p.arena.Kind(init) == ast.KindFunctionClosure {
		decl := p.arena.NewDeclaration(pos, names, typ, ast.NoNode, attrs)
		return p.arena.NewDefinition(pos, decl, init)
	}
	return p.arena.NewDeclaration(pos, names, typ, init, attrs)
}

// parseInitializer parses a closure or an expression.
func (p *Parser) parseInitializer() ast.NodeID {
	if p.closureAhead() {
		return p.parseClosure()
	}
	return p.parseExpression()
}

// closureAhead reports whether the current token starts a closure rather
// than a parenthesised expression: a capture list, `()`, or `(IDENT` followed
// by ',' or ':'.
func (p *Parser) closureAhead() bool {
	switch p.cur().Type {
	case lexer.TokenLBracket:
		return true
	case lexer.TokenLParen:
		switch p.peek(1).Type {
		case lexer.TokenRParen:
			return true
		case lexer.TokenIdentifier:
			next := p.peek(2).Type
			return next == lexer.TokenComma || next == lexer.TokenColon
		}
	}
	return false
}

// parseClosure parses `('[' captures ']')? signature '{' body '}'`. The
// closure opens one anonymous scope, after its signature, shared by the
// arguments and the body statements.
func (p *Parser) parseClosure() ast.NodeID {
	pos := p.cur().Pos

	var (
		captures   []string
		capturePos []position.Position
	)
	if p.accept(lexer.TokenLBracket) {
		for !p.at(lexer.TokenRBracket) {
			tok, ok := p.expectIdentifier()
			if !ok {
				return ast.NoNode
			}
			captures = append(captures, tok.Name)
			capturePos = append(capturePos, tok.Pos)
			if !p.accept(lexer.TokenComma) {
				break
			}
		}
		if _, ok := p.expect(lexer.TokenRBracket); !ok {
			return ast.NoNode
		}
	}

	sig := p.parseSignature()
	if sig == ast.NoNode {
		return ast.NoNode
	}
	open, ok := p.expect(lexer.TokenLBrace)
	if !ok {
		return ast.NoNode
	}

	p.enterScope()
	stmts := p.parseStatementsUntilBrace()
	p.leaveScope()

	body := p.arena.NewBlock(open.Pos, stmts)
	return p.arena.NewFunctionClosure(pos, captures, capturePos, sig, body)
}

// parseSignature parses `'(' argdecl (',' argdecl)* ')' '->' type`.
func (p *Parser) parseSignature() ast.NodeID {
	open, ok := p.expect(lexer.TokenLParen)
	if !ok {
		return ast.NoNode
	}

	var args []ast.NodeID
	for !p.at(lexer.TokenRParen) {
		pos := p.cur().Pos
		names, ok := p.parseNames()
		if !ok {
			return ast.NoNode
		}
		if _, ok := p.expect(lexer.TokenColon); !ok {
			return ast.NoNode
		}
		typ := p.parseType()
		if typ == ast.NoNode {
			return ast.NoNode
		}
		args = append(args, p.arena.NewDeclaration(pos, names, typ, ast.NoNode, ast.AttrFunctionArg))
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, ok := p.expect(lexer.TokenRParen); !ok {
		return ast.NoNode
	}
	if _, ok := p.expect(lexer.TokenArrow); !ok {
		return ast.NoNode
	}
	ret := p.parseType()
	if ret == ast.NoNode {
		return ast.NoNode
	}
	return p.arena.NewFunctionDecl(open.Pos, p.arena.NewFunctionArgs(open.Pos, args), ret)
}

// parseStruct parses `struct Name { field; ... }`. Fields are registered in
// the struct's named scope as they are parsed; their types are filled in by
// the analyser.
func (p *Parser) parseStruct() ast.NodeID {
	kw := p.next()
	name, ok := p.expectIdentifier()
	if !ok {
		p.sync()
		return ast.NoNode
	}
	if !p.at(lexer.TokenLBrace) {
		p.unexpected(lexer.TokenLBrace.String())
		p.sync()
		return ast.NoNode
	}
	if _, err := p.table.CreateNamedScope(name.Name, resolver.ScopeKindStruct); err != nil {
		p.errorf(diagnostics.KindAlreadyDeclared, name.Pos, "type %q is already declared in this scope", name.Name)
		p.skipBody()
		return ast.NoNode
	}
	p.next()

	var fields []ast.NodeID
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		field := p.parseField()
		if field == ast.NoNode {
			p.sync()
			continue
		}
		fields = append(fields, field)
		if _, ok := p.expect(lexer.TokenSemicolon); !ok {
			p.sync()
		}
	}
	p.expect(lexer.TokenRBrace)
	p.leaveScope()

	return p.arena.NewStructDecl(kw.Pos, name.Name, fields)
}

// parseField parses one struct field declaration and registers its names.
func (p *Parser) parseField() ast.NodeID {
	pos := p.cur().Pos
	names, ok := p.parseNames()
	if !ok {
		return ast.NoNode
	}
	if _, ok := p.expect(lexer.TokenColon); !ok {
		return ast.NoNode
	}
	if p.at(lexer.TokenAssign) {
		p.unexpected("field type")
		return ast.NoNode
	}
	typ := p.parseType()
	if typ == ast.NoNode {
		return ast.NoNode
	}
	init := ast.NoNode
	if p.accept(lexer.TokenAssign) {
		if init = p.parseExpression(); init == ast.NoNode {
			return ast.NoNode
		}
	}

	id := p.arena.NewDeclaration(pos, names, typ, init, ast.AttrStructField)
	decl, _ := ast.Get[*ast.Declaration](p.arena, id)
	for _, n := range names {
		p.register(n, pos, init, decl.Attrs)
	}
	return id
}

// parseEnum parses `enum Name { A, B = expr, C, }`. An enumerator without
// an initializer gets `previous + 1`, or 0 for the first one.
func (p *Parser) parseEnum() ast.NodeID {
	kw := p.next()
	name, ok := p.expectIdentifier()
	if !ok {
		p.sync()
		return ast.NoNode
	}
	if !p.at(lexer.TokenLBrace) {
		p.unexpected(lexer.TokenLBrace.String())
		p.sync()
		return ast.NoNode
	}
	if _, err := p.table.CreateNamedScope(name.Name, resolver.ScopeKindEnum); err != nil {
		p.errorf(diagnostics.KindAlreadyDeclared, name.Pos, "type %q is already declared in this scope", name.Name)
		p.skipBody()
		return ast.NoNode
	}
	p.next()

	var (
		enumerators []ast.NodeID
		prev        string
	)
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		tok := p.cur()
		if tok.Type != lexer.TokenIdentifier {
			p.errorf(diagnostics.KindInvalidEnumeratorName, tok.Pos, "invalid enumerator name %s", tok.Describe())
			p.skipEnumerator()
			continue
		}
		p.next()

		init := ast.NoNode
		if p.accept(lexer.TokenAssign) {
			init = p.parseExpression()
		}
		if init == ast.NoNode {
			init = p.nextEnumeratorValue(tok.Pos, prev)
		}

		enumerators = append(enumerators, p.arena.NewDeclaration(tok.Pos, []string{tok.Name}, ast.NoNode, init, ast.AttrStatic))
		p.register(tok.Name, tok.Pos, init, ast.AttrStatic)
		prev = tok.Name

		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, ok := p.expect(lexer.TokenRBrace); !ok {
		p.sync()
	}
	p.leaveScope()

	return p.arena.NewEnumDecl(kw.Pos, name.Name, enumerators)
}

func (p *Parser) nextEnumeratorValue(pos position.Position, prev string) ast.NodeID {
	if prev == "" {
		return p.arena.NewLiteral(pos, literal.NewInt32(0))
	}
	return p.arena.NewBinary(pos, lexer.TokenPlus,
		p.arena.NewIdentifier(pos, prev, ast.AttrNone),
		p.arena.NewLiteral(pos, literal.NewInt32(1)))
}

// skipEnumerator skips to the next ',' or the closing '}'.
func (p *Parser) skipEnumerator() {
	for !p.at(lexer.TokenEOF) && !p.at(lexer.TokenRBrace) {
		if p.next().Type == lexer.TokenComma {
			return
		}
	}
}

// register adds a forward-declared member to the current named scope.
func (p *Parser) register(name string, pos position.Position, init ast.NodeID, attrs ast.Attr) {
	_, err := p.table.AddVariable(resolver.Descriptor{Name: name, Init: init, Attrs: attrs, Pos: pos})
	if err != nil {
		p.errorf(diagnostics.KindAlreadyDeclared, pos, "%q is already declared in this scope", name)
	}
}
