// Package parser implements the Kestrel recursive descent parser.
//
// The parser builds the AST into an ast.Arena and, while doing so, creates
// the scope tree of a resolver.SymbolTable in write mode. Later passes walk
// the same tree in read mode, so every construct that creates a scope here
// must always produce a node, even when its contents are malformed.
package parser

import (
	"fmt"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/position"
	"github.com/kestrel-lang/kestrel/internal/resolver"
)

// Parser represents the recursive descent parser
type Parser struct {
	lex   *lexer.Lexer
	table *resolver.SymbolTable
	arena *ast.Arena
	sink  diagnostics.Sink

	module   string
	errors   int
	consumed int // tokens consumed so far, used to guarantee progress
}

// NewParser creates a parser. Every collaborator is required.
func NewParser(lex *lexer.Lexer, table *resolver.SymbolTable, arena *ast.Arena, sink diagnostics.Sink, module string) *Parser {
	switch {
	case lex == nil:
		panic("parser: invalid environment: nil lexer")
	case table == nil:
		panic("parser: invalid environment: nil symbol table")
	case arena == nil:
		panic("parser: invalid environment: nil arena")
	}
	if table.Mode() != resolver.ModeWrite {
		panic("parser: invalid environment: symbol table is not in write mode")
	}
	if sink == nil {
		sink = diagnostics.Discard
	}
	return &Parser{lex: lex, table: table, arena: arena, sink: sink, module: module}
}

// Parse parses one translation unit and returns its Program node. Syntax
// errors are reported to sink; the returned tree holds every statement that
// could be recovered.
func Parse(lex *lexer.Lexer, table *resolver.SymbolTable, arena *ast.Arena, sink diagnostics.Sink, module string) ast.NodeID {
	return NewParser(lex, table, arena, sink, module).ParseProgram()
}

// ErrorCount returns the number of errors reported so far.
func (p *Parser) ErrorCount() int { return p.errors }

// ParseProgram parses statements until end of input.
func (p *Parser) ParseProgram() ast.NodeID {
	start := p.cur().Pos
	var stmts []ast.NodeID

	for !p.at(lexer.TokenEOF) {
		if p.at(lexer.TokenRBrace) {
			p.unexpected("statement")
			p.next()
			continue
		}
		before := p.consumed
		if s := p.parseStatement(); s != ast.NoNode {
			stmts = append(stmts, s)
		}
		if p.consumed == before {
			p.next()
		}
	}
	return p.arena.NewProgram(start, p.module, stmts)
}

// ====== Token helpers ======

func (p *Parser) cur() lexer.Token { return p.lex.Current() }

func (p *Parser) peek(n int) lexer.Token { return p.lex.Peek(n) }

func (p *Parser) at(tt lexer.TokenType) bool { return p.lex.Current().Type == tt }

func (p *Parser) next() lexer.Token {
	tok := p.lex.Current()
	if !tok.IsEOF() {
		p.consumed++
	}
	p.lex.Advance()
	return tok
}

// accept consumes the current token if it has type tt.
func (p *Parser) accept(tt lexer.TokenType) bool {
	if p.at(tt) {
		p.next()
		return true
	}
	return false
}

// expect consumes a token of type tt or reports an unexpected token.
func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, bool) {
	if p.at(tt) {
		return p.next(), true
	}
	p.unexpected(tt.String())
	return p.cur(), false
}

func (p *Parser) expectIdentifier() (lexer.Token, bool) {
	return p.expect(lexer.TokenIdentifier)
}

// ====== Error reporting and recovery ======

func (p *Parser) report(d diagnostics.Diagnostic) {
	if d.Level == diagnostics.DiagnosticError {
		p.errors++
	}
	p.sink.Report(d)
}

func (p *Parser) unexpected(expected string) {
	tok := p.cur()
	p.report(diagnostics.UnexpectedToken(tok.Pos, expected, tok.Describe()))
}

func (p *Parser) errorf(kind diagnostics.Kind, pos position.Position, format string, args ...interface{}) {
	p.report(diagnostics.Syntax(kind, pos, fmt.Sprintf(format, args...)))
}

// sync skips to the end of the malformed statement: past the next ';' or a
// balanced '{ }' group, or up to an unmatched '}', which is left for the
// enclosing block.
func (p *Parser) sync() {
	depth := 0
	for !p.at(lexer.TokenEOF) {
		switch p.cur().Type {
		case lexer.TokenLBrace:
			depth++
		case lexer.TokenRBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.next()
				p.accept(lexer.TokenSemicolon)
				return
			}
		case lexer.TokenSemicolon:
			if depth == 0 {
				p.next()
				return
			}
		}
		p.next()
	}
}

// skipBody skips a brace group starting at the current '{'.
func (p *Parser) skipBody() {
	if !p.at(lexer.TokenLBrace) {
		return
	}
	depth := 0
	for !p.at(lexer.TokenEOF) {
		switch p.next().Type {
		case lexer.TokenLBrace:
			depth++
		case lexer.TokenRBrace:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// enterScope creates an anonymous scope. Failure means the table was
// handed over in the wrong mode, which NewParser already rules out.
func (p *Parser) enterScope() {
	if _, err := p.table.CreateScope(); err != nil {
		panic(fmt.Sprintf("parser: %v", err))
	}
}

func (p *Parser) leaveScope() {
	if err := p.table.LeaveScope(); err != nil {
		panic(fmt.Sprintf("parser: %v", err))
	}
}
