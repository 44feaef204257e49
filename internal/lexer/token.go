package lexer

import (
	"fmt"

	"github.com/kestrel-lang/kestrel/internal/literal"
	"github.com/kestrel-lang/kestrel/internal/position"
)

// TokenType represents the type of a token
type TokenType int

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Spelling returns the source text of a keyword, operator or punctuation
// token, or "" for identifiers, literals and end of input.
func (tt TokenType) Spelling() string {
	name := tokenNames[tt]
	if len(name) < 3 || name[0] != '\'' {
		return ""
	}
	return name[1 : len(name)-1]
}

// Token types - Kestrel言語のトークン定義
const (
	// 特殊トークン
	TokenEOF TokenType = iota

	// リテラル
	TokenIdentifier
	TokenLiteral

	// キーワード
	TokenIf
	TokenElse
	TokenLoop
	TokenWhile
	TokenBreak
	TokenContinue
	TokenReturn
	TokenStruct
	TokenEnum
	TokenImport

	// 組み込み型
	TokenInt8
	TokenInt16
	TokenInt32
	TokenInt64
	TokenUint8
	TokenUint16
	TokenUint32
	TokenUint64
	TokenFloat
	TokenDouble
	TokenBool
	TokenChar
	TokenString
	TokenVoid

	// 演算子
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenAssign    // =
	TokenEq        // ==
	TokenNe        // !=
	TokenLt        // <
	TokenGt        // >
	TokenLe        // <=
	TokenGe        // >=
	TokenAndAnd    // &&
	TokenOrOr      // ||
	TokenBang      // !
	TokenAmpersand // &
	TokenArrow     // ->

	// 区切り文字
	TokenDot       // .
	TokenComma     // ,
	TokenColon     // :
	TokenSemicolon // ;
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
)

// tokenNames provides the display form used in diagnostics.
var tokenNames = map[TokenType]string{
	TokenEOF:        "end of input",
	TokenIdentifier: "identifier",
	TokenLiteral:    "literal",

	TokenIf:       "'if'",
	TokenElse:     "'else'",
	TokenLoop:     "'loop'",
	TokenWhile:    "'while'",
	TokenBreak:    "'break'",
	TokenContinue: "'continue'",
	TokenReturn:   "'return'",
	TokenStruct:   "'struct'",
	TokenEnum:     "'enum'",
	TokenImport:   "'import'",

	TokenInt8:   "'int8'",
	TokenInt16:  "'int16'",
	TokenInt32:  "'int32'",
	TokenInt64:  "'int64'",
	TokenUint8:  "'uint8'",
	TokenUint16: "'uint16'",
	TokenUint32: "'uint32'",
	TokenUint64: "'uint64'",
	TokenFloat:  "'float'",
	TokenDouble: "'double'",
	TokenBool:   "'bool'",
	TokenChar:   "'char'",
	TokenString: "'string'",
	TokenVoid:   "'void'",

	TokenPlus:      "'+'",
	TokenMinus:     "'-'",
	TokenStar:      "'*'",
	TokenSlash:     "'/'",
	TokenAssign:    "'='",
	TokenEq:        "'=='",
	TokenNe:        "'!='",
	TokenLt:        "'<'",
	TokenGt:        "'>'",
	TokenLe:        "'<='",
	TokenGe:        "'>='",
	TokenAndAnd:    "'&&'",
	TokenOrOr:      "'||'",
	TokenBang:      "'!'",
	TokenAmpersand: "'&'",
	TokenArrow:     "'->'",

	TokenDot:       "'.'",
	TokenComma:     "','",
	TokenColon:     "':'",
	TokenSemicolon: "';'",
	TokenLParen:    "'('",
	TokenRParen:    "')'",
	TokenLBrace:    "'{'",
	TokenRBrace:    "'}'",
	TokenLBracket:  "'['",
	TokenRBracket:  "']'",
}

// keywords maps string keywords to their token types
var keywords = map[string]TokenType{
	"if":       TokenIf,
	"else":     TokenElse,
	"loop":     TokenLoop,
	"while":    TokenWhile,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"return":   TokenReturn,
	"struct":   TokenStruct,
	"enum":     TokenEnum,
	"import":   TokenImport,

	"int8":   TokenInt8,
	"int16":  TokenInt16,
	"int32":  TokenInt32,
	"int64":  TokenInt64,
	"uint8":  TokenUint8,
	"uint16": TokenUint16,
	"uint32": TokenUint32,
	"uint64": TokenUint64,
	"float":  TokenFloat,
	"double": TokenDouble,
	"bool":   TokenBool,
	"char":   TokenChar,
	"string": TokenString,
	"void":   TokenVoid,
}

// Literal keywords produce literal tokens, not identifiers.
var literalKeywords = map[string]literal.Value{
	"true":  literal.NewBool(true),
	"false": literal.NewBool(false),
	"null":  literal.NewNull(),
}

// Operators keyed by their spelling, two-character forms first.
var twoCharOperators = map[string]TokenType{
	"==": TokenEq,
	"!=": TokenNe,
	"<=": TokenLe,
	">=": TokenGe,
	"&&": TokenAndAnd,
	"||": TokenOrOr,
	"->": TokenArrow,
}

var oneCharOperators = map[byte]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'=': TokenAssign,
	'<': TokenLt,
	'>': TokenGt,
	'!': TokenBang,
	'&': TokenAmpersand,
	'.': TokenDot,
	',': TokenComma,
	':': TokenColon,
	';': TokenSemicolon,
	'(': TokenLParen,
	')': TokenRParen,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'[': TokenLBracket,
	']': TokenRBracket,
}

// Token represents a lexical token with position information. Name is set
// for identifiers, Value for literals.
type Token struct {
	Type  TokenType
	Pos   position.Position
	Name  string
	Value literal.Value
}

// IsEOF reports whether the token is the end-of-input sentinel.
func (t Token) IsEOF() bool { return t.Type == TokenEOF }

// IsPrimitiveType reports whether the token is a builtin type keyword.
func (t Token) IsPrimitiveType() bool {
	return t.Type >= TokenInt8 && t.Type <= TokenVoid
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenIdentifier:
		return fmt.Sprintf("%d:%d identifier %s", t.Pos.Line, t.Pos.Column, t.Name)
	case TokenLiteral:
		return fmt.Sprintf("%d:%d %s literal %s", t.Pos.Line, t.Pos.Column, t.Value.Kind, t.Value)
	default:
		return fmt.Sprintf("%d:%d %s", t.Pos.Line, t.Pos.Column, t.Type)
	}
}

// Describe names the token the way parser diagnostics quote it.
func (t Token) Describe() string {
	switch t.Type {
	case TokenIdentifier:
		return "identifier '" + t.Name + "'"
	case TokenLiteral:
		return "literal " + t.Value.String()
	default:
		return t.Type.String()
	}
}
