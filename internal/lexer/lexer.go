// Package lexer implements the Kestrel lexical analyzer.
//
// The lexer pulls its input one line at a time from a source.LineSource and
// produces tokens lazily. Callers see the stream through Current, Advance and
// Peek; end of input is the TokenEOF sentinel. Lexical errors are reported to
// a diagnostics.Sink and never abort the caller.
package lexer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/literal"
	"github.com/kestrel-lang/kestrel/internal/position"
	"github.com/kestrel-lang/kestrel/internal/source"
)

// Lexer represents the lexical analyzer
type Lexer struct {
	src      source.LineSource
	sink     diagnostics.Sink
	filename string

	line    string // current line without terminator
	lineNo  int    // 1-based number of line
	col     int    // 0-based byte offset into line
	stopped bool   // no further tokens will be produced
	err     error  // read failure other than end of input

	inComment    bool
	commentStart position.Position

	// queue[0] is the current token, the rest is lookahead.
	queue []Token
}

// New opens src and positions the lexer on the first token.
func New(src source.LineSource, sink diagnostics.Sink) (*Lexer, error) {
	if src == nil {
		panic("lexer: nil line source")
	}
	if sink == nil {
		sink = diagnostics.Discard
	}
	if err := src.Open(); err != nil {
		return nil, err
	}
	l := &Lexer{
		src:      src,
		sink:     sink,
		filename: src.Name(),
		lineNo:   0,
	}
	l.fill(0)
	return l, nil
}

// NewFromString lexes an in-memory text.
func NewFromString(name, text string, sink diagnostics.Sink) *Lexer {
	l, err := New(source.NewStringSource(name, text), sink)
	if err != nil {
		// StringSource.Open cannot fail.
		panic(err)
	}
	return l
}

// Close releases the underlying source.
func (l *Lexer) Close() error {
	return l.src.Close()
}

// Err returns the first read error other than end of input.
func (l *Lexer) Err() error { return l.err }

// Filename returns the name of the source being lexed.
func (l *Lexer) Filename() string { return l.filename }

// Current returns the current token.
func (l *Lexer) Current() Token {
	return l.queue[0]
}

// Advance moves to the next token and returns it.
func (l *Lexer) Advance() Token {
	if len(l.queue) > 1 || !l.queue[0].IsEOF() {
		l.queue = l.queue[1:]
	}
	l.fill(0)
	return l.queue[0]
}

// Peek returns the token n positions after the current one. Peek(0) is the
// current token. Past the end every peek yields TokenEOF.
func (l *Lexer) Peek(n int) Token {
	if n < 0 {
		n = 0
	}
	l.fill(n)
	return l.queue[n]
}

// Tokens drains the remaining stream, current token included.
func (l *Lexer) Tokens() []Token {
	var out []Token
	for tok := l.Current(); !tok.IsEOF(); tok = l.Advance() {
		out = append(out, tok)
	}
	return out
}

func (l *Lexer) fill(n int) {
	for len(l.queue) <= n {
		l.queue = append(l.queue, l.next())
	}
}

func (l *Lexer) pos() position.Position {
	return position.Position{Filename: l.filename, Line: l.lineNo, Column: l.col + 1}
}

func (l *Lexer) report(kind diagnostics.Kind, at position.Position, format string, args ...interface{}) {
	d := diagnostics.Lexical(kind, at, fmt.Sprintf(format, args...))
	d.SourceFile = l.filename
	l.sink.Report(d)
}

// readLine refills the line buffer. It returns false once the source is
// exhausted.
func (l *Lexer) readLine() bool {
	text, err := l.src.ReadLine()
	if err != nil {
		if !errors.Is(err, source.ErrEndOfInput) && l.err == nil {
			l.err = err
		}
		return false
	}
	l.line = text
	l.lineNo++
	l.col = 0
	return true
}

func (l *Lexer) eof() Token {
	return Token{Type: TokenEOF, Pos: l.pos()}
}

// next scans one token.
func (l *Lexer) next() Token {
	for {
		if l.stopped {
			return l.eof()
		}
		if l.col >= len(l.line) {
			if !l.readLine() {
				if l.inComment {
					l.report(diagnostics.KindUnterminatedComment, l.commentStart, "unterminated comment")
				}
				l.stopped = true
				return l.eof()
			}
			continue
		}

		if l.inComment {
			end := strings.Index(l.line[l.col:], "*/")
			if end < 0 {
				l.col = len(l.line)
				continue
			}
			l.col += end + 2
			l.inComment = false
			continue
		}

		ch := l.line[l.col]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			l.col++
			continue
		case ch == '/' && l.peekChar(1) == '/':
			l.col = len(l.line)
			continue
		case ch == '/' && l.peekChar(1) == '*':
			l.inComment = true
			l.commentStart = l.pos()
			l.col += 2
			continue
		case isDigit(ch):
			if tok, ok := l.readNumber(); ok {
				return tok
			}
			continue
		case ch == '"':
			if tok, ok := l.readString(); ok {
				return tok
			}
			continue
		case ch == '\'':
			if tok, ok := l.readChar(); ok {
				return tok
			}
			continue
		case isLetter(ch) || ch == '_':
			return l.readIdentifier()
		}

		if tok, ok := l.readOperator(); ok {
			return tok
		}
	}
}

func (l *Lexer) peekChar(offset int) byte {
	if l.col+offset >= len(l.line) {
		return 0
	}
	return l.line[l.col+offset]
}

// readIdentifier reads an identifier, keyword or literal keyword.
func (l *Lexer) readIdentifier() Token {
	start := l.pos()
	begin := l.col
	for l.col < len(l.line) && isAlphaNumeric(l.line[l.col]) {
		l.col++
	}
	word := l.line[begin:l.col]

	if v, ok := literalKeywords[word]; ok {
		return Token{Type: TokenLiteral, Pos: start, Value: v}
	}
	if tt, ok := keywords[word]; ok {
		return Token{Type: tt, Pos: start}
	}
	return Token{Type: TokenIdentifier, Pos: start, Name: word}
}

// readOperator matches the two-character form before the single character.
// Unrecognized bytes are reported and skipped.
func (l *Lexer) readOperator() (Token, bool) {
	start := l.pos()
	if l.col+1 < len(l.line) {
		if tt, ok := twoCharOperators[l.line[l.col:l.col+2]]; ok {
			l.col += 2
			return Token{Type: tt, Pos: start}, true
		}
	}
	if tt, ok := oneCharOperators[l.line[l.col]]; ok {
		l.col++
		return Token{Type: tt, Pos: start}, true
	}

	begin := l.col
	for l.col < len(l.line) && !l.startsToken(l.line[l.col]) {
		l.col++
	}
	if l.col == begin {
		l.col++
	}
	l.report(diagnostics.KindUnrecognizedSequence, start, "unrecognized character sequence %q", l.line[begin:l.col])
	return Token{}, false
}

func (l *Lexer) startsToken(ch byte) bool {
	if isAlphaNumeric(ch) || ch == '"' || ch == '\'' || ch == ' ' || ch == '\t' {
		return true
	}
	_, ok := oneCharOperators[ch]
	return ok
}

// readNumber reads an integer or floating point literal with its suffix.
func (l *Lexer) readNumber() (Token, bool) {
	start := l.pos()
	begin := l.col

	base := 10
	digitsBegin := l.col
	switch {
	case l.line[l.col] == '0' && (l.peekChar(1) == 'x' || l.peekChar(1) == 'X'):
		base = 16
		l.col += 2
	case l.line[l.col] == '0' && (l.peekChar(1) == 'b' || l.peekChar(1) == 'B'):
		base = 2
		l.col += 2
	case l.line[l.col] == '0' && isDigit(l.peekChar(1)):
		base = 8
		l.col++
	}
	if base != 10 {
		digitsBegin = l.col
	}

	for l.col < len(l.line) && isDigitInBase(l.line[l.col], base) {
		l.col++
	}
	// Octal literals are scanned as decimal digits so "09" is reported as
	// malformed rather than split into two tokens.
	if base == 8 {
		for l.col < len(l.line) && isDigit(l.line[l.col]) {
			l.col++
		}
	}

	isFloat := false
	if base == 10 && l.peekChar(0) == '.' && isDigit(l.peekChar(1)) {
		isFloat = true
		l.col++
		for l.col < len(l.line) && isDigit(l.line[l.col]) {
			l.col++
		}
	}
	digits := l.line[digitsBegin:l.col]

	suffixBegin := l.col
	for l.col < len(l.line) && strings.IndexByte("uUlLfF", l.line[l.col]) >= 0 {
		l.col++
	}
	suffix := strings.ToLower(l.line[suffixBegin:l.col])

	// Anything glued to the number makes the whole run malformed.
	if l.col < len(l.line) && isAlphaNumeric(l.line[l.col]) {
		for l.col < len(l.line) && isAlphaNumeric(l.line[l.col]) {
			l.col++
		}
		l.report(diagnostics.KindMalformedNumber, start, "malformed number %q", l.line[begin:l.col])
		return Token{}, false
	}

	v, err := numberValue(digits, base, isFloat, suffix)
	if err != nil {
		l.report(diagnostics.KindMalformedNumber, start, "malformed number %q: %v", l.line[begin:l.col], err)
		return Token{}, false
	}
	return Token{Type: TokenLiteral, Pos: start, Value: v}, true
}

func numberValue(digits string, base int, isFloat bool, suffix string) (literal.Value, error) {
	if digits == "" {
		return literal.Value{}, errors.New("missing digits")
	}

	if isFloat || suffix == "f" {
		if base != 10 {
			return literal.Value{}, errors.New("floating point literal must be decimal")
		}
		switch suffix {
		case "":
			f, err := strconv.ParseFloat(digits, 64)
			if err != nil {
				return literal.Value{}, err
			}
			return literal.NewDouble(f), nil
		case "f":
			f, err := strconv.ParseFloat(digits, 32)
			if err != nil {
				return literal.Value{}, err
			}
			return literal.NewFloat(float32(f)), nil
		}
		return literal.Value{}, fmt.Errorf("invalid suffix %q", suffix)
	}

	n, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return literal.Value{}, errors.New("value out of range")
	}

	switch suffix {
	case "":
		if n <= math.MaxInt32 {
			return literal.NewInt32(int32(n)), nil
		}
		if n <= math.MaxInt64 {
			return literal.NewInt64(int64(n)), nil
		}
		return literal.NewUint64(n), nil
	case "u":
		if n <= math.MaxUint32 {
			return literal.NewUint32(uint32(n)), nil
		}
		return literal.NewUint64(n), nil
	case "l":
		if n > math.MaxInt64 {
			return literal.Value{}, errors.New("value out of range")
		}
		return literal.NewInt64(int64(n)), nil
	case "ul", "lu":
		return literal.NewUint64(n), nil
	}
	return literal.Value{}, fmt.Errorf("invalid suffix %q", suffix)
}

// readString reads a double quoted string. Strings do not span lines.
func (l *Lexer) readString() (Token, bool) {
	start := l.pos()
	l.col++ // opening quote

	var sb strings.Builder
	for l.col < len(l.line) {
		ch := l.line[l.col]
		if ch == '"' {
			l.col++
			return Token{Type: TokenLiteral, Pos: start, Value: literal.NewString(sb.String())}, true
		}
		if ch == '\\' {
			esc, ok := l.readEscape()
			if !ok {
				l.col = len(l.line)
				return Token{}, false
			}
			sb.WriteByte(esc)
			continue
		}
		sb.WriteByte(ch)
		l.col++
	}

	l.report(diagnostics.KindUnterminatedString, start, "unterminated string literal")
	return Token{}, false
}

// readChar reads a single quoted character literal.
func (l *Lexer) readChar() (Token, bool) {
	start := l.pos()
	l.col++ // opening quote

	var c byte
	switch {
	case l.col >= len(l.line) || l.line[l.col] == '\'':
		l.report(diagnostics.KindUnterminatedString, start, "empty character literal")
		l.col = min(l.col+1, len(l.line))
		return Token{}, false
	case l.line[l.col] == '\\':
		esc, ok := l.readEscape()
		if !ok {
			l.col = len(l.line)
			return Token{}, false
		}
		c = esc
	default:
		c = l.line[l.col]
		l.col++
	}

	if l.peekChar(0) != '\'' {
		l.report(diagnostics.KindUnterminatedString, start, "unterminated character literal")
		l.col = len(l.line)
		return Token{}, false
	}
	l.col++
	return Token{Type: TokenLiteral, Pos: start, Value: literal.NewChar(c)}, true
}

// readEscape consumes a backslash escape and returns the byte it denotes.
func (l *Lexer) readEscape() (byte, bool) {
	at := l.pos()
	l.col++ // backslash
	if l.col >= len(l.line) {
		l.report(diagnostics.KindUnterminatedString, at, "unterminated escape sequence")
		return 0, false
	}
	ch := l.line[l.col]
	l.col++
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\', '"', '\'':
		return ch, true
	}
	l.report(diagnostics.KindUnrecognizedSequence, at, "unknown escape sequence \\%c", ch)
	return ch, true
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}

func isDigitInBase(ch byte, base int) bool {
	switch base {
	case 2:
		return ch == '0' || ch == '1'
	case 8:
		return '0' <= ch && ch <= '7'
	case 16:
		return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
	}
	return isDigit(ch)
}
