// Package diagnostics provides the diagnostic model shared by every compiler
// phase, the sinks phases report into, and a manager that aggregates them for
// the driver. Phases never print; they only Report.
package diagnostics

import (
	"fmt"

	"github.com/kestrel-lang/kestrel/internal/position"
)

// DiagnosticLevel represents the severity level of a diagnostic
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
	DiagnosticInfo
	DiagnosticHint
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticInfo:
		return "info"
	case DiagnosticHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Phase identifies the compiler phase that produced a diagnostic.
type Phase int

const (
	PhaseLexer Phase = iota
	PhaseParser
	PhaseSemantic
	PhaseDriver
)

func (p Phase) String() string {
	switch p {
	case PhaseLexer:
		return "lexer"
	case PhaseParser:
		return "parser"
	case PhaseSemantic:
		return "semantic"
	case PhaseDriver:
		return "driver"
	default:
		return "unknown"
	}
}

// DiagnosticCategory represents the category of diagnostic
type DiagnosticCategory int

const (
	CategorySyntax DiagnosticCategory = iota
	CategoryParsing
	CategoryTypeError
	CategoryUndefinedVariable
	CategoryUndefinedType
	CategoryRedefinition
	CategoryControlFlow
	CategoryInfiniteLoop
	CategoryInternal
)

func (dc DiagnosticCategory) String() string {
	switch dc {
	case CategorySyntax:
		return "syntax"
	case CategoryParsing:
		return "parsing"
	case CategoryTypeError:
		return "type-error"
	case CategoryUndefinedVariable:
		return "undefined-variable"
	case CategoryUndefinedType:
		return "undefined-type"
	case CategoryRedefinition:
		return "redefinition"
	case CategoryControlFlow:
		return "control-flow"
	case CategoryInfiniteLoop:
		return "infinite-loop"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Diagnostic is one message reported by a phase.
type Diagnostic struct {
	Phase    Phase
	Kind     Kind
	Level    DiagnosticLevel
	Message  string
	Span     position.Span

	// Set for KindUnexpectedToken only.
	Expected string
	Actual   string

	SourceFile string
	StackTrace []string // Internal compiler stack trace
}

// Code returns the stable diagnostic code, e.g. "S004".
func (d Diagnostic) Code() string { return d.Kind.Code() }

// Category returns the broad category of the diagnostic kind.
func (d Diagnostic) Category() DiagnosticCategory { return d.Kind.Category() }

// String renders the diagnostic on a single line.
func (d Diagnostic) String() string {
	loc := d.Span.Start.String()
	if d.SourceFile != "" && d.Span.Start.Filename == "" {
		loc = d.SourceFile + ":" + loc
	}
	return fmt.Sprintf("%s: %s[%s]: %s", loc, d.Level, d.Code(), d.Message)
}

// Sink receives diagnostics from a phase.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(d Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Multicast fans every diagnostic out to each of its sinks in order.
type Multicast []Sink

func (m Multicast) Report(d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Report(d)
		}
	}
}

// Discard drops everything reported to it.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Lexical builds a lexer diagnostic.
func Lexical(kind Kind, pos position.Position, message string) Diagnostic {
	return NewDiagnosticBuilder(PhaseLexer, kind).Error().WithMessage(message).AtPosition(pos).Build()
}

// UnexpectedToken builds the parser's structured "unexpected token" error.
func UnexpectedToken(pos position.Position, expected, actual string) Diagnostic {
	return Diagnostic{
		Phase:    PhaseParser,
		Kind:     KindUnexpectedToken,
		Level:    DiagnosticError,
		Message:  fmt.Sprintf("expected %s, got %s", expected, actual),
		Span:     position.SpanAt(pos),
		Expected: expected,
		Actual:   actual,
	}
}

// Syntax builds a parser diagnostic other than an unexpected token.
func Syntax(kind Kind, pos position.Position, message string) Diagnostic {
	return NewDiagnosticBuilder(PhaseParser, kind).Error().WithMessage(message).AtPosition(pos).Build()
}

// Semantic builds an analyser diagnostic with the kind's default level.
func Semantic(kind Kind, span position.Span, format string, args ...interface{}) Diagnostic {
	return NewDiagnosticBuilder(PhaseSemantic, kind).WithMessagef(format, args...).WithSpan(span).Build()
}
