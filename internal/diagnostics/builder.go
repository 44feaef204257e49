package diagnostics

import (
	"fmt"

	"github.com/kestrel-lang/kestrel/internal/position"
)

// DiagnosticBuilder provides a fluent interface for building diagnostics.
type DiagnosticBuilder struct {
	diagnostic Diagnostic
}

// NewDiagnosticBuilder creates a builder for a diagnostic of kind reported
// by phase. The level defaults to the kind's default level.
func NewDiagnosticBuilder(phase Phase, kind Kind) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		diagnostic: Diagnostic{
			Phase: phase,
			Kind:  kind,
			Level: kind.DefaultLevel(),
		},
	}
}

// Error forces error level.
func (db *DiagnosticBuilder) Error() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticError

	return db
}

// WithMessage sets the main diagnostic message.
func (db *DiagnosticBuilder) WithMessage(message string) *DiagnosticBuilder {
	db.diagnostic.Message = message

	return db
}

// WithMessagef sets the main diagnostic message with formatting.
func (db *DiagnosticBuilder) WithMessagef(format string, args ...interface{}) *DiagnosticBuilder {
	db.diagnostic.Message = fmt.Sprintf(format, args...)

	return db
}

// WithSpan sets the source span.
func (db *DiagnosticBuilder) WithSpan(span position.Span) *DiagnosticBuilder {
	db.diagnostic.Span = span

	return db
}

// AtPosition sets an empty span anchored at pos.
func (db *DiagnosticBuilder) AtPosition(pos position.Position) *DiagnosticBuilder {
	db.diagnostic.Span = position.SpanAt(pos)

	return db
}

// WithSourceFile sets the file the diagnostic belongs to.
func (db *DiagnosticBuilder) WithSourceFile(filename string) *DiagnosticBuilder {
	db.diagnostic.SourceFile = filename

	return db
}

// WithStackTrace attaches an internal stack trace.
func (db *DiagnosticBuilder) WithStackTrace(frames []string) *DiagnosticBuilder {
	db.diagnostic.StackTrace = append([]string(nil), frames...)

	return db
}

// Build returns the constructed diagnostic.
func (db *DiagnosticBuilder) Build() Diagnostic {
	return db.diagnostic
}

// ReportTo builds the diagnostic and reports it to sink.
func (db *DiagnosticBuilder) ReportTo(sink Sink) {
	sink.Report(db.Build())
}
