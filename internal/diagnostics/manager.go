package diagnostics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DiagnosticManager collects diagnostics for one compilation and implements
// Sink. The driver subscribes one manager per file and decides pass/fail from
// its counts.
type DiagnosticManager struct {
	mu sync.Mutex

	diagnostics  []Diagnostic
	errorCount   int
	warningCount int
	maxErrors    int
	maxWarnings  int
	suppressions map[DiagnosticCategory]bool
	noWarnings   bool
	sourceFile   string
}

// NewDiagnosticManager creates a new diagnostic manager
func NewDiagnosticManager() *DiagnosticManager {
	return &DiagnosticManager{
		diagnostics:  make([]Diagnostic, 0),
		maxErrors:    100,
		maxWarnings:  1000,
		suppressions: make(map[DiagnosticCategory]bool),
	}
}

// SetErrorLimit sets the maximum number of errors that are recorded.
// Errors past the limit still mark the compilation as failed.
func (dm *DiagnosticManager) SetErrorLimit(limit int) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.maxErrors = limit
}

// SetWarningLimit sets the maximum number of warnings to report
func (dm *DiagnosticManager) SetWarningLimit(limit int) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.maxWarnings = limit
}

// SetWarningsEnabled toggles recording of warnings.
func (dm *DiagnosticManager) SetWarningsEnabled(enabled bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.noWarnings = !enabled
}

// SetSourceFile stamps every later diagnostic that has no file of its own.
func (dm *DiagnosticManager) SetSourceFile(name string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.sourceFile = name
}

// SuppressCategory suppresses all non-error diagnostics of a specific category
func (dm *DiagnosticManager) SuppressCategory(category DiagnosticCategory) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.suppressions[category] = true
}

// Report implements Sink.
func (dm *DiagnosticManager) Report(d Diagnostic) {
	dm.AddDiagnostic(d)
}

// AddDiagnostic adds a new diagnostic to the manager
func (dm *DiagnosticManager) AddDiagnostic(d Diagnostic) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if d.SourceFile == "" {
		d.SourceFile = dm.sourceFile
	}

	switch d.Level {
	case DiagnosticError:
		// Errors are always counted, only recording is capped.
		dm.errorCount++
		if dm.errorCount > dm.maxErrors {
			return
		}
	case DiagnosticWarning:
		if dm.noWarnings || dm.suppressions[d.Category()] {
			return
		}
		if dm.warningCount >= dm.maxWarnings {
			return
		}
		dm.warningCount++
	default:
		if dm.suppressions[d.Category()] {
			return
		}
	}

	dm.diagnostics = append(dm.diagnostics, d)
}

// GetDiagnostics returns a copy of the recorded diagnostics in report order.
func (dm *DiagnosticManager) GetDiagnostics() []Diagnostic {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	out := make([]Diagnostic, len(dm.diagnostics))
	copy(out, dm.diagnostics)
	return out
}

// GetErrorCount returns the number of errors
func (dm *DiagnosticManager) GetErrorCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.errorCount
}

// GetWarningCount returns the number of warnings
func (dm *DiagnosticManager) GetWarningCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.warningCount
}

// HasErrors returns true if there are any errors
func (dm *DiagnosticManager) HasErrors() bool {
	return dm.GetErrorCount() > 0
}

// HasKind reports whether a diagnostic of kind k was recorded.
func (dm *DiagnosticManager) HasKind(k Kind) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, d := range dm.diagnostics {
		if d.Kind == k {
			return true
		}
	}
	return false
}

// Reset drops every recorded diagnostic and zeroes the counters.
func (dm *DiagnosticManager) Reset() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.diagnostics = dm.diagnostics[:0]
	dm.errorCount = 0
	dm.warningCount = 0
}

// SortDiagnostics sorts diagnostics by location and severity
func (dm *DiagnosticManager) SortDiagnostics() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	sort.SliceStable(dm.diagnostics, func(i, j int) bool {
		a, b := dm.diagnostics[i], dm.diagnostics[j]

		// Sort by file first
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}

		// Then by line
		if a.Span.Start.Line != b.Span.Start.Line {
			return a.Span.Start.Line < b.Span.Start.Line
		}

		// Then by column
		if a.Span.Start.Column != b.Span.Start.Column {
			return a.Span.Start.Column < b.Span.Start.Column
		}

		// Finally by severity (errors first)
		return a.Level < b.Level
	})
}

// GetDiagnosticsByLevel returns diagnostics filtered by level
func (dm *DiagnosticManager) GetDiagnosticsByLevel(level DiagnosticLevel) []Diagnostic {
	var filtered []Diagnostic
	for _, diag := range dm.GetDiagnostics() {
		if diag.Level == level {
			filtered = append(filtered, diag)
		}
	}
	return filtered
}

// GetDiagnosticsByCategory returns diagnostics filtered by category
func (dm *DiagnosticManager) GetDiagnosticsByCategory(category DiagnosticCategory) []Diagnostic {
	var filtered []Diagnostic
	for _, diag := range dm.GetDiagnostics() {
		if diag.Category() == category {
			filtered = append(filtered, diag)
		}
	}
	return filtered
}

// FormatSummary formats a summary of all diagnostics
func (dm *DiagnosticManager) FormatSummary() string {
	diags := dm.GetDiagnostics()
	if len(diags) == 0 && !dm.HasErrors() {
		return "No diagnostics."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d error(s) and %d warning(s).",
		dm.GetErrorCount(), dm.GetWarningCount()))

	categoryCount := make(map[DiagnosticCategory]int)
	for _, d := range diags {
		categoryCount[d.Category()]++
	}

	if len(categoryCount) > 0 {
		categories := make([]DiagnosticCategory, 0, len(categoryCount))
		for c := range categoryCount {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

		result.WriteString("\n\nBreakdown by category:")
		for _, category := range categories {
			result.WriteString(fmt.Sprintf("\n  %s: %d", category.String(), categoryCount[category]))
		}
	}

	return result.String()
}
