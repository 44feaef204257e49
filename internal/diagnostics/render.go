package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/kestrel-lang/kestrel/internal/position"
)

// ColorMode selects when the renderer emits ANSI colours.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses "auto", "always" or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q", s)
}

// UseColor reports whether f should receive coloured output under mode.
func UseColor(f *os.File, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const defaultWidth = 100

// Renderer prints diagnostics with source context. It is also a Sink, which
// is how the REPL prints diagnostics as they arrive.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	width   int
	sources map[string]*position.SourceFile

	levelColors map[DiagnosticLevel]*color.Color
	gutter      *color.Color
	pointer     *color.Color
	bold        *color.Color
}

// NewRenderer creates a renderer writing to f. Colours follow mode and the
// terminal width is queried from f when it is a terminal.
func NewRenderer(f *os.File, mode ColorMode) *Renderer {
	colored := UseColor(f, mode)
	var out io.Writer = colorable.NewColorable(f)
	if !colored {
		out = colorable.NewNonColorable(f)
	}
	r := newRenderer(out, colored)
	if w, ok := terminalWidth(f); ok {
		r.width = w
	}
	return r
}

// NewPlainRenderer creates a colourless renderer over any writer.
func NewPlainRenderer(w io.Writer) *Renderer {
	return newRenderer(w, false)
}

func newRenderer(out io.Writer, colored bool) *Renderer {
	r := &Renderer{
		out:     out,
		width:   defaultWidth,
		sources: make(map[string]*position.SourceFile),
		levelColors: map[DiagnosticLevel]*color.Color{
			DiagnosticError:   color.New(color.FgRed, color.Bold),
			DiagnosticWarning: color.New(color.FgYellow, color.Bold),
			DiagnosticInfo:    color.New(color.FgBlue, color.Bold),
			DiagnosticHint:    color.New(color.FgHiBlack),
		},
		gutter:  color.New(color.FgCyan),
		pointer: color.New(color.FgGreen, color.Bold),
		bold:    color.New(color.Bold),
	}
	all := []*color.Color{r.gutter, r.pointer, r.bold}
	for _, c := range r.levelColors {
		all = append(all, c)
	}
	for _, c := range all {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// AddSource registers the text of a file so diagnostics can quote it.
func (r *Renderer) AddSource(sf *position.SourceFile) {
	if sf == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[sf.Filename] = sf
}

// Report implements Sink by rendering d immediately.
func (r *Renderer) Report(d Diagnostic) {
	_ = r.Render(d)
}

// Render writes one diagnostic.
func (r *Renderer) Render(d Diagnostic) error {
	text := r.Format(d)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.out, text)
	return err
}

// RenderAll writes every diagnostic in order.
func (r *Renderer) RenderAll(diags []Diagnostic) error {
	for _, d := range diags {
		if err := r.Render(d); err != nil {
			return err
		}
	}
	return nil
}

// Format formats a diagnostic for display
func (r *Renderer) Format(d Diagnostic) string {
	var result strings.Builder

	lc := r.levelColors[d.Level]
	if lc == nil {
		lc = r.bold
	}

	// Header line: level, code, message
	result.WriteString(lc.Sprintf("%s[%s]", d.Level, d.Code()))
	result.WriteString(r.bold.Sprint(": " + d.Message))
	result.WriteString("\n")

	file := d.SourceFile
	if file == "" {
		file = d.Span.Start.Filename
	}
	loc := fmt.Sprintf("%d:%d", d.Span.Start.Line, d.Span.Start.Column)
	if file != "" {
		loc = file + ":" + loc
	}
	result.WriteString(r.gutter.Sprint("  --> ") + loc + "\n")

	r.mu.Lock()
	sf := r.sources[file]
	r.mu.Unlock()
	if line := sf.GetLine(d.Span.Start.Line); line != "" {
		line = r.clip(strings.ReplaceAll(line, "\t", " "))
		result.WriteString(r.gutter.Sprintf("%4d | ", d.Span.Start.Line))
		result.WriteString(line + "\n")

		col := d.Span.Start.Column
		if col < 1 {
			col = 1
		}
		width := 1
		if d.Span.End.Line == d.Span.Start.Line && d.Span.End.Column > col {
			width = d.Span.End.Column - col
		}
		result.WriteString(r.gutter.Sprint("     | "))
		result.WriteString(strings.Repeat(" ", col-1))
		result.WriteString(r.pointer.Sprint(strings.Repeat("^", width)) + "\n")
	}

	if d.Expected != "" {
		result.WriteString(fmt.Sprintf("     = expected %s, found %s\n", d.Expected, d.Actual))
	}
	for _, frame := range d.StackTrace {
		result.WriteString("       at " + frame + "\n")
	}
	return result.String()
}

func (r *Renderer) clip(line string) string {
	limit := r.width - 8
	if limit < 20 || len(line) <= limit {
		return line
	}
	return line[:limit-3] + "..."
}
