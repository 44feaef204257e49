package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger provides levelled logging for CLI tools. Warnings and errors are
// always written; info needs Verbose and debug needs DebugMode.
type Logger struct {
	Verbose   bool
	DebugMode bool

	mu  sync.Mutex
	out io.Writer
	now func() time.Time

	info, debug, warn, err *color.Color
}

// NewLogger creates a logger writing to stderr, coloured when stderr is a
// terminal.
func NewLogger(verbose, debug bool) *Logger {
	fd := os.Stderr.Fd()
	colored := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return NewLoggerTo(colorable.NewColorableStderr(), verbose, debug, colored)
}

// NewLoggerTo creates a logger writing to w.
func NewLoggerTo(w io.Writer, verbose, debug, colored bool) *Logger {
	l := &Logger{
		Verbose:   verbose,
		DebugMode: debug,
		out:       w,
		now:       time.Now,
		info:      color.New(color.FgGreen),
		debug:     color.New(color.FgCyan),
		warn:      color.New(color.FgYellow),
		err:       color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{l.info, l.debug, l.warn, l.err} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return l
}

func (l *Logger) log(c *color.Color, level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s: %s\n", c.Sprint("["+level+"]"), l.now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose {
		l.log(l.info, "INFO", format, args)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		l.log(l.debug, "DEBUG", format, args)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(l.warn, "WARN", format, args)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(l.err, "ERROR", format, args)
}
