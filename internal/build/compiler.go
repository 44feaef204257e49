// Package build drives the Kestrel front end over files: it runs the
// lexer, parser and semantic analyser for each file, caches the results,
// compiles several files concurrently and recompiles on change.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-stack/stack"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/parser"
	"github.com/kestrel-lang/kestrel/internal/resolver"
	"github.com/kestrel-lang/kestrel/internal/typechecker"
)

// SourceExt is the extension of Kestrel source files.
const SourceExt = ".kst"

// Logger receives progress messages from the driver.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}

// Unit is one compiled file.
type Unit struct {
	Path   string
	Source string

	Arena  *ast.Arena
	Table  *resolver.SymbolTable
	Root   ast.NodeID
	Result *typechecker.Result // nil when parsing failed

	Diagnostics []diagnostics.Diagnostic
	Errors      int
	Warnings    int
}

// Failed reports whether any error was reported for the unit.
func (u *Unit) Failed() bool { return u.Errors > 0 }

// Compiler runs the front end. It is safe for concurrent use.
type Compiler struct {
	cfg   Config
	log   Logger
	cache *Cache
	group singleflight.Group

	// langErr is set when the project's language constraint rejects
	// LanguageVersion; every unit then fails with a language-version error.
	langErr error

	// beforeAnalysis runs between parsing and analysis when set.
	beforeAnalysis func(*Unit)
}

// NewCompiler validates cfg and creates a compiler. A nil log discards
// messages.
func NewCompiler(cfg Config, log Logger) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if log == nil {
		log = nopLogger{}
	}
	cache, err := NewCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	c := &Compiler{cfg: cfg, log: log, cache: cache}
	if err := CheckLanguage(cfg.Language); err != nil {
		if !errors.Is(err, ErrLanguageVersion) {
			return nil, fmt.Errorf("config: %w", err)
		}
		c.langErr = err
		log.Warn("%v", err)
	}
	return c, nil
}

// Config returns the settings the compiler was created with.
func (c *Compiler) Config() Config { return c.cfg }

// Cache returns the compiler's result cache.
func (c *Compiler) Cache() *Cache { return c.cache }

// CompileSource compiles text as the file path. Results are cached by path
// and content, and concurrent requests for the same key share one
// compilation.
func (c *Compiler) CompileSource(path, text string) *Unit {
	key := KeyFor(path, text)
	if u, ok := c.cache.Get(key); ok {
		c.log.Debug("cache hit for %s", path)
		return u
	}
	v, _, shared := c.group.Do(string(key), func() (interface{}, error) {
		if u, ok := c.cache.units.Get(key); ok {
			return u, nil
		}
		u := c.compile(path, text)
		c.cache.Put(key, u)
		return u, nil
	})
	if shared {
		c.log.Debug("shared compilation of %s", path)
	}
	return v.(*Unit)
}

// CompileFile reads and compiles path.
func (c *Compiler) CompileFile(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return c.CompileSource(path, string(data)), nil
}

// CompileFiles compiles paths concurrently, at most Jobs at a time. Units are
// returned sorted by path. The first read error cancels the remaining work.
func (c *Compiler) CompileFiles(ctx context.Context, paths []string) ([]*Unit, error) {
	units := make([]*Unit, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Jobs)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			u, err := c.CompileFile(path)
			if err != nil {
				return err
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Path < units[j].Path })
	c.log.Info("compiled %d files", len(units))
	return units, nil
}

func (c *Compiler) compile(path, text string) (u *Unit) {
	dm := diagnostics.NewDiagnosticManager()
	dm.SetErrorLimit(c.cfg.MaxErrors)
	dm.SetWarningsEnabled(c.cfg.Warnings)
	dm.SetSourceFile(path)

	u = &Unit{
		Path:   path,
		Source: text,
		Arena:  ast.NewArena(),
		Table:  resolver.NewSymbolTable(),
		Root:   ast.NoNode,
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("internal compiler error in %s: %v", path, r)
			internalError(dm, path, r)
		}
		dm.SortDiagnostics()
		u.Diagnostics = dm.GetDiagnostics()
		u.Errors = dm.GetErrorCount()
		u.Warnings = dm.GetWarningCount()
	}()

	if c.langErr != nil {
		diagnostics.NewDiagnosticBuilder(diagnostics.PhaseDriver, diagnostics.KindLanguageVersion).
			WithMessage(c.langErr.Error()).
			WithSourceFile(path).
			ReportTo(dm)
		return u
	}

	c.log.Debug("compiling %s", path)
	lex := lexer.NewFromString(path, text, dm)
	u.Root = parser.Parse(lex, u.Table, u.Arena, dm, ModuleName(path))
	if dm.HasErrors() {
		return u
	}
	if c.beforeAnalysis != nil {
		c.beforeAnalysis(u)
	}
	u.Result = typechecker.New(u.Arena, u.Table, dm).Analyze(u.Root)
	return u
}

// internalError converts a recovered panic into a diagnostic.
func internalError(sink diagnostics.Sink, path string, r interface{}) {
	var frames []string
	for _, call := range stack.Trace().TrimRuntime() {
		frames = append(frames, fmt.Sprintf("%+v %n", call, call))
	}
	diagnostics.NewDiagnosticBuilder(diagnostics.PhaseDriver, diagnostics.KindInternalCompilerError).
		Error().
		WithMessagef("internal compiler error: %v", r).
		WithSourceFile(path).
		WithStackTrace(frames).
		ReportTo(sink)
}

// ModuleName is the module a file declares: its base name without the
// source extension.
func ModuleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), SourceExt)
}
