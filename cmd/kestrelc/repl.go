package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/build"
	kcli "github.com/kestrel-lang/kestrel/internal/cli"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
	"github.com/kestrel-lang/kestrel/internal/position"
)

var replCommand = cli.Command{
	Name:  "repl",
	Usage: "Check declarations and statements interactively",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "history", Value: ".kestrel_history", Usage: "history file path"},
	},
	Description: `Every accepted line is appended to a session buffer and the whole buffer
is checked again. Lines with errors are rejected.

REPL COMMANDS:
  :symbols    show the scopes and symbols of the session
  :source     show the session buffer
  :reset      clear the session
  :help       show help
  :quit       exit`,
	Action: replAction,
}

// replFile names the session buffer in diagnostics.
const replFile = "<repl>" + build.SourceExt

var replCommands = []string{":help", ":quit", ":reset", ":source", ":symbols"}

// session is the REPL state: the accepted lines and the unit they compiled
// to.
type session struct {
	e        *env
	compiler *build.Compiler
	lines    []string
	last     *build.Unit
}

func newSession(e *env, c *build.Compiler) *session {
	return &session{e: e, compiler: c}
}

func (s *session) buffer(extra ...string) string {
	all := append(append([]string(nil), s.lines...), extra...)
	if len(all) == 0 {
		return ""
	}
	return strings.Join(all, "\n") + "\n"
}

// eval checks the session with input appended and keeps input when it
// compiles without errors.
func (s *session) eval(input string) bool {
	text := s.buffer(input)
	u := s.compiler.CompileSource(replFile, text)

	// Earlier lines compiled cleanly; only show what the new line caused.
	first := len(s.lines) + 1
	var fresh []diagnostics.Diagnostic
	for _, d := range u.Diagnostics {
		if d.Span.Start.Line == 0 || d.Span.Start.Line >= first {
			fresh = append(fresh, d)
		}
	}
	r := s.e.renderer(s.e.err)
	r.AddSource(position.NewSourceFile(replFile, text))
	if err := r.RenderAll(fresh); err != nil {
		s.e.log.Error("%v", err)
	}

	if u.Failed() {
		return false
	}
	s.lines = append(s.lines, input)
	s.last = u
	s.describe(u, first)
	return true
}

// describe prints the types of the statements on lines from first on.
func (s *session) describe(u *build.Unit, first int) {
	prog, ok := ast.Get[*ast.Program](u.Arena, u.Root)
	if !ok || u.Result == nil {
		return
	}
	for _, id := range prog.Statements {
		if u.Arena.Pos(id).Line < first {
			continue
		}
		switch n := u.Arena.Node(id).(type) {
		case *ast.Declaration:
			if t := u.Result.TypeOf(id); t != nil {
				fmt.Fprintf(s.e.out, "%s: %s\n", strings.Join(n.Names, ", "), t)
			}
		case *ast.Definition:
			if d, ok := ast.Get[*ast.Declaration](u.Arena, n.Decl); ok {
				if t := u.Result.TypeOf(n.Closure); t != nil {
					fmt.Fprintf(s.e.out, "%s: %s\n", strings.Join(d.Names, ", "), t)
				}
			}
		case *ast.Identifier, *ast.Literal, *ast.Unary, *ast.Binary, *ast.FunctionCall,
			*ast.MemberAccess, *ast.IndexedAccess, *ast.Assignment:
			if t := u.Result.TypeOf(id); t != nil {
				fmt.Fprintf(s.e.out, "=> %s\n", t)
			}
		}
	}
}

// command runs a REPL command and reports whether the session should end.
func (s *session) command(line string) bool {
	switch strings.Fields(line)[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":reset":
		s.lines, s.last = nil, nil
		fmt.Fprintln(s.e.out, "session reset")
	case ":source":
		fmt.Fprint(s.e.out, s.buffer())
	case ":symbols":
		u := s.last
		if u == nil {
			u = s.compiler.CompileSource(replFile, s.buffer())
		}
		u.Table.Dump(s.e.out)
	case ":help", ":h":
		fmt.Fprintln(s.e.out, "commands: "+strings.Join(replCommands, " "))
	default:
		fmt.Fprintf(s.e.out, "unknown command %s, try :help\n", line)
	}
	return false
}

// handle processes one line of input and reports whether to quit.
func (s *session) handle(input string) bool {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return false
	case strings.HasPrefix(input, ":"):
		return s.command(input)
	}
	s.eval(input)
	return false
}

func replAction(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	c, err := e.compiler()
	if err != nil {
		return err
	}
	s := newSession(e, c)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) (out []string) {
		for _, cmd := range replCommands {
			if strings.HasPrefix(cmd, input) {
				out = append(out, cmd)
			}
		}
		return out
	})

	history := ctx.String("history")
	if f, err := os.Open(history); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(e, line, history)

	fmt.Fprintf(e.out, "Kestrel %s (language %s)\nType :help for help, :quit to exit\n", kcli.Version, build.LanguageVersion)
	for {
		input, err := line.Prompt("kestrel> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || err == io.EOF {
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if s.handle(input) {
			return nil
		}
	}
}

func saveHistory(e *env, line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.log.Warn("history: %v", err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		e.log.Warn("history: %v", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		e.log.Warn("history: %v", err)
	}
}
