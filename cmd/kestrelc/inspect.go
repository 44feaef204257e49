package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/urfave/cli.v1"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/build"
	kcli "github.com/kestrel-lang/kestrel/internal/cli"
	"github.com/kestrel-lang/kestrel/internal/lexer"
	"github.com/kestrel-lang/kestrel/internal/position"
	"github.com/kestrel-lang/kestrel/internal/source"
)

var (
	tokensCommand = cli.Command{
		Name:      "tokens",
		Usage:     "Print the token stream of a file",
		ArgsUsage: "<file>",
		Action:    tokensAction,
	}

	astCommand = cli.Command{
		Name:      "ast",
		Usage:     "Print the syntax tree of a file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "raw", Usage: "dump every arena node with its fields"},
		},
		Action: astAction,
	}

	symbolsCommand = cli.Command{
		Name:      "symbols",
		Usage:     "Print the scopes and symbols of a checked file",
		ArgsUsage: "<file>",
		Action:    symbolsAction,
	}
)

func tokensAction(ctx *cli.Context) error {
	if err := kcli.ValidateArgs(ctx.Args(), 1, "kestrelc tokens <file>"); err != nil {
		return err
	}
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	return printTokens(e, ctx.Args().First())
}

// printTokens streams path through the lexer line by line.
func printTokens(e *env, path string) error {
	r := e.renderer(e.err)
	if text, err := os.ReadFile(path); err == nil {
		r.AddSource(position.NewSourceFile(path, string(text)))
	}

	lex, err := lexer.New(source.NewFileSource(path), r)
	if err != nil {
		return err
	}
	defer lex.Close()

	for _, tok := range lex.Tokens() {
		fmt.Fprintln(e.out, tok)
	}
	return lex.Err()
}

// unitFor compiles the single file named on the command line and prints its
// diagnostics.
func unitFor(ctx *cli.Context, usage string) (*env, *build.Unit, error) {
	if err := kcli.ValidateArgs(ctx.Args(), 1, usage); err != nil {
		return nil, nil, err
	}
	e, err := loadEnv(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := e.compiler()
	if err != nil {
		return nil, nil, err
	}
	u, err := c.CompileFile(ctx.Args().First())
	if err != nil {
		return nil, nil, err
	}
	if err := report(e, u); err != nil {
		return nil, nil, err
	}
	return e, u, nil
}

func astAction(ctx *cli.Context) error {
	e, u, err := unitFor(ctx, "kestrelc ast [--raw] <file>")
	if err != nil {
		return err
	}
	if ctx.Bool("raw") {
		return dumpRaw(e.out, u.Arena)
	}
	return ast.Dump(e.out, u.Arena, u.Root)
}

var rawConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// dumpRaw prints every node in allocation order.
func dumpRaw(w io.Writer, a *ast.Arena) error {
	for i := 1; i <= a.Len(); i++ {
		id := ast.NodeID(i)
		if _, err := fmt.Fprintf(w, "#%d %s parent=#%d\n", id, a.Kind(id), a.Parent(id)); err != nil {
			return err
		}
		rawConfig.Fdump(w, a.Node(id))
	}
	return nil
}

func symbolsAction(ctx *cli.Context) error {
	e, u, err := unitFor(ctx, "kestrelc symbols <file>")
	if err != nil {
		return err
	}
	u.Table.Dump(e.out)
	return nil
}
