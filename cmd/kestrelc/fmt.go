package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	kcli "github.com/kestrel-lang/kestrel/internal/cli"
	"github.com/kestrel-lang/kestrel/internal/format"
	"github.com/kestrel-lang/kestrel/internal/position"
)

var fmtCommand = cli.Command{
	Name:      "fmt",
	Usage:     "Print source files in canonical form",
	ArgsUsage: "<file...>",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "d", Usage: "print a unified diff instead of the formatted source"},
		cli.BoolFlag{Name: "w", Usage: "write the result back to the file"},
		cli.BoolFlag{Name: "tabs", Usage: "indent with tabs"},
		cli.IntFlag{Name: "indent", Value: 4, Usage: "spaces per indentation level"},
	},
	Action: fmtAction,
}

type fmtMode struct {
	diff, write bool
	opts        format.Options
}

func fmtAction(ctx *cli.Context) error {
	if err := kcli.ValidateArgs(ctx.Args(), 1, "kestrelc fmt [-d] [-w] <file...>"); err != nil {
		return err
	}
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	mode := fmtMode{diff: ctx.Bool("d"), write: ctx.Bool("w"), opts: format.DefaultOptions()}
	mode.opts.PreferTabs = ctx.Bool("tabs")
	mode.opts.IndentSize = ctx.Int("indent")

	failed := false
	for _, path := range ctx.Args() {
		if err := formatFile(e, path, mode); err != nil {
			e.log.Error("%v", err)
			failed = true
		}
	}
	if failed {
		return cli.NewExitError("", 1)
	}
	return nil
}

func formatFile(e *env, path string, mode fmtMode) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	src := string(data)

	r := e.renderer(e.err)
	r.AddSource(position.NewSourceFile(path, src))
	out, err := format.File(path, src, mode.opts, r)
	if err != nil {
		return err
	}

	if mode.diff {
		diff, err := format.Diff(path, src, out, format.DefaultDiffOptions())
		if err != nil {
			return err
		}
		fmt.Fprint(e.out, diff)
	}
	if mode.write {
		if out == src {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		e.log.Info("formatted %s", path)
		return os.WriteFile(path, []byte(out), info.Mode().Perm())
	}
	if !mode.diff {
		fmt.Fprint(e.out, out)
	}
	return nil
}
