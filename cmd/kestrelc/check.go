package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/kestrel-lang/kestrel/internal/build"
	"github.com/kestrel-lang/kestrel/internal/position"
)

var (
	checkCommand = cli.Command{
		Name:      "check",
		Usage:     "Type-check source files",
		ArgsUsage: "[file or directory...]",
		Description: `Checks every .kst file named on the command line, or every file under
the configured Sources when none is given. The exit status is 1 when any
file has errors.`,
		Action: checkAction,
	}

	watchCommand = cli.Command{
		Name:      "watch",
		Usage:     "Re-check source files whenever they change",
		ArgsUsage: "[directory...]",
		Flags: []cli.Flag{
			cli.DurationFlag{Name: "debounce", Value: build.DefaultDebounce, Usage: "quiet period before recompiling"},
		},
		Action: watchAction,
	}
)

func roots(ctx *cli.Context, cfg build.Config) []string {
	if ctx.NArg() > 0 {
		return ctx.Args()
	}
	return cfg.Sources
}

func checkAction(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	c, err := e.compiler()
	if err != nil {
		return err
	}
	failed, err := runCheck(context.Background(), e, c, roots(ctx, e.cfg))
	if err != nil {
		return err
	}
	if failed {
		return cli.NewExitError("", 1)
	}
	return nil
}

// runCheck compiles every file under paths and prints diagnostics and a
// summary. It reports whether any file failed.
func runCheck(ctx context.Context, e *env, c *build.Compiler, paths []string) (bool, error) {
	files, err := build.Discover(paths)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		e.log.Warn("no %s files found", build.SourceExt)
		return false, nil
	}
	units, err := c.CompileFiles(ctx, files)
	if err != nil {
		return false, err
	}

	errs, warns, failed := 0, 0, false
	for _, u := range units {
		if err := report(e, u); err != nil {
			return false, err
		}
		errs += u.Errors
		warns += u.Warnings
		failed = failed || u.Failed()
	}
	fmt.Fprintf(e.out, "%d files checked: %s\n", len(units), summary(errs, warns))
	return failed, nil
}

// report renders the diagnostics of one unit.
func report(e *env, u *build.Unit) error {
	if len(u.Diagnostics) == 0 {
		return nil
	}
	r := e.renderer(e.err)
	r.AddSource(position.NewSourceFile(u.Path, u.Source))
	return r.RenderAll(u.Diagnostics)
}

func summary(errs, warns int) string {
	return fmt.Sprintf("%d %s, %d %s", errs, plural(errs, "error"), warns, plural(warns, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func watchAction(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	c, err := e.compiler()
	if err != nil {
		return err
	}
	dirs := roots(ctx, e.cfg)

	run, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := runCheck(run, e, c, dirs); err != nil {
		return err
	}
	w, err := build.NewWatcher(c, dirs, ctx.Duration("debounce"))
	if err != nil {
		return err
	}
	defer w.Close()

	e.log.Info("watching %v", dirs)
	err = w.Run(run, func(u *build.Unit) {
		printUnit(e.out, u)
		if err := report(e, u); err != nil {
			e.log.Error("%v", err)
		}
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

func printUnit(w io.Writer, u *build.Unit) {
	status := "ok"
	if u.Failed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s\t%s (%s)\n", status, u.Path, summary(u.Errors, u.Warnings))
}
