// Command kestrelc is the Kestrel compiler front end. It checks, inspects
// and formats Kestrel source files.
package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/kestrel-lang/kestrel/internal/build"
	kcli "github.com/kestrel-lang/kestrel/internal/cli"
	"github.com/kestrel-lang/kestrel/internal/diagnostics"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file (default: ./" + build.ConfigFileName + " when present)",
	}
	colorFlag = cli.StringFlag{
		Name:  "color",
		Usage: "colour diagnostics: auto, always or never",
	}
	jobsFlag = cli.IntFlag{
		Name:  "jobs, j",
		Usage: "number of files compiled concurrently",
	}
	maxErrorsFlag = cli.IntFlag{
		Name:  "max-errors",
		Usage: "errors reported per file",
	}
	noWarningsFlag = cli.BoolFlag{
		Name:  "no-warnings",
		Usage: "suppress warnings",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "log progress",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "log driver internals",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "kestrelc"
	app.Usage = "the Kestrel compiler front end"
	app.Version = kcli.Version
	app.HideVersion = true
	app.Flags = []cli.Flag{
		configFileFlag,
		colorFlag,
		jobsFlag,
		maxErrorsFlag,
		noWarningsFlag,
		verboseFlag,
		debugFlag,
	}
	app.Commands = []cli.Command{
		checkCommand,
		watchCommand,
		tokensCommand,
		astCommand,
		symbolsCommand,
		fmtCommand,
		replCommand,
		versionCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		if _, ok := err.(*cli.ExitError); !ok {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// env is the state every command starts from.
type env struct {
	cfg   build.Config
	log   *kcli.Logger
	color diagnostics.ColorMode
	out   io.Writer
	err   io.Writer
}

// loadEnv reads the configuration file and applies the global flags on top
// of it.
func loadEnv(ctx *cli.Context) (*env, error) {
	path, optional := ctx.GlobalString(configFileFlag.Name), false
	if path == "" {
		path, optional = build.ConfigFileName, true
	}
	cfg, err := build.LoadConfig(path, optional)
	if err != nil {
		return nil, err
	}
	if ctx.GlobalIsSet(colorFlag.Name) {
		cfg.Color = ctx.GlobalString(colorFlag.Name)
	}
	if ctx.GlobalIsSet("jobs") {
		cfg.Jobs = ctx.GlobalInt("jobs")
	}
	if ctx.GlobalIsSet(maxErrorsFlag.Name) {
		cfg.MaxErrors = ctx.GlobalInt(maxErrorsFlag.Name)
	}
	if ctx.GlobalBool(noWarningsFlag.Name) {
		cfg.Warnings = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := diagnostics.ParseColorMode(cfg.Color)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:   cfg,
		log:   kcli.NewLogger(ctx.GlobalBool(verboseFlag.Name), ctx.GlobalBool(debugFlag.Name)),
		color: mode,
		out:   ctx.App.Writer,
		err:   ctx.App.ErrWriter,
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.err == nil {
		e.err = os.Stderr
	}
	e.log.Debug("config %s: %+v", path, cfg)
	return e, nil
}

func (e *env) compiler() (*build.Compiler, error) {
	return build.NewCompiler(e.cfg, e.log)
}

// renderer prints diagnostics to w, coloured only when w is a terminal that
// the colour mode allows.
func (e *env) renderer(w io.Writer) *diagnostics.Renderer {
	if f, ok := w.(*os.File); ok {
		return diagnostics.NewRenderer(f, e.color)
	}
	return diagnostics.NewPlainRenderer(w)
}

var versionCommand = cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "json", Usage: "output version in JSON format"},
	},
	Action: func(ctx *cli.Context) error {
		return kcli.PrintVersion(ctx.App.Writer, ctx.App.Name, ctx.Bool("json"))
	},
}
