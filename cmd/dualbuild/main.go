package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/dualbuild/cmd/dualbuild/internal/commands"
)

var version = "dev"

type CLI struct {
	Debug   bool   `help:"Enable debug mode." env:"DUALBUILD_DEBUG"`
	Console bool   `help:"Write human readable logs instead of JSON." env:"DUALBUILD_CONSOLE"`
	Config  string `help:"Path to a YAML config file (default: dualbuild.yaml in the project directory)." type:"path" env:"DUALBUILD_CONFIG"`
	Version kong.VersionFlag

	Build commands.BuildCmd `cmd:"" default:"withargs" help:"Build the unified and per-component bundles (default command)"`
	Plan  commands.PlanCmd  `cmd:"" help:"Print the build targets without building"`
}

func newParser(ctx context.Context, cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("dualbuild"),
		kong.Description("Build Vue 2 and Vue 3 bundles of a component library with esbuild."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	parser, err := newParser(ctx, &cli)
	if err != nil {
		panic(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return commands.ExitCode(commands.ErrUsage)
	}

	err = kctx.Run(&commands.Globals{
		Debug:   cli.Debug,
		Console: cli.Console,
		Config:  cli.Config,
		Version: version,
		Stdout:  os.Stdout,
	})
	if err != nil {
		parser.Errorf("%s", err)
	}
	return commands.ExitCode(err)
}
