package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wolfeidau/dualbuild/internal/config"
)

// ErrUsage marks errors caused by invalid input rather than a failed build.
var ErrUsage = errors.New("usage error")

const defaultConfigFile = "dualbuild.yaml"

type Globals struct {
	Debug   bool
	Console bool
	Config  string
	Version string
	Stdout  io.Writer
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// ExitCode maps the outcome of a command to the process exit status:
// 0 on success, 2 for usage errors and 1 for failed builds.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}

// ProjectFlags are shared by every command that derives build targets.
type ProjectFlags struct {
	Dir         string   `help:"Project directory, relative paths are resolved against it" default:"." type:"path" env:"DUALBUILD_DIR"`
	SrcDir      string   `help:"Source directory (overrides config)" env:"DUALBUILD_SRC_DIR"`
	OutDir      string   `help:"Output directory (overrides config)" env:"DUALBUILD_OUT_DIR"`
	Formats     []string `help:"Output formats: es, iife, cjs (overrides config)" env:"DUALBUILD_FORMATS"`
	Minify      *bool    `help:"Minify output (overrides config)" negatable:"" env:"DUALBUILD_MINIFY"`
	Sourcemap   *bool    `help:"Write linked source maps (overrides config)" negatable:"" env:"DUALBUILD_SOURCEMAP"`
	Metafile    *bool    `help:"Write an esbuild metafile next to every bundle (overrides config)" negatable:"" env:"DUALBUILD_METAFILE"`
	Concurrency int      `help:"Maximum number of component builds running at once, 0 for unlimited" default:"0" env:"DUALBUILD_CONCURRENCY"`
}

// load reads the config file, applies flag overrides and validates the result.
// Without --config a dualbuild.yaml in the project directory is used when present.
// The source and output directories are resolved against the absolute project
// directory, which is returned alongside the config.
func (p *ProjectFlags) load(globals *Globals) (*config.Config, string, error) {
	path := globals.Config
	if path == "" {
		candidate := filepath.Join(p.projectDir(), defaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if p.SrcDir != "" {
		cfg.SrcDir = p.SrcDir
	}
	if p.OutDir != "" {
		cfg.OutDir = p.OutDir
	}
	if len(p.Formats) > 0 {
		cfg.Formats = make([]config.Format, 0, len(p.Formats))
		for _, f := range p.Formats {
			cfg.Formats = append(cfg.Formats, config.Format(strings.TrimSpace(f)))
		}
	}
	if p.Minify != nil {
		cfg.Minify = *p.Minify
	}
	if p.Sourcemap != nil {
		cfg.Sourcemap = *p.Sourcemap
	}
	if p.Metafile != nil {
		cfg.Metafile = *p.Metafile
	}
	if p.Concurrency > 0 {
		cfg.Concurrency = p.Concurrency
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: invalid config: %w", ErrUsage, err)
	}

	dir, err := filepath.Abs(p.projectDir())
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve project directory: %w", err)
	}
	cfg.SrcDir = resolve(dir, cfg.SrcDir)
	cfg.OutDir = resolve(dir, cfg.OutDir)

	return cfg, dir, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (p *ProjectFlags) projectDir() string {
	if p.Dir == "" {
		return "."
	}
	return p.Dir
}

// parseModes validates every mode before anything is built.
func parseModes(args []string) ([]config.Mode, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one mode is required", ErrUsage)
	}

	modes := make([]config.Mode, 0, len(args))
	for _, arg := range args {
		mode, err := config.ParseMode(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUsage, err)
		}
		if !slices.Contains(modes, mode) {
			modes = append(modes, mode)
		}
	}
	return modes, nil
}
