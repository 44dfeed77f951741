package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/wolfeidau/dualbuild/internal/bundler"
	"github.com/wolfeidau/dualbuild/internal/config"
	"github.com/wolfeidau/dualbuild/internal/logger"
	"github.com/wolfeidau/dualbuild/internal/orchestrator"
	"github.com/wolfeidau/dualbuild/internal/plugins"
)

// BuildCmd builds the unified bundle and the per-component bundles for each mode.
type BuildCmd struct {
	Modes []string `arg:"" help:"Framework versions to build (vue2, vue3)"`
	Clean bool     `help:"Remove the mode output directory before building" env:"DUALBUILD_CLEAN"`

	ProjectFlags `embed:""`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(os.Stderr, globals.Debug, globals.Console)

	modes, err := parseModes(c.Modes)
	if err != nil {
		return err
	}

	cfg, dir, err := c.load(globals)
	if err != nil {
		return err
	}

	bundlerCfg := bundler.DefaultConfig()
	bundlerCfg.WorkingDir = dir
	b, err := bundler.New(bundlerCfg)
	if err != nil {
		return fmt.Errorf("failed to create bundler: %w", err)
	}

	log.Info().
		Str("version", globals.Version).
		Str("dir", dir).
		Strs("formats", formatNames(cfg.Formats)).
		Msg("Starting dualbuild")

	o := orchestrator.New(cfg, b, plugins.Providers(),
		orchestrator.WithLogger(log),
		orchestrator.WithClean(c.Clean),
	)

	var errs []error
	for _, mode := range modes {
		report, err := o.Run(ctx, mode)
		if report != nil {
			printReport(globals.stdout(), dir, report)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", mode, err))
		}
	}

	return errors.Join(errs...)
}

func formatNames(formats []config.Format) []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	return names
}

func printReport(w io.Writer, dir string, report *orchestrator.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "MODE\tTARGET\tFILE\tSIZE\tGZIP\n")
	for _, result := range report.Results() {
		for _, file := range result.Files {
			path, err := filepath.Rel(dir, file.Path)
			if err != nil {
				path = file.Path
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", report.Mode, result.Target, path, formatBytes(int64(file.Size)), formatBytes(file.GzipSize))
		}
	}
	_ = tw.Flush()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMG"[exp])
}
