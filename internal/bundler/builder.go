package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/dualbuild/internal/config"
	"github.com/wolfeidau/dualbuild/internal/plan"
	"github.com/wolfeidau/dualbuild/internal/plugins"
)

// Bundler turns a build target into bundle files on disk.
type Bundler interface {
	Bundle(ctx context.Context, target plan.Target) (*Result, error)
}

// Esbuild bundles targets in process with esbuild.
type Esbuild struct {
	config Config
}

var _ Bundler = (*Esbuild)(nil)

// New creates an esbuild bundler with the given configuration
func New(cfg Config) (*Esbuild, error) {
	if cfg.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.WorkingDir = wd
	}

	abs, err := filepath.Abs(cfg.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	cfg.WorkingDir = abs

	return &Esbuild{config: cfg}, nil
}

// Bundle runs one esbuild build per configured format of the target. The build in
// flight is cancelled when ctx is done.
func (e *Esbuild) Bundle(ctx context.Context, target plan.Target) (*Result, error) {
	if target.Entry == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoEntryPoint, target.Name)
	}

	started := time.Now()
	log := zerolog.Ctx(ctx).With().
		Str("target", target.Name).
		Str("kind", string(target.Kind)).
		Logger()

	log.Debug().Str("entry", target.Entry).Str("outdir", target.OutDir).Strs("plugins", target.PluginNames()).Msg("Building target")

	result := &Result{
		Target:    target.Name,
		Kind:      target.Kind,
		Mode:      target.Mode,
		OutDir:    target.OutDir,
		Metafiles: map[config.Format]*Metafile{},
	}

	for _, format := range target.Formats {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build %s cancelled: %w", target.Name, err)
		}

		files, metafile, err := e.buildFormat(ctx, log, target, format)
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, files...)
		if metafile != nil {
			result.Metafiles[format] = metafile
		}
	}

	result.Duration = time.Since(started)
	return result, nil
}

func (e *Esbuild) buildFormat(ctx context.Context, log zerolog.Logger, target plan.Target, format config.Format) ([]OutputFile, *Metafile, error) {
	buildCtx, ctxErr := api.Context(e.options(target, format))
	if ctxErr != nil {
		return nil, nil, e.failure(log, target, format, ctxErr.Errors)
	}
	defer buildCtx.Dispose()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			buildCtx.Cancel()
		case <-done:
		}
	}()

	result := buildCtx.Rebuild()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("build %s (%s) cancelled: %w", target.Name, format, err)
	}

	if len(result.Errors) > 0 {
		return nil, nil, e.failure(log, target, format, result.Errors)
	}

	for _, msg := range result.Warnings {
		log.Warn().Str("format", string(format)).Str("warning", msg.Text).Msg("Build warning")
	}

	files := make([]OutputFile, 0, len(result.OutputFiles))
	for _, file := range result.OutputFiles {
		gz, err := gzipSize(file.Contents)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to measure %s: %w", file.Path, err)
		}
		files = append(files, OutputFile{
			Path:     file.Path,
			Format:   format,
			Size:     len(file.Contents),
			GzipSize: gz,
		})
		log.Info().Str("file", file.Path).Int("bytes", len(file.Contents)).Int64("gzip", gz).Msg("Built file")
	}

	if !target.Metafile {
		return files, nil, nil
	}

	metafile, err := writeMetafile(filepath.Join(e.outDir(target), target.FileBase+"."+string(format)+".meta.json"), result.Metafile)
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Strs("externals", metafile.Externals()).Str("format", string(format)).Msg("Wrote metafile")

	return files, metafile, nil
}

func (e *Esbuild) failure(log zerolog.Logger, target plan.Target, format config.Format, messages []api.Message) error {
	for _, msg := range messages {
		log.Error().Str("format", string(format)).Str("error", msg.Text).Msg("Build error")
	}

	formatted := api.FormatMessages(messages, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	return fmt.Errorf("%w: %s (%s): %s", ErrBuildFailed, target.Name, format, strings.TrimSpace(strings.Join(formatted, "")))
}

func (e *Esbuild) options(target plan.Target, format config.Format) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:       []string{target.Entry},
		AbsWorkingDir:     e.config.WorkingDir,
		Bundle:            true,
		Write:             true,
		Outdir:            e.outDir(target),
		EntryNames:        target.FileBase + "." + string(format),
		ChunkNames:        target.FileBase + "-[hash]",
		AssetNames:        "assets/[name]-[hash]",
		Platform:          e.config.Platform,
		Target:            e.config.Target,
		MinifyWhitespace:  target.Minify,
		MinifyIdentifiers: target.Minify,
		MinifySyntax:      target.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(target.Sourcemap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          target.Metafile,
		Plugins:           slices.Clone(target.Plugins),
		Loader:            assetLoaders(),
		LogLevel:          api.LogLevelSilent,
	}

	switch format {
	case config.FormatES:
		opts.Format = api.FormatESModule
		opts.External = slices.Clone(target.External)
		opts.Splitting = target.CSSCodeSplit
	case config.FormatCJS:
		opts.Format = api.FormatCommonJS
		opts.External = slices.Clone(target.External)
	case config.FormatIIFE:
		opts.Format = api.FormatIIFE
		opts.GlobalName = globalName(target.Name)
		opts.Plugins = append(opts.Plugins, plugins.Globals(target.Globals))
		for _, ext := range target.External {
			if _, ok := target.Globals[ext]; !ok {
				opts.External = append(opts.External, ext)
			}
		}
	}

	return opts
}

// assetLoaders copies images and fonts referenced by components next to the bundle.
func assetLoaders() map[string]api.Loader {
	return map[string]api.Loader{
		".png":   api.LoaderFile,
		".jpg":   api.LoaderFile,
		".jpeg":  api.LoaderFile,
		".gif":   api.LoaderFile,
		".svg":   api.LoaderFile,
		".woff":  api.LoaderFile,
		".woff2": api.LoaderFile,
	}
}

func (e *Esbuild) outDir(target plan.Target) string {
	if filepath.IsAbs(target.OutDir) {
		return target.OutDir
	}
	return filepath.Join(e.config.WorkingDir, target.OutDir)
}

func writeMetafile(path, contents string) (*Metafile, error) {
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		return nil, fmt.Errorf("failed to write metafile: %w", err)
	}

	var metafile Metafile
	if err := json.Unmarshal([]byte(contents), &metafile); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	return &metafile, nil
}

// globalName turns a library name into the identifier assigned by iife bundles.
func globalName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func gzipSize(contents []byte) (int64, error) {
	counter := &countingWriter{}
	zw, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(contents); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return counter.n, nil
}

type countingWriter struct {
	n int64
}

var _ io.Writer = (*countingWriter)(nil)

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
