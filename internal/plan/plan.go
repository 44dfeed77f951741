package plan

import (
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/dualbuild/internal/config"
)

// Kind distinguishes the unified bundle from per-component bundles.
type Kind string

const (
	KindUnified   Kind = "unified"
	KindComponent Kind = "component"
	KindMixed     Kind = "mixed"
)

// Providers maps each mode to the function returning its framework plugins.
type Providers map[config.Mode]func() []api.Plugin

// Target is the configuration for one bundle: the shared options specialised
// with an entry file, an output directory and a library name.
type Target struct {
	Options

	Mode   config.Mode
	Kind   Kind
	Name   string
	Entry  string
	OutDir string
	// FileBase is the output file name prefix, the format and extension are appended
	FileBase string
}

// FileName returns the output file name for format, e.g. "index.es.js".
func (t Target) FileName(format config.Format) string {
	return t.FileBase + "." + string(format) + ".js"
}

// Plan holds every target derived for a single mode.
type Plan struct {
	Mode    config.Mode
	Unified Target
	Split   []Target
}

// Targets returns the unified target followed by the split targets.
func (p Plan) Targets() []Target {
	return append([]Target{p.Unified}, p.Split...)
}

// Build derives the full plan for mode.
func Build(cfg *config.Config, base Options, providers Providers, mode config.Mode) Plan {
	return Plan{
		Mode:    mode,
		Unified: Unified(cfg, base, providers, mode),
		Split:   Split(cfg, base, providers, mode),
	}
}

// Unified derives the target that bundles the whole library from
// <src>/main.<mode>.ts into <out>/<segment>/index.<format>.js.
//
// An unrecognised mode yields the cloned base with no plugins, entry or output
// directory; callers are expected to reject such modes with config.ParseMode first.
func Unified(cfg *config.Config, base Options, providers Providers, mode config.Mode) Target {
	t := Target{
		Options: base.Clone(),
		Mode:    mode,
		Kind:    KindUnified,
	}

	plugins, ok := pluginsFor(providers, mode)
	if !ok {
		return t
	}

	t.Plugins = plugins
	t.OutDir = filepath.Join(cfg.OutDir, mode.Segment())
	t.Entry = filepath.Join(cfg.SrcDir, "main."+string(mode)+".ts")
	t.Name = cfg.LibraryName
	t.FileBase = "index"
	return t
}

// Split derives one target per component of mode, entry
// <src>/components/<Name>/<mode>.ts, followed by one target per mixed component,
// entry <src>/components/<Name>/index.ts. Every target writes to
// <out>/<segment>/components/<Name>. An unrecognised mode yields no targets.
func Split(cfg *config.Config, base Options, providers Providers, mode config.Mode) []Target {
	plugins, ok := pluginsFor(providers, mode)
	if !ok {
		return nil
	}

	shared := base.Clone()
	shared.Plugins = plugins
	componentsDir := filepath.Join(cfg.OutDir, mode.Segment(), "components")

	components := cfg.ComponentsFor(mode)
	targets := make([]Target, 0, len(components)+len(cfg.Mixed))

	for _, name := range components {
		targets = append(targets, componentTarget(shared, mode, KindComponent, name,
			filepath.Join(cfg.SrcDir, "components", name, string(mode)+".ts"),
			filepath.Join(componentsDir, name)))
	}

	for _, name := range cfg.Mixed {
		targets = append(targets, componentTarget(shared, mode, KindMixed, name,
			filepath.Join(cfg.SrcDir, "components", name, "index.ts"),
			filepath.Join(componentsDir, name)))
	}

	return targets
}

func componentTarget(shared Options, mode config.Mode, kind Kind, name, entry, outDir string) Target {
	return Target{
		Options:  shared.Clone(),
		Mode:     mode,
		Kind:     kind,
		Name:     name,
		Entry:    entry,
		OutDir:   outDir,
		FileBase: name,
	}
}

func pluginsFor(providers Providers, mode config.Mode) ([]api.Plugin, bool) {
	if !mode.Valid() {
		return nil, false
	}
	provider, ok := providers[mode]
	if !ok || provider == nil {
		return nil, false
	}
	return provider(), true
}
