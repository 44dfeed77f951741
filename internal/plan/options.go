package plan

import (
	"maps"
	"slices"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/dualbuild/internal/config"
)

// Options are the bundler settings shared by every build target.
// A value derived from the base must always go through Clone first.
type Options struct {
	Plugins      []api.Plugin
	Minify       bool
	CSSCodeSplit bool
	Sourcemap    bool
	Metafile     bool
	External     []string
	Globals      map[string]string
	Formats      []config.Format
}

// Base returns the base options for cfg. The base carries no plugins, those are
// chosen per mode when a target is derived.
func Base(cfg *config.Config) Options {
	return Options{
		Plugins:      []api.Plugin{},
		Minify:       cfg.Minify,
		CSSCodeSplit: cfg.CSSCodeSplit,
		Sourcemap:    cfg.Sourcemap,
		Metafile:     cfg.Metafile,
		External:     slices.Clone(cfg.External),
		Globals:      maps.Clone(cfg.Globals),
		Formats:      slices.Clone(cfg.Formats),
	}
}

// Clone returns a deep copy of o. Plugin values are copied; their Setup
// functions are shared and must not hold per-build state.
func (o Options) Clone() Options {
	o.Plugins = slices.Clone(o.Plugins)
	o.External = slices.Clone(o.External)
	o.Globals = maps.Clone(o.Globals)
	o.Formats = slices.Clone(o.Formats)
	return o
}

// PluginNames lists the names of the configured plugins in order.
func (o Options) PluginNames() []string {
	names := make([]string, 0, len(o.Plugins))
	for _, p := range o.Plugins {
		names = append(names, p.Name)
	}
	return names
}
