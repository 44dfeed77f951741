// Package plugins provides the esbuild plugins for each supported framework
// version, plus the plumbing plugin mapping external modules to browser globals.
package plugins

import (
	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/dualbuild/internal/config"
	"github.com/wolfeidau/dualbuild/internal/plan"
)

// Vue3 returns the plugins for Vue 3 builds: single-file components and JSX
// compiled against the vue/jsx-runtime automatic runtime.
func Vue3() []api.Plugin {
	return []api.Plugin{
		sfcPlugin("vue3-sfc"),
		jsxPlugin("vue3-jsx", func(o *api.BuildOptions) {
			o.JSX = api.JSXAutomatic
			o.JSXImportSource = "vue"
		}),
	}
}

// Vue2 returns the plugins for Vue 2 builds: single-file components and JSX
// compiled to h() calls.
func Vue2() []api.Plugin {
	return []api.Plugin{
		sfcPlugin("vue2-sfc"),
		jsxPlugin("vue2-jsx", func(o *api.BuildOptions) {
			o.JSX = api.JSXTransform
			o.JSXFactory = "h"
		}),
	}
}

// Providers maps every build mode to its plugin provider.
func Providers() plan.Providers {
	return plan.Providers{
		config.ModeVue2: Vue2,
		config.ModeVue3: Vue3,
	}
}

func jsxPlugin(name string, configure func(o *api.BuildOptions)) api.Plugin {
	return api.Plugin{
		Name: name,
		Setup: func(build api.PluginBuild) {
			configure(build.InitialOptions)
		},
	}
}
