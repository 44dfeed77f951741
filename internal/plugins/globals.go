package plugins

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const globalsNamespace = "external-global"

var identifierPath = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// Globals returns a plugin that replaces imports of the given modules with the
// matching browser global, e.g. "vue" becomes globalThis.Vue. It is used for iife
// bundles where the externals are loaded from script tags.
func Globals(globals map[string]string) api.Plugin {
	names := slices.Sorted(maps.Keys(globals))
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, regexp.QuoteMeta(name))
	}

	return api.Plugin{
		Name: "external-globals",
		Setup: func(build api.PluginBuild) {
			if len(quoted) == 0 {
				return
			}

			build.OnResolve(api.OnResolveOptions{Filter: "^(" + strings.Join(quoted, "|") + ")$"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      args.Path,
						Namespace: globalsNamespace,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: globalsNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					global, ok := globals[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("no global configured for %q", args.Path)
					}
					contents := "module.exports = " + globalRef(global) + ";\n"
					return api.OnLoadResult{
						Contents: &contents,
						Loader:   api.LoaderJS,
					}, nil
				})
		},
	}
}

func globalRef(name string) string {
	if identifierPath.MatchString(name) {
		return "globalThis." + name
	}
	return "globalThis[" + strconv.Quote(name) + "]"
}
