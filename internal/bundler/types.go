package bundler

import (
	"errors"
	"sort"
	"time"

	"github.com/wolfeidau/dualbuild/internal/config"
	"github.com/wolfeidau/dualbuild/internal/plan"
)

var (
	// ErrBuildFailed indicates the bundler reported errors for a target
	ErrBuildFailed = errors.New("bundler invocation failed")
	// ErrNoEntryPoint indicates a target was derived without an entry file
	ErrNoEntryPoint = errors.New("target has no entry point")
)

type Metafile struct {
	Inputs  map[string]InputInfo  `json:"inputs"`
	Outputs map[string]OutputInfo `json:"outputs"`
}

type InputInfo struct {
	Bytes int `json:"bytes"`
}

type OutputInfo struct {
	Bytes      int          `json:"bytes"`
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// Externals returns the sorted, de-duplicated module paths left external by the build.
func (m *Metafile) Externals() []string {
	seen := map[string]bool{}
	for _, output := range m.Outputs {
		for _, imp := range output.Imports {
			if imp.External {
				seen[imp.Path] = true
			}
		}
	}

	externals := make([]string, 0, len(seen))
	for path := range seen {
		externals = append(externals, path)
	}
	sort.Strings(externals)
	return externals
}

// OutputFile is a file written by the bundler.
type OutputFile struct {
	Path     string
	Format   config.Format
	Size     int
	GzipSize int64
}

// Result describes everything written for one target.
type Result struct {
	Target    string
	Kind      plan.Kind
	Mode      config.Mode
	OutDir    string
	Files     []OutputFile
	Metafiles map[config.Format]*Metafile
	Duration  time.Duration
}
