package plan

import (
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type targetView struct {
	Kind      Kind              `yaml:"kind"`
	Name      string            `yaml:"name"`
	Entry     string            `yaml:"entry"`
	OutDir    string            `yaml:"out_dir"`
	Files     []string          `yaml:"files"`
	Plugins   []string          `yaml:"plugins"`
	Minify    bool              `yaml:"minify"`
	Sourcemap bool              `yaml:"sourcemap"`
	External  []string          `yaml:"external,omitempty"`
	Globals   map[string]string `yaml:"globals,omitempty"`
}

type planView struct {
	Mode    string       `yaml:"mode"`
	Targets []targetView `yaml:"targets"`
}

// MarshalYAML renders the target with plugin names and the output files it produces.
func (t Target) MarshalYAML() (any, error) {
	files := make([]string, 0, len(t.Formats))
	for _, f := range t.Formats {
		files = append(files, filepath.Join(t.OutDir, t.FileName(f)))
	}

	return targetView{
		Kind:      t.Kind,
		Name:      t.Name,
		Entry:     t.Entry,
		OutDir:    t.OutDir,
		Files:     files,
		Plugins:   t.PluginNames(),
		Minify:    t.Minify,
		Sourcemap: t.Sourcemap,
		External:  t.External,
		Globals:   t.Globals,
	}, nil
}

// MarshalYAML renders the plan as the mode and its ordered targets.
func (p Plan) MarshalYAML() (any, error) {
	targets := make([]targetView, 0, len(p.Split)+1)
	for _, t := range p.Targets() {
		v, err := t.MarshalYAML()
		if err != nil {
			return nil, err
		}
		targets = append(targets, v.(targetView))
	}
	return planView{Mode: string(p.Mode), Targets: targets}, nil
}

var _ yaml.Marshaler = Plan{}
