package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Directory holding main.<mode>.ts and components/<Name>/ entry files
	SrcDir string `yaml:"src_dir"`
	// Root output directory, mode segments are created below it
	OutDir string `yaml:"out_dir"`
	// Library name used for the unified bundle
	LibraryName string `yaml:"library_name"`
	// Components built per framework version, from components/<Name>/<mode>.ts
	Components map[Mode][]string `yaml:"components"`
	// Framework agnostic components, built once per mode from components/<Name>/index.ts
	Mixed []string `yaml:"mixed"`
	// Output module formats, one bundle file is written per format
	Formats []Format `yaml:"formats"`
	// Whether to minify output
	Minify bool `yaml:"minify"`
	// Whether CSS may be split into per-chunk files (ES format only)
	CSSCodeSplit bool `yaml:"css_code_split"`
	// Whether to enable source maps
	Sourcemap bool `yaml:"sourcemap"`
	// Whether to write an esbuild metafile next to every bundle
	Metafile bool `yaml:"metafile"`
	// Modules left out of the bundles
	External []string `yaml:"external"`
	// Browser global names for external modules, used by iife bundles
	Globals map[string]string `yaml:"globals"`
	// Maximum number of split builds running at once, 0 means unlimited
	Concurrency int `yaml:"concurrency"`
}

// Default returns the component lists and base bundler settings of the library.
func Default() *Config {
	return &Config{
		SrcDir:      "src",
		OutDir:      "dist",
		LibraryName: "vc",
		Components: map[Mode][]string{
			ModeVue2: {"Button"},
			ModeVue3: {"Button"},
		},
		Mixed:        []string{"RenderButton"},
		Formats:      []Format{FormatES, FormatIIFE},
		Minify:       false,
		CSSCodeSplit: false,
		External:     []string{"vue", "vue-demi"},
		Globals: map[string]string{
			"vue":      "Vue",
			"vue-demi": "vueDemi",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the defaults.
// Lists in the file replace the default lists, maps are merged key by key.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("loaded config file")

	return cfg, nil
}

// Validate checks the config before any build configuration is derived from it.
func (c *Config) Validate() error {
	if c.SrcDir == "" {
		return errors.New("source directory is required")
	}
	if c.OutDir == "" {
		return errors.New("output directory is required")
	}
	if c.LibraryName == "" {
		return errors.New("library name is required")
	}
	if c.Concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}

	if len(c.Formats) == 0 {
		return fmt.Errorf("%w: at least one format is required", ErrUnknownFormat)
	}
	for _, f := range c.Formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return err
		}
	}

	for mode := range c.Components {
		if !mode.Valid() {
			return fmt.Errorf("components: %w: %q", ErrUnknownMode, mode)
		}
	}

	if err := validateComponentList("mixed", c.Mixed); err != nil {
		return err
	}

	// Mixed components share the components output directory with each mode's list.
	for _, mode := range Modes() {
		names := append(slices.Clone(c.Components[mode]), c.Mixed...)
		if err := validateComponentList("components."+string(mode), names); err != nil {
			return err
		}
	}

	return nil
}

// ComponentsFor returns a copy of the component list for mode.
func (c *Config) ComponentsFor(mode Mode) []string {
	return slices.Clone(c.Components[mode])
}
