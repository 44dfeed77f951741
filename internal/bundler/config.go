package bundler

import "github.com/evanw/esbuild/pkg/api"

type Config struct {
	// Directory relative entry and output paths are resolved against, defaults to the process working directory
	WorkingDir string
	// JavaScript language target for the emitted bundles
	Target api.Target
	// Platform the bundles run on
	Platform api.Platform
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Target:   api.ES2019,
		Platform: api.PlatformBrowser,
	}
}
