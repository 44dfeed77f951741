package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/dualbuild/internal/orchestrator"
	"github.com/wolfeidau/dualbuild/internal/plugins"
	"gopkg.in/yaml.v3"
)

// PlanCmd prints the targets a build would produce without running the bundler.
type PlanCmd struct {
	Modes []string `arg:"" help:"Framework versions to plan (vue2, vue3)"`

	ProjectFlags `embed:""`
}

func (c *PlanCmd) Run(ctx context.Context, globals *Globals) error {
	modes, err := parseModes(c.Modes)
	if err != nil {
		return err
	}

	cfg, _, err := c.load(globals)
	if err != nil {
		return err
	}

	o := orchestrator.New(cfg, nil, plugins.Providers())

	enc := yaml.NewEncoder(globals.stdout())
	enc.SetIndent(2)
	defer enc.Close()

	for _, mode := range modes {
		p, err := o.Plan(mode)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
	}

	return nil
}
