// Package orchestrator derives the unified and split build targets for a mode and
// drives the bundler for each of them, joining every build before reporting.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/dualbuild/internal/bundler"
	"github.com/wolfeidau/dualbuild/internal/config"
	"github.com/wolfeidau/dualbuild/internal/plan"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the unified and split builds for a mode.
type Orchestrator struct {
	cfg       *config.Config
	base      plan.Options
	providers plan.Providers
	bundler   bundler.Bundler
	logger    zerolog.Logger
	clean     bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for build progress.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClean removes the mode output directory before building.
func WithClean(clean bool) Option {
	return func(o *Orchestrator) {
		o.clean = clean
	}
}

// New creates an orchestrator. The base options are derived from cfg once and
// never modified afterwards.
func New(cfg *config.Config, b bundler.Bundler, providers plan.Providers, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		base:      plan.Base(cfg),
		providers: providers,
		bundler:   b,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Report summarises a Run.
type Report struct {
	BuildID  string
	Mode     config.Mode
	Unified  *bundler.Result
	Split    []*bundler.Result
	Duration time.Duration
}

// Results returns every successful target result, unified first.
func (r *Report) Results() []*bundler.Result {
	results := make([]*bundler.Result, 0, len(r.Split)+1)
	if r.Unified != nil {
		results = append(results, r.Unified)
	}
	return append(results, r.Split...)
}

// Plan returns the targets Run would build for mode without building them.
func (o *Orchestrator) Plan(mode config.Mode) (plan.Plan, error) {
	if !mode.Valid() {
		return plan.Plan{}, fmt.Errorf("%w: %q", config.ErrUnknownMode, mode)
	}
	return plan.Build(o.cfg, o.base, o.providers, mode), nil
}

// Run builds the unified bundle and the split bundles for mode concurrently and
// waits for both. Failures from either side are joined into the returned error; the
// report always carries the results that did succeed.
func (o *Orchestrator) Run(ctx context.Context, mode config.Mode) (*Report, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownMode, mode)
	}

	report := &Report{
		BuildID: uuid.NewString(),
		Mode:    mode,
	}
	started := time.Now()

	logger := o.logger.With().Str("build_id", report.BuildID).Str("mode", string(mode)).Logger()
	ctx = logger.WithContext(ctx)

	if o.clean {
		if err := o.cleanOutput(ctx, mode); err != nil {
			return nil, err
		}
	}

	logger.Info().Msg("Starting build")

	var (
		wg                   sync.WaitGroup
		unifiedErr, splitErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Unified, unifiedErr = o.Unified(ctx, mode)
	}()
	go func() {
		defer wg.Done()
		report.Split, splitErr = o.Split(ctx, mode)
	}()
	wg.Wait()

	report.Duration = time.Since(started)

	if err := errors.Join(unifiedErr, splitErr); err != nil {
		logger.Error().Err(err).Dur("duration", report.Duration).Msg("Build failed")
		return report, err
	}

	logger.Info().
		Int("targets", len(report.Results())).
		Dur("duration", report.Duration).
		Msg("Build finished")

	return report, nil
}

// Unified builds the single bundle holding every component of mode.
func (o *Orchestrator) Unified(ctx context.Context, mode config.Mode) (*bundler.Result, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownMode, mode)
	}

	target := plan.Unified(o.cfg, o.base, o.providers, mode)

	result, err := o.bundler.Bundle(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("unified build: %w", err)
	}
	return result, nil
}

// Split builds one bundle per component of mode and per mixed component. All
// builds run concurrently, bounded by the configured concurrency. The first
// failure cancels the builds still in flight and the operation fails as a whole;
// every failure is included in the returned error.
func (o *Orchestrator) Split(ctx context.Context, mode config.Mode) ([]*bundler.Result, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownMode, mode)
	}

	targets := plan.Split(o.cfg, o.base, o.providers, mode)
	results := make([]*bundler.Result, len(targets))

	var (
		mu   sync.Mutex
		errs []error
	)

	eg, egCtx := errgroup.WithContext(ctx)
	if o.cfg.Concurrency > 0 {
		eg.SetLimit(o.cfg.Concurrency)
	}

	for i, target := range targets {
		eg.Go(func() error {
			result, err := o.bundler.Bundle(egCtx, target)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("target", target.Name).Msg("Component build failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("component %s: %w", target.Name, err))
				mu.Unlock()
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return compact(results), errors.Join(errs...)
	}

	return results, nil
}

func (o *Orchestrator) cleanOutput(ctx context.Context, mode config.Mode) error {
	dir := filepath.Join(o.cfg.OutDir, mode.Segment())
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("Removing previous output")
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	return nil
}

func compact(results []*bundler.Result) []*bundler.Result {
	out := make([]*bundler.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
