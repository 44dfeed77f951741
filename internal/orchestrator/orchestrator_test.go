package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/dualbuild/internal/bundler"
	"github.com/wolfeidau/dualbuild/internal/config"
	"github.com/wolfeidau/dualbuild/internal/plan"
	"github.com/wolfeidau/dualbuild/internal/plugins"
)

var errBoom = errors.New("boom")

// fakeBundler records every target and fails or blocks for selected target names
type fakeBundler struct {
	mu       sync.Mutex
	targets  []plan.Target
	fail     map[string]error
	block    map[string]bool
	inFlight int
	maxIn    int
}

func (f *fakeBundler) Bundle(ctx context.Context, target plan.Target) (*bundler.Result, error) {
	f.mu.Lock()
	f.targets = append(f.targets, target)
	f.inFlight++
	if f.inFlight > f.maxIn {
		f.maxIn = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.block[target.Name] {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("sibling build was not cancelled")
		}
	}

	// Give concurrent builds a chance to overlap.
	time.Sleep(5 * time.Millisecond)

	if err, ok := f.fail[target.Name]; ok {
		return nil, err
	}

	return &bundler.Result{
		Target: target.Name,
		Kind:   target.Kind,
		Mode:   target.Mode,
		OutDir: target.OutDir,
	}, nil
}

func (f *fakeBundler) targetsByName() map[string]plan.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]plan.Target{}
	for _, t := range f.targets {
		out[t.Name] = t
	}
	return out
}

func TestRunVue3(t *testing.T) {
	cfg := config.Default()
	fake := &fakeBundler{}
	o := New(cfg, fake, plugins.Providers())

	report, err := o.Run(context.Background(), config.ModeVue3)
	require.NoError(t, err)
	require.NotEmpty(t, report.BuildID)
	require.Equal(t, config.ModeVue3, report.Mode)
	require.Len(t, report.Results(), 3)

	targets := fake.targetsByName()
	require.Len(t, targets, 3)

	unified := targets["vc"]
	require.Equal(t, plan.KindUnified, unified.Kind)
	require.Equal(t, filepath.Join("src", "main.vue3.ts"), unified.Entry)
	require.Equal(t, filepath.Join("dist", "v3"), unified.OutDir)
	require.Equal(t, []string{"vue3-sfc", "vue3-jsx"}, unified.PluginNames())

	require.Equal(t, filepath.Join("dist", "v3", "components", "Button"), targets["Button"].OutDir)
	require.Equal(t, filepath.Join("src", "components", "Button", "vue3.ts"), targets["Button"].Entry)
	require.Equal(t, filepath.Join("dist", "v3", "components", "RenderButton"), targets["RenderButton"].OutDir)
	require.Equal(t, filepath.Join("src", "components", "RenderButton", "index.ts"), targets["RenderButton"].Entry)
}

func TestRunUnknownMode(t *testing.T) {
	fake := &fakeBundler{}
	o := New(config.Default(), fake, plugins.Providers())

	report, err := o.Run(context.Background(), config.Mode("vue4"))
	require.ErrorIs(t, err, config.ErrUnknownMode)
	require.Nil(t, report)
	require.Empty(t, fake.targets)

	_, err = o.Unified(context.Background(), config.Mode(""))
	require.ErrorIs(t, err, config.ErrUnknownMode)
	_, err = o.Split(context.Background(), config.Mode(""))
	require.ErrorIs(t, err, config.ErrUnknownMode)
}

func TestSplitFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Mixed = []string{"RenderButton", "Icon"}
	fake := &fakeBundler{fail: map[string]error{"Button": errBoom}}
	o := New(cfg, fake, plugins.Providers())

	results, err := o.Split(context.Background(), config.ModeVue2)
	require.ErrorIs(t, err, errBoom)
	require.Contains(t, err.Error(), "component Button")
	for _, r := range results {
		require.NotNil(t, r)
		require.NotEqual(t, "Button", r.Target)
	}
}

func TestSplitFailureCancelsSiblings(t *testing.T) {
	cfg := config.Default()
	cfg.Mixed = []string{"Slow"}
	fake := &fakeBundler{
		fail:  map[string]error{"Button": errBoom},
		block: map[string]bool{"Slow": true},
	}
	o := New(cfg, fake, plugins.Providers())

	_, err := o.Split(context.Background(), config.ModeVue3)
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, context.Canceled)
	require.Contains(t, err.Error(), "component Slow")
}

func TestRunJoinsBothPaths(t *testing.T) {
	t.Run("unified failure does not stop split", func(t *testing.T) {
		fake := &fakeBundler{fail: map[string]error{"vc": errBoom}}
		o := New(config.Default(), fake, plugins.Providers())

		report, err := o.Run(context.Background(), config.ModeVue2)
		require.ErrorIs(t, err, errBoom)
		require.Contains(t, err.Error(), "unified build")
		require.Nil(t, report.Unified)
		require.Len(t, report.Split, 2)
	})

	t.Run("failures from both paths are reported", func(t *testing.T) {
		errSplit := errors.New("split boom")
		fake := &fakeBundler{fail: map[string]error{"vc": errBoom, "RenderButton": errSplit}}
		o := New(config.Default(), fake, plugins.Providers())

		report, err := o.Run(context.Background(), config.ModeVue3)
		require.ErrorIs(t, err, errBoom)
		require.ErrorIs(t, err, errSplit)
		require.NotNil(t, report)
	})
}

func TestSplitConcurrencyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Mixed = []string{"A", "B", "C", "D"}
	cfg.Concurrency = 1
	fake := &fakeBundler{}
	o := New(cfg, fake, plugins.Providers())

	results, err := o.Split(context.Background(), config.ModeVue3)
	require.NoError(t, err)
	require.Len(t, results, 5)
	require.Equal(t, 1, fake.maxIn)

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Target)
	}
	require.Equal(t, []string{"Button", "A", "B", "C", "D"}, names)
}

func TestSplitRunsConcurrently(t *testing.T) {
	cfg := config.Default()
	cfg.Mixed = []string{"A", "B", "C", "D"}
	fake := &fakeBundler{}
	o := New(cfg, fake, plugins.Providers())

	_, err := o.Split(context.Background(), config.ModeVue3)
	require.NoError(t, err)
	require.Greater(t, fake.maxIn, 1)
}

func TestRunClean(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.OutDir = dir

	stale := filepath.Join(dir, "v3", "stale.js")
	kept := filepath.Join(dir, "v2", "index.es.js")
	for _, path := range []string{stale, kept} {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	}

	o := New(cfg, &fakeBundler{}, plugins.Providers(), WithClean(true))
	_, err := o.Run(context.Background(), config.ModeVue3)
	require.NoError(t, err)

	require.NoFileExists(t, stale)
	require.FileExists(t, kept)
}

func TestPlan(t *testing.T) {
	o := New(config.Default(), &fakeBundler{}, plugins.Providers())

	p, err := o.Plan(config.ModeVue2)
	require.NoError(t, err)

	names := []string{}
	for _, target := range p.Targets() {
		names = append(names, target.Name)
	}
	sort.Strings(names)
	require.Equal(t, []string{"Button", "RenderButton", "vc"}, names)

	_, err = o.Plan(config.Mode("svelte"))
	require.ErrorIs(t, err, config.ErrUnknownMode)
}

func TestBaseUnchangedAcrossRuns(t *testing.T) {
	cfg := config.Default()
	o := New(cfg, &fakeBundler{}, plugins.Providers())

	for _, mode := range config.Modes() {
		_, err := o.Run(context.Background(), mode)
		require.NoError(t, err)
	}

	require.Empty(t, o.base.Plugins)
	require.Equal(t, []string{"vue", "vue-demi"}, o.base.External)
	require.False(t, o.base.Minify)
}
