package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/dualbuild/internal/config"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, 2, ExitCode(ErrUsage))
	require.Equal(t, 2, ExitCode(errors.Join(errors.New("other"), ErrUsage)))
	require.Equal(t, 1, ExitCode(errors.New("build failed")))
}

func TestParseModes(t *testing.T) {
	modes, err := parseModes([]string{"vue3", "vue2", "vue3"})
	require.NoError(t, err)
	require.Equal(t, []config.Mode{config.ModeVue3, config.ModeVue2}, modes)

	_, err = parseModes(nil)
	require.ErrorIs(t, err, ErrUsage)

	_, err = parseModes([]string{"vue3", "react"})
	require.ErrorIs(t, err, ErrUsage)
	require.ErrorIs(t, err, config.ErrUnknownMode)
}

func TestProjectFlagsLoad(t *testing.T) {
	t.Run("project config file and overrides", func(t *testing.T) {
		dir := writeProject(t, map[string]string{
			"dualbuild.yaml": "out_dir: lib\nmixed: [Icon]\n",
		})
		minify := true
		flags := ProjectFlags{Dir: dir, Formats: []string{"cjs"}, Minify: &minify, Concurrency: 2}

		cfg, projectDir, err := flags.load(&Globals{})
		require.NoError(t, err)
		require.Equal(t, dir, projectDir)
		require.Equal(t, filepath.Join(dir, "lib"), cfg.OutDir)
		require.Equal(t, filepath.Join(dir, "src"), cfg.SrcDir)
		require.Equal(t, []string{"Icon"}, cfg.Mixed)
		require.Equal(t, []config.Format{config.FormatCJS}, cfg.Formats)
		require.True(t, cfg.Minify)
		require.Equal(t, 2, cfg.Concurrency)
	})

	t.Run("invalid override is a usage error", func(t *testing.T) {
		flags := ProjectFlags{Dir: t.TempDir(), Formats: []string{"umd"}}
		_, _, err := flags.load(&Globals{})
		require.ErrorIs(t, err, ErrUsage)
		require.ErrorIs(t, err, config.ErrUnknownFormat)
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		flags := ProjectFlags{Dir: t.TempDir()}
		_, _, err := flags.load(&Globals{Config: filepath.Join(t.TempDir(), "missing.yaml")})
		require.ErrorIs(t, err, ErrUsage)
	})

	t.Run("absolute directories are kept", func(t *testing.T) {
		out := t.TempDir()
		flags := ProjectFlags{Dir: t.TempDir(), OutDir: out}

		cfg, _, err := flags.load(&Globals{})
		require.NoError(t, err)
		require.Equal(t, out, cfg.OutDir)
	})
}

func TestProjectFlagsBoolOverrides(t *testing.T) {
	on, off := true, false

	tests := []struct {
		name      string
		file      string
		minify    *bool
		sourcemap *bool
		metafile  *bool
		want      [3]bool
	}{
		{name: "file values kept without flags", file: "minify: true\nsourcemap: true\nmetafile: true\n", want: [3]bool{true, true, true}},
		{name: "flags turn file values off", file: "minify: true\nsourcemap: true\nmetafile: true\n", minify: &off, sourcemap: &off, metafile: &off},
		{name: "flags turn defaults on", minify: &on, sourcemap: &on, metafile: &on, want: [3]bool{true, true, true}},
		{name: "partial override", file: "minify: true\nsourcemap: true\n", minify: &off, want: [3]bool{false, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			if tt.file != "" {
				files["dualbuild.yaml"] = tt.file
			}
			flags := ProjectFlags{
				Dir:       writeProject(t, files),
				Minify:    tt.minify,
				Sourcemap: tt.sourcemap,
				Metafile:  tt.metafile,
			}

			cfg, _, err := flags.load(&Globals{})
			require.NoError(t, err)
			require.Equal(t, tt.want, [3]bool{cfg.Minify, cfg.Sourcemap, cfg.Metafile})
		})
	}
}

func TestPlanCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := PlanCmd{Modes: []string{"vue3"}, ProjectFlags: ProjectFlags{Dir: t.TempDir()}}

	require.NoError(t, cmd.Run(context.Background(), &Globals{Stdout: &out}))
	require.Contains(t, out.String(), "mode: vue3")
	require.Contains(t, out.String(), filepath.Join("dist", "v3", "index.es.js"))
	require.Contains(t, out.String(), filepath.Join("dist", "v3", "components", "RenderButton", "RenderButton.iife.js"))
	require.Contains(t, out.String(), "vue3-jsx")
}

func TestPlanCmdResolvesProjectDir(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"dualbuild.yaml": "src_dir: source\nout_dir: lib\n",
	})

	var out bytes.Buffer
	cmd := PlanCmd{Modes: []string{"vue2"}, ProjectFlags: ProjectFlags{Dir: dir}}
	require.NoError(t, cmd.Run(context.Background(), &Globals{Stdout: &out}))
	require.Contains(t, out.String(), filepath.Join(dir, "lib", "v2", "index.es.js"))
	require.Contains(t, out.String(), filepath.Join(dir, "source", "main.vue2.ts"))
	require.Contains(t, out.String(), filepath.Join(dir, "lib", "v2", "components", "Button"))
}

func TestPlanCmdUnknownMode(t *testing.T) {
	cmd := PlanCmd{Modes: []string{"vue1"}, ProjectFlags: ProjectFlags{Dir: t.TempDir()}}
	err := cmd.Run(context.Background(), &Globals{Stdout: &bytes.Buffer{}})
	require.Equal(t, 2, ExitCode(err))
}

func TestBuildCmd(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/main.vue3.ts":                      "import { ref } from \"vue\";\nexport const count = ref(0);\n",
		"src/components/Button/vue3.ts":         "import { defineComponent } from \"vue\";\nexport default defineComponent({ name: \"Button\" });\n",
		"src/components/RenderButton/index.ts":  "import { h } from \"vue-demi\";\nexport default { name: \"RenderButton\", render: () => h(\"button\") };\n",
		"dist/v3/components/Removed/Removed.js": "stale",
	})

	var out bytes.Buffer
	cmd := BuildCmd{Modes: []string{"vue3"}, Clean: true, ProjectFlags: ProjectFlags{Dir: dir}}
	require.NoError(t, cmd.Run(context.Background(), &Globals{Stdout: &out}))

	for _, path := range []string{
		"dist/v3/index.es.js",
		"dist/v3/index.iife.js",
		"dist/v3/components/Button/Button.es.js",
		"dist/v3/components/Button/Button.iife.js",
		"dist/v3/components/RenderButton/RenderButton.es.js",
		"dist/v3/components/RenderButton/RenderButton.iife.js",
	} {
		require.FileExists(t, filepath.Join(dir, filepath.FromSlash(path)))
	}
	require.NoFileExists(t, filepath.Join(dir, "dist", "v3", "components", "Removed", "Removed.js"))

	require.Contains(t, out.String(), "TARGET")
	require.Contains(t, out.String(), filepath.Join("dist", "v3", "components", "Button", "Button.es.js"))
}

func TestBuildCmdFailures(t *testing.T) {
	t.Run("missing component entry fails the build", func(t *testing.T) {
		dir := writeProject(t, map[string]string{
			"src/main.vue2.ts": "export const version = 2;\n",
		})
		cmd := BuildCmd{Modes: []string{"vue2"}, ProjectFlags: ProjectFlags{Dir: dir}}

		err := cmd.Run(context.Background(), &Globals{Stdout: &bytes.Buffer{}})
		require.Error(t, err)
		require.Equal(t, 1, ExitCode(err))
		require.Contains(t, err.Error(), "component Button")
		require.FileExists(t, filepath.Join(dir, "dist", "v2", "index.es.js"))
	})

	t.Run("unknown mode is rejected before building", func(t *testing.T) {
		dir := writeProject(t, map[string]string{})
		cmd := BuildCmd{Modes: []string{"vue3", "vue4"}, ProjectFlags: ProjectFlags{Dir: dir}}

		err := cmd.Run(context.Background(), &Globals{Stdout: &bytes.Buffer{}})
		require.ErrorIs(t, err, config.ErrUnknownMode)
		require.Equal(t, 2, ExitCode(err))
		require.NoDirExists(t, filepath.Join(dir, "dist"))
	})
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512 B", formatBytes(512))
	require.Equal(t, "1.50 KiB", formatBytes(1536))
	require.Equal(t, "2.00 MiB", formatBytes(2*1024*1024))
}
