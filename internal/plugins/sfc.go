package plugins

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const styleQuery = "?vue&type=style"

var (
	// ErrUnsupportedBlock indicates a single-file component block this plugin cannot compile
	ErrUnsupportedBlock = errors.New("unsupported single-file component block")

	blockOpen     = regexp.MustCompile(`<(template|script|style)(\s[^>]*)?>`)
	langAttr      = regexp.MustCompile(`\blang\s*=\s*["']([^"']+)["']`)
	setupAttr     = regexp.MustCompile(`(^|\s)setup(\s|=|$)`)
	exportDefault = regexp.MustCompile(`(?m)^[ \t]*export\s+default\s*`)
)

type styleBlock struct {
	Content string
	Lang    string
}

// descriptor holds the top level blocks of a .vue file.
type descriptor struct {
	Template     string
	TemplateLang string
	HasTemplate  bool
	Script      string
	ScriptLang  string
	ScriptSetup bool
	Styles      []styleBlock
}

// parseSFC splits a single-file component into its top level blocks. The top level
// template ends at the last </template> so nested slot templates are kept intact.
func parseSFC(src string) (*descriptor, error) {
	d := &descriptor{}
	pos := 0

	for {
		loc := blockOpen.FindStringSubmatchIndex(src[pos:])
		if loc == nil {
			return d, nil
		}

		tag := src[pos+loc[2] : pos+loc[3]]
		attrs := ""
		if loc[4] >= 0 {
			attrs = src[pos+loc[4] : pos+loc[5]]
		}
		bodyStart := pos + loc[1]
		closeTag := "</" + tag + ">"

		var bodyEnd int
		if tag == "template" {
			bodyEnd = strings.LastIndex(src, closeTag)
			if bodyEnd < bodyStart {
				bodyEnd = -1
			}
		} else {
			bodyEnd = strings.Index(src[bodyStart:], closeTag)
			if bodyEnd >= 0 {
				bodyEnd += bodyStart
			}
		}
		if bodyEnd < 0 {
			return nil, fmt.Errorf("unterminated <%s> block", tag)
		}

		body := src[bodyStart:bodyEnd]
		lang := ""
		if m := langAttr.FindStringSubmatch(attrs); m != nil {
			lang = m[1]
		}

		switch tag {
		case "template":
			if d.HasTemplate {
				return nil, fmt.Errorf("%w: more than one <template>", ErrUnsupportedBlock)
			}
			d.Template = strings.TrimSpace(body)
			d.TemplateLang = lang
			d.HasTemplate = true
		case "script":
			if d.Script != "" || d.ScriptSetup {
				return nil, fmt.Errorf("%w: more than one <script>", ErrUnsupportedBlock)
			}
			d.Script = body
			d.ScriptLang = lang
			d.ScriptSetup = setupAttr.MatchString(attrs)
		case "style":
			d.Styles = append(d.Styles, styleBlock{Content: body, Lang: lang})
		}

		pos = bodyEnd + len(closeTag)
	}
}

// module renders the component as a script module. The default export of the
// script block gets the template attached, styles are imported through stylePath.
func (d *descriptor) module(stylePath string) (string, api.Loader, error) {
	if d.ScriptSetup {
		return "", api.LoaderNone, fmt.Errorf("%w: <script setup> must be precompiled", ErrUnsupportedBlock)
	}

	if d.HasTemplate && d.TemplateLang != "" && d.TemplateLang != "html" {
		return "", api.LoaderNone, fmt.Errorf("%w: <template lang=%q>", ErrUnsupportedBlock, d.TemplateLang)
	}

	loader, err := scriptLoader(d.ScriptLang)
	if err != nil {
		return "", api.LoaderNone, err
	}

	var b strings.Builder
	if len(d.Styles) > 0 {
		fmt.Fprintf(&b, "import %s;\n", jsString(stylePath+styleQuery))
	}

	if loc := exportDefault.FindStringIndex(d.Script); loc != nil {
		b.WriteString(d.Script[:loc[0]])
		b.WriteString("const __sfc__ = ")
		b.WriteString(d.Script[loc[1]:])
		b.WriteString("\n")
	} else {
		b.WriteString(d.Script)
		b.WriteString("\nconst __sfc__ = {};\n")
	}

	if d.HasTemplate {
		fmt.Fprintf(&b, "__sfc__.template = %s;\n", jsString(d.Template))
	}
	b.WriteString("export default __sfc__;\n")

	return b.String(), loader, nil
}

func (d *descriptor) css() (string, error) {
	var b strings.Builder
	for _, s := range d.Styles {
		if s.Lang != "" && s.Lang != "css" {
			return "", fmt.Errorf("%w: <style lang=%q>", ErrUnsupportedBlock, s.Lang)
		}
		b.WriteString(s.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func scriptLoader(lang string) (api.Loader, error) {
	switch lang {
	case "", "js":
		return api.LoaderJS, nil
	case "ts":
		return api.LoaderTS, nil
	case "jsx":
		return api.LoaderJSX, nil
	case "tsx":
		return api.LoaderTSX, nil
	default:
		return api.LoaderNone, fmt.Errorf("%w: <script lang=%q>", ErrUnsupportedBlock, lang)
	}
}

// jsString quotes s as a JavaScript string literal. JSON strings are valid
// JavaScript strings; HTML escaping is off so templates stay readable.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// sfcPlugin loads .vue files. Every plugin instance uses its own namespace for
// the extracted styles.
func sfcPlugin(name string) api.Plugin {
	styleNamespace := name + "-style"

	return api.Plugin{
		Name: name,
		Setup: func(build api.PluginBuild) {
			// Restricted to the file namespace so the virtual style modules below
			// are not loaded as components.
			build.OnLoad(api.OnLoadOptions{Filter: `\.vue$`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					d, err := readSFC(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents, loader, err := d.module(args.Path)
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("%s: %w", args.Path, err)
					}
					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     loader,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				})

			build.OnResolve(api.OnResolveOptions{Filter: regexp.QuoteMeta(styleQuery) + "$"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimSuffix(args.Path, styleQuery),
						Namespace: styleNamespace,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: styleNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					d, err := readSFC(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents, err := d.css()
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("%s: %w", args.Path, err)
					}
					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderCSS,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				})
		},
	}
}

func readSFC(path string) (*descriptor, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read component: %w", err)
	}
	d, err := parseSFC(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
