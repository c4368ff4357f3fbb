package tplengine

import (
	"bytes"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateEngine renders `{{ }}` placeholders in configuration strings
// against a variable context. Placeholders use dotted paths into the
// context (`{{ vars.deb_pkgs }}`, `{{ env.USER }}`); Go-template field
// references (`{{ .vars.deb_pkgs }}`) work as well.
type TemplateEngine struct {
	globalValues map[string]any
}

// NewEngine creates a new template engine.
func NewEngine() *TemplateEngine {
	return &TemplateEngine{
		globalValues: make(map[string]any),
	}
}

// AddGlobalValue adds a value visible to every render, such as the `env`
// namespace. Per-render context keys win on collision.
func (e *TemplateEngine) AddGlobalValue(name string, value any) {
	e.globalValues[name] = value
}

// HasTemplate returns true if the string contains template markers.
func HasTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// exprPattern captures the body of each template action.
var exprPattern = regexp.MustCompile(`\{\{-?([^{}]*?)-?\}\}`)

// pathPattern matches a bare dotted path such as `vars.deb_pkgs`.
var pathPattern = regexp.MustCompile(`(^|[^.\w"'$])([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)+)`)

// normalize rewrites bare dotted paths inside template actions into
// Go-template field references when their head segment is a known context
// key. Everything else (pipelines, sprig calls, quoted strings) is left
// alone.
func normalize(s string, context map[string]any) string {
	return exprPattern.ReplaceAllStringFunc(s, func(action string) string {
		inner := exprPattern.FindStringSubmatch(action)
		if inner[1] == "" {
			return action
		}
		body := pathPattern.ReplaceAllStringFunc(inner[1], func(match string) string {
			sub := pathPattern.FindStringSubmatch(match)
			head, _, _ := strings.Cut(sub[2], ".")
			if _, ok := context[head]; !ok {
				return match
			}
			return sub[1] + "." + sub[2]
		})
		return strings.Replace(action, inner[1], body, 1)
	})
}

// RenderString renders a template string against the given context. A
// string without template markers is returned as is. Missing keys are an
// error (`missingkey=error`).
func (e *TemplateEngine) RenderString(templateStr string, context map[string]any) (string, error) {
	if !HasTemplate(templateStr) {
		return templateStr, nil
	}
	ctx := e.buildContext(context)
	tmpl, err := template.New("inline").
		Option("missingkey=error").
		Funcs(sprig.FuncMap()).
		Parse(normalize(templateStr, ctx))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	out := buf.String()
	if strings.Contains(out, "<no value>") {
		return "", fmt.Errorf("template execution error: unresolved reference in %q", templateStr)
	}
	return out, nil
}

// RenderLenient renders like RenderString but never fails: when the
// template cannot be parsed or references an unresolved variable, the
// input is returned verbatim together with the render error so the caller
// can record a warning.
func (e *TemplateEngine) RenderLenient(templateStr string, context map[string]any) (string, error) {
	out, err := e.RenderString(templateStr, context)
	if err != nil {
		return templateStr, err
	}
	return out, nil
}

func (e *TemplateEngine) buildContext(context map[string]any) map[string]any {
	result := make(map[string]any, len(context)+len(e.globalValues))
	maps.Copy(result, e.globalValues)
	maps.Copy(result, context)
	return result
}

// EnvNamespace builds the read-only `env` namespace from a list of
// KEY=VALUE strings, as returned by os.Environ.
func EnvNamespace(environ []string) map[string]any {
	env := make(map[string]any, len(environ))
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}
