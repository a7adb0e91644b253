package web

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/osteele/liquid"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "layout.html"

// Renderer renders named Liquid templates inside the shared layout.
// Page templates see their own bindings; the layout additionally gets
// the rendered page as "content".
type Renderer struct {
	engine *liquid.Engine
	layout *liquid.Template
	pages  map[string]*liquid.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	return NewRendererFS(sub)
}

// NewRendererFS parses every *.html file at the root of templates.
// layout.html is required.
func NewRendererFS(templates fs.FS) (*Renderer, error) {
	names, err := fs.Glob(templates, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	r := &Renderer{
		engine: liquid.NewEngine(),
		pages:  make(map[string]*liquid.Template, len(names)),
	}

	for _, name := range names {
		src, err := fs.ReadFile(templates, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		tpl, parseErr := r.engine.ParseTemplate(src)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, parseErr)
		}
		if name == layoutTemplate {
			r.layout = tpl
			continue
		}
		r.pages[name] = tpl
	}

	if r.layout == nil {
		return nil, fmt.Errorf("template %s not found", layoutTemplate)
	}
	return r, nil
}

// Has reports whether a page template exists
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render renders the named page wrapped in the layout
func (r *Renderer) Render(name string, data liquid.Bindings) ([]byte, error) {
	tpl, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}

	body, renderErr := tpl.Render(data)
	if renderErr != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, renderErr)
	}

	bindings := make(liquid.Bindings, len(data)+2)
	for k, v := range data {
		bindings[k] = v
	}
	bindings["content"] = string(body)
	bindings["page"] = strings.TrimSuffix(name, path.Ext(name))

	page, renderErr := r.layout.Render(bindings)
	if renderErr != nil {
		return nil, fmt.Errorf("failed to render layout for %s: %w", name, renderErr)
	}
	return page, nil
}
