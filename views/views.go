// Package views holds the site's HTML templates and exposes each page as a
// templ.Component so handlers render pages and fragments the same way.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"

	"github.com/eringen/folio/markdown"
)

//go:embed templates
var templateFS embed.FS

const layoutName = "layout.html"

// SiteConfig holds site-wide settings every page can read.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
}

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Category string // "info" or "error"
	Message  string
}

// Page is the chrome shared by every page: the layout reads these fields.
type Page struct {
	Site    SiteConfig
	Title   string
	Path    string
	Profile map[string]string
	Admin   bool
	CSRF    string
	Flashes []Flash
}

// Renderer owns the parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates. funcs supplies helpers that depend on
// the running application, such as thumbnail lookup.
func New(funcs template.FuncMap) (*Renderer, error) {
	base := template.New(layoutName).Funcs(defaultFuncs()).Funcs(funcs)
	base, err := base.ParseFS(templateFS, "templates/"+layoutName, "templates/partials/*.html")
	if err != nil {
		return nil, eris.Wrap(err, "parse layout")
	}

	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, eris.Wrap(err, "list pages")
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, eris.Wrap(err, "clone layout")
		}
		if _, err := t.ParseFS(templateFS, f); err != nil {
			return nil, eris.Wrapf(err, "parse %s", f)
		}
		r.pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return r, nil
}

// Page renders a full page inside the layout.
func (r *Renderer) Page(name string, data any) templ.Component {
	t, ok := r.pages[name]
	if !ok {
		return missing(name)
	}
	return templ.FromGoHTML(t, data)
}

// Fragment renders a single named block of a page without the layout,
// for partial updates requested by the front-end.
func (r *Renderer) Fragment(page, block string, data any) templ.Component {
	t, ok := r.pages[page]
	if !ok {
		return missing(page)
	}
	b := t.Lookup(block)
	if b == nil {
		return missing(page + "/" + block)
	}
	return templ.FromGoHTML(b, data)
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func missing(name string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return eris.Errorf("views: no template %q", name)
	})
}

// defaultFuncs are overridable by the funcs passed to New; thumbFor and
// ytThumb are placeholders until the application supplies real lookups.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"thumbFor":  func(ref string) string { return ref },
		"ytThumb":   func(string) string { return "" },
		"markdown":  markdown.HTML,
		"year":      func() int { return time.Now().Year() },
		"hasPrefix": strings.HasPrefix,
	}
}
