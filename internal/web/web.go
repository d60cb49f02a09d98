// Package web holds the server-rendered pages and static assets.
//
// Every page template defines a "content" block rendered inside templates/layout.html.
// Pages are parsed once at startup from the embedded filesystem.
//
// Pages
//
//	home.html      → six most recent lectures
//	search.html    → filter panel driven by static/search.js against /api/search
//	login.html     → admin sign-in
//	lecture.html   → add and edit lecture form
//	metadata.html  → topic, tag and rank forms with current lists
//	data.html      → export, import and reset controls
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data every template receives.
type Page struct {
	Title   string
	User    string            // signed-in username, empty for visitors
	Flashes []string          // one-shot messages from the session
	Errors  map[string]string // inline form errors keyed by field name
	Data    any
	Now     time.Time
}

// Renderer executes page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02")
	},
	"hasID": func(ids []int64, id int64) bool { return slices.Contains(ids, id) },
	"isID": func(p *int64, id int64) bool { return p != nil && *p == id },
	"watchURL": func(id string) string { return "https://www.youtube.com/watch?v=" + id },
	"embedURL": func(id string) string { return "https://www.youtube.com/embed/" + id },
}

// NewRenderer parses every page template against the shared layout.
func NewRenderer() (*Renderer, error) {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	r := &Renderer{pages: map[string]*template.Template{}}
	for _, entry := range entries {
		name := path.Base(entry)
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", entry)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Has reports whether a page template named name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes the page name with data into w.
// Output is buffered so a template error never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data *Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if data.Now.IsZero() {
		data.Now = time.Now().UTC()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded static directory; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
