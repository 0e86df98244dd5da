// Package view renders the application's HTML pages from templates
// embedded at build time.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/mweigel/agentportal/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Flash is a one-shot notice surfaced on the next rendered page.
type Flash struct {
	Category string // "success", "warning", "danger"
	Message  string
}

// Page carries everything a template may need. Unused fields stay at
// their zero value; the templates only read what applies to them.
type Page struct {
	Title     string
	Email     string
	LoggedIn  bool
	IsPremium bool
	Flashes   []Flash

	Price   string
	Query   string
	Results []service.SearchResult
	Error   string
}

// Renderer holds the parsed template set.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	t, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Render executes the named page template.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	return r.templates.ExecuteTemplate(w, name, page)
}
