package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/vidkeeper/internal/server/forms"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// renderer executes one template set per page, each combined with the
// shared layout.
type renderer struct {
	templates map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		if page == layoutTemplate {
			continue
		}
		t, err := template.ParseFS(templateFS, layoutTemplate, page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[strings.TrimSuffix(path.Base(page), ".html")] = t
	}

	return &renderer{templates: templates}, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// pageData is the single view model shared by all templates.
type pageData struct {
	Title      string
	Current    *models.Account
	Profile    *models.Account
	Videos     []*models.Video
	Video      *models.Video
	VideoCount int64
	Form       any
	Errors     forms.Errors
	Message    string
	Status     int
}

func (s *Server) page(c echo.Context, title string) *pageData {
	return &pageData{Title: title, Current: currentAccount(c)}
}

// IsOwner reports whether the viewer owns the displayed profile.
func (p *pageData) IsOwner() bool {
	return p.Current != nil && p.Profile != nil && p.Current.ID == p.Profile.ID
}
