// Package handler contains the HTTP handlers of the travel journal.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming request (form fields, uploads, URL params)
//  2. Call a service
//  3. Save the session if it changed, then render a page or redirect
//
// Handlers hold no business rules. "Is this username taken?" is the AuthService's
// question; the handler only decides which page shows the answer.
//
// PAGES:
// Every page is the layout template plus one page template, parsed once at
// startup from the embedded web/templates filesystem.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/sakif/travel-journal/internal/form"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/service"
	"github.com/sakif/travel-journal/internal/session"
)

// ViewData is what every page template receives.
// Fields a page doesn't use are simply left zero.
type ViewData struct {
	Title         string
	UserID        string // logged-in username, "" when anonymous
	Flashes       []string
	GitHubEnabled bool

	Form   any
	Errors form.Errors
	Next   string

	Feed *service.Page
	Cart []model.CartItem
}

// Renderer executes the parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses layout.html together with each pages/*.html file.
//
// WHY ONE TEMPLATE SET PER PAGE?
// Every page defines a block named "content". Parsing them all into one set
// would make the last one win; a set per page gives each its own "content".
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	files, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("handler: listing page templates: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("handler: no page templates found")
	}

	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s: %w", file, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render writes page with the given status.
//
// The page is executed into a buffer first. If execution fails halfway, the
// visitor gets a clean 500 instead of half a page followed by an error.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data *ViewData) error {
	tmpl, ok := rd.pages[page]
	if !ok {
		return fmt.Errorf("handler: unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("handler: rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// View bundles what every page handler needs to produce a response.
type View struct {
	renderer      *Renderer
	sessions      *session.Manager
	githubEnabled bool
	logger        *slog.Logger
}

func NewView(renderer *Renderer, sessions *session.Manager, githubEnabled bool, logger *slog.Logger) *View {
	return &View{
		renderer:      renderer,
		sessions:      sessions,
		githubEnabled: githubEnabled,
		logger:        logger,
	}
}

// data builds the ViewData shared by all pages.
//
// Pending flash messages are taken out of the session here, so they show up
// exactly once. The session is saved right away because the page body is
// about to be written and the cookie can't be changed after that.
func (v *View) data(w http.ResponseWriter, r *http.Request, title string) *ViewData {
	sess := session.FromContext(r.Context())

	d := &ViewData{
		Title:         title,
		UserID:        sess.UserID,
		GitHubEnabled: v.githubEnabled,
	}

	if flashes := sess.PopFlashes(); len(flashes) > 0 {
		d.Flashes = flashes
		if err := v.sessions.Save(r.Context(), w, sess); err != nil {
			v.logger.Error("saving session after reading flashes", slog.String("error", err.Error()))
		}
	}
	return d
}

// render writes a page, turning a template failure into a plain 500.
func (v *View) render(w http.ResponseWriter, status int, page string, d *ViewData) {
	if err := v.renderer.Render(w, status, page, d); err != nil {
		v.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// redirect sends a 303 See Other, so the browser follows up with a GET
// and a reload doesn't resubmit the form.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
