package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/server"
	"github.com/desertthunder/mibands/internal/services"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pageNames = []string{"home", "band", "map", "my_bands", "submit", "profile", "sign_in", "not_found"}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"title": providerLabel,
}

// view is the data every page template receives. Data holds the page specific fields.
type view struct {
	Title  string
	User   *auth.Identity
	Error  string
	Notice string
	Data   any
}

// pages holds one template set per page, each layered on the base layout.
type pages struct {
	sets map[string]*template.Template
}

func parsePages() (*pages, error) {
	p := &pages{sets: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFiles, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		p.sets[name] = t
	}
	return p, nil
}

// render executes a page into a buffer first so template errors become a clean 500.
func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	t, ok := a.pages.sets[name]
	if !ok {
		a.logger.Error("unknown template", "name", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		v.User = id
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", v); err != nil {
		a.logger.Error("failed to render page", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (a *App) notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		server.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	a.render(w, r, http.StatusNotFound, "not_found", view{Title: "Not found"})
}

func providerLabel(name string) string {
	switch name {
	case services.ProviderGitHub:
		return "GitHub"
	case services.ProviderGoogle:
		return "Google"
	}
	return name
}
