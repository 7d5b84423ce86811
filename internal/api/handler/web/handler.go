// internal/api/handler/web/handler.go
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"os"

	"github.com/newthinker/signaldesk/internal/backend"
	"github.com/newthinker/signaldesk/internal/dashboard"
	"github.com/newthinker/signaldesk/internal/daterange"
	"github.com/newthinker/signaldesk/internal/render"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

// pages lists the page templates, each parsed together with layout.html.
var pages = []string{"dashboard.html"}

// Controller is the part of the dashboard the page drives.
type Controller interface {
	View() dashboard.View
	FetchCurrent(ctx context.Context) (*backend.SignalsResult, error)
	SetSort(st dashboard.SortState)
	SetDateMode(mode daterange.Mode)
	SetDateInputs(days, from, to string)
	SetExchange(ctx context.Context, exchange string) error
	ActivateTab(ctx context.Context, tab dashboard.Tab) error
	Export(ctx context.Context) (*backend.ExportFile, error)
	Login(ctx context.Context, email string) error
	Logout(ctx context.Context) error
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds separate template instances for each page
	pageTemplates map[string]*template.Template
	controller    Controller
	logger        *zap.Logger
}

// NewHandler creates a web handler with templates loaded from templatesDir.
// If templatesDir is empty, it falls back to embedded templates.
func NewHandler(c Controller, templatesDir string, logger *zap.Logger) (*Handler, error) {
	fsys := TemplateFS()
	if templatesDir != "" {
		fsys = os.DirFS(templatesDir)
	}
	return NewHandlerWithFS(c, fsys, logger)
}

// NewHandlerWithFS creates a web handler using a custom filesystem.
func NewHandlerWithFS(c Controller, fsys fs.FS, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pageTemplates := make(map[string]*template.Template)
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return &Handler{pageTemplates: pageTemplates, controller: c, logger: logger}, nil
}

var funcs = template.FuncMap{
	"sentimentLabel":  render.SentimentLabel,
	"validLabel":      render.ValidLabel,
	"initialRatio":    render.InitialRatio,
	"actualRatio":     render.ActualRatio,
	"bullishStrength": render.BullishStrength,
	"bearishStrength": render.BearishStrength,
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// redirect sends the browser back to the page after a form action,
// carrying msg as an alert when set.
func redirect(w http.ResponseWriter, r *http.Request, msg string) {
	target := "/"
	if msg != "" {
		target += "?" + url.Values{"alert": {msg}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return subFS
}
