package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/models"
)

// LayoutFile wraps every page. Page files define a "content" template.
const LayoutFile = "layout.html"

// View is the data passed to the layout.
type View struct {
	Title     string
	CartCount int
	Content   any
}

// Renderer parses the page files on every request, so a page that is
// removed from disk stops being served immediately.
type Renderer struct {
	fsys   fs.FS
	funcs  template.FuncMap
	logger *zap.Logger
}

// NewRenderer creates a renderer over fsys
func NewRenderer(fsys fs.FS, logger *zap.Logger) *Renderer {
	return &Renderer{
		fsys: fsys,
		funcs: template.FuncMap{
			"money": models.FormatAmount,
		},
		logger: logger,
	}
}

// Render writes page wrapped in the layout. A missing page file is a 404.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, view View) {
	if _, err := fs.Stat(r.fsys, page); errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("page file missing", zap.String("page", page))
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}

	tmpl, err := template.New(LayoutFile).Funcs(r.funcs).ParseFS(r.fsys, LayoutFile, page)
	if err != nil {
		r.logger.Error("failed to parse template", zap.String("page", page), zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, LayoutFile, view); err != nil {
		r.logger.Error("failed to render template", zap.String("page", page), zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Debug("failed to write response", zap.Error(err))
	}
}

// redirectWithError sends the shopper back to path with a message to show.
func redirectWithError(w http.ResponseWriter, r *http.Request, path string, query url.Values, err error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("error", err.Error())
	http.Redirect(w, r, fmt.Sprintf("%s?%s", path, query.Encode()), http.StatusSeeOther)
}
