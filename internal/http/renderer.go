package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/campiestivi/campi/internal/domain/model"
)

// TemplateRenderer renders HTML templates for UI responses. Every page file
// is parsed into its own clone of the layout so each can define "content".
type TemplateRenderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing layout.tmpl, partials/ and pages/ (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer parses the layout, the partials and every page template.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base, err := template.New("root").Funcs(templateFuncs()).ParseFS(cfg.TemplateFS, "layout.tmpl", "partials/*.tmpl")
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "layout"))
		return nil, err
	}

	files, err := fs.Glob(cfg.TemplateFS, "pages/*.tmpl")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(cfg.TemplateFS, file); err != nil {
			logger.Error("template parsing failed", slog.Any("error", err), slog.String("file", file))
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".tmpl")] = clone
	}
	return &TemplateRenderer{pages: pages, logger: logger}, nil
}

// RenderOpts groups parameters for Render.
type RenderOpts struct {
	Page   string
	Status int // defaults to 200
	Data   any
}

// Render writes the page with its layout, or only the content block for
// htmx requests.
func (r *TemplateRenderer) Render(w http.ResponseWriter, req *http.Request, opts RenderOpts) error {
	t, ok := r.pages[opts.Page]
	if !ok {
		err := fmt.Errorf("unknown page template %q", opts.Page)
		r.logger.Error("template lookup failed", slog.String("page", opts.Page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}
	name := "layout"
	if WantsPartial(req) {
		name = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, opts.Data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("page", opts.Page),
			slog.String("template", name),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	status := opts.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template", slog.String("page", opts.Page), slog.Any("error", err))
		return err
	}
	return nil
}

// HasPage reports whether a page template was loaded.
func (r *TemplateRenderer) HasPage(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006")
		},
		"isoDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(model.DateLayout)
		},
		"price":       formatPrice,
		"statusLabel": func(s model.EnrollmentStatus) string { return s.Label() },
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}
}

// formatPrice renders cents in the Italian style, e.g. 125000 -> "€ 1.250,00".
func formatPrice(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var grouped strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(c)
	}
	return fmt.Sprintf("€ %s%s,%02d", sign, grouped.String(), cents%100)
}
