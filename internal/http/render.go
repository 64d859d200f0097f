package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	appweb "fintrack/web"
)

// viewData is the envelope every template receives: who is signed in,
// pending flash messages, the CSRF field, and the page payload.
type viewData struct {
	Identity  *auth.Identity
	Flashes   []auth.Flash
	CSRFField template.HTML
	Data      any
}

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"money": func(m core.Money) string {
			return fmt.Sprintf("%.2f", float64(m.Cents)/100.0)
		},
		"datetime": func(t time.Time) string {
			return t.Format("Jan 02, 2006 15:04")
		},
	}

	templates, err := template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return templates, nil
}

// render executes the named template into a buffer first, so a template
// error becomes a clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	vd := viewData{
		Flashes:   s.sessions.PopFlashes(w, r),
		CSRFField: csrf.TemplateField(r),
		Data:      data,
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		vd.Identity = &id
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, vd); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "template execution failed",
			"template", name, log.FieldError, err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
