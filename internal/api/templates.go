package api

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/lox/evdemand/internal/roi"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates creates and parses the HTML templates with custom functions.
func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"currency": roi.Currency,
		"num": func(f float64) string {
			return humanize.FormatFloat("#,###.##", f)
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("template %s: %v", name, err)
	}
}
