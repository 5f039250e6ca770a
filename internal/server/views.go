package server

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	successView = "verify_success.html"
	failureView = "verify_failure.html"
)

type views struct {
	tmpl *template.Template
}

func mustParseViews() *views {
	return &views{tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html"))}
}

func (v *views) render(w http.ResponseWriter, code int, name string, data any) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
