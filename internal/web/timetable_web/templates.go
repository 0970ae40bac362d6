package timetable_web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer executes the embedded page and partial templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("root").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{tmpl: tmpl}, nil
}

// WriteHTML renders into memory first so a failing template never leaves a
// half written 200 behind.
func (renderer *Renderer) WriteHTML(writer http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := renderer.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(status)
	_, err := buf.WriteTo(writer)
	return err
}
