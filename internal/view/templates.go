// Package view renders the embedded dashboard templates.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/web"
)

var errNoEngine = errors.New("view: template engine not initialised")

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	buffers   sync.Pool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CurrentPath string
	Data        any
}

// SelectData feeds the filter select partial.
type SelectData struct {
	Options  []finance.Option
	Selected string
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		"formatBRL":   finance.FormatBRL,
		"formatShare": finance.FormatShare,
		"selectOptions": func(options []finance.Option, selected string) SelectData {
			return SelectData{Options: options, Selected: selected}
		},
	}
}

// NewEngine parses every layout, partial and page from the embedded tree.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(funcs()).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	e := &Engine{templates: tpl}
	e.buffers.New = func() any { return new(bytes.Buffer) }
	return e, nil
}

// Render executes the named page into a buffer and only then writes it, so
// a failing template leaves the response untouched for the caller's error
// path.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil || e.templates == nil {
		return errNoEngine
	}
	buf := e.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer e.buffers.Put(buf)

	if err := e.templates.ExecuteTemplate(buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
