package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/lumethik/tablero/internal/charts"
	"github.com/lumethik/tablero/internal/charts/svg"
	"github.com/lumethik/tablero/internal/shared"
	"github.com/lumethik/tablero/web"
)

var patterns = []string{"templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html"}

// Options selects where templates come from. With Dir set and Reload true
// every Render re-parses from disk.
type Options struct {
	Dir    string
	Reload bool
}

// Engine renders HTML templates.
type Engine struct {
	opts    Options
	funcs   template.FuncMap
	mu      sync.RWMutex
	current *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Debug       bool
	Data        any
}

// NewEngine parses the templates once and fails fast on syntax errors.
func NewEngine(opts Options) (*Engine, error) {
	e := &Engine{opts: opts, funcs: Funcs()}
	tpl, err := e.parse()
	if err != nil {
		return nil, err
	}
	e.current = tpl
	return e, nil
}

// Funcs is the helper set available to every template.
func Funcs() template.FuncMap {
	printer := message.NewPrinter(language.Spanish)
	return template.FuncMap{
		"chart": func(d charts.Descriptor) (template.HTML, error) {
			return svg.Render(d)
		},
		"number": func(v float64) string {
			return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
	}
}

func (e *Engine) source() fs.FS {
	if e.opts.Dir != "" {
		return os.DirFS(e.opts.Dir)
	}
	return web.Templates
}

func (e *Engine) parse() (*template.Template, error) {
	return template.New("root").Funcs(e.funcs).ParseFS(e.source(), patterns...)
}

func (e *Engine) templates() (*template.Template, error) {
	if e.opts.Reload && e.opts.Dir != "" {
		return e.parse()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current, nil
}

// Execute writes the named template to w.
func (e *Engine) Execute(w io.Writer, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	tpl, err := e.templates()
	if err != nil {
		return err
	}
	return tpl.ExecuteTemplate(w, name, data)
}

// Render executes a named template into a buffer and writes it with status.
// Nothing is written when execution fails.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	var buf bytes.Buffer
	if err := e.Execute(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
