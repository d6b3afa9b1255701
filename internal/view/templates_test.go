package view

import (
	"bytes"
	"html/template"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumethik/tablero/internal/charts"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(Options{})
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestNumberUsesSpanishSeparators(t *testing.T) {
	fn := Funcs()["number"].(func(float64) string)
	assert.Equal(t, "12.345,5", fn(12345.5))
	assert.Equal(t, "0,25", fn(0.25))
	assert.Equal(t, "20", fn(20))
}

func TestChartFuncRendersSVG(t *testing.T) {
	fn := Funcs()["chart"].(func(charts.Descriptor) (template.HTML, error))
	d, err := charts.Bar([]string{"A", "B"}, []float64{1, 2}, "Barras")
	require.NoError(t, err)
	out, err := fn(d)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")
}

func TestRenderWritesStatusAndBody(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"layouts", "partials", "pages"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "templates", sub), 0o755))
	}
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", name), []byte(body), 0o644))
	}
	write("layouts/base.html", `{{define "layouts/head"}}<h1>{{.Title}}</h1>{{end}}`)
	write("partials/empty.html", `{{define "partials/empty"}}{{end}}`)
	write("pages/hello.html", `{{define "pages/hello.html"}}{{template "layouts/head" .}}v1{{end}}`)

	engine, err := NewEngine(Options{Dir: dir, Reload: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, engine.Render(rec, http.StatusNotFound, "pages/hello.html", TemplateData{Title: "Hola"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "<h1>Hola</h1>v1", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	write("pages/hello.html", `{{define "pages/hello.html"}}v2{{end}}`)
	var buf bytes.Buffer
	require.NoError(t, engine.Execute(&buf, "pages/hello.html", TemplateData{}))
	assert.Equal(t, "v2", buf.String())
}

func TestRenderFailureWritesNothing(t *testing.T) {
	engine, err := NewEngine(Options{})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	err = engine.Render(rec, http.StatusOK, "pages/missing.html", TemplateData{})
	assert.Error(t, err)
	assert.Zero(t, rec.Body.Len())
}
