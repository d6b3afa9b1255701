package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGotenberg(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/forms/chromium/convert/html":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			file, _, err := r.FormFile("files")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			html, _ := io.ReadAll(file)
			if !strings.Contains(string(html), "<h1>") {
				http.Error(w, "empty document", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4 fake"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRenderHTML(t *testing.T) {
	srv := fakeGotenberg(t)
	client := NewClient(srv.URL + "/")
	pdf, err := client.RenderHTML(context.Background(), "<html><body><h1>Casos</h1></body></html>")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))

	_, err = client.RenderHTML(context.Background(), "<p>sin título</p>")
	assert.ErrorContains(t, err, "gotenberg response 400")
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient("")
	assert.False(t, client.Configured())
	_, err := client.RenderHTML(context.Background(), "<h1>x</h1>")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, client.Ping(context.Background()), ErrNotConfigured)
}

func TestPingRoute(t *testing.T) {
	srv := fakeGotenberg(t)
	for _, tc := range []struct {
		url    string
		status int
	}{
		{srv.URL, http.StatusOK},
		{"", http.StatusServiceUnavailable},
	} {
		r := chi.NewRouter()
		r.Route("/report", NewHandler(NewClient(tc.url), nil).MountRoutes)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/ping", nil))
		assert.Equal(t, tc.status, rec.Code)
	}
}
