// Package dashboardhttp exposes the dashboard shell over HTTP.
package dashboardhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the dashboard routes. The catch-all page route must
// be mounted after every other route of the parent router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/paneles/*", h.handlePanels)

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(30, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			}),
		))
		r.Get("/exportar/{file}", h.handleExport)
		r.Get("/graficos/{direction}/{file}", h.handleChartPNG)
	})

	r.Get("/", h.handlePage)
	r.Get("/*", h.handlePage)
}
