package dashboard

import (
	"fmt"
	"strings"
)

// Fallback decides what an authenticated request for an unknown path sees.
type Fallback int

const (
	// FallbackHome silently shows the home page.
	FallbackHome Fallback = iota
	// FallbackNotFound shows an explicit not-found page.
	FallbackNotFound
)

// ParseFallback reads "home" or "notfound"; empty means home.
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "home":
		return FallbackHome, nil
	case "notfound", "not_found", "404":
		return FallbackNotFound, nil
	default:
		return FallbackHome, fmt.Errorf("dashboard: unknown route fallback %q", s)
	}
}

// DirectionInfo describes one office of the dashboard.
type DirectionInfo struct {
	Key   string
	Path  string
	Title string
}

// Directions lists every office in navigation order.
var Directions = []DirectionInfo{
	{Key: "juridica", Path: "/juridica", Title: "Oficina Asesora Jurídica"},
	{Key: "control", Path: "/control-interno", Title: "Oficina de Control Interno"},
	{Key: "administrativa", Path: "/administrativa", Title: "Dirección Administrativa y Financiera"},
	{Key: "salud", Path: "/salud-publica", Title: "Dirección de Salud Pública"},
	{Key: "seguridad", Path: "/seguridad-social", Title: "Dirección de Seguridad Social"},
	{Key: "aseguramiento", Path: "/aseguramiento", Title: "Dirección de Aseguramiento"},
}

// Route paths outside the direction table.
const (
	PathHome       = "/"
	PathIndicators = "/indicadores"
	PathSheet      = "/hoja"
	PathTalent     = "/th"
	PathFinance    = "/finances"
)

// LookupDirection finds a direction by key.
func LookupDirection(key string) (DirectionInfo, bool) {
	for _, d := range Directions {
		if d.Key == key {
			return d, true
		}
	}
	return DirectionInfo{}, false
}

// Router maps a path and the authenticated flag to a view. It is immutable
// after construction.
type Router struct {
	routes   map[string]ViewID
	paths    map[ViewID]string
	fallback Fallback
}

// NewRouter builds the route table with the given unknown-path policy.
func NewRouter(fallback Fallback) *Router {
	r := &Router{
		routes:   make(map[string]ViewID, len(Directions)+5),
		paths:    make(map[ViewID]string, len(Directions)+5),
		fallback: fallback,
	}
	r.add(PathHome, Home())
	for _, d := range Directions {
		r.add(d.Path, Direction(d.Key))
	}
	r.add(PathIndicators, Indicators())
	r.add(PathSheet, Sheet())
	r.add(PathTalent, Talent())
	r.add(PathFinance, Finance())
	return r
}

func (r *Router) add(path string, id ViewID) {
	r.routes[path] = id
	r.paths[id] = path
}

// Resolve is pure: unauthenticated requests always get Login, known paths
// match exactly, the empty path is Home and anything else follows the
// fallback policy.
func (r *Router) Resolve(path string, authenticated bool) ViewID {
	if !authenticated {
		return Login()
	}
	if path == "" {
		return Home()
	}
	if id, ok := r.routes[path]; ok {
		return id
	}
	if r.fallback == FallbackNotFound {
		return NotFound()
	}
	return Home()
}

// Known reports whether path is in the route table.
func (r *Router) Known(path string) bool {
	_, ok := r.routes[path]
	return ok
}

// PathFor returns the canonical path of a routable view.
func (r *Router) PathFor(id ViewID) (string, bool) {
	p, ok := r.paths[id]
	return p, ok
}

// Fallback returns the configured unknown-path policy.
func (r *Router) Fallback() Fallback {
	return r.fallback
}
