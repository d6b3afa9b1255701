package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumethik/tablero/internal/auth"
	"github.com/lumethik/tablero/internal/dashboard"
	dashboardhttp "github.com/lumethik/tablero/internal/dashboard/http"
	"github.com/lumethik/tablero/internal/data"
	"github.com/lumethik/tablero/internal/observability"
	"github.com/lumethik/tablero/internal/shared"
	"github.com/lumethik/tablero/internal/view"
	"github.com/lumethik/tablero/jobs"
	_ "github.com/lumethik/tablero/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "lumethik", cfg.ValidUsername)
	assert.Equal(t, "2025", cfg.ValidPassword)
	assert.Equal(t, SourceFixed, cfg.DirectionSource)
	assert.Equal(t, 2*time.Second, cfg.AppFetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SheetRefresh)
	assert.Equal(t, dashboard.FallbackHome, cfg.Fallback())
	assert.False(t, cfg.SheetConfigured())
}

func TestLoadConfigProductionNeedsSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session secret")
	assert.Contains(t, err.Error(), "csrf secret")

	t.Setenv("SESSION_SECRET", "s3cret-session")
	t.Setenv("CSRF_SECRET", "s3cret-csrf")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		ValidUsername:   "lumethik",
		ValidPassword:   "2025",
		DirectionSource: SourceFixed,
		SheetFormat:     "csv",
		RouteFallback:   "home",
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(*Config){
		"postgres without dsn": func(c *Config) { c.DirectionSource = SourcePostgres },
		"unknown source":       func(c *Config) { c.DirectionSource = "mongo" },
		"unknown format":       func(c *Config) { c.SheetFormat = "ods" },
		"unknown fallback":     func(c *Config) { c.RouteFallback = "elsewhere" },
		"no password":          func(c *Config) { c.ValidPassword = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoggerLevelFollowsDebug(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, &Config{LogFormat: "json"}).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, &Config{LogFormat: "json", AppDebug: true}).Debug("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"service":"tablero"`)
}

func TestBuildProvidersDefaults(t *testing.T) {
	cfg := &Config{DirectionSource: SourceFixed, IndicatorSeed: 1}
	p, err := BuildProviders(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.IsType(t, data.Fixed{}, p.Directions)
	assert.NotNil(t, p.Indicators)
	assert.NotNil(t, p.Talent)
	assert.NotNil(t, p.Finance)
	assert.Nil(t, p.Sheet)

	job := p.RefreshJob(nil, cfg)
	assert.Empty(t, job.Targets)
	assert.Nil(t, job.Snapshot)
	require.NoError(t, job.Run(context.Background(), jobs.SourceRefreshPayload{}))
}

func TestBuildProvidersCachesPublishedSheet(t *testing.T) {
	cfg := &Config{DirectionSource: SourceFixed, SheetID: "abc", SheetWorksheet: "dataset_limpio", SheetFormat: "csv"}
	p, err := BuildProviders(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	require.NotNil(t, p.Sheet)
	assert.IsType(t, &data.Cached{}, p.Sheet)
	job := p.RefreshJob(nil, cfg)
	require.Len(t, job.Targets, 1)
	assert.Equal(t, "sheet", job.Targets[0].Name)
	assert.Equal(t, []string{"dataset_limpio"}, job.Targets[0].Categories)
}

var csrfField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type server struct {
	*httptest.Server
	client *http.Client
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second, AppFetchTimeout: time.Second}
	logger := newLogger(io.Discard, cfg)

	gate, err := auth.NewGate(auth.Credentials{Username: "lumethik", Password: "2025", Cost: bcrypt.MinCost})
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	gate.Subscribe(metrics.ObserveLogin)

	registry := dashboard.NewRegistry(dashboard.RegistryParams{
		Logger:     logger,
		Directions: data.NewFixed(),
		Indicators: data.NewSynthetic(5),
		Talent:     data.NewTalent(0),
		Finance:    data.NewFinance(0),
		Observer:   metrics,
	})
	shell := dashboard.NewShell(dashboard.NewRouter(dashboard.FallbackHome), gate, registry, logger)
	engine, err := view.NewEngine(view.Options{})
	require.NoError(t, err)

	sessions := shared.NewSessionManager(shared.NewMemorySessionStore(), "tablero_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	dash := dashboardhttp.NewHandler(dashboardhttp.Params{Logger: logger, Shell: shell, Templates: engine, CSRF: csrf})

	handler := NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessions,
		CSRFManager:      csrf,
		AuthHandler:      auth.NewHandler(logger, gate, dash, csrf),
		DashboardHandler: dash,
		Metrics:          metrics,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &server{Server: srv, client: client}
}

func (s *server) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	res, err := s.client.Get(s.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func (s *server) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	res, err := s.client.PostForm(s.URL+path, form)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
	return res
}

func TestLoginFlowOverHTTP(t *testing.T) {
	s := newServer(t)

	res, body := s.get(t, "/administrativa")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "DENY", res.Header.Get("X-Frame-Options"))
	match := csrfField.FindStringSubmatch(body)
	require.Len(t, match, 2, "login form must carry a csrf token")
	token := match[1]

	res = s.postForm(t, "/login", url.Values{"username": {"lumethik"}, "password": {"2025"}, "next": {"/administrativa"}})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = s.postForm(t, "/login", url.Values{
		"username":   {"lumethik"},
		"password":   {"nope"},
		"next":       {"/administrativa"},
		"csrf_token": {token},
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = s.postForm(t, "/login", url.Values{
		"username":   {"lumethik"},
		"password":   {"2025"},
		"next":       {"/administrativa"},
		"csrf_token": {token},
	})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/administrativa", res.Header.Get("Location"))

	res, body = s.get(t, "/administrativa")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "Dirección Administrativa y Financiera")

	_, metricsBody := s.get(t, "/metrics")
	assert.Contains(t, metricsBody, `tablero_login_attempts_total{outcome="success"} 1`)
	assert.Contains(t, metricsBody, `tablero_login_attempts_total{outcome="failure"} 1`)
}

func TestHealthAndStatic(t *testing.T) {
	s := newServer(t)

	res, body := s.get(t, "/healthz")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	res, body = s.get(t, "/static/css/app.css")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "public, max-age=3600", res.Header.Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/css"))
	assert.NotEmpty(t, body)
}

func TestMiddlewareCommitsSessionWithoutBody(t *testing.T) {
	sessions := shared.NewSessionManager(shared.NewMemorySessionStore(), "tablero_session", "secret", time.Hour, false)
	stack := MiddlewareStack(MiddlewareConfig{
		Config:         &Config{AppEnv: "test"},
		SessionManager: sessions,
		CSRFManager:    shared.NewCSRFManager("x"),
	})
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shared.SessionFromContext(r.Context()).Set("seen", "1")
	})
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "tablero_session", cookies[0].Name)
}
