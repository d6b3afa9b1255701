package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumethik/tablero/internal/auth"
	"github.com/lumethik/tablero/internal/shared"
	_ "github.com/lumethik/tablero/testing"
)

type stubRenderer struct {
	calls int
	last  auth.LoginForm
}

func (s *stubRenderer) RenderLogin(w http.ResponseWriter, r *http.Request, status int, form auth.LoginForm) {
	s.calls++
	s.last = form
	w.WriteHeader(status)
	fmt.Fprintf(w, "<form>%s</form>", form.Alert)
}

type fixture struct {
	handler  *auth.Handler
	sessions *shared.SessionManager
	renderer *stubRenderer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	store := shared.NewRedisSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	sessions := shared.NewSessionManager(store, "test_session", "secret", time.Hour, false)
	gate, err := auth.NewGate(auth.Credentials{Username: "lumethik", Password: "2025", Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	renderer := &stubRenderer{}
	handler := auth.NewHandler(nil, gate, renderer, shared.NewCSRFManager("csrfsecret"))
	return fixture{handler: handler, sessions: sessions, renderer: renderer}
}

func (f fixture) serve(t *testing.T, h http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	sess, err := f.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)
	res := httptest.NewRecorder()
	h(res, req)
	if err := f.sessions.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func postLogin(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginSuccessRedirectsToNext(t *testing.T) {
	f := newFixture(t)
	res, sess := f.serve(t, f.handler.HandleLoginForTest, postLogin(url.Values{
		"username": {"lumethik"},
		"password": {"2025"},
		"next":     {"/administrativa"},
	}))

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/administrativa" {
		t.Fatalf("expected redirect to /administrativa, got %q", loc)
	}
	if !sess.Authenticated() {
		t.Fatalf("expected session authenticated")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: f.sessions.CookieName(), Value: sess.ID})
	reloaded, err := f.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Authenticated() {
		t.Fatalf("expected persisted authenticated flag")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	res, sess := f.serve(t, f.handler.HandleLoginForTest, postLogin(url.Values{
		"username": {"lumethik"},
		"password": {"wrongpass"},
		"next":     {"/juridica"},
	}))

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Credenciales incorrectas") {
		t.Fatalf("expected alert in response")
	}
	if sess.Authenticated() {
		t.Fatalf("session must stay unauthenticated")
	}
	if f.renderer.last.Next != "/juridica" || f.renderer.last.Username != "lumethik" {
		t.Fatalf("unexpected form echo: %+v", f.renderer.last)
	}
}

func TestLoginMissingFields(t *testing.T) {
	f := newFixture(t)
	res, _ := f.serve(t, f.handler.HandleLoginForTest, postLogin(url.Values{"username": {"lumethik"}}))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if f.renderer.calls != 1 {
		t.Fatalf("expected login re-render")
	}
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	f := newFixture(t)
	res, _ := f.serve(t, f.handler.HandleLoginForTest, postLogin(url.Values{
		"username": {"lumethik"},
		"password": {"2025"},
		"next":     {"//evil.example/x"},
	}))
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func TestLogoutClearsFlag(t *testing.T) {
	f := newFixture(t)
	_, sess := f.serve(t, f.handler.HandleLoginForTest, postLogin(url.Values{
		"username": {"lumethik"},
		"password": {"2025"},
	}))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: f.sessions.CookieName(), Value: sess.ID})
	res, after := f.serve(t, f.handler.HandleLogoutForTest, req)

	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/" {
		t.Fatalf("expected 303 to /, got %d %q", res.Code, res.Header().Get("Location"))
	}
	if after.Authenticated() {
		t.Fatalf("expected logout to clear flag")
	}
}
