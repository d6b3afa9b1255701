package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/lumethik/tablero/internal/shared"
)

// AlertInvalidCredentials is shown inline on a failed login.
const AlertInvalidCredentials = "Credenciales incorrectas"

// LoginForm carries the values echoed back into a re-rendered login page.
type LoginForm struct {
	Username string
	Next     string
	Alert    string
}

// LoginRenderer renders the login view with the given status.
type LoginRenderer interface {
	RenderLogin(w http.ResponseWriter, r *http.Request, status int, form LoginForm)
}

// Handler wires HTTP endpoints for the login gate.
type Handler struct {
	logger    *slog.Logger
	gate      *Gate
	renderer  LoginRenderer
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, gate *Gate, renderer LoginRenderer, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		gate:      gate,
		renderer:  renderer,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.With(limiter).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	input := loginInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	next := SanitizeNext(r.PostFormValue("next"))

	err := h.validator.Struct(input)
	if err == nil {
		err = h.gate.Login(sess, input.Username, input.Password)
	} else {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				h.logger.Debug("login field invalid", slog.String("field", fe.Field()), slog.String("tag", fe.Tag()))
			}
		}
		err = shared.ErrInvalidCredentials
	}
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("login", slog.Any("error", err))
		}
		h.renderer.RenderLogin(w, r, http.StatusBadRequest, LoginForm{
			Username: input.Username,
			Next:     next,
			Alert:    AlertInvalidCredentials,
		})
		return
	}

	h.csrf.Rotate(sess)
	h.logger.Info("login", slog.String("session", sess.ID))
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.gate.Logout(sess)
		h.csrf.Rotate(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SanitizeNext keeps redirect targets on this host. Anything that is not a
// plain absolute path becomes "/".
func SanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleLogoutForTest exposes the logout handler for tests.
func (h *Handler) HandleLogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogout(w, r)
}
