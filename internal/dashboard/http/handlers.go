package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumethik/tablero/internal/auth"
	"github.com/lumethik/tablero/internal/charts/png"
	"github.com/lumethik/tablero/internal/dashboard"
	"github.com/lumethik/tablero/internal/data"
	"github.com/lumethik/tablero/internal/data/export"
	"github.com/lumethik/tablero/internal/platform/httpx"
	"github.com/lumethik/tablero/internal/shared"
	"github.com/lumethik/tablero/internal/view"
	"github.com/lumethik/tablero/report"
)

// PDFRenderer converts a self-contained HTML page to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Params groups the handler collaborators.
type Params struct {
	Logger    *slog.Logger
	Shell     *dashboard.Shell
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	PDF       PDFRenderer
	Debug     bool
}

// Handler serves the dashboard pages, the deferred panel fragments and the
// exports.
type Handler struct {
	logger    *slog.Logger
	shell     *dashboard.Shell
	templates *view.Engine
	csrf      *shared.CSRFManager
	pdf       PDFRenderer
	debug     bool
	bufPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(p Params) *Handler {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		shell:     p.Shell,
		templates: p.Templates,
		csrf:      p.CSRF,
		pdf:       p.PDF,
		debug:     p.Debug,
		now:       time.Now,
	}
	h.bufPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// Link is a labelled href shown next to a view title.
type Link struct {
	Label string
	Path  string
}

type pageView struct {
	Page      dashboard.Page
	Query     string
	PanelsURL string
	Exports   []Link
	Alert     string
	Username  string
	Next      string
	Generated time.Time
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "session missing", errors.New("no session in context"))
		return
	}
	sel, err := dashboard.ParseSelection(r.URL.Query())
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	path := r.URL.Path

	if page, ok, err := h.shell.Pending(path, sess, sel); err != nil {
		h.handleServerError(w, "pending page", err)
		return
	} else if ok {
		h.renderPage(w, r, sess, page, sel)
		return
	}

	page, err := h.shell.Render(r.Context(), sess.ID, sess, path, sel)
	if errors.Is(err, dashboard.ErrSuperseded) {
		h.logger.Debug("page superseded", slog.String("path", path), slog.String("latest", page.Path))
		if page.Path != "" && page.Path != path {
			http.Redirect(w, r, page.Path, http.StatusSeeOther)
			return
		}
	} else if err != nil {
		h.handleServerError(w, "build page", err)
		return
	}
	h.renderPage(w, r, sess, page, sel)
}

// handlePanels serves the data slots of a view for the client script that
// swaps them into a page first served in the loading state.
func (h *Handler) handlePanels(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "session missing", errors.New("no session in context"))
		return
	}
	sel, err := dashboard.ParseSelection(r.URL.Query())
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	path := "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")

	page, err := h.shell.Render(r.Context(), sess.ID, sess, path, sel)
	if errors.Is(err, dashboard.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.handleServerError(w, "build panels", err)
		return
	}
	if page.View.Kind == dashboard.ViewLogin {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	h.render(w, http.StatusOK, "pages/panels.html", view.TemplateData{
		Title: page.Title,
		Debug: h.debug,
		Data:  pageView{Page: page},
	})
}

// RenderLogin renders the login view for a rejected submission.
func (h *Handler) RenderLogin(w http.ResponseWriter, r *http.Request, status int, form auth.LoginForm) {
	page, err := h.shell.Registry().Build(r.Context(), dashboard.Login(), dashboard.Selection{})
	if err != nil {
		h.handleServerError(w, "build login", err)
		return
	}
	page.Path = form.Next
	sess := shared.SessionFromContext(r.Context())
	h.render(w, status, "pages/login.html", view.TemplateData{
		Title:       page.Title,
		CSRFToken:   h.csrfToken(r.Context(), sess),
		CurrentPath: form.Next,
		Debug:       h.debug,
		Data: pageView{
			Page:     page,
			Alert:    form.Alert,
			Username: form.Username,
			Next:     form.Next,
		},
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, sess *shared.Session, page dashboard.Page, sel dashboard.Selection) {
	status := http.StatusOK
	name := "pages/view.html"
	vm := pageView{Page: page}

	switch page.View.Kind {
	case dashboard.ViewLogin:
		name = "pages/login.html"
		vm.Next = auth.SanitizeNext(r.URL.RequestURI())
	case dashboard.ViewHome:
		name = "pages/home.html"
	case dashboard.ViewNotFound:
		name = "pages/notfound.html"
		status = http.StatusNotFound
	default:
		query := sel.Query().Encode()
		vm.Query = query
		vm.PanelsURL = "/paneles" + page.Path
		if query != "" {
			vm.PanelsURL += "?" + query
		}
		if page.View.Kind == dashboard.ViewDirection {
			vm.Exports = directionExports(page.View.Name)
		}
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	h.render(w, status, name, view.TemplateData{
		Title:       page.Title,
		CSRFToken:   h.csrfToken(r.Context(), sess),
		Flash:       flash,
		CurrentPath: page.Path,
		Debug:       h.debug,
		Data:        vm,
	})
}

func directionExports(name string) []Link {
	return []Link{
		{Label: "CSV", Path: "/exportar/" + name + ".csv"},
		{Label: "PDF", Path: "/exportar/" + name + ".pdf"},
		{Label: "PNG casos", Path: "/graficos/" + name + "/" + dashboard.PanelCasos + ".png"},
		{Label: "PNG estado", Path: "/graficos/" + name + "/" + dashboard.PanelEstado + ".png"},
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	name, ext := splitExt(chi.URLParam(r, "file"))
	info, ok := dashboard.LookupDirection(name)
	if !h.requireAuth(w, r, info.Path) {
		return
	}
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: direction %q", httpx.ErrNotFound, name))
		return
	}
	switch ext {
	case "csv":
		h.exportCSV(w, r, info)
	case "pdf":
		h.exportPDF(w, r, info)
	default:
		httpx.RespondError(w, fmt.Errorf("%w: format %q", httpx.ErrNotFound, ext))
	}
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request, info dashboard.DirectionInfo) {
	page, err := h.buildDirection(r.Context(), info)
	if err != nil {
		h.respondBuildError(w, "export csv", err)
		return
	}
	if len(page.Tables) == 0 || page.Tables[0].State == dashboard.PanelEmpty {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUnavailable, dashboard.NoticeUnavailable))
		return
	}

	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()
	if err := export.WriteRecordCSV(buf, page.Tables[0].Record); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", info.Key))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request, info dashboard.DirectionInfo) {
	if h.pdf == nil {
		httpx.RespondError(w, fmt.Errorf("%w: pdf export not configured", httpx.ErrUnavailable))
		return
	}
	page, err := h.buildDirection(r.Context(), info)
	if err != nil {
		h.respondBuildError(w, "export pdf", err)
		return
	}

	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()
	if err := h.templates.Execute(buf, "pages/report.html", view.TemplateData{
		Title: page.Title,
		Data:  pageView{Page: page, Generated: h.now()},
	}); err != nil {
		h.handleServerError(w, "render report html", err)
		return
	}

	pdf, err := h.pdf.RenderHTML(r.Context(), buf.String())
	if errors.Is(err, report.ErrNotConfigured) {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	if err != nil {
		h.logError("render pdf", err)
		httpx.Problem(w, http.StatusBadGateway, http.StatusText(http.StatusBadGateway), "")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.pdf\"", info.Key))
	if _, err := w.Write(pdf); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "direction")
	info, ok := dashboard.LookupDirection(name)
	if !h.requireAuth(w, r, info.Path) {
		return
	}
	chartID, ext := splitExt(chi.URLParam(r, "file"))
	if !ok || ext != "png" {
		httpx.RespondError(w, fmt.Errorf("%w: chart %s/%s", httpx.ErrNotFound, name, chartID))
		return
	}
	page, err := h.buildDirection(r.Context(), info)
	if err != nil {
		h.respondBuildError(w, "export png", err)
		return
	}

	var panel *dashboard.Panel
	for i := range page.Panels {
		if page.Panels[i].ID == chartID {
			panel = &page.Panels[i]
			break
		}
	}
	if panel == nil {
		httpx.RespondError(w, fmt.Errorf("%w: chart %q", httpx.ErrNotFound, chartID))
		return
	}

	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()
	if err := png.Render(buf, panel.Chart); err != nil {
		if errors.Is(err, png.ErrEmptyChart) {
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUnavailable, dashboard.NoticeUnavailable))
			return
		}
		h.handleServerError(w, "render png", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s-%s.png\"", info.Key, chartID))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream png", err)
	}
}

// requireAuth redirects unauthenticated requests to to, which renders the
// login view, and reports whether the request may proceed.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request, to string) bool {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.Authenticated() {
		return true
	}
	if to == "" {
		to = dashboard.PathHome
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
	return false
}

func (h *Handler) buildDirection(ctx context.Context, info dashboard.DirectionInfo) (dashboard.Page, error) {
	return h.shell.Registry().Build(ctx, dashboard.Direction(info.Key), dashboard.Selection{})
}

func (h *Handler) respondBuildError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, dashboard.ErrUnknownView), errors.Is(err, data.ErrUnknownCategory):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, data.ErrDataUnavailable):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
	default:
		h.logError(msg, err)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) csrfToken(ctx context.Context, sess *shared.Session) string {
	if h.csrf == nil || sess == nil {
		return ""
	}
	token, err := h.csrf.EnsureToken(ctx, sess)
	if err != nil {
		h.logError("csrf token", err)
	}
	return token
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data view.TemplateData) {
	if err := h.templates.Render(w, status, name, data); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	if errors.Is(err, dashboard.ErrInvalidSelection) {
		http.Error(w, "Parámetros inválidos", http.StatusBadRequest)
		return
	}
	h.handleServerError(w, "parse selection", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, msg string, err error) {
	h.logError(msg, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
}

func splitExt(file string) (string, string) {
	i := strings.LastIndexByte(file, '.')
	if i < 0 {
		return file, ""
	}
	return file[:i], strings.ToLower(file[i+1:])
}
