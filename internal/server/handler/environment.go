package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
	"github.com/alanyoungcy/tradedash/internal/web"
)

// EnvironmentHandler switches the selected environment and the theme.
type EnvironmentHandler struct {
	secure bool
	logger *slog.Logger
}

// NewEnvironmentHandler creates an EnvironmentHandler. secure marks the
// cookies it writes as Secure.
func NewEnvironmentHandler(secure bool, logger *slog.Logger) *EnvironmentHandler {
	return &EnvironmentHandler{
		secure: secure,
		logger: logHandler(logger, "environment"),
	}
}

// Select stores the chosen environment and returns to the referring page.
// POST /environment
func (h *EnvironmentHandler) Select(w http.ResponseWriter, r *http.Request) {
	env, ok := domain.ParseEnvironment(r.PostFormValue("environment"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid environment")
		return
	}
	http.SetCookie(w, environment.Cookie(env, h.secure))
	h.logger.InfoContext(r.Context(), "environment selected",
		slog.String("from", string(envFrom(r))),
		slog.String("to", string(env)),
	)
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// Theme stores the chosen theme.
// POST /settings/theme
func (h *EnvironmentHandler) Theme(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     web.ThemeCookie,
		Value:    web.ParseTheme(r.PostFormValue("theme")),
		Path:     "/",
		MaxAge:   int(environment.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// backTo returns the same-host path of the Referer, or "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	return safeNext(ref.RequestURI())
}

// safeNext keeps redirect targets on this host. Anything that is not an
// absolute path, or that points back at the login page, becomes "/".
func safeNext(next string) string {
	if next == "" || next[0] != '/' || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if next == "/login" || strings.HasPrefix(next, "/login?") {
		return "/"
	}
	return next
}
