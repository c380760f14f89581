package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/tradedash/internal/auth"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
	"github.com/alanyoungcy/tradedash/internal/web"
)

// SessionManager defines the auth operations the login flow requires.
type SessionManager interface {
	Login(ctx context.Context, env domain.Environment, email, password string) (auth.Session, error)
	VerifyEmail(ctx context.Context, env domain.Environment, tokenHash, kind string) (auth.Session, error)
	Logout(ctx context.Context, env domain.Environment, access string)
}

// AuthHandler serves sign-in, the email confirmation callback and sign-out.
type AuthHandler struct {
	sessions SessionManager
	pages    *web.Renderer
	secure   bool
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(sessions SessionManager, pages *web.Renderer, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		pages:    pages,
		secure:   secure,
		logger:   logHandler(logger, "auth"),
	}
}

// LoginForm renders the sign-in page.
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, envFrom(r), web.LoginView{
		Next:  safeNext(r.URL.Query().Get("next")),
		Error: r.URL.Query().Get("error"),
	})
}

// Login signs in against the selected environment's project, stores the
// session and follows "next".
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	env := envFrom(r)
	if chosen, ok := domain.ParseEnvironment(r.PostFormValue("environment")); ok {
		env = chosen
	}
	view := web.LoginView{
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Next:  safeNext(r.PostFormValue("next")),
	}
	password := r.PostFormValue("password")
	if view.Email == "" || password == "" {
		view.Error = "Email and password are required."
		h.renderLogin(w, r, http.StatusBadRequest, env, view)
		return
	}

	session, err := h.sessions.Login(r.Context(), env, view.Email, password)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, domain.ErrUnauthenticated) {
			view.Error = "Invalid email or password."
		} else {
			h.logger.ErrorContext(r.Context(), "login failed",
				slog.String("environment", string(env)),
				slog.String("error", err.Error()),
			)
			view.Error = "Sign-in is unavailable, try again later."
		}
		h.renderLogin(w, r, status, env, view)
		return
	}

	auth.WriteSession(w, env, session, h.secure)
	http.SetCookie(w, environment.Cookie(env, h.secure))
	h.logger.InfoContext(r.Context(), "signed in",
		slog.String("environment", string(env)),
		slog.String("email", session.User.Email),
	)
	http.Redirect(w, r, view.Next, http.StatusSeeOther)
}

// Callback exchanges an email confirmation token hash for a session.
// GET /auth/callback?token_hash&type&next
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	env := envFrom(r)
	tokenHash, kind := q.Get("token_hash"), q.Get("type")
	if tokenHash == "" || kind == "" {
		http.Redirect(w, r, "/login?error=Invalid+confirmation+link", http.StatusSeeOther)
		return
	}

	session, err := h.sessions.VerifyEmail(r.Context(), env, tokenHash, kind)
	if err != nil {
		h.logger.WarnContext(r.Context(), "email verification failed",
			slog.String("environment", string(env)),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/login?error=Confirmation+link+is+invalid+or+expired", http.StatusSeeOther)
		return
	}
	auth.WriteSession(w, env, session, h.secure)
	http.Redirect(w, r, safeNext(q.Get("next")), http.StatusSeeOther)
}

// Logout revokes the session of the selected environment and clears its
// cookies.
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	env := envFrom(r)
	if access, _ := auth.ReadSession(r, env); access != "" {
		h.sessions.Logout(r.Context(), env, access)
	}
	auth.ClearSession(w, env, h.secure)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, env domain.Environment, view web.LoginView) {
	h.pages.Render(w, status, web.PageLogin, web.Page{
		Title: "Sign in",
		Env:   env,
		Theme: themeFrom(r),
		Bare:  true,
		Data:  view,
	})
}
