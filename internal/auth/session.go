package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// refreshCookieMaxAge bounds how long a browser keeps the refresh token.
const refreshCookieMaxAge = 30 * 24 * time.Hour

// AccessCookieName returns the access-token cookie name of env.
func AccessCookieName(env domain.Environment) string {
	return "sb-" + string(env) + "-access-token"
}

// RefreshCookieName returns the refresh-token cookie name of env.
func RefreshCookieName(env domain.Environment) string {
	return "sb-" + string(env) + "-refresh-token"
}

// ReadSession returns the tokens env's cookies carry, empty when absent.
func ReadSession(r *http.Request, env domain.Environment) (access, refresh string) {
	if c, err := r.Cookie(AccessCookieName(env)); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(RefreshCookieName(env)); err == nil {
		refresh = c.Value
	}
	return access, refresh
}

// WriteSession stores s in env's cookies.
func WriteSession(w http.ResponseWriter, env domain.Environment, s Session, secure bool) {
	accessAge := time.Duration(s.ExpiresIn) * time.Second
	if accessAge <= 0 {
		accessAge = time.Hour
	}
	http.SetCookie(w, sessionCookie(AccessCookieName(env), s.AccessToken, accessAge, secure))
	if s.RefreshToken != "" {
		http.SetCookie(w, sessionCookie(RefreshCookieName(env), s.RefreshToken, refreshCookieMaxAge, secure))
	}
}

// ClearSession expires env's cookies.
func ClearSession(w http.ResponseWriter, env domain.Environment, secure bool) {
	for _, name := range []string{AccessCookieName(env), RefreshCookieName(env)} {
		c := sessionCookie(name, "", 0, secure)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func sessionCookie(name, value string, maxAge time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type userKey struct{}

// WithUser attaches the authenticated claims to ctx.
func WithUser(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, userKey{}, c)
}

// UserFromContext returns the claims attached by the session gate.
func UserFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(userKey{}).(*Claims)
	return c, ok && c != nil
}
