package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/alanyoungcy/tradedash/internal/auth"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
)

// Authenticator validates and refreshes a session.
type Authenticator interface {
	Authenticate(ctx context.Context, env domain.Environment, access, refresh string) (*auth.Claims, *auth.Session, error)
}

// publicPrefixes are reachable without a session.
var publicPrefixes = []string{"/auth/", "/static/"}

var publicPaths = map[string]bool{
	"/login":      true,
	"/api/health": true,
}

// IsPublic reports whether path bypasses the session gate.
func IsPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Session refreshes the session of the request's environment and gates
// every non-public route. Unauthenticated requests are redirected (303) to
// /login with the original path in "next"; authenticated requests to /login
// go to /. Refreshed tokens are written back as cookies.
func Session(a Authenticator, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env, _ := environment.FromContext(r.Context())
			access, refresh := auth.ReadSession(r, env)

			var claims *auth.Claims
			if access != "" || refresh != "" {
				c, refreshed, err := a.Authenticate(r.Context(), env, access, refresh)
				switch {
				case err == nil:
					claims = c
					if refreshed != nil {
						auth.WriteSession(w, env, *refreshed, secure)
					}
				default:
					logger.DebugContext(r.Context(), "session rejected",
						slog.String("environment", string(env)),
						slog.String("error", err.Error()),
					)
					auth.ClearSession(w, env, secure)
				}
			}

			if claims != nil {
				if r.URL.Path == "/login" && r.Method == http.MethodGet {
					http.Redirect(w, r, "/", http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), claims)))
				return
			}

			if IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			target := "/login"
			if r.Method == http.MethodGet && r.URL.Path != "/" {
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}
