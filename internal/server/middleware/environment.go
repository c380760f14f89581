package middleware

import (
	"net/http"

	"github.com/alanyoungcy/tradedash/internal/environment"
)

// Environment resolves the selected-environment cookie once and stores the
// result in the request context. Missing or invalid values fall back to the
// resolver's default.
func Environment(resolver *environment.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env := resolver.FromRequest(r)
			next.ServeHTTP(w, r.WithContext(environment.WithEnvironment(r.Context(), env)))
		})
	}
}
