// Package environment resolves the staging/production selection carried by
// the selected-environment cookie and scopes it to a request.
package environment

import (
	"context"
	"net/http"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// CookieName is the cookie holding the selected environment.
const CookieName = "selected-environment"

// CookieMaxAge keeps the selection for a year.
const CookieMaxAge = 365 * 24 * time.Hour

// Resolver maps cookie values to environments.
type Resolver struct {
	fallback domain.Environment
}

// NewResolver returns a Resolver that falls back to def for missing or
// invalid values. An invalid def is replaced by staging.
func NewResolver(def domain.Environment) *Resolver {
	if !def.Valid() {
		def = domain.EnvironmentStaging
	}
	return &Resolver{fallback: def}
}

// Default returns the fallback environment.
func (r *Resolver) Default() domain.Environment { return r.fallback }

// Resolve returns the environment named by value, or the default.
func (r *Resolver) Resolve(value string) domain.Environment {
	if env, ok := domain.ParseEnvironment(value); ok {
		return env
	}
	return r.fallback
}

// FromRequest resolves the environment from the request cookie.
func (r *Resolver) FromRequest(req *http.Request) domain.Environment {
	c, err := req.Cookie(CookieName)
	if err != nil {
		return r.fallback
	}
	return r.Resolve(c.Value)
}

// Cookie builds the cookie persisting env.
func Cookie(env domain.Environment, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    string(env),
		Path:     "/",
		MaxAge:   int(CookieMaxAge / time.Second),
		Expires:  time.Now().Add(CookieMaxAge),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type ctxKey struct{}

// WithEnvironment returns a copy of ctx carrying env.
func WithEnvironment(ctx context.Context, env domain.Environment) context.Context {
	return context.WithValue(ctx, ctxKey{}, env)
}

// FromContext returns the environment stored by WithEnvironment.
func FromContext(ctx context.Context) (domain.Environment, bool) {
	env, ok := ctx.Value(ctxKey{}).(domain.Environment)
	return env, ok
}
