package environment

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

func TestResolveFallsBackOnInvalidValue(t *testing.T) {
	r := NewResolver(domain.EnvironmentProduction)
	cases := map[string]domain.Environment{
		"staging":    domain.EnvironmentStaging,
		"production": domain.EnvironmentProduction,
		"":           domain.EnvironmentProduction,
		"dev":        domain.EnvironmentProduction,
		"PRODUCTION": domain.EnvironmentProduction,
		"Staging":    domain.EnvironmentProduction,
	}
	for in, want := range cases {
		if got := r.Resolve(in); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewResolverRejectsInvalidDefault(t *testing.T) {
	r := NewResolver("qa")
	if r.Default() != domain.EnvironmentStaging {
		t.Fatalf("default = %q, want staging", r.Default())
	}
}

func TestFromRequestReadsCookie(t *testing.T) {
	r := NewResolver(domain.EnvironmentStaging)

	req := httptest.NewRequest("GET", "/", nil)
	if got := r.FromRequest(req); got != domain.EnvironmentStaging {
		t.Errorf("no cookie: got %q", got)
	}

	req.AddCookie(Cookie(domain.EnvironmentProduction, false))
	if got := r.FromRequest(req); got != domain.EnvironmentProduction {
		t.Errorf("with cookie: got %q", got)
	}
}

func TestCookieLivesOneYear(t *testing.T) {
	c := Cookie(domain.EnvironmentStaging, true)
	if c.Name != CookieName || c.Path != "/" {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if c.MaxAge != 365*24*60*60 {
		t.Errorf("MaxAge = %d", c.MaxAge)
	}
	if !c.Secure {
		t.Errorf("Secure not propagated")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context must not carry an environment")
	}
	ctx := WithEnvironment(context.Background(), domain.EnvironmentProduction)
	env, ok := FromContext(ctx)
	if !ok || env != domain.EnvironmentProduction {
		t.Fatalf("FromContext = %q, %v", env, ok)
	}
}
