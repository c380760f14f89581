package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// Project is the auth configuration of one environment.
type Project struct {
	APIURL    string
	AnonKey   string
	JWTSecret string
}

type project struct {
	client   *Client
	verifier *Verifier
}

// Manager routes auth calls to the project of the request's environment.
type Manager struct {
	projects map[domain.Environment]project
	logger   *slog.Logger
}

// NewManager builds a client and verifier for every configured project.
func NewManager(projects map[domain.Environment]Project, timeout, leeway time.Duration, logger *slog.Logger) *Manager {
	m := &Manager{
		projects: make(map[domain.Environment]project, len(projects)),
		logger:   logger.With(slog.String("component", "auth")),
	}
	for env, p := range projects {
		m.projects[env] = project{
			client:   NewClient(p.APIURL, p.AnonKey, timeout),
			verifier: NewVerifier(p.JWTSecret, leeway),
		}
	}
	return m
}

func (m *Manager) project(env domain.Environment) (project, error) {
	p, ok := m.projects[env]
	if !ok {
		return project{}, fmt.Errorf("auth: %w: %q", domain.ErrUnknownEnvironment, env)
	}
	return p, nil
}

// Authenticate validates the session tokens of env. When the access token
// is missing or expired and a refresh token is present, the session is
// refreshed and the new tokens are returned for the caller to persist.
func (m *Manager) Authenticate(ctx context.Context, env domain.Environment, access, refresh string) (*Claims, *Session, error) {
	p, err := m.project(env)
	if err != nil {
		return nil, nil, err
	}

	if access != "" {
		claims, err := p.verifier.Verify(access)
		if err == nil {
			return claims, nil, nil
		}
		if !errors.Is(err, ErrTokenExpired) {
			m.logger.DebugContext(ctx, "access token rejected",
				slog.String("environment", string(env)),
				slog.String("error", err.Error()),
			)
		}
	}
	if refresh == "" {
		return nil, nil, fmt.Errorf("auth: no session: %w", domain.ErrUnauthenticated)
	}

	s, err := p.client.Refresh(ctx, refresh)
	if err != nil {
		return nil, nil, err
	}
	claims, err := p.verifier.Verify(s.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	m.logger.DebugContext(ctx, "session refreshed",
		slog.String("environment", string(env)),
		slog.String("user", claims.Email),
	)
	return claims, &s, nil
}

// Login signs in with email and password against env's project.
func (m *Manager) Login(ctx context.Context, env domain.Environment, email, password string) (Session, error) {
	p, err := m.project(env)
	if err != nil {
		return Session{}, err
	}
	return p.client.SignInWithPassword(ctx, email, password)
}

// VerifyEmail confirms an email link against env's project.
func (m *Manager) VerifyEmail(ctx context.Context, env domain.Environment, tokenHash, kind string) (Session, error) {
	p, err := m.project(env)
	if err != nil {
		return Session{}, err
	}
	return p.client.VerifyTokenHash(ctx, tokenHash, kind)
}

// Logout revokes the session server-side. Failures are logged only; the
// caller clears cookies either way.
func (m *Manager) Logout(ctx context.Context, env domain.Environment, access string) {
	p, err := m.project(env)
	if err != nil || access == "" {
		return
	}
	if err := p.client.SignOut(ctx, access); err != nil {
		m.logger.WarnContext(ctx, "sign out failed",
			slog.String("environment", string(env)),
			slog.String("error", err.Error()),
		)
	}
}
