// Package auth signs operators in against each environment's Supabase auth
// API and validates the resulting session on every request.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// User is the subset of the auth user record the dashboard shows.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a token pair issued by the auth API.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// apiError covers the error shapes the auth API returns.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e apiError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Client talks to one project's /auth/v1 endpoints.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client for the project at apiURL.
func NewClient(apiURL, anonKey string, timeout time.Duration) *Client {
	c := resty.New()
	c.SetBaseURL(strings.TrimRight(apiURL, "/") + "/auth/v1")
	c.SetTimeout(timeout)
	c.SetHeader("apikey", anonKey)
	c.SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	return c.token(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	return c.token(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
}

// VerifyTokenHash confirms an email link (signup, magic link, recovery,
// invite, email change) and returns the session it grants.
func (c *Client) VerifyTokenHash(ctx context.Context, tokenHash, kind string) (Session, error) {
	var (
		s    Session
		fail apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"token_hash": tokenHash, "type": kind}).
		SetResult(&s).
		SetError(&fail).
		Post("/verify")
	if err != nil {
		return Session{}, fmt.Errorf("auth: verify: %w", err)
	}
	if err := statusError("verify", resp, fail); err != nil {
		return Session{}, err
	}
	return s, nil
}

// SignOut revokes the refresh tokens of the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	var fail apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetError(&fail).
		Post("/logout")
	if err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	return statusError("logout", resp, fail)
}

func (c *Client) token(ctx context.Context, grant string, body map[string]string) (Session, error) {
	var (
		s    Session
		fail apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grant).
		SetBody(body).
		SetResult(&s).
		SetError(&fail).
		Post("/token")
	if err != nil {
		return Session{}, fmt.Errorf("auth: %s grant: %w", grant, err)
	}
	if err := statusError(grant+" grant", resp, fail); err != nil {
		return Session{}, err
	}
	if s.AccessToken == "" {
		return Session{}, fmt.Errorf("auth: %s grant: empty access token: %w", grant, domain.ErrUnauthenticated)
	}
	return s, nil
}

// statusError maps 4xx responses to domain.ErrUnauthenticated and anything
// else non-2xx to a plain error carrying the API message.
func statusError(op string, resp *resty.Response, fail apiError) error {
	if resp.IsSuccess() {
		return nil
	}
	msg := fail.text()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	if code := resp.StatusCode(); code >= 400 && code < 500 {
		return fmt.Errorf("auth: %s: %s: %w", op, msg, domain.ErrUnauthenticated)
	}
	return fmt.Errorf("auth: %s: status %d: %s", op, resp.StatusCode(), msg)
}
