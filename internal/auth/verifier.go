package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// ErrTokenExpired is returned for a well-signed token past its expiry.
var ErrTokenExpired = errors.New("auth: token expired")

// Claims are the access-token claims issued by Supabase.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 access tokens signed with a project's JWT secret.
type Verifier struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewVerifier creates a Verifier. leeway tolerates clock skew on exp and nbf.
func NewVerifier(secret string, leeway time.Duration) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		leeway: leeway,
		now:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Verify checks the signature and time claims of token. A token that is
// only expired yields ErrTokenExpired so callers can try a refresh.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %v: %w", err, domain.ErrUnauthenticated)
	}

	now := v.now()
	if !claims.VerifyExpiresAt(now.Add(-v.leeway), true) {
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, domain.ErrUnauthenticated)
	}
	if !claims.VerifyNotBefore(now.Add(v.leeway), false) {
		return nil, fmt.Errorf("auth: token not yet valid: %w", domain.ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject: %w", domain.ErrUnauthenticated)
	}
	return claims, nil
}
