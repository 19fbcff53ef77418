package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated is returned when a request carries no usable credentials.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Authenticator decides who is calling. A non-nil error rejects the request.
type Authenticator interface {
	Authenticate(r *http.Request) (subject string, err error)
}

// JWTAuthenticator accepts HS256 tokens from the Authorization header or a session cookie.
type JWTAuthenticator struct {
	secret []byte
	cookie string
	issuer string
}

// NewJWTAuthenticator builds an authenticator. With an empty secret every request is
// rejected; there is no anonymous mode.
func NewJWTAuthenticator(secret, cookie, issuer string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), cookie: cookie, issuer: issuer}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrUnauthenticated
	}
	raw := a.extractToken(r)
	if raw == "" {
		return "", ErrUnauthenticated
	}
	claims := &jwt.RegisteredClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (a *JWTAuthenticator) extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if t := strings.TrimSpace(parts[1]); t != "" {
				return t
			}
		}
	}
	if a.cookie != "" {
		if c, err := r.Cookie(a.cookie); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// IssueToken signs a token for subject valid for ttl.
func (a *JWTAuthenticator) IssueToken(subject string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("no signing secret configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
