package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned by Store.Load when no session has been saved.
var ErrNoSession = errors.New("session: no active session")

// Session pairs the short-lived access token with the refresh token that can be
// exchanged for a new one.
type Session struct {
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
	Username     string    `json:"username,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// New builds a session and derives Expiry from the access token's exp claim.
func New(access, refresh, username string) Session {
	s := Session{
		AccessToken:  strings.TrimSpace(access),
		RefreshToken: strings.TrimSpace(refresh),
		Username:     strings.TrimSpace(username),
	}
	s.Expiry = ExpiryOf(s.AccessToken)
	return s
}

// WithAccess returns a copy carrying a new access token (and a rotated refresh
// token when one is supplied).
func (s Session) WithAccess(access, refresh string) Session {
	next := s
	next.AccessToken = strings.TrimSpace(access)
	next.Expiry = ExpiryOf(next.AccessToken)
	if trimmed := strings.TrimSpace(refresh); trimmed != "" {
		next.RefreshToken = trimmed
	}
	return next
}

// Valid reports whether the session carries an access token.
func (s Session) Valid() bool {
	return s.AccessToken != ""
}

// CanRefresh reports whether a refresh token is available.
func (s Session) CanRefresh() bool {
	return s.RefreshToken != ""
}

// Expired reports whether the access token expiry is known and has passed.
func (s Session) Expired(now time.Time) bool {
	if s.Expiry.IsZero() {
		return false
	}
	return !now.Before(s.Expiry)
}

// ExpiryOf reads the exp claim from a JWT access token without verifying the
// signature; the backend owns the key. Opaque tokens yield the zero time.
func ExpiryOf(token string) time.Time {
	if token == "" || strings.Count(token, ".") != 2 {
		return time.Time{}
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Store persists the current session.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
