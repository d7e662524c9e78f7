package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/cardgate/internal/config"
)

// ErrInvalidToken is returned for every verification failure: bad signature,
// wrong algorithm, expired claim, garbage input. Callers learn nothing about
// which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Service issues and verifies stateless HS256 bearer tokens. There is no
// server-side revocation: a minted token stays valid until its exp claim
// passes, which bounds the blast radius of a leak to the TTL window.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(cfg config.Token) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return &Service{secret: cfg.Secret, issuer: cfg.Issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token carrying the subject claim. A zero ttl means the
// configured default; a negative ttl produces an already-expired token.
// The exp claim is always computed here, never taken from the caller.
func (s *Service) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.ttl
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// TTL reports the default token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Verify parses and validates a token string and returns its subject.
// The signing method is pinned to HS256 so an attacker cannot downgrade
// to "none" or swap in an asymmetric scheme.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
