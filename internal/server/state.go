package server

import (
	"fmt"
	"time"

	"github.com/desertthunder/playlistd/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	stateTTL    = 10 * time.Minute
	stateIssuer = "playlistd"
)

// StateSigner issues and checks the OAuth state parameter: an HS256 JWT whose ID is a nonce also kept in the
// session that started the login.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewStateSigner creates a signer; states expire ttl after they are issued.
func NewStateSigner(secret []byte, ttl time.Duration) *StateSigner {
	return &StateSigner{secret: secret, ttl: ttl}
}

// Sign returns the state for nonce issued at now.
func (s *StateSigner) Sign(nonce string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        nonce,
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of state at now and that it was issued for nonce.
func (s *StateSigner) Verify(state, nonce string, now time.Time) error {
	if state == "" {
		return fmt.Errorf("%w: missing state", shared.ErrInvalidState)
	}
	if nonce == "" {
		return fmt.Errorf("%w: no login pending for this session", shared.ErrInvalidState)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var claims jwt.RegisteredClaims
	if _, err := parser.ParseWithClaims(state, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidState, err)
	}

	if claims.ID != nonce {
		return fmt.Errorf("%w: state issued for another session", shared.ErrInvalidState)
	}
	return nil
}
