package server

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/playlistd/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

func TestStateSigner(t *testing.T) {
	signer := NewStateSigner([]byte("secret"), stateTTL)
	now := testStart

	state, err := signer.Sign("nonce-1", now)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	t.Run("round trip", func(t *testing.T) {
		if err := signer.Verify(state, "nonce-1", now.Add(time.Minute)); err != nil {
			t.Errorf("expected valid state, got %v", err)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		other, _ := NewStateSigner([]byte("other"), stateTTL).Sign("nonce-1", now)
		none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			ID:        "nonce-1",
			Issuer:    stateIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)

		tests := []struct {
			name  string
			state string
			nonce string
			at    time.Time
		}{
			{"empty state", "", "nonce-1", now},
			{"no pending nonce", state, "", now},
			{"wrong nonce", state, "nonce-2", now},
			{"expired", state, "nonce-1", now.Add(stateTTL + time.Second)},
			{"wrong secret", other, "nonce-1", now},
			{"unsigned", none, "nonce-1", now},
			{"garbage", "not-a-jwt", "nonce-1", now},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := signer.Verify(tt.state, tt.nonce, tt.at)
				if !errors.Is(err, shared.ErrInvalidState) {
					t.Errorf("expected ErrInvalidState, got %v", err)
				}
			})
		}
	})
}
