// Package handshake keeps short-lived OAuth round-trip state in a store that
// every process in the fleet can reach, so a callback can land on a different
// instance than the one that started the flow.
package handshake

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/goliatone/go-errors"
)

// DefaultTTL is how long a pending handshake stays valid.
const DefaultTTL = 24 * time.Hour

// Handshake is the state parked between redirecting the browser upstream and
// the provider calling us back. The token doubles as the OAuth state value.
type Handshake struct {
	Token        string    `json:"token"`
	Provider     string    `json:"provider"`
	Nonce        string    `json:"nonce"`
	CodeVerifier string    `json:"code_verifier,omitempty"`
	RedirectURL  string    `json:"redirect_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the handshake is past its deadline.
func (h Handshake) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

// Store persists pending handshakes. Get must treat unknown and expired
// tokens identically so a caller cannot probe which ones existed.
type Store interface {
	Put(ctx context.Context, h Handshake) error
	Get(ctx context.Context, token string) (*Handshake, error)
	Delete(ctx context.Context, token string) error
}

// NewToken generates an opaque handshake token. 32 bytes = 256 bits of entropy.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate handshake token").
			WithCode(errors.CodeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New builds a handshake with a fresh token and nonce, expiring after ttl.
func New(provider, redirectURL string, ttl time.Duration) (Handshake, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	token, err := NewToken()
	if err != nil {
		return Handshake{}, err
	}

	nonce, err := NewToken()
	if err != nil {
		return Handshake{}, err
	}

	now := time.Now()
	return Handshake{
		Token:       token,
		Provider:    provider,
		Nonce:       nonce,
		RedirectURL: redirectURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}
