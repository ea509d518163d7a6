// Package identity verifies tokens issued by the external identity provider
// and manages the provider-side lifecycle of an account.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrRevoked      = errors.New("identity token revoked")
)

// Identity is what a verified login token vouches for.
type Identity struct {
	UID      string
	Email    string
	Name     string
	Picture  string
	IssuedAt time.Time
}

// Verifier turns a raw login token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Identity, error)
}

// claims is the subset of ID token claims the service reads.
type claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (c claims) identity(issuedAt time.Time) (*Identity, error) {
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		UID:      c.Subject,
		Email:    c.Email,
		Name:     c.Name,
		Picture:  c.Picture,
		IssuedAt: issuedAt,
	}, nil
}
