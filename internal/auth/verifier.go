package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified bearer credential tells us about the caller.
type Identity struct {
	Email    string
	Name     string
	PhotoURL string
}

// TokenVerifier resolves a bearer credential to a caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
