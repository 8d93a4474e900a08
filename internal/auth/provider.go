package auth

import (
	"context"

	"github.com/5-07/sweeten/internal"
)

// Provider resolves a bearer token to the signed-in user.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*internal.User, error)
}
