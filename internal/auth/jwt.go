package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthProvider validates HS256 tokens signed with a shared secret. The
// subject claim is the user id.
type JWTAuthProvider struct {
	secret []byte
	logger internal.Logger
}

func NewJWTAuthProvider(secret string, logger internal.Logger) *JWTAuthProvider {
	return &JWTAuthProvider{secret: []byte(secret), logger: logger}
}

func (a *JWTAuthProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		a.logger.Warnf("invalid token: %v", err)
		return nil, fmt.Errorf("auth: %w", internal.ErrUnauthorized)
	}
	if claims.Subject == "" {
		a.logger.Warnf("token without subject")
		return nil, fmt.Errorf("auth: %w", internal.ErrUnauthorized)
	}
	return &internal.User{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}

// IssueToken signs a token for user that expires after ttl.
func IssueToken(secret string, user internal.User, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth: empty secret")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}
