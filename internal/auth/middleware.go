package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/config"
	"github.com/5-07/sweeten/internal/response"
	"github.com/gin-gonic/gin"
)

const userKey = "user"

// NewProvider picks the provider named by AUTH_MODE.
func NewProvider(cfg *config.Config, logger internal.Logger) Provider {
	if cfg.AuthMode == "remote" {
		return NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	}
	return NewJWTAuthProvider(cfg.JWTSecret, logger)
}

func AuthMiddleware(provider Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			user, err := provider.Authenticate(c.Request.Context(), token)
			if err == nil {
				c.Set(userKey, user)
				c.Next()
				return
			}
			if !errors.Is(err, internal.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.NewAppError(http.StatusServiceUnavailable, "Authentication unavailable"))
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.NewAppError(http.StatusUnauthorized, "Unauthorized"))
	}
}

// CurrentUser returns the user set by AuthMiddleware.
func CurrentUser(c *gin.Context) *internal.User {
	return c.MustGet(userKey).(*internal.User)
}

// UserFrom is CurrentUser for routes that may run without AuthMiddleware.
func UserFrom(c *gin.Context) (*internal.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*internal.User)
	return u, ok
}
