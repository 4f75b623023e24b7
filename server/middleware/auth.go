package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/ollamacmd/errors"
)

// ContextKeyClaims is the gin context key holding validated token claims.
const ContextKeyClaims = "auth_claims"

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (any, error)

// AuthConfig configures Auth.
type AuthConfig struct {
	Validator TokenValidator
	// SkipPaths bypass authentication when the request path equals one of them.
	SkipPaths []string
	// QueryParam, when set, is read if the Authorization header is absent.
	// EventSource clients cannot set headers.
	QueryParam string
}

// Auth requires a valid bearer token and stores its claims under
// ContextKeyClaims.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		token, err := bearerToken(c, cfg.QueryParam)
		if err == nil {
			var claims any
			if claims, err = cfg.Validator(token); err == nil {
				c.Set(ContextKeyClaims, claims)
				c.Next()
				return
			}
			err = apperrors.Unauthorized("Invalid token.").WithCause(err)
		}
		appErr, _ := apperrors.AsAppError(err)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
	}
}

func bearerToken(c *gin.Context, queryParam string) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if queryParam != "" {
			if t := c.Query(queryParam); t != "" {
				return t, nil
			}
		}
		return "", apperrors.Unauthorized("Authorization header required.")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperrors.Unauthorized("Invalid authorization header format.")
	}
	return token, nil
}
