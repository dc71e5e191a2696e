package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/twitteroauth/auth-service/internal/api"
	"github.com/twitteroauth/auth-service/internal/config"
	"github.com/twitteroauth/auth-service/internal/tokens"
)

// ClaimsKey is the gin context key holding the verified token claims.
const ClaimsKey = "claims"

// Auth returns a middleware that requires a valid bearer token, presented
// either as an Authorization header or a `token` route parameter. Verified
// claims are stored in the request context under ClaimsKey.
func Auth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokens.FromRequest(c)
		if raw == "" {
			api.Handle(c, api.Unauthorized("Authorization not provided"), cfg.Server.Environment)
			c.Abort()
			return
		}
		claims, err := tokens.Verify(cfg, raw)
		if err != nil {
			api.Handle(c, err, cfg.Server.Environment)
			c.Abort()
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Claims returns the verified claims stored by Auth, or nil.
func Claims(c *gin.Context) *tokens.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*tokens.Claims)
	return claims
}
