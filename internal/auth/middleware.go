package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "auth_claims"

// Middleware requires a valid bearer token. With no secret configured every
// request passes.
func Middleware(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokens.Enabled() {
			c.Next()
			return
		}
		h := c.GetHeader("Authorization")
		if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(h[len("bearer "):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// RequireSync rejects tokens that may not write to sheets. It is a no-op when
// the request carries no claims, which only happens with auth disabled.
func RequireSync() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := GetClaims(c); claims != nil && !claims.Sync {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token may not modify sheets"})
			return
		}
		c.Next()
	}
}

func GetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
