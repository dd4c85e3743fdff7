// README: Firebase auth middleware; resolves the caller's role and visibility scope.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vilamourachauffeurs/dispatch/internal/auth"
	"github.com/vilamourachauffeurs/dispatch/internal/infra"
)

const callerKey = "dispatch.caller"

// Resolver maps a verified Firebase UID onto the caller context.
type Resolver interface {
	ResolveContext(ctx context.Context, uid string) (auth.Context, error)
}

// Auth verifies the bearer token and resolves the caller's account. Requests
// without a valid token get 401; a valid token without a provisioned account
// gets 403 (the user exists in Firebase but not in the fleet).
func Auth(verifier infra.TokenVerifier, resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		caller, err := resolver.ResolveContext(c.Request.Context(), token.UID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account not provisioned"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// Caller returns the resolved caller context set by Auth.
func Caller(c *gin.Context) auth.Context {
	if v, ok := c.Get(callerKey); ok {
		if ac, ok := v.(auth.Context); ok {
			return ac
		}
	}
	return auth.Context{}
}

// RequireAdmin rejects non-admin callers before the handler runs.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Caller(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
