package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planfill/planfill-server/internal/token"
)

// TokenVerifier is the minimal interface the middleware depends on
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// Authorizer checks the verified email against the allow-list
type Authorizer interface {
	IsAuthorized(email string) bool
}

// AuthMiddleware returns a Gin middleware guarding protected endpoints.
// Every rejection is the same 401 body: callers must not learn whether
// the token was missing, malformed, expired or simply not allow-listed.
func AuthMiddleware(ver TokenVerifier, gate Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			unauthorized(c)
			return
		}
		// Expect 'Bearer <token>'
		var raw string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &raw); n != 1 {
			unauthorized(c)
			return
		}

		claims, err := ver.Verify(raw)
		if err != nil {
			unauthorized(c)
			return
		}
		if !gate.IsAuthorized(claims.Email) {
			unauthorized(c)
			return
		}

		c.Set("claims", claims)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
