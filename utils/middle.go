package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the bearer JWT and sets the subject in context.
// When required is false a request without a token passes through, but a bad
// token is still rejected.
func AuthMiddleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				Fail(c, http.StatusUnauthorized, "unauthorized")
				return
			}
			c.Next()
			return
		}
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			Fail(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := VerifyToken(tokenParts[1])
		if err != nil {
			Fail(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Set("subject", claims.Subject)
		c.Next()
	}
}
