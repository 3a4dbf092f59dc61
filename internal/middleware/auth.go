package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-archive/internal/models"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
	"github.com/noah-isme/univ-archive/pkg/response"
)

// ContextAdminKey is the gin context key storing admin claims.
const ContextAdminKey = "currentAdmin"

// TokenValidator parses admin session tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.AdminClaims, error)
}

// AdminJWT protects routes by requiring a valid admin session token.
func AdminJWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "en-tête d'autorisation invalide"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// AdminClaims returns the claims stored by AdminJWT.
func AdminClaims(c *gin.Context) *models.AdminClaims {
	value, exists := c.Get(ContextAdminKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.AdminClaims)
	return claims
}
