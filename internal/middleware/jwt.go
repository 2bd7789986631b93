package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
	"github.com/noah-isme/recruiting-crm-api/pkg/logger"
	"github.com/noah-isme/recruiting-crm-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token that names a tenant.
func JWT(tokens tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, err)
			return
		}
		if strings.TrimSpace(claims.TenantID) == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no organization"))
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(logger.TenantKey, claims.TenantID)
		c.Next()
	}
}
