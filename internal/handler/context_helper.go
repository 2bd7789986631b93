package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/recruiting-crm-api/internal/middleware"
	"github.com/noah-isme/recruiting-crm-api/internal/models"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// tenantFromContext returns the acting tenant or an UNAUTHORIZED error.
func tenantFromContext(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || strings.TrimSpace(claims.TenantID) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "tenant context is required")
	}
	return claims.TenantID, nil
}
