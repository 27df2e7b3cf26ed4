package middleware

import (
	"net/http"
	"strings"

	"concierge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TenantIDKey is the gin context key holding the authenticated tenant.
const TenantIDKey = "tenantID"

// TenantAuthMiddleware accepts tenant bearer tokens minted by utils.GenerateTenantToken.
func TenantAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tenantID, err := utils.ExtractTenantID(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			RequestLogger(c).Debug("Rejected tenant token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(TenantIDKey, tenantID)
		if l, ok := c.Get(LoggerKey); ok {
			if logger, ok := l.(*zap.Logger); ok {
				c.Set(LoggerKey, logger.With(zap.String("tenantId", tenantID)))
			}
		}
		c.Next()
	}
}
