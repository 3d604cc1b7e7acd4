package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"nearme/api/logger"
	"nearme/api/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by AuthRequired.
const (
	ContextUserID     = "user_id"
	ContextUserEmail  = "user_email"
	ContextBusinessID = "business_id"
	ContextServiceKey = "service_key"
)

// AuthRequired accepts either the X-API-KEY service key (admin console) or
// an owner JWT from the jwt_token cookie or a Bearer Authorization header.
func AuthRequired(serviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := c.GetHeader("X-API-KEY"); serviceKey != "" && apiKey != "" &&
			subtle.ConstantTimeCompare([]byte(apiKey), []byte(serviceKey)) == 1 {
			c.Set(ContextServiceKey, true)
			c.Next()
			return
		}

		tokenString, err := c.Cookie("jwt_token")
		if err != nil || tokenString == "" {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
			if tokenString == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			logger.Info("rejected invalid token", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextBusinessID, claims.BusinessID)
		c.Next()
	}
}

// CanReadBusiness reports whether the authenticated caller may read data
// for businessID: the service key reads everything, owners their own.
func CanReadBusiness(c *gin.Context, businessID string) bool {
	if c.GetBool(ContextServiceKey) {
		return true
	}
	return businessID != "" && c.GetString(ContextBusinessID) == businessID
}
