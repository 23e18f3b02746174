package middleware

import (
	"errors"
	"net/http"
	"strings"

	"golang-rehabtrack/helpers"
	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authentication.
const (
	KeyUserID = "uid"
	KeyRole   = "role"
	KeyEmail  = "email"
)

func Authentication(tokens *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No Authorization header provided"})
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": helpers.ErrInvalidToken.Error()})
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			msg := helpers.ErrInvalidToken.Error()
			if errors.Is(err, helpers.ErrExpiredToken) {
				msg = helpers.ErrExpiredToken.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyEmail, claims.Email)
		c.Next()
	}
}

// RequireRole must run after Authentication.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if models.Role(c.GetString(KeyRole)) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only " + strings.ToLower(string(role)) + "s can perform this action"})
			return
		}
		c.Next()
	}
}
