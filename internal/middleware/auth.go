package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/auth"
	"github.com/nexustechhub/nexus-api/internal/models"
)

// Context keys set by the auth middleware.
const (
	CustomerIDKey    = "customerID"
	CustomerEmailKey = "customerEmail"
	CustomerRoleKey  = "customerRole"
)

// TokenValidator is satisfied by *auth.Tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// RoleSource is satisfied by *auth.Customers.
type RoleSource interface {
	Role(ctx context.Context, customerID string) (string, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized", "error": msg})
}

func bearer(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the customer id in the context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		if c.GetHeader("Authorization") == "" {
			unauthorized(c, "Authorization header required")
			return
		}
		tokenString, ok := bearer(c)
		if !ok {
			unauthorized(c, "Invalid token format (must be Bearer)")
			return
		}

		// 2. --- Validate Token ---
		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		// 3. --- Success ---
		c.Set(CustomerIDKey, claims.Subject)
		c.Set(CustomerEmailKey, claims.Email)
		c.Next()
	}
}

// OptionalAuth sets the customer id when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearer(c); ok {
			if claims, err := tokens.ValidateToken(tokenString); err == nil {
				c.Set(CustomerIDKey, claims.Subject)
				c.Set(CustomerEmailKey, claims.Email)
			}
		}
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware. It loads the customer's
// role and only lets admins through.
func AdminMiddleware(roles RoleSource, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get customerID from AuthMiddleware
		customerID := CustomerID(c)
		if customerID == "" {
			unauthorized(c, "Customer ID not found in context (AuthMiddleware must run first)")
			return
		}

		// 2. Query DB for the role
		role, err := roles.Role(c.Request.Context(), customerID)
		if err != nil {
			if errors.Is(err, auth.ErrCustomerNotFound) {
				unauthorized(c, "Invalid user")
				return
			}
			log.Error("admin role check", zap.String("customer", customerID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error", "error": "Database error checking role"})
			return
		}

		// 3. Check permission
		if role != models.RoleAdmin {
			unauthorized(c, "Access denied: admin role required")
			return
		}

		c.Set(CustomerRoleKey, role)
		c.Next()
	}
}

// CustomerID returns the authenticated customer's id, or "".
func CustomerID(c *gin.Context) string {
	return c.GetString(CustomerIDKey)
}
