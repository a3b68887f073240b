package middleware

import (
	"ledger_gateway/internal/utils" // Role names
	"net/http"                      // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// IsAdmin reports whether the authenticated caller carries the admin role
func IsAdmin(c *gin.Context) bool {
	return c.GetString(RoleKey) == utils.RoleAdmin
}

// AdminOnlyMiddleware checks the role claim of the token on each request
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if userID exists in context
		if _, exists := c.Get(UserIDKey); !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Check if user role is admin
		if !IsAdmin(c) {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}

// OwnerOrAdminMiddleware lets a caller reach only the account named by the path
// parameter param, unless the caller is an admin
func OwnerOrAdminMiddleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey) // Authenticated account
		// Check if userID exists in context
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Owners and admins only
		if userID != c.Param(param) && !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access to this account is not allowed"})
			return
		}
		c.Next()
	}
}
