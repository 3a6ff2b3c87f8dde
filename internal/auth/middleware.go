package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the session and stores the identity in the
// request context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := GetSession(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		if session.IsExpired() {
			DeleteSession(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, please log in again"})
			c.Abort()
			return
		}

		if session.HasActiveUser() {
			c.Set("username", session.Username)
		}
		c.Set("session_id", session.ID)
		c.Set("sub", session.GoogleID)
		c.Set("email", session.Email)
		c.Set("name", session.Name)
		c.Set("picture", session.Picture)

		c.Next()
	}
}

// RequireProfile rejects sessions that have not completed profile creation
func RequireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("username") == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "profile required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LogoutHandler handles user logout
func LogoutHandler(c *gin.Context) {
	DeleteSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
