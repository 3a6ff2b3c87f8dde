package handlers

import (
	"net/http"

	"medtrack/internal/auth"
	"medtrack/internal/database"
	"medtrack/internal/models"
	"medtrack/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoginHandler redirects to Google OAuth login
func LoginHandler(c *gin.Context) {
	url, err := auth.GetLoginURL(c)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate login URL", err)
		return
	}
	logger.Info("login initiated", zap.String("client_ip", utils.GetRealClientIP(c)))
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallbackHandler processes the OAuth callback from Google
func GoogleCallbackHandler(c *gin.Context) {
	auth.HandleGoogleCallback(c)
}

// LogoutHandler handles user logout
func LogoutHandler(c *gin.Context) {
	auth.LogoutHandler(c)
}

// GetCurrentUser returns the profile of the logged-in user, or the identity
// claims when the profile has not been created yet
func GetCurrentUser(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		c.JSON(http.StatusOK, gin.H{
			"profile_complete": false,
			"email":            c.GetString("email"),
			"name":             c.GetString("name"),
			"picture":          c.GetString("picture"),
		})
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Preload("Settings").Where("username = ?", username).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			handleError(c, http.StatusNotFound, "Account not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to load account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile_complete": true,
		"account":          account,
	})
}
