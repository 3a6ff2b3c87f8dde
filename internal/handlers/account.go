package handlers

import (
	"net/http"
	"time"

	"medtrack/internal/auth"
	"medtrack/internal/database"
	"medtrack/internal/models"
	"medtrack/internal/schedule"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateProfile completes account creation after the first Google sign-in.
// The timezone is validated up front: an unknown IANA zone rejects the write,
// it is never silently defaulted to UTC.
func CreateProfile(c *gin.Context) {
	var request models.CreateProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input: "+err.Error(), err)
		return
	}

	if err := schedule.ValidateZone(request.Timezone); err != nil {
		handleError(c, http.StatusBadRequest, "Unknown timezone: "+request.Timezone, err)
		return
	}

	googleID := c.GetString("sub")
	if googleID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	if c.GetString("username") != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "Profile already exists"})
		return
	}

	db := database.GetDB()

	var existing models.Account
	if err := db.Where("username = ?", request.Username).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	} else if err != gorm.ErrRecordNotFound {
		handleError(c, http.StatusInternalServerError, "Failed to check username", err)
		return
	}

	account := models.Account{
		Username:      request.Username,
		GoogleID:      googleID,
		Email:         c.GetString("email"),
		EmailVerified: true,
		FullName:      request.FullName,
		AvatarURL:     c.GetString("picture"),
		PhoneNumber:   request.PhoneNumber,
		LastLogin:     time.Now(),
	}

	settings := models.UserSettings{
		Username:            request.Username,
		Timezone:            request.Timezone,
		ReminderLeadMinutes: int(cfg.ReminderLead / time.Minute),
		EmailEnabled:        true,
		SMSEnabled:          false,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		return tx.Create(&settings).Error
	})
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create profile", err)
		return
	}

	if sessionID := c.GetString("session_id"); sessionID != "" {
		if err := auth.LinkSessionToUser(sessionID, account.Username); err != nil {
			logger.Warn("failed to link session to new profile",
				zap.String("username", account.Username), zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccount returns the logged-in user's account with settings
func GetAccount(c *gin.Context) {
	username := c.GetString("username")

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

	c.JSON(http.StatusOK, account)
}
