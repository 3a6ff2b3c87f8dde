package models

import (
	"time"
)

// UserSettings holds per-user reminder preferences. Timezone is the IANA
// zone name against which a medication's local scheduled times are resolved;
// it is validated on every write and never silently defaulted.
type UserSettings struct {
	Username            string    `gorm:"primaryKey;size:30" json:"username"`
	Timezone            string    `gorm:"size:64;not null;default:UTC" json:"timezone"`
	ReminderLeadMinutes int       `gorm:"not null;default:30" json:"reminder_lead_minutes"`
	EmailEnabled        bool      `gorm:"not null;default:true" json:"email_enabled"`
	SMSEnabled          bool      `gorm:"not null;default:false" json:"sms_enabled"`
	CreatedAt           time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the UserSettings model
func (UserSettings) TableName() string {
	return "user_settings"
}

// ChannelEnabled reports whether the given reminder channel is switched on
func (s *UserSettings) ChannelEnabled(ch ReminderChannel) bool {
	switch ch {
	case ChannelEmail:
		return s.EmailEnabled
	case ChannelSMS:
		return s.SMSEnabled
	}
	return false
}

// UpdateSettingsRequest represents a settings update
type UpdateSettingsRequest struct {
	Timezone            *string `json:"timezone"`
	ReminderLeadMinutes *int    `json:"reminder_lead_minutes" binding:"omitempty,min=0,max=720"`
	EmailEnabled        *bool   `json:"email_enabled"`
	SMSEnabled          *bool   `json:"sms_enabled"`
}
