package models

import (
	"time"
)

// ReminderChannel identifies a delivery channel for dose reminders
type ReminderChannel string

const (
	ChannelEmail ReminderChannel = "email"
	ChannelSMS   ReminderChannel = "sms"
)

// Reminder tracks reminder delivery per (adherence record, channel).
// The composite unique index plus the sent flag guarantee a channel
// transitions sent=false->true at most once per record; the dispatcher
// conditions the flip on the prior value.
type Reminder struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AdherenceRecordID uint            `gorm:"not null;index;uniqueIndex:idx_record_channel" json:"adherence_record_id"`
	AdherenceRecord   AdherenceRecord `gorm:"foreignKey:AdherenceRecordID" json:"-"`
	Channel           ReminderChannel `gorm:"size:10;not null;uniqueIndex:idx_record_channel" json:"channel"`
	Sent              bool            `gorm:"not null;default:false;index" json:"sent"`
	SentAt            *time.Time      `json:"sent_at"`
	LastError         string          `gorm:"type:text" json:"-"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the Reminder model
func (Reminder) TableName() string {
	return "reminder"
}
