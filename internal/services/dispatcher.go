package services

import (
	"time"

	"medtrack/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationSender delivers one dose reminder over a single channel.
// Implementations need not be idempotent; the dispatcher's sent-flag
// bookkeeping is the sole guard against double delivery.
type NotificationSender interface {
	Send(account models.Account, settings models.UserSettings, med models.Medication, record models.AdherenceRecord) error
}

// Dispatcher sends due-dose reminders. Per (record, channel) it attempts
// delivery at most once per run and marks the outcome with an optimistic
// conditional update, so overlapping runs cannot both deliver. Failed
// deliveries stay unsent and are retried on the next run until the record
// leaves pending.
type Dispatcher struct {
	db      *gorm.DB
	cfg     Config
	logger  *zap.Logger
	senders map[models.ReminderChannel]NotificationSender
}

// NewDispatcher creates a reminder dispatcher
func NewDispatcher(db *gorm.DB, cfg Config, logger *zap.Logger, senders map[models.ReminderChannel]NotificationSender) *Dispatcher {
	return &Dispatcher{db: db, cfg: cfg, logger: logger, senders: senders}
}

// maxReminderLead caps how far ahead any reminder may go out; matches the
// 720-minute ceiling enforced on UpdateSettingsRequest.ReminderLeadMinutes.
const maxReminderLead = 12 * time.Hour

// Run performs one dispatch pass at the given instant. Candidates are
// pending records already due (but not yet swept) or due within the owner's
// lead window. The query casts the widest possible net; each record is then
// filtered against its owner's configured lead.
func (d *Dispatcher) Run(now time.Time) JobSummary {
	var summary JobSummary

	windowStart := now.Add(-d.cfg.GracePeriod)
	windowEnd := now.Add(maxReminderLead)

	var records []models.AdherenceRecord
	err := d.db.Preload("Medication").
		Where("status = ? AND scheduled_for >= ? AND scheduled_for <= ?",
			models.StatusPending, windowStart, windowEnd).
		Order("scheduled_for").
		Find(&records).Error
	if err != nil {
		d.logger.Error("reminder candidate query failed", zap.Error(err))
		summary.Errors++
		return summary
	}

	settingsCache := make(map[string]*models.UserSettings)
	accountCache := make(map[string]*models.Account)

	for _, record := range records {
		settings, err := d.settingsFor(record.Username, settingsCache)
		if err != nil {
			d.logger.Error("failed to load settings",
				zap.String("username", record.Username), zap.Error(err))
			summary.Errors++
			continue
		}
		if record.ScheduledFor.After(now.Add(d.leadFor(settings))) {
			continue
		}
		account, err := d.accountFor(record.Username, accountCache)
		if err != nil {
			d.logger.Error("failed to load account",
				zap.String("username", record.Username), zap.Error(err))
			summary.Errors++
			continue
		}

		for channel, sender := range d.senders {
			if !settings.ChannelEnabled(channel) {
				continue
			}
			summary.Processed++
			sent, err := d.dispatchOne(record, channel, sender, *account, *settings, now)
			if err != nil {
				summary.Errors++
				continue
			}
			if sent {
				summary.Changed++
			}
		}
	}

	if summary.Processed > 0 {
		d.logger.Info("reminder dispatch finished",
			zap.Int("processed", summary.Processed),
			zap.Int("sent", summary.Changed),
			zap.Int("errors", summary.Errors),
		)
	}

	return summary
}

// dispatchOne handles a single (record, channel) pair: at most one delivery
// attempt, and the sent flag only flips if it was still false.
func (d *Dispatcher) dispatchOne(record models.AdherenceRecord, channel models.ReminderChannel,
	sender NotificationSender, account models.Account, settings models.UserSettings, now time.Time) (bool, error) {

	reminder := models.Reminder{AdherenceRecordID: record.ID, Channel: channel}
	if err := d.db.Where(&models.Reminder{AdherenceRecordID: record.ID, Channel: channel}).
		FirstOrCreate(&reminder).Error; err != nil {
		d.logger.Error("failed to ensure reminder row",
			zap.Uint("record_id", record.ID),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return false, err
	}
	if reminder.Sent {
		return false, nil
	}

	if err := sender.Send(account, settings, record.Medication, record); err != nil {
		d.logger.Warn("reminder delivery failed, will retry next run",
			zap.Uint("record_id", record.ID),
			zap.String("channel", string(channel)),
			zap.Error(err))
		d.db.Model(&models.Reminder{}).
			Where("id = ?", reminder.ID).
			Updates(map[string]interface{}{"last_error": err.Error(), "updated_at": now})
		return false, err
	}

	res := d.db.Model(&models.Reminder{}).
		Where("id = ? AND sent = ?", reminder.ID, false).
		Updates(map[string]interface{}{
			"sent":       true,
			"sent_at":    now,
			"last_error": "",
			"updated_at": now,
		})
	if res.Error != nil {
		d.logger.Error("failed to record reminder outcome",
			zap.Uint("record_id", record.ID),
			zap.String("channel", string(channel)),
			zap.Error(res.Error))
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// another run already marked it sent; the other actor won
		d.logger.Debug("reminder already marked sent by concurrent run",
			zap.Uint("record_id", record.ID),
			zap.String("channel", string(channel)))
		return false, nil
	}

	return true, nil
}

// leadFor resolves the reminder lead for a user, falling back to the global
// default when the setting is absent or nonsensical.
func (d *Dispatcher) leadFor(settings *models.UserSettings) time.Duration {
	lead := time.Duration(settings.ReminderLeadMinutes) * time.Minute
	if lead <= 0 {
		lead = d.cfg.ReminderLead
	}
	if lead > maxReminderLead {
		lead = maxReminderLead
	}
	return lead
}

func (d *Dispatcher) settingsFor(username string, cache map[string]*models.UserSettings) (*models.UserSettings, error) {
	if s, ok := cache[username]; ok {
		return s, nil
	}
	var settings models.UserSettings
	if err := d.db.Where("username = ?", username).First(&settings).Error; err != nil {
		return nil, err
	}
	cache[username] = &settings
	return &settings, nil
}

func (d *Dispatcher) accountFor(username string, cache map[string]*models.Account) (*models.Account, error) {
	if a, ok := cache[username]; ok {
		return a, nil
	}
	var account models.Account
	if err := d.db.Where("username = ?", username).First(&account).Error; err != nil {
		return nil, err
	}
	cache[username] = &account
	return &account, nil
}
