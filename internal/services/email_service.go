package services

import (
	"fmt"
	"os"

	"medtrack/internal/models"
	"medtrack/internal/schedule"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// Send delivers a dose reminder email. Implements NotificationSender.
func (s *EmailService) Send(account models.Account, settings models.UserSettings, med models.Medication, record models.AdherenceRecord) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(account.Username, account.Email)

	dueLocal := formatDueTime(record, settings)
	subject := fmt.Sprintf("Reminder: time to take %s", med.Name)

	plainContent := fmt.Sprintf("Hello %s, your dose of %s (%g %s) is due at %s. Don't forget to log it!",
		account.Username, med.Name, med.DosageAmount, med.DosageUnit, dueLocal)

	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your dose of <strong>%s</strong> (%g %s) is due at %s.</p><p>Don't forget to log it!</p>",
		account.Username, med.Name, med.DosageAmount, med.DosageUnit, dueLocal)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)

	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d", account.Email, response.StatusCode)
	}

	return nil
}

// formatDueTime renders the due instant as wall-clock time in the user's
// zone; falls back to UTC if the stored zone has gone bad rather than
// dropping the reminder.
func formatDueTime(record models.AdherenceRecord, settings models.UserSettings) string {
	loc, err := schedule.LoadZone(settings.Timezone)
	if err != nil {
		return record.ScheduledFor.UTC().Format("15:04 MST")
	}
	_, clock := schedule.UTCToLocal(record.ScheduledFor, loc)
	return clock
}
