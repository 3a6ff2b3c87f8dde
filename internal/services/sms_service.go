package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"medtrack/internal/models"
)

// SMSService sends dose reminders through an HTTP SMS gateway. The gateway
// contract is a POST with {to, from, body}; any 2xx response counts as
// accepted.
type SMSService struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

func NewSMSService() *SMSService {
	return &SMSService{
		endpoint: os.Getenv("SMS_GATEWAY_URL"),
		apiKey:   os.Getenv("SMS_GATEWAY_API_KEY"),
		from:     os.Getenv("SMS_FROM_NUMBER"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// Send delivers a dose reminder SMS. Implements NotificationSender.
func (s *SMSService) Send(account models.Account, settings models.UserSettings, med models.Medication, record models.AdherenceRecord) error {
	if s.endpoint == "" {
		return fmt.Errorf("SMS gateway not configured")
	}
	if account.PhoneNumber == "" {
		return fmt.Errorf("account %s has no phone number", account.Username)
	}

	dueLocal := formatDueTime(record, settings)
	payload := smsPayload{
		To:   account.PhoneNumber,
		From: s.from,
		Body: fmt.Sprintf("medtrack: %s (%g %s) is due at %s", med.Name, med.DosageAmount, med.DosageUnit, dueLocal),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode SMS payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("SMS gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS gateway rejected message for %s: %d", account.Username, resp.StatusCode)
	}

	return nil
}
