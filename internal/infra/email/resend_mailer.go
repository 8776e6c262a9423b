package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"subscription-storefront/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*ResendMailer)(nil)

const resendEndpoint = "https://api.resend.com/emails"

// ResendMailer delivers transactional email through the Resend REST API.
type ResendMailer struct {
	apiKey string
	from   string
	client *http.Client
}

func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key empty")
	}
	if from == "" {
		return nil, errors.New("from address empty")
	}
	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (m *ResendMailer) Send(ctx context.Context, mail adapter.Mail) error {
	payload := map[string]any{
		"from":    m.from,
		"to":      []string{mail.To},
		"subject": mail.Subject,
		"html":    mail.HTML,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var out struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return fmt.Errorf("resend http %d: %s", resp.StatusCode, out.Message)
	}
	return nil
}
