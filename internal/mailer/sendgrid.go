// internal/mailer/sendgrid.go
package mailer

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridSender struct {
	FromName  string
	FromEmail string
	Client    *sendgrid.Client
}

func NewSendGridSender(apiKey, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		FromName:  fromName,
		FromEmail: fromEmail,
		Client:    sendgrid.NewSendClient(apiKey),
	}
}

func (s *SendGridSender) Send(m Message) (string, error) {
	from := mail.NewEmail(s.FromName, s.FromEmail)
	to := mail.NewEmail(m.ToName, m.To)
	message := mail.NewSingleEmail(from, m.Subject, to, m.Body, m.Body)

	resp, err := s.Client.Send(message)
	if err != nil {
		return "", fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("sendgrid API error: %d %s", resp.StatusCode, resp.Body)
	}

	messageID := ""
	if ids, ok := resp.Headers["X-Message-Id"]; ok && len(ids) > 0 {
		messageID = ids[0]
	}
	return messageID, nil
}

var _ Sender = (*SendGridSender)(nil)
